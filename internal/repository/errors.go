// Package repository contains the MySQL persistence layer.  Sentinel
// errors defined here let handlers distinguish failure scenarios without
// inspecting driver errors.
package repository

import "errors"

// ErrEmailExists is returned when registering an email already in use.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")
