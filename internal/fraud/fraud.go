// Package fraud implements the beneficiary fraud-review pipeline: a set
// of independent checks each yielding one verdict, folded into a single
// aggregate status through a deterministic precedence rule.  The
// pipeline gates beneficiary activation.
package fraud

import "strings"

// Status is the verdict of one check or of the whole pipeline.
type Status string

const (
	StatusOK         Status = "OK"
	StatusKO         Status = "KO"
	StatusSuspicious Status = "SUSPICIOUS"
)

// Item is one independently computed verdict with its human readable
// detail.  Items are immutable once produced.
type Item struct {
	Status Status
	Detail string
}

// Aggregate folds items into one status with strict precedence: all OK
// yields OK, any KO yields KO, anything else yields SUSPICIOUS.  The
// returned reason is the ";"-joined detail of every non-OK item in
// evaluation order, which keeps stored reasons reproducible.
func Aggregate(items []Item) (Status, string) {
	status := StatusOK
	var details []string
	for _, item := range items {
		if item.Status == StatusOK {
			continue
		}
		details = append(details, item.Detail)
		if item.Status == StatusKO {
			status = StatusKO
		} else if status != StatusKO {
			status = StatusSuspicious
		}
	}
	return status, strings.Join(details, ";")
}
