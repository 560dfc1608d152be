package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/culture-marketplace/internal/fraud"
	"github.com/iliyamo/culture-marketplace/internal/repository"
)

// FraudHandler triggers the fraud review pipeline for one user.
type FraudHandler struct {
	Users   *repository.UserRepo
	Service *fraud.Service
}

type fraudCheckReq struct {
	// Identity provider sub-scores forwarded with the review request.
	Scores []struct {
		Name  string `json:"name" validate:"required"`
		Value int    `json:"value" validate:"min=0,max=100"`
	} `json:"scores" validate:"omitempty,dive"`
}

// Check evaluates the user in the path and returns the stored verdict.
func (h *FraudHandler) Check(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req fraudCheckReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	scores := make([]fraud.SubScore, 0, len(req.Scores))
	for _, s := range req.Scores {
		scores = append(scores, fraud.SubScore{Name: s.Name, Value: s.Value})
	}

	result, err := h.Service.Evaluate(ctx, u, scores)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": result.UserID,
		"status":  result.Status,
		"reason":  result.Reason,
	})
}
