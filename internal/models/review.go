package models

import (
	"github.com/go-playground/validator/v10"
)

// ReviewRequest is what the dashboard sends when an instructor reviews a
// single submission. Grade is commonly required when accepting; the backend
// enforces the business rule, we only gate the obvious shape errors.
type ReviewRequest struct {
	Status   string   `json:"status" validate:"required,oneof=pending accepted rejected needs_revision reviewed"`
	Grade    *float64 `json:"grade,omitempty" validate:"omitempty,gte=0"`
	Feedback string   `json:"feedback,omitempty"`
}

// ReviewResult carries the values the data service actually persisted.
type ReviewResult struct {
	ID       int64    `json:"id"`
	Status   string   `json:"status"`
	Grade    *float64 `json:"grade"`
	Feedback string   `json:"feedback"`
}

func (r *ReviewRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
