package models

import (
	"strings"
	"time"
)

// Status is the canonical aggregation bucket for a submission. The backend
// reports a few more labels than we count by: "rejected" keeps its own
// display badge but lands in the needs_revision bucket.
type Status string

const (
	StatusPending       Status = "pending"
	StatusAccepted      Status = "accepted"
	StatusNeedsRevision Status = "needs_revision"
	StatusReviewed      Status = "reviewed"
)

// Submission is the canonical record after normalization, independent of
// which endpoint (and which backend revision) produced the raw row.
type Submission struct {
	ID           int64      `json:"id" validate:"required"`
	Title        string     `json:"title"`
	StudentName  string     `json:"student_name"`
	StudentID    string     `json:"student_id,omitempty"`
	CourseID     int64      `json:"course_id,omitempty"`
	AssignmentID int64      `json:"assignment_id,omitempty"`
	CourseLabel  string     `json:"course_label,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	// CourseLabels holds every label spelling the raw record carried,
	// in resolution order. CourseLabel keeps the first for display.
	CourseLabels []string `json:"-"`
	// MatchedCourseID is stamped by the reconciliation pass for rows
	// whose course had to be inferred, so delta updates know which
	// counters to shift.
	MatchedCourseID int64 `json:"matched_course_id,omitempty"`
	Status       Status     `json:"status"`
	RawStatus    string     `json:"raw_status"`
	Grade        *float64   `json:"grade"`
	MaxGrade     float64    `json:"max_grade"`
	Feedback     string     `json:"feedback,omitempty"`
}

// Grade100 returns the grade as a rounded percentage of MaxGrade. Defined
// only for accepted submissions with a resolved grade and a positive
// denominator; everything else reports ok=false.
func (s *Submission) Grade100() (int, bool) {
	if s.Status != StatusAccepted || s.Grade == nil || s.MaxGrade <= 0 {
		return 0, false
	}
	pct := *s.Grade / s.MaxGrade * 100
	return int(pct + 0.5), true
}

// CanonicalStatus folds backend status spellings into aggregation buckets.
// Unknown labels degrade to pending rather than failing.
func CanonicalStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "accepted", "graded", "approved":
		return StatusAccepted
	case "needs_revision", "needsrevision", "rejected", "revision":
		return StatusNeedsRevision
	case "reviewed":
		return StatusReviewed
	default:
		return StatusPending
	}
}
