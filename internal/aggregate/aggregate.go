// Package aggregate derives per-course statistics from the reconciled
// submission set. Stats are computed fresh on every pass and never cached
// across submission-set mutations.
package aggregate

import (
	"github.com/shrimpsizemoose/lussekatt/internal/match"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

// CourseStats is derived, not persisted. Estimated marks stats whose
// completion denominator came from server-reported assignment counters
// instead of actual matched submissions, so presentation can flag the
// figure.
type CourseStats struct {
	CourseID      int64                 `json:"course_id"`
	Total         int                   `json:"total"`
	ByStatus      map[models.Status]int `json:"by_status"`
	CompletionPct int                   `json:"completion_pct"`
	Estimated     bool                  `json:"estimated"`
}

// Engine filters through the shared matcher and counts canonical status
// buckets. Rejected rows were already folded into needs_revision during
// normalization.
type Engine struct {
	matcher *match.Matcher
}

func New(matcher *match.Matcher) *Engine {
	return &Engine{matcher: matcher}
}

// Aggregate computes stats for one course over the full submission set.
// When no submission matched but the course's assignment list carries
// server-reported submission counts, their sum becomes a fallback total
// used only as the completion denominator, never in the per-status
// breakdown.
func (e *Engine) Aggregate(course *models.Course, subs []models.Submission, assignments []models.Assignment) CourseStats {
	stats := CourseStats{
		CourseID: course.ID,
		ByStatus: map[models.Status]int{
			models.StatusPending:       0,
			models.StatusAccepted:      0,
			models.StatusNeedsRevision: 0,
			models.StatusReviewed:      0,
		},
	}

	matched := e.matcher.Filter(subs, course)
	stats.Total = len(matched)
	for i := range matched {
		stats.ByStatus[matched[i].Status]++
	}

	denominator := stats.Total
	if denominator == 0 {
		if fallback := fallbackTotal(assignments); fallback > 0 {
			denominator = fallback
			stats.Estimated = true
		}
	}

	stats.CompletionPct = percentage(stats.ByStatus[models.StatusAccepted], denominator)
	return stats
}

func fallbackTotal(assignments []models.Assignment) int {
	total := 0
	for _, a := range assignments {
		if a.SubmissionsCount != nil && *a.SubmissionsCount > 0 {
			total += *a.SubmissionsCount
		}
	}
	return total
}

// percentage rounds and floors at 0 for an empty denominator, so an empty
// course reads 0% rather than dividing by zero.
func percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(part)/float64(total)*100 + 0.5)
}
