// Package views holds the in-memory projections the dashboard reads:
// the full reconciled submission list, the recent slice, and previously
// computed per-course stats. States are copy-on-write: a review action
// produces a new State by delta, never by re-running aggregation, and
// never by mutating a State already handed to a reader.
package views

import (
	"sort"
	"strings"
	"time"

	"github.com/shrimpsizemoose/lussekatt/internal/aggregate"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

const recentLimit = 10

type State struct {
	Submissions []models.Submission
	Recent      []models.Submission
	Stats       map[int64]aggregate.CourseStats
	LoadedAt    time.Time
}

// Rebuild replaces the projections after a full reload. Recent is the
// newest slice of the full list; rows without a timestamp sort last.
func Rebuild(subs []models.Submission, stats map[int64]aggregate.CourseStats, now time.Time) *State {
	sorted := make([]models.Submission, len(subs))
	copy(sorted, subs)
	sortBySubmittedDesc(sorted)

	recent := sorted
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	return &State{
		Submissions: sorted,
		Recent:      append([]models.Submission(nil), recent...),
		Stats:       stats,
		LoadedAt:    now,
	}
}

// Clone returns a state whose slices may be mutated without touching
// snapshots already handed out. The stats map stays shared; anything that
// changes stats must swap in a fresh map.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return &State{
		Submissions: append([]models.Submission(nil), s.Submissions...),
		Recent:      append([]models.Submission(nil), s.Recent...),
		Stats:       s.Stats,
		LoadedAt:    s.LoadedAt,
	}
}

// ApplyReview returns a new state with every projection containing the
// reviewed submission patched and the affected course's counters shifted
// by delta. The receiver is left untouched, so concurrent readers of an
// older snapshot see consistent data. A result for a submission we do not
// hold returns the receiver unchanged. The aggregation engine is never
// consulted here.
func (s *State) ApplyReview(result *models.ReviewResult) *State {
	if s == nil || result == nil {
		return s
	}

	var before *models.Submission
	for i := range s.Submissions {
		if s.Submissions[i].ID == result.ID {
			before = cloneOf(&s.Submissions[i])
			break
		}
	}
	if before == nil {
		return s
	}

	next := s.Clone()
	for i := range next.Submissions {
		if next.Submissions[i].ID == result.ID {
			patch(&next.Submissions[i], result)
			break
		}
	}
	for i := range next.Recent {
		if next.Recent[i].ID == result.ID {
			patch(&next.Recent[i], result)
			break
		}
	}

	next.Stats = adjustedStats(s.Stats, before, result)
	return next
}

// adjustedStats shifts one submission between status buckets, returning a
// fresh map so older snapshots keep their figures. The course is the one
// the reconciliation pass matched, which covers submissions that carried
// no course id of their own.
func adjustedStats(prev map[int64]aggregate.CourseStats, before *models.Submission, result *models.ReviewResult) map[int64]aggregate.CourseStats {
	courseID := before.MatchedCourseID
	if courseID == 0 {
		courseID = before.CourseID
	}
	stats, ok := prev[courseID]
	if !ok {
		return prev
	}

	oldStatus := before.Status
	newStatus := models.CanonicalStatus(result.Status)
	if oldStatus == newStatus {
		return prev
	}

	next := make(map[int64]aggregate.CourseStats, len(prev))
	for id, cs := range prev {
		next[id] = cs
	}
	byStatus := make(map[models.Status]int, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[status] = count
	}

	// clamped decrement: counters never go negative even if the view and
	// the stats drifted apart
	if byStatus[oldStatus] > 0 {
		byStatus[oldStatus]--
	}
	byStatus[newStatus]++
	stats.ByStatus = byStatus

	if stats.Total > 0 && !stats.Estimated {
		stats.CompletionPct = roundPct(byStatus[models.StatusAccepted], stats.Total)
	}
	next[courseID] = stats
	return next
}

func patch(sub *models.Submission, result *models.ReviewResult) {
	sub.RawStatus = strings.ToLower(result.Status)
	sub.Status = models.CanonicalStatus(result.Status)
	if result.Grade != nil {
		sub.Grade = result.Grade
	}
	if result.Feedback != "" {
		sub.Feedback = result.Feedback
	}
}

func cloneOf(sub *models.Submission) *models.Submission {
	c := *sub
	return &c
}

func sortBySubmittedDesc(subs []models.Submission) {
	sort.SliceStable(subs, func(i, j int) bool {
		return later(&subs[i], &subs[j])
	})
}

func later(a, b *models.Submission) bool {
	switch {
	case a.SubmittedAt == nil:
		return false
	case b.SubmittedAt == nil:
		return true
	default:
		return a.SubmittedAt.After(*b.SubmittedAt)
	}
}

func roundPct(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(part)/float64(total)*100 + 0.5)
}
