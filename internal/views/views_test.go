package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/lussekatt/internal/aggregate"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

func ts(minAgo int) *time.Time {
	t := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC).Add(-time.Duration(minAgo) * time.Minute)
	return &t
}

func seedState() *State {
	subs := []models.Submission{
		{ID: 1, CourseID: 1, Status: models.StatusPending, SubmittedAt: ts(5)},
		{ID: 2, CourseID: 1, Status: models.StatusPending, SubmittedAt: ts(10)},
		{ID: 3, CourseID: 1, Status: models.StatusAccepted, SubmittedAt: ts(15)},
	}
	stats := map[int64]aggregate.CourseStats{
		1: {
			CourseID: 1,
			Total:    3,
			ByStatus: map[models.Status]int{
				models.StatusPending:       2,
				models.StatusAccepted:      1,
				models.StatusNeedsRevision: 0,
				models.StatusReviewed:      0,
			},
			CompletionPct: 33,
		},
	}
	return Rebuild(subs, stats, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
}

func TestRebuild_RecentIsNewestFirst(t *testing.T) {
	state := seedState()
	require.Len(t, state.Recent, 3)
	assert.Equal(t, int64(1), state.Recent[0].ID)
	assert.Equal(t, int64(3), state.Recent[2].ID)
}

func TestRebuild_NilTimestampsSortLast(t *testing.T) {
	subs := []models.Submission{
		{ID: 1},
		{ID: 2, SubmittedAt: ts(1)},
	}
	state := Rebuild(subs, nil, time.Now())
	assert.Equal(t, int64(2), state.Submissions[0].ID)
	assert.Equal(t, int64(1), state.Submissions[1].ID)
}

func TestApplyReview_PatchesListsAndShiftsCounters(t *testing.T) {
	state := seedState()
	grade := 90.0
	next := state.ApplyReview(&models.ReviewResult{
		ID:       1,
		Status:   "Accepted",
		Grade:    &grade,
		Feedback: "nice",
	})

	assert.Equal(t, models.StatusAccepted, next.Submissions[0].Status)
	assert.Equal(t, models.StatusAccepted, next.Recent[0].Status)
	assert.Equal(t, 90.0, *next.Submissions[0].Grade)
	assert.Equal(t, "nice", next.Submissions[0].Feedback)

	stats := next.Stats[1]
	assert.Equal(t, 1, stats.ByStatus[models.StatusPending])
	assert.Equal(t, 2, stats.ByStatus[models.StatusAccepted])
	assert.Equal(t, 3, stats.Total, "total does not move on review")
	assert.Equal(t, 67, stats.CompletionPct)
}

func TestApplyReview_ReceiverStaysUntouched(t *testing.T) {
	state := seedState()
	grade := 90.0
	next := state.ApplyReview(&models.ReviewResult{ID: 1, Status: "accepted", Grade: &grade})
	require.NotSame(t, state, next)

	// a snapshot handed out before the review keeps its pre-review view
	assert.Equal(t, models.StatusPending, state.Submissions[0].Status)
	assert.Equal(t, models.StatusPending, state.Recent[0].Status)
	assert.Nil(t, state.Submissions[0].Grade)
	assert.Equal(t, 2, state.Stats[1].ByStatus[models.StatusPending])
	assert.Equal(t, 33, state.Stats[1].CompletionPct)
}

func TestApplyReview_LabelMatchedCourseCounters(t *testing.T) {
	// no course id of its own: the course was inferred during matching
	subs := []models.Submission{
		{ID: 1, Status: models.StatusPending, MatchedCourseID: 1, SubmittedAt: ts(5)},
	}
	stats := map[int64]aggregate.CourseStats{
		1: {
			CourseID: 1,
			Total:    1,
			ByStatus: map[models.Status]int{
				models.StatusPending:  1,
				models.StatusAccepted: 0,
			},
			CompletionPct: 0,
		},
	}
	state := Rebuild(subs, stats, time.Now())

	next := state.ApplyReview(&models.ReviewResult{ID: 1, Status: "accepted"})

	got := next.Stats[1]
	assert.Equal(t, 0, got.ByStatus[models.StatusPending])
	assert.Equal(t, 1, got.ByStatus[models.StatusAccepted])
	assert.Equal(t, 100, got.CompletionPct)
}

func TestApplyReview_UnknownSubmissionIsNoop(t *testing.T) {
	state := seedState()

	var next *State
	assert.NotPanics(t, func() {
		next = state.ApplyReview(&models.ReviewResult{ID: 999, Status: "accepted"})
	})
	assert.Same(t, state, next)
	assert.Len(t, next.Submissions, 3)
}

func TestApplyReview_CounterClampsAtZero(t *testing.T) {
	state := seedState()
	// drift the stats so pending is already exhausted
	stats := state.Stats[1]
	stats.ByStatus[models.StatusPending] = 0
	state.Stats[1] = stats

	next := state.ApplyReview(&models.ReviewResult{ID: 2, Status: "needs_revision"})

	assert.Equal(t, 0, next.Stats[1].ByStatus[models.StatusPending])
	assert.Equal(t, 1, next.Stats[1].ByStatus[models.StatusNeedsRevision])
}

func TestApplyReview_SameBucketLeavesStatsAlone(t *testing.T) {
	state := seedState()
	next := state.ApplyReview(&models.ReviewResult{ID: 3, Status: "accepted"})

	stats := next.Stats[1]
	assert.Equal(t, 1, stats.ByStatus[models.StatusAccepted])
	assert.Equal(t, 33, stats.CompletionPct)
}
