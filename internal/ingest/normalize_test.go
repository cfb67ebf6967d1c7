package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

func TestNormalizeSubmission_FailsOnlyWithoutID(t *testing.T) {
	_, err := NormalizeSubmission(Raw{"title": "Lab 1", "status": "Pending"})
	assert.Error(t, err)

	sub, err := NormalizeSubmission(Raw{"id": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), sub.ID)
	assert.Equal(t, models.StatusPending, sub.Status)
	assert.Equal(t, float64(DefaultMaxGrade), sub.MaxGrade)
	assert.Nil(t, sub.Grade)
}

func TestNormalizeSubmission_StatusCanonicalization(t *testing.T) {
	testCases := []struct {
		rawStatus string
		bucket    models.Status
	}{
		{"Accepted", models.StatusAccepted},
		{"Rejected", models.StatusNeedsRevision},
		{"NeedsRevision", models.StatusNeedsRevision},
		{"needs_revision", models.StatusNeedsRevision},
		{"Pending", models.StatusPending},
		{"reviewed", models.StatusReviewed},
		{"SomethingNew", models.StatusPending},
	}

	for _, tc := range testCases {
		t.Run(tc.rawStatus, func(t *testing.T) {
			sub, err := NormalizeSubmission(Raw{
				"id":     float64(5),
				"status": tc.rawStatus,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.bucket, sub.Status)
			// display badge keeps the backend's own label
			assert.NotEmpty(t, sub.RawStatus)
		})
	}
}

func TestGrade100(t *testing.T) {
	sub, err := NormalizeSubmission(Raw{
		"id":       float64(1),
		"status":   "Accepted",
		"grade":    "85",
		"maxGrade": float64(100),
	})
	require.NoError(t, err)
	pct, ok := sub.Grade100()
	assert.True(t, ok)
	assert.Equal(t, 85, pct)

	pending, err := NormalizeSubmission(Raw{
		"id":     float64(2),
		"status": "Pending",
		"grade":  "85",
	})
	require.NoError(t, err)
	_, ok = pending.Grade100()
	assert.False(t, ok)
}

func TestGrade100_RoundsAgainstMaxGrade(t *testing.T) {
	sub, err := NormalizeSubmission(Raw{
		"id":         float64(3),
		"status":     "Accepted",
		"grade":      float64(17),
		"max_points": float64(20),
	})
	require.NoError(t, err)
	pct, ok := sub.Grade100()
	assert.True(t, ok)
	assert.Equal(t, 85, pct)
}

func TestNormalizeSubmissions_DropsBadRowsKeepsRest(t *testing.T) {
	rows := []Raw{
		{"id": float64(1), "status": "Pending"},
		{"title": "no id here"},
		{"submission_id": float64(2), "status": "Accepted"},
	}
	subs, dropped := NormalizeSubmissions(rows)
	assert.Len(t, subs, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, int64(1), subs[0].ID)
	assert.Equal(t, int64(2), subs[1].ID)
}

func TestNormalizeSubmission_DepartmentShapedRow(t *testing.T) {
	// the older backend revision reports course as the department name and
	// nests the reviewer grade inside feedback
	sub, err := NormalizeSubmission(Raw{
		"submission_id": float64(9),
		"assignment_id": float64(4),
		"student_id":    float64(17),
		"course":        "Computer Science",
		"status":        "Accepted",
		"feedback":      map[string]any{"grade": float64(90), "text": "solid"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", sub.CourseLabel)
	assert.Equal(t, "17", sub.StudentID)
	assert.Equal(t, int64(4), sub.AssignmentID)
	require.NotNil(t, sub.Grade)
	assert.Equal(t, float64(90), *sub.Grade)
	assert.Equal(t, "solid", sub.Feedback)
}

func TestNormalizeCourseAndAssignment(t *testing.T) {
	course, err := NormalizeCourse(Raw{
		"id":       float64(1),
		"title":    "Algorithms (CS101)",
		"code":     "CS101",
		"enrolled": float64(30),
	})
	require.NoError(t, err)
	assert.Equal(t, 30, course.StudentCount)

	a, err := NormalizeAssignment(Raw{
		"id":                float64(2),
		"course_id":         float64(1),
		"submissions_count": float64(12),
		"due_date":          "2026-09-15T23:59:59Z",
	})
	require.NoError(t, err)
	require.NotNil(t, a.SubmissionsCount)
	assert.Equal(t, 12, *a.SubmissionsCount)
	assert.NotNil(t, a.Deadline)
}

func TestNormalizeSubmission_CollectsAllCourseLabelSpellings(t *testing.T) {
	sub, err := NormalizeSubmission(Raw{
		"id": float64(1),
		"course": map[string]any{
			"title": "Algorithms",
			"code":  "CS101",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Algorithms", sub.CourseLabel)
	assert.Equal(t, []string{"Algorithms", "CS101", "Algorithms CS101"}, sub.CourseLabels)
}

func TestNormalizeSubmission_BareLabelYieldsSingleCandidate(t *testing.T) {
	sub, err := NormalizeSubmission(Raw{
		"id":     float64(1),
		"course": "cs101",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs101", sub.CourseLabel)
	assert.Equal(t, []string{"cs101"}, sub.CourseLabels)
}
