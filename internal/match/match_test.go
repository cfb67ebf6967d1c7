package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

func TestMatches_IDEqualityBeatsLabelMismatch(t *testing.T) {
	m := New()
	course := &models.Course{ID: 1, Title: "Algorithms (CS101)", Code: "CS101"}
	sub := &models.Submission{ID: 10, CourseID: 1, CourseLabel: "totally unrelated"}

	assert.True(t, m.Matches(sub, course))
}

func TestMatches_LabelContainment(t *testing.T) {
	m := New()
	algo := &models.Course{ID: 1, Title: "Algorithms (CS101)", Code: "CS101"}
	db := &models.Course{ID: 2, Title: "Databases (CS102)", Code: "CS102"}

	testCases := []struct {
		name      string
		sub       models.Submission
		matchAlgo bool
		matchDB   bool
	}{
		{
			name:      "lowercase code label",
			sub:       models.Submission{ID: 1, CourseLabel: "cs101"},
			matchAlgo: true,
			matchDB:   false,
		},
		{
			name:      "label exactly the code",
			sub:       models.Submission{ID: 2, CourseLabel: "CS102"},
			matchAlgo: false,
			matchDB:   true,
		},
		{
			name:      "formatting drift with dash",
			sub:       models.Submission{ID: 3, CourseLabel: "CS-101"},
			matchAlgo: true,
			matchDB:   false,
		},
		{
			name:      "course title inside label",
			sub:       models.Submission{ID: 4, CourseLabel: "Algorithms (CS101) - fall term"},
			matchAlgo: true,
			matchDB:   false,
		},
		{
			name:      "no identifying fields",
			sub:       models.Submission{ID: 5},
			matchAlgo: false,
			matchDB:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.matchAlgo, m.Matches(&tc.sub, algo))
			assert.Equal(t, tc.matchDB, m.Matches(&tc.sub, db))
		})
	}
}

func TestMatches_AssignmentMembershipFallback(t *testing.T) {
	m := New()
	course := &models.Course{ID: 7, Title: "Operating Systems", Code: "OS301"}
	m.SetAssignments(7, []models.Assignment{{ID: 70}, {ID: 71}})

	member := &models.Submission{ID: 1, AssignmentID: 71}
	outsider := &models.Submission{ID: 2, AssignmentID: 99}

	assert.True(t, m.Matches(member, course))
	assert.False(t, m.Matches(outsider, course))
}

func TestMatches_NilSafety(t *testing.T) {
	m := New()
	assert.False(t, m.Matches(nil, &models.Course{ID: 1}))
	assert.False(t, m.Matches(&models.Submission{ID: 1}, nil))
}

func TestFilter(t *testing.T) {
	m := New()
	course := &models.Course{ID: 1, Title: "Algorithms (CS101)", Code: "CS101"}
	subs := []models.Submission{
		{ID: 1, CourseID: 1},
		{ID: 2, CourseLabel: "cs101"},
		{ID: 3, CourseLabel: "cs102"},
	}

	got := m.Filter(subs, course)
	assert.Len(t, got, 2)
}

func TestMatches_AllLabelSpellingsParticipate(t *testing.T) {
	m := New()
	// course identified only by code: a record whose first label spelling
	// is the bare title must still match through the code spelling
	codeOnly := &models.Course{ID: 3, Code: "CS101"}
	sub := &models.Submission{
		ID:           1,
		CourseLabel:  "Algorithms",
		CourseLabels: []string{"Algorithms", "CS101", "Algorithms CS101"},
	}

	assert.True(t, m.Matches(sub, codeOnly))
}

func TestMatches_AssignmentTitleIsNotACandidate(t *testing.T) {
	m := New()
	course := &models.Course{ID: 1, Title: "Algorithms (CS101)", Code: "CS101"}
	sub := &models.Submission{ID: 1, Title: "CS101 Lab 3"}

	assert.False(t, m.Matches(sub, course))
}

func TestResolveCourses_StampsInferredCourse(t *testing.T) {
	m := New()
	courses := []models.Course{
		{ID: 1, Title: "Algorithms (CS101)", Code: "CS101"},
		{ID: 2, Title: "Databases (CS102)", Code: "CS102"},
	}
	m.SetAssignments(2, []models.Assignment{{ID: 20}})

	subs := []models.Submission{
		{ID: 1, CourseID: 1},
		{ID: 2, CourseLabel: "cs102"},
		{ID: 3, AssignmentID: 20},
		{ID: 4},
	}

	m.ResolveCourses(subs, courses)

	assert.Equal(t, int64(1), subs[0].MatchedCourseID)
	assert.Equal(t, int64(2), subs[1].MatchedCourseID)
	assert.Equal(t, int64(2), subs[2].MatchedCourseID)
	assert.Equal(t, int64(0), subs[3].MatchedCourseID, "unmatchable rows stay unstamped")
}
