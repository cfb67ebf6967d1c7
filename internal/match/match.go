// Package match decides which course a reconciled submission belongs to.
// Upstream does not guarantee a stable foreign key, so identity matching
// falls back to label containment and then to assignment membership.
package match

import (
	"strings"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

// Matcher holds the pre-fetched assignment sets used for the membership
// fallback. Courses without a fetched assignment list simply never match
// through that tier.
type Matcher struct {
	assignmentsByCourse map[int64]map[int64]bool
}

func New() *Matcher {
	return &Matcher{
		assignmentsByCourse: make(map[int64]map[int64]bool),
	}
}

// SetAssignments replaces the known assignment list for one course.
func (m *Matcher) SetAssignments(courseID int64, assignments []models.Assignment) {
	ids := make(map[int64]bool, len(assignments))
	for _, a := range assignments {
		ids[a.ID] = true
	}
	m.assignmentsByCourse[courseID] = ids
}

// Matches reports whether the submission belongs to the course. Tie-break
// order, first hit wins:
//  1. numeric course id equality
//  2. normalized label containment, in both directions, also on an
//     alphanumeric-only variant ("CS-101" vs "CS101")
//  3. membership of the submission's assignment id in the course's
//     pre-fetched assignment set
//
// Nothing identifiable on either side means no match, never a default yes.
func (m *Matcher) Matches(sub *models.Submission, course *models.Course) bool {
	if sub == nil || course == nil {
		return false
	}

	if sub.CourseID != 0 && course.ID != 0 && sub.CourseID == course.ID {
		return true
	}

	if m.labelMatch(sub, course) {
		return true
	}

	if sub.AssignmentID != 0 {
		if ids, ok := m.assignmentsByCourse[course.ID]; ok && ids[sub.AssignmentID] {
			return true
		}
	}

	return false
}

// ResolveCourses stamps each submission with the id of the first course it
// matches. Rows with a direct course id keep it; rows matched through
// labels or assignment membership get the inferred id, so later delta
// updates know which course's counters to shift.
func (m *Matcher) ResolveCourses(subs []models.Submission, courses []models.Course) {
	for i := range subs {
		for j := range courses {
			if m.Matches(&subs[i], &courses[j]) {
				subs[i].MatchedCourseID = courses[j].ID
				break
			}
		}
	}
}

// Filter returns the subset of submissions that match the course.
func (m *Matcher) Filter(subs []models.Submission, course *models.Course) []models.Submission {
	var out []models.Submission
	for i := range subs {
		if m.Matches(&subs[i], course) {
			out = append(out, subs[i])
		}
	}
	return out
}

func (m *Matcher) labelMatch(sub *models.Submission, course *models.Course) bool {
	title := normalize(course.Title)
	code := normalize(course.Code)
	if title == "" && code == "" {
		return false
	}

	for _, candidate := range labelCandidates(sub) {
		if containsEitherWay(candidate, title) || containsEitherWay(candidate, code) {
			return true
		}
		stripped := stripNonAlnum(candidate)
		if containsEitherWay(stripped, stripNonAlnum(title)) ||
			containsEitherWay(stripped, stripNonAlnum(code)) {
			return true
		}
	}
	return false
}

// labelCandidates returns every normalized label spelling the submission
// carries. The assignment title is deliberately not a candidate: it names
// the assignment, not the course, and matching on it produces false
// positives across courses with similar lab names.
func labelCandidates(sub *models.Submission) []string {
	var out []string
	for _, label := range sub.CourseLabels {
		if normalized := normalize(label); normalized != "" {
			out = append(out, normalized)
		}
	}
	if len(out) == 0 {
		if label := normalize(sub.CourseLabel); label != "" {
			out = append(out, label)
		}
	}
	return out
}

func containsEitherWay(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
