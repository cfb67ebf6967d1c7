package ingest

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

// DefaultMaxGrade applies when a record carries no usable max grade.
const DefaultMaxGrade = 100

// NormalizeSubmission builds a canonical Submission out of one raw listing
// row. The only hard failure is a missing id: every other field degrades to
// a default or stays empty.
func NormalizeSubmission(r Raw) (*models.Submission, error) {
	id, ok := Int(r, AttrID)
	if !ok {
		return nil, fmt.Errorf("raw submission has no resolvable id: %v", r)
	}

	sub := &models.Submission{
		ID:          id,
		Title:       String(r, AttrTitle),
		StudentName: String(r, AttrStudentName),
		StudentID:   String(r, AttrStudentID),
		SubmittedAt: Time(r, AttrSubmittedAt),
		Feedback:    String(r, AttrFeedback),
		MaxGrade:    DefaultMaxGrade,
	}

	// every label spelling the record carries participates in fallback
	// matching; a nested course object with both title and code also
	// contributes the two joined, to survive composed display labels
	sub.CourseLabels = Strings(r, AttrCourseLabel)
	if composed := composedCourseLabel(r); composed != "" {
		sub.CourseLabels = append(sub.CourseLabels, composed)
	}
	if len(sub.CourseLabels) > 0 {
		sub.CourseLabel = sub.CourseLabels[0]
	}

	if courseID, ok := Int(r, AttrCourseID); ok {
		sub.CourseID = courseID
	}
	if assignmentID, ok := Int(r, AttrAssignmentID); ok {
		sub.AssignmentID = assignmentID
	}

	sub.RawStatus = strings.ToLower(String(r, AttrStatus))
	sub.Status = models.CanonicalStatus(sub.RawStatus)

	if grade, ok := Number(r, AttrGrade); ok {
		sub.Grade = &grade
	}
	if maxGrade, ok := Number(r, AttrMaxGrade); ok && maxGrade > 0 {
		sub.MaxGrade = maxGrade
	}

	return sub, nil
}

func composedCourseLabel(r Raw) string {
	course, ok := r["course"].(map[string]any)
	if !ok {
		return ""
	}
	title, _ := course["title"].(string)
	code, _ := course["code"].(string)
	title = strings.TrimSpace(title)
	code = strings.TrimSpace(code)
	if title == "" || code == "" {
		return ""
	}
	return title + " " + code
}

// NormalizeSubmissions normalizes a whole listing response, dropping rows
// without a resolvable id. Dropped counts are reported so callers can log
// them; the batch itself never fails.
func NormalizeSubmissions(rows []Raw) ([]models.Submission, int) {
	subs := make([]models.Submission, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		sub, err := NormalizeSubmission(row)
		if err != nil {
			dropped++
			continue
		}
		subs = append(subs, *sub)
	}
	return subs, dropped
}

func NormalizeCourse(r Raw) (*models.Course, error) {
	id, ok := Int(r, AttrID)
	if !ok {
		return nil, fmt.Errorf("raw course has no resolvable id: %v", r)
	}
	course := &models.Course{
		ID:          id,
		Title:       String(r, AttrTitle),
		Code:        String(r, AttrCode),
		Description: String(r, AttrDescription),
	}
	if count, ok := Number(r, AttrStudentCount); ok && count > 0 {
		course.StudentCount = int(count)
	}
	return course, nil
}

func NormalizeAssignment(r Raw) (*models.Assignment, error) {
	id, ok := Int(r, AttrID)
	if !ok {
		return nil, fmt.Errorf("raw assignment has no resolvable id: %v", r)
	}
	a := &models.Assignment{
		ID:          id,
		Title:       String(r, AttrTitle),
		Description: String(r, AttrDescription),
	}
	if courseID, ok := Int(r, AttrCourseID); ok {
		a.CourseID = courseID
	}
	if deadline := Time(r, AttrDeadline); deadline != nil {
		unix := deadline.Unix()
		a.Deadline = &unix
	}
	if count, ok := Int(r, AttrSubmsCount); ok && count >= 0 {
		n := int(count)
		a.SubmissionsCount = &n
	}
	if maxGrade, ok := Number(r, AttrMaxGrade); ok && maxGrade > 0 {
		a.MaxGrade = &maxGrade
	}
	return a, nil
}
