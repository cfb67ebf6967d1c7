// Package enrich fills placeholder fields in reconciled records through
// secondary lookups. It is best-effort by contract: consumers must
// tolerate interim placeholders, and a failed lookup never surfaces past
// a debug log line.
package enrich

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/ingest"
	"github.com/shrimpsizemoose/lussekatt/internal/metrics"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
	"github.com/shrimpsizemoose/lussekatt/internal/upstream"
)

// "Student", "Student #12", "student 7" and the like are backend stand-ins
// for names it failed to join.
var placeholderName = regexp.MustCompile(`^student\s*#?\s*\d*$`)

func IsPlaceholderName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return true
	}
	return placeholderName.MatchString(strings.ToLower(trimmed))
}

// needsGrade reports accepted-but-ungraded rows: the backend says the work
// was graded, yet no numeric grade resolved from the listing row.
func needsGrade(sub *models.Submission) bool {
	// "graded" already canonicalizes into the accepted bucket
	return sub.Status == models.StatusAccepted && sub.Grade == nil
}

type Pipeline struct {
	client upstream.Client
}

func New(client upstream.Client) *Pipeline {
	return &Pipeline{client: client}
}

// Submissions returns a copy of subs with placeholder student names and
// missing grades filled in where lookups succeed. Lookups are batched by
// distinct key (one per student id, one per submission id), fan out
// concurrently, and fail independently. Already-good values are never
// overwritten.
func (p *Pipeline) Submissions(ctx context.Context, subs []models.Submission) []models.Submission {
	out := make([]models.Submission, len(subs))
	copy(out, subs)

	names := p.resolveNames(ctx, distinctStudentIDs(out))
	details := p.resolveDetails(ctx, idsNeedingGrade(out))

	for i := range out {
		if name, ok := names[out[i].StudentID]; ok && IsPlaceholderName(out[i].StudentName) {
			out[i].StudentName = name
		}
		detail, ok := details[out[i].ID]
		if !ok {
			continue
		}
		if out[i].Grade == nil {
			out[i].Grade = detail.Grade
		}
		if detail.MaxGrade > 0 && out[i].MaxGrade == ingest.DefaultMaxGrade {
			out[i].MaxGrade = detail.MaxGrade
		}
		if out[i].Feedback == "" {
			out[i].Feedback = detail.Feedback
		}
	}
	return out
}

// Assignments fills missing descriptions and max grades by re-listing
// each affected course's assignments, one call per distinct course.
func (p *Pipeline) Assignments(ctx context.Context, assignments []models.Assignment) []models.Assignment {
	out := make([]models.Assignment, len(assignments))
	copy(out, assignments)

	courseIDs := make(map[int64]bool)
	for i := range out {
		if out[i].CourseID == 0 {
			continue
		}
		if out[i].Description == "" || out[i].MaxGrade == nil {
			courseIDs[out[i].CourseID] = true
		}
	}
	if len(courseIDs) == 0 {
		return out
	}

	fetched := p.fanOutAssignments(ctx, courseIDs)
	for i := range out {
		full, ok := fetched[out[i].ID]
		if !ok {
			continue
		}
		if out[i].Description == "" {
			out[i].Description = full.Description
		}
		if out[i].MaxGrade == nil {
			out[i].MaxGrade = full.MaxGrade
		}
		if out[i].SubmissionsCount == nil {
			out[i].SubmissionsCount = full.SubmissionsCount
		}
	}
	return out
}

// Courses fills missing enrollment counts and descriptions from a single
// course-listing call, merged back by course id.
func (p *Pipeline) Courses(ctx context.Context, courses []models.Course) []models.Course {
	out := make([]models.Course, len(courses))
	copy(out, courses)

	incomplete := false
	for i := range out {
		if out[i].StudentCount <= 0 || out[i].Description == "" {
			incomplete = true
			break
		}
	}
	if !incomplete {
		return out
	}

	rows, err := p.client.ListCourses(ctx)
	if err != nil {
		logger.Debug.Printf("Course enrichment listing failed: %v", err)
		metrics.EnrichmentLookups.WithLabelValues("course", "error").Inc()
		return out
	}
	metrics.EnrichmentLookups.WithLabelValues("course", "ok").Inc()

	byID := make(map[int64]*models.Course, len(rows))
	for _, row := range rows {
		course, err := ingest.NormalizeCourse(row)
		if err != nil {
			continue
		}
		byID[course.ID] = course
	}

	for i := range out {
		full, ok := byID[out[i].ID]
		if !ok {
			continue
		}
		if out[i].StudentCount <= 0 && full.StudentCount > 0 {
			out[i].StudentCount = full.StudentCount
		}
		if out[i].Description == "" {
			out[i].Description = full.Description
		}
	}
	return out
}

func distinctStudentIDs(subs []models.Submission) map[string]bool {
	ids := make(map[string]bool)
	for i := range subs {
		if subs[i].StudentID == "" {
			continue
		}
		if IsPlaceholderName(subs[i].StudentName) {
			ids[subs[i].StudentID] = true
		}
	}
	return ids
}

func idsNeedingGrade(subs []models.Submission) map[int64]bool {
	ids := make(map[int64]bool)
	for i := range subs {
		if needsGrade(&subs[i]) {
			ids[subs[i].ID] = true
		}
	}
	return ids
}

// resolveNames looks up each distinct student id concurrently. A failed member
// contributes nothing.
func (p *Pipeline) resolveNames(ctx context.Context, studentIDs map[string]bool) map[string]string {
	names := make(map[string]string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for id := range studentIDs {
		wg.Add(1)
		go func(studentID string) {
			defer wg.Done()
			profile, err := p.client.GetStudentProfile(ctx, studentID)
			if err != nil {
				logger.Debug.Printf("Profile lookup for student %s failed: %v", studentID, err)
				metrics.EnrichmentLookups.WithLabelValues("profile", "error").Inc()
				return
			}
			metrics.EnrichmentLookups.WithLabelValues("profile", "ok").Inc()
			name := ingest.String(profile, ingest.AttrStudentName)
			if name == "" || IsPlaceholderName(name) {
				return
			}
			mu.Lock()
			names[studentID] = name
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	return names
}

func (p *Pipeline) resolveDetails(ctx context.Context, ids map[int64]bool) map[int64]*models.Submission {
	details := make(map[int64]*models.Submission)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for id := range ids {
		wg.Add(1)
		go func(subID int64) {
			defer wg.Done()
			raw, err := p.client.GetSubmission(ctx, subID)
			if err != nil {
				logger.Debug.Printf("Detail lookup for submission %d failed: %v", subID, err)
				metrics.EnrichmentLookups.WithLabelValues("detail", "error").Inc()
				return
			}
			metrics.EnrichmentLookups.WithLabelValues("detail", "ok").Inc()
			sub, err := ingest.NormalizeSubmission(raw)
			if err != nil {
				return
			}
			mu.Lock()
			details[subID] = sub
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	return details
}

func (p *Pipeline) fanOutAssignments(ctx context.Context, courseIDs map[int64]bool) map[int64]*models.Assignment {
	byID := make(map[int64]*models.Assignment)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for id := range courseIDs {
		wg.Add(1)
		go func(courseID int64) {
			defer wg.Done()
			rows, err := p.client.ListAssignments(ctx, courseID)
			if err != nil {
				logger.Debug.Printf("Assignment listing for course %d failed: %v", courseID, err)
				metrics.EnrichmentLookups.WithLabelValues("assignment", "error").Inc()
				return
			}
			metrics.EnrichmentLookups.WithLabelValues("assignment", "ok").Inc()
			for _, row := range rows {
				a, err := ingest.NormalizeAssignment(row)
				if err != nil {
					continue
				}
				mu.Lock()
				byID[a.ID] = a
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return byID
}
