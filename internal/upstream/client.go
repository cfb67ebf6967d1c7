// Package upstream talks to the external course data service. The service
// owns all durable submission/course/assignment state; we only read it,
// except for the single review-save call.
package upstream

import (
	"context"

	"github.com/shrimpsizemoose/lussekatt/internal/ingest"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

// Client is everything the engine needs from the data service. Listing
// calls return raw records because the service's shapes vary by endpoint
// and backend revision; normalization happens in ingest.
type Client interface {
	ListSubmissions(ctx context.Context) ([]ingest.Raw, error)
	GetSubmission(ctx context.Context, id int64) (ingest.Raw, error)
	GetStudentProfile(ctx context.Context, studentID string) (ingest.Raw, error)
	ListCourses(ctx context.Context) ([]ingest.Raw, error)
	ListAssignments(ctx context.Context, courseID int64) ([]ingest.Raw, error)
	SubmitReview(ctx context.Context, id int64, review models.ReviewRequest) (*models.ReviewResult, error)
}
