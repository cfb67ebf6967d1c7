package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/aggregate"
	"github.com/shrimpsizemoose/lussekatt/internal/enrich"
	"github.com/shrimpsizemoose/lussekatt/internal/ingest"
	"github.com/shrimpsizemoose/lussekatt/internal/match"
	"github.com/shrimpsizemoose/lussekatt/internal/metrics"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
	"github.com/shrimpsizemoose/lussekatt/internal/notify"
	"github.com/shrimpsizemoose/lussekatt/internal/store"
	"github.com/shrimpsizemoose/lussekatt/internal/upstream"
	"github.com/shrimpsizemoose/lussekatt/internal/views"
)

// ErrReloadCooldown reports a refresh suppressed because a previous reload
// happened inside the cooldown window. Not a failure: callers keep serving
// the state they already have.
var ErrReloadCooldown = fmt.Errorf("reload suppressed by cooldown")

// Service owns the reconciled in-memory state for the active user and
// every entry point that mutates it. All mutation happens under one lock;
// the only blocking work is upstream calls.
type Service struct {
	Config   *Config
	Store    store.StateStore
	Upstream upstream.Client

	matcher  *match.Matcher
	engine   *aggregate.Engine
	enricher *enrich.Pipeline

	mu          sync.Mutex
	activeUser  string
	state       *views.State
	courses     []models.Course
	assignments map[int64][]models.Assignment
	generation  int64
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	var headers []upstream.Header
	for _, h := range config.Upstream.Headers {
		headers = append(headers, upstream.Header{Name: h.Name, Value: h.Value})
	}
	client := upstream.NewHTTPClient(config.Upstream.BaseURL, config.UpstreamTimeout(), headers)

	return NewServiceWith(config, st, client), nil
}

// NewServiceWith wires explicit collaborators, which is also the seam the
// tests use.
func NewServiceWith(config *Config, st store.StateStore, client upstream.Client) *Service {
	matcher := match.New()
	return &Service{
		Config:      config,
		Store:       st,
		Upstream:    client,
		matcher:     matcher,
		engine:      aggregate.New(matcher),
		enricher:    enrich.New(client),
		assignments: make(map[int64][]models.Assignment),
	}
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

// SetActiveUser switches the engine to another authenticated identity.
// The previous user's persisted namespace is purged and the in-memory
// state dropped, so nothing leaks across sessions.
func (s *Service) SetActiveUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeUser == userID {
		return nil
	}

	if s.activeUser != "" {
		if err := s.Store.Purge(s.activeUser); err != nil {
			return fmt.Errorf("failed to purge previous user state: %w", err)
		}
		logger.Info.Printf("User changed %s -> %s, state namespace purged", s.activeUser, userID)
	}

	s.activeUser = userID
	s.state = nil
	s.courses = nil
	s.assignments = make(map[int64][]models.Assignment)
	s.generation++
	return nil
}

// Reload pulls fresh submissions, courses and assignment lists, reconciles
// them and swaps in the new projections. force skips the cooldown gate:
// the periodic poller and the focus trigger both come through here with
// force=false and are suppressed when a reload just happened.
func (s *Service) Reload(ctx context.Context, trigger string, force bool) error {
	s.mu.Lock()
	userID := s.activeUser
	s.mu.Unlock()
	if userID == "" {
		return fmt.Errorf("no active user")
	}

	if !force {
		lastReload, err := s.Store.GetLastReload(userID)
		if err != nil {
			logger.Debug.Printf("Could not read last reload timestamp: %v", err)
		} else if !lastReload.IsZero() && time.Since(lastReload) < s.Config.ReloadCooldown() {
			metrics.ReloadsTotal.WithLabelValues(trigger, "suppressed").Inc()
			return ErrReloadCooldown
		}
	}

	rows, err := s.Upstream.ListSubmissions(ctx)
	if err != nil {
		metrics.ReloadsTotal.WithLabelValues(trigger, "error").Inc()
		return fmt.Errorf("failed to list submissions: %w", err)
	}

	subs, dropped := ingest.NormalizeSubmissions(rows)
	if dropped > 0 {
		logger.Debug.Printf("Dropped %d submission rows without a resolvable id", dropped)
		metrics.DroppedRecords.Add(float64(dropped))
	}

	courses, assignments := s.fetchCourses(ctx)

	s.mu.Lock()
	if s.activeUser != userID {
		// identity changed while we were fetching, discard
		s.mu.Unlock()
		return nil
	}
	s.courses = courses
	s.assignments = assignments
	for courseID, list := range assignments {
		s.matcher.SetAssignments(courseID, list)
	}
	s.matcher.ResolveCourses(subs, courses)

	stats := make(map[int64]aggregate.CourseStats, len(courses))
	for i := range courses {
		course := &courses[i]
		stats[course.ID] = s.engine.Aggregate(course, subs, assignments[course.ID])
	}

	now := time.Now()
	s.state = views.Rebuild(subs, stats, now)
	s.generation++
	generation := s.generation
	s.mu.Unlock()

	if err := s.Store.SetLastReload(userID, now); err != nil {
		logger.Debug.Printf("Failed to persist reload timestamp: %v", err)
	}

	if err := s.deriveNotifications(userID, subs, now); err != nil {
		logger.Debug.Printf("Notification derivation failed: %v", err)
	}

	// enrichment is opportunistic: it runs behind the reload and merges
	// by id, so a result landing after an even newer reload cannot
	// corrupt anything
	go s.enrichInBackground(context.WithoutCancel(ctx), generation, subs)

	metrics.ReloadsTotal.WithLabelValues(trigger, "ok").Inc()
	logger.Info.Printf("Reload (%s): %d submissions, %d courses", trigger, len(subs), len(courses))
	return nil
}

func (s *Service) fetchCourses(ctx context.Context) ([]models.Course, map[int64][]models.Assignment) {
	rows, err := s.Upstream.ListCourses(ctx)
	if err != nil {
		// partial aggregate data: stats fall back to whatever we knew
		logger.Debug.Printf("Course listing failed, keeping previous course set: %v", err)
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.courses, s.assignments
	}

	var courses []models.Course
	for _, row := range rows {
		course, err := ingest.NormalizeCourse(row)
		if err != nil {
			continue
		}
		courses = append(courses, *course)
	}
	// fills enrollment counts the listing endpoint sometimes omits
	courses = s.enricher.Courses(ctx, courses)

	assignments := make(map[int64][]models.Assignment, len(courses))
	for i := range courses {
		courseID := courses[i].ID
		assignmentRows, err := s.Upstream.ListAssignments(ctx, courseID)
		if err != nil {
			// matcher simply loses the membership fallback for this course
			logger.Debug.Printf("Assignment listing for course %d failed: %v", courseID, err)
			continue
		}
		var list []models.Assignment
		for _, row := range assignmentRows {
			a, err := ingest.NormalizeAssignment(row)
			if err != nil {
				continue
			}
			list = append(list, *a)
		}
		assignments[courseID] = s.enricher.Assignments(ctx, list)
	}

	return courses, assignments
}

func (s *Service) enrichInBackground(ctx context.Context, generation int64, subs []models.Submission) {
	enriched := s.enricher.Submissions(ctx, subs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return
	}
	if s.generation != generation {
		logger.Debug.Printf("Enrichment results superseded by a newer reload, merging by id")
	}

	byID := make(map[int64]*models.Submission, len(enriched))
	for i := range enriched {
		byID[enriched[i].ID] = &enriched[i]
	}

	// merge into a clone and swap, so snapshots already handed to
	// readers stay immutable
	next := s.state.Clone()
	mergeEnriched(next.Submissions, byID)
	mergeEnriched(next.Recent, byID)
	s.state = next
}

// mergeEnriched copies resolved fields into rows that still exist, keyed
// by stable submission id, never by index.
func mergeEnriched(dst []models.Submission, byID map[int64]*models.Submission) {
	for i := range dst {
		full, ok := byID[dst[i].ID]
		if !ok {
			continue
		}
		if full.StudentName != "" && (dst[i].StudentName == "" || enrich.IsPlaceholderName(dst[i].StudentName)) {
			dst[i].StudentName = full.StudentName
		}
		if dst[i].Grade == nil && full.Grade != nil {
			dst[i].Grade = full.Grade
		}
		if dst[i].MaxGrade == ingest.DefaultMaxGrade && full.MaxGrade > 0 && full.MaxGrade != ingest.DefaultMaxGrade {
			dst[i].MaxGrade = full.MaxGrade
		}
		if dst[i].Feedback == "" && full.Feedback != "" {
			dst[i].Feedback = full.Feedback
		}
	}
}

func (s *Service) deriveNotifications(userID string, subs []models.Submission, now time.Time) error {
	existing, err := s.Store.GetNotifications(userID)
	if err != nil {
		return err
	}

	updated, _, changed := notify.Derive(existing, subs, s.Config.RecencyWindow(), now)
	if !changed {
		return nil
	}
	return s.Store.SaveNotifications(userID, updated)
}

// Review submits one review action upstream and, once the service accepts
// it, patches every in-memory projection by delta before returning. On
// failure nothing local changes: this is the one error class the caller
// must see.
func (s *Service) Review(ctx context.Context, id int64, req models.ReviewRequest) (*models.ReviewResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid review: %w", err)
	}

	result, err := s.Upstream.SubmitReview(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	s.mu.Lock()
	s.state = s.state.ApplyReview(result)
	userID := s.activeUser
	s.mu.Unlock()

	if req.Feedback != "" && userID != "" {
		if _, err := s.Store.IncrCounter(userID, store.CounterMessagesSent); err != nil {
			logger.Debug.Printf("Failed to bump message counter: %v", err)
		}
	}

	metrics.ReviewsTotal.WithLabelValues(result.Status).Inc()
	return result, nil
}

// Snapshot returns the current projections for handlers to serve. Nil
// until the first successful reload. States are copy-on-write: the
// returned value never changes underneath the caller.
func (s *Service) Snapshot() *views.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) Courses() []models.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.courses
}

func (s *Service) CourseStats(courseID int64) (aggregate.CourseStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return aggregate.CourseStats{}, false
	}
	stats, ok := s.state.Stats[courseID]
	return stats, ok
}

// Notifications returns the persisted list with its unread count.
func (s *Service) Notifications() ([]models.Notification, int, error) {
	s.mu.Lock()
	userID := s.activeUser
	s.mu.Unlock()
	if userID == "" {
		return nil, 0, fmt.Errorf("no active user")
	}

	notifications, err := s.Store.GetNotifications(userID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, notify.UnreadCount(notifications), nil
}

func (s *Service) MarkNotificationRead(id string) error {
	s.mu.Lock()
	userID := s.activeUser
	s.mu.Unlock()
	if userID == "" {
		return fmt.Errorf("no active user")
	}

	notifications, err := s.Store.GetNotifications(userID)
	if err != nil {
		return err
	}

	updated, changed := notify.MarkRead(notifications, id)
	if !changed {
		return nil
	}
	return s.Store.SaveNotifications(userID, updated)
}

func (s *Service) Close() error {
	if err := s.Store.Close(); err != nil {
		return fmt.Errorf("errors while closing: %w", err)
	}
	return nil
}
