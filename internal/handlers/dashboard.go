package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/metrics"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

type DashboardHandler struct {
	service *app.Service
}

func NewDashboardHandler(service *app.Service) *DashboardHandler {
	return &DashboardHandler{
		service: service,
	}
}

// identify resolves the authenticated user from the identity header and
// points the engine's state namespace at them. Auth proper lives in the
// gateway in front of us.
func (h *DashboardHandler) identify(w http.ResponseWriter, r *http.Request) bool {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return false
	}

	userID := r.Header.Get(h.service.Config.API.UserIDHeader)
	if userID == "" {
		http.Error(w, "Invalid user id specified", http.StatusUnauthorized)
		return false
	}

	if err := h.service.SetActiveUser(userID); err != nil {
		logger.Error.Printf("Failed to switch active user: %v", err)
		http.Error(w, "Failed to switch user", http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *DashboardHandler) observe(r *http.Request, start time.Time, status string) {
	metrics.APIRequestDuration.WithLabelValues(
		r.URL.Path,
		r.Method,
		status,
	).Observe(time.Since(start).Seconds())
}

// ensureLoaded lazily performs the first reload for a fresh namespace so
// GET endpoints work without an explicit refresh call first.
func (h *DashboardHandler) ensureLoaded(r *http.Request) {
	if h.service.Snapshot() != nil {
		return
	}
	if err := h.service.Reload(r.Context(), "lazy", true); err != nil {
		logger.Error.Printf("Initial load failed: %v", err)
	}
}

func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.observe(r, start, "200")

	if !h.identify(w, r) {
		return
	}
	h.ensureLoaded(r)

	state := h.service.Snapshot()
	if state == nil {
		http.Error(w, "Dashboard data unavailable", http.StatusServiceUnavailable)
		return
	}

	_, unread, err := h.service.Notifications()
	if err != nil {
		logger.Debug.Printf("Unread count unavailable: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"recent":       state.Recent,
		"stats":        state.Stats,
		"unread_count": unread,
		"loaded_at":    state.LoadedAt,
	}); err != nil {
		logger.Error.Printf("Failed to encode dashboard response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *DashboardHandler) HandleSubmissions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.observe(r, start, "200")

	if !h.identify(w, r) {
		return
	}
	h.ensureLoaded(r)

	state := h.service.Snapshot()
	if state == nil {
		http.Error(w, "Submissions unavailable", http.StatusServiceUnavailable)
		return
	}

	rows := state.Submissions
	if status := r.URL.Query().Get("status"); status != "" {
		bucket := models.CanonicalStatus(status)
		var filtered []models.Submission
		for _, sub := range rows {
			if sub.Status == bucket {
				filtered = append(filtered, sub)
			}
		}
		rows = filtered
	}
	if courseParam := r.URL.Query().Get("course_id"); courseParam != "" {
		courseID, err := strconv.ParseInt(courseParam, 10, 64)
		if err != nil {
			http.Error(w, "Invalid course_id", http.StatusBadRequest)
			return
		}
		var filtered []models.Submission
		for _, sub := range rows {
			if sub.CourseID == courseID {
				filtered = append(filtered, sub)
			}
		}
		rows = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"rows": rows,
	}); err != nil {
		logger.Debug.Printf("Error encoding response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *DashboardHandler) HandleCourseStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.observe(r, start, "200")

	if !h.identify(w, r) {
		return
	}
	h.ensureLoaded(r)

	courseID, err := strconv.ParseInt(r.PathValue("course"), 10, 64)
	if err != nil {
		logger.Error.Printf("Failed to extract course from path: %s", r.URL.Path)
		http.Error(w, "Invalid course", http.StatusBadRequest)
		return
	}

	stats, ok := h.service.CourseStats(courseID)
	if !ok {
		http.Error(w, "Unknown course", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"stats": stats,
	}); err != nil {
		logger.Error.Printf("Failed to encode stats: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *DashboardHandler) HandleReview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.observe(r, start, "200")

	if !h.identify(w, r) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid submission id", http.StatusBadRequest)
		return
	}

	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Review(r.Context(), id, req)
	if err != nil {
		// save failures are the one class the user must see
		logger.Error.Printf("Review save for submission %d failed: %v", id, err)
		http.Error(w, "Failed to save review", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.Error.Printf("Failed to encode review result: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *DashboardHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.observe(r, start, "200")

	if !h.identify(w, r) {
		return
	}

	notifications, unread, err := h.service.Notifications()
	if err != nil {
		logger.Error.Printf("Failed to fetch notifications: %v", err)
		http.Error(w, "Failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"rows":         notifications,
		"unread_count": unread,
	}); err != nil {
		logger.Error.Printf("Failed to encode notifications: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *DashboardHandler) HandleNotificationRead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.observe(r, start, "200")

	if !h.identify(w, r) {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Invalid notification id", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkNotificationRead(id); err != nil {
		logger.Error.Printf("Failed to mark notification %s read: %v", id, err)
		http.Error(w, "Failed to update notification", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleRefresh is the focus/visibility trigger: the UI calls it when the
// tab regains focus. Inside the cooldown it answers 202 and the UI keeps
// what it has.
func (h *DashboardHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.observe(r, start, "200")

	if !h.identify(w, r) {
		return
	}

	err := h.service.Reload(r.Context(), "focus", false)
	if errors.Is(err, app.ErrReloadCooldown) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("cooldown"))
		return
	}
	if err != nil {
		logger.Error.Printf("Focus reload failed: %v", err)
		http.Error(w, "Failed to refresh", http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
