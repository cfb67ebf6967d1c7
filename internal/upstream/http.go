package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/ingest"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

type Header struct {
	Name  string
	Value string
}

// HTTPClient is the JSON client for the data service. Retry and auth
// policy live with the deployment proxy, not here.
type HTTPClient struct {
	baseURL string
	headers []Header
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration, headers []Header) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) ListSubmissions(ctx context.Context) ([]ingest.Raw, error) {
	return c.getList(ctx, "/submissions")
}

func (c *HTTPClient) GetSubmission(ctx context.Context, id int64) (ingest.Raw, error) {
	return c.getOne(ctx, fmt.Sprintf("/submissions/%d", id))
}

func (c *HTTPClient) GetStudentProfile(ctx context.Context, studentID string) (ingest.Raw, error) {
	return c.getOne(ctx, "/students/"+studentID)
}

func (c *HTTPClient) ListCourses(ctx context.Context) ([]ingest.Raw, error) {
	return c.getList(ctx, "/courses")
}

func (c *HTTPClient) ListAssignments(ctx context.Context, courseID int64) ([]ingest.Raw, error) {
	return c.getList(ctx, fmt.Sprintf("/courses/%d/assignments", courseID))
}

func (c *HTTPClient) SubmitReview(ctx context.Context, id int64, review models.ReviewRequest) (*models.ReviewResult, error) {
	payload := map[string]any{
		"status": review.Status,
	}
	if review.Grade != nil {
		payload["grade"] = *review.Grade
	}
	if review.Feedback != "" {
		payload["feedback_text"] = review.Feedback
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode review: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/submissions/%d/status", id), body)
	if err != nil {
		return nil, err
	}

	// the service echoes back what it persisted; fall back to what we sent
	// for fields it omits
	record, _ := raw.(map[string]any)
	result := &models.ReviewResult{
		ID:       id,
		Status:   review.Status,
		Grade:    review.Grade,
		Feedback: review.Feedback,
	}
	if record != nil {
		r := ingest.Raw(unwrapDetail(record))
		if status := ingest.String(r, ingest.AttrStatus); status != "" {
			result.Status = strings.ToLower(status)
		}
		if grade, ok := ingest.Number(r, ingest.AttrGrade); ok {
			result.Grade = &grade
		}
		if feedback := ingest.String(r, ingest.AttrFeedback); feedback != "" {
			result.Feedback = feedback
		}
	}
	return result, nil
}

func (c *HTTPClient) getList(ctx context.Context, path string) ([]ingest.Raw, error) {
	decoded, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return unwrapList(decoded), nil
}

func (c *HTTPClient) getOne(ctx context.Context, path string) (ingest.Raw, error) {
	decoded, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	record, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected response shape for %s", path)
	}
	return unwrapDetail(record), nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) (any, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range c.headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Debug.Printf("Upstream %s %s returned %d: %s", method, path, resp.StatusCode, data)
		return nil, fmt.Errorf("upstream %s %s: status %d", method, path, resp.StatusCode)
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return decoded, nil
}

// unwrapList accepts either a bare JSON array or an envelope like
// {"rows": [...]}, {"items": [...]}, {"data": [...]}, {"results": [...]}.
func unwrapList(decoded any) []ingest.Raw {
	var items []any
	switch t := decoded.(type) {
	case []any:
		items = t
	case map[string]any:
		for _, key := range []string{"rows", "items", "data", "results", "submissions"} {
			if inner, ok := t[key].([]any); ok {
				items = inner
				break
			}
		}
	}

	out := make([]ingest.Raw, 0, len(items))
	for _, item := range items {
		if record, ok := item.(map[string]any); ok {
			out = append(out, ingest.Raw(record))
		}
	}
	return out
}

// unwrapDetail flattens detail envelopes like {"submission": {...},
// "feedback": {...}} into one record the resolver can probe. The nested
// feedback object stays put: the alias tables know how to reach into it.
func unwrapDetail(record map[string]any) map[string]any {
	inner, ok := record["submission"].(map[string]any)
	if !ok {
		return record
	}
	flat := make(map[string]any, len(inner)+2)
	for k, v := range inner {
		flat[k] = v
	}
	for _, key := range []string{"feedback", "files", "course", "student", "assignment"} {
		if v, ok := record[key]; ok {
			if _, exists := flat[key]; !exists {
				flat[key] = v
			}
		}
	}
	return flat
}
