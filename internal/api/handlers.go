// Package api exposes HTTP handlers for the tug backend.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/tug/internal/auth"
	"example.com/tug/internal/domain"
	"example.com/tug/internal/persistence"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service     *domain.Service
	feedMaxPage int
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, feedMaxPage int) *Handler {
	if feedMaxPage <= 0 {
		feedMaxPage = 100
	}
	return &Handler{service: service, feedMaxPage: feedMaxPage}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/v1/values", h.values)
	mux.HandleFunc("/v1/values/", h.valueByID)
	mux.HandleFunc("/v1/feed", h.feed)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.logActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}

	if id, ok := strings.CutSuffix(rest, "/daily-total"); ok {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		h.dailyTotal(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getActivity(w, r, rest)
	case http.MethodPut:
		h.updateActivity(w, r, rest)
	case http.MethodDelete:
		h.deleteActivity(w, r, rest)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) logActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	var req LogActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	record, replay, err := h.service.LogActivity(r.Context(), domain.LogActivityInput{
		OwnerID:        claims.Subject,
		Title:          req.Title,
		ValueRefs:      req.ValueIDs,
		LegacyValueRef: req.ValueID,
		DurationMin:    req.DurationMin,
		OccurredOn:     req.OccurredOn,
		Notes:          req.Notes,
		IsPublic:       boolOrDefault(req.IsPublic, true),
		NotesPublic:    boolOrDefault(req.NotesPublic, false),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if replay {
		status = http.StatusOK
	}
	writeJSON(w, status, LogActivityResponse{
		Activity: toActivityView(*record),
		Replay:   replay,
	})
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	record, err := h.service.GetActivity(r.Context(), claims.Subject, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*record))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	records, next, err := h.service.ListActivities(r.Context(), claims.Subject, cursor, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]ActivityView, 0, len(records))
	for _, record := range records {
		items = append(items, toActivityView(record))
	}

	writeJSON(w, http.StatusOK, ListActivitiesResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	var req UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	record, err := h.service.UpdateActivity(r.Context(), domain.UpdateActivityInput{
		OwnerID:     claims.Subject,
		ActivityID:  id,
		Title:       req.Title,
		ValueRefs:   req.ValueIDs,
		DurationMin: req.DurationMin,
		OccurredOn:  req.OccurredOn,
		Notes:       req.Notes,
		IsPublic:    boolOrDefault(req.IsPublic, true),
		NotesPublic: boolOrDefault(req.NotesPublic, false),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*record))
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	if err := h.service.DeleteActivity(r.Context(), claims.Subject, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dailyTotal(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	total, err := h.service.CalculateDailyTotal(r.Context(), claims.Subject, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DailyTotalResponse{
		Date:         total.Date.Format("2006-01-02"),
		TotalMinutes: total.TotalMinutes,
		TotalHours:   total.TotalHours,
	})
}

func (h *Handler) values(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createValue(w, r)
	case http.MethodGet:
		h.listValues(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) valueByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/values/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing value id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getValue(w, r, id)
	case http.MethodPut:
		h.updateValue(w, r, id)
	case http.MethodDelete:
		h.deleteValue(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createValue(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeValuesWrite)
	if !ok {
		return
	}

	var req ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	value, err := h.service.CreateValue(r.Context(), domain.CreateValueInput{
		OwnerID:     claims.Subject,
		Name:        req.Name,
		Color:       req.Color,
		Importance:  req.Importance,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toValueView(*value))
}

func (h *Handler) getValue(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeValuesRead, auth.ScopeValuesWrite)
	if !ok {
		return
	}

	value, err := h.service.GetValue(r.Context(), claims.Subject, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toValueView(*value))
}

func (h *Handler) listValues(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeValuesRead, auth.ScopeValuesWrite)
	if !ok {
		return
	}

	values, err := h.service.ListValues(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]ValueView, 0, len(values))
	for _, value := range values {
		items = append(items, toValueView(value))
	}
	writeJSON(w, http.StatusOK, ListValuesResponse{Items: items})
}

func (h *Handler) updateValue(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeValuesWrite)
	if !ok {
		return
	}

	var req ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	value, err := h.service.UpdateValue(r.Context(), domain.UpdateValueInput{
		OwnerID:     claims.Subject,
		ValueID:     id,
		Name:        req.Name,
		Color:       req.Color,
		Importance:  req.Importance,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toValueView(*value))
}

func (h *Handler) deleteValue(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeValuesWrite)
	if !ok {
		return
	}

	if err := h.service.DeleteValue(r.Context(), claims.Subject, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) feed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeFeedRead, auth.ScopeActivitiesRead); !ok {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > h.feedMaxPage {
		limit = h.feedMaxPage
	}

	items, err := h.service.ListFeed(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]FeedItemView, 0, len(items))
	for _, item := range items {
		views = append(views, toFeedItemView(item))
	}
	writeJSON(w, http.StatusOK, FeedResponse{Items: views})
}

// requireScope resolves claims from the request context and checks that at
// least one of the given scopes is present.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+strings.Join(scopes, " or ")+" required")
	return nil, false
}

func writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Error())
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", "activity not found")
	case errors.Is(err, domain.ErrValueNotFound):
		writeError(w, http.StatusNotFound, "not_found", "value not found")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// LogActivityRequest is the payload for POST /v1/activities. value_id is the
// single-value form still sent by older clients; value_ids wins when both
// are present.
type LogActivityRequest struct {
	Title       string    `json:"title"`
	ValueIDs    []string  `json:"value_ids"`
	ValueID     string    `json:"value_id,omitempty"`
	DurationMin int       `json:"duration_min"`
	OccurredOn  time.Time `json:"occurred_on"`
	Notes       string    `json:"notes,omitempty"`
	IsPublic    *bool     `json:"is_public,omitempty"`
	NotesPublic *bool     `json:"notes_public,omitempty"`
}

// UpdateActivityRequest is the payload for PUT /v1/activities/{id}.
type UpdateActivityRequest struct {
	Title       string    `json:"title"`
	ValueIDs    []string  `json:"value_ids"`
	DurationMin int       `json:"duration_min"`
	OccurredOn  time.Time `json:"occurred_on"`
	Notes       string    `json:"notes,omitempty"`
	IsPublic    *bool     `json:"is_public,omitempty"`
	NotesPublic *bool     `json:"notes_public,omitempty"`
}

// LogActivityResponse describes the response body for create.
type LogActivityResponse struct {
	Activity ActivityView `json:"activity"`
	Replay   bool         `json:"idempotent_replay"`
}

// ActivityView exposes full details about an activity. Value association is
// always reported through the resolved plural form.
type ActivityView struct {
	ActivityID        string    `json:"activity_id"`
	OwnerID           string    `json:"owner_id"`
	Title             string    `json:"title"`
	ValueIDs          []string  `json:"value_ids"`
	PrimaryValue      string    `json:"primary_value"`
	HasMultipleValues bool      `json:"has_multiple_values"`
	DurationMin       int       `json:"duration_min"`
	DurationHours     float64   `json:"duration_hours"`
	OccurredOn        time.Time `json:"occurred_on"`
	Notes             string    `json:"notes,omitempty"`
	IsPublic          bool      `json:"is_public"`
	NotesPublic       bool      `json:"notes_public"`
	SchemaVersion     int       `json:"schema_version"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items      []ActivityView `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// DailyTotalResponse reports the summed minutes for one activity's day.
type DailyTotalResponse struct {
	Date         string  `json:"date"`
	TotalMinutes int     `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
}

// ValueRequest is the payload for creating or updating a value definition.
type ValueRequest struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Importance  int    `json:"importance"`
	Description string `json:"description,omitempty"`
}

// ValueView exposes a value definition.
type ValueView struct {
	ValueID     string    `json:"value_id"`
	Name        string    `json:"name"`
	Color       string    `json:"color,omitempty"`
	Importance  int       `json:"importance"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListValuesResponse packages value listings.
type ListValuesResponse struct {
	Items []ValueView `json:"items"`
}

// FeedItemView exposes one public feed entry.
type FeedItemView struct {
	FeedItemID   int64     `json:"feed_item_id"`
	ActivityID   string    `json:"activity_id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	PrimaryValue string    `json:"primary_value,omitempty"`
	DurationMin  int       `json:"duration_min"`
	OccurredOn   time.Time `json:"occurred_on"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FeedResponse packages the public feed.
type FeedResponse struct {
	Items []FeedItemView `json:"items"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"type":   code,
		"detail": detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func toActivityView(record domain.ActivityRecord) ActivityView {
	return ActivityView{
		ActivityID:        record.ID,
		OwnerID:           record.OwnerID,
		Title:             record.Title,
		ValueIDs:          record.EffectiveValueRefs(),
		PrimaryValue:      record.PrimaryValue(),
		HasMultipleValues: record.HasMultipleValues(),
		DurationMin:       record.DurationMin,
		DurationHours:     record.DurationHours(),
		OccurredOn:        record.OccurredOn,
		Notes:             record.Notes,
		IsPublic:          record.IsPublic,
		NotesPublic:       record.NotesPublic,
		SchemaVersion:     record.SchemaVersion,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}

func toValueView(value domain.Value) ValueView {
	return ValueView{
		ValueID:     value.ID,
		Name:        value.Name,
		Color:       value.Color,
		Importance:  value.Importance,
		Description: value.Description,
		CreatedAt:   value.CreatedAt,
		UpdatedAt:   value.UpdatedAt,
	}
}

func toFeedItemView(item domain.FeedItem) FeedItemView {
	return FeedItemView{
		FeedItemID:   item.ID,
		ActivityID:   item.ActivityID,
		OwnerID:      item.OwnerID,
		Title:        item.Title,
		PrimaryValue: item.PrimaryValue,
		DurationMin:  item.DurationMin,
		OccurredOn:   item.OccurredOn,
		Notes:        item.Notes,
		CreatedAt:    item.CreatedAt,
	}
}
