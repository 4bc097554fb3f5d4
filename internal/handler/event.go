package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/mwalcott/eventdesk/internal/auth"
	"github.com/mwalcott/eventdesk/internal/model"
	"github.com/mwalcott/eventdesk/internal/store"
	"github.com/mwalcott/eventdesk/internal/thumb"
)

const (
	maxUploadBytes   = 32 << 20
	defaultPageLimit = 10
)

type EventHandler struct {
	events *store.EventStore
	users  *store.UserStore
	thumbs *thumb.Manager
	logger *slog.Logger
}

func NewEventHandler(es *store.EventStore, us *store.UserStore, tm *thumb.Manager, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: es, users: us, thumbs: tm, logger: logger}
}

type eventFields struct {
	name      string
	status    model.EventStatus
	startDate time.Time
	endDate   time.Time
	location  string
}

// formValue distinguishes an absent field from an empty one.
func formValue(r *http.Request, key string) (string, bool) {
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// parseEventFields validates the multipart form fields shared by create and
// edit. Status is only part of the edit form; create forces Ongoing.
// Returns the parsed fields, or an error message for the client.
func parseEventFields(r *http.Request, withStatus bool) (*eventFields, string) {
	f := &eventFields{status: model.StatusOngoing}

	name, ok := formValue(r, "name")
	if !ok {
		return nil, "Required field, name, is missing."
	}
	if name == "" {
		return nil, "Please enter a name for the event."
	}
	if len(name) > 200 {
		return nil, "Name is too long. Maximum length is 200."
	}
	f.name = name

	if withStatus {
		statusRaw, ok := formValue(r, "status")
		if !ok {
			return nil, "Required field, status, is missing."
		}
		n, err := strconv.Atoi(statusRaw)
		if err != nil || !model.EventStatus(n).Valid() {
			return nil, "Invalid status."
		}
		f.status = model.EventStatus(n)
	}

	startRaw, ok := formValue(r, "start_date")
	if !ok {
		return nil, "Required field, start_date, is missing."
	}
	start, err := parseDate(startRaw)
	if err != nil {
		return nil, "Invalid value given for start_date."
	}
	f.startDate = start

	endRaw, ok := formValue(r, "end_date")
	if !ok {
		return nil, "Required field, end_date, is missing."
	}
	end, err := parseDate(endRaw)
	if err != nil {
		return nil, "Invalid value given for end_date."
	}
	if end.Before(start) {
		return nil, "End date must be same as or after start date."
	}
	f.endDate = end

	location, ok := formValue(r, "location")
	if !ok {
		return nil, "Required field, location, is missing."
	}
	if location == "" {
		return nil, "Please enter a location for the event."
	}
	if len(location) > 1000 {
		return nil, "Location is too long. Maximum length is 1000."
	}
	f.location = location

	return f, ""
}

// Create makes a new event with status Ongoing. Fields are validated before
// the thumbnail is written to disk, so a validation failure leaves no file
// behind; if the record insert fails after the file is stored, the file is
// removed again.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}

	fields, errMsg := parseEventFields(r, false)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	file, _, err := r.FormFile("thumbnail")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Thumbnail missing. Please upload a thumbnail.")
		return
	}
	defer file.Close()

	path, err := h.thumbs.Store(file)
	if err != nil {
		h.logger.Error("store thumbnail", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	if _, err := h.events.Create(fields.name, model.StatusOngoing, fields.startDate, fields.endDate, fields.location, path); err != nil {
		h.logger.Error("create event", "error", err)
		if rmErr := h.thumbs.Remove(path); rmErr != nil {
			h.logger.Error("clean up thumbnail after failed create", "error", rmErr, "path", path)
		}
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Update edits an event. A supplied thumbnail replaces the existing file only
// when its contents differ; an identical upload is discarded and the original
// path kept.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	existing, err := h.events.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if existing == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}

	fields, errMsg := parseEventFields(r, true)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	thumbnailPath := existing.ThumbnailPath
	file, _, err := r.FormFile("thumbnail")
	if err == nil {
		defer file.Close()

		newPath, err := h.thumbs.Store(file)
		if err != nil {
			h.logger.Error("store thumbnail", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		adopted, err := h.thumbs.ReplaceIfChanged(existing.ThumbnailPath, newPath)
		if err != nil {
			// The record pointing at a missing file is an integrity
			// error: log it loudly, discard the upload.
			if errors.Is(err, thumb.ErrMissingOriginal) {
				h.logger.Error("event thumbnail missing from storage", "event_id", id, "path", existing.ThumbnailPath)
			} else {
				h.logger.Error("replace thumbnail", "error", err)
			}
			if rmErr := h.thumbs.Remove(newPath); rmErr != nil {
				h.logger.Error("clean up thumbnail after failed replace", "error", rmErr, "path", newPath)
			}
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		thumbnailPath = adopted
	} else if !errors.Is(err, http.ErrMissingFile) {
		writeError(w, http.StatusBadRequest, "Invalid thumbnail upload.")
		return
	}

	if _, err := h.events.Update(id, fields.name, fields.status, fields.startDate, fields.endDate, fields.location, thumbnailPath); err != nil {
		h.logger.Error("update event", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete removes an event after re-verifying the acting user's password.
// Deleting is destructive, so a stolen session alone is not enough.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req struct {
		Password *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Password == nil {
		writeError(w, http.StatusBadRequest, "Required field, password, is missing.")
		return
	}
	password := norm.NFC.String(*req.Password)
	if len(password) > 255 {
		writeError(w, http.StatusBadRequest, "Password too long. Maximum length is 255 characters.")
		return
	}

	user, err := h.users.GetByID(ac.UserID)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusInternalServerError, "Could not find user associated with auth token.")
		return
	}

	verified, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		h.logger.Error("verify password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if !verified {
		writeError(w, http.StatusBadRequest, "Password is incorrect.")
		return
	}

	event, err := h.events.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if event == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	// Record first, then file. If the file removal fails the orphan is
	// tolerable; a record pointing at a deleted file would not be.
	if err := h.events.Delete(id); err != nil {
		h.logger.Error("delete event", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if err := h.thumbs.Remove(event.ThumbnailPath); err != nil {
		h.logger.Error("remove thumbnail of deleted event", "error", err, "event_id", id, "path", event.ThumbnailPath)
	}

	w.WriteHeader(http.StatusNoContent)
}

// List returns one page of events plus an approximate total for pagination.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 0
	if s := r.URL.Query().Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			page = n
		}
	}

	limit := defaultPageLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			limit = n
		}
	}

	var status *model.EventStatus
	if s := r.URL.Query().Get("status"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || !model.EventStatus(n).Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status filter.")
			return
		}
		st := model.EventStatus(n)
		status = &st
	}

	events, err := h.events.List(page, limit, status)
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if events == nil {
		events = []model.Event{}
	}

	total, err := h.events.CountEstimate()
	if err != nil {
		h.logger.Error("count events", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_estimate": total,
		"data":           events,
	})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	event, err := h.events.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if event == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, event)
}
