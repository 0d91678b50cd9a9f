package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitk-robotics/club-portal/internal/auth"
	"github.com/hitk-robotics/club-portal/internal/service"
)

// ContentHandler serves the public pages: events, merchandise, team, subscriptions.
type ContentHandler struct {
	content *service.ContentService
	logger  *slog.Logger
}

func NewContentHandler(content *service.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{content: content, logger: logger}
}

// HandleListEvents: GET /api/events?limit=&offset=
func (h *ContentHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.content.ListEvents(r.Context(), queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		h.logger.Error("listing events", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleGetEvent: GET /api/events/{slug}
func (h *ContentHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.content.GetEvent(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HandleRegister signs the logged-in member up for an event.
//
// HTTP: POST /api/events/{id}/register (RequireAuth)
func (h *ContentHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	already, err := h.content.RegisterForEvent(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	status, msg := http.StatusCreated, "registered"
	if already {
		status, msg = http.StatusOK, "already registered"
	}
	writeJSON(w, status, map[string]any{"message": msg, "alreadyRegistered": already})
}

// HandleListMerchandise: GET /api/merchandise (available items only)
func (h *ContentHandler) HandleListMerchandise(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListMerchandise(r.Context(), true)
	if err != nil {
		h.logger.Error("listing merchandise", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleListTeam: GET /api/team
func (h *ContentHandler) HandleListTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.content.ListTeamMembers(r.Context())
	if err != nil {
		h.logger.Error("listing team", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

type subscribeRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

// HandleSubscribe signs an email up for announcements.
//
// HTTP: POST /api/notifications/subscribe  {"email": "...", "type": "events"|"merch"}
func (h *ContentHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	already, err := h.content.Subscribe(r.Context(), req.Email, req.Type)
	if err != nil {
		writeError(w, err)
		return
	}

	msg := "subscribed"
	if already {
		msg = "already subscribed"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "alreadySubscribed": already})
}
