package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/service"
	"github.com/hitk-robotics/club-portal/internal/storage"
)

// Uploader stores an image and returns its public URL. *storage.ObjectStore implements
// it; a nil *ObjectStore answers storage.ErrDisabled.
type Uploader interface {
	Upload(ctx context.Context, folder, contentType string, size int64, body io.Reader) (string, error)
}

// AdminHandler serves the organizer pages. Every route is behind RequireRole(organizer).
type AdminHandler struct {
	content      *service.ContentService
	achievements *service.AchievementService
	uploads      Uploader
	logger       *slog.Logger
}

func NewAdminHandler(content *service.ContentService, achievements *service.AchievementService, uploads Uploader, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		content:      content,
		achievements: achievements,
		uploads:      uploads,
		logger:       logger,
	}
}

// HandleDashboard: GET /api/admin/dashboard
func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.content.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("building dashboard", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// --- events ---

// HandleListEvents: GET /api/admin/events
func (h *AdminHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.content.ListEvents(r.Context(), queryInt(r, "limit", service.MaxListLimit), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleCreateEvent: POST /api/admin/events
func (h *AdminHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var event model.Event
	if err := decodeJSON(w, r, &event); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.content.CreateEvent(r.Context(), &event)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdateEvent: PUT /api/admin/events/{id}
func (h *AdminHandler) HandleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var event model.Event
	if err := decodeJSON(w, r, &event); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.content.UpdateEvent(r.Context(), chi.URLParam(r, "id"), &event)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteEvent: DELETE /api/admin/events/{id}
func (h *AdminHandler) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- merchandise ---

// HandleListMerchandise: GET /api/admin/merchandise (unavailable items included)
func (h *AdminHandler) HandleListMerchandise(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListMerchandise(r.Context(), false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleCreateMerchandise: POST /api/admin/merchandise
func (h *AdminHandler) HandleCreateMerchandise(w http.ResponseWriter, r *http.Request) {
	var item model.Merchandise
	if err := decodeJSON(w, r, &item); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.content.CreateMerchandise(r.Context(), &item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdateMerchandise: PUT /api/admin/merchandise/{id}
func (h *AdminHandler) HandleUpdateMerchandise(w http.ResponseWriter, r *http.Request) {
	var item model.Merchandise
	if err := decodeJSON(w, r, &item); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.content.UpdateMerchandise(r.Context(), chi.URLParam(r, "id"), &item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteMerchandise: DELETE /api/admin/merchandise/{id}
func (h *AdminHandler) HandleDeleteMerchandise(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteMerchandise(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- team ---

// HandleListTeam: GET /api/admin/team
func (h *AdminHandler) HandleListTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.content.ListTeamMembers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// HandleCreateTeamMember: POST /api/admin/team
func (h *AdminHandler) HandleCreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var member model.TeamMember
	if err := decodeJSON(w, r, &member); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.content.CreateTeamMember(r.Context(), &member)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdateTeamMember: PUT /api/admin/team/{id}
func (h *AdminHandler) HandleUpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	var member model.TeamMember
	if err := decodeJSON(w, r, &member); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.content.UpdateTeamMember(r.Context(), chi.URLParam(r, "id"), &member)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteTeamMember: DELETE /api/admin/team/{id}
func (h *AdminHandler) HandleDeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteTeamMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- subscriptions, achievements, uploads ---

// HandleListSubscriptions: GET /api/admin/subscriptions?type=
func (h *AdminHandler) HandleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.content.ListSubscriptions(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

type grantRequest struct {
	Name string `json:"name"`
}

// HandleGrantAchievement: POST /api/admin/users/{id}/achievements {"name": "Legend"}
func (h *AdminHandler) HandleGrantAchievement(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	unlocked, err := h.achievements.Grant(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unlocked": unlocked})
}

// HandleUpload stores an image for an event, merchandise item or team card.
//
// HTTP: POST /api/admin/uploads (multipart: folder, file)
//
// The content type is sniffed from the file itself; the client's header is ignored.
func (h *AdminHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxUploadSize+64<<10)
	if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, apperror.ValidationFailed("file", "file exceeds 5 MiB"))
			return
		}
		writeError(w, apperror.ValidationFailed("file", "expected a multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperror.ValidationFailed("file", "file is required"))
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, apperror.ValidationFailed("file", "unreadable file"))
		return
	}
	head = head[:n]

	body := io.MultiReader(bytes.NewReader(head), file)
	url, err := h.uploads.Upload(r.Context(), r.FormValue("folder"), storage.SniffContentType(head), header.Size, body)
	if err != nil {
		if !errors.Is(err, apperror.ErrValidation) && !errors.Is(err, storage.ErrDisabled) {
			h.logger.Error("upload failed", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
