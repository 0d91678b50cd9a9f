package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/storage"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", apperror.ValidationFailed("score", "score must not be negative"), http.StatusBadRequest, "validation_error"},
		{"unauthorized", apperror.Unauthorized("invalid email or password"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperror.Forbidden("organizers only"), http.StatusForbidden, "forbidden"},
		{"not found wrapped", fmt.Errorf("service/content: %w", apperror.NotFound("event", "x")), http.StatusNotFound, "not_found"},
		{"conflict", apperror.Conflict("event", "robo-wars"), http.StatusConflict, "conflict"},
		{"uploads disabled", storage.ErrDisabled, http.StatusServiceUnavailable, "unavailable"},
		{"raw store error", errors.New("sqlite: database is locked"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantType, body.Error)
			assert.NotContains(t, body.Message, "sqlite")
		})
	}
}

func TestWriteErrorIncludesField(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, apperror.ValidationFailed("email", "invalid email address"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "email", body.Field)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"email":"a@b.c"}`, false},
		{"unknown field", `{"emial":"a@b.c"}`, true},
		{"trailing data", `{"email":"a@b.c"}{"email":"x"}`, true},
		{"not json", `email=a@b.c`, true},
		{"too large", `{"email":"` + strings.Repeat("a", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), r, &p)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a@b.c", p.Email)
		})
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=5&offset=abc", nil)
	assert.Equal(t, 5, queryInt(r, "limit", 10))
	assert.Equal(t, 0, queryInt(r, "offset", 0))
	assert.Equal(t, 7, queryInt(r, "missing", 7))
}
