package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hitk-robotics/club-portal/internal/apperror"
)

// The query paths need a live server (see integration_test.go); these cover the error
// translation every method shares.

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotFoundOr(t *testing.T) {
	if err := notFoundOr(pgx.ErrNoRows, "event", "x", "getting event"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ErrNoRows -> %v, want ErrNotFound", err)
	}
	if err := notFoundOr(&pgconn.PgError{Code: "22P02"}, "event", "x", "getting event"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("invalid uuid -> %v, want ErrNotFound", err)
	}

	other := notFoundOr(errors.New("connection reset"), "event", "x", "getting event")
	if errors.Is(other, apperror.ErrNotFound) {
		t.Error("a transport error must not become ErrNotFound")
	}
	if other.Error() != "postgres: getting event: connection reset" {
		t.Errorf("message = %q", other.Error())
	}
}

func TestGithubIDArg(t *testing.T) {
	if githubIDArg(0) != nil {
		t.Error("githubIDArg(0) should be NULL")
	}
	if v := githubIDArg(42); v == nil || *v != 42 {
		t.Errorf("githubIDArg(42) = %v", v)
	}
}
