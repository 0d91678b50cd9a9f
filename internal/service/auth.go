package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/auth"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
	"github.com/hitk-robotics/club-portal/internal/session"
)

const MaxEmailLength = 254

// errBadCredentials is shared by every login failure so the response never says whether
// the email or the password was wrong.
var errBadCredentials = apperror.Unauthorized("invalid email or password")

// AuthService handles member and organizer authentication.
//
//	AuthHandler (HTTP) → AuthService → UserRepository / OrganizerRepository
//	                                 ↘ session.Store (revocation)
//	                                 ↘ TokenService (JWT)
//
// Every successful login creates a server-side session and a token bound to it.
type AuthService struct {
	users      repository.UserRepository
	organizers repository.OrganizerRepository
	sessions   session.Store
	tokens     *auth.TokenService
	passwords  *auth.PasswordService
	logger     *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	organizers repository.OrganizerRepository,
	sessions session.Store,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		organizers: organizers,
		sessions:   sessions,
		tokens:     tokens,
		passwords:  passwords,
		logger:     logger,
	}
}

// AuthResult bundles the account with the issued token so the handler can set the cookie
// and respond in one step. Exactly one of User and Organizer is set.
type AuthResult struct {
	User      *model.User
	Organizer *model.Organizer
	Token     string
	ExpiresAt time.Time
}

// SignUp creates a member account with an email and password.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := auth.CheckStrength(password); err != nil {
		return nil, apperror.ValidationFailed("password", strings.TrimPrefix(err.Error(), "auth: "))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Email: email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if apperror.IsConflict(err) {
			return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: "an account with this email already exists", Field: "email"}
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("member signed up", slog.String("userID", user.ID))
	return s.issueForUser(ctx, user)
}

// Login checks a member's email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if apperror.IsNotFound(err) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up member: %w", err)
	}

	if err := s.verify(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return s.issueForUser(ctx, user)
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback: the first login creates the
// member, later logins refresh the profile fields. An existing email/password account
// with the same email is linked rather than duplicated.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil || ghUser.ID == 0 {
		return nil, apperror.ValidationFailed("github", "GitHub profile is missing")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Login:     ghUser.Login,
		Email:     normalizeEmail(ghUser.Email),
		AvatarURL: ghUser.AvatarURL,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting GitHub user %d: %w", ghUser.ID, err)
	}

	s.logger.Info("member authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)
	return s.issueForUser(ctx, user)
}

// OrganizerLogin checks an organizer's credentials. Organizers are only ever created by
// SeedOrganizer.
func (s *AuthService) OrganizerLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	org, err := s.organizers.GetOrganizerByEmail(ctx, normalizeEmail(email))
	if apperror.IsNotFound(err) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up organizer: %w", err)
	}

	if err := s.verify(org.PasswordHash, password); err != nil {
		return nil, err
	}

	sess, token, err := s.issue(ctx, org.ID, auth.RoleOrganizer)
	if err != nil {
		return nil, err
	}
	s.logger.Info("organizer logged in", slog.String("organizerID", org.ID))
	return &AuthResult{Organizer: org, Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// Logout revokes one session. Revoking a session that is already gone is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("service/auth: revoking session: %w", err)
	}
	return nil
}

// ChangePassword verifies the current password server-side, stores the new hash and
// revokes every session of the member, including the one making the request.
// A GitHub-only account has no current password and may set one directly.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/auth: loading member: %w", err)
	}

	if user.PasswordHash != "" {
		if err := s.passwords.Verify(user.PasswordHash, current); err != nil {
			if errors.Is(err, auth.ErrInvalidPassword) {
				return apperror.ValidationFailed("currentPassword", "current password is incorrect")
			}
			return fmt.Errorf("service/auth: %w", err)
		}
	}
	if err := auth.CheckStrength(next); err != nil {
		return apperror.ValidationFailed("newPassword", strings.TrimPrefix(err.Error(), "auth: "))
	}

	hash, err := s.passwords.Hash(next)
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("service/auth: storing password: %w", err)
	}
	if err := s.sessions.DeleteAllForSubject(ctx, userID); err != nil {
		return fmt.Errorf("service/auth: revoking sessions: %w", err)
	}

	s.logger.Info("member changed password", slog.String("userID", userID))
	return nil
}

// Me returns the member behind a validated token.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("not logged in")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching member %s: %w", userID, err)
	}
	return user, nil
}

// SeedOrganizer creates or refreshes an organizer from configuration. passwordHash must
// already be a bcrypt hash; plaintext is refused.
func (s *AuthService) SeedOrganizer(ctx context.Context, email, fullName, passwordHash string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if !auth.IsHash(passwordHash) {
		return apperror.ValidationFailed("passwordHash", "organizer password must be a bcrypt hash")
	}

	org := &model.Organizer{Email: email, FullName: strings.TrimSpace(fullName), PasswordHash: passwordHash}
	if err := s.organizers.UpsertOrganizer(ctx, org); err != nil {
		return fmt.Errorf("service/auth: seeding organizer: %w", err)
	}
	s.logger.Info("organizer seeded", slog.String("organizerID", org.ID))
	return nil
}

func (s *AuthService) verify(hash, password string) error {
	err := s.passwords.Verify(hash, password)
	if errors.Is(err, auth.ErrInvalidPassword) {
		return errBadCredentials
	}
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	return nil
}

func (s *AuthService) issueForUser(ctx context.Context, user *model.User) (*AuthResult, error) {
	sess, token, err := s.issue(ctx, user.ID, auth.RoleMember)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// issue creates the session first so the token's jti always names a stored session.
func (s *AuthService) issue(ctx context.Context, subject string, role auth.Role) (*session.Session, string, error) {
	sess, err := s.sessions.Create(ctx, subject, string(role), s.tokens.TTL())
	if err != nil {
		return nil, "", fmt.Errorf("service/auth: creating session: %w", err)
	}
	token, err := s.tokens.Issue(subject, role, sess.ID)
	if err != nil {
		return nil, "", fmt.Errorf("service/auth: signing token: %w", err)
	}
	return sess, token, nil
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength || !strings.Contains(email, "@") {
		return apperror.ValidationFailed("email", "invalid email address")
	}
	return nil
}
