package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/auth"
	"github.com/hitk-robotics/club-portal/internal/repository/sqlite"
	"github.com/hitk-robotics/club-portal/internal/session"
)

type authFixture struct {
	svc      *AuthService
	db       *sqlite.DB
	sessions *session.MemoryStore
	tokens   *auth.TokenService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := newTestStore(t)
	sessions := session.NewMemoryStore()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)

	// bcrypt.MinCost keeps the suite fast.
	passwords := auth.NewPasswordServiceWithCost(bcrypt.MinCost)
	return &authFixture{
		svc:      NewAuthService(db, db, sessions, tokens, passwords, testLogger()),
		db:       db,
		sessions: sessions,
		tokens:   tokens,
	}
}

// identity validates the token and checks that its session is live.
func (f *authFixture) identity(t *testing.T, token string) *auth.Identity {
	t.Helper()
	id, err := f.tokens.Validate(token)
	require.NoError(t, err)
	ok, err := f.sessions.Exists(context.Background(), id.SessionID)
	require.NoError(t, err)
	require.True(t, ok, "session should exist")
	return id
}

func TestSignUpAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.SignUp(ctx, "  Ada@Club.org ", "correct horse")
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, "ada@club.org", res.User.Email)
	assert.NotEqual(t, "correct horse", res.User.PasswordHash)

	id := f.identity(t, res.Token)
	assert.Equal(t, res.User.ID, id.Subject)
	assert.Equal(t, auth.RoleMember, id.Role)

	login, err := f.svc.Login(ctx, "ADA@club.org", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)
	assert.Equal(t, 2, f.sessions.Len())
}

func TestSignUp_Errors(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "not-an-email", "long enough")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.SignUp(ctx, "a@club.org", "short")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.SignUp(ctx, "a@club.org", "long enough")
	require.NoError(t, err)
	_, err = f.svc.SignUp(ctx, "A@club.org", "another one")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestLogin_BadCredentialsAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignUp(ctx, "a@club.org", "long enough")
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, "a@club.org", "not the password")
	_, noSuchUser := f.svc.Login(ctx, "b@club.org", "long enough")

	assert.ErrorIs(t, wrongPassword, apperror.ErrUnauthorized)
	assert.ErrorIs(t, noSuchUser, apperror.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), noSuchUser.Error())
}

func TestLoginOrRegisterGitHub(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	gh := &auth.GitHubUser{ID: 42, Login: "octocat", Email: "octo@github.com", AvatarURL: "https://avatars/42"}
	first, err := f.svc.LoginOrRegisterGitHub(ctx, gh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), first.User.GitHubID)
	f.identity(t, first.Token)

	gh.Login = "octocat-renamed"
	second, err := f.svc.LoginOrRegisterGitHub(ctx, gh)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID, "same member on later logins")
	assert.Equal(t, "octocat-renamed", second.User.Login)

	// A GitHub-only account cannot log in with a password.
	_, err = f.svc.Login(ctx, "octo@github.com", "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = f.svc.LoginOrRegisterGitHub(ctx, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestOrganizerLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("organizer-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.svc.SeedOrganizer(ctx, "Lead@Club.org", "Club Lead", string(hash)))

	res, err := f.svc.OrganizerLogin(ctx, "lead@club.org", "organizer-pass")
	require.NoError(t, err)
	require.NotNil(t, res.Organizer)
	assert.Nil(t, res.User)
	assert.Equal(t, auth.RoleOrganizer, f.identity(t, res.Token).Role)

	_, err = f.svc.OrganizerLogin(ctx, "lead@club.org", "wrong")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	// Member credentials do not open the organizer door.
	_, err = f.svc.SignUp(ctx, "member@club.org", "long enough")
	require.NoError(t, err)
	_, err = f.svc.OrganizerLogin(ctx, "member@club.org", "long enough")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestSeedOrganizer_RefusesPlaintext(t *testing.T) {
	f := newAuthFixture(t)
	err := f.svc.SeedOrganizer(context.Background(), "lead@club.org", "Lead", "hunter2hunter2")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.SignUp(ctx, "a@club.org", "long enough")
	require.NoError(t, err)
	id := f.identity(t, res.Token)

	require.NoError(t, f.svc.Logout(ctx, id.SessionID))
	ok, err := f.sessions.Exists(ctx, id.SessionID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.svc.Logout(ctx, id.SessionID), "logging out twice is fine")
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.SignUp(ctx, "a@club.org", "old password")
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, "a@club.org", "old password")
	require.NoError(t, err)
	require.Equal(t, 2, f.sessions.Len())

	err = f.svc.ChangePassword(ctx, res.User.ID, "wrong current", "new password")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = f.svc.ChangePassword(ctx, res.User.ID, "old password", "short")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, f.svc.ChangePassword(ctx, res.User.ID, "old password", "new password"))
	assert.Equal(t, 0, f.sessions.Len(), "every session is revoked")

	_, err = f.svc.Login(ctx, "a@club.org", "old password")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = f.svc.Login(ctx, "a@club.org", "new password")
	assert.NoError(t, err)
}

func TestMe(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.SignUp(ctx, "a@club.org", "long enough")
	require.NoError(t, err)

	me, err := f.svc.Me(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@club.org", me.Email)

	_, err = f.svc.Me(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = f.svc.Me(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
