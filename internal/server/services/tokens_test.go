package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dkravchuk/contactbook/internal/common"
	"github.com/dkravchuk/contactbook/internal/dbx"
	"github.com/dkravchuk/contactbook/internal/server/auth"
	"github.com/dkravchuk/contactbook/internal/server/config"
	"github.com/dkravchuk/contactbook/internal/server/models"
	"github.com/dkravchuk/contactbook/internal/server/repositories/repomanager"
	usersrepo "github.com/dkravchuk/contactbook/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newCodec(t *testing.T) *auth.Codec {
	t.Helper()
	codec, err := auth.NewCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return codec
}

func newTokenService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager) *TokenService {
	t.Helper()
	cfg := &config.Config{
		AccessTokenValidityDuration:  30 * time.Minute,
		RefreshTokenValidityDuration: 24 * time.Hour,
	}
	return NewTokenService(db, rm, newCodec(t), cfg)
}

// fakeUsersRepo implements usersrepo.Repository in memory, keyed by email.
type fakeUsersRepo struct {
	users map[string]*models.User

	getErr    error
	updateErr error
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{users: map[string]*models.User{}}
	for _, u := range users {
		f.users[u.Email] = u
	}
	return f
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if _, ok := f.users[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u.ID = "id-" + u.Email
	f.users[u.Email] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) UpdateRefreshToken(ctx context.Context, userID string, token string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, u := range f.users {
		if u.ID == userID {
			u.RefreshToken = token
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeUsersRepo) MarkVerified(ctx context.Context, userID string) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.Verified = true
			return nil
		}
	}
	return common.ErrorNotFound
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }

// --- IssueAccessToken ---

func TestIssueAccessToken_DefaultTTL(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: newFakeUsersRepo()}
	s := newTokenService(t, db, rm)

	t0 := time.Now()
	s.now = func() time.Time { return t0 }

	tok, err := s.IssueAccessToken("u@example.com", 0)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	claims, err := newCodec(t).Decode(tok)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if claims.Subject != "u@example.com" {
		t.Fatalf("subject mismatch: %q", claims.Subject)
	}
	want := t0.Add(30 * time.Minute).Unix()
	if claims.ExpiresAt.Unix() != want {
		t.Fatalf("expiry mismatch: got %d want %d", claims.ExpiresAt.Unix(), want)
	}
}

func TestIssueAccessToken_ExplicitTTL(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newTokenService(t, db, &fakeRepoManager{u: newFakeUsersRepo()})
	t0 := time.Now()
	s.now = func() time.Time { return t0 }

	tok, err := s.IssueAccessToken("u@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	claims, err := newCodec(t).Decode(tok)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if claims.ExpiresAt.Unix() != t0.Add(time.Hour).Unix() {
		t.Fatalf("expiry mismatch")
	}
}

// --- IssueRefreshToken ---

func TestIssueRefreshToken_PersistsToken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	user := &models.User{ID: "u1", Email: "u@example.com"}
	rm := &fakeRepoManager{u: newFakeUsersRepo(user)}
	s := newTokenService(t, db, rm)

	tok, err := s.IssueRefreshToken(context.Background(), "u@example.com", 0)
	if err != nil {
		t.Fatalf("IssueRefreshToken error: %v", err)
	}
	if user.RefreshToken != tok {
		t.Fatalf("refresh token not persisted on user record")
	}
}

func TestIssueRefreshToken_UserNotFound(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	s := newTokenService(t, db, &fakeRepoManager{u: newFakeUsersRepo()})

	_, err := s.IssueRefreshToken(context.Background(), "ghost@example.com", 0)
	if !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestIssueRefreshToken_OverwriteLaw(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	user := &models.User{ID: "u1", Email: "u@example.com"}
	rm := &fakeRepoManager{u: newFakeUsersRepo(user)}
	s := newTokenService(t, db, rm)

	t0 := time.Now()
	s.now = func() time.Time { return t0 }
	first, err := s.IssueRefreshToken(context.Background(), "u@example.com", 0)
	if err != nil {
		t.Fatalf("first issue error: %v", err)
	}

	s.now = func() time.Time { return t0.Add(time.Minute) }
	second, err := s.IssueRefreshToken(context.Background(), "u@example.com", 0)
	if err != nil {
		t.Fatalf("second issue error: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct tokens")
	}
	if user.RefreshToken != second {
		t.Fatal("only the second token must remain current")
	}
}

// --- RotateAccessToken ---

func TestRotateAccessToken_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	user := &models.User{ID: "u1", Email: "u@example.com"}
	s := newTokenService(t, db, &fakeRepoManager{u: newFakeUsersRepo(user)})

	t0 := time.Now()
	s.now = func() time.Time { return t0 }
	refresh, err := s.IssueRefreshToken(context.Background(), "u@example.com", 3600*time.Second)
	if err != nil {
		t.Fatalf("IssueRefreshToken error: %v", err)
	}

	// Halfway through the refresh token's lifetime rotation must succeed.
	s.now = func() time.Time { return t0.Add(1800 * time.Second) }
	access, err := s.RotateAccessToken(context.Background(), refresh)
	if err != nil {
		t.Fatalf("RotateAccessToken error: %v", err)
	}

	claims, err := newCodec(t).Decode(access)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if claims.Subject != "u@example.com" {
		t.Fatalf("rotated token subject mismatch: %q", claims.Subject)
	}
}

func TestRotateAccessToken_GarbageToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newTokenService(t, db, &fakeRepoManager{u: newFakeUsersRepo()})

	_, err := s.RotateAccessToken(context.Background(), "not.a.token")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestRotateAccessToken_MissingSubject(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newTokenService(t, db, &fakeRepoManager{u: newFakeUsersRepo()})

	tok, err := newCodec(t).Encode(auth.NewClaims("", time.Now().Add(time.Hour), ""))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	_, err = s.RotateAccessToken(context.Background(), tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestRotateAccessToken_UnknownSubject(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newTokenService(t, db, &fakeRepoManager{u: newFakeUsersRepo()})

	tok, err := newCodec(t).Encode(auth.NewClaims("ghost@example.com", time.Now().Add(time.Hour), ""))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	_, err = s.RotateAccessToken(context.Background(), tok)
	if !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestRotateAccessToken_ExpiredRefreshToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	user := &models.User{ID: "u1", Email: "u@example.com"}
	s := newTokenService(t, db, &fakeRepoManager{u: newFakeUsersRepo(user)})

	tok, err := newCodec(t).Encode(auth.NewClaims("u@example.com", time.Now().Add(-time.Minute), ""))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	_, err = s.RotateAccessToken(context.Background(), tok)
	if !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("want ErrRefreshTokenExpired, got %v", err)
	}
}

// --- Authenticate ---

func TestAuthenticate_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	user := &models.User{ID: "u1", Email: "u@example.com"}
	s := newTokenService(t, db, &fakeRepoManager{u: newFakeUsersRepo(user)})

	tok, err := s.IssueAccessToken("u@example.com", 0)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	for _, bearer := range []string{tok, "Bearer " + tok} {
		got, err := s.Authenticate(context.Background(), bearer)
		if err != nil {
			t.Fatalf("Authenticate(%q...) error: %v", bearer[:6], err)
		}
		if got.ID != "u1" {
			t.Fatalf("unexpected user: %+v", got)
		}
	}
}

func TestAuthenticate_NeverReturnsAnotherUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	a := &models.User{ID: "ua", Email: "a@example.com"}
	b := &models.User{ID: "ub", Email: "b@example.com"}
	s := newTokenService(t, db, &fakeRepoManager{u: newFakeUsersRepo(a, b)})

	tok, err := s.IssueAccessToken("a@example.com", 0)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	got, err := s.Authenticate(context.Background(), tok)
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if got.Email != "a@example.com" || got.ID != "ua" {
		t.Fatalf("token for a@example.com resolved to %+v", got)
	}
}

func TestAuthenticate_FailuresCollapseToUnauthorized(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	user := &models.User{ID: "u1", Email: "u@example.com"}
	s := newTokenService(t, db, &fakeRepoManager{u: newFakeUsersRepo(user)})
	codec := newCodec(t)

	expired, err := codec.Encode(auth.NewClaims("u@example.com", time.Now().Add(-time.Minute), ""))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	noSubject, err := codec.Encode(auth.NewClaims("", time.Now().Add(time.Hour), ""))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	unknownUser, err := codec.Encode(auth.NewClaims("ghost@example.com", time.Now().Add(time.Hour), ""))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	otherCodec, err := auth.NewCodec([]byte("other-secret"))
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	wrongKey, err := otherCodec.Encode(auth.NewClaims("u@example.com", time.Now().Add(time.Hour), ""))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	tests := []struct {
		name   string
		bearer string
	}{
		{"malformed", "garbage"},
		{"empty", ""},
		{"expired", expired},
		{"no subject", noSubject},
		{"unknown user", unknownUser},
		{"wrong key", wrongKey},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Authenticate(context.Background(), tc.bearer)
			if !errors.Is(err, common.ErrorUnauthorized) {
				t.Fatalf("want ErrorUnauthorized, got %v", err)
			}
		})
	}
}
