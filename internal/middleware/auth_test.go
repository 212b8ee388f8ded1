package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/coffeeapi/backend/internal/apperr"
	"github.com/coffeeapi/backend/internal/domain"
	"github.com/coffeeapi/backend/internal/handler"
	"github.com/coffeeapi/backend/internal/token"
	"github.com/coffeeapi/backend/internal/transport"
)

type mockUserRepo struct {
	findByIDFunc func(ctx context.Context, id int64) (*domain.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) FindAll(ctx context.Context, offset, limit int) ([]domain.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id int64, input domain.UpdateUserInput) (*domain.User, error) {
	return nil, nil
}

type mockSessionRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*domain.Session, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, input domain.CreateSessionInput) (*domain.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionRepo) FindByUserID(ctx context.Context, userID int64) ([]domain.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	return session, nil
}

func testCodec(t *testing.T) *token.Codec {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("failed to marshal public key: %v", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	codec, err := token.New(privatePEM, publicPEM)
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return codec
}

type guardFixture struct {
	mw    *AuthMiddleware
	codec *token.Codec
	users *mockUserRepo
	sess  *mockSessionRepo
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	codec := testCodec(t)
	users := &mockUserRepo{}
	sessions := &mockSessionRepo{}

	mw := NewAuthMiddleware(AuthMiddlewareConfig{
		Sessions:  sessions,
		Users:     users,
		Codec:     codec,
		Transport: transport.New(transport.Config{}),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return &guardFixture{mw: mw, codec: codec, users: users, sess: sessions}
}

func newGuardApp(guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e := apperr.As(err); e != nil {
				return c.Status(e.Status).SendString(string(e.Kind))
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
	app.Get("/protected", guard, func(c *fiber.Ctx) error {
		user := handler.GetUserFromContext(c)
		if user == nil {
			return c.SendString("anonymous")
		}
		return c.SendString(user.Username)
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, accessToken string) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if accessToken != "" {
		req.Header.Set(transport.AccessTokenHeader, "Bearer "+accessToken)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func activeSessionFor(userID int64) *domain.Session {
	return &domain.Session{
		ID:               "ab12cd34ef",
		UserID:           &userID,
		ValidUntil:       time.Now().Add(15 * time.Minute),
		RefreshableUntil: time.Now().Add(7 * 24 * time.Hour),
	}
}

func (f *guardFixture) signAccess(t *testing.T, sessionID string) string {
	t.Helper()

	signed, err := f.codec.Sign(token.AccessClaims(sessionID, time.Now().Add(15*time.Minute)))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestRequireNoToken(t *testing.T) {
	f := newGuardFixture(t)
	app := newGuardApp(f.mw.Require())

	resp, body := doRequest(t, app, "")
	if resp.StatusCode != http.StatusUnauthorized || body != string(apperr.KindTokenMissing) {
		t.Errorf("expected 401 token_missing, got %d %s", resp.StatusCode, body)
	}
}

func TestRequireExpiredToken(t *testing.T) {
	f := newGuardFixture(t)
	app := newGuardApp(f.mw.Require())

	signed, err := f.codec.Sign(token.AccessClaims("ab12cd34ef", time.Now().Add(-time.Minute)))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	resp, body := doRequest(t, app, signed)
	if resp.StatusCode != apperr.StatusTokenExpired || body != string(apperr.KindTokenExpired) {
		t.Errorf("expected 419 token_expired, got %d %s", resp.StatusCode, body)
	}
}

func TestRequireMalformedToken(t *testing.T) {
	f := newGuardFixture(t)
	app := newGuardApp(f.mw.Require())

	resp, body := doRequest(t, app, "not.a.token")
	if resp.StatusCode != http.StatusUnprocessableEntity || body != string(apperr.KindTokenInvalid) {
		t.Errorf("expected 422 token_invalid, got %d %s", resp.StatusCode, body)
	}
}

func TestRequireUnknownSession(t *testing.T) {
	f := newGuardFixture(t)
	app := newGuardApp(f.mw.Require())

	resp, body := doRequest(t, app, f.signAccess(t, "ab12cd34ef"))
	if resp.StatusCode != http.StatusForbidden || body != string(apperr.KindAuthRequired) {
		t.Errorf("expected 403 auth_required, got %d %s", resp.StatusCode, body)
	}
}

func TestRequireDisabledSession(t *testing.T) {
	f := newGuardFixture(t)
	f.sess.findByIDFunc = func(ctx context.Context, id string) (*domain.Session, error) {
		sess := activeSessionFor(1)
		sess.IsDisabled = true
		return sess, nil
	}
	app := newGuardApp(f.mw.Require())

	resp, body := doRequest(t, app, f.signAccess(t, "ab12cd34ef"))
	if resp.StatusCode != http.StatusForbidden || body != string(apperr.KindAuthRequired) {
		t.Errorf("expected 403 auth_required, got %d %s", resp.StatusCode, body)
	}
}

func TestRequireOrphanedSession(t *testing.T) {
	f := newGuardFixture(t)
	f.sess.findByIDFunc = func(ctx context.Context, id string) (*domain.Session, error) {
		sess := activeSessionFor(1)
		sess.UserID = nil
		return sess, nil
	}
	app := newGuardApp(f.mw.Require())

	resp, body := doRequest(t, app, f.signAccess(t, "ab12cd34ef"))
	if resp.StatusCode != http.StatusUnprocessableEntity || body != string(apperr.KindTokenInvalid) {
		t.Errorf("expected 422 token_invalid, got %d %s", resp.StatusCode, body)
	}
}

func TestRequireInactiveUser(t *testing.T) {
	f := newGuardFixture(t)
	f.sess.findByIDFunc = func(ctx context.Context, id string) (*domain.Session, error) {
		return activeSessionFor(1), nil
	}
	f.users.findByIDFunc = func(ctx context.Context, id int64) (*domain.User, error) {
		return &domain.User{ID: id, Username: "coffee", Email: "coffee@example.com", IsActive: false}, nil
	}
	app := newGuardApp(f.mw.Require())

	resp, body := doRequest(t, app, f.signAccess(t, "ab12cd34ef"))
	if resp.StatusCode != http.StatusForbidden || body != string(apperr.KindForbidden) {
		t.Errorf("expected 403 forbidden, got %d %s", resp.StatusCode, body)
	}
}

func TestRequireSuccess(t *testing.T) {
	f := newGuardFixture(t)
	f.sess.findByIDFunc = func(ctx context.Context, id string) (*domain.Session, error) {
		return activeSessionFor(1), nil
	}
	f.users.findByIDFunc = func(ctx context.Context, id int64) (*domain.User, error) {
		return &domain.User{ID: id, Username: "coffee", Role: domain.RoleUser, IsActive: true}, nil
	}
	app := newGuardApp(f.mw.Require())

	resp, body := doRequest(t, app, f.signAccess(t, "ab12cd34ef"))
	if resp.StatusCode != http.StatusOK || body != "coffee" {
		t.Errorf("expected 200 coffee, got %d %s", resp.StatusCode, body)
	}
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	f := newGuardFixture(t)
	f.sess.findByIDFunc = func(ctx context.Context, id string) (*domain.Session, error) {
		return activeSessionFor(1), nil
	}
	f.users.findByIDFunc = func(ctx context.Context, id int64) (*domain.User, error) {
		return &domain.User{ID: id, Username: "coffee", Role: domain.RoleUser, IsActive: true}, nil
	}
	app := newGuardApp(f.mw.RequireAdmin())

	resp, body := doRequest(t, app, f.signAccess(t, "ab12cd34ef"))
	if resp.StatusCode != http.StatusForbidden || body != string(apperr.KindForbidden) {
		t.Errorf("expected 403 forbidden, got %d %s", resp.StatusCode, body)
	}
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	f := newGuardFixture(t)
	f.sess.findByIDFunc = func(ctx context.Context, id string) (*domain.Session, error) {
		return activeSessionFor(1), nil
	}
	f.users.findByIDFunc = func(ctx context.Context, id int64) (*domain.User, error) {
		return &domain.User{ID: id, Username: "root", Role: domain.RoleAdmin, IsActive: true}, nil
	}
	app := newGuardApp(f.mw.RequireAdmin())

	resp, body := doRequest(t, app, f.signAccess(t, "ab12cd34ef"))
	if resp.StatusCode != http.StatusOK || body != "root" {
		t.Errorf("expected 200 root, got %d %s", resp.StatusCode, body)
	}
}

func TestOptionalSwallowsTokenFailures(t *testing.T) {
	f := newGuardFixture(t)
	app := newGuardApp(f.mw.Optional())

	expired, err := f.codec.Sign(token.AccessClaims("ab12cd34ef", time.Now().Add(-time.Minute)))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	// The unknown-session token verifies fine but resolves to auth_required;
	// it must pass through as anonymous just like the decode failures.
	for name, tok := range map[string]string{
		"missing":         "",
		"malformed":       "not.a.token",
		"expired":         expired,
		"unknown session": f.signAccess(t, "ab12cd34ef"),
	} {
		resp, body := doRequest(t, app, tok)
		if resp.StatusCode != http.StatusOK || body != "anonymous" {
			t.Errorf("%s: expected anonymous 200, got %d %s", name, resp.StatusCode, body)
		}
	}
}

func TestOptionalSwallowsInactiveUser(t *testing.T) {
	f := newGuardFixture(t)
	f.sess.findByIDFunc = func(ctx context.Context, id string) (*domain.Session, error) {
		return activeSessionFor(1), nil
	}
	f.users.findByIDFunc = func(ctx context.Context, id int64) (*domain.User, error) {
		return &domain.User{ID: id, Username: "coffee", Email: "coffee@example.com", IsActive: false}, nil
	}
	app := newGuardApp(f.mw.Optional())

	resp, body := doRequest(t, app, f.signAccess(t, "ab12cd34ef"))
	if resp.StatusCode != http.StatusOK || body != "anonymous" {
		t.Errorf("expected anonymous 200, got %d %s", resp.StatusCode, body)
	}
}

func TestOptionalResolvesUser(t *testing.T) {
	f := newGuardFixture(t)
	f.sess.findByIDFunc = func(ctx context.Context, id string) (*domain.Session, error) {
		return activeSessionFor(1), nil
	}
	f.users.findByIDFunc = func(ctx context.Context, id int64) (*domain.User, error) {
		return &domain.User{ID: id, Username: "coffee", Role: domain.RoleUser, IsActive: true}, nil
	}
	app := newGuardApp(f.mw.Optional())

	resp, body := doRequest(t, app, f.signAccess(t, "ab12cd34ef"))
	if resp.StatusCode != http.StatusOK || body != "coffee" {
		t.Errorf("expected 200 coffee, got %d %s", resp.StatusCode, body)
	}
}
