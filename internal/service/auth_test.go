package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"noslimites/api/internal/config"
	"noslimites/api/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-jwt-secret",
		DeviceTokenSecret: "test-device-secret",
		AccessTokenMaxAge: 900,
		DeviceTokenMaxAge: 3600,
		MagicLinkMaxAge:   900,
		MaxDevicesPerUser: 10,
		AppBaseURL:        "https://app.example.com",
	}
}

func newTestAuthService(links *mockMagicLinkRepository, users *mockUserRepository, devices *mockDeviceRepository, mailer Mailer) *AuthService {
	cfg := testConfig()
	deviceService := NewDeviceService(devices, cfg)
	return NewAuthService(links, users, deviceService, mailer, cfg)
}

func TestAuthService_RequestMagicLink_RejectsInvalidEmail(t *testing.T) {
	svc := newTestAuthService(&mockMagicLinkRepository{}, &mockUserRepository{}, &mockDeviceRepository{}, &mockMailer{configured: true})

	for _, email := range []string{"", "not-an-email", "a@b", "user@", "@host.com", "two words@host.com"} {
		if _, err := svc.RequestMagicLink(context.Background(), email); !errors.Is(err, model.ErrInvalidEmail) {
			t.Errorf("RequestMagicLink(%q) error = %v, want ErrInvalidEmail", email, err)
		}
	}
}

func TestAuthService_RequestMagicLink_SameResponseForAnyAddress(t *testing.T) {
	// The response body must not depend on whether the address has an
	// account, so the endpoint cannot be used for enumeration.
	links := &mockMagicLinkRepository{}
	mailer := &mockMailer{configured: true}
	svc := newTestAuthService(links, &mockUserRepository{}, &mockDeviceRepository{}, mailer)

	respA, err := svc.RequestMagicLink(context.Background(), "known@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	respB, err := svc.RequestMagicLink(context.Background(), "stranger@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if respA.Message != respB.Message {
		t.Errorf("responses differ: %q vs %q", respA.Message, respB.Message)
	}
	if respA.DevLink != "" || respB.DevLink != "" {
		t.Error("dev link must not leak when a mailer is configured")
	}
	if len(mailer.sent) != 2 {
		t.Errorf("sent %d mails, want 2", len(mailer.sent))
	}
}

func TestAuthService_RequestMagicLink_DevModeReturnsLink(t *testing.T) {
	links := &mockMagicLinkRepository{}
	cfg := testConfig()
	cfg.DevMode = true
	deviceService := NewDeviceService(&mockDeviceRepository{}, cfg)
	svc := NewAuthService(links, &mockUserRepository{}, deviceService, &mockMailer{configured: false}, cfg)

	resp, err := svc.RequestMagicLink(context.Background(), "dev@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.DevLink == "" {
		t.Fatal("expected dev link in dev mode without mailer")
	}
	if len(links.created) != 1 {
		t.Fatalf("created %d links, want 1", len(links.created))
	}
	if got, want := resp.DevLink, "https://app.example.com/auth/verify?token="+links.created[0].Token; got != want {
		t.Errorf("dev link = %q, want %q", got, want)
	}
}

func TestAuthService_RequestMagicLink_NormalizesEmail(t *testing.T) {
	links := &mockMagicLinkRepository{}
	svc := newTestAuthService(links, &mockUserRepository{}, &mockDeviceRepository{}, &mockMailer{configured: true})

	if _, err := svc.RequestMagicLink(context.Background(), "  User@Example.COM  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := links.created[0].Email; got != "user@example.com" {
		t.Errorf("stored email = %q, want lowercased trimmed form", got)
	}
}

func TestAuthService_VerifyMagicLink_Success(t *testing.T) {
	link := &model.MagicLink{
		ID:        7,
		Email:     "alice@example.com",
		Token:     "tok",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	links := &mockMagicLinkRepository{
		getByTokenFn: func(ctx context.Context, token string) (*model.MagicLink, error) {
			if token == "tok" {
				return link, nil
			}
			return nil, model.ErrMagicLinkNotFound
		},
	}
	var upserted string
	users := &mockUserRepository{
		upsertByEmailFn: func(ctx context.Context, email, provider string) (*model.User, error) {
			upserted = email
			return &model.User{ID: 42, Email: email, AuthProvider: provider}, nil
		},
	}
	devices := &mockDeviceRepository{}
	svc := newTestAuthService(links, users, devices, &mockMailer{configured: true})

	resp, err := svc.VerifyMagicLink(context.Background(), "tok", "Firefox on Linux")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if upserted != "alice@example.com" {
		t.Errorf("upserted email = %q", upserted)
	}
	if resp.User.ID != 42 {
		t.Errorf("user ID = %d, want 42", resp.User.ID)
	}
	if resp.DeviceID == "" || resp.DeviceToken == "" {
		t.Error("expected device credentials in verify response")
	}
	if len(devices.created) != 1 {
		t.Fatalf("created %d devices, want 1", len(devices.created))
	}
	if devices.created[0].TokenHash == resp.DeviceToken {
		t.Error("device token must be stored hashed, not in plaintext")
	}

	// The access token must be a valid HS256 JWT carrying the user ID
	token, err := jwt.Parse(resp.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-jwt-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("access token does not parse: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if int64(claims["user_id"].(float64)) != 42 {
		t.Errorf("token user_id = %v, want 42", claims["user_id"])
	}
}

func TestAuthService_VerifyMagicLink_UsedLink(t *testing.T) {
	links := &mockMagicLinkRepository{
		getByTokenFn: func(ctx context.Context, token string) (*model.MagicLink, error) {
			return &model.MagicLink{ID: 1, Email: "a@b.com", Used: true, ExpiresAt: time.Now().Add(time.Minute)}, nil
		},
	}
	svc := newTestAuthService(links, &mockUserRepository{}, &mockDeviceRepository{}, &mockMailer{configured: true})

	if _, err := svc.VerifyMagicLink(context.Background(), "tok", ""); !errors.Is(err, model.ErrMagicLinkAlreadyUsed) {
		t.Errorf("error = %v, want ErrMagicLinkAlreadyUsed", err)
	}
}

func TestAuthService_VerifyMagicLink_ExpiredLink(t *testing.T) {
	links := &mockMagicLinkRepository{
		getByTokenFn: func(ctx context.Context, token string) (*model.MagicLink, error) {
			return &model.MagicLink{ID: 1, Email: "a@b.com", ExpiresAt: time.Now().Add(-time.Minute)}, nil
		},
	}
	svc := newTestAuthService(links, &mockUserRepository{}, &mockDeviceRepository{}, &mockMailer{configured: true})

	if _, err := svc.VerifyMagicLink(context.Background(), "tok", ""); !errors.Is(err, model.ErrMagicLinkExpired) {
		t.Errorf("error = %v, want ErrMagicLinkExpired", err)
	}
}

func TestAuthService_VerifyMagicLink_LosesConsumeRace(t *testing.T) {
	// The link reads as unused but another request consumes it first: the
	// compare-and-swap fails and no session is created.
	var userUpserts int
	links := &mockMagicLinkRepository{
		getByTokenFn: func(ctx context.Context, token string) (*model.MagicLink, error) {
			return &model.MagicLink{ID: 1, Email: "a@b.com", ExpiresAt: time.Now().Add(time.Minute)}, nil
		},
		consumeOnceFn: func(ctx context.Context, id int64) (bool, error) {
			return false, nil
		},
	}
	users := &mockUserRepository{
		upsertByEmailFn: func(ctx context.Context, email, provider string) (*model.User, error) {
			userUpserts++
			return &model.User{ID: 1, Email: email}, nil
		},
	}
	svc := newTestAuthService(links, users, &mockDeviceRepository{}, &mockMailer{configured: true})

	if _, err := svc.VerifyMagicLink(context.Background(), "tok", ""); !errors.Is(err, model.ErrMagicLinkAlreadyUsed) {
		t.Errorf("error = %v, want ErrMagicLinkAlreadyUsed", err)
	}
	if userUpserts != 0 {
		t.Error("no account may be created when the consume race is lost")
	}
}
