package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"noslimites/api/internal/config"
	"noslimites/api/internal/email"
	"noslimites/api/internal/model"
	"noslimites/api/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Mailer abstracts the email provider for testing.
type Mailer interface {
	Configured() bool
	SendMagicLink(toEmail, linkURL string) error
}

// AuthService handles passwordless authentication: one-time magic links and
// short-lived stateless access tokens. Long-lived credentials live in
// DeviceService.
type AuthService struct {
	magicLinkRepo repository.MagicLinkRepository
	userRepo      repository.UserRepository
	deviceService *DeviceService
	mailer        Mailer
	config        *config.Config
}

func NewAuthService(
	magicLinkRepo repository.MagicLinkRepository,
	userRepo repository.UserRepository,
	deviceService *DeviceService,
	mailer Mailer,
	cfg *config.Config,
) *AuthService {
	if mailer == nil {
		mailer = email.NewClient(cfg.PostmarkServerToken, cfg.PostmarkFromEmail)
	}
	return &AuthService{
		magicLinkRepo: magicLinkRepo,
		userRepo:      userRepo,
		deviceService: deviceService,
		mailer:        mailer,
		config:        cfg,
	}
}

// RequestMagicLink issues a one-time sign-in link for the address. The
// response is identical whether or not the email belongs to an existing
// account, so the endpoint cannot be used for account enumeration. The
// account itself is only created at verification time.
func (s *AuthService) RequestMagicLink(ctx context.Context, emailAddr string) (*model.MagicLinkResponse, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if !emailPattern.MatchString(emailAddr) {
		return nil, model.ErrInvalidEmail
	}

	link := &model.MagicLink{
		Email:     emailAddr,
		Token:     newRandomToken(),
		ExpiresAt: time.Now().Add(time.Duration(s.config.MagicLinkMaxAge) * time.Second),
	}

	if err := s.magicLinkRepo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create magic link: %w", err)
	}

	linkURL := fmt.Sprintf("%s/auth/verify?token=%s", s.config.AppBaseURL, link.Token)

	if s.mailer.Configured() {
		if err := s.mailer.SendMagicLink(emailAddr, linkURL); err != nil {
			return nil, fmt.Errorf("failed to send magic link email: %w", err)
		}
		return &model.MagicLinkResponse{Message: "Si cette adresse existe, un lien de connexion a été envoyé."}, nil
	}

	if s.config.DevMode {
		log.Printf("[Auth] Dev mode: magic link for %s -> %s", emailAddr, linkURL)
		return &model.MagicLinkResponse{
			Message: "Si cette adresse existe, un lien de connexion a été envoyé.",
			DevLink: linkURL,
		}, nil
	}

	return nil, fmt.Errorf("no email provider configured")
}

// VerifyMagicLink redeems a link exactly once. On success it upserts the
// account by email, binds a new device and returns a fresh session. Of N
// concurrent verifications of the same token only one passes the
// compare-and-swap in ConsumeOnce; the losers see AlreadyUsed.
func (s *AuthService) VerifyMagicLink(ctx context.Context, token, deviceLabel string) (*model.VerifyResponse, error) {
	link, err := s.magicLinkRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if link.Used {
		return nil, model.ErrMagicLinkAlreadyUsed
	}
	if link.IsExpired() {
		return nil, model.ErrMagicLinkExpired
	}

	consumed, err := s.magicLinkRepo.ConsumeOnce(ctx, link.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume magic link: %w", err)
	}
	if !consumed {
		return nil, model.ErrMagicLinkAlreadyUsed
	}

	user, err := s.userRepo.UpsertByEmail(ctx, link.Email, model.ProviderMagicLink)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	creds, err := s.deviceService.Issue(ctx, user.ID, deviceLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to issue device: %w", err)
	}

	accessToken, err := s.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &model.VerifyResponse{
		User:        user,
		AccessToken: accessToken,
		DeviceID:    creds.DeviceID,
		DeviceToken: creds.DeviceToken,
		ExpiresIn:   s.config.AccessTokenMaxAge,
	}, nil
}

// GenerateAccessToken mints a short-lived stateless HS256 session token.
func (s *AuthService) GenerateAccessToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// newRandomToken returns 32 bytes of entropy, URL-safe encoded.
func newRandomToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails if the OS entropy source is broken
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
