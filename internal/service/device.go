package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"noslimites/api/internal/config"
	"noslimites/api/internal/model"
	"noslimites/api/internal/repository"
)

// DeviceService manages long-lived device credentials. Device tokens are
// opaque random strings stored only as keyed hashes; the plaintext exists
// once, in the response that issued or rotated it.
type DeviceService struct {
	deviceRepo repository.DeviceRepository
	config     *config.Config
}

func NewDeviceService(deviceRepo repository.DeviceRepository, cfg *config.Config) *DeviceService {
	return &DeviceService{
		deviceRepo: deviceRepo,
		config:     cfg,
	}
}

// Issue creates a new device for the user and returns its plaintext token.
// When the user is at the device cap, the least recently seen devices are
// revoked to make room.
func (s *DeviceService) Issue(ctx context.Context, userID int64, label string) (*model.DeviceCredentials, error) {
	active, err := s.deviceRepo.CountActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}
	for active >= s.config.MaxDevicesPerUser {
		if err := s.deviceRepo.RevokeLeastRecentlySeen(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to evict device: %w", err)
		}
		log.Printf("[Device] Issue: evicted least recently seen device for user=%d", userID)
		active--
	}

	token := newRandomToken()
	device := &model.Device{
		UserID:    userID,
		TokenHash: s.hashToken(token),
		ExpiresAt: time.Now().Add(time.Duration(s.config.DeviceTokenMaxAge) * time.Second),
	}
	if label != "" {
		device.Label = &label
	}
	if err := s.deviceRepo.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	return &model.DeviceCredentials{
		DeviceID:    device.ID,
		DeviceToken: token,
	}, nil
}

// Refresh rotates the device token and mints a fresh access token pair.
// Rotation is a single guarded UPDATE: of N concurrent refreshes with the
// same old token exactly one wins, and a replayed old token after a
// successful rotation no longer matches anything.
func (s *DeviceService) Refresh(ctx context.Context, deviceID, presentedToken string) (*model.DeviceCredentials, int64, error) {
	presentedHash := s.hashToken(presentedToken)
	newToken := newRandomToken()
	newExpiry := time.Now().Add(time.Duration(s.config.DeviceTokenMaxAge) * time.Second)

	rotated, err := s.deviceRepo.Rotate(ctx, deviceID, presentedHash, s.hashToken(newToken), newExpiry)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to rotate device token: %w", err)
	}
	if rotated {
		device, err := s.deviceRepo.GetByID(ctx, deviceID)
		if err != nil {
			return nil, 0, err
		}
		return &model.DeviceCredentials{
			DeviceID:    deviceID,
			DeviceToken: newToken,
		}, device.UserID, nil
	}

	// Rotation missed: figure out whether the caller should re-authenticate
	// because the token expired, or because it is invalid or revoked.
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		return nil, 0, err
	}
	if !device.Revoked && device.TokenHash == presentedHash && device.IsExpired() {
		// The expiry guard already makes the token unusable; revoking marks
		// the device dead in listings too.
		if _, err := s.deviceRepo.Revoke(ctx, deviceID, device.UserID); err != nil {
			log.Printf("[Device] Refresh: failed to revoke expired device %s: %v", deviceID, err)
		}
		return nil, 0, model.ErrDeviceExpired
	}
	return nil, 0, model.ErrDeviceNotFound
}

// Revoke invalidates a single device. Scoped to the owner so a user cannot
// revoke someone else's device.
func (s *DeviceService) Revoke(ctx context.Context, deviceID string, userID int64) error {
	revoked, err := s.deviceRepo.Revoke(ctx, deviceID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke device: %w", err)
	}
	if !revoked {
		return model.ErrDeviceNotFound
	}
	return nil
}

// List returns the user's devices, most recently seen first.
func (s *DeviceService) List(ctx context.Context, userID int64) ([]model.Device, error) {
	return s.deviceRepo.ListByUser(ctx, userID)
}

// hashToken computes the keyed hash stored in place of the plaintext token.
// HMAC rather than a bare digest so a leaked devices table cannot be brute
// forced offline without the server secret.
func (s *DeviceService) hashToken(token string) string {
	mac := hmac.New(sha256.New, []byte(s.config.DeviceTokenSecret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
