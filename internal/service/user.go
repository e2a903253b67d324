package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"noslimites/api/internal/model"
	"noslimites/api/internal/repository"
)

// AvatarUploader abstracts the media backend so profile updates can be
// tested without R2.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)
	DeleteObject(ctx context.Context, key string) error
}

// UserService manages the authenticated user's own profile.
type UserService struct {
	userRepo repository.UserRepository
	media    AvatarUploader // nil when R2 is not configured
}

func NewUserService(userRepo repository.UserRepository, media AvatarUploader) *UserService {
	return &UserService{
		userRepo: userRepo,
		media:    media,
	}
}

// Get returns the caller's own account.
func (s *UserService) Get(ctx context.Context, userID int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile updates the display name and/or avatar. A blank display
// name is rejected; a nil one means "leave unchanged".
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, displayName *string, avatarFile multipart.File, avatarHeader *multipart.FileHeader) (*model.User, error) {
	req := &model.UpdateProfileRequest{}

	if displayName != nil {
		trimmed := strings.TrimSpace(*displayName)
		if trimmed == "" {
			return nil, model.ErrEmptyDisplayName
		}
		req.DisplayName = &trimmed
	}

	var oldAvatarKey string
	if avatarFile != nil {
		if s.media == nil {
			return nil, fmt.Errorf("media storage not configured")
		}
		current, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if current.AvatarKey != nil {
			oldAvatarKey = *current.AvatarKey
		}

		result, err := s.media.UploadAvatar(ctx, avatarFile, avatarHeader)
		if err != nil {
			return nil, err
		}
		req.AvatarURL = &result.URL
		req.AvatarKey = &result.Key
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	// Old avatar is orphaned once the row points elsewhere
	if oldAvatarKey != "" {
		if err := s.media.DeleteObject(ctx, oldAvatarKey); err != nil {
			log.Printf("[User] Old avatar cleanup failed: key=%s err=%v", oldAvatarKey, err)
		}
	}
	return user, nil
}

// DeleteAccount removes the account. Relationships, choices, notes, devices
// and notifications follow through foreign-key cascades.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if user.AvatarKey != nil && s.media != nil {
		if err := s.media.DeleteObject(ctx, *user.AvatarKey); err != nil {
			log.Printf("[User] Avatar cleanup failed: key=%s err=%v", *user.AvatarKey, err)
		}
	}
	return nil
}
