package model

import "errors"

// Avatar upload constraints
const (
	MaxAvatarSizeBytes = 5 * 1024 * 1024
	AvatarWidth        = 200
	AvatarHeight       = 200
	AvatarFolder       = "avatars"
	AvatarExt          = ".jpg"
	ContentTypeJPEG    = "image/jpeg"
	AvatarCacheControl = "public, max-age=31536000, immutable"
)

// IsAllowedImageType reports whether the content type is an accepted avatar
// source format.
func IsAllowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}

// UploadResult carries the public URL and storage key of an uploaded object.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

var (
	ErrFileTooLarge     = errors.New("file exceeds size limit")
	ErrInvalidImageType = errors.New("unsupported image type")
)

// Media API error codes (used in HTTP responses)
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)
