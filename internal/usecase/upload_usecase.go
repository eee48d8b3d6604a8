package usecase

import (
	"context"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"sellnext/pkg/errors"
	"sellnext/pkg/logger"
)

const MaxImageSize = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type UploadUseCase struct {
	store ImageStore
}

func NewUploadUseCase(store ImageStore) *UploadUseCase {
	return &UploadUseCase{store: store}
}

// UploadImage checks the bytes really are an image and stores them under a
// fresh name. The declared content type of the upload is ignored.
func (uc *UploadUseCase) UploadImage(ctx context.Context, userID string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.BadRequest("Image file is empty", nil)
	}
	if len(data) > MaxImageSize {
		return "", errors.BadRequest("Image must be 5MB or smaller", nil)
	}

	detected := mimetype.Detect(data)
	ext, ok := imageExtensions[detected.String()]
	if !ok {
		return "", errors.BadRequest("Only JPEG, PNG, GIF and WebP images are allowed", nil)
	}

	url, err := uc.store.Save(ctx, uuid.New().String()+ext, detected.String(), data)
	if err != nil {
		logger.Error("UploadImage Error: user %s: %v", userID, err)
		return "", errors.Internal("Failed to store image", err)
	}
	return url, nil
}
