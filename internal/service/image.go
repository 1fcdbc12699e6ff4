package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/nfnt/resize"

	"github.com/pageza/souschef/backend/internal/apperrors"
)

const (
	// MaxImageBytes bounds chat image uploads
	MaxImageBytes = 10 << 20

	maxImageDimension = 1024
	jpegQuality       = 85
)

var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// ImageUpload is a raw image attached to a chat turn
type ImageUpload struct {
	Filename string
	Data     []byte
}

// PrepareImage validates an upload and re-encodes it as a JPEG no larger
// than maxImageDimension on either side
func PrepareImage(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("image is empty")
	}
	if len(data) > MaxImageBytes {
		return nil, apperrors.NewValidationError(fmt.Sprintf("image exceeds %d bytes", MaxImageBytes))
	}
	if ct := http.DetectContentType(data); !acceptedImageTypes[ct] {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported image type %s", ct))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewValidationError("image could not be decoded")
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageDimension || bounds.Dy() > maxImageDimension {
		img = resize.Thumbnail(maxImageDimension, maxImageDimension, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, apperrors.NewInternalError("failed to encode image", err)
	}
	return buf.Bytes(), nil
}
