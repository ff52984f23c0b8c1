package cloudinary

import (
	"context"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client stores generated documents on Cloudinary.
type Client interface {
	// UploadRaw stores a non-media file (PDF, spreadsheet) and returns its
	// secure URL.
	UploadRaw(ctx context.Context, file io.Reader, folder, publicID string) (string, error)
}

var overwrite = true

type clientImpl struct {
	uploader *uploader.API
}

func (c *clientImpl) UploadRaw(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "raw",
		Overwrite:    &overwrite,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", &UploadError{Message: result.Error.Message}
	}
	return result.SecureURL, nil
}

// UploadError is a rejection reported in the upload response body.
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string {
	return "cloudinary: " + e.Message
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{uploader: up}, nil
}
