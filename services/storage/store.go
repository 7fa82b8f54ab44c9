// Package storage persists uploaded bootcamp photos.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/sahilchouksey/devcamper-api/config"
)

// PhotoStore saves and removes photos by file name
type PhotoStore interface {
	Save(ctx context.Context, name string, data io.Reader, contentType string) error
	Delete(ctx context.Context, name string) error
}

const (
	DriverLocal  = "local"
	DriverSpaces = "spaces"
)

// New returns the store selected by STORAGE_DRIVER
func New(env *config.EnvironmentVariable) (PhotoStore, error) {
	switch env.STORAGE_DRIVER {
	case DriverLocal, "":
		return NewLocalStore(env.FILE_UPLOAD_PATH)
	case DriverSpaces:
		return NewSpacesStore(SpacesConfig{
			AccessKey: env.DO_SPACES_ACCESS_KEY,
			SecretKey: env.DO_SPACES_SECRET_KEY,
			Bucket:    env.DO_SPACES_BUCKET,
			Region:    env.DO_SPACES_REGION,
			Endpoint:  env.DO_SPACES_ENDPOINT,
			CDNURL:    env.DO_SPACES_CDN_ENDPOINT,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", env.STORAGE_DRIVER)
	}
}
