// Package artifacts keeps exported files so they can be downloaded later.
package artifacts

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xelth-com/saisun/internal/config"
)

// Driver names accepted by ARTIFACT_DRIVER.
const (
	DriverNone = "none"
	DriverFS   = "fs"
	DriverS3   = "s3"
)

// Object describes a stored artifact.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// Store persists artifacts under a key.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (Object, error)
}

// Open selects the artifact store. DriverNone returns a nil Store.
func Open(ctx context.Context, cfg config.ArtifactConfig) (Store, error) {
	switch cfg.Driver {
	case "", DriverNone:
		return nil, nil
	case DriverFS:
		return NewFS(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown artifact driver %s", cfg.Driver)
	}
}

// NewKey builds a unique, date-partitioned key such as
// exports/2024/05/20/<uuid>-measurements.xlsx.
func NewKey(prefix, name string, now time.Time) string {
	name = strings.ReplaceAll(path.Base(name), " ", "_")
	return path.Join(prefix, now.Format("2006/01/02"), uuid.NewString()+"-"+name)
}
