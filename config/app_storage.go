package config

import (
	"fmt"
	"strings"

	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/akeren/archive-waitlist/internal/objectstore"
	"github.com/akeren/archive-waitlist/pkg/circuitbreaker"
	"github.com/akeren/archive-waitlist/pkg/utils"
)

const (
	StorageDriverFilesystem = "filesystem"
	StorageDriverS3         = "s3"

	DefaultUploadsMountPath = "/uploads"
)

type StorageConfig struct {
	Driver string

	UploadsDir       string
	UploadsPublicURL string
	UploadsMountPath string

	S3 objectstore.S3Config

	Breaker *circuitbreaker.Config
}

func NewStorageConfig() *StorageConfig {
	port := utils.GetEnvTrimmedOrDefault("APP_PORT", "8080")
	breaker := circuitbreaker.DefaultConfig()
	breaker.FailureThreshold = int(utils.GetEnvInt64("OBJECT_STORE_BREAKER_FAILURES", int64(breaker.FailureThreshold)))
	breaker.RecoveryTimeout = utils.GetEnvDuration("OBJECT_STORE_BREAKER_RECOVERY", breaker.RecoveryTimeout)

	return &StorageConfig{
		Driver:           strings.ToLower(utils.GetEnvTrimmedOrDefault("OBJECT_STORE_DRIVER", StorageDriverFilesystem)),
		UploadsDir:       utils.GetEnvTrimmedOrDefault("UPLOADS_DIR", "./data/uploads"),
		UploadsPublicURL: utils.GetEnvTrimmedOrDefault("UPLOADS_PUBLIC_URL", "http://localhost:"+port+DefaultUploadsMountPath),
		UploadsMountPath: DefaultUploadsMountPath,
		S3: objectstore.S3Config{
			Endpoint:        utils.GetEnvTrimmed("S3_ENDPOINT"),
			Region:          utils.GetEnvTrimmedOrDefault("S3_REGION", "us-east-1"),
			Bucket:          utils.GetEnvTrimmed("S3_BUCKET"),
			AccessKeyID:     utils.GetEnvTrimmed("S3_ACCESS_KEY_ID"),
			SecretAccessKey: utils.GetEnvTrimmed("S3_SECRET_ACCESS_KEY"),
			UseSSL:          utils.GetEnvBool("S3_USE_SSL", true),
			PublicBaseURL:   utils.GetEnvTrimmed("S3_PUBLIC_BASE_URL"),
		},
		Breaker: breaker,
	}
}

// ServesUploads reports whether the router has to expose UploadsDir itself.
func (sc *StorageConfig) ServesUploads() bool {
	return sc.Driver == StorageDriverFilesystem
}

func (sc *StorageConfig) NewStore(logger *log.Logger) (objectstore.Store, error) {
	var (
		inner objectstore.Store
		err   error
	)

	switch sc.Driver {
	case StorageDriverFilesystem:
		inner, err = objectstore.NewFilesystemStore(sc.UploadsDir, sc.UploadsPublicURL)
	case StorageDriverS3:
		inner, err = objectstore.NewS3Store(sc.S3)
	default:
		err = fmt.Errorf("unsupported OBJECT_STORE_DRIVER %q (supported: filesystem, s3)", sc.Driver)
	}
	if err != nil {
		logger.Error("Failed to create object store", "driver", sc.Driver, "error", err)
		return nil, err
	}

	logger.Info("Object store configured", "driver", sc.Driver)
	return objectstore.NewGuardedStore(inner, circuitbreaker.NewCircuitBreaker(sc.Breaker)), nil
}
