// Package photo issues presigned upload URLs for symptom photos.
package photo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Errors.
var (
	ErrUnsupportedType = errors.New("only image files (JPEG, PNG, WebP) are allowed")
	ErrMissingFileName = errors.New("fileName is required")
)

// DefaultExpiry is how long an upload URL stays valid.
const DefaultExpiry = 5 * time.Minute

var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// IsAllowedType reports whether contentType may be uploaded.
func IsAllowedType(contentType string) bool {
	_, ok := allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ok
}

// Presigner is the subset of *minio.Client the service needs.
type Presigner interface {
	PresignedPutObject(ctx context.Context, bucket, object string, expires time.Duration) (*url.URL, error)
}

// StorageConfig configures the S3-compatible object store.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

// NewMinioClient builds an S3-compatible client. A region is required so
// presigning does not need a bucket-location round trip.
func NewMinioClient(cfg StorageConfig) (*minio.Client, error) {
	endpoint := sanitizeEndpoint(cfg.Endpoint)
	useSSL := !strings.HasPrefix(strings.ToLower(cfg.Endpoint), "http://")

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}
	return client, nil
}

// ServiceConfig holds configuration for the photo service.
type ServiceConfig struct {
	Presigner Presigner
	Bucket    string

	// PublicBaseURL prefixes object keys to form the stored photo URL.
	PublicBaseURL string

	Expiry time.Duration
	Clock  clockwork.Clock
	Logger zerolog.Logger
}

// Service issues upload URLs.
type Service struct {
	presigner     Presigner
	bucket        string
	publicBaseURL string
	expiry        time.Duration
	clock         clockwork.Clock
	logger        zerolog.Logger
}

// NewService creates a new photo service.
func NewService(cfg ServiceConfig) *Service {
	expiry := cfg.Expiry
	if expiry == 0 {
		expiry = DefaultExpiry
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		presigner:     cfg.Presigner,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		expiry:        expiry,
		clock:         clock,
		logger:        cfg.Logger,
	}
}

// Upload is a presigned upload target.
type Upload struct {
	UploadURL string
	PhotoURL  string
	Key       string
	ExpiresAt time.Time
}

// PresignUpload returns a PUT URL for a new photo. Keys are grouped per
// owner and, when given, per pet.
func (s *Service) PresignUpload(ctx context.Context, ownerID, fileName, contentType, petID string) (*Upload, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrMissingFileName
	}

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	defaultExt, ok := allowedTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(fileName)), ".")
	if ext == "" {
		ext = defaultExt
	}

	suffix, err := randomHex(16)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	prefix := "users/" + ownerID + "/general"
	if petID != "" {
		prefix = "users/" + ownerID + "/pets/" + petID
	}
	key := fmt.Sprintf("%s/%d-%s.%s", prefix, now.UnixMilli(), suffix, ext)

	u, err := s.presigner.PresignedPutObject(ctx, s.bucket, key, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("presigning upload: %w", err)
	}

	s.logger.Debug().
		Str("key", key).
		Str("content_type", contentType).
		Msg("issued photo upload url")

	return &Upload{
		UploadURL: u.String(),
		PhotoURL:  s.objectURL(key),
		Key:       key,
		ExpiresAt: now.Add(s.expiry),
	}, nil
}

func (s *Service) objectURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return "/" + s.bucket + "/" + key
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// sanitizeEndpoint strips scheme and path, as minio.New expects host[:port].
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
