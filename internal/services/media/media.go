// Package media hands out presigned MinIO URLs for journal attachments. Every
// object lives under users/<id>/media/, which is how ownership is checked.
//
// A nil *Service is valid and means uploads are disabled.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/config"
	"github.com/princekumarofficial/journal-service/internal/types"
	mediaTypes "github.com/princekumarofficial/journal-service/internal/types/media"
)

var ErrDisabled = errors.New("media uploads are disabled")

type Service struct {
	client     *minio.Client
	bucketName string
	config     config.Media
}

// NewService connects to MinIO and makes sure the bucket exists.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := &Service{
		client:     client,
		bucketName: cfg.MinIO.BucketName,
		config:     cfg.Media,
	}

	if err := service.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

func (s *Service) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	slog.Info("Created media bucket", slog.String("bucket", s.bucketName))
	return nil
}

// UserPrefix is the folder holding a user's objects.
func UserPrefix(userID types.EntityID) string {
	return fmt.Sprintf("users/%s/media/", userID)
}

func (s *Service) ValidateContentType(contentType string) bool {
	return slices.Contains(s.config.AllowedMimeTypes, contentType)
}

// ValidateKey accepts only keys inside the user's folder.
func (s *Service) ValidateKey(userID types.EntityID, key string) error {
	if s == nil {
		return fmt.Errorf("%w: %s", apperr.ErrValidation, ErrDisabled)
	}

	prefix := UserPrefix(userID)
	name := strings.TrimPrefix(key, prefix)
	if name == key || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: media_key must reference one of your uploads", apperr.ErrValidation)
	}
	return nil
}

// preferred extensions; mime.ExtensionsByType lists .jfif before .jpg on
// some systems
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// GenerateObjectKey returns a fresh key in the user's folder.
func (s *Service) GenerateObjectKey(userID types.EntityID, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		if known, err := mime.ExtensionsByType(contentType); err == nil && len(known) > 0 {
			ext = known[0]
		}
	}
	return UserPrefix(userID) + uuid.New().String() + ext
}

func (s *Service) UploadURL(ctx context.Context, userID types.EntityID, contentType string) (mediaTypes.UploadInfo, error) {
	if s == nil {
		return mediaTypes.UploadInfo{}, fmt.Errorf("%w: %s", apperr.ErrValidation, ErrDisabled)
	}
	if !s.ValidateContentType(contentType) {
		return mediaTypes.UploadInfo{}, fmt.Errorf("%w: content type %s is not allowed", apperr.ErrValidation, contentType)
	}

	objectKey := s.GenerateObjectKey(userID, contentType)
	expiry := time.Duration(s.config.PresignedURLTTL) * time.Second

	presignedURL, err := s.client.PresignedPutObject(ctx, s.bucketName, objectKey, expiry)
	if err != nil {
		return mediaTypes.UploadInfo{}, fmt.Errorf("%w: presign upload: %s", apperr.ErrInternal, err)
	}

	return mediaTypes.UploadInfo{
		ObjectKey:   objectKey,
		UploadURL:   presignedURL.String(),
		ExpiresAt:   time.Now().Add(expiry).Unix(),
		MaxFileSize: s.config.MaxFileSize,
		ContentType: contentType,
	}, nil
}

// DownloadURL presigns a GET for an object. Callers decide who may read it.
func (s *Service) DownloadURL(ctx context.Context, objectKey string) (mediaTypes.DownloadInfo, error) {
	if s == nil {
		return mediaTypes.DownloadInfo{}, fmt.Errorf("%w: %s", apperr.ErrNotFound, ErrDisabled)
	}

	expiry := time.Duration(s.config.PresignedURLTTL) * time.Second
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, expiry, nil)
	if err != nil {
		return mediaTypes.DownloadInfo{}, fmt.Errorf("%w: presign download: %s", apperr.ErrInternal, err)
	}

	return mediaTypes.DownloadInfo{
		ObjectKey:   objectKey,
		DownloadURL: u.String(),
		ExpiresAt:   time.Now().Add(expiry).Unix(),
	}, nil
}

// ListUserMedia lists all media files for a specific user
func (s *Service) ListUserMedia(ctx context.Context, userID types.EntityID) ([]mediaTypes.Object, error) {
	if s == nil {
		return []mediaTypes.Object{}, nil
	}

	objectsCh := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    UserPrefix(userID),
		Recursive: true,
	})

	objects := make([]mediaTypes.Object, 0)
	for object := range objectsCh {
		if object.Err != nil {
			return nil, fmt.Errorf("%w: list media: %s", apperr.ErrInternal, object.Err)
		}
		objects = append(objects, mediaTypes.Object{
			ObjectKey:   object.Key,
			Size:        object.Size,
			ContentType: object.ContentType,
			UploadedAt:  object.LastModified,
		})
	}

	return objects, nil
}

// Remove deletes objects and only logs failures. Posts are already gone by
// the time their media is removed.
func (s *Service) Remove(ctx context.Context, objectKeys ...string) {
	if s == nil {
		return
	}

	for _, key := range objectKeys {
		if key == "" {
			continue
		}
		err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
		if err != nil {
			slog.Warn("Failed to remove media object", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}
