package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/storage"
	_ "golang.org/x/image/webp"
)

// DefaultMaxUploadBytes is the image size limit when none is configured.
const DefaultMaxUploadBytes int64 = 5 * 1024 * 1024

// UploadInput describes one uploaded file.
type UploadInput struct {
	UserID      string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult is a stored image.
type UploadResult struct {
	URL    string `json:"url"`
	Key    string `json:"key"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

// UploadService validates post images and stores them.
type UploadService struct {
	storage  storage.ObjectStorage
	maxBytes int64
	logger   *logger.Logger
	now      func() time.Time
}

// NewUploadService creates an upload service. A nil storage makes every
// upload fail with ErrStorageDisabled.
func NewUploadService(objectStorage storage.ObjectStorage, maxBytes int64, log *logger.Logger) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadService{storage: objectStorage, maxBytes: maxBytes, logger: log, now: time.Now}
}

func (s *UploadService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// Upload validates and stores an image under
// <userID>/<unix-ms>-<random>.<ext> and returns its public URL.
// Parameters:
//   - ctx: context for cancellation.
//   - in: the file and its owner.
//
// Returns:
//   - *UploadResult: public URL, key, and decoded image dimensions.
//   - error: ErrStorageDisabled, ErrInvalidUpload, or a storage error.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}

	userID := strings.TrimSpace(in.UserID)
	if userID == "" || strings.ContainsAny(userID, `/\`) || strings.Contains(userID, "..") {
		return nil, fmt.Errorf("%w: invalid user_id", ErrInvalidUpload)
	}
	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		return nil, fmt.Errorf("%w: 이미지 파일만 업로드 가능합니다", ErrInvalidUpload)
	}
	if in.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: 파일 크기는 %dMB 이하여야 합니다", ErrInvalidUpload, s.maxBytes/(1024*1024))
	}

	// Read one byte past the limit so a lying Size is still caught.
	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: 파일 크기는 %dMB 이하여야 합니다", ErrInvalidUpload, s.maxBytes/(1024*1024))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported or corrupt image", ErrInvalidUpload)
	}

	key := s.objectKey(userID, in.Filename, format)
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), getContentType(format)); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	result := &UploadResult{
		URL:    s.storage.GetURL(key),
		Key:    key,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		Size:   int64(len(data)),
	}
	s.log(ctx).WithFields(logger.Fields{
		logger.FieldUserID: userID,
		logger.FieldSize:   result.Size,
		"key":              key,
	}).Info("Image uploaded")
	return result, nil
}

// DeleteByURL removes an image previously returned by Upload. URLs that do
// not belong to the configured storage are ignored.
func (s *UploadService) DeleteByURL(ctx context.Context, url string) error {
	if s.storage == nil || url == "" {
		return nil
	}
	key, ok := s.storage.KeyFromURL(url)
	if !ok {
		return nil
	}
	return s.storage.Delete(ctx, key)
}

func (s *UploadService) objectKey(userID, filename, format string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" || len(ext) > 5 {
		ext = format
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
	return fmt.Sprintf("%s/%d-%s.%s", userID, s.now().UnixMilli(), suffix, ext)
}

func getContentType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
