package imageworker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/entity"
	"github.com/andreyxaxa/post-pipeline/internal/infrastructure"
	"github.com/andreyxaxa/post-pipeline/internal/repo"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/andreyxaxa/post-pipeline/pkg/types/errs"
	"github.com/google/uuid"
)

const (
	_defaultMaxWidth     = 1200
	_defaultPublicPrefix = "/processed_images"
	_defaultStagingTTL   = 72 * time.Hour
)

type ImageWorkerUseCase struct {
	stagingRepo   repo.ImageRepo
	processedRepo repo.ImageRepo
	processor     infrastructure.ImageProcessor

	maxWidth     int
	publicPrefix string
	stagingTTL   time.Duration

	logger logger.Interface

	now     func() time.Time
	newName func() string
}

func New(
	stagingRepo repo.ImageRepo,
	processedRepo repo.ImageRepo,
	processor infrastructure.ImageProcessor,
	l logger.Interface,
	opts ...Option,
) *ImageWorkerUseCase {
	uc := &ImageWorkerUseCase{
		stagingRepo:   stagingRepo,
		processedRepo: processedRepo,
		processor:     processor,
		maxWidth:      _defaultMaxWidth,
		publicPrefix:  _defaultPublicPrefix,
		stagingTTL:    _defaultStagingTTL,
		logger:        l,
		now:           time.Now,
		newName:       func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.publicPrefix = "/" + strings.Trim(uc.publicPrefix, "/")

	return uc
}

// ProcessTask never returns an error: every failure is reported in the
// result. The source is left in place, the caller releases it with
// ReleaseSource once the result is published.
func (uc *ImageWorkerUseCase) ProcessTask(ctx context.Context, task entity.ImageProcessingTask) entity.ImageProcessingResult {
	// 1. read the staged upload
	data, err := uc.stagingRepo.DownloadBytes(ctx, task.SourcePath)
	if err != nil {
		uc.logger.Error(err, "ImageWorkerUseCase - ProcessTask - post %s: uc.stagingRepo.DownloadBytes", task.PostID)

		return entity.FailureResult(task.PostID, fmt.Errorf("%w: %s", errs.ErrSourceUnavailable, task.SourcePath))
	}

	name, err := uc.store(ctx, task, data)
	if err != nil {
		uc.logger.Error(err, "ImageWorkerUseCase - ProcessTask - post %s: uc.store", task.PostID)

		return entity.FailureResult(task.PostID, err)
	}

	uc.logger.Info("ImageWorkerUseCase - ProcessTask - post %s: stored %s", task.PostID, name)

	return entity.SuccessResult(task.PostID, uc.publicPrefix+"/"+name)
}

// ReleaseSource deletes the staged upload of a task whose result was
// published. Deleting an already missing source is not an error.
func (uc *ImageWorkerUseCase) ReleaseSource(ctx context.Context, task entity.ImageProcessingTask) error {
	err := uc.stagingRepo.Delete(ctx, task.SourcePath)
	if err != nil {
		return fmt.Errorf("ImageWorkerUseCase - ReleaseSource - post %s: uc.stagingRepo.Delete: %w", task.PostID, err)
	}

	return nil
}

func (uc *ImageWorkerUseCase) store(ctx context.Context, task entity.ImageProcessingTask, data []byte) (string, error) {
	// only the extension of the client's name survives
	ext := strings.ToLower(filepath.Ext(filepath.Base(task.OriginalFileName)))
	if ext == "" {
		return "", fmt.Errorf("file %q has no extension: %w", task.OriginalFileName, errs.ErrUnsupportedFormat)
	}

	width, err := uc.processor.Width(ext, data)
	if err != nil {
		return "", fmt.Errorf("probe image: %w", err)
	}

	out := data
	if width > uc.maxWidth {
		out, err = uc.processor.ResizeToWidth(ctx, ext, data, uc.maxWidth)
		if err != nil {
			return "", fmt.Errorf("resize image from %dpx: %w", width, err)
		}
	}

	name := uc.newName() + ext

	err = uc.processedRepo.UploadBytes(ctx, name, out, contentType(ext))
	if err != nil {
		return "", fmt.Errorf("write processed image: %w", err)
	}

	return name, nil
}

// OpenProcessedImage serves files written by ProcessTask. name must be a
// bare file name.
func (uc *ImageWorkerUseCase) OpenProcessedImage(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("ImageWorkerUseCase - OpenProcessedImage - name %q: %w", name, errs.ErrInvalidArgument)
	}

	body, err := uc.processedRepo.Download(ctx, name)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil, fmt.Errorf("ImageWorkerUseCase - OpenProcessedImage: %w", errs.ErrRecordNotFound)
		}

		return nil, fmt.Errorf("ImageWorkerUseCase - OpenProcessedImage - uc.processedRepo.Download: %w", err)
	}

	return body, nil
}

// CleanupStaging removes staged uploads whose task was never processed.
func (uc *ImageWorkerUseCase) CleanupStaging(ctx context.Context) error {
	count, err := uc.stagingRepo.DeleteOlderThan(ctx, uc.now().Add(-uc.stagingTTL))
	if err != nil {
		return fmt.Errorf("ImageWorkerUseCase - CleanupStaging - uc.stagingRepo.DeleteOlderThan: %w", err)
	}

	if count > 0 {
		uc.logger.Info("deleted stale staged uploads, count = %d", count)
	}

	return nil
}

func contentType(ext string) string {
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return "application/octet-stream"
	}

	return ct
}
