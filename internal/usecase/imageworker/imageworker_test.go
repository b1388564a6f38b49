package imageworker

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/entity"
	"github.com/andreyxaxa/post-pipeline/internal/infrastructure/processor"
	"github.com/andreyxaxa/post-pipeline/internal/repo/persistent"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/andreyxaxa/post-pipeline/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	uc        *ImageWorkerUseCase
	staging   *persistent.FileImageRepo
	processed *persistent.FileImageRepo
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()

	staging, err := persistent.NewFileImageRepo(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	processed, err := persistent.NewFileImageRepo(filepath.Join(t.TempDir(), "processed"))
	require.NoError(t, err)

	return fixture{
		uc:        New(staging, processed, processor.New(), logger.Nop(), opts...),
		staging:   staging,
		processed: processed,
	}
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, width, height))))

	return buf.Bytes()
}

func (f fixture) stage(t *testing.T, key string, data []byte) entity.ImageProcessingTask {
	t.Helper()

	require.NoError(t, f.staging.UploadBytes(context.Background(), key, data, "image/png"))

	return entity.ImageProcessingTask{
		PostID:           uuid.New(),
		SourcePath:       key,
		OriginalFileName: "holiday/a.PNG",
	}
}

func (f fixture) processedFile(t *testing.T, locator string) []byte {
	t.Helper()

	name := strings.TrimPrefix(locator, "/processed_images/")
	data, err := f.processed.DownloadBytes(context.Background(), name)
	require.NoError(t, err)

	return data
}

func TestProcessTaskCopiesSmallImage(t *testing.T) {
	f := newFixture(t)
	src := pngBytes(t, 800, 600)
	task := f.stage(t, "src.png", src)

	result := f.uc.ProcessTask(context.Background(), task)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, task.PostID, result.PostID)
	assert.Regexp(t, `^/processed_images/[0-9a-f-]{36}\.png$`, result.Locator)

	assert.Equal(t, src, f.processedFile(t, result.Locator))

	// released by the caller after the result is published
	_, err := f.staging.DownloadBytes(context.Background(), task.SourcePath)
	assert.NoError(t, err)

	require.NoError(t, f.uc.ReleaseSource(context.Background(), task))

	_, err = f.staging.DownloadBytes(context.Background(), task.SourcePath)
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestProcessTaskCopiesExactlyMaxWidth(t *testing.T) {
	f := newFixture(t)
	src := pngBytes(t, 1200, 10)

	result := f.uc.ProcessTask(context.Background(), f.stage(t, "src.png", src))
	require.True(t, result.Success, result.Error)
	assert.Equal(t, src, f.processedFile(t, result.Locator))
}

func TestProcessTaskResizesWideImage(t *testing.T) {
	f := newFixture(t)
	task := f.stage(t, "src.png", pngBytes(t, 2000, 1000))

	result := f.uc.ProcessTask(context.Background(), task)
	require.True(t, result.Success, result.Error)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(f.processedFile(t, result.Locator)))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 1200, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
}

func TestProcessTaskRerunAfterLostResult(t *testing.T) {
	f := newFixture(t)
	task := f.stage(t, "src.png", pngBytes(t, 100, 100))

	first := f.uc.ProcessTask(context.Background(), task)
	require.True(t, first.Success, first.Error)

	// the result never left the worker, the broker hands the task out again
	second := f.uc.ProcessTask(context.Background(), task)
	require.True(t, second.Success, second.Error)
	assert.NotEqual(t, first.Locator, second.Locator)

	entries, err := os.ReadDir(f.processed.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestProcessTaskCustomWidthAndPrefix(t *testing.T) {
	f := newFixture(t, MaxWidth(100), PublicPrefix("static/"))

	result := f.uc.ProcessTask(context.Background(), f.stage(t, "src.png", pngBytes(t, 400, 200)))
	require.True(t, result.Success, result.Error)
	require.True(t, strings.HasPrefix(result.Locator, "/static/"), result.Locator)

	data, err := f.processed.DownloadBytes(context.Background(), strings.TrimPrefix(result.Locator, "/static/"))
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
}

func TestProcessTaskMissingSource(t *testing.T) {
	f := newFixture(t)
	task := entity.ImageProcessingTask{PostID: uuid.New(), SourcePath: "gone.png", OriginalFileName: "a.png"}

	result := f.uc.ProcessTask(context.Background(), task)
	assert.False(t, result.Success)
	assert.Equal(t, task.PostID, result.PostID)
	assert.Empty(t, result.Locator)
	assert.Contains(t, result.Error, errs.ErrSourceUnavailable.Error())

	assert.NoError(t, f.uc.ReleaseSource(context.Background(), task))
}

func TestProcessTaskCorruptSource(t *testing.T) {
	f := newFixture(t)
	task := f.stage(t, "src.png", []byte("not an image"))

	result := f.uc.ProcessTask(context.Background(), task)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)

	require.NoError(t, f.uc.ReleaseSource(context.Background(), task))

	_, err := f.staging.DownloadBytes(context.Background(), task.SourcePath)
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)

	entries, err := os.ReadDir(f.processed.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessTaskNoExtension(t *testing.T) {
	f := newFixture(t)
	task := f.stage(t, "src", pngBytes(t, 10, 10))
	task.OriginalFileName = "noext"

	result := f.uc.ProcessTask(context.Background(), task)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, errs.ErrUnsupportedFormat.Error())
}

func TestOpenProcessedImage(t *testing.T) {
	f := newFixture(t)
	src := pngBytes(t, 20, 20)

	result := f.uc.ProcessTask(context.Background(), f.stage(t, "src.png", src))
	require.True(t, result.Success, result.Error)

	body, err := f.uc.OpenProcessedImage(context.Background(), strings.TrimPrefix(result.Locator, "/processed_images/"))
	require.NoError(t, err)
	defer body.Close()

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, src, got)

	_, err = f.uc.OpenProcessedImage(context.Background(), "missing.png")
	assert.ErrorIs(t, err, errs.ErrRecordNotFound)

	for _, name := range []string{"", "../secret", "a/b.png", ".upload-1"} {
		_, err = f.uc.OpenProcessedImage(context.Background(), name)
		assert.ErrorIs(t, err, errs.ErrInvalidArgument, name)
	}
}

func TestCleanupStaging(t *testing.T) {
	f := newFixture(t, StagingTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, f.staging.UploadBytes(ctx, "old.png", []byte("x"), "image/png"))
	require.NoError(t, f.staging.UploadBytes(ctx, "fresh.png", []byte("y"), "image/png"))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(f.staging.Root(), "old.png"), old, old))

	require.NoError(t, f.uc.CleanupStaging(ctx))

	_, err := f.staging.DownloadBytes(ctx, "old.png")
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)

	_, err = f.staging.DownloadBytes(ctx, "fresh.png")
	assert.NoError(t, err)
}
