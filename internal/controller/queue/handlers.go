package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/entity"
	"github.com/andreyxaxa/post-pipeline/internal/infrastructure"
	"github.com/andreyxaxa/post-pipeline/internal/usecase"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
)

const (
	_publishAttempts = 3
	_publishBackoff  = 500 * time.Millisecond
)

// TaskHandler runs on the image worker. Every decodable task yields exactly
// one result message; the task is acked only after the result is accepted.
type TaskHandler struct {
	uc          usecase.ImageWorkerUseCase
	results     infrastructure.Publisher
	resultQueue string
	logger      logger.Interface

	backoff time.Duration
}

func NewTaskHandler(uc usecase.ImageWorkerUseCase, results infrastructure.Publisher, resultQueue string, l logger.Interface) *TaskHandler {
	return &TaskHandler{
		uc:          uc,
		results:     results,
		resultQueue: resultQueue,
		logger:      l,
		backoff:     _publishBackoff,
	}
}

func (h *TaskHandler) Handle(ctx context.Context, body []byte) error {
	var task entity.ImageProcessingTask

	err := json.Unmarshal(body, &task)
	if err != nil {
		// redelivery can't fix it
		h.logger.Error(err, "TaskHandler - Handle - json.Unmarshal: malformed task dropped")

		return nil
	}

	result := h.uc.ProcessTask(ctx, task)

	out, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("TaskHandler - Handle - json.Marshal: %w", err)
	}

	// the source stays until the result is out, a redelivered task runs
	// the transform again
	err = h.publish(ctx, out)
	if err != nil {
		return fmt.Errorf("TaskHandler - Handle - h.publish: %w", err)
	}

	err = h.uc.ReleaseSource(context.WithoutCancel(ctx), task)
	if err != nil {
		// the janitor sweeps it later, the result is already published
		h.logger.Error(err, "TaskHandler - Handle - h.uc.ReleaseSource")
	}

	return nil
}

func (h *TaskHandler) publish(ctx context.Context, body []byte) error {
	var err error

	for attempt := 1; attempt <= _publishAttempts; attempt++ {
		err = h.results.Publish(ctx, h.resultQueue, body)
		if err == nil {
			return nil
		}

		h.logger.Warn("TaskHandler - publish - attempt %d of %d failed: %v", attempt, _publishAttempts, err)

		if attempt == _publishAttempts {
			break
		}

		select {
		case <-time.After(h.backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

// ResultHandler runs on the post service and patches the post.
type ResultHandler struct {
	uc     usecase.PostUseCase
	logger logger.Interface
}

func NewResultHandler(uc usecase.PostUseCase, l logger.Interface) *ResultHandler {
	return &ResultHandler{
		uc:     uc,
		logger: l,
	}
}

func (h *ResultHandler) Handle(ctx context.Context, body []byte) error {
	var result entity.ImageProcessingResult

	err := json.Unmarshal(body, &result)
	if err != nil {
		h.logger.Error(err, "ResultHandler - Handle - json.Unmarshal: malformed result dropped")

		return nil
	}

	_, err = h.uc.ApplyImageResult(ctx, result)
	if err != nil {
		return fmt.Errorf("ResultHandler - Handle - h.uc.ApplyImageResult: %w", err)
	}

	return nil
}
