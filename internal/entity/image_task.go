package entity

import "github.com/google/uuid"

// ImageProcessingTask travels on the task queue. SourcePath is a key in the
// staging store; the worker owns and deletes it once dequeued.
type ImageProcessingTask struct {
	PostID           uuid.UUID `json:"postId"`
	SourcePath       string    `json:"originalImagePath"`
	OriginalFileName string    `json:"originalFileName"`
}

// ImageProcessingResult travels back on the result queue.
type ImageProcessingResult struct {
	PostID  uuid.UUID `json:"postId"`
	Success bool      `json:"success"`
	Locator string    `json:"processedImageUrl,omitempty"`
	Error   string    `json:"error,omitempty"`
}

func SuccessResult(postID uuid.UUID, locator string) ImageProcessingResult {
	return ImageProcessingResult{
		PostID:  postID,
		Success: true,
		Locator: locator,
	}
}

func FailureResult(postID uuid.UUID, err error) ImageProcessingResult {
	return ImageProcessingResult{
		PostID:  postID,
		Success: false,
		Error:   err.Error(),
	}
}
