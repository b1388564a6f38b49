package v1

import (
	"github.com/andreyxaxa/post-pipeline/internal/usecase"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
)

type V1 struct {
	posts      usecase.PostUseCase
	engagement usecase.EngagementUseCase
	logger     logger.Interface

	maxFileSize int64
}
