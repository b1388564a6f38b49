package imageworker

import "time"

type Option func(*ImageWorkerUseCase)

func MaxWidth(width int) Option {
	return func(uc *ImageWorkerUseCase) {
		uc.maxWidth = width
	}
}

func PublicPrefix(prefix string) Option {
	return func(uc *ImageWorkerUseCase) {
		uc.publicPrefix = prefix
	}
}

func StagingTTL(ttl time.Duration) Option {
	return func(uc *ImageWorkerUseCase) {
		uc.stagingTTL = ttl
	}
}
