package usecase

import (
	"context"
	"time"
)

type TokenService interface {
	GenerateToken(userID string) (string, error)
	VerifyToken(token string) (string, error)
}

type ImageStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

type RateLimiter interface {
	Allow(subject, action string) (bool, time.Duration)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
