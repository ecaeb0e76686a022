package worker

import (
	"context"
	"log"
	"time"
)

type expiredTokenRemover interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// TokenCleaner периодически удаляет истекшие и отозванные refresh токены
type TokenCleaner struct {
	repo     expiredTokenRemover
	interval time.Duration
}

func NewTokenCleaner(repo expiredTokenRemover, interval time.Duration) *TokenCleaner {
	return &TokenCleaner{repo: repo, interval: interval}
}

func (c *TokenCleaner) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := c.repo.CleanupExpired(ctx)
			if err != nil {
				log.Printf("❌ Очистка refresh токенов: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("✅ Удалено refresh токенов: %d", n)
			}
		}
	}
}
