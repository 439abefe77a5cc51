// Package ratelimit conta tentativas por chave numa janela fixa, no Redis.
package ratelimit

import (
	"context"
	"time"

	"finalfeliz/internal/pkg/cache"
	"finalfeliz/internal/pkg/logger"
)

const keyPrefix = "rate-limit:"

// Limiter permite até limit tentativas por chave a cada window.
type Limiter struct {
	client cache.Client
	limit  int
	window time.Duration
	logger logger.Logger
}

// NewLimiter cria o limitador. limit <= 0 desliga a limitação.
func NewLimiter(client cache.Client, limit int, window time.Duration, log logger.Logger) *Limiter {
	return &Limiter{client: client, limit: limit, window: window, logger: log}
}

// Allow registra uma tentativa e informa se ela está dentro do limite.
// Falhas do cache liberam a tentativa.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	count, err := l.client.Incr(ctx, keyPrefix+key, l.window)
	if err != nil {
		l.logger.Warn("Falha ao contar tentativa; liberando.", map[string]interface{}{"key": key, "error": err.Error()})
		return true
	}
	if count > int64(l.limit) {
		l.logger.Info("Limite de tentativas atingido.", map[string]interface{}{"key": key, "count": count})
		return false
	}
	return true
}

// Reset zera o contador da chave (ex.: após login com sucesso).
func (l *Limiter) Reset(ctx context.Context, key string) {
	if l == nil || l.limit <= 0 {
		return
	}
	if err := l.client.Delete(ctx, keyPrefix+key); err != nil {
		l.logger.Warn("Falha ao zerar tentativas.", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
