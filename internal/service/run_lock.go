package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgerrors "timesheet-recon/backend/pkg/errors"
	"timesheet-recon/backend/pkg/redis"
)

// RunLocker 串行化会写回状态的核对任务
type RunLocker interface {
	// Acquire 获取锁；已被占用时返回 ErrRunInProgress
	Acquire(ctx context.Context) (release func(), err error)
}

// ── 进程内锁 ──

type localLocker struct {
	mu sync.Mutex
}

// NewLocalLocker 未启用 Redis 时使用的进程内锁
func NewLocalLocker() RunLocker {
	return &localLocker{}
}

func (l *localLocker) Acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !l.mu.TryLock() {
		return nil, pkgerrors.ErrRunInProgress
	}
	return l.mu.Unlock, nil
}

// ── Redis 分布式锁 ──

// LockClient Redis 锁能力，由 *redis.Client 实现
type LockClient interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
}

type redisLocker struct {
	client LockClient
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLocker 多实例部署时使用的 Redis 锁
func NewRedisLocker(client LockClient, key string, ttl time.Duration, logger *zap.Logger) RunLocker {
	return &redisLocker{client: client, key: key, ttl: ttl, logger: logger}
}

func (l *redisLocker) Acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	token, ok, err := l.client.TryLock(ctx, l.key, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("获取核对锁失败: %w", err)
	}
	if !ok {
		return nil, pkgerrors.ErrRunInProgress
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// 请求 ctx 可能已取消，释放使用独立超时
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := l.client.Unlock(ctx, l.key, token); err != nil {
				if errors.Is(err, redis.ErrLockNotHeld) {
					l.logger.Warn("核对锁已过期", zap.String("key", l.key), zap.Duration("ttl", l.ttl))
					return
				}
				l.logger.Error("释放核对锁失败", zap.String("key", l.key), zap.Error(err))
			}
		})
	}
	return release, nil
}
