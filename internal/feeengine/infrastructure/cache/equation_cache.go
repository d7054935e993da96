// Package cache 方程仓储的 Redis 读穿缓存装饰器
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
)

// Config 缓存配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	// 方程缓存 TTL
	TTL time.Duration
}

// EquationCache 装饰 EquationRepository：读穿缓存，写时失效。
// 引擎始终把方程当作只读快照，缓存命中返回反序列化的新副本。
type EquationCache struct {
	inner  domain.EquationRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New 创建方程缓存
func New(cfg Config, inner domain.EquationRepository, logger *slog.Logger) (*EquationCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &EquationCache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.With("service", "feeengine_equation_cache"),
	}, nil
}

func cacheKey(dealID string) string {
	return "feeengine:equation:" + dealID
}

// cachedEquation 序列化形态。未配置方程同样缓存（negative cache），
// 避免每笔交易都打一次未命中的查询。
type cachedEquation struct {
	NotFound bool            `json:"not_found,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// GetByDeal 优先读缓存，未命中回源并回填
func (c *EquationCache) GetByDeal(ctx context.Context, dealID string) (*domain.DealEquation, error) {
	raw, err := c.client.Get(ctx, cacheKey(dealID)).Result()
	if err == nil {
		var cached cachedEquation
		if uerr := json.Unmarshal([]byte(raw), &cached); uerr == nil {
			if cached.NotFound {
				return nil, domain.ErrEquationNotFound
			}
			var eq domain.DealEquation
			if uerr := json.Unmarshal(cached.Payload, &eq); uerr == nil {
				return &eq, nil
			}
		}
		// 缓存内容损坏按未命中处理
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "redis read failed, falling back to repository", "deal_id", dealID, "error", err)
	}

	eq, err := c.inner.GetByDeal(ctx, dealID)
	if err != nil {
		if errors.Is(err, domain.ErrEquationNotFound) {
			c.set(ctx, dealID, cachedEquation{NotFound: true})
		}
		return nil, err
	}

	payload, merr := json.Marshal(eq)
	if merr == nil {
		c.set(ctx, dealID, cachedEquation{Payload: payload})
	}
	return eq, nil
}

// Save 透传写入并使缓存失效
func (c *EquationCache) Save(ctx context.Context, dealID string, eq *domain.DealEquation) error {
	if err := c.inner.Save(ctx, dealID, eq); err != nil {
		return err
	}
	if err := c.client.Del(ctx, cacheKey(dealID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache invalidation failed", "deal_id", dealID, "error", err)
	}
	return nil
}

func (c *EquationCache) set(ctx context.Context, dealID string, cached cachedEquation) {
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(dealID), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "deal_id", dealID, "error", err)
	}
}

// Close 关闭 Redis 连接
func (c *EquationCache) Close() error {
	return c.client.Close()
}
