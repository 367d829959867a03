package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// ReportCache 基于 Redis 的渲染报告缓存
type ReportCache struct {
	client redis.UniversalClient
}

// RedisConfig Redis 配置，支持 Standalone 和 Sentinel 两种模式。
// 配置了 MasterName 和 SentinelAddrs 时使用 Sentinel 模式。
type RedisConfig struct {
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	MasterName       string   `yaml:"master_name"`
	SentinelAddrs    []string `yaml:"sentinel_addrs"`
	SentinelUsername string   `yaml:"sentinel_username"` // Redis 6.2+
	SentinelPassword string   `yaml:"sentinel_password"`
}

// NewReportCache 连接 Redis 并做一次 Ping
func NewReportCache(cfg RedisConfig) (*ReportCache, error) {
	var client redis.UniversalClient
	if cfg.MasterName != "" && len(cfg.SentinelAddrs) > 0 {
		client = newSentinelClient(cfg)
	} else {
		client = newStandaloneClient(cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "连接 redis 失败")
	}
	return &ReportCache{client: client}, nil
}

func newSentinelClient(cfg RedisConfig) redis.UniversalClient {
	return redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       cfg.MasterName,
		SentinelAddrs:    cfg.SentinelAddrs,
		SentinelUsername: cfg.SentinelUsername,
		SentinelPassword: cfg.SentinelPassword,
		Username:         cfg.Username,
		Password:         cfg.Password,
		DB:               cfg.DB,

		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

func newStandaloneClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Host,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// GetReport 读取缓存的报告，未命中时 ok 为 false
func (r *ReportCache) GetReport(ctx context.Context, id uint64, format string) ([]byte, bool, error) {
	body, err := r.client.Get(ctx, reportKey(id, format)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return body, true, nil
}

// SetReport 写入报告，ttl <= 0 时不缓存
func (r *ReportCache) SetReport(ctx context.Context, id uint64, format string, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, reportKey(id, format), body, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (r *ReportCache) Close() error {
	return r.client.Close()
}
