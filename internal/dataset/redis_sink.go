package dataset

import (
	"context"
	"fmt"

	"github.com/annel0/extrudegen/internal/config"
	"github.com/annel0/extrudegen/internal/logging"
	"github.com/go-redis/redis/v8"
)

// redisTxClient часть *redis.Client, нужная приемнику
type redisTxClient interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	Close() error
}

// RedisSink добавляет примеры в список Redis, обрезая его до maxLen последних
type RedisSink struct {
	client redisTxClient
	key    string
	maxLen int64
}

func newRedisSink(client redisTxClient, key string, maxLen int64) *RedisSink {
	if key == "" {
		key = "extrudegen:samples"
	}
	return &RedisSink{client: client, key: key, maxLen: maxLen}
}

// NewRedisSink создает клиент и проверяет подключение
func NewRedisSink(ctx context.Context, cfg config.RedisConfig) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	sink := newRedisSink(client, cfg.Key, cfg.MaxLen)
	logging.Info("Connected to Redis at %s, list %s", cfg.Addr, sink.key)
	return sink, nil
}

// Put выполняет RPUSH и LTRIM в одной транзакции
func (r *RedisSink) Put(ctx context.Context, s *Sample) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, r.key, data)
		if r.maxLen > 0 {
			pipe.LTrim(ctx, r.key, -r.maxLen, -1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis push: %w", err)
	}
	return nil
}

func (r *RedisSink) Close() error {
	return r.client.Close()
}
