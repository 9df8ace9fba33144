package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/LJTian/NewsDesk/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	redisEntryPrefix = "newsdesk:cache:category:"
	redisScanCount   = 100
)

// RedisStore 每个分区一个 key，值为 Entry 的 JSON；不设 TTL，过期由 IsStale 判断，
// 过期数据还要留给兜底逻辑用
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &RedisStore{rdb: rdb}
}

func entryKey(category model.Category) string {
	return redisEntryPrefix + string(category)
}

func (s *RedisStore) Get(ctx context.Context, category model.Category) (Entry, bool, error) {
	bs, err := s.rdb.Get(ctx, entryKey(category)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", category, err)
	}

	var e Entry
	if err := json.Unmarshal(bs, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode %s entry: %w", category, err)
	}
	return e, true, nil
}

func (s *RedisStore) Put(ctx context.Context, category model.Category, articles []model.Article, at time.Time) error {
	bs, err := json.Marshal(Entry{Articles: articles, UpdatedAt: at.UTC()})
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", category, err)
	}
	if err := s.rdb.Set(ctx, entryKey(category), bs, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", category, err)
	}
	return nil
}

func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, redisEntryPrefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// Load 读不出来的单个分区按冷缓存处理，只有连接层面的错误才返回
func (s *RedisStore) Load(ctx context.Context) (Snapshot, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	entries := make(map[model.Category]Entry, len(keys))
	if len(keys) == 0 {
		return snapshotOf(entries), nil
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis mget: %w", err)
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		category := model.Category(strings.TrimPrefix(keys[i], redisEntryPrefix))
		var e Entry
		if err := json.Unmarshal([]byte(str), &e); err != nil {
			log.Printf("storage: skip corrupted %s entry: %v", category, err)
			continue
		}
		entries[category] = e
	}
	return snapshotOf(entries), nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) LastUpdate(ctx context.Context) (time.Time, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if snap.LastUpdate == nil {
		return time.Time{}, nil
	}
	return *snap.LastUpdate, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
