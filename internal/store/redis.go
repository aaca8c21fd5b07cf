package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisList is the list every saved record ID is pushed onto.
	DefaultRedisList = "blackjack:records"

	redisRecordPrefix = "blackjack:record:"
)

// RedisStore keeps each record as JSON under its own key and appends its ID
// to a list, so consumers can walk records in arrival order.
type RedisStore struct {
	rdb  *redis.Client
	list string
}

// ConnectRedis opens a client for addr/db and checks it with a ping.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisStore creates a store on rdb. An empty list name uses DefaultRedisList.
func NewRedisStore(rdb *redis.Client, list string) *RedisStore {
	if list == "" {
		list = DefaultRedisList
	}
	return &RedisStore{rdb: rdb, list: list}
}

// SaveRecord writes the record and pushes its ID in one transaction
func (s *RedisStore) SaveRecord(ctx context.Context, r Record) (string, error) {
	r.ID = uuid.New().String()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisRecordPrefix+r.ID, data, 0)
		pipe.RPush(ctx, s.list, r.ID)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to store record in Redis list '%s': %w", s.list, err)
	}
	return r.ID, nil
}

// GetRecord retrieves a record by ID
func (s *RedisStore) GetRecord(ctx context.Context, id string) (Record, error) {
	data, err := s.rdb.Get(ctx, redisRecordPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
	}
	return r, nil
}

// Stats walks the record list. Cost grows with the number of records.
func (s *RedisStore) Stats(ctx context.Context, ip string) (Stats, error) {
	ids, err := s.rdb.LRange(ctx, s.list, 0, -1).Result()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{IP: ip}
	for _, id := range ids {
		r, err := s.GetRecord(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Stats{}, err
		}
		if ip != "" && r.IP != ip {
			continue
		}
		stats.tally(r)
	}
	return stats, nil
}
