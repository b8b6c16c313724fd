package auth

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/henrykey/kone-elevator-sub000/internal/constants"
)

// RedisStore shares the token cache between driver processes, useful
// when a fleet of test runners hits the same rate-limited token
// endpoint.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	cancel func()
}

func NewRedisStore(host, port, username, password string) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:     host + ":" + port,
		Username: username,
		Password: password,
		DB:       0,
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithCancel(context.Background())

	store := &RedisStore{
		client: client,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := store.client.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, err
	}

	return store, nil
}

func (st *RedisStore) Get(clientID string) (*Token, bool) {
	key := constants.RedisKeyPrefix + clientID

	data, err := st.client.Get(st.ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("token cache: redis get failed: %v", err)
		return nil, false
	}

	var tok Token
	if err := json.Unmarshal([]byte(data), &tok); err != nil {
		log.Printf("token cache: failed to unmarshal token: %v", err)
		return nil, false
	}
	if !tok.Valid() {
		st.Delete(clientID)
		return nil, false
	}
	return &tok, true
}

func (st *RedisStore) Put(clientID string, tok *Token) {
	data, err := json.Marshal(tok)
	if err != nil {
		log.Printf("token cache: failed to marshal token: %v", err)
		return
	}

	ttl := time.Until(tok.ExpiresAt)
	if ttl <= 0 {
		return
	}

	key := constants.RedisKeyPrefix + clientID
	if err := st.client.Set(st.ctx, key, data, ttl).Err(); err != nil {
		log.Printf("token cache: redis set failed: %v", err)
	}
}

func (st *RedisStore) Delete(clientID string) {
	key := constants.RedisKeyPrefix + clientID
	if err := st.client.Del(st.ctx, key).Err(); err != nil {
		log.Printf("token cache: redis del failed: %v", err)
	}
}

func (st *RedisStore) Close() error {
	st.cancel()
	return st.client.Close()
}
