package auth

import (
	"log"
	"os"
)

const (
	EnvRedisHost     = "REDIS_HOST"
	EnvRedisPort     = "REDIS_PORT"
	EnvRedisUser     = "REDIS_USERNAME"
	EnvRedisPassword = "REDIS_PASSWORD"
)

// NewStore picks a token cache backend from the environment: redis when
// REDIS_HOST is set, otherwise a file cache, falling back to memory.
func NewStore() (CacheStore, error) {
	redisHost := os.Getenv(EnvRedisHost)

	if redisHost != "" {
		redisPort := getEnv(EnvRedisPort, "6379")
		redisUser := os.Getenv(EnvRedisUser)
		redisPassword := os.Getenv(EnvRedisPassword)

		store, err := NewRedisStore(redisHost, redisPort, redisUser, redisPassword)
		if err != nil {
			log.Printf("token cache: redis connection failed: %v", err)
			log.Println("token cache: falling back to file store")
		} else {
			log.Printf("token cache: using redis store: %s:%s", redisHost, redisPort)
			return store, nil
		}
	}

	store, err := NewFileStore()
	if err != nil {
		log.Printf("token cache: file store unavailable: %v", err)
		log.Println("token cache: falling back to in-memory store")
		return NewMemoryStore(), nil
	}
	return store, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
