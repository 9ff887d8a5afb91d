package configuration

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Client is the shared Redis connection. Redis holds the short-lived
// artifacts of the booking flow: revoked tokens, booking drafts, payment
// intents and submit locks.
var Client *redis.Client

// InitRedis connects to the Redis server, retrying a few times on startup.
func InitRedis() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	const maxRetries = 5
	var err error
	for i := 0; i < maxRetries; i++ {
		Client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		})
		if _, err = Client.Ping(context.Background()).Result(); err == nil {
			return
		}
		logrus.WithError(err).Warnf("failed to connect to Redis (attempt %d/%d)", i+1, maxRetries)
		time.Sleep(5 * time.Second)
	}
	logrus.WithError(err).Fatal("failed to connect to Redis after multiple attempts")
}

// SetRedis sets a key with an expiry.
func SetRedis(key string, value any, expiration time.Duration) error {
	return Client.Set(context.Background(), key, value, expiration).Err()
}

// GetRedis returns the value for key, or redis.Nil if absent.
func GetRedis(key string) (string, error) {
	return Client.Get(context.Background(), key).Result()
}

// DelRedis removes a key. Deleting an absent key is not an error.
func DelRedis(key string) error {
	return Client.Del(context.Background(), key).Err()
}

// AcquireLock takes a best-effort lock via SETNX. It returns false when the
// lock is already held.
func AcquireLock(key string, ttl time.Duration) (bool, error) {
	return Client.SetNX(context.Background(), key, "1", ttl).Result()
}

// RevokeToken denylists a bearer token until it would have expired anyway.
func RevokeToken(token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return SetRedis("revoked:"+token, "1", ttl)
}

// IsTokenRevoked reports whether a bearer token has been logged out.
func IsTokenRevoked(token string) (bool, error) {
	_, err := GetRedis("revoked:" + token)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
