package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/kwkoo/go-birdr/internal/logger"
)

const redisKeyPrefix = "birdr:prefs:"

// RedisPreferences shares preferences through Redis so that several
// terminals can resume the same player. A nil *RedisPreferences behaves
// like an empty store that discards writes.
type RedisPreferences struct {
	pool *redis.Pool
}

func InitRedis(redisHost, redisPassword string) *RedisPreferences {
	pool := redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,

		Dial: func() (redis.Conn, error) {
			if redisPassword == "" {
				return redis.Dial("tcp", redisHost)
			}
			return redis.Dial("tcp", redisHost, redis.DialPassword(redisPassword))
		},

		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			_, err := c.Do("PING")
			return err
		},
	}

	return &RedisPreferences{pool: &pool}
}

// WaitForRedis blocks until Redis accepts connections or ctx is done.
func (p *RedisPreferences) WaitForRedis(ctx context.Context) error {
	if p == nil {
		return nil
	}

	log := logger.For("redis")
	for {
		conn, err := p.pool.GetContext(ctx)
		if err == nil {
			conn.Close()
			return nil
		}
		log.Warn().Err(err).Msg("could not get connection to Redis, sleeping...")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (p *RedisPreferences) Close() error {
	if p == nil {
		return nil
	}
	return p.pool.Close()
}

func (p *RedisPreferences) Get(key string) (string, error) {
	if p == nil {
		return "", ErrNoPreference
	}
	conn := p.pool.Get()
	defer conn.Close()

	value, err := redis.String(conn.Do("GET", redisKeyPrefix+key))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return "", ErrNoPreference
		}
		return "", fmt.Errorf("error getting value for key %s: %w", key, err)
	}
	return value, nil
}

func (p *RedisPreferences) Set(key, value string) error {
	if p == nil {
		return nil
	}
	conn := p.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("SET", redisKeyPrefix+key, value); err != nil {
		return fmt.Errorf("error setting key %s in redis: %w", key, err)
	}
	return nil
}

func (p *RedisPreferences) Delete(key string) error {
	if p == nil {
		return nil
	}
	conn := p.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("DEL", redisKeyPrefix+key); err != nil {
		return fmt.Errorf("error deleting key %s in redis: %w", key, err)
	}
	return nil
}
