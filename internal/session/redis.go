package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/pineapple_admin/internal/models"
)

type RedisStore struct {
	Client redis.Cmdable
	Sealer *Sealer
	Prefix string
}

func (s *RedisStore) key(sid, name string) string {
	return fmt.Sprintf("%ssession:%s:%s", s.Prefix, sid, name)
}

func (s *RedisStore) Save(ctx context.Context, sid string, sess Session) error {
	token, err := seal(s.Sealer, sess.Token)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sid, KeyToken), token, 0)
		pipe.Set(ctx, s.key(sid, KeyUser), user, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	if err := s.Client.Del(ctx, s.key(sid, KeyToken), s.key(sid, KeyUser)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) IsActive(ctx context.Context, sid string) bool {
	token, err := s.CurrentToken(ctx, sid)
	return err == nil && token != ""
}

func (s *RedisStore) CurrentToken(ctx context.Context, sid string) (string, error) {
	v, err := s.get(ctx, sid, KeyToken)
	if err != nil {
		return "", err
	}
	token, err := open(s.Sealer, v)
	if err != nil {
		return "", fmt.Errorf("open token: %w", err)
	}
	return token, nil
}

func (s *RedisStore) CurrentUser(ctx context.Context, sid string) (*models.User, error) {
	v, err := s.get(ctx, sid, KeyUser)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(v), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func (s *RedisStore) get(ctx context.Context, sid, name string) (string, error) {
	v, err := s.Client.Get(ctx, s.key(sid, name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("redis error: %w", err)
	}
	return v, nil
}
