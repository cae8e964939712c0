package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CromwellTrading/PelisBot/internal/models"
)

// Awaiting: какой свободный текст бот ждёт от пользователя.
type Awaiting string

const (
	AwaitingNothing    Awaiting = ""
	AwaitingSearch     Awaiting = "busqueda"
	AwaitingSuggestion Awaiting = "sugerencia"
)

// Session: состояние диалога пользователя в чате.
type Session struct {
	Plan      models.Plan   `json:"plan,omitempty"`
	Method    models.Method `json:"metodo,omitempty"`
	Awaiting  Awaiting      `json:"esperando,omitempty"`
	LastQuery string        `json:"ultima_busqueda,omitempty"`
}

const maxUpdateAttempts = 5

// Sessions хранит сессии чата под ключами session:<id> с TTL.
type Sessions struct {
	cache *Cache
	ttl   time.Duration
}

// NewSessions создаёт хранилище сессий.
func NewSessions(c *Cache, ttl time.Duration) *Sessions {
	return &Sessions{cache: c, ttl: ttl}
}

func sessionKey(userID int64) string {
	return "session:" + strconv.FormatInt(userID, 10)
}

// Get возвращает сессию пользователя; пустую, если её нет.
func (s *Sessions) Get(ctx context.Context, userID int64) (Session, error) {
	var sess Session
	if _, err := s.cache.Get(ctx, sessionKey(userID), &sess); err != nil {
		return Session{}, fmt.Errorf("cache.Sessions.Get: %w", err)
	}
	return sess, nil
}

// Update атомарно читает, изменяет и сохраняет сессию (WATCH/MULTI),
// продлевая TTL. Возвращает сохранённое состояние.
func (s *Sessions) Update(ctx context.Context, userID int64, fn func(*Session)) (Session, error) {
	const op = "cache.Sessions.Update"
	key := sessionKey(userID)
	var result Session

	txf := func(tx *redis.Tx) error {
		var sess Session
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &sess); err != nil {
				return err
			}
		}

		fn(&sess)
		data, err := json.Marshal(sess)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			result = sess
		}
		return err
	}

	for range maxUpdateAttempts {
		err := s.cache.Db.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return Session{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return Session{}, fmt.Errorf("%s: too many concurrent updates", op)
}

// Clear удаляет сессию пользователя.
func (s *Sessions) Clear(ctx context.Context, userID int64) error {
	return s.cache.Invalidate(ctx, sessionKey(userID))
}
