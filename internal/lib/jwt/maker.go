// Package jwt выпускает и проверяет сессионные токены веб-панели.
//
// Токен выдаётся после проверки initData мини-приложения Telegram и несёт
// идентификатор пользователя Telegram в claim telegram_id.
package jwt

import (
	"errors"
	"time"
)

// ErrEmptySecret возвращается при попытке подписать или проверить токен пустым ключом.
var ErrEmptySecret = errors.New("jwt secret key is empty")

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	GenerateToken(telegramID int64, isAdmin bool) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
