// Package telegramauth проверяет подпись initData мини-приложения Telegram.
package telegramauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidSignature: подпись не совпала или отсутствует.
	ErrInvalidSignature = errors.New("invalid init data signature")
	// ErrExpired: initData старше допустимого возраста.
	ErrExpired = errors.New("init data expired")
	// ErrMalformed: не удалось разобрать initData.
	ErrMalformed = errors.New("malformed init data")
)

// WebAppUser: поле user из initData.
type WebAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Validator проверяет initData ключом, выведенным из токена бота.
type Validator struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewValidator создаёт Validator. maxAge <= 0 отключает проверку auth_date.
func NewValidator(botToken string, maxAge time.Duration) *Validator {
	return &Validator{
		secret: deriveKey(botToken),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func deriveKey(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

// Validate проверяет подпись initData и возвращает пользователя.
func (v *Validator) Validate(initData string) (*WebAppUser, error) {
	const op = "telegramauth.Validate"

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMalformed)
	}
	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}
	got, err := hex.DecodeString(hash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}
	if !hmac.Equal(got, v.sign(values)) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	if v.maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrMalformed)
		}
		if v.now().Sub(time.Unix(authDate, 0)) > v.maxAge {
			return nil, fmt.Errorf("%s: %w", op, ErrExpired)
		}
	}

	var user WebAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrMalformed)
	}
	return &user, nil
}

// Sign возвращает hex-подпись для набора полей; используется ботом и тестами.
func (v *Validator) Sign(values url.Values) string {
	return hex.EncodeToString(v.sign(values))
}

func (v *Validator) sign(values url.Values) []byte {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return mac.Sum(nil)
}
