// Package models содержит доменные структуры бота: пользователей, заявки на оплату,
// каталог фильмов, предложения и журнал комиссий, а также общие ошибки домена.
package models

import "time"

// User представляет подписчика, созданного при первом одобренном платеже.
// Признак администратора не хранится в базе и вычисляется из конфигурации.
type User struct {
	TelegramID         int64      `json:"telegram_id"`      // Идентификатор пользователя в Telegram
	Plan               Plan       `json:"plan"`             // Текущий тариф
	SubscriptionStart  *time.Time `json:"fecha_inicio"`     // Начало текущего периода
	SubscriptionExpire *time.Time `json:"fecha_expiracion"` // Окончание оплаченного периода
	CreatedAt          time.Time  `json:"created_at"`       // Дата создания записи
	Active             bool       `json:"activo"`           // Вычисляется при чтении, не хранится
}

// IsActive сообщает, активна ли подписка на момент now.
// Подписка активна только если дата окончания строго больше now.
func (u *User) IsActive(now time.Time) bool {
	if u == nil || u.SubscriptionExpire == nil {
		return false
	}
	return u.SubscriptionExpire.After(now)
}
