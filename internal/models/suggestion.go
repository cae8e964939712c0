package models

import "time"

// SuggestionStatus: состояние предложения.
type SuggestionStatus string

const (
	// SuggestionPending: предложение ещё не просмотрено.
	SuggestionPending SuggestionStatus = "pendiente"
	// SuggestionReviewed: предложение просмотрено администратором.
	SuggestionReviewed SuggestionStatus = "revisada"
)

// Valid проверяет статус предложения.
func (s SuggestionStatus) Valid() bool {
	return s == SuggestionPending || s == SuggestionReviewed
}

// Suggestion: пожелание пользователя добавить фильм в каталог.
type Suggestion struct {
	ID         int64            `json:"id"`
	TelegramID int64            `json:"telegram_id"`
	Text       string           `json:"texto"`
	Status     SuggestionStatus `json:"estado"`
	CreatedAt  time.Time        `json:"created_at"`
}
