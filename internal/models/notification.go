package models

// Notification: сообщение пользователю, которое доставляется через очередь.
type Notification struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}
