package models

import "time"

// Movie описывает элемент каталога, ссылку на сообщение в приватном канале.
type Movie struct {
	ID        int64     `json:"id"`
	Title     string    `json:"titulo"`
	MessageID int       `json:"message_id"`
	ChannelID int64     `json:"canal_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MoviePage: страница каталога.
type MoviePage struct {
	Items []*Movie `json:"data"`
	Total int      `json:"total"`
	Page  int      `json:"page"`
}

// UserPage: страница списка пользователей для администратора.
type UserPage struct {
	Items []*User `json:"data"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
}

// NormalizePage приводит номер страницы к диапазону [1, MaxPage]
// и возвращает смещение для выборки.
func NormalizePage(page int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	return page, (page - 1) * PageSize
}
