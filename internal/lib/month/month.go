// Package month содержит расчёты, привязанные к календарному месяцу.
package month

import (
	"time"
)

// Start возвращает начало месяца t в UTC. Записи комиссии группируются по этому значению.
func Start(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
