package models

import "time"

// CommissionLedger: накопитель выручки администратора за календарный месяц.
// После сбора запись закрывается, следующее одобрение открывает новую.
type CommissionLedger struct {
	ID                 int64      `json:"id"`
	AdminID            int64      `json:"admin_id"`
	Month              time.Time  `json:"mes"`
	BankTransferTotal  int        `json:"total_transferencia"`
	MobileBalanceTotal int        `json:"total_saldo"`
	UnknownTotal       int        `json:"total_desconocido"`
	Collected          bool       `json:"recogida"`
	CollectedAt        *time.Time `json:"fecha_recogida,omitempty"`
}

// Total возвращает общую сумму по всем способам оплаты.
func (l *CommissionLedger) Total() int {
	if l == nil {
		return 0
	}
	return l.BankTransferTotal + l.MobileBalanceTotal + l.UnknownTotal
}

// Stats: сводка для панели администратора.
type Stats struct {
	TotalUsers      int               `json:"total_usuarios"`
	ActiveUsers     int               `json:"usuarios_activos"`
	PendingRequests int               `json:"solicitudes_pendientes"`
	Ledger          *CommissionLedger `json:"comision_actual,omitempty"`
}
