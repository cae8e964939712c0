package models

import "time"

// RequestStatus: состояние заявки на оплату.
type RequestStatus string

const (
	// StatusPending: заявка ожидает решения администратора.
	StatusPending RequestStatus = "pendiente"
	// StatusApproved: заявка одобрена (конечное состояние).
	StatusApproved RequestStatus = "aprobada"
	// StatusRejected: заявка отклонена (конечное состояние).
	StatusRejected RequestStatus = "rechazada"
)

// PaymentRequest: заявка с подтверждением оплаты.
// Создаётся в статусе pending и меняется ровно один раз.
type PaymentRequest struct {
	ID              int64         `json:"id"`
	TelegramID      int64         `json:"telegram_id"`
	Plan            Plan          `json:"plan_solicitado"`
	Method          Method        `json:"metodo_pago"`
	ProofURL        string        `json:"captura_url"`
	Status          RequestStatus `json:"estado"`
	RejectionReason *string       `json:"motivo_rechazo,omitempty"`
	ReviewedBy      *int64        `json:"revisado_por,omitempty"`
	ReviewedAt      *time.Time    `json:"fecha_revision,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ApproveParams описывает атомарное одобрение заявки в хранилище:
// смену статуса, продление подписки и начисление в журнал комиссий.
type ApproveParams struct {
	RequestID   int64
	AdminID     int64
	Method      Method // Итоговый способ оплаты (после сверки)
	ApprovedAt  time.Time
	ExpiresAt   time.Time
	Amount      int   // Сумма по каноническому прайсу; 0: не начислять
	LedgerAdmin int64 // Владелец записи журнала комиссий
}
