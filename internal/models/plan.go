package models

import "time"

// Plan: тариф подписки.
type Plan string

const (
	// PlanClassic классический тариф, пересылка с защитой содержимого.
	PlanClassic Plan = "clasico"
	// PlanPremium премиум тариф, пересылка без защиты.
	PlanPremium Plan = "premium"
)

// Valid проверяет, что тариф входит в список известных.
func (p Plan) Valid() bool {
	return p == PlanClassic || p == PlanPremium
}

// Protected сообщает, нужно ли выставлять флаг защиты содержимого при пересылке.
func (p Plan) Protected() bool {
	return p != PlanPremium
}

// Method: способ оплаты.
type Method string

const (
	// MethodBankTransfer: перевод на банковскую карту.
	MethodBankTransfer Method = "transferencia"
	// MethodMobileBalance: оплата мобильным балансом.
	MethodMobileBalance Method = "saldo"
	// MethodUnknown: способ не указан, администратор сверяет вручную.
	MethodUnknown Method = "desconocido"
)

// Valid проверяет, что способ оплаты известен (включая неизвестный для чата).
func (m Method) Valid() bool {
	switch m {
	case MethodBankTransfer, MethodMobileBalance, MethodUnknown:
		return true
	}
	return false
}

// SubscriptionPeriod: фиксированная длительность подписки после одобрения.
const SubscriptionPeriod = 30 * 24 * time.Hour

// PageSize: фиксированный размер страницы для каталога и списков.
const PageSize = 10

// MaxPage: наибольший номер страницы, который принимают списки.
const MaxPage = 100000
