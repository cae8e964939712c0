// Package pricing содержит канонический прайс подписок.
package pricing

import "github.com/CromwellTrading/PelisBot/internal/models"

var base = map[models.Method]map[models.Plan]int{
	models.MethodBankTransfer: {
		models.PlanClassic: 200,
		models.PlanPremium: 350,
	},
	models.MethodMobileBalance: {
		models.PlanClassic: 120,
		models.PlanPremium: 200,
	},
}

// Table: прайс с необязательной процентной корректировкой.
type Table struct {
	adjustmentPercent int
}

// New создаёт прайс. adjustmentPercent = 0 означает фиксированные цены.
func New(adjustmentPercent int) *Table {
	return &Table{adjustmentPercent: adjustmentPercent}
}

// Price возвращает цену плана для способа оплаты. Неизвестный способ
// оценивается как перевод; неизвестный план стоит 0.
func (t *Table) Price(plan models.Plan, method models.Method) int {
	if method != models.MethodMobileBalance {
		method = models.MethodBankTransfer
	}
	price := base[method][plan]
	if t == nil || t.adjustmentPercent == 0 {
		return price
	}
	return price + price*t.adjustmentPercent/100
}
