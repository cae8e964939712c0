package bot

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"

	domain "github.com/CromwellTrading/PelisBot/internal/models"
)

// Данные callback-кнопок.
const (
	cbSearch       = "buscar"
	cbProfile      = "perfil"
	cbHelp         = "ayuda"
	cbHome         = "volver_inicio"
	cbRenew        = "renovar"
	cbSuggest      = "sugerir"
	cbPlanPrefix   = "plan_"
	cbMethodPrefix = "metodo_"
	cbPagePrefix   = "pagina_"
	cbMoviePrefix  = "pelicula_"
)

// Реквизиты для оплаты.
const (
	accountBPA     = "9248-1299-7027-1730\nNúmero de confirmación: 63806513"
	accountMetro   = "9238959871181386\n63806513"
	accountWallet  = "63806513 (mismos precios que tarjeta)"
	accountBalance = "63806513"
)

const (
	msgNotActive       = "⚠️ No tienes una suscripción activa. Usa /start para ver los planes."
	msgChoosePlanFirst = "⚠️ Primero debes elegir un plan con /start"
	msgImageError      = "❌ Error al procesar la imagen. Intenta de nuevo."
	msgRequestReceived = "✅ ¡Solicitud recibida!\n\nEl administrador verificará el pago en breve. " +
		"Te notificaremos cuando esté aprobado.\nGracias por tu paciencia 🙌"
	msgSearchPrompt    = "🔍 Escribe el nombre de la película que deseas buscar.\nEjemplo: Avengers Endgame"
	msgSearchTooShort  = "🔍 Escribe al menos 3 caracteres para buscar."
	msgSubscriptionOff = "⚠️ Tu suscripción no está activa."
	msgMovieNotFound   = "❌ Película no encontrada."
	msgDeliveryFailed  = "❌ Ocurrió un error al enviar la película. Intenta más tarde."
	msgNoProfile       = "❌ No tienes una suscripción activa."
	msgRenew           = "Selecciona el plan para renovar tu suscripción:"
	msgHelp            = "❓ Ayuda\n\n" +
		"• Para buscar películas, usa el botón 'Buscar' y escribe el nombre.\n" +
		"• Si no tienes suscripción, elige un plan y sigue las instrucciones de pago.\n" +
		"• Envía la captura del comprobante y espera la aprobación.\n" +
		"• Una vez activo, podrás ver tu perfil y tiempo restante.\n\n" +
		"Si tienes problemas, contacta al administrador."
	msgSuggestPrompt   = "💡 Escribe el título de la película que te gustaría ver en el catálogo."
	msgSuggestThanks   = "🙏 ¡Gracias! Tu sugerencia fue enviada al administrador."
	msgSuggestEmpty    = "❌ La sugerencia no puede estar vacía."
	msgSuggestDisabled = "ℹ️ Las sugerencias no están disponibles en este momento."
	msgInternalError   = "❌ Ocurrió un error. Intenta más tarde."
	msgUnauthorized    = "⛔ No autorizado."
	msgAddNeedsReply   = "❌ Debes responder al mensaje de la película en el canal con /addpelicula Título"
	msgAddWrongChannel = "❌ El mensaje debe ser del canal de películas."
	msgAddNeedsTitle   = "❌ Debes especificar el título. Ej: /addpelicula Avengers Endgame"
)

func planName(p domain.Plan) string {
	switch p {
	case domain.PlanPremium:
		return "Premium"
	case domain.PlanClassic:
		return "Clásico"
	}
	return string(p)
}

func methodName(m domain.Method) string {
	switch m {
	case domain.MethodBankTransfer:
		return "Tarjeta / Monedero"
	case domain.MethodMobileBalance:
		return "Saldo Móvil"
	}
	return "Desconocido"
}

func (h *Handlers) welcomeActiveText(name string, plan domain.Plan, days int) string {
	greeting := "✨ ¡Bienvenido de nuevo! ✨"
	if name != "" {
		greeting = fmt.Sprintf("✨ ¡Bienvenido de nuevo, %s! ✨", name)
	}
	return fmt.Sprintf("%s\n\n🎬 Tu suscripción %s está activa.\n📅 Días restantes: %d\n\n¿Qué deseas hacer?",
		greeting, planName(plan), days)
}

func (h *Handlers) welcomeText() string {
	p := h.prices
	return fmt.Sprintf("🍿 ¡Bienvenido al CineBot! 🍿\n\n"+
		"Para acceder al catálogo de películas debes suscribirte.\n\n"+
		"Precios:\n"+
		"• Tarjeta/Monedero: Clásico %d CUP | Premium %d CUP\n"+
		"• Saldo Móvil: Clásico %d CUP | Premium %d CUP\n\n"+
		"Elige un plan:",
		p.Price(domain.PlanClassic, domain.MethodBankTransfer),
		p.Price(domain.PlanPremium, domain.MethodBankTransfer),
		p.Price(domain.PlanClassic, domain.MethodMobileBalance),
		p.Price(domain.PlanPremium, domain.MethodMobileBalance),
	)
}

func (h *Handlers) paymentText(plan domain.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📌 Has elegido el plan %s\n\n", planName(plan))
	b.WriteString("Instrucciones de pago:\nRealiza el depósito a una de las siguientes cuentas:\n\n")
	fmt.Fprintf(&b, "🏦 BPA:\n%s\n\n", accountBPA)
	fmt.Fprintf(&b, "🏧 METRO:\n%s\n\n", accountMetro)
	fmt.Fprintf(&b, "📱 Monedero:\n%s\n", accountWallet)
	fmt.Fprintf(&b, "   * %s: %d CUP\n\n", planName(plan), h.prices.Price(plan, domain.MethodBankTransfer))
	fmt.Fprintf(&b, "📞 Saldo Móvil:\n%s\n", accountBalance)
	fmt.Fprintf(&b, "   * %s: %d CUP\n\n", planName(plan), h.prices.Price(plan, domain.MethodMobileBalance))
	b.WriteString("Indica cómo pagaste y luego envía la captura.\n")
	b.WriteString("✅ Luego de pagar, envía una captura de pantalla del comprobante.\n")
	b.WriteString("El administrador verificará y activará tu suscripción.")
	return b.String()
}

func methodSelectedText(plan domain.Plan, method domain.Method) string {
	return fmt.Sprintf("💳 Plan %s, método: %s.\n\n✅ Luego de pagar, envía una captura de pantalla del comprobante.",
		planName(plan), methodName(method))
}

func profileText(plan domain.Plan, expiry string, days int) string {
	return fmt.Sprintf("👤 Tu perfil\n\nPlan: %s\nFecha de expiración: %s\nDías restantes: %d", planName(plan), expiry, days)
}

func noResultsText(query string) string {
	return fmt.Sprintf("😕 No encontré ninguna película con '%s'. Prueba con otro título.", query)
}

func resultsText(query string, page, pages int) string {
	return fmt.Sprintf("🎥 Resultados para '%s' (página %d/%d):", query, page, pages)
}

func movieAddedText(title string) string {
	return fmt.Sprintf("✅ Película '%s' agregada correctamente.", title)
}

func panelText(url string) string {
	return fmt.Sprintf("👨‍💼 Panel de Administración\n\nAccede a la webapp: %s", url)
}

func button(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

func keyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func homeRow() []models.InlineKeyboardButton {
	return []models.InlineKeyboardButton{button("🔙 Volver al inicio", cbHome)}
}

func (h *Handlers) activeMenu() *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		{button("🎬 Buscar películas", cbSearch)},
		{button("👤 Mi perfil", cbProfile)},
	}
	if h.suggestions.Enabled() {
		rows = append(rows, []models.InlineKeyboardButton{button("💡 Sugerir película", cbSuggest)})
	}
	rows = append(rows, []models.InlineKeyboardButton{button("❓ Ayuda", cbHelp)})
	if h.webAppURL != "" {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:   "🌐 Catálogo web",
			WebApp: &models.WebAppInfo{URL: h.webAppURL},
		}})
	}
	return keyboard(rows...)
}

func plansMenu(last []models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return keyboard(
		[]models.InlineKeyboardButton{button("🎬 Plan Clásico", cbPlanPrefix+string(domain.PlanClassic))},
		[]models.InlineKeyboardButton{button("🌟 Plan Premium", cbPlanPrefix+string(domain.PlanPremium))},
		last,
	)
}

func methodsMenu() *models.InlineKeyboardMarkup {
	return keyboard(
		[]models.InlineKeyboardButton{button("🏦 Tarjeta / Monedero", cbMethodPrefix+string(domain.MethodBankTransfer))},
		[]models.InlineKeyboardButton{button("📞 Saldo Móvil", cbMethodPrefix+string(domain.MethodMobileBalance))},
		homeRow(),
	)
}

func resultsMenu(page *domain.MoviePage) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(page.Items)+2)
	for _, m := range page.Items {
		rows = append(rows, []models.InlineKeyboardButton{button(m.Title, fmt.Sprintf("%s%d", cbMoviePrefix, m.ID))})
	}

	var nav []models.InlineKeyboardButton
	if page.Page > 1 {
		nav = append(nav, button("⬅️ Anterior", fmt.Sprintf("%s%d", cbPagePrefix, page.Page-1)))
	}
	if page.Page < totalPages(page.Total) {
		nav = append(nav, button("Siguiente ➡️", fmt.Sprintf("%s%d", cbPagePrefix, page.Page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, homeRow())
	return keyboard(rows...)
}

func totalPages(total int) int {
	return (total + domain.PageSize - 1) / domain.PageSize
}
