// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков и сопоставления ошибок
// домена с HTTP‑статусами.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/CromwellTrading/PelisBot/internal/models"
)

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

// SuccessResponse — тело ответа об успешной операции.
type SuccessResponse struct {
	Success bool  `json:"success" example:"true"`
	ID      int64 `json:"id,omitempty"`
}

// SubmitResponse — ответ на отправку заявки.
type SubmitResponse struct {
	Success   bool  `json:"success" example:"true"`
	RequestID int64 `json:"solicitud_id" example:"42"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// OK возвращает ответ об успехе.
func OK() SuccessResponse {
	return SuccessResponse{Success: true}
}

// OKWithID возвращает ответ об успехе с идентификатором созданной сущности.
func OKWithID(id int64) SuccessResponse {
	return SuccessResponse{Success: true, ID: id}
}

// ValidationError формирует ответ на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be positive", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "max":
			if err.Kind() == reflect.String {
				errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
			} else {
				errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
			}
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Error(strings.Join(errsMsgs, ", "))
}

// StatusFor сопоставляет ошибку домена с HTTP-статусом и безопасным текстом.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "subscription is not active"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, models.ErrFeatureDisabled):
		return http.StatusNotFound, "feature disabled"
	case errors.Is(err, models.ErrAlreadyHandled):
		return http.StatusConflict, "request already handled"
	case errors.Is(err, models.ErrDelivery):
		return http.StatusInternalServerError, "delivery failed"
	case errors.Is(err, models.ErrPersistence):
		return http.StatusInternalServerError, "failed to save data"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// validationMessage возвращает текст после метки ошибки валидации.
func validationMessage(err error) string {
	msg := err.Error()
	marker := models.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return models.ErrValidation.Error()
}

// Fail пишет ошибку домена с соответствующим статусом.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := StatusFor(err)
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}
