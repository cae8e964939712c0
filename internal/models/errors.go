package models

import "errors"

var (
	// ErrValidation — входные данные отсутствуют или некорректны.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized — вызывающий не входит в список администраторов.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden — у вызывающего нет активной подписки.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound — запрошенная сущность не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyHandled — заявка уже одобрена или отклонена.
	ErrAlreadyHandled = errors.New("request already handled")
	// ErrStorage — ошибка хранилища (объектного или базы данных при чтении).
	ErrStorage = errors.New("storage error")
	// ErrPersistence — не удалось записать метаданные после загрузки.
	ErrPersistence = errors.New("persistence error")
	// ErrDelivery — не удалось переслать сообщение пользователю.
	ErrDelivery = errors.New("delivery error")
	// ErrFeatureDisabled — функция отключена в конфигурации.
	ErrFeatureDisabled = errors.New("feature disabled")
)
