package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound — базовая ошибка отсутствующей сущности (заказ, клиент, сотрудник, техника).
	ErrNotFound = errors.New("resource not found")
	// ErrValidation — нарушен структурный инвариант запроса или агрегата.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden — политика доступа запретила операцию.
	ErrForbidden = errors.New("access denied")
	// ErrUnauthenticated — отсутствует или недействителен токен, неверные учётные данные.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrConflict — уникальность или ссылочная целостность не позволяют выполнить операцию.
	ErrConflict = errors.New("conflict")
	// ErrTooManyAttempts — вход временно заблокирован после серии неудачных попыток.
	ErrTooManyAttempts = errors.New("too many login attempts")

	// Ошибка отсутствующего клиента в заказе.
	ErrClientRequired = errors.New("client is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве (< 1).
	ErrItemQtyInvalid = errors.New("quantity must be at least 1")
	// Ошибка суммы позиции меньше 0.01.
	ErrItemAmountInvalid = errors.New("amount must be at least 0.01")
	// Ошибка суммы позиции с более чем двумя знаками после запятой.
	ErrItemAmountScale = errors.New("amount must have at most 2 decimal places")
	// Ошибка позиции без техники.
	ErrItemApplianceRequired = errors.New("appliance is required")
	// Ошибка одобренного заказа без сотрудника.
	ErrApprovedWithoutEmployee = errors.New("approved order must reference an employee")

	// ErrOrderAlreadyApproved — повторное одобрение запрещено, сотрудник не переназначается.
	ErrOrderAlreadyApproved = fmt.Errorf("%w: order is already approved", ErrConflict)
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = fmt.Errorf("%w: order version conflict", ErrConflict)
	// ErrEmailTaken — email уже занят другим пользователем.
	ErrEmailTaken = fmt.Errorf("%w: email is already registered", ErrConflict)
	// ErrManufacturerExists — производитель с таким именем уже есть.
	ErrManufacturerExists = fmt.Errorf("%w: manufacturer name already exists", ErrConflict)
	// ErrResourceInUse — на сущность ссылаются другие записи, удаление невозможно.
	ErrResourceInUse = fmt.Errorf("%w: resource is referenced by other records", ErrConflict)
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// NotFoundError описывает отсутствующую сущность: тип, поле поиска и значение.
type NotFoundError struct {
	Resource string
	Field    string
	Value    any
}

// NewNotFound создаёт ошибку отсутствующей сущности.
func NewNotFound(resource, field string, value any) *NotFoundError {
	return &NotFoundError{Resource: resource, Field: field, Value: value}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s: '%v'", e.Resource, e.Field, e.Value)
}

// Is позволяет сравнивать через errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError перечисляет все нарушенные инварианты.
type ValidationError struct {
	Violations []error
}

// NewValidationError оборачивает список нарушений; пустой список возвращает nil.
func NewValidationError(violations ...error) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages возвращает тексты нарушений в исходном порядке.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}
	return msgs
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Unwrap раскрывает отдельные нарушения для errors.Is(err, ErrItemsRequired).
func (e *ValidationError) Unwrap() []error {
	return e.Violations
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
