// Package entity содержит общую форму локально кешируемых записей:
// происхождение, метки времени и ошибки валидации на границе маппинга.
package entity

import "fmt"

// Source — происхождение записи: создана на терминале или получена
// с сервера.
type Source string

const (
	SourceLocal  Source = "local"
	SourceServer Source = "server"
)

func (s Source) Valid() bool {
	return s == SourceLocal || s == SourceServer
}

// ValidationError — значение вне закрытого перечисления сущности.
// Отсекается на границе маппинга, до хранилища не доходит.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

func NewValidationError(field, value string) *ValidationError {
	return &ValidationError{Field: field, Value: value}
}
