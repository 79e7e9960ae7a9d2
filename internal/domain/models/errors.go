package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrForbidden операция требует прав администратора
var ErrForbidden = errors.New("admin capability required")

// ValidationError ошибка проверки входных данных формы
type ValidationError struct {
	Errors []string
}

func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// IsValidationError проверяет, является ли ошибка ошибкой валидации
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError ошибка записи в базу после успешной загрузки файлов
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
