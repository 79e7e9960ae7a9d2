package dto

import "github.com/google/uuid"

// SessionResponse состояние входа для проверки на страницах админки
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	IsAdmin       bool       `json:"is_admin"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
}
