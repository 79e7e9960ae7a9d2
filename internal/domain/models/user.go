package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	Password         []byte    `db:"password" json:"-"`
	IsAdmin          bool      `db:"is_admin" json:"is_admin"`
	RegistrationDate time.Time `db:"registration_date" json:"registration_date,omitempty"`
	LastLogin        time.Time `db:"last_login" json:"last_login,omitempty"`
}
