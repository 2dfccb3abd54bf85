package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name,omitempty"`
	PasswordHash string    `json:"-"`
	Goals        string    `json:"goals,omitempty"` // Texto libre usado por el asistente
	CreatedAt    time.Time `json:"created_at"`
}
