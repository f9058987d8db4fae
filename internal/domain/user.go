package domain

import (
	"github.com/google/uuid"
)

// User is the display identity attached to one connection.
// It only appears in logs and on the status page; the relayed byte
// stream never carries it.
type User struct {
	ID           uuid.UUID `json:"id"`
	PersonaName  string    `json:"persona_name"`
	PersonaColor string    `json:"persona_color"` // hex neon color
}

// NewUser creates a new User with generated ID
func NewUser(personaName, personaColor string) *User {
	return &User{
		ID:           uuid.New(),
		PersonaName:  personaName,
		PersonaColor: personaColor,
	}
}
