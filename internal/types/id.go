// README: Entity identifiers (UUID strings) shared by every module.
package types

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidID = errors.New("invalid id")

type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID accepts any UUID spelling and returns its canonical lower-case form.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", ErrInvalidID
	}
	return ID(u.String()), nil
}

func (id ID) String() string {
	return string(id)
}

// Ptr returns a pointer to a copy of id. Nil-able references (trip driver) use it.
func (id ID) Ptr() *ID {
	return &id
}
