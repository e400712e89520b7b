// README: User aggregate; passenger and driver are independent capability flags.
package user

import (
	"time"

	"rides/internal/apperr"
	"rides/internal/types"
)

const (
	RoleDriver    = "driver"
	RolePassenger = "passenger"
)

var (
	ErrNotFound       = apperr.New(apperr.ErrNotFound, "user not found")
	ErrDriverNotFound = apperr.New(apperr.ErrNotFound, "driver not found")
	ErrUsernameTaken  = apperr.New(apperr.ErrConflict, "username already taken")
	// ErrBadCredentials has no kind on purpose: transport answers 401.
	ErrBadCredentials = &apperr.Error{Msg: "invalid username or password"}
)

type User struct {
	ID           types.ID  `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsDriver     bool      `json:"is_driver"`
	IsPassenger  bool      `json:"is_passenger"`
	IsAvailable  bool      `json:"is_available"`
	JoinedAt     time.Time `json:"joined_at"`
	PasswordHash string    `json:"-"`
}

func (u *User) Role() string {
	if u.IsDriver {
		return RoleDriver
	}
	return RolePassenger
}

type Filter struct {
	DriversOnly bool
}
