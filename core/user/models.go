package user

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/enghaven/portal/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

var HashCost = bcrypt.DefaultCost // mockable

// User is the record persisted in the "users" collection.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	PasswordHash string `json:"passwordHash"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), HashCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile is the public view of a User.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}
}

// Session is a snapshot of the User's identity taken at login.
// It is not refreshed when the User changes afterwards.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func NewSession(usr User) *Session {
	return &Session{ID: usr.ID, Name: usr.Name, Email: usr.Email, Role: usr.Role}
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// RequireAuthenticated fails if there is no active session.
func RequireAuthenticated(s *Session) error {
	if s == nil || s.ID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin fails if the session is not an admin's.
func RequireAdmin(s *Session) error {
	if err := RequireAuthenticated(s); err != nil {
		return err
	}
	if !s.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string `json:"name" form:"name" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required"`
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Clean trims the identity fields. Emails are kept case-sensitive; the password is left untouched.
func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email)
	nu.Phone = core.CleanString(nu.Phone)
}
