package domain

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Password length bounds. bcrypt ignores input past 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
	MaxNameLength     = 255
)

// User is a registered account.
type User struct {
	ID             int64     `json:"id"         db:"id"`
	Name           string    `json:"name"       db:"name"`
	Email          string    `json:"email"      db:"email"`
	HashedPassword string    `json:"-"          db:"password_hash"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// UserSnapshot identifies a deleted user.
type UserSnapshot struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Snapshot returns the identifying subset of u.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{ID: u.ID, Name: u.Name, Email: u.Email}
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims the name and lower-cases the email.
func (in RegisterInput) Normalize() RegisterInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in
}

// Validate checks the registration fields.
func (in RegisterInput) Validate() error {
	v := &ValidationError{}
	switch {
	case in.Name == "":
		v.Add("name", "The name field is required.")
	case utf8.RuneCountInString(in.Name) > MaxNameLength:
		v.Add("name", "The name may not be greater than 255 characters.")
	}
	validateEmail(v, in.Email)
	switch {
	case in.Password == "":
		v.Add("password", "The password field is required.")
	case len(in.Password) < MinPasswordLength:
		v.Add("password", "The password must be at least 8 characters.")
	case len(in.Password) > MaxPasswordLength:
		v.Add("password", "The password may not be greater than 72 characters.")
	}
	return v.Err()
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both credentials are present and the email is well formed.
func (in LoginInput) Validate() error {
	v := &ValidationError{}
	validateEmail(v, strings.TrimSpace(in.Email))
	if in.Password == "" {
		v.Add("password", "The password field is required.")
	}
	return v.Err()
}

func validateEmail(v *ValidationError, email string) {
	if email == "" {
		v.Add("email", "The email field is required.")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		v.Add("email", "The email must be a valid email address.")
	}
}
