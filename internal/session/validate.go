package session

import (
	"regexp"
	"unicode"

	"github.com/wetrack/wetrack/internal/api"
)

// RegisterParams mirrors the registration form. Password1/Password2 follow the
// backend's password-and-confirmation field naming.
type RegisterParams struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Validate runs the local checks that must pass before a registration request
// is issued. A failure reports every offending field at once.
func (p RegisterParams) Validate() error {
	fields := make(map[string][]string)

	if p.Username == "" {
		fields["username"] = append(fields["username"], "Username is required")
	}

	switch {
	case p.Email == "":
		fields["email"] = append(fields["email"], "Email is required")
	case !emailPattern.MatchString(p.Email):
		fields["email"] = append(fields["email"], "Please enter a valid email address")
	}

	switch {
	case p.Password1 == "":
		fields["password1"] = append(fields["password1"], "Password is required")
	case len(p.Password1) < 8:
		fields["password1"] = append(fields["password1"], "Password must be at least 8 characters long")
	case !hasLetterAndDigit(p.Password1):
		fields["password1"] = append(fields["password1"], "Password must contain at least one letter and one number")
	}

	if p.Password2 == "" {
		fields["password2"] = append(fields["password2"], "Please confirm your password")
	} else if p.Password1 != p.Password2 {
		fields["password2"] = append(fields["password2"], "Passwords do not match")
	}

	if len(fields) > 0 {
		return &api.ValidationError{Fields: fields}
	}

	return nil
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool

	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	return letter && digit
}
