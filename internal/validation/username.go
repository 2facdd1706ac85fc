// Package validation проверяет данные учетной записи и аргументы записей бюджета.
// Используется и клиентом (до постановки в очередь), и сервером.
package validation

import (
	"fmt"
	"regexp"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 32

	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt учитывает только первые 72 байта
)

// usernamePattern латиница, цифры и подчеркивание
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateUsername проверяет username: 3-32 символа из [a-zA-Z0-9_]
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return fmt.Errorf("username cannot be empty")
	case len(username) < MinUsernameLen:
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	case len(username) > MaxUsernameLen:
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	case !usernamePattern.MatchString(username):
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}
	return nil
}

// ValidatePassword проверяет длину пароля учетной записи
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return fmt.Errorf("password cannot be empty")
	case len(password) < minPasswordLen:
		return fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	case len(password) > maxPasswordLen:
		return fmt.Errorf("password must not exceed %d bytes", maxPasswordLen)
	}
	return nil
}
