package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minNameLen     = 2
	maxNameLen     = 100
	minPasswordLen = 6
)

// IsValidEmail проверяет синтаксис адреса электронной почты.
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// mail.ParseAddress принимает адреса без домена верхнего уровня,
	// форма вида "a@b" для регистрации не допускается.
	return addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

// IsValidName проверяет длину имени пользователя.
func IsValidName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= minNameLen && n <= maxNameLen
}

// IsValidPassword проверяет минимальную длину пароля.
func IsValidPassword(password string) bool {
	return len(password) >= minPasswordLen
}

// IsValidBookingTime проверяет, что время указано в 12-часовом формате с меридиемом.
func IsValidBookingTime(time12h string) bool {
	return time12hPattern.MatchString(strings.TrimSpace(time12h))
}
