// Package validation содержит проверку входных данных и преобразование времени.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidTime возвращается при времени, не соответствующем 12-часовому формату.
var ErrInvalidTime = errors.New("invalid time format")

var time12hPattern = regexp.MustCompile(`^(0?[1-9]|1[0-2]):([0-5][0-9])\s?([AaPp][Mm])$`)

// To24Hour преобразует время из 12-часового формата с меридиемом ("3:04 PM")
// в 24-часовой формат хранения ("15:04"). Правила: 12:MM AM -> 00:MM,
// H:MM AM -> H:MM, H:MM PM -> (H+12):MM для H 1-11, 12:MM PM -> 12:MM.
func To24Hour(time12h string) (string, error) {
	m := time12hPattern.FindStringSubmatch(strings.TrimSpace(time12h))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, time12h)
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, time12h)
	}

	meridiem := strings.ToUpper(m[3])

	if hour == 12 {
		hour = 0
	}
	if meridiem == "PM" {
		hour += 12
	}

	return fmt.Sprintf("%02d:%s", hour, m[2]), nil
}

var time24hPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// To12Hour преобразует время из 24-часового формата хранения ("15:04")
// в 12-часовой формат отображения ("3:04 PM"). Обратна To24Hour для всех
// значений часов 1-12 с обоими меридиемами.
func To12Hour(time24h string) (string, error) {
	m := time24hPattern.FindStringSubmatch(strings.TrimSpace(time24h))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, time24h)
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, time24h)
	}

	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}

	displayHour := hour % 12
	if displayHour == 0 {
		displayHour = 12
	}

	return fmt.Sprintf("%d:%s %s", displayHour, m[2], meridiem), nil
}
