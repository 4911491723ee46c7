package validation

import (
	"errors"
	"fmt"
	"testing"
)

func TestTo24Hour(t *testing.T) {
	tests := []struct {
		name    string
		time12h string
		want    string
	}{
		{name: "midnight", time12h: "12:00 AM", want: "00:00"},
		{name: "morning", time12h: "9:15 AM", want: "09:15"},
		{name: "eleven am", time12h: "11:59 AM", want: "11:59"},
		{name: "noon", time12h: "12:00 PM", want: "12:00"},
		{name: "afternoon", time12h: "2:30 PM", want: "14:30"},
		{name: "eleven pm", time12h: "11:45 PM", want: "23:45"},
		{name: "no space before meridiem", time12h: "3:05PM", want: "15:05"},
		{name: "lowercase meridiem", time12h: "7:20 pm", want: "19:20"},
		{name: "leading zero hour", time12h: "07:00 AM", want: "07:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := To24Hour(tt.time12h)
			if err != nil {
				t.Fatalf("To24Hour(%q) error: %v", tt.time12h, err)
			}
			if got != tt.want {
				t.Fatalf("To24Hour(%q) = %q, want %q", tt.time12h, got, tt.want)
			}
		})
	}
}

func TestTo24Hour_Invalid(t *testing.T) {
	tests := []string{
		"",
		"25:00 PM",
		"13:00 AM",
		"0:30 AM",
		"12:60 PM",
		"12:00",
		"noon",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := To24Hour(input)
			if !errors.Is(err, ErrInvalidTime) {
				t.Fatalf("To24Hour(%q) error = %v, want ErrInvalidTime", input, err)
			}
		})
	}
}

func TestTo12Hour(t *testing.T) {
	tests := []struct {
		time24h string
		want    string
	}{
		{time24h: "00:00", want: "12:00 AM"},
		{time24h: "00:30", want: "12:30 AM"},
		{time24h: "09:15", want: "9:15 AM"},
		{time24h: "11:59", want: "11:59 AM"},
		{time24h: "12:00", want: "12:00 PM"},
		{time24h: "14:30", want: "2:30 PM"},
		{time24h: "23:45", want: "11:45 PM"},
	}

	for _, tt := range tests {
		t.Run(tt.time24h, func(t *testing.T) {
			got, err := To12Hour(tt.time24h)
			if err != nil {
				t.Fatalf("To12Hour(%q) error: %v", tt.time24h, err)
			}
			if got != tt.want {
				t.Fatalf("To12Hour(%q) = %q, want %q", tt.time24h, got, tt.want)
			}
		})
	}
}

func TestTo12Hour_Invalid(t *testing.T) {
	tests := []string{
		"",
		"24:00",
		"14:60",
		"2:30 PM",
		"14:30:00",
		"14:30garbage",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := To12Hour(input)
			if !errors.Is(err, ErrInvalidTime) {
				t.Fatalf("To12Hour(%q) error = %v, want ErrInvalidTime", input, err)
			}
		})
	}
}

// Преобразование должно быть обратимым для всех значений часов 1-12
// с обоими меридиемами.
func TestTimeConversionRoundTrip(t *testing.T) {
	for hour := 1; hour <= 12; hour++ {
		for _, meridiem := range []string{"AM", "PM"} {
			original := fmt.Sprintf("%d:30 %s", hour, meridiem)
			t.Run(original, func(t *testing.T) {
				time24, err := To24Hour(original)
				if err != nil {
					t.Fatalf("To24Hour(%q) error: %v", original, err)
				}

				back, err := To12Hour(time24)
				if err != nil {
					t.Fatalf("To12Hour(%q) error: %v", time24, err)
				}

				if back != original {
					t.Fatalf("round trip %q -> %q -> %q", original, time24, back)
				}
			})
		}
	}
}

func TestIsValidBookingTime(t *testing.T) {
	valid := []string{"11:30 AM", "1:00 pm", "12:45 PM", "9:05AM"}
	for _, v := range valid {
		if !IsValidBookingTime(v) {
			t.Fatalf("IsValidBookingTime(%q) = false, want true", v)
		}
	}

	invalid := []string{"", "13:00 PM", "11:30", "half past nine"}
	for _, v := range invalid {
		if IsValidBookingTime(v) {
			t.Fatalf("IsValidBookingTime(%q) = true, want false", v)
		}
	}
}
