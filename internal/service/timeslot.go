package service

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Times travel through the engine as zero-padded "HH:MM" strings, so
// lexicographic order matches temporal order and the helpers below only
// convert at the edges.

const (
	timeLayout = "15:04"
	dateLayout = "2006-01-02"
)

func parseHHMM(value string) (int, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatHHMM(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func addMinutesHHMM(value string, delta int) (string, error) {
	m, err := parseHHMM(value)
	if err != nil {
		return "", err
	}
	return formatHHMM(m + delta), nil
}

// overlapsHHMM reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect. Boundary-touching intervals do not overlap.
func overlapsHHMM(s1, e1, s2, e2 string) bool {
	return s1 < e2 && s2 < e1
}

func validHHMM(value string) bool {
	_, err := time.Parse(timeLayout, value)
	return err == nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

func validDate(value string) bool {
	_, err := time.Parse(dateLayout, value)
	return err == nil
}

// weekdayOf returns 0 for Sunday through 6 for Saturday.
func weekdayOf(date string) (int, error) {
	t, err := parseDate(date)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}

// registerTimeValidations wires the "hhmm" and "isodate" tags used by the
// scheduling request structs. Safe to call from several constructors that
// share one validator instance.
func registerTimeValidations(v *validator.Validate) {
	v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return validHHMM(fl.Field().String())
	})
	v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return validDate(fl.Field().String())
	})
}
