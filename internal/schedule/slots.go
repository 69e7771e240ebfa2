// Package schedule owns the court's opening window: hourly slot labels,
// date-ranged overrides, the civil clock and weekly recurrence.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// GenerateSlots returns the hourly labels from openHour to closeHour, both
// inclusive, in ascending order. Callers guarantee closeHour > openHour.
func GenerateSlots(openHour, closeHour int) []string {
	if closeHour < openHour {
		return nil
	}
	slots := make([]string, 0, closeHour-openHour+1)
	for h := openHour; h <= closeHour; h++ {
		slots = append(slots, FormatHour(h))
	}
	return slots
}

func FormatHour(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// NormalizeHour accepts "H:MM", "HH:MM" and "HH:MM:SS" and returns "HH:MM".
func NormalizeHour(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", false
	}
	if len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return "", false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return "", false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return "", false
	}
	if len(parts) == 3 {
		s, err := strconv.Atoi(parts[2])
		if err != nil || len(parts[2]) != 2 || s < 0 || s > 59 {
			return "", false
		}
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}

// HourOf returns the hour component of a normalized "HH:MM" label.
func HourOf(label string) (int, bool) {
	norm, ok := NormalizeHour(label)
	if !ok {
		return 0, false
	}
	h, _ := strconv.Atoi(norm[:2])
	return h, true
}

// IndexOf returns the position of label in slots or -1.
func IndexOf(slots []string, label string) int {
	for i, s := range slots {
		if s == label {
			return i
		}
	}
	return -1
}
