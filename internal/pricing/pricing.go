// Package pricing computes display prices for court hours. Nothing here is
// enforced when booking or recording payments.
package pricing

import (
	"fmt"
	"os"
	"time"

	"cancha/internal/config"
	"cancha/internal/schedule"

	"cloud.google.com/go/civil"
	"gopkg.in/yaml.v2"
)

type Calculator struct {
	rates    config.PricingConfig
	holidays map[civil.Date]string
}

func NewCalculator(rates config.PricingConfig, holidays []Holiday) *Calculator {
	c := &Calculator{rates: rates, holidays: make(map[civil.Date]string, len(holidays))}
	for _, h := range holidays {
		c.holidays[h.Date] = h.Name
	}
	return c
}

// Price maps a slot to its display price. An approved special tariff beats
// the weekend rate; holidays price like weekends only when enabled.
func (c *Calculator) Price(hour string, date civil.Date, tariffApproved bool) int64 {
	h, ok := schedule.HourOf(hour)
	if !ok {
		return 0
	}
	night := h >= c.rates.CutoffHour

	if tariffApproved {
		if night {
			return c.rates.TariffNight
		}
		return c.rates.TariffDay
	}

	if c.isWeekendRate(date) {
		return c.rates.Weekend
	}

	if night {
		return c.rates.WeekdayNight
	}
	return c.rates.WeekdayDay
}

func (c *Calculator) isWeekendRate(date civil.Date) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	if !c.rates.HolidayWeekend {
		return false
	}
	_, holiday := c.holidays[date]
	return holiday
}

// HolidayName returns the configured holiday name for date, if any.
func (c *Calculator) HolidayName(date civil.Date) (string, bool) {
	name, ok := c.holidays[date]
	return name, ok
}

// Prices maps each slot to its display price.
func (c *Calculator) Prices(slots []string, date civil.Date, tariffApproved bool) map[string]int64 {
	out := make(map[string]int64, len(slots))
	for _, s := range slots {
		out[s] = c.Price(s, date, tariffApproved)
	}
	return out
}

type Holiday struct {
	Date civil.Date
	Name string
}

type holidayFile struct {
	Holidays []struct {
		Date string `yaml:"date"`
		Name string `yaml:"name"`
	} `yaml:"holidays"`
}

// LoadHolidays reads a YAML calendar of the form
//
//	holidays:
//	  - date: 2026-12-08
//	    name: Inmaculada Concepción
func LoadHolidays(path string) ([]Holiday, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file holidayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse holidays: %w", err)
	}

	holidays := make([]Holiday, 0, len(file.Holidays))
	for _, h := range file.Holidays {
		d, err := civil.ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h.Name, err)
		}
		holidays = append(holidays, Holiday{Date: d, Name: h.Name})
	}
	return holidays, nil
}
