package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// Booking is one reserved hour on the court. A multi-hour reservation is
// stored as several rows sharing SeriesID.
type Booking struct {
	ID                     string        `json:"id"`
	SeriesID               string        `json:"serie_id,omitempty"`
	ClientName             string        `json:"nombre_cliente"`
	ClientEmail            string        `json:"email_cliente"`
	ClientPhone            string        `json:"celular_cliente"`
	Date                   civil.Date    `json:"fecha"`
	Hour                   string        `json:"hora"`
	PlayStatus             PlayStatus    `json:"estado"`
	PaymentRegistered      bool          `json:"pago_registrado"`
	PaymentMethod          PaymentMethod `json:"metodo_pago,omitempty"`
	PaymentReference       string        `json:"referencia_nequi,omitempty"`
	SpecialTariffRequested bool          `json:"es_familia_gemellista"`
	SpecialTariffName      string        `json:"nombre_gemellista,omitempty"`
	SpecialTariffIDNumber  string        `json:"cedula_gemellista,omitempty"`
	SpecialTariffStatus    TariffStatus  `json:"estado_gemellista"`
	TariffEligible         bool          `json:"tarifa_especial"`
	CreatedBy              string        `json:"creado_por,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

// BookingFilter narrows ListBookings. Zero values mean "any".
type BookingFilter struct {
	Date       *civil.Date
	From       *civil.Date
	To         *civil.Date
	PlayStatus PlayStatus
	Paid       *bool
}

// ScheduleOverride replaces the default opening window for a date range.
type ScheduleOverride struct {
	ID        string     `json:"id"`
	DateStart civil.Date `json:"fecha_inicio"`
	DateEnd   civil.Date `json:"fecha_fin"`
	HourOpen  int        `json:"hora_apertura"`
	HourClose int        `json:"hora_cierre"`
	CreatedAt time.Time  `json:"created_at"`
}

// Contains reports whether date falls inside the override range.
func (o *ScheduleOverride) Contains(date civil.Date) bool {
	return !date.Before(o.DateStart) && !date.After(o.DateEnd)
}
