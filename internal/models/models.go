package models

import "cloud.google.com/go/civil"

// Availability is the free/occupied view of one day.
type Availability struct {
	Date          civil.Date       `json:"fecha"`
	FreeSlots     []string         `json:"horasDisponibles"`
	OccupiedSlots []string         `json:"horasOcupadas"`
	Open          int              `json:"horaApertura"`
	Close         int              `json:"horaCierre"`
	Source        string           `json:"origenHorario"`
	Prices        map[string]int64 `json:"precios,omitempty"`
	Fallback      bool             `json:"porDefecto,omitempty"`
	Notice        string           `json:"error,omitempty"`
}

type GeneralStats struct {
	Total   int `json:"total"`
	Played  int `json:"jugadas"`
	Pending int `json:"pendientes"`
	Paid    int `json:"pagadas"`
}

type CollectedStats struct {
	Period    string `json:"periodo"`
	Paid      int    `json:"reservasPagadas"`
	UnitPrice int64  `json:"precioUnitario"`
	Total     int64  `json:"totalRecaudado"`
	Estimated int64  `json:"totalEstimado"`
}

// PeriodStat groups bookings of one day (YYYY-MM-DD) or month (YYYY-MM).
type PeriodStat struct {
	Period  string `json:"periodo"`
	Total   int    `json:"total"`
	Played  int    `json:"jugadas"`
	Pending int    `json:"pendientes"`
}
