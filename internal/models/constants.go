package models

import "fmt"

// PlayStatus tracks whether the match for a slot took place.
type PlayStatus string

const (
	PlayStatusPending  PlayStatus = "Pendiente"
	PlayStatusApproved PlayStatus = "Aprobado"
	PlayStatusPlayed   PlayStatus = "Jugado"
)

// PlayStatuses lists every valid play status in display order.
var PlayStatuses = []PlayStatus{PlayStatusPending, PlayStatusApproved, PlayStatusPlayed}

func ParsePlayStatus(s string) (PlayStatus, error) {
	switch PlayStatus(s) {
	case PlayStatusPending, PlayStatusApproved, PlayStatusPlayed:
		return PlayStatus(s), nil
	default:
		return "", fmt.Errorf("unknown play status %q", s)
	}
}

// PaymentMethod is how a booking was paid at the court.
type PaymentMethod string

const (
	PaymentNequi PaymentMethod = "Nequi"
	PaymentCash  PaymentMethod = "Efectivo"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentNequi, PaymentCash:
		return PaymentMethod(s), nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// TariffStatus is the verification state of a special tariff request.
type TariffStatus string

const (
	TariffNotApplicable TariffStatus = "No aplica"
	TariffPending       TariffStatus = "Pendiente"
	TariffApproved      TariffStatus = "Aprobado"
	TariffRejected      TariffStatus = "Rechazado"
)

func ParseTariffStatus(s string) (TariffStatus, error) {
	switch TariffStatus(s) {
	case TariffNotApplicable, TariffPending, TariffApproved, TariffRejected:
		return TariffStatus(s), nil
	default:
		return "", fmt.Errorf("unknown tariff status %q", s)
	}
}

// CanTransition reports whether staff may move a tariff from s to next.
// Repeating the current state is allowed and has no effect.
func (s TariffStatus) CanTransition(next TariffStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case TariffPending:
		return next == TariffApproved || next == TariffRejected || next == TariffNotApplicable
	case TariffApproved:
		return next == TariffRejected || next == TariffNotApplicable
	case TariffRejected:
		return next == TariffApproved || next == TariffNotApplicable
	case TariffNotApplicable:
		return next == TariffPending || next == TariffApproved
	default:
		return false
	}
}

// Eligible reports whether the discounted rate applies in this state.
func (s TariffStatus) Eligible() bool {
	switch s {
	case TariffApproved:
		return true
	case TariffNotApplicable, TariffPending, TariffRejected:
		return false
	default:
		return false
	}
}

// Role is the authorization level of a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "cancha"
	RolePublic   Role = "publico"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleOperator, RolePublic:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsStaff reports whether the role may manage bookings.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleOperator:
		return true
	case RolePublic:
		return false
	default:
		return false
	}
}

const (
	HourLayout = "15:04"
	DateLayout = "2006-01-02"
)
