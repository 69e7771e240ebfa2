package domain

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrSlotTaken        = errors.New("slot already booked")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrStoreUnavailable = errors.New("store is not configured")
)
