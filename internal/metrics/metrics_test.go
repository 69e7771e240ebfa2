package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("/api/reservas/crear", "2xx")
		IncEvent("booking_created")
		IncLoginFailure()
	})

	before := testutil.ToFloat64(bookingConflicts)
	IncBookingConflict()
	assert.Equal(t, before+1, testutil.ToFloat64(bookingConflicts))

	beforeCreated := testutil.ToFloat64(bookingsCreated.WithLabelValues("public"))
	AddBookingsCreated("public", 3)
	assert.Equal(t, beforeCreated+3, testutil.ToFloat64(bookingsCreated.WithLabelValues("public")))

	beforeFallback := testutil.ToFloat64(availabilityFallbacks)
	IncAvailabilityFallback()
	assert.Equal(t, beforeFallback+1, testutil.ToFloat64(availabilityFallbacks))
}
