package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveBooking("booked")
	m.ObserveBooking("conflict")
	m.ObserveTransition("accept", "ok")
	m.ObserveSlotQueryLatency(0.05)
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBooking("booked")
	m.ObserveTransition("decline", "error")
	m.ObserveSlotQueryLatency(0.1)
}
