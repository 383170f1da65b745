package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/base-14/examples/go/parking-fees/internal/parking"
)

// LotCollector exposes the live occupancy of whichever lot the handler is
// currently serving. Values are read at scrape time.
type LotCollector struct {
	lot func() *parking.InstrumentedParkingLot

	capacity  *prometheus.Desc
	available *prometheus.Desc
	active    *prometheus.Desc
}

func NewLotCollector(lot func() *parking.InstrumentedParkingLot) *LotCollector {
	return &LotCollector{
		lot: lot,
		capacity: prometheus.NewDesc("parking_lot_capacity",
			"Total number of parking spaces.", nil, nil),
		available: prometheus.NewDesc("parking_lot_available_spaces",
			"Number of free parking spaces.", nil, nil),
		active: prometheus.NewDesc("parking_lot_active_tickets",
			"Number of open tickets.", nil, nil),
	}
}

func (c *LotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.available
	ch <- c.active
}

func (c *LotCollector) Collect(ch chan<- prometheus.Metric) {
	lot := c.lot()
	if lot == nil {
		return
	}

	capacity := lot.Capacity()
	available := lot.AvailableSpaces()

	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(capacity))
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(available))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(capacity-available))
}
