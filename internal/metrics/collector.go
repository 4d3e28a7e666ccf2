// Package metrics exports the cached room state as Prometheus gauges.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slycke/go-warmup/pkg/warmup"
)

// Source is the read surface the collector scrapes. It must not block on
// network I/O.
type Source interface {
	Statuses() []warmup.Status
}

// Collector reads the room cache on every scrape.
type Collector struct {
	source Source
	now    func() time.Time

	mu            sync.Mutex
	current       *prometheus.GaugeVec
	target        *prometheus.GaugeVec
	air           *prometheus.GaugeVec
	mode          *prometheus.GaugeVec
	heatingActive *prometheus.GaugeVec
	valid         *prometheus.GaugeVec
	rooms         prometheus.Gauge
	lastRefresh   prometheus.Gauge
}

func NewCollector(source Source) *Collector {
	labels := []string{"room_id", "room_name"}
	return &Collector{
		source: source,
		now:    time.Now,
		current: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warmup_current_temperature_celsius",
			Help: "Floor temperature per room",
		}, labels),
		target: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warmup_target_temperature_celsius",
			Help: "Effective setpoint per room (override setpoint while an override runs)",
		}, labels),
		air: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warmup_air_temperature_celsius",
			Help: "Air temperature per room",
		}, labels),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warmup_mode",
			Help: "Canonical mode per room (0=off, 1=heat, 2=auto)",
		}, labels),
		heatingActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warmup_heating_active_bool",
			Help: "Heating active per room (1=on, 0=off)",
		}, labels),
		valid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warmup_room_valid_bool",
			Help: "Whether the room record carried a complete mode triple",
		}, labels),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "warmup_rooms",
			Help: "Number of rooms in the cache",
		}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "warmup_last_refresh_timestamp_seconds",
			Help: "Last successful room refresh (epoch seconds)",
		}),
	}
}

// ObserveRefresh records a successful refresh. It matches
// warmup.RefreshHook so it can be passed to warmup.WithRefreshHook.
func (c *Collector) ObserveRefresh(_ []warmup.Room) {
	c.lastRefresh.Set(float64(c.now().Unix()))
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.current.Describe(ch)
	c.target.Describe(ch)
	c.air.Describe(ch)
	c.mode.Describe(ch)
	c.heatingActive.Describe(ch)
	c.valid.Describe(ch)
	c.rooms.Describe(ch)
	c.lastRefresh.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current.Reset()
	c.target.Reset()
	c.air.Reset()
	c.mode.Reset()
	c.heatingActive.Reset()
	c.valid.Reset()

	statuses := c.source.Statuses()
	for _, st := range statuses {
		labels := prometheus.Labels{
			"room_id":   strconv.Itoa(st.RoomID),
			"room_name": st.RoomName,
		}
		c.mode.With(labels).Set(float64(st.Mode))
		c.heatingActive.With(labels).Set(boolToFloat(st.HeatingActive))
		c.valid.With(labels).Set(boolToFloat(st.Valid))
		// invalid records carry no temperatures
		if !st.Valid {
			continue
		}
		c.current.With(labels).Set(st.CurrentTemp)
		c.target.With(labels).Set(st.TargetTemp)
		c.air.With(labels).Set(st.AirTemp)
	}
	c.rooms.Set(float64(len(statuses)))

	c.collectAll(ch)
}

func (c *Collector) collectAll(ch chan<- prometheus.Metric) {
	c.current.Collect(ch)
	c.target.Collect(ch)
	c.air.Collect(ch)
	c.mode.Collect(ch)
	c.heatingActive.Collect(ch)
	c.valid.Collect(ch)
	c.rooms.Collect(ch)
	c.lastRefresh.Collect(ch)
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
