package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var zoneActiveUsersDesc = prometheus.NewDesc(
	"silentspaces_zone_active_users",
	"Number of users with an active session in the zone",
	[]string{"zone_id", "zone"},
	nil,
)

// OccupancyCollector reports each zone's active user count at scrape time.
type OccupancyCollector struct {
	zones   storage.ZoneStore
	timeout time.Duration
	logger  zerolog.Logger
}

// NewOccupancyCollector creates a collector reading from the given zone store
func NewOccupancyCollector(zones storage.ZoneStore, logger zerolog.Logger) *OccupancyCollector {
	return &OccupancyCollector{
		zones:   zones,
		timeout: 2 * time.Second,
		logger:  logger.With().Str("component", "occupancy-collector").Logger(),
	}
}

// Describe implements prometheus.Collector
func (c *OccupancyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- zoneActiveUsersDesc
}

// Collect implements prometheus.Collector
func (c *OccupancyCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	zones, err := c.zones.List(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to list zones for occupancy metrics")
		ch <- prometheus.NewInvalidMetric(zoneActiveUsersDesc, err)
		return
	}

	for _, zone := range zones {
		ch <- prometheus.MustNewConstMetric(
			zoneActiveUsersDesc,
			prometheus.GaugeValue,
			float64(zone.ActiveUsers),
			strconv.FormatInt(zone.ID, 10),
			zone.Name,
		)
	}
}
