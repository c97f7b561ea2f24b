package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"curator/internal/catalog"
	"curator/internal/types"
)

// Magnitude-of-change thresholds for the significance filter. Entities
// holding at least a billion dollars move the market at smaller
// relative changes, so their daily threshold is tighter.
const (
	metricsLargeScaleUSD  = 1_000_000_000
	dailyThresholdLarge   = 0.05
	dailyThresholdDefault = 0.10
	weeklyThreshold       = 0.10
)

// metricsAdapter polls a numeric time series and synthesizes a raw
// item only when a change threshold is crossed. This is a significance
// filter, not a novelty filter: the same entity can legitimately
// re-fire on a later run.
type metricsAdapter struct {
	def        catalog.SourceDefinition
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

type metricEntity struct {
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Value         float64 `json:"tvl"`
	ValuePrevDay  float64 `json:"tvl_prev_day"`
	ValuePrevWeek float64 `json:"tvl_prev_week"`
}

func newMetricsAdapter(def catalog.SourceDefinition, deps Deps) *metricsAdapter {
	return &metricsAdapter{
		def:        def,
		httpClient: deps.client(),
		logger:     deps.logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (m *metricsAdapter) Name() string { return m.def.ID }

// Fetch ignores since: metric sources have no per-item novelty, only
// per-run significance.
func (m *metricsAdapter) Fetch(ctx context.Context, since *time.Time) ([]types.RawItem, error) {
	seriesURL := fmt.Sprintf("%s/overview/daily", m.def.BaseURL)
	var entities []metricEntity
	if err := getJSON(ctx, m.httpClient, seriesURL, nil, &entities); err != nil {
		if isSoftFailure(err) {
			m.logger.Warn("metrics source unavailable", "source", m.def.ID, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch metric series: %w", err)
	}

	var items []types.RawItem
	for _, entity := range entities {
		if item, ok := m.significantChange(entity); ok {
			items = append(items, item)
		}
	}

	m.logger.Debug("metrics polled", "source", m.def.ID, "entities", len(entities), "significant", len(items))
	return items, nil
}

func (m *metricsAdapter) significantChange(entity metricEntity) (types.RawItem, bool) {
	dayChange := relativeChange(entity.ValuePrevDay, entity.Value)
	weekChange := relativeChange(entity.ValuePrevWeek, entity.Value)

	dailyThreshold := dailyThresholdDefault
	if entity.Value >= metricsLargeScaleUSD {
		dailyThreshold = dailyThresholdLarge
	}

	var window string
	var change float64
	switch {
	case math.Abs(dayChange) >= dailyThreshold:
		window, change = "24h", dayChange
	case math.Abs(weekChange) >= weeklyThreshold:
		window, change = "7d", weekChange
	default:
		return types.RawItem{}, false
	}

	direction := "up"
	if change < 0 {
		direction = "down"
	}

	asOf := m.now()
	title := fmt.Sprintf("%s TVL %s %.1f%% over %s", entity.Name, direction, math.Abs(change)*100, window)
	text := fmt.Sprintf(
		"%s total value locked moved from $%.0f to $%.0f, a %.1f%% change over the last %s. Current TVL stands at $%.0f.",
		entity.Name, baseline(entity, window), entity.Value, math.Abs(change)*100, windowWords(window), entity.Value)

	// The as-of date is part of the identity key so a move observed on
	// one day dedupes within that day but may fire again later.
	canonical := fmt.Sprintf("%s/protocol/%s?window=%s&as_of=%s",
		m.def.BaseURL, entity.Slug, window, asOf.Format("2006-01-02"))

	metadata := map[string]any{
		"entity":      entity.Slug,
		"window":      window,
		"change_pct":  change * 100,
		"value_usd":   entity.Value,
		"source_name": entity.Name,
	}

	return newRawItem(m.def.ID, canonical, title, strPtr(text), timePtr(asOf), metadata), true
}

func relativeChange(previous, current float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous
}

func baseline(entity metricEntity, window string) float64 {
	if window == "24h" {
		return entity.ValuePrevDay
	}
	return entity.ValuePrevWeek
}

func windowWords(window string) string {
	if window == "24h" {
		return "24 hours"
	}
	return "seven days"
}
