package analysis

import (
	"fmt"

	"github.com/lox/skyline/internal/models"
)

// headroom is the fraction added above the maximum for a slider ceiling.
const headroom = 0.1

// Measured is anything with a value per metric: structures and city aggregates.
type Measured interface {
	MetricValue(models.Metric) (int, bool)
}

// Bound is the axis range for a metric over a set of items.
type Bound struct {
	Low     int `json:"low"`
	Max     int `json:"max"`
	Ceiling int `json:"ceiling"` // Max plus 10% headroom
}

// FilterByRange keeps the items whose metric value v satisfies low <= v <= high.
// Bounds are used as given; an empty result is not an error.
func FilterByRange[T Measured](items []T, metric models.Metric, low, high int) ([]T, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("filter by range: %w: %q", models.ErrUnknownMetric, metric)
	}

	result := make([]T, 0, len(items))
	for _, item := range items {
		v, ok := item.MetricValue(metric)
		if !ok {
			return nil, fmt.Errorf("filter by range: %w: %q not carried by %T", models.ErrUnknownMetric, metric, item)
		}
		if low <= v && v <= high {
			result = append(result, item)
		}
	}
	return result, nil
}

// DefaultBound derives the true maximum of metric and a ceiling with headroom.
func DefaultBound[T Measured](items []T, metric models.Metric) (Bound, error) {
	if !metric.Valid() {
		return Bound{}, fmt.Errorf("default bound: %w: %q", models.ErrUnknownMetric, metric)
	}
	if len(items) == 0 {
		return Bound{}, fmt.Errorf("default bound: %w", ErrEmptyDataset)
	}

	highest := 0
	for i, item := range items {
		v, ok := item.MetricValue(metric)
		if !ok {
			return Bound{}, fmt.Errorf("default bound: %w: %q not carried by %T", models.ErrUnknownMetric, metric, item)
		}
		if i == 0 || v > highest {
			highest = v
		}
	}

	return Bound{
		Low:     0,
		Max:     highest,
		Ceiling: highest + models.Round(float64(highest)*headroom),
	}, nil
}
