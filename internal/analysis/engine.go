package analysis

import (
	"errors"
	"fmt"

	"github.com/lox/skyline/internal/dataset"
	"github.com/lox/skyline/internal/metrics"
	"github.com/lox/skyline/internal/models"
)

// Bar is one labelled value in a height view.
type Bar struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// HeightView is a metric plotted per structure or per city, with the axis bound
// computed over every structure (name mode) or every city average (city mode).
type HeightView struct {
	Metric models.Metric `json:"metric"`
	Mode   models.Mode   `json:"mode"`
	Bars   []Bar         `json:"bars"`
	Bound  Bound         `json:"bound"`
}

// Engine answers view requests against one dataset. Each call recomputes from
// the dataset; nothing is cached between calls.
type Engine struct {
	ds *dataset.Dataset
}

func NewEngine(ds *dataset.Dataset) *Engine {
	return &Engine{ds: ds}
}

func (e *Engine) Dataset() *dataset.Dataset {
	return e.ds
}

// HeightBySelection plots the chosen structure names or cities.
func (e *Engine) HeightBySelection(metric models.Metric, mode models.Mode, keys []string) (*HeightView, error) {
	view, err := e.heightView("height_selection", metric, mode, func(records []models.Structure, aggs []models.CityAggregate) ([]Bar, error) {
		if mode == models.ByCity {
			sel, err := Select(aggs, keys, models.KeyCity)
			return aggregateBars(sel), err
		}
		sel, err := Select(records, keys, models.KeyName)
		return structureBars(sel, metric), err
	})
	if errors.Is(err, ErrSelectionRequired) {
		metrics.SelectionErrorsTotal.WithLabelValues("height_selection").Inc()
	}
	return view, err
}

// HeightByRange plots every structure or city average whose value lies in [low, high].
func (e *Engine) HeightByRange(metric models.Metric, mode models.Mode, low, high int) (*HeightView, error) {
	return e.heightView("height_range", metric, mode, func(records []models.Structure, aggs []models.CityAggregate) ([]Bar, error) {
		if mode == models.ByCity {
			sel, err := FilterByRange(aggs, metric, low, high)
			return aggregateBars(sel), err
		}
		sel, err := FilterByRange(records, metric, low, high)
		return structureBars(sel, metric), err
	})
}

// Bound returns the axis bound a height view in mode would use.
func (e *Engine) Bound(metric models.Metric, mode models.Mode) (Bound, error) {
	if mode != models.ByName && mode != models.ByCity {
		return Bound{}, fmt.Errorf("bound: %w: %q", models.ErrUnknownMode, mode)
	}
	records := e.ds.Structures()
	if mode == models.ByCity {
		aggs, err := AverageByCity(records, metric)
		if err != nil {
			return Bound{}, err
		}
		return DefaultBound(aggs, metric)
	}
	return DefaultBound(records, metric)
}

// heightView counts a request for view only once metric and mode are known good.
func (e *Engine) heightView(view string, metric models.Metric, mode models.Mode, bars func([]models.Structure, []models.CityAggregate) ([]Bar, error)) (*HeightView, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("%s: %w: %q", view, models.ErrUnknownMetric, metric)
	}
	if mode != models.ByName && mode != models.ByCity {
		return nil, fmt.Errorf("%s: %w: %q", view, models.ErrUnknownMode, mode)
	}
	metrics.ViewRequestsTotal.WithLabelValues(view, string(metric)).Inc()

	records := e.ds.Structures()
	var aggs []models.CityAggregate
	if mode == models.ByCity {
		var err error
		if aggs, err = AverageByCity(records, metric); err != nil {
			return nil, err
		}
	}

	b, err := bars(records, aggs)
	if err != nil {
		return nil, err
	}

	var bound Bound
	if mode == models.ByCity {
		bound, err = DefaultBound(aggs, metric)
	} else {
		bound, err = DefaultBound(records, metric)
	}
	if err != nil {
		return nil, err
	}

	return &HeightView{Metric: metric, Mode: mode, Bars: b, Bound: bound}, nil
}

func (e *Engine) AverageByCity(metric models.Metric) ([]models.CityAggregate, error) {
	if metric.Valid() {
		metrics.ViewRequestsTotal.WithLabelValues("city_average", string(metric)).Inc()
	}
	return AverageByCity(e.ds.Structures(), metric)
}

func (e *Engine) CityCounts() []models.CityCount {
	metrics.ViewRequestsTotal.WithLabelValues("city_count", "").Inc()
	return RankCitiesByCount(e.ds.Structures())
}

func (e *Engine) CityShares(keys []string) ([]models.CityShare, error) {
	metrics.ViewRequestsTotal.WithLabelValues("city_share", "").Inc()
	shares, err := CityShares(RankCitiesByCount(e.ds.Structures()), keys)
	if errors.Is(err, ErrSelectionRequired) {
		metrics.SelectionErrorsTotal.WithLabelValues("city_share").Inc()
	}
	return shares, err
}

func (e *Engine) Completions() []models.YearCount {
	metrics.ViewRequestsTotal.WithLabelValues("completions", "").Inc()
	return CountByCompletionYear(e.ds.Structures())
}

func (e *Engine) Locate(name string) (models.Structure, bool) {
	return Locate(e.ds.Structures(), name)
}

func structureBars(records []models.Structure, metric models.Metric) []Bar {
	bars := make([]Bar, len(records))
	for i, r := range records {
		v, _ := r.MetricValue(metric)
		bars[i] = Bar{Label: r.Name, Value: v}
	}
	return bars
}

func aggregateBars(aggs []models.CityAggregate) []Bar {
	bars := make([]Bar, len(aggs))
	for i, a := range aggs {
		bars[i] = Bar{Label: a.City, Value: a.Value}
	}
	return bars
}
