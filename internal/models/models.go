package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrUnknownMode   = errors.New("unknown mode")
)

// Metric names one of the three comparable height measures.
type Metric string

const (
	Meters Metric = "meters"
	Feet   Metric = "feet"
	Floors Metric = "floors"
)

// Metrics lists every supported metric in display order.
var Metrics = []Metric{Meters, Feet, Floors}

// ParseMetric resolves a metric name case-insensitively.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
	return m, nil
}

func (m Metric) Valid() bool {
	switch m {
	case Meters, Feet, Floors:
		return true
	}
	return false
}

// Mode is the grouping applied to a height view: one bar per structure or per city.
type Mode string

const (
	ByName Mode = "name"
	ByCity Mode = "city"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ByName, ByCity:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

type Structure struct {
	Name       string  `json:"name"`
	City       string  `json:"city"`
	Country    string  `json:"country"`
	Meters     int     `json:"meters"`
	Feet       int     `json:"feet"`
	Floors     int     `json:"floors"`
	Completion *int    `json:"completion,omitempty"` // nil when the source has no year
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// MetricValue returns the structure's value for m.
func (s Structure) MetricValue(m Metric) (int, bool) {
	switch m {
	case Meters:
		return s.Meters, true
	case Feet:
		return s.Feet, true
	case Floors:
		return s.Floors, true
	}
	return 0, false
}

// CityAggregate is the rounded mean of one metric over a city's structures.
type CityAggregate struct {
	City   string `json:"city"`
	Metric Metric `json:"metric"`
	Value  int    `json:"value"`
	Count  int    `json:"count"`
}

// MetricValue only answers for the metric the aggregate was computed over.
func (a CityAggregate) MetricValue(m Metric) (int, bool) {
	if m != a.Metric {
		return 0, false
	}
	return a.Value, true
}

type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// CityShare is a city's slice of a selected set of counts.
type CityShare struct {
	City    string  `json:"city"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"` // of the selected total, one decimal place
}

type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// KeyField names the identity a selection matches against.
type KeyField string

const (
	KeyName KeyField = "name"
	KeyCity KeyField = "city"
)

func (s Structure) Key(f KeyField) (string, bool) {
	switch f {
	case KeyName:
		return s.Name, true
	case KeyCity:
		return s.City, true
	}
	return "", false
}

func (a CityAggregate) Key(f KeyField) (string, bool) {
	if f != KeyCity {
		return "", false
	}
	return a.City, true
}

func (c CityCount) Key(f KeyField) (string, bool) {
	if f != KeyCity {
		return "", false
	}
	return c.City, true
}

// Round rounds half to even, the rule every normalized and derived integer follows.
func Round(v float64) int {
	return int(math.RoundToEven(v))
}
