// Package dataset loads the tall-structures table into an immutable, typed collection.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/lox/skyline/internal/models"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrMissingValue  = errors.New("missing value")
	ErrInvalidValue  = errors.New("invalid value")
	ErrEmptySource   = errors.New("empty source")
)

// Column names after header lower-casing.
const (
	ColName       = "name"
	ColCity       = "city"
	ColCountry    = "country"
	ColMeters     = "meters"
	ColFeet       = "feet"
	ColFloors     = "floors"
	ColCompletion = "completion"
	ColLatitude   = "latitude"
	ColLongitude  = "longitude"
)

var requiredColumns = []string{
	ColName, ColCity, ColCountry, ColMeters, ColFeet, ColFloors, ColCompletion, ColLatitude, ColLongitude,
}

// LoadError reports why a source could not be turned into a Dataset.
// Row is 1-based over data rows and zero when the failure is not row-specific.
type LoadError struct {
	Row    int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Row > 0:
		return fmt.Sprintf("load: row %d column %s: %v", e.Row, e.Column, e.Err)
	case e.Column != "":
		return fmt.Sprintf("load: column %s: %v", e.Column, e.Err)
	default:
		return fmt.Sprintf("load: %v", e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

// Dataset is the canonical collection. It is never mutated after construction,
// so one instance can be shared by any number of readers.
type Dataset struct {
	structures []models.Structure
}

// New wraps already-normalized structures. The slice is copied.
func New(structures []models.Structure) *Dataset {
	return &Dataset{structures: slices.Clone(structures)}
}

// Structures returns a copy of the collection in source order.
func (d *Dataset) Structures() []models.Structure {
	return slices.Clone(d.structures)
}

func (d *Dataset) Len() int {
	return len(d.structures)
}

// Names returns structure names in source order, duplicates included.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.structures))
	for i, s := range d.structures {
		names[i] = s.Name
	}
	return names
}

// Cities returns the distinct cities sorted ascending.
func (d *Dataset) Cities() []string {
	seen := make(map[string]bool)
	var cities []string
	for _, s := range d.structures {
		if !seen[s.City] {
			seen[s.City] = true
			cities = append(cities, s.City)
		}
	}
	sort.Strings(cities)
	return cities
}

// Load reads a CSV table with a header row.
func Load(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Err: ErrEmptySource}
	}
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("read header: %w", err)}
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Row: len(rows) + 1, Err: fmt.Errorf("read row: %w", err)}
		}
		rows = append(rows, row)
	}

	return Parse(header, rows)
}

// Parse normalizes rows of raw text cells. Headers are matched case-insensitively;
// columns other than the required ones are ignored.
func Parse(header []string, rows [][]string) (*Dataset, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &LoadError{Column: col, Err: ErrMissingColumn}
		}
	}

	structures := make([]models.Structure, 0, len(rows))
	for i, row := range rows {
		s, err := parseRow(index, row)
		if err != nil {
			err.Row = i + 1
			return nil, err
		}
		structures = append(structures, s)
	}
	return &Dataset{structures: structures}, nil
}

func parseRow(index map[string]int, row []string) (models.Structure, *LoadError) {
	cell := func(col string) string {
		if i := index[col]; i < len(row) {
			return row[i]
		}
		return ""
	}

	s := models.Structure{
		Name:       cell(ColName),
		City:       cell(ColCity),
		Country:    cell(ColCountry),
		Floors:     ParseFloors(cell(ColFloors)),
		Completion: ParseCompletion(cell(ColCompletion)),
	}

	var err error
	if s.Meters, err = ParseHeight(cell(ColMeters), metersSuffix); err != nil {
		return s, &LoadError{Column: ColMeters, Err: err}
	}
	if s.Feet, err = ParseHeight(cell(ColFeet), feetSuffix); err != nil {
		return s, &LoadError{Column: ColFeet, Err: err}
	}
	if s.Latitude, err = parseCoordinate(cell(ColLatitude)); err != nil {
		return s, &LoadError{Column: ColLatitude, Err: err}
	}
	if s.Longitude, err = parseCoordinate(cell(ColLongitude)); err != nil {
		return s, &LoadError{Column: ColLongitude, Err: err}
	}
	return s, nil
}
