// Package analysis derives per-city, per-year and range-bounded views from a loaded dataset.
// Every function returns a freshly allocated result and never modifies its input.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/lox/skyline/internal/models"
)

var (
	ErrEmptyDataset      = errors.New("empty dataset")
	ErrSelectionRequired = errors.New("select at least one entry")
)

// AverageByCity groups structures by city and averages metric within each group.
// The result has one aggregate per city, ordered by city name.
func AverageByCity(records []models.Structure, metric models.Metric) ([]models.CityAggregate, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("average by city: %w: %q", models.ErrUnknownMetric, metric)
	}

	type acc struct {
		sum   int
		count int
	}
	groups := make(map[string]*acc)
	for _, r := range records {
		v, _ := r.MetricValue(metric)
		g := groups[r.City]
		if g == nil {
			g = &acc{}
			groups[r.City] = g
		}
		g.sum += v
		g.count++
	}

	result := make([]models.CityAggregate, 0, len(groups))
	for city, g := range groups {
		result = append(result, models.CityAggregate{
			City:   city,
			Metric: metric,
			Value:  models.Round(float64(g.sum) / float64(g.count)),
			Count:  g.count,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].City < result[j].City
	})
	return result, nil
}

// CountByCity counts structures per city. Cities without structures are absent.
func CountByCity(records []models.Structure) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.City]++
	}
	return counts
}

// RankCitiesByCount orders city counts from most to fewest structures, ties by name.
func RankCitiesByCount(records []models.Structure) []models.CityCount {
	counts := CountByCity(records)
	ranked := make([]models.CityCount, 0, len(counts))
	for city, n := range counts {
		ranked = append(ranked, models.CityCount{City: city, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].City < ranked[j].City
	})
	return ranked
}

// CountByCompletionYear counts structures per completion year, oldest first.
// Structures without a completion year are not counted.
func CountByCompletionYear(records []models.Structure) []models.YearCount {
	counts := make(map[int]int)
	for _, r := range records {
		if r.Completion != nil {
			counts[*r.Completion]++
		}
	}

	years := make([]models.YearCount, 0, len(counts))
	for year, n := range counts {
		years = append(years, models.YearCount{Year: year, Count: n})
	}
	sort.Slice(years, func(i, j int) bool {
		return years[i].Year < years[j].Year
	})
	return years
}

// CityShares returns each selected city's count and its percentage of the
// selected total, rounded to one decimal. Output follows the order of counts.
func CityShares(counts []models.CityCount, keys []string) ([]models.CityShare, error) {
	if len(keys) == 0 {
		return nil, ErrSelectionRequired
	}
	want := keySet(keys)

	var total int
	var picked []models.CityCount
	for _, c := range counts {
		if want[c.City] {
			picked = append(picked, c)
			total += c.Count
		}
	}

	shares := make([]models.CityShare, 0, len(picked))
	for _, c := range picked {
		share := models.CityShare{City: c.City, Count: c.Count}
		if total > 0 {
			share.Percent = math.RoundToEven(float64(c.Count)/float64(total)*1000) / 10
		}
		shares = append(shares, share)
	}
	return shares, nil
}
