package analysis

import (
	"errors"
	"testing"

	"github.com/lox/skyline/internal/models"
)

func names(records []models.Structure) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestFilterByRange(t *testing.T) {
	tests := []struct {
		name      string
		low, high int
		want      []string
	}{
		{"middle only", 350, 450, []string{"C"}},
		{"inclusive low", 300, 300, []string{"A"}},
		{"inclusive high", 450, 500, []string{"B"}},
		{"everything", 0, 1000, []string{"A", "B", "C"}},
		{"nothing", 600, 900, []string{}},
		{"inverted bound", 500, 300, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterByRange(sampleRecords(), models.Meters, tt.low, tt.high)
			if err != nil {
				t.Fatalf("FilterByRange: %v", err)
			}
			gotNames := names(got)
			if len(gotNames) != len(tt.want) {
				t.Fatalf("FilterByRange(%d, %d) = %v, want %v", tt.low, tt.high, gotNames, tt.want)
			}
			for i := range tt.want {
				if gotNames[i] != tt.want[i] {
					t.Errorf("FilterByRange(%d, %d)[%d] = %q, want %q", tt.low, tt.high, i, gotNames[i], tt.want[i])
				}
			}
		})
	}
}

func TestFilterByRange_Idempotent(t *testing.T) {
	for _, m := range models.Metrics {
		once, err := FilterByRange(sampleRecords(), m, 80, 1000)
		if err != nil {
			t.Fatalf("FilterByRange: %v", err)
		}
		twice, err := FilterByRange(once, m, 80, 1000)
		if err != nil {
			t.Fatalf("FilterByRange: %v", err)
		}
		if len(once) != len(twice) {
			t.Fatalf("%s: refiltering changed %d -> %d records", m, len(once), len(twice))
		}
		for i := range once {
			if once[i].Name != twice[i].Name {
				t.Errorf("%s: refiltering changed record %d", m, i)
			}
		}
	}
}

func TestFilterByRange_ZeroToMaxKeepsAll(t *testing.T) {
	records := sampleRecords()
	for _, m := range models.Metrics {
		bound, err := DefaultBound(records, m)
		if err != nil {
			t.Fatalf("DefaultBound: %v", err)
		}
		got, err := FilterByRange(records, m, 0, bound.Max)
		if err != nil {
			t.Fatalf("FilterByRange: %v", err)
		}
		if len(got) != len(records) {
			t.Errorf("%s: [0, %d] kept %d of %d", m, bound.Max, len(got), len(records))
		}
	}
}

func TestFilterByRange_CityAggregates(t *testing.T) {
	aggs, err := AverageByCity([]models.Structure{
		{City: "X", Meters: 300}, {City: "X", Meters: 500}, {City: "Z", Meters: 700},
	}, models.Meters)
	if err != nil {
		t.Fatalf("AverageByCity: %v", err)
	}

	got, err := FilterByRange(aggs, models.Meters, 350, 450)
	if err != nil {
		t.Fatalf("FilterByRange: %v", err)
	}
	if len(got) != 1 || got[0].City != "X" {
		t.Errorf("FilterByRange = %+v, want only X", got)
	}
}

func TestFilterByRange_MetricNotCarried(t *testing.T) {
	aggs, _ := AverageByCity(sampleRecords(), models.Meters)

	_, err := FilterByRange(aggs, models.Feet, 0, 1000)
	if !errors.Is(err, models.ErrUnknownMetric) {
		t.Fatalf("error = %v, want ErrUnknownMetric", err)
	}
}

func TestFilterByRange_UnknownMetric(t *testing.T) {
	_, err := FilterByRange(sampleRecords(), models.Metric("yards"), 0, 1000)
	if !errors.Is(err, models.ErrUnknownMetric) {
		t.Fatalf("error = %v, want ErrUnknownMetric", err)
	}
}

func TestDefaultBound(t *testing.T) {
	tests := []struct {
		metric      models.Metric
		wantMax     int
		wantCeiling int
	}{
		{models.Meters, 500, 550},
		{models.Feet, 1640, 1804},
		{models.Floors, 101, 111}, // 10.1 rounds to 10
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			got, err := DefaultBound(sampleRecords(), tt.metric)
			if err != nil {
				t.Fatalf("DefaultBound: %v", err)
			}
			if got.Low != 0 || got.Max != tt.wantMax || got.Ceiling != tt.wantCeiling {
				t.Errorf("DefaultBound = %+v, want {0 %d %d}", got, tt.wantMax, tt.wantCeiling)
			}
		})
	}
}

func TestDefaultBound_HeadroomRounding(t *testing.T) {
	tests := []struct {
		max         int
		wantCeiling int
	}{
		{828, 911}, // 82.8 -> 83
		{25, 27},   // 2.5 -> 2
		{35, 39},   // 3.5 -> 4
		{0, 0},
	}

	for _, tt := range tests {
		got, err := DefaultBound([]models.Structure{{Meters: tt.max}}, models.Meters)
		if err != nil {
			t.Fatalf("DefaultBound: %v", err)
		}
		if got.Ceiling != tt.wantCeiling {
			t.Errorf("max %d: Ceiling = %d, want %d", tt.max, got.Ceiling, tt.wantCeiling)
		}
	}
}

func TestDefaultBound_Empty(t *testing.T) {
	_, err := DefaultBound([]models.Structure{}, models.Meters)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("error = %v, want ErrEmptyDataset", err)
	}
}
