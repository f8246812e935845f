package analysis

import (
	"fmt"
	"sort"

	"github.com/lox/skyline/internal/models"
)

// Keyed is anything selectable by name or city.
type Keyed interface {
	Key(models.KeyField) (string, bool)
}

// Select returns the items whose field value is one of keys, sorted ascending by
// that value. Items sharing a key keep their input order. Keys missing from the
// data simply match nothing; an empty key set is ErrSelectionRequired.
func Select[T Keyed](items []T, keys []string, field models.KeyField) ([]T, error) {
	if len(keys) == 0 {
		return nil, ErrSelectionRequired
	}
	want := keySet(keys)

	type keyed struct {
		key  string
		item T
	}
	var picked []keyed
	for _, item := range items {
		k, ok := item.Key(field)
		if !ok {
			return nil, fmt.Errorf("select: %T has no %s field", item, field)
		}
		if want[k] {
			picked = append(picked, keyed{key: k, item: item})
		}
	}

	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].key < picked[j].key
	})

	result := make([]T, len(picked))
	for i, p := range picked {
		result[i] = p.item
	}
	return result, nil
}

// Locate returns the first structure with the given name.
func Locate(records []models.Structure, name string) (models.Structure, bool) {
	for _, r := range records {
		if r.Name == name {
			return r, true
		}
	}
	return models.Structure{}, false
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
