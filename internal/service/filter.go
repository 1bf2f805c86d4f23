// filter.go — локальный поиск и фильтрация кэшированной коллекции.
// API не вызывается, исходный срез не изменяется.
package service

import (
	"strings"

	"github.com/bigkaa/pottd-feedback/internal/domain/model"
)

// FilterAll — значение фильтра, отключающее проверку.
const FilterAll = "all"

// Filters — параметры фильтрации дашборда.
type Filters struct {
	// Search — подстрока для поиска по имени или тексту (без учёта регистра)
	Search string
	// Category — категория или FilterAll
	Category string
	// Status — статус или FilterAll; отсутствующий статус считается pending
	Status string
}

// DefaultFilters возвращает фильтры, пропускающие всю коллекцию.
func DefaultFilters() Filters {
	return Filters{Category: FilterAll, Status: FilterAll}
}

// Normalize заменяет пустые селекторы на FilterAll.
func (f Filters) Normalize() Filters {
	if f.Category == "" {
		f.Category = FilterAll
	}
	if f.Status == "" {
		f.Status = FilterAll
	}
	return f
}

// IsDefault сообщает, что ни один фильтр не активен.
func (f Filters) IsDefault() bool {
	f = f.Normalize()
	return f.Search == "" && f.Category == FilterAll && f.Status == FilterAll
}

// FilterRecords возвращает записи, прошедшие все три фильтра, в исходном порядке.
func FilterRecords(records []model.Record, f Filters) []model.Record {
	f = f.Normalize()
	term := strings.ToLower(f.Search)

	result := make([]model.Record, 0, len(records))
	for i := range records {
		if matches(&records[i], term, f) {
			result = append(result, records[i])
		}
	}
	return result
}

func matches(r *model.Record, term string, f Filters) bool {
	if term != "" &&
		!strings.Contains(strings.ToLower(r.Name), term) &&
		!strings.Contains(strings.ToLower(r.Feedback), term) {
		return false
	}
	if f.Category != FilterAll && string(r.Category) != f.Category {
		return false
	}
	if f.Status != FilterAll && string(r.DisplayStatus()) != f.Status {
		return false
	}
	return true
}
