package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bigkaa/pottd-feedback/internal/domain/model"
)

func filterFixture() []model.Record {
	return []model.Record{
		{ID: model.NewRecordID("1"), Name: "Ada", Feedback: "Great website", Category: model.CategoryWebsite, Status: model.StatusApproved},
		{ID: model.NewRecordID("2"), Name: "Bob", Feedback: "Slow SHIPPING", Category: model.CategoryShipping},
		{ID: model.NewRecordID("3"), Name: "Cy", Feedback: "meh", Category: model.CategoryShipping, Status: model.StatusPending},
		{ID: model.NewRecordID("4"), Name: "Dee", Feedback: "spam", Category: model.CategoryGeneral, Status: model.StatusFlagged},
	}
}

func ids(records []model.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID.String())
	}
	return out
}

func TestFilterRecords(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{name: "все фильтры выключены", filters: DefaultFilters(), want: []string{"1", "2", "3", "4"}},
		{name: "пустые селекторы равны all", filters: Filters{}, want: []string{"1", "2", "3", "4"}},
		{name: "поиск без учёта регистра по имени", filters: Filters{Search: "ada"}, want: []string{"1"}},
		{name: "поиск по тексту", filters: Filters{Search: "shipping"}, want: []string{"2"}},
		{name: "категория", filters: Filters{Category: "Shipping", Status: FilterAll}, want: []string{"2", "3"}},
		{name: "pending включает отсутствующий статус", filters: Filters{Status: "pending"}, want: []string{"2", "3"}},
		{name: "статус flagged", filters: Filters{Status: "flagged"}, want: []string{"4"}},
		{name: "фильтры объединяются по И", filters: Filters{Search: "slow", Category: "Shipping", Status: "pending"}, want: []string{"2"}},
		{name: "нет совпадений", filters: Filters{Search: "zzz"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterRecords(filterFixture(), tt.filters)))
		})
	}
}

func TestFilterRecords_IdempotentAndPure(t *testing.T) {
	records := filterFixture()
	f := Filters{Search: "s", Category: "Shipping", Status: "all"}

	once := FilterRecords(records, f)
	twice := FilterRecords(once, f)
	assert.Equal(t, once, twice)

	assert.Equal(t, filterFixture(), records, "исходный срез не изменяется")
	assert.Equal(t, model.Status(""), records[1].Status, "статус не подставляется")
}

func TestFilters_IsDefault(t *testing.T) {
	assert.True(t, Filters{}.IsDefault())
	assert.True(t, DefaultFilters().IsDefault())
	assert.False(t, Filters{Search: "x"}.IsDefault())
	assert.False(t, Filters{Status: "approved"}.IsDefault())
}
