// view.go — снимок состояния сессии для рендеринга страниц.
package service

import (
	"slices"

	"github.com/bigkaa/pottd-feedback/internal/domain/model"
)

// Причины пустого списка на дашборде.
const (
	EmptyNone       = ""
	EmptyCollection = "empty_collection"
	EmptyFiltered   = "empty_filtered"
)

// View — неизменяемый снимок состояния для шаблонов.
type View struct {
	Tab           Tab
	Draft         model.Draft
	Editing       bool
	Filters       Filters
	Records       []model.Record
	Total         int
	Loaded        bool
	Submitting    bool
	Fetching      bool
	ImagesEnabled bool
	Notification  *Notification
	// Empty — причина пустого списка (EmptyCollection или EmptyFiltered)
	Empty string
	// StatusCounts — количество записей по статусу (без учёта фильтров)
	StatusCounts map[model.Status]int
}

// View строит снимок состояния. Фильтрация пересчитывается при каждом вызове.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	filtered := FilterRecords(c.state.Records, c.state.Filters)

	v := View{
		Tab:           c.state.Tab,
		Draft:         c.state.Draft.Clone(),
		Editing:       c.state.Draft.Editing(),
		Filters:       c.state.Filters,
		Records:       filtered,
		Total:         len(c.state.Records),
		Loaded:        c.state.Loaded,
		Submitting:    c.state.Submitting,
		Fetching:      c.state.Fetching,
		ImagesEnabled: c.images != nil,
		StatusCounts:  make(map[model.Status]int, len(model.Statuses)),
	}

	for i := range c.state.Records {
		v.StatusCounts[c.state.Records[i].DisplayStatus()]++
	}

	if len(filtered) == 0 {
		if len(c.state.Records) == 0 {
			v.Empty = EmptyCollection
		} else {
			v.Empty = EmptyFiltered
		}
	}

	if n, ok := c.notifier.Current(); ok {
		n.Args = slices.Clone(n.Args)
		v.Notification = &n
	}
	return v
}

// ActiveTab возвращает текущую вкладку.
func (c *Controller) ActiveTab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Tab
}
