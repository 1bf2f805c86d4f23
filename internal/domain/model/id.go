// id.go — типы значений, чьё JSON-представление на сервере не зафиксировано:
// идентификатор записи (строка или число) и время создания (RFC 3339 или epoch ms).
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RecordID — непрозрачный идентификатор отзыва.
// Сервер может прислать его строкой или числом; при отправке обратно
// сохраняется исходное представление.
type RecordID struct {
	value   string
	numeric bool
}

// NewRecordID создаёт строковый идентификатор.
func NewRecordID(value string) RecordID {
	return RecordID{value: value}
}

// NumericRecordID создаёт числовой идентификатор.
func NumericRecordID(n int64) RecordID {
	return RecordID{value: strconv.FormatInt(n, 10), numeric: true}
}

// String возвращает текстовое представление (используется в URL).
func (id RecordID) String() string {
	return id.value
}

// IsZero сообщает, что идентификатор не задан.
func (id RecordID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON сохраняет исходное представление: число остаётся числом.
func (id RecordID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON принимает строку или число.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = RecordID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = RecordID{value: s}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: ожидалась строка или число: %w", err)
	}
	*id = RecordID{value: n.String(), numeric: true}
	return nil
}

// Timestamp — время создания отзыва.
// Нулевое значение означает, что сервер время не прислал.
type Timestamp struct {
	time.Time
}

// timestampLayouts — строковые форматы времени, встречающиеся в ответах API.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// UnmarshalJSON принимает строку (RFC 3339, без зоны или только дату),
// epoch milliseconds числом или строкой, а также null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		if ms, err := parseEpochMillis(s); err == nil {
			t.Time = ms
			return nil
		}
		return fmt.Errorf("createdAt: некорректное время %q", s)
	}

	ms, err := parseEpochMillis(string(data))
	if err != nil {
		return fmt.Errorf("createdAt: некорректное значение %s", data)
	}
	t.Time = ms
	return nil
}

// parseEpochMillis разбирает epoch milliseconds, в том числе дробные (1709287200000.0).
func parseEpochMillis(s string) (time.Time, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("не число: %q", s)
	}
	return time.UnixMilli(int64(f)).UTC(), nil
}

// MarshalJSON записывает время в RFC 3339 или null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
