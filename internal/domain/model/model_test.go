package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// TestRecordID_PreservesEncoding проверяет, что id возвращается серверу в исходном виде.
func TestRecordID_PreservesEncoding(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
		text   string
	}{
		{name: "число", input: `7`, output: `7`, text: "7"},
		{name: "строка", input: `"a1b2"`, output: `"a1b2"`, text: "a1b2"},
		{name: "строка из цифр остаётся строкой", input: `"007"`, output: `"007"`, text: "007"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id RecordID
			if err := json.Unmarshal([]byte(tt.input), &id); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if id.String() != tt.text {
				t.Errorf("String() = %q, ожидается %q", id.String(), tt.text)
			}
			out, err := json.Marshal(id)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(out) != tt.output {
				t.Errorf("Marshal = %s, ожидается %s", out, tt.output)
			}
		})
	}
}

func TestRecordID_Invalid(t *testing.T) {
	var id RecordID
	if err := json.Unmarshal([]byte(`{"x":1}`), &id); err == nil {
		t.Error("ожидалась ошибка для объекта вместо id")
	}
}

func TestRecord_Unmarshal(t *testing.T) {
	data := `{
		"id": 12,
		"name": "Ada",
		"email": "ada@example.com",
		"category": "Website",
		"rating": 5,
		"feedback": "Great",
		"uploadImages": ["https://img.example.com/1.png"],
		"createdAt": "2024-03-01T10:00:00Z"
	}`

	var r Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if r.ID != NumericRecordID(12) {
		t.Errorf("ID = %v", r.ID)
	}
	if len(r.Images) != 1 || r.Images[0] != "https://img.example.com/1.png" {
		t.Errorf("Images = %v, ожидается значение из uploadImages", r.Images)
	}
	if r.Status != "" {
		t.Errorf("Status = %q, отсутствующий статус не должен подставляться", r.Status)
	}
	if r.DisplayStatus() != StatusPending {
		t.Errorf("DisplayStatus() = %q, ожидается pending", r.DisplayStatus())
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !r.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, ожидается %v", r.CreatedAt, want)
	}
}

func TestRecord_UnmarshalLenientFields(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantRating int
		wantTime   time.Time
	}{
		{name: "рейтинг строкой", input: `{"id":1,"rating":"4"}`, wantRating: 4},
		{name: "рейтинг дробью", input: `{"id":1,"rating":4.0}`, wantRating: 4},
		{name: "рейтинг мусором", input: `{"id":1,"rating":"five"}`, wantRating: 0},
		{name: "рейтинг объектом", input: `{"id":1,"rating":{"v":3}}`, wantRating: 0},
		{name: "дата без времени", input: `{"id":1,"rating":2,"createdAt":"2024-03-01"}`,
			wantRating: 2, wantTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "нераспознанная дата", input: `{"id":1,"rating":3,"createdAt":"вчера"}`, wantRating: 3},
		{name: "дата массивом", input: `{"id":1,"createdAt":[2024,3,1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			if err := json.Unmarshal([]byte(tt.input), &r); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if r.ID != NumericRecordID(1) {
				t.Errorf("ID = %v", r.ID)
			}
			if r.Rating != tt.wantRating {
				t.Errorf("Rating = %d, ожидается %d", r.Rating, tt.wantRating)
			}
			if !r.CreatedAt.Equal(tt.wantTime) {
				t.Errorf("CreatedAt = %v, ожидается %v", r.CreatedAt.Time, tt.wantTime)
			}
		})
	}
}

func TestRecord_ImagesTakePrecedence(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"id":"x","images":["a"],"uploadImages":["b"]}`), &r)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(r.Images) != 1 || r.Images[0] != "a" {
		t.Errorf("Images = %v, ожидается [a]", r.Images)
	}
}

func TestTimestamp_Formats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "epoch ms", input: `1700000000000`, want: time.UnixMilli(1700000000000).UTC()},
		{name: "null", input: `null`, want: time.Time{}},
		{name: "пустая строка", input: `""`, want: time.Time{}},
		{name: "RFC 3339", input: `"2024-03-01T10:00:00Z"`, want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "только дата", input: `"2024-03-01"`, want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "дата и время через пробел", input: `"2024-03-01 10:00:00"`, want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "epoch ms дробью", input: `1709287200000.0`, want: time.UnixMilli(1709287200000).UTC()},
		{name: "epoch ms строкой", input: `"1709287200000"`, want: time.UnixMilli(1709287200000).UTC()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.input), &ts); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !ts.Equal(tt.want) {
				t.Errorf("получено %v, ожидается %v", ts.Time, tt.want)
			}
		})
	}
}

func TestDraft_Validate(t *testing.T) {
	valid := Draft{
		Name:     "Jo",
		Email:    "jo@x.com",
		Category: CategoryShipping,
		Rating:   4,
		Feedback: "Fast delivery",
	}

	tests := []struct {
		name   string
		mutate func(d *Draft)
		want   error
	}{
		{name: "валидный", mutate: func(*Draft) {}, want: nil},
		{name: "без имени", mutate: func(d *Draft) { d.Name = "" }, want: ErrMissingFields},
		{name: "имя из пробелов", mutate: func(d *Draft) { d.Name = "   " }, want: ErrMissingFields},
		{name: "без email", mutate: func(d *Draft) { d.Email = "" }, want: ErrMissingFields},
		{name: "без категории", mutate: func(d *Draft) { d.Category = "" }, want: ErrMissingFields},
		{name: "без оценки", mutate: func(d *Draft) { d.Rating = 0 }, want: ErrMissingFields},
		{name: "без текста", mutate: func(d *Draft) { d.Feedback = "" }, want: ErrMissingFields},
		{name: "оценка больше 5", mutate: func(d *Draft) { d.Rating = 6 }, want: ErrInvalidField},
		{name: "отрицательная оценка", mutate: func(d *Draft) { d.Rating = -1 }, want: ErrInvalidField},
		{name: "неизвестная категория", mutate: func(d *Draft) { d.Category = "Pricing" }, want: ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid.Clone()
			tt.mutate(&d)
			if err := d.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, ожидается %v", err, tt.want)
			}
		})
	}
}

func TestDraftFromRecord(t *testing.T) {
	r := &Record{
		ID:       NewRecordID("abc"),
		Name:     "Ada",
		Email:    "ada@example.com",
		Category: CategoryGeneral,
		Rating:   3,
		Feedback: "ok",
		Images:   []string{"https://img/1.png"},
		Status:   StatusApproved,
	}

	d := DraftFromRecord(r)
	if !d.Editing() || d.EditingID != r.ID {
		t.Fatalf("EditingID = %v, ожидается %v", d.EditingID, r.ID)
	}
	if d.Name != r.Name || d.Email != r.Email || d.Category != r.Category ||
		d.Rating != r.Rating || d.Feedback != r.Feedback {
		t.Errorf("черновик %+v не совпадает с записью %+v", d, r)
	}

	// Черновик не должен разделять срез изображений с кэшем
	d.Images[0] = "changed"
	if r.Images[0] != "https://img/1.png" {
		t.Error("изменение черновика затронуло запись")
	}
}

func TestDraft_SubmissionTrimsIdentity(t *testing.T) {
	d := Draft{Name: "  Jo ", Email: "\tjo@x.com ", Category: CategoryShipping, Rating: 4, Feedback: " Fast delivery\n"}
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	s := d.Submission()
	if s.Name != "Jo" || s.Email != "jo@x.com" {
		t.Errorf("Name/Email = %q/%q, ожидаются значения без пробелов по краям", s.Name, s.Email)
	}
	if s.Feedback != " Fast delivery\n" {
		t.Errorf("Feedback = %q, текст отзыва передаётся как есть", s.Feedback)
	}
	if d.Name != "  Jo " {
		t.Errorf("черновик не должен изменяться: %q", d.Name)
	}
}

func TestDraft_SubmissionEmptyImages(t *testing.T) {
	d := Draft{Name: "Jo"}
	s := d.Submission()
	if s.Images == nil {
		t.Error("Images должен быть пустым срезом, а не nil")
	}
}
