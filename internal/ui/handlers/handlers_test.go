package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/pottd-feedback/internal/domain/model"
	"github.com/bigkaa/pottd-feedback/internal/service"
	"github.com/bigkaa/pottd-feedback/internal/ui/i18n"
	"github.com/bigkaa/pottd-feedback/internal/ui/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMain(m *testing.M) {
	logger := testLogger()
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeAPI — in-memory реализация service.FeedbackAPI.
type fakeAPI struct {
	mu        sync.Mutex
	records   []model.Record
	lists     int
	created   []model.Submission
	removed   []model.RecordID
	moderated []string
}

func (f *fakeAPI) List(context.Context) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]model.Record(nil), f.records...), nil
}

func (f *fakeAPI) Create(_ context.Context, s model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, s)
	return nil
}

func (f *fakeAPI) Update(context.Context, model.RecordID, model.Submission) error { return nil }

func (f *fakeAPI) Remove(_ context.Context, id model.RecordID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeAPI) Moderate(_ context.Context, id model.RecordID, action model.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moderated = append(f.moderated, id.String()+":"+string(action))
	return nil
}

func sampleRecords() []model.Record {
	return []model.Record{
		{ID: model.NumericRecordID(7), Name: "Ada", Email: "ada@x.com", Category: model.CategoryWebsite,
			Rating: 5, Feedback: "Lovely site", Status: model.StatusApproved},
		{ID: model.NewRecordID("b2"), Name: "Bob", Email: "bob@x.com", Category: model.CategoryShipping,
			Rating: 2, Feedback: "Slow delivery"},
	}
}

// newTestRouter повторяет UI-маршруты сервера с фиксированным контроллером.
func newTestRouter(ctl *service.Controller) http.Handler {
	logger := testLogger()
	form := NewFormHandler(1<<20, logger)
	dash := NewDashboardHandler(logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := i18n.WithLang(req.Context(), "en")
			ctx = session.WithController(ctx, ctl)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/", HandleIndex(logger))
	r.Get("/submit", form.HandleForm)
	r.Post("/submit", form.HandleSubmit)
	r.Get("/dashboard", dash.HandleDashboard)
	r.Post("/dashboard/refresh", dash.HandleRefresh)
	r.Post("/feedback/{id}/edit", dash.HandleEdit)
	r.Get("/feedback/{id}/delete", dash.HandleDeleteConfirm)
	r.Post("/feedback/{id}/delete", dash.HandleDelete)
	r.Post("/feedback/{id}/moderate", dash.HandleModerate)
	r.Post("/notification/dismiss", HandleDismiss(logger))
	r.Post("/set-language", HandleSetLanguage)
	return r
}

func newTestEnv(records ...model.Record) (*fakeAPI, *service.Controller, http.Handler) {
	api := &fakeAPI{records: records}
	ctl := service.NewController(api, nil, nil, testLogger())
	return api, ctl, newTestRouter(ctl)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func postForm(t *testing.T, h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func validForm() url.Values {
	return url.Values{
		"name":     {"Jo"},
		"email":    {"jo@x.com"},
		"category": {"Shipping"},
		"rating":   {"4"},
		"feedback": {"Fast delivery"},
	}
}

func TestIndex_RedirectsToActiveTab(t *testing.T) {
	_, ctl, h := newTestEnv()

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/submit", rec.Header().Get("Location"))

	ctl.SetTab(service.TabDashboard)
	rec = get(t, h, "/")
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestDashboard_LoadsOnce(t *testing.T) {
	api, _, h := newTestEnv(sampleRecords()...)

	rec := get(t, h, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada")
	assert.Contains(t, rec.Body.String(), "Bob")

	get(t, h, "/dashboard")
	assert.Equal(t, 1, api.lists, "повторное открытие не должно перезапрашивать коллекцию")

	rec = postForm(t, h, "/dashboard/refresh", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.Equal(t, 2, api.lists)
}

func TestDashboard_Filters(t *testing.T) {
	_, ctl, h := newTestEnv(sampleRecords()...)

	rec := get(t, h, "/dashboard?q=slow&category=all&status=all")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bob")
	assert.NotContains(t, rec.Body.String(), "Lovely site")

	// Без параметров фильтры сохраняются
	get(t, h, "/dashboard")
	assert.Equal(t, "slow", ctl.View().Filters.Search)

	rec = get(t, h, "/dashboard?q=nothing-matches")
	assert.Contains(t, rec.Body.String(), "Try adjusting your filters")
}

func TestDashboard_EmptyCollection(t *testing.T) {
	_, _, h := newTestEnv()
	rec := get(t, h, "/dashboard")
	assert.Contains(t, rec.Body.String(), "Be the first to share your experience!")
}

func TestSubmit_MissingFields(t *testing.T) {
	api, _, h := newTestEnv()

	form := validForm()
	form.Set("email", "")
	rec := postForm(t, h, "/submit", form)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/submit", rec.Header().Get("Location"))
	assert.Empty(t, api.created)

	page := get(t, h, "/submit").Body.String()
	assert.Contains(t, page, "Please fill in all required fields")
	assert.Contains(t, page, `value="Jo"`, "черновик должен сохраниться")
}

func TestSubmit_Create(t *testing.T) {
	api, _, h := newTestEnv()

	rec := postForm(t, h, "/submit", validForm())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	require.Len(t, api.created, 1)
	assert.Equal(t, "Jo", api.created[0].Name)
	assert.Equal(t, 4, api.created[0].Rating)
}

func TestSubmit_AttachWithImagesDisabled(t *testing.T) {
	_, ctl, h := newTestEnv()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Jo"))
	require.NoError(t, mw.WriteField("action", "attach"))
	fw, err := mw.CreateFormFile("images", "a.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/submit", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	v := ctl.View()
	require.NotNil(t, v.Notification)
	assert.Equal(t, "Image uploads are disabled", v.Notification.Text)
	assert.Equal(t, "Jo", v.Draft.Name)
}

func TestSubmit_BodyTooLarge(t *testing.T) {
	api := &fakeAPI{}
	ctl := service.NewController(api, nil, nil, testLogger())
	logger := testLogger()
	form := NewFormHandler(1, logger)
	form.maxBody = 16

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(validForm().Encode()+strings.Repeat("x", 64)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(session.WithController(req.Context(), ctl))
	rec := httptest.NewRecorder()
	form.HandleSubmit(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, api.created)
}

func TestEdit_OpensForm(t *testing.T) {
	_, _, h := newTestEnv(sampleRecords()...)
	get(t, h, "/dashboard")

	rec := postForm(t, h, "/feedback/7/edit", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/submit", rec.Header().Get("Location"))

	page := get(t, h, "/submit").Body.String()
	assert.Contains(t, page, "Edit Feedback")
	assert.Contains(t, page, `value="Ada"`)

	rec = postForm(t, h, "/feedback/unknown/edit", nil)
	assert.Equal(t, "/submit", rec.Header().Get("Location"), "вкладка не меняется для неизвестной записи")
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	api, _, h := newTestEnv(sampleRecords()...)
	get(t, h, "/dashboard")

	rec := get(t, h, "/feedback/b2/delete")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Are you sure you want to delete this feedback?")

	rec = postForm(t, h, "/feedback/b2/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/feedback/b2/delete", rec.Header().Get("Location"))
	assert.Empty(t, api.removed)

	rec = postForm(t, h, "/feedback/b2/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	require.Len(t, api.removed, 1)
	assert.Equal(t, "b2", api.removed[0].String())
}

func TestDeleteConfirm_UnknownRecord(t *testing.T) {
	_, _, h := newTestEnv()
	rec := get(t, h, "/feedback/missing/delete")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestModerate(t *testing.T) {
	api, ctl, h := newTestEnv(sampleRecords()...)
	get(t, h, "/dashboard")

	rec := postForm(t, h, "/feedback/7/moderate", url.Values{"action": {"reject"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.Equal(t, []string{"7:reject"}, api.moderated)

	v := ctl.View()
	require.NotNil(t, v.Notification)
	assert.Equal(t, "Feedback rejected successfully!", v.Notification.Text)

	postForm(t, h, "/feedback/7/moderate", url.Values{"action": {"archive"}})
	assert.Len(t, api.moderated, 1, "недопустимое действие не отправляется")
}

func TestDismiss(t *testing.T) {
	_, ctl, h := newTestEnv()
	postForm(t, h, "/submit", url.Values{})
	require.NotNil(t, ctl.View().Notification)

	rec := postForm(t, h, "/notification/dismiss", url.Values{"return_to": {"https://evil.example.com/"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/submit", rec.Header().Get("Location"))
	assert.Nil(t, ctl.View().Notification)
}

func TestSetLanguage(t *testing.T) {
	_, _, h := newTestEnv()

	rec := postForm(t, h, "/set-language", url.Values{"lang": {"ru"}, "return_to": {"/dashboard?q=x"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard?q=x", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, i18n.LangCookieName, cookies[0].Name)
	assert.Equal(t, "ru", cookies[0].Value)

	rec = postForm(t, h, "/set-language", url.Values{"lang": {"xx"}})
	assert.Equal(t, "en", rec.Result().Cookies()[0].Value)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestSafeReturnTo(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/dashboard", "/dashboard"},
		{"/dashboard?status=flagged", "/dashboard?status=flagged"},
		{"", "/fallback"},
		{"dashboard", "/fallback"},
		{"//evil.example.com", "/fallback"},
		{"/\\evil.example.com", "/fallback"},
		{"https://evil.example.com", "/fallback"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeReturnTo(tt.target, "/fallback"), tt.target)
	}
}

func TestRecordID_Unescapes(t *testing.T) {
	_, ctl, h := newTestEnv(model.Record{ID: model.NewRecordID("a b"), Name: "Spaced"})
	get(t, h, "/dashboard")

	rec := postForm(t, h, "/feedback/a%20b/edit", nil)
	assert.Equal(t, "/submit", rec.Header().Get("Location"))
	assert.True(t, ctl.View().Editing)
}

// TestRecordID_ReservedCharacters проверяет id с символами, значимыми в пути:
// ссылки дашборда экранируют id, а обработчики восстанавливают его без искажений.
func TestRecordID_ReservedCharacters(t *testing.T) {
	api, _, h := newTestEnv(
		model.Record{ID: model.NewRecordID("a/b"), Name: "Slash"},
		model.Record{ID: model.NewRecordID("q?1"), Name: "Query"},
		model.Record{ID: model.NewRecordID("c#2"), Name: "Hash"},
		model.Record{ID: model.NewRecordID("100%"), Name: "Percent"},
		model.Record{ID: model.NewRecordID("a%41"), Name: "Escaped"},
	)

	body := get(t, h, "/dashboard").Body.String()
	for _, path := range []string{
		"/feedback/a%2Fb/moderate",
		"/feedback/q%3F1/edit",
		"/feedback/c%232/delete",
		"/feedback/100%25/moderate",
		"/feedback/a%2541/moderate",
	} {
		assert.Contains(t, body, path)
	}
	assert.NotContains(t, body, "/feedback/a/b/")

	for _, target := range []string{
		"/feedback/a%2Fb/moderate",
		"/feedback/q%3F1/moderate",
		"/feedback/c%232/moderate",
		"/feedback/100%25/moderate",
		"/feedback/a%2541/moderate",
	} {
		rec := postForm(t, h, target, url.Values{"action": {"flag"}})
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"), target)
	}
	assert.Equal(t, []string{"a/b:flag", "q?1:flag", "c#2:flag", "100%:flag", "a%41:flag"}, api.moderated)

	rec := get(t, h, "/feedback/a%2Fb/delete")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/feedback/a%2Fb/delete"`)

	rec = postForm(t, h, "/feedback/a%2Fb/delete", nil)
	assert.Equal(t, "/feedback/a%2Fb/delete", rec.Header().Get("Location"))

	postForm(t, h, "/feedback/a%2Fb/delete", url.Values{"confirm": {"yes"}})
	require.Len(t, api.removed, 1)
	assert.Equal(t, "a/b", api.removed[0].String())
}
