package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/dates"
	"absence-timeline-bot/internal/palette"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
)

type fakeViews struct {
	records    []absence.Record
	lastFilter absence.ViewFilter
}

func (f *fakeViews) ComputeView(_ context.Context, filter absence.ViewFilter) (absence.View, *palette.Palette) {
	f.lastFilter = filter
	view := absence.ComputeView(f.records, filter, absence.ViewOptions{Language: language.English})
	return view, palette.Build(absence.Labels(absence.DefaultCategories))
}

func (f *fakeViews) LoadRecords(context.Context) []absence.Record {
	return f.records
}

func (f *fakeViews) FetchCategoryOptions(context.Context) ([]absence.Option, error) {
	return absence.DefaultCategories, nil
}

func (f *fakeViews) FetchTeamOptions(context.Context) ([]absence.Option, error) {
	return absence.DefaultTeams, nil
}

func (f *fakeViews) Palette(context.Context) *palette.Palette {
	return palette.Build(absence.Labels(absence.DefaultCategories))
}

func newTestServer(t *testing.T) (*Server, *fakeViews) {
	t.Helper()

	alice := absence.Person{ID: "1", DisplayName: "Alice", Team: "Team A"}
	bob := absence.Person{ID: "2", DisplayName: "Bob", Team: "Team B"}
	views := &fakeViews{records: []absence.Record{
		{ID: "a1", Person: alice, Category: "Annual Leave", Status: absence.StatusApproved,
			StartDate: dates.Date(2024, time.January, 5), EndDate: dates.Date(2024, time.January, 10), TotalDays: 6},
		{ID: "b1", Person: bob, Category: "Annual Leave", Status: absence.StatusApproved,
			StartDate: dates.Date(2024, time.January, 8), EndDate: dates.Date(2024, time.January, 12), TotalDays: 5},
		{ID: "b2", Person: bob, Category: "Other", Status: absence.StatusPending,
			StartDate: dates.Date(2024, time.March, 1), EndDate: dates.Date(2024, time.March, 1), TotalDays: 1},
	}}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	server := NewServer(DefaultServerConfig(), views, logger)
	server.handlers.now = func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }
	return server, views
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NoError(t, json.Unmarshal(resp.Data, data))
}

func TestTimeline(t *testing.T) {
	server, views := newTestServer(t)

	w := get(t, server, "/api/timeline?month=1")
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, views.lastFilter.Month)
	assert.Equal(t, 0, *views.lastFilter.Month)
	assert.Equal(t, 2024, views.lastFilter.Year, "year defaults to the current one")

	var data TimelineResponse
	decode(t, w, &data)

	require.Len(t, data.Groups, 2)
	assert.Equal(t, "Alice", data.Groups[0].Person.DisplayName)
	assert.Equal(t, palette.Green.Primary, data.Groups[0].Records[0].Color.Primary)
	assert.Equal(t, "solid", data.Groups[0].Records[0].Style.Pattern)
	assert.Len(t, data.Conflicts, 1)
	assert.Len(t, data.Legend, len(absence.DefaultCategories))
}

func TestTimelineFilters(t *testing.T) {
	server, views := newTestServer(t)

	w := get(t, server, "/api/timeline?year=2024&team=team%20b&status=pendente&search=bo")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(absence.StatusPending), views.lastFilter.StatusFilter)

	var data TimelineResponse
	decode(t, w, &data)
	require.Len(t, data.Groups, 1)
	require.Len(t, data.Groups[0].Records, 1)
	assert.Equal(t, "b2", data.Groups[0].Records[0].ID)
	assert.Empty(t, data.Conflicts)
}

func TestInvalidQuery(t *testing.T) {
	server, _ := newTestServer(t)

	for _, url := range []string{
		"/api/timeline?month=13",
		"/api/timeline?month=-1",
		"/api/timeline?year=abc",
		"/api/conflicts?status=done",
		"/api/export.xlsx?month=99",
	} {
		w := get(t, server, url)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
	}
}

func TestMonths(t *testing.T) {
	server, _ := newTestServer(t)

	// Статистика не зависит от выбранного месяца и статуса
	w := get(t, server, "/api/months?year=2024&month=1&status=approved")
	require.Equal(t, http.StatusOK, w.Code)

	var months []MonthResponse
	decode(t, w, &months)
	require.Len(t, months, 12)
	assert.Equal(t, MonthResponse{Month: 1, Name: "Январь", Total: 2, Approved: 2}, months[0])
	assert.Equal(t, MonthResponse{Month: 3, Name: "Март", Total: 1, Pending: 1}, months[2])
}

func TestConflicts(t *testing.T) {
	server, _ := newTestServer(t)

	w := get(t, server, "/api/conflicts?year=2023")
	require.Equal(t, http.StatusOK, w.Code)
	var conflicts []absence.ConflictEntry
	decode(t, w, &conflicts)
	assert.Empty(t, conflicts)
}

func TestDictionaries(t *testing.T) {
	server, _ := newTestServer(t)

	var categories []absence.Option
	decode(t, get(t, server, "/api/categories"), &categories)
	assert.Equal(t, absence.DefaultCategories, categories)

	var teams []absence.Option
	decode(t, get(t, server, "/api/teams"), &teams)
	assert.Len(t, teams, 4)

	var legend []palette.Entry
	decode(t, get(t, server, "/api/legend"), &legend)
	assert.Equal(t, "Annual Leave", legend[0].Label)
}

func TestCalendar(t *testing.T) {
	server, _ := newTestServer(t)

	w := get(t, server, "/api/calendar.ics?team=Team%20A")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")

	body := w.Body.String()
	assert.Equal(t, 1, bytes.Count([]byte(body), []byte("BEGIN:VEVENT")))
	assert.Contains(t, body, "Alice: Annual Leave")
}

func TestExportXLSX(t *testing.T) {
	server, _ := newTestServer(t)

	w := get(t, server, "/api/export.xlsx?year=2024")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "absences-2024.xlsx")

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Timeline")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestHealthCheck(t *testing.T) {
	server, _ := newTestServer(t)
	w := get(t, server, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}
