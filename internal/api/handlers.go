package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/export"
	"absence-timeline-bot/internal/palette"
	"absence-timeline-bot/internal/textnorm"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ViewService источник записей и вычисленных представлений
type ViewService interface {
	ComputeView(ctx context.Context, f absence.ViewFilter) (absence.View, *palette.Palette)
	LoadRecords(ctx context.Context) []absence.Record
	FetchCategoryOptions(ctx context.Context) ([]absence.Option, error)
	FetchTeamOptions(ctx context.Context) ([]absence.Option, error)
	Palette(ctx context.Context) *palette.Palette
}

type Handlers struct {
	views  ViewService
	logger *logrus.Logger
	now    func() time.Time
}

func NewHandlers(views ViewService, logger *logrus.Logger) *Handlers {
	return &Handlers{views: views, logger: logger, now: time.Now}
}

// Response стандартный JSON ответ
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ViewQuery параметры фильтра. Месяц в запросе 1..12, 0 или пусто значит весь год.
type ViewQuery struct {
	Year     int    `form:"year" binding:"omitempty,min=1900,max=9999"`
	Month    int    `form:"month" binding:"omitempty,min=0,max=12"`
	Team     string `form:"team"`
	Status   string `form:"status"`
	Category string `form:"category"`
	Search   string `form:"search"`
}

// TimelineRecord запись графика с оформлением
type TimelineRecord struct {
	absence.Record
	Color palette.Entry `json:"color"`
	Style palette.Style `json:"style"`
}

type TimelineGroup struct {
	Person  absence.Person   `json:"person"`
	Records []TimelineRecord `json:"records"`
}

type TimelineResponse struct {
	Filter    absence.ViewFilter      `json:"filter"`
	Groups    []TimelineGroup         `json:"groups"`
	Conflicts []absence.ConflictEntry `json:"conflicts"`
	Legend    []palette.Entry         `json:"legend"`
}

type MonthResponse struct {
	Month    int    `json:"month"`
	Name     string `json:"name"`
	Total    int    `json:"total"`
	Approved int    `json:"approved"`
	Pending  int    `json:"pending"`
	Rejected int    `json:"rejected"`
}

func (h *Handlers) fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Success: false, Error: msg})
}

// filter разбирает параметры запроса в фильтр движка
func (h *Handlers) filter(c *gin.Context) (absence.ViewFilter, bool) {
	var q ViewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.WithError(err).Debug("Invalid query parameters")
		h.fail(c, http.StatusBadRequest, "invalid query parameters")
		return absence.ViewFilter{}, false
	}

	f, err := q.ToFilter(h.now().Year())
	if err != nil {
		h.fail(c, http.StatusBadRequest, err.Error())
		return absence.ViewFilter{}, false
	}
	return f, true
}

// ToFilter переводит запрос в фильтр; год по умолчанию defaultYear
func (q ViewQuery) ToFilter(defaultYear int) (absence.ViewFilter, error) {
	f := absence.ViewFilter{
		Year:           q.Year,
		Team:           strings.TrimSpace(q.Team),
		CategoryFilter: strings.TrimSpace(q.Category),
		SearchText:     strings.TrimSpace(q.Search),
	}
	if f.Year == 0 {
		f.Year = defaultYear
	}
	if q.Month != 0 {
		f.Month = absence.Month(q.Month - 1)
	}

	status := strings.TrimSpace(q.Status)
	if status != "" && !strings.EqualFold(status, absence.All) {
		parsed, err := absence.ParseStatus(status)
		if err != nil {
			return absence.ViewFilter{}, err
		}
		f.StatusFilter = string(parsed)
	}
	return f, nil
}

func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"status": "healthy", "timestamp": h.now().UTC().Format(time.RFC3339)},
	})
}

// Timeline handles GET /api/timeline
func (h *Handlers) Timeline(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	view, pal := h.views.ComputeView(c.Request.Context(), f)

	groups := make([]TimelineGroup, 0, len(view.Groups))
	for _, g := range view.Groups {
		records := make([]TimelineRecord, 0, len(g.Records))
		for _, r := range g.Records {
			records = append(records, TimelineRecord{
				Record: r,
				Color:  pal.Resolve(r.Category),
				Style:  palette.StatusStyle(r.Status),
			})
		}
		groups = append(groups, TimelineGroup{Person: g.Person, Records: records})
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: TimelineResponse{
		Filter:    view.Filter,
		Groups:    groups,
		Conflicts: nonNil(view.Conflicts),
		Legend:    pal.Legend(),
	}})
}

// Conflicts handles GET /api/conflicts
func (h *Handlers) Conflicts(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	view, _ := h.views.ComputeView(c.Request.Context(), f)
	c.JSON(http.StatusOK, Response{Success: true, Data: nonNil(view.Conflicts)})
}

// Months handles GET /api/months
func (h *Handlers) Months(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	view, _ := h.views.ComputeView(c.Request.Context(), f)

	months := make([]MonthResponse, 0, len(view.Months))
	for _, b := range view.Months {
		months = append(months, MonthResponse{
			Month:    b.MonthIndex + 1,
			Name:     export.MonthNames[b.MonthIndex],
			Total:    b.Total,
			Approved: b.Approved,
			Pending:  b.Pending,
			Rejected: b.Rejected,
		})
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: months})
}

// Legend handles GET /api/legend
func (h *Handlers) Legend(c *gin.Context) {
	pal := h.views.Palette(c.Request.Context())
	c.JSON(http.StatusOK, Response{Success: true, Data: pal.Legend()})
}

// Categories handles GET /api/categories
func (h *Handlers) Categories(c *gin.Context) {
	options, err := h.views.FetchCategoryOptions(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load categories")
		h.fail(c, http.StatusInternalServerError, "failed to retrieve categories")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: options})
}

// Teams handles GET /api/teams
func (h *Handlers) Teams(c *gin.Context) {
	options, err := h.views.FetchTeamOptions(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load teams")
		h.fail(c, http.StatusInternalServerError, "failed to retrieve teams")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: options})
}

// Calendar handles GET /api/calendar.ics. Без параметра year отдаются
// одобренные отсутствия за все годы.
func (h *Handlers) Calendar(c *gin.Context) {
	var q ViewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid query parameters")
		return
	}

	records := h.views.LoadRecords(c.Request.Context())
	if q.Year != 0 {
		f, err := q.ToFilter(q.Year)
		if err != nil {
			h.fail(c, http.StatusBadRequest, err.Error())
			return
		}
		records = absence.Filter(records, f)
	} else if team := strings.TrimSpace(q.Team); team != "" && !strings.EqualFold(team, absence.All) {
		filtered := records[:0:0]
		for _, r := range records {
			if textnorm.EqualTrimFold(r.Person.Team, team) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	var buf bytes.Buffer
	if err := export.WriteICS(&buf, records, "Отсутствия", h.now()); err != nil {
		h.logger.WithError(err).Error("Failed to build calendar")
		h.fail(c, http.StatusInternalServerError, "failed to build calendar")
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// ExportXLSX handles GET /api/export.xlsx
func (h *Handlers) ExportXLSX(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	view, pal := h.views.ComputeView(c.Request.Context(), f)

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, view, pal); err != nil {
		h.logger.WithError(err).Error("Failed to build workbook")
		h.fail(c, http.StatusInternalServerError, "failed to build workbook")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="absences-%d.xlsx"`, f.Year))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
