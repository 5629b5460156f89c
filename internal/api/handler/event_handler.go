package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/sank902/Campus-connect/internal/dto"
	"github.com/sank902/Campus-connect/internal/service"
	"github.com/sank902/Campus-connect/pkg/response"
)

// EventHandler 活动模块 HTTP 处理器
type EventHandler struct {
	eventSvc    service.EventService
	exportSvc   service.ExportService
	calendarSvc service.CalendarService
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(eventSvc service.EventService, exportSvc service.ExportService, calendarSvc service.CalendarService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc, exportSvc: exportSvc, calendarSvc: calendarSvc}
}

// ListEvents 活动列表（按日期升序）
// GET /api/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.eventSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, events)
}

// GetEvent 活动详情
// GET /api/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleEventError(c, err)
		return
	}
	response.OK(c, event)
}

// CreateEvent 创建活动（管理员）
// POST /api/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 12002, "Invalid event data", err.Error())
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), &req, p)
	if err != nil {
		handleEventError(c, err)
		return
	}
	response.Created(c, event)
}

// RegisterEvent 报名活动，重复报名返回当前活动
// POST /api/events/:id/register
func (h *EventHandler) RegisterEvent(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Register(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		handleEventError(c, err)
		return
	}
	response.OK(c, event)
}

// ExportRegistrants 导出报名名单（管理员）
// GET /api/events/:id/registrants/export
func (h *EventHandler) ExportRegistrants(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportRegistrants(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		handleEventError(c, err)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Calendar 全部活动的 iCalendar 订阅
// GET /api/events/calendar.ics
func (h *EventHandler) Calendar(c *gin.Context) {
	body, err := h.calendarSvc.ExportCalendar(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	c.Header("Content-Disposition", `inline; filename="campus-events.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// ImportCalendar 上传 .ics 文件批量创建活动（管理员）
// POST /api/events/import
func (h *EventHandler) ImportCalendar(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 12004, "Please upload an .ics file in field 'file'")
		return
	}
	defer file.Close()

	result, err := h.calendarSvc.ImportCalendar(c.Request.Context(), file, p)
	if err != nil {
		handleEventError(c, err)
		return
	}
	response.Created(c, result)
}

func handleEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 12001, "Event not found")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 12002, "Invalid event date")
	case errors.Is(err, service.ErrEventForbidden):
		response.Forbidden(c, 12003, "Access denied. Admins only.")
	case errors.Is(err, service.ErrCalendarTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Calendar file exceeds 2MB")
	case errors.Is(err, service.ErrInvalidCalendar):
		response.BadRequest(c, 12004, "Invalid calendar file")
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, 10002, "Not authenticated")
	default:
		response.InternalError(c)
	}
}
