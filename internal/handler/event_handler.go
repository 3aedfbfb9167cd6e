package handler

import (
	"net/http"
	"strconv"

	"Lee_Events/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	svc *service.EventService
}

type EventCreateReq struct {
	Name              string   `json:"name" binding:"required"`
	Description       string   `json:"description"`
	Location          string   `json:"location"`
	Start             int64    `json:"start" binding:"required"`
	CloseRegistration int64    `json:"close_registration" binding:"required"`
	MaxAttendees      int      `json:"max_attendees" binding:"required,min=1"`
	Categories        []string `json:"categories"`
}

// EventUpdateReq 部分更新：缺省字段保持原值
type EventUpdateReq struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	Location          *string `json:"location"`
	Start             *int64  `json:"start"`
	CloseRegistration *int64  `json:"close_registration"`
	MaxAttendees      *int    `json:"max_attendees"`
}

func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) Create(c *gin.Context) {
	userID := currentUserID(c)

	var req EventCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	ev, err := h.svc.CreateEvent(userID, service.CreateEventInput{
		Name:              req.Name,
		Description:       req.Description,
		Location:          req.Location,
		StartTime:         req.Start,
		CloseRegistration: req.CloseRegistration,
		MaxAttendees:      req.MaxAttendees,
		Categories:        req.Categories,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event_id": ev.ID})
}

func (h *EventHandler) Get(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		if code, known := domainCode(err); known {
			c.JSON(code, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "get event failed"})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Update 创建者部分更新
func (h *EventHandler) Update(c *gin.Context) {
	userID := currentUserID(c)
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req EventUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	ev, err := h.svc.UpdateEvent(eventID, userID, service.UpdateEventInput{
		Name:              req.Name,
		Description:       req.Description,
		Location:          req.Location,
		StartTime:         req.Start,
		CloseRegistration: req.CloseRegistration,
		MaxAttendees:      req.MaxAttendees,
	})
	if err != nil {
		if code, known := domainCode(err); known {
			c.JSON(code, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ev)
}

// Archive 软删除：只关门，不删数据。重复归档返回成功
func (h *EventHandler) Archive(c *gin.Context) {
	userID := currentUserID(c)
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.ArchiveEvent(eventID, userID); err != nil {
		if code, known := domainCode(err); known {
			c.JSON(code, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "archive failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "event archived"})
}

// Search 搜索接口，挂在可选登录中间件后面
func (h *EventHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	list, params, err := h.svc.Search(service.SearchParams{
		Query:      c.Query("q"),
		Status:     c.Query("status"),
		Categories: c.QueryArray("category"),
		Limit:      limit,
		Offset:     offset,
	}, currentUserID(c))
	if err != nil {
		if code, known := domainCode(err); known {
			c.JSON(code, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": list,
		"pagination": gin.H{
			"limit":  params.Limit,
			"offset": params.Offset,
			"total":  len(list),
		},
	})
}
