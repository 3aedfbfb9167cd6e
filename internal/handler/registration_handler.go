package handler

import (
	"net/http"

	"Lee_Events/internal/service"

	"github.com/gin-gonic/gin"
)

type RegistrationHandler struct {
	svc *service.RegistrationService
}

func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// Register 报名接口。404=事件不存在；403=创建者/窗口已关/满员/重复报名；500=存储故障
func (h *RegistrationHandler) Register(c *gin.Context) {
	userID := currentUserID(c)
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	att, err := h.svc.Register(c.Request.Context(), eventID, userID)
	if err != nil {
		if code, known := domainCode(err); known {
			c.JSON(code, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to register for event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event_id":      att.EventID,
		"user_id":       att.UserID,
		"registered_at": att.RegisteredAt,
	})
}

// Attendees 报名名单
func (h *RegistrationHandler) Attendees(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.svc.ListAttendees(c.Request.Context(), eventID)
	if err != nil {
		if code, known := domainCode(err); known {
			c.JSON(code, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "list attendees failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"attendees": list})
}

// Attending 当前用户是否已报名
func (h *RegistrationHandler) Attending(c *gin.Context) {
	userID := currentUserID(c)
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	attending, err := h.svc.IsAttending(c.Request.Context(), eventID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"attending": attending})
}

// Count 出席人数（含创建者的隐式席位）
func (h *RegistrationHandler) Count(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	n, err := h.svc.NumberAttending(c.Request.Context(), eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"number_attending": n})
}
