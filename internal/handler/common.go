package handler

import (
	"errors"
	"net/http"
	"strconv"

	"Lee_Events/internal/middleware"
	"Lee_Events/internal/model"

	"github.com/gin-gonic/gin"
)

// domainCode 领域错误到HTTP状态码的映射；未识别的错误返回 false，由调用处决定兜底
func domainCode(err error) (int, bool) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized, true
	case errors.Is(err, model.ErrForbidden),
		errors.Is(err, model.ErrRegistrationClosed),
		errors.Is(err, model.ErrEventFull),
		errors.Is(err, model.ErrAlreadyRegistered),
		errors.Is(err, model.ErrAlreadyVoted):
		return http.StatusForbidden, true
	}
	return 0, false
}

func currentUserID(c *gin.Context) uint64 {
	v, ok := c.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(uint64)
	return id
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid " + name})
		return 0, false
	}
	return id, true
}
