package handler

import (
	"net/http"

	"Lee_Events/internal/service"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	svc *service.QuestionService
}

type AskQuestionReq struct {
	Question string `json:"question" binding:"required"`
}

func NewQuestionHandler(svc *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

// Ask 对事件提问
func (h *QuestionHandler) Ask(c *gin.Context) {
	userID := currentUserID(c)
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AskQuestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	q, err := h.svc.Ask(eventID, userID, req.Question)
	if err != nil {
		if code, known := domainCode(err); known {
			c.JSON(code, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"question_id": q.ID})
}

// Delete 提问作者或事件创建者可删
func (h *QuestionHandler) Delete(c *gin.Context) {
	userID := currentUserID(c)
	questionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(questionID, userID); err != nil {
		if code, known := domainCode(err); known {
			c.JSON(code, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "delete failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "question deleted"})
}

// Vote 赞成票，一人一票
func (h *QuestionHandler) Vote(c *gin.Context) {
	userID := currentUserID(c)
	questionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Vote(c.Request.Context(), questionID, userID); err != nil {
		if code, known := domainCode(err); known {
			c.JSON(code, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "vote failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Unvote 撤票，幂等
func (h *QuestionHandler) Unvote(c *gin.Context) {
	userID := currentUserID(c)
	questionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	changed, err := h.svc.Unvote(c.Request.Context(), questionID, userID)
	if err != nil {
		if code, known := domainCode(err); known {
			c.JSON(code, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "unvote failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "ok", "changed": changed})
}

// Votes 票数查询，走计数缓存；顺带告知当前用户是否已投过
func (h *QuestionHandler) Votes(c *gin.Context) {
	questionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	n, err := h.svc.VoteCount(c.Request.Context(), questionID)
	if err != nil {
		if code, known := domainCode(err); known {
			c.JSON(code, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}

	voted, err := h.svc.HasVoted(c.Request.Context(), questionID, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"votes": n, "voted": voted})
}
