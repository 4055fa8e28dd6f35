package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kaykim0310/wmsd-report/internal/middleware"
	"github.com/kaykim0310/wmsd-report/internal/survey/service"
)

type SessionHandler struct {
	svc    *service.SurveyService
	secret string
	ttl    time.Duration
}

func NewSessionHandler(svc *service.SurveyService, secret string, ttl time.Duration) *SessionHandler {
	return &SessionHandler{svc: svc, secret: secret, ttl: ttl}
}

// Create POST /sessions
func (h *SessionHandler) Create(c *gin.Context) {
	sess, err := h.svc.CreateSession(c.Request.Context())
	if err != nil {
		InternalError(c, "세션 생성 실패: "+err.Error())
		return
	}
	token, expiresAt, err := middleware.IssueSessionToken(h.secret, sess.ID, h.ttl)
	if err != nil {
		InternalError(c, "토큰 발급 실패: "+err.Error())
		return
	}
	Created(c, gin.H{
		"session_id": sess.ID,
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Delete DELETE /session
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteSession(c.Request.Context(), GetSessionID(c)); err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"message": "세션이 삭제되었습니다"})
}
