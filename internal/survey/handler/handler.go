package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kaykim0310/wmsd-report/internal/middleware"
	"github.com/kaykim0310/wmsd-report/internal/survey/blob"
	"github.com/kaykim0310/wmsd-report/internal/survey/repository"
	"github.com/kaykim0310/wmsd-report/internal/survey/service"
	"github.com/kaykim0310/wmsd-report/internal/survey/session"
	"github.com/kaykim0310/wmsd-report/internal/survey/store"
)

// Response 공통 응답 구조
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 성공 응답
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 생성 성공 응답
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error responds with a 5-digit business code; the HTTP status is code/100.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = http.StatusInternalServerError
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 잘못된 요청
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 리소스 없음
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 서버 오류
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// Business codes beyond the generic ones.
const (
	CodeMalformedSnapshot = 40001
	CodeUnsupportedImage  = 40002
	CodeSessionExpired    = 40103
	CodeRowNotFound       = 40401
	CodeSnapshotNotFound  = 40402
	CodeImageNotFound     = 40403
	CodeDuplicateTask     = 40901
	CodeUploadTooLarge    = 41300
)

// respondError maps domain errors onto the response envelope.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		Error(c, CodeSessionExpired, "세션이 만료되었거나 존재하지 않습니다")
	case errors.Is(err, store.ErrMalformedSnapshot):
		Error(c, CodeMalformedSnapshot, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		Error(c, CodeSnapshotNotFound, "스냅샷이 존재하지 않습니다")
	case errors.Is(err, store.ErrImageNotFound):
		Error(c, CodeImageNotFound, err.Error())
	case errors.Is(err, store.ErrRowNotFound),
		errors.Is(err, store.ErrScopeNotFound),
		errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrUnknownTable):
		Error(c, CodeRowNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateTask):
		Error(c, CodeDuplicateTask, err.Error())
	case errors.Is(err, service.ErrImageTooLarge):
		Error(c, CodeUploadTooLarge, err.Error())
	case errors.Is(err, blob.ErrUnsupportedImage), errors.Is(err, service.ErrEmptyUpload):
		Error(c, CodeUnsupportedImage, err.Error())
	case errors.Is(err, store.ErrUnknownColumn),
		errors.Is(err, store.ErrReadOnlyColumn),
		errors.Is(err, store.ErrInvalidValue),
		errors.Is(err, store.ErrFixedRows),
		errors.Is(err, service.ErrUnsupportedFormat):
		BadRequest(c, err.Error())
	default:
		InternalError(c, "처리 중 오류가 발생했습니다: "+err.Error())
	}
}

// GetSessionID 컨텍스트의 세션 ID
func GetSessionID(c *gin.Context) string {
	return c.GetString(middleware.KeySessionID)
}

// Handlers 핸들러 모음
type Handlers struct {
	Session  *SessionHandler
	Survey   *SurveyHandler
	Export   *ExportHandler
	Snapshot *SnapshotHandler

	secret string
}

// NewHandlers builds every handler over svc. Session tokens are signed with
// secret and live for ttl.
func NewHandlers(svc *service.SurveyService, secret string, ttl time.Duration, maxUploadBytes int64) *Handlers {
	return &Handlers{
		Session:  NewSessionHandler(svc, secret, ttl),
		Survey:   NewSurveyHandler(svc, maxUploadBytes),
		Export:   NewExportHandler(svc),
		Snapshot: NewSnapshotHandler(svc),
		secret:   secret,
	}
}

// Register mounts the API under api (normally /api/v1).
func (h *Handlers) Register(api *gin.RouterGroup) {
	api.POST("/sessions", h.Session.Create)

	authed := api.Group("", middleware.SessionAuth(h.secret))
	authed.DELETE("/session", h.Session.Delete)
	authed.GET("/catalog", h.Survey.Catalog)

	sv := authed.Group("/survey")
	{
		sv.GET("", h.Survey.Get)
		sv.PUT("/site", h.Survey.SetSite)

		sv.POST("/tables/:table/rows", h.Survey.AddRow)
		sv.DELETE("/tables/:table/rows/:rowId", h.Survey.RemoveRow)
		sv.PATCH("/tables/:table/rows/:rowId", h.Survey.UpdateCell)

		sv.POST("/tasks", h.Survey.AddTask)
		sv.PUT("/tasks/:taskId", h.Survey.RenameTask)
		sv.POST("/tasks/:taskId/work-conditions/sync", h.Survey.SyncWorkConditions)
		sv.POST("/tasks/:taskId/cause-analysis/prefill", h.Survey.PrefillCauseAnalysis)

		sv.POST("/investigations", h.Survey.AddInvestigation)
		sv.DELETE("/investigations/:id", h.Survey.RemoveInvestigation)
		sv.PATCH("/investigations/:id", h.Survey.UpdateInvestigation)
		sv.PUT("/investigations/:id/changes/:category", h.Survey.SetSituationChange)

		sv.POST("/detailed", h.Survey.AddDetailed)
		sv.DELETE("/detailed/:id", h.Survey.RemoveDetailed)
		sv.PATCH("/detailed/:id", h.Survey.UpdateDetailed)
		sv.POST("/detailed/:id/images", h.Survey.UploadImage)
		sv.GET("/detailed/:id/images/:imageId", h.Survey.DownloadImage)
		sv.DELETE("/detailed/:id/images/:imageId", h.Survey.DeleteImage)

		sv.POST("/pain", h.Survey.AddPainTask)
		sv.DELETE("/pain/:id", h.Survey.RemovePainTask)
		sv.PATCH("/pain/:id/:group", h.Survey.UpdatePainCell)

		sv.GET("/save", h.Export.Save)
		sv.POST("/load", h.Export.Load)
		sv.GET("/export/:format", h.Export.Export)
	}

	snaps := authed.Group("/snapshots")
	{
		snaps.POST("", h.Snapshot.Create)
		snaps.GET("", h.Snapshot.List)
		snaps.POST("/:id/restore", h.Snapshot.Restore)
		snaps.DELETE("/:id", h.Snapshot.Delete)
	}
}
