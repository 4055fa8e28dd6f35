package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
	"github.com/kaykim0310/wmsd-report/internal/survey/schema"
	"github.com/kaykim0310/wmsd-report/internal/survey/service"
	"github.com/kaykim0310/wmsd-report/internal/survey/store"
)

type SurveyHandler struct {
	svc            *service.SurveyService
	maxUploadBytes int64
}

func NewSurveyHandler(svc *service.SurveyService, maxUploadBytes int64) *SurveyHandler {
	return &SurveyHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

type cellRequest struct {
	Column string `json:"column" binding:"required"`
	Value  string `json:"value"`
}

type addRowRequest struct {
	Scope  string            `json:"scope"`
	Values map[string]string `json:"values"`
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

// Get GET /survey
func (h *SurveyHandler) Get(c *gin.Context) {
	sv, err := h.svc.Survey(c.Request.Context(), GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, sv)
}

// Catalog GET /catalog
func (h *SurveyHandler) Catalog(c *gin.Context) {
	cat, err := h.svc.Catalog(c.Request.Context(), GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, cat)
}

// SetSite PUT /survey/site
func (h *SurveyHandler) SetSite(c *gin.Context) {
	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		BadRequest(c, "잘못된 요청: "+err.Error())
		return
	}
	site, err := h.svc.SetSite(c.Request.Context(), GetSessionID(c), fields)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, site)
}

// ========== Generic table edits ==========

// AddRow POST /survey/tables/:table/rows
func (h *SurveyHandler) AddRow(c *gin.Context) {
	var req addRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "잘못된 요청: "+err.Error())
		return
	}
	ref := store.TableRef{Name: c.Param("table"), Scope: req.Scope}
	id, err := h.svc.AddRow(c.Request.Context(), GetSessionID(c), ref, req.Values)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, gin.H{"id": id})
}

// RemoveRow DELETE /survey/tables/:table/rows/:rowId?scope=
func (h *SurveyHandler) RemoveRow(c *gin.Context) {
	ref := store.TableRef{Name: c.Param("table"), Scope: c.Query("scope")}
	h.remove(c, ref, c.Param("rowId"))
}

// UpdateCell PATCH /survey/tables/:table/rows/:rowId?scope=
func (h *SurveyHandler) UpdateCell(c *gin.Context) {
	ref := store.TableRef{Name: c.Param("table"), Scope: c.Query("scope")}
	h.update(c, ref, c.Param("rowId"))
}

func (h *SurveyHandler) remove(c *gin.Context, ref store.TableRef, rowID string) {
	if err := h.svc.RemoveRow(c.Request.Context(), GetSessionID(c), ref, rowID); err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"message": "삭제되었습니다"})
}

func (h *SurveyHandler) update(c *gin.Context, ref store.TableRef, rowID string) {
	var req cellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "잘못된 요청: "+err.Error())
		return
	}
	if err := h.svc.UpdateCell(c.Request.Context(), GetSessionID(c), ref, rowID, req.Column, req.Value); err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"id": rowID, "column": req.Column})
}

// ========== Tasks ==========

// AddTask POST /survey/tasks
func (h *SurveyHandler) AddTask(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "작업명을 입력하세요")
		return
	}
	id, err := h.svc.AddTask(c.Request.Context(), GetSessionID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, gin.H{"id": id, "name": req.Name})
}

// RenameTask PUT /survey/tasks/:taskId
func (h *SurveyHandler) RenameTask(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "작업명을 입력하세요")
		return
	}
	if err := h.svc.RenameTask(c.Request.Context(), GetSessionID(c), c.Param("taskId"), req.Name); err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"id": c.Param("taskId"), "name": req.Name})
}

// SyncWorkConditions POST /survey/tasks/:taskId/work-conditions/sync
func (h *SurveyHandler) SyncWorkConditions(c *gin.Context) {
	h.taskTable(c, h.svc.SyncWorkConditions, func(sv *entity.Survey, taskID string) interface{} {
		if t, ok := sv.WorkConditionTableFor(taskID); ok {
			return t
		}
		return entity.WorkConditionTable{TaskID: taskID}
	})
}

// PrefillCauseAnalysis POST /survey/tasks/:taskId/cause-analysis/prefill
func (h *SurveyHandler) PrefillCauseAnalysis(c *gin.Context) {
	h.taskTable(c, h.svc.PrefillCauseAnalysis, func(sv *entity.Survey, taskID string) interface{} {
		t, _ := sv.CauseAnalysisTableFor(taskID)
		return t
	})
}

// taskTable runs a per-task operation and responds with the resulting table.
func (h *SurveyHandler) taskTable(c *gin.Context, op func(ctx context.Context, sessionID, taskID string) error, pick func(sv *entity.Survey, taskID string) interface{}) {
	ctx := c.Request.Context()
	sid := GetSessionID(c)
	taskID := c.Param("taskId")
	if err := op(ctx, sid, taskID); err != nil {
		respondError(c, err)
		return
	}
	sv, err := h.svc.Survey(ctx, sid)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, pick(sv, taskID))
}

// ========== Investigations ==========

// AddInvestigation POST /survey/investigations
func (h *SurveyHandler) AddInvestigation(c *gin.Context) {
	form, err := h.svc.AddInvestigation(c.Request.Context(), GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, form)
}

// RemoveInvestigation DELETE /survey/investigations/:id
func (h *SurveyHandler) RemoveInvestigation(c *gin.Context) {
	h.remove(c, store.TableRef{Name: schema.KeyInvestigations}, c.Param("id"))
}

// UpdateInvestigation PATCH /survey/investigations/:id
func (h *SurveyHandler) UpdateInvestigation(c *gin.Context) {
	h.update(c, store.TableRef{Name: schema.KeyInvestigations}, c.Param("id"))
}

// SetSituationChange PUT /survey/investigations/:id/changes/:category
func (h *SurveyHandler) SetSituationChange(c *gin.Context) {
	var req struct {
		State  string `json:"state"`
		Detail string `json:"detail"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "잘못된 요청: "+err.Error())
		return
	}
	category := entity.ChangeCategory(c.Param("category"))
	if err := h.svc.SetSituationChange(c.Request.Context(), GetSessionID(c), c.Param("id"), category, req.State, req.Detail); err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"category": category, "state": req.State})
}

// ========== Detailed investigations ==========

// AddDetailed POST /survey/detailed
func (h *SurveyHandler) AddDetailed(c *gin.Context) {
	d, err := h.svc.AddDetailed(c.Request.Context(), GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, d)
}

// RemoveDetailed DELETE /survey/detailed/:id
func (h *SurveyHandler) RemoveDetailed(c *gin.Context) {
	h.remove(c, store.TableRef{Name: schema.KeyDetailed}, c.Param("id"))
}

// UpdateDetailed PATCH /survey/detailed/:id
func (h *SurveyHandler) UpdateDetailed(c *gin.Context) {
	h.update(c, store.TableRef{Name: schema.KeyDetailed}, c.Param("id"))
}

// UploadImage POST /survey/detailed/:id/images (multipart, field "file")
func (h *SurveyHandler) UploadImage(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "파일을 선택하세요: "+err.Error())
		return
	}
	f, err := fh.Open()
	if err != nil {
		BadRequest(c, "파일을 읽을 수 없습니다: "+err.Error())
		return
	}
	defer f.Close()

	ref, err := h.svc.UploadImage(c.Request.Context(), GetSessionID(c), c.Param("id"), fh.Filename, f)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, ref)
}

// DownloadImage GET /survey/detailed/:id/images/:imageId
func (h *SurveyHandler) DownloadImage(c *gin.Context) {
	ref, rc, err := h.svc.OpenImage(c.Request.Context(), GetSessionID(c), c.Param("id"), c.Param("imageId"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", attachment(ref.FileName, "inline"))
	c.DataFromReader(http.StatusOK, ref.Size, ref.ContentType, rc, nil)
}

// DeleteImage DELETE /survey/detailed/:id/images/:imageId
func (h *SurveyHandler) DeleteImage(c *gin.Context) {
	if err := h.svc.DeleteImage(c.Request.Context(), GetSessionID(c), c.Param("id"), c.Param("imageId")); err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"message": "삭제되었습니다"})
}

// ========== Symptom survey ==========

// AddPainTask POST /survey/pain
func (h *SurveyHandler) AddPainTask(c *gin.Context) {
	var req struct {
		TaskName string `json:"task_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "잘못된 요청: "+err.Error())
		return
	}
	id, err := h.svc.AddPainTask(c.Request.Context(), GetSessionID(c), req.TaskName)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, gin.H{"id": id})
}

// RemovePainTask DELETE /survey/pain/:id
func (h *SurveyHandler) RemovePainTask(c *gin.Context) {
	h.remove(c, store.TableRef{Name: schema.KeyPainTasks}, c.Param("id"))
}

// UpdatePainCell PATCH /survey/pain/:id/:group
func (h *SurveyHandler) UpdatePainCell(c *gin.Context) {
	h.update(c, store.TableRef{Name: schema.KeyPainRows, Scope: c.Param("id")}, c.Param("group"))
}
