package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kaykim0310/wmsd-report/internal/survey/service"
)

type SnapshotHandler struct {
	svc *service.SurveyService
}

func NewSnapshotHandler(svc *service.SurveyService) *SnapshotHandler {
	return &SnapshotHandler{svc: svc}
}

// Create POST /snapshots
func (h *SnapshotHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	// An empty body is allowed; the snapshot is then named by its timestamp.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "잘못된 요청: "+err.Error())
			return
		}
	}
	snap, err := h.svc.CreateSnapshot(c.Request.Context(), GetSessionID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, snap)
}

// List GET /snapshots
func (h *SnapshotHandler) List(c *gin.Context) {
	snaps, err := h.svc.ListSnapshots(c.Request.Context(), GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"items": snaps})
}

// Restore POST /snapshots/:id/restore
func (h *SnapshotHandler) Restore(c *gin.Context) {
	if err := h.svc.RestoreSnapshot(c.Request.Context(), GetSessionID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	sv, err := h.svc.Survey(c.Request.Context(), GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, sv)
}

// Delete DELETE /snapshots/:id
func (h *SnapshotHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteSnapshot(c.Request.Context(), GetSessionID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"message": "삭제되었습니다"})
}
