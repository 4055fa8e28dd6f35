package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kaykim0310/wmsd-report/internal/survey/service"
)

// HeaderExportWarnings lists the tables left out of an export, each
// percent-encoded and separated by commas.
const HeaderExportWarnings = "X-Export-Warnings"

const maxSaveFileBytes = 32 << 20

type ExportHandler struct {
	svc *service.SurveyService
}

func NewExportHandler(svc *service.SurveyService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// Save GET /survey/save
func (h *ExportHandler) Save(c *gin.Context) {
	data, err := h.svc.Save(c.Request.Context(), GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(fileName("json"), "attachment"))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// Load POST /survey/load
// Accepts the save file as the raw JSON body or as a multipart field "file".
func (h *ExportHandler) Load(c *gin.Context) {
	var r io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
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
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSaveFileBytes))
	if err != nil {
		BadRequest(c, "요청 본문을 읽을 수 없습니다: "+err.Error())
		return
	}
	if err := h.svc.Load(c.Request.Context(), GetSessionID(c), data); err != nil {
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

// Export GET /survey/export/:format
func (h *ExportHandler) Export(c *gin.Context) {
	format := c.Param("format")
	res, err := h.svc.Export(c.Request.Context(), GetSessionID(c), format)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(res.Warnings) > 0 {
		msgs := res.Messages()
		for i, m := range msgs {
			msgs[i] = url.QueryEscape(m)
		}
		c.Header(HeaderExportWarnings, strings.Join(msgs, ","))
	}
	c.Header("Content-Disposition", attachment(fileName(format), "attachment"))
	c.Data(http.StatusOK, res.MIME, res.Data)
}

func fileName(ext string) string {
	return fmt.Sprintf("근골격계_유해요인조사_%s.%s", time.Now().Format("20060102"), ext)
}

// attachment formats a Content-Disposition value; non-ASCII names are
// encoded per RFC 2231.
func attachment(name, disposition string) string {
	v := mime.FormatMediaType(disposition, map[string]string{"filename": name})
	if v == "" {
		return disposition
	}
	return v
}
