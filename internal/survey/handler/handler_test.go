package handler

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kaykim0310/wmsd-report/internal/survey/blob"
	"github.com/kaykim0310/wmsd-report/internal/survey/repository"
	"github.com/kaykim0310/wmsd-report/internal/survey/service"
	"github.com/kaykim0310/wmsd-report/internal/survey/session"
	"github.com/kaykim0310/wmsd-report/internal/survey/testutil"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	sessions := session.NewManager(session.Options{TTL: time.Hour, CategoryCount: 12})
	repo := repository.NewSnapshotRepository(testutil.SetupTestDB(t))
	svc := service.NewSurveyService(sessions, repo, blob.NewMemoryStore(), nil, nil, service.Options{MaxImageBytes: 1 << 20})

	router := testutil.SetupRouter()
	NewHandlers(svc, testutil.SessionSecret, time.Hour, 1<<20).Register(router.Group("/api/v1"))
	return router
}

// newSession creates a session through the API and returns its token.
func newSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := testutil.DoRequest(r, "POST", "/api/v1/sessions", nil, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", w.Code, w.Body.String())
	}
	data := testutil.Data(t, w)
	token, _ := data["token"].(string)
	if token == "" || data["session_id"] == "" {
		t.Fatalf("session response = %v", data)
	}
	return token
}

func TestAuthRequired(t *testing.T) {
	r := setupRouter(t)

	w := testutil.DoRequest(r, "GET", "/api/v1/survey", nil, "")
	if w.Code != http.StatusUnauthorized || testutil.ParseResponse(w)["code"] != float64(40100) {
		t.Errorf("no token: %d %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/survey", nil, "garbage")
	if w.Code != http.StatusUnauthorized || testutil.ParseResponse(w)["code"] != float64(40102) {
		t.Errorf("bad token: %d %s", w.Code, w.Body.String())
	}

	// Well-signed token for a session that does not exist.
	w = testutil.DoRequest(r, "GET", "/api/v1/survey", nil, testutil.SessionToken("ghost"))
	if w.Code != http.StatusUnauthorized || testutil.ParseResponse(w)["code"] != float64(CodeSessionExpired) {
		t.Errorf("unknown session: %d %s", w.Code, w.Body.String())
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	r := setupRouter(t)
	a := newSession(t, r)
	b := newSession(t, r)

	w := testutil.DoRequest(r, "PUT", "/api/v1/survey/site", map[string]string{"name": "한빛정밀"}, a)
	if w.Code != http.StatusOK {
		t.Fatalf("set site: %d %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/survey", nil, b)
	site := testutil.Data(t, w)["site"].(map[string]interface{})
	if site["name"] != "" {
		t.Errorf("session b sees %v", site["name"])
	}

	w = testutil.DoRequest(r, "PUT", "/api/v1/survey/site", map[string]string{"nope": "x"}, a)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown site field: %d", w.Code)
	}
}

func TestChecklistToWorkConditions(t *testing.T) {
	r := setupRouter(t)
	tok := newSession(t, r)

	w := testutil.DoRequest(r, "POST", "/api/v1/survey/tables/checklist/rows", map[string]interface{}{
		"values": map[string]string{"task_name": "조립", "unit_name": "부품 운반", "cat_3": "△"},
	}, tok)
	if w.Code != http.StatusCreated {
		t.Fatalf("add checklist row: %d %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/survey", nil, tok)
	tasks := testutil.Data(t, w)["tasks"].([]interface{})
	if len(tasks) != 1 {
		t.Fatalf("tasks = %v", tasks)
	}
	taskID := tasks[0].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(r, "POST", "/api/v1/survey/tasks/"+taskID+"/work-conditions/sync", nil, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("sync: %d %s", w.Code, w.Body.String())
	}
	rows := testutil.Data(t, w)["rows"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("work condition rows = %v", rows)
	}
	row := rows[0].(map[string]interface{})
	if row["categories"] != "3호(잠재)" {
		t.Errorf("categories = %v", row["categories"])
	}
	rowID := row["id"].(string)
	path := "/api/v1/survey/tables/work_conditions/rows/" + rowID + "?scope=" + taskID

	for column, value := range map[string]string{"workload": "약간 힘듦(3)", "frequency": "자주(3)"} {
		w = testutil.DoRequest(r, "PATCH", path, map[string]string{"column": column, "value": value}, tok)
		if w.Code != http.StatusOK {
			t.Fatalf("update %s: %d %s", column, w.Code, w.Body.String())
		}
	}
	w = testutil.DoRequest(r, "PATCH", path, map[string]string{"column": "total_score", "value": "25"}, tok)
	if w.Code != http.StatusBadRequest {
		t.Errorf("read-only column: %d %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/survey", nil, tok)
	wc := testutil.Data(t, w)["work_conditions"].([]interface{})[0].(map[string]interface{})
	got := wc["rows"].([]interface{})[0].(map[string]interface{})["total_score"]
	if got != float64(9) {
		t.Errorf("total_score = %v, want 9", got)
	}

	w = testutil.DoRequest(r, "POST", "/api/v1/survey/tasks/"+taskID+"/cause-analysis/prefill", nil, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("prefill: %d %s", w.Code, w.Body.String())
	}
	ca := testutil.Data(t, w)["rows"].([]interface{})
	if len(ca) != 7 || ca[0].(map[string]interface{})["unit_name"] != "부품 운반" {
		t.Errorf("cause analysis = %v", ca)
	}

	w = testutil.DoRequest(r, "POST", "/api/v1/survey/tasks/missing/work-conditions/sync", nil, tok)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown task: %d", w.Code)
	}
}

func TestInvestigationsAndPain(t *testing.T) {
	r := setupRouter(t)
	tok := newSession(t, r)

	w := testutil.DoRequest(r, "POST", "/api/v1/survey/investigations", nil, tok)
	if w.Code != http.StatusCreated {
		t.Fatalf("add investigation: %d %s", w.Code, w.Body.String())
	}
	form := testutil.Data(t, w)
	if form["name"] != "유해요인조사표 1" {
		t.Errorf("form name = %v", form["name"])
	}
	id := form["id"].(string)

	w = testutil.DoRequest(r, "PUT", "/api/v1/survey/investigations/"+id+"/changes/equipment",
		map[string]string{"state": "increase", "detail": "컨베이어 추가"}, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("set change: %d %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(r, "PUT", "/api/v1/survey/investigations/"+id+"/changes/weather",
		map[string]string{"state": "increase"}, tok)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown category: %d", w.Code)
	}

	w = testutil.DoRequest(r, "POST", "/api/v1/survey/pain", map[string]string{"task_name": "조립"}, tok)
	if w.Code != http.StatusCreated {
		t.Fatalf("add pain task: %d %s", w.Code, w.Body.String())
	}
	painID := testutil.Data(t, w)["id"].(string)
	for column, value := range map[string]string{"neck": "2", "back": "3"} {
		w = testutil.DoRequest(r, "PATCH", "/api/v1/survey/pain/"+painID+"/symptomatic",
			map[string]string{"column": column, "value": value}, tok)
		if w.Code != http.StatusOK {
			t.Fatalf("pain cell: %d %s", w.Code, w.Body.String())
		}
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/survey", nil, tok)
	symptoms := testutil.Data(t, w)["symptoms"].(map[string]interface{})
	rows := symptoms["pain"].([]interface{})[0].(map[string]interface{})["rows"].([]interface{})
	for _, raw := range rows {
		row := raw.(map[string]interface{})
		if row["group"] == "symptomatic" && row["total"] != "5" {
			t.Errorf("symptomatic total = %v", row["total"])
		}
	}

	w = testutil.DoRequest(r, "DELETE", "/api/v1/survey/investigations/"+id, nil, tok)
	if w.Code != http.StatusOK {
		t.Errorf("delete investigation: %d", w.Code)
	}
	w = testutil.DoRequest(r, "DELETE", "/api/v1/survey/investigations/"+id, nil, tok)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: %d", w.Code)
	}
}

func TestImageUploadAndDownload(t *testing.T) {
	r := setupRouter(t)
	tok := newSession(t, r)

	w := testutil.DoRequest(r, "POST", "/api/v1/survey/detailed", nil, tok)
	if w.Code != http.StatusCreated {
		t.Fatalf("add detailed: %d %s", w.Code, w.Body.String())
	}
	detailedID := testutil.Data(t, w)["id"].(string)

	var img bytes.Buffer
	png.Encode(&img, image.NewGray(image.Rect(0, 0, 3, 3)))

	w = testutil.DoUpload(r, "/api/v1/survey/detailed/"+detailedID+"/images", "자세.png", img.Bytes(), tok)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	imageID := testutil.Data(t, w)["id"].(string)

	w = testutil.DoUpload(r, "/api/v1/survey/detailed/"+detailedID+"/images", "memo.txt", []byte("not an image"), tok)
	if w.Code != http.StatusBadRequest || testutil.ParseResponse(w)["code"] != float64(CodeUnsupportedImage) {
		t.Errorf("text upload: %d %s", w.Code, w.Body.String())
	}

	// Download links carry the token in the query string.
	w = testutil.DoRequest(r, "GET", "/api/v1/survey/detailed/"+detailedID+"/images/"+imageID+"?token="+tok, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != "image/png" || !bytes.Equal(w.Body.Bytes(), img.Bytes()) {
		t.Errorf("download content-type %q, %d bytes", w.Header().Get("Content-Type"), w.Body.Len())
	}

	w = testutil.DoRequest(r, "DELETE", "/api/v1/survey/detailed/"+detailedID+"/images/"+imageID, nil, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("delete image: %d", w.Code)
	}
	w = testutil.DoRequest(r, "GET", "/api/v1/survey/detailed/"+detailedID+"/images/"+imageID, nil, tok)
	if w.Code != http.StatusNotFound {
		t.Errorf("download deleted image: %d", w.Code)
	}
}

func TestSaveAndLoad(t *testing.T) {
	r := setupRouter(t)
	a := newSession(t, r)
	testutil.DoRequest(r, "PUT", "/api/v1/survey/site", map[string]string{"name": "한빛정밀"}, a)
	testutil.DoRequest(r, "POST", "/api/v1/survey/tasks", map[string]string{"name": "조립"}, a)

	w := testutil.DoRequest(r, "GET", "/api/v1/survey/save", nil, a)
	if w.Code != http.StatusOK {
		t.Fatalf("save: %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	saved := w.Body.Bytes()

	b := newSession(t, r)
	w = testutil.DoRequest(r, "POST", "/api/v1/survey/load", saved, b)
	if w.Code != http.StatusOK {
		t.Fatalf("load: %d %s", w.Code, w.Body.String())
	}
	data := testutil.Data(t, w)
	if data["site"].(map[string]interface{})["name"] != "한빛정밀" || len(data["tasks"].([]interface{})) != 1 {
		t.Errorf("loaded survey = %v", data)
	}

	w = testutil.DoRequest(r, "POST", "/api/v1/survey/load", []byte(`{"schema_version":1,"category_count":40}`), b)
	if w.Code != http.StatusBadRequest || testutil.ParseResponse(w)["code"] != float64(CodeMalformedSnapshot) {
		t.Errorf("malformed load: %d %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(r, "GET", "/api/v1/survey", nil, b)
	if testutil.Data(t, w)["site"].(map[string]interface{})["name"] != "한빛정밀" {
		t.Error("malformed load changed the survey")
	}
}

func TestExport(t *testing.T) {
	r := setupRouter(t)
	tok := newSession(t, r)
	testutil.DoRequest(r, "PUT", "/api/v1/survey/site", map[string]string{"name": "한빛정밀"}, tok)

	w := testutil.DoRequest(r, "GET", "/api/v1/survey/export/xlsx", nil, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("xlsx: %d %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/vnd.openxmlformats") {
		t.Errorf("xlsx content-type = %q", w.Header().Get("Content-Type"))
	}
	if w.Header().Get(HeaderExportWarnings) != "" {
		t.Errorf("unexpected warnings %q", w.Header().Get(HeaderExportWarnings))
	}

	// No font is configured, so the document reports the fallback.
	w = testutil.DoRequest(r, "GET", "/api/v1/survey/export/pdf", nil, tok)
	if w.Code != http.StatusOK || !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("pdf: %d", w.Code)
	}
	warn, err := url.QueryUnescape(w.Header().Get(HeaderExportWarnings))
	if err != nil || !strings.Contains(warn, "font") {
		t.Errorf("warnings header = %q (%v)", warn, err)
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/survey/export/docx", nil, tok)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown format: %d", w.Code)
	}
}

func TestSnapshots(t *testing.T) {
	r := setupRouter(t)
	tok := newSession(t, r)
	testutil.DoRequest(r, "PUT", "/api/v1/survey/site", map[string]string{"name": "1차"}, tok)

	w := testutil.DoRequest(r, "POST", "/api/v1/snapshots", map[string]string{"name": "오전 조사"}, tok)
	if w.Code != http.StatusCreated {
		t.Fatalf("create snapshot: %d %s", w.Code, w.Body.String())
	}
	snapID := testutil.Data(t, w)["id"].(string)

	testutil.DoRequest(r, "PUT", "/api/v1/survey/site", map[string]string{"name": "2차"}, tok)

	w = testutil.DoRequest(r, "GET", "/api/v1/snapshots", nil, tok)
	items := testutil.Data(t, w)["items"].([]interface{})
	if len(items) != 1 || items[0].(map[string]interface{})["name"] != "오전 조사" {
		t.Fatalf("snapshots = %v", items)
	}

	w = testutil.DoRequest(r, "POST", "/api/v1/snapshots/"+snapID+"/restore", nil, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("restore: %d %s", w.Code, w.Body.String())
	}
	if testutil.Data(t, w)["site"].(map[string]interface{})["name"] != "1차" {
		t.Errorf("restored = %v", testutil.Data(t, w)["site"])
	}

	other := newSession(t, r)
	w = testutil.DoRequest(r, "POST", "/api/v1/snapshots/"+snapID+"/restore", nil, other)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-session restore: %d", w.Code)
	}

	w = testutil.DoRequest(r, "DELETE", "/api/v1/snapshots/"+snapID, nil, tok)
	if w.Code != http.StatusOK {
		t.Errorf("delete snapshot: %d", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	r := setupRouter(t)
	tok := newSession(t, r)

	w := testutil.DoRequest(r, "DELETE", "/api/v1/session", nil, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("delete session: %d", w.Code)
	}
	w = testutil.DoRequest(r, "GET", "/api/v1/survey", nil, tok)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("after delete: %d", w.Code)
	}
}
