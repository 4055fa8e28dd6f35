package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
	"github.com/kaykim0310/wmsd-report/internal/survey/schema"
)

func mustAdd(t *testing.T, s *Store, ref TableRef, values map[string]string) string {
	t.Helper()
	id, err := s.AddRow(ref, values)
	if err != nil {
		t.Fatalf("AddRow(%s): %v", ref, err)
	}
	return id
}

func taskID(t *testing.T, s *Store, name string) string {
	t.Helper()
	for _, task := range s.Tasks() {
		if task.Name == name {
			return task.ID
		}
	}
	t.Fatalf("task %q not registered", name)
	return ""
}

// populated builds a store touching every table.
func populated(t *testing.T) *Store {
	t.Helper()
	s := New(12)
	if err := s.SetSite(map[string]string{"name": "한빛정밀", "address": "경기도 안산시", "investigator": "김조사"}); err != nil {
		t.Fatalf("SetSite: %v", err)
	}

	checklist := TableRef{Name: schema.KeyChecklist}
	mustAdd(t, s, checklist, map[string]string{"task_name": "조립", "unit_name": "부품 운반", "cat_3": "△", "cat_5": "O"})
	mustAdd(t, s, checklist, map[string]string{"task_name": "조립", "unit_name": "볼트 체결", "cat_2": "applicable"})
	mustAdd(t, s, checklist, map[string]string{"task_name": "포장", "unit_name": "박스 적재"})

	assembly := taskID(t, s, "조립")
	if err := s.SyncWorkConditions(assembly); err != nil {
		t.Fatalf("SyncWorkConditions: %v", err)
	}
	sv := s.Survey()
	wc, _ := sv.WorkConditionTableFor(assembly)
	ref := TableRef{Name: schema.KeyWorkConditions, Scope: assembly}
	if err := s.UpdateCell(ref, wc.Rows[0].ID, "workload", "약간 힘듦(3)"); err != nil {
		t.Fatalf("UpdateCell workload: %v", err)
	}
	if err := s.UpdateCell(ref, wc.Rows[0].ID, "frequency", "자주(3)"); err != nil {
		t.Fatalf("UpdateCell frequency: %v", err)
	}
	if err := s.PrefillCauseAnalysis(assembly); err != nil {
		t.Fatalf("PrefillCauseAnalysis: %v", err)
	}

	f1, err := s.AddInvestigation()
	if err != nil {
		t.Fatalf("AddInvestigation: %v", err)
	}
	if _, err := s.AddInvestigation(); err != nil {
		t.Fatalf("AddInvestigation: %v", err)
	}
	if err := s.SetSituationChange(f1.ID, entity.ChangeSpeed, "증가", "라인 속도 상향"); err != nil {
		t.Fatalf("SetSituationChange: %v", err)
	}

	d, err := s.AddDetailed()
	if err != nil {
		t.Fatalf("AddDetailed: %v", err)
	}
	mustAdd(t, s, TableRef{Name: schema.KeyAnalysisResults, Scope: d.ID}, map[string]string{"tool": "RULA", "result": "5", "max_score": "7"})
	if _, err := s.AttachImage(d.ID, entity.ImageRef{Key: "images/a.png", FileName: "a.png", ContentType: "image/png", Size: 42}); err != nil {
		t.Fatalf("AttachImage: %v", err)
	}

	mustAdd(t, s, TableRef{Name: schema.KeyDemographics}, map[string]string{"task_name": "조립", "respondents": "10"})
	mustAdd(t, s, TableRef{Name: schema.KeyTenure}, map[string]string{"task_name": "조립", "under_1": "2", "over_10": "3"})
	mustAdd(t, s, TableRef{Name: schema.KeyBurdenLevels}, map[string]string{"task_name": "조립", "hard": "4"})
	pain, err := s.AddPainTask("조립")
	if err != nil {
		t.Fatalf("AddPainTask: %v", err)
	}
	if err := s.UpdateCell(TableRef{Name: schema.KeyPainRows, Scope: pain}, string(entity.PainSymptomatic), "back", "3"); err != nil {
		t.Fatalf("UpdateCell pain: %v", err)
	}

	mustAdd(t, s, TableRef{Name: schema.KeyImprovements}, map[string]string{"process": "조립", "plan": "보조대차 도입"})
	return s
}

func TestRoundTrip(t *testing.T) {
	s := populated(t)
	data, err := s.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	restored := New(12)
	if err := restored.Deserialize(data); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if diff := cmp.Diff(s.Survey(), restored.Survey(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripCounts(t *testing.T) {
	s := New(12)
	for _, unit := range []string{"a", "b", "c"} {
		mustAdd(t, s, TableRef{Name: schema.KeyChecklist}, map[string]string{"task_name": "조립", "unit_name": unit})
	}
	for i := 0; i < 2; i++ {
		if _, err := s.AddInvestigation(); err != nil {
			t.Fatal(err)
		}
	}
	mustAdd(t, s, TableRef{Name: schema.KeyImprovements}, map[string]string{"plan": "x"})

	data, err := s.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Checklist) != 3 || len(got.Investigations) != 2 || len(got.Improvements) != 1 {
		t.Fatalf("counts = %d/%d/%d", len(got.Checklist), len(got.Investigations), len(got.Improvements))
	}
	for i, unit := range []string{"a", "b", "c"} {
		if got.Checklist[i].UnitName != unit {
			t.Errorf("row %d unit = %q, want %q", i, got.Checklist[i].UnitName, unit)
		}
	}
	if got.Investigations[1].Name != "유해요인조사표 2" {
		t.Errorf("second form name = %q", got.Investigations[1].Name)
	}
}

func TestSaveFileLayout(t *testing.T) {
	s := populated(t)
	data, err := s.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["schema_version"].(float64) != SchemaVersion {
		t.Errorf("schema_version = %v", doc["schema_version"])
	}
	wc := doc["work_conditions"].([]any)[0].(map[string]any)["rows"].([]any)[0].(map[string]any)
	if _, ok := wc["total_score"].(float64); !ok {
		t.Errorf("total_score should be numeric, got %T", wc["total_score"])
	}
	if _, ok := wc["workload"].(string); !ok {
		t.Errorf("workload should be a string, got %T", wc["workload"])
	}
	row := doc["checklist"].([]any)[0].(map[string]any)
	if _, ok := row["task_name"]; ok {
		t.Error("task_name is derived from the task registry and must not be saved")
	}
	if row["cat_3"] != "potentially-applicable" {
		t.Errorf("cat_3 = %v", row["cat_3"])
	}
}

func TestDeserializeMalformedLeavesStore(t *testing.T) {
	valid, err := populated(t).Serialize()
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(valid, &doc); err != nil {
		t.Fatal(err)
	}
	mutated := func(fn func(doc map[string]any)) []byte {
		var cp map[string]any
		_ = json.Unmarshal(valid, &cp)
		fn(cp)
		b, _ := json.Marshal(cp)
		return b
	}

	tests := map[string][]byte{
		"not json":        []byte("{not json"),
		"array":           []byte("[]"),
		"no version":      mutated(func(d map[string]any) { delete(d, "schema_version") }),
		"newer version":   mutated(func(d map[string]any) { d["schema_version"] = SchemaVersion + 1 }),
		"bad flag":        mutated(func(d map[string]any) { d["checklist"].([]any)[0].(map[string]any)["cat_1"] = "maybe" }),
		"dangling task":   mutated(func(d map[string]any) { d["checklist"].([]any)[0].(map[string]any)["task_id"] = "missing" }),
		"short cause":     mutated(func(d map[string]any) { ca := d["cause_analysis"].([]any)[0].(map[string]any); ca["rows"] = ca["rows"].([]any)[:3] }),
		"bad state":       mutated(func(d map[string]any) { sc := d["investigations"].([]any)[0].(map[string]any)["situation_changes"].([]any); sc[0].(map[string]any)["state"] = "worse" }),
		"missing change":  mutated(func(d map[string]any) { f := d["investigations"].([]any)[0].(map[string]any); f["situation_changes"] = f["situation_changes"].([]any)[:2] }),
		"duplicate rows":  mutated(func(d map[string]any) { cl := d["checklist"].([]any); d["checklist"] = append(cl, cl[0]) }),
		"bad total type":  mutated(func(d map[string]any) { d["work_conditions"].([]any)[0].(map[string]any)["rows"].([]any)[0].(map[string]any)["total_score"] = "many" }),
		"category count":  mutated(func(d map[string]any) { d["category_count"] = 40 }),
		"pain group gone": mutated(func(d map[string]any) { p := d["symptom_pain"].([]any)[0].(map[string]any); p["rows"] = p["rows"].([]any)[:1] }),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			s := populated(t)
			before := s.Survey()
			err := s.Deserialize(data)
			if !errors.Is(err, ErrMalformedSnapshot) {
				t.Fatalf("Deserialize error = %v, want ErrMalformedSnapshot", err)
			}
			if diff := cmp.Diff(before, s.Survey(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("store changed after failed restore:\n%s", diff)
			}
		})
	}
}

func TestDeserializeIgnoresUnknownKeys(t *testing.T) {
	data := []byte(`{"schema_version":1,"category_count":11,"future_field":{"x":1},
		"site":{"name":"한빛","fax":"000"},
		"improvement_plan":[{"plan":"교체","extra":"ignored"}]}`)
	sv, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if sv.CategoryCount != 11 || sv.Site.Name != "한빛" {
		t.Errorf("decoded %+v", sv.Site)
	}
	if len(sv.Improvements) != 1 || sv.Improvements[0].ID == "" {
		t.Errorf("improvement rows = %+v", sv.Improvements)
	}
}

func TestSiteFieldsDefaultEmpty(t *testing.T) {
	s := New(0)
	v, err := s.SiteField("address")
	if err != nil || v != "" {
		t.Errorf("SiteField = %q, %v", v, err)
	}
	if _, err := s.SiteField("fax"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("unknown field error = %v", err)
	}
	if s.CategoryCount() != entity.DefaultCategoryCount {
		t.Errorf("CategoryCount = %d", s.CategoryCount())
	}
}

func TestUpdateCellValidation(t *testing.T) {
	s := New(12)
	id := mustAdd(t, s, TableRef{Name: schema.KeyChecklist}, nil)

	if err := s.UpdateCell(TableRef{Name: schema.KeyChecklist}, id, "cat_4", "sometimes"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("invalid flag error = %v", err)
	}
	if err := s.UpdateCell(TableRef{Name: schema.KeyChecklist}, id, "cat_13", "O"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("out-of-range category error = %v", err)
	}
	if err := s.UpdateCell(TableRef{Name: schema.KeyChecklist}, "nope", "team", "A"); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("missing row error = %v", err)
	}
	if err := s.UpdateCell(TableRef{Name: "bogus"}, id, "team", "A"); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("unknown table error = %v", err)
	}
	row := s.Survey().Checklist[0]
	if len(row.Flags) != 12 {
		t.Fatalf("flags = %d, want 12", len(row.Flags))
	}
	for i, f := range row.Flags {
		if f != entity.FlagNotApplicable {
			t.Errorf("flag %d = %q after rejected edits", i+1, f)
		}
	}
}

func TestWorkConditionScoreFollowsEdits(t *testing.T) {
	s := New(12)
	task, err := s.AddTask("조립")
	if err != nil {
		t.Fatal(err)
	}
	ref := TableRef{Name: schema.KeyWorkConditions, Scope: task}
	id := mustAdd(t, s, ref, map[string]string{"unit_name": "수작업", "workload": "힘듦(4)", "frequency": "계속(4)"})

	score := func() int {
		wc, _ := s.Survey().WorkConditionTableFor(task)
		return wc.Rows[0].TotalScore
	}
	if score() != 16 {
		t.Errorf("score = %d, want 16", score())
	}
	if err := s.UpdateCell(ref, id, "frequency", ""); err != nil {
		t.Fatal(err)
	}
	if score() != 0 {
		t.Errorf("score = %d after clearing frequency", score())
	}
	if err := s.UpdateCell(ref, id, "total_score", "99"); !errors.Is(err, ErrReadOnlyColumn) {
		t.Errorf("total_score edit error = %v", err)
	}
}

func TestSyncWorkConditions(t *testing.T) {
	s := New(12)
	checklist := TableRef{Name: schema.KeyChecklist}
	first := mustAdd(t, s, checklist, map[string]string{"task_name": "조립", "unit_name": "운반", "cat_1": "O"})
	second := mustAdd(t, s, checklist, map[string]string{"task_name": "조립", "unit_name": "체결"})
	mustAdd(t, s, checklist, map[string]string{"task_name": "포장", "unit_name": "적재"})
	task := taskID(t, s, "조립")

	if err := s.SyncWorkConditions(task); err != nil {
		t.Fatal(err)
	}
	ref := TableRef{Name: schema.KeyWorkConditions, Scope: task}
	wc, _ := s.Survey().WorkConditionTableFor(task)
	if len(wc.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(wc.Rows))
	}
	if wc.Rows[0].Categories != "1호" || wc.Rows[1].Categories != "" {
		t.Errorf("categories = %q, %q", wc.Rows[0].Categories, wc.Rows[1].Categories)
	}
	if err := s.UpdateCell(ref, wc.Rows[0].ID, "workload", "쉬움(2)"); err != nil {
		t.Fatal(err)
	}
	manual := mustAdd(t, s, ref, map[string]string{"unit_name": "수동 추가"})

	// Rename and re-flag the first row, drop the second.
	if err := s.UpdateCell(checklist, first, "unit_name", "중량물 운반"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateCell(checklist, first, "cat_4", "△"); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveRow(checklist, second); err != nil {
		t.Fatal(err)
	}
	if err := s.SyncWorkConditions(task); err != nil {
		t.Fatal(err)
	}

	wc, _ = s.Survey().WorkConditionTableFor(task)
	if len(wc.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (synced + manual)", len(wc.Rows))
	}
	got := wc.Rows[0]
	if got.ChecklistRowID != first || got.UnitName != "중량물 운반" || got.Categories != "1호, 4호(잠재)" || got.Workload != "쉬움(2)" {
		t.Errorf("synced row = %+v", got)
	}
	if wc.Rows[1].ID != manual {
		t.Errorf("manual row not kept at the end: %+v", wc.Rows[1])
	}

	if err := s.SyncWorkConditions("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("unknown task error = %v", err)
	}
}

func TestRenameTaskKeepsLinks(t *testing.T) {
	s := New(12)
	mustAdd(t, s, TableRef{Name: schema.KeyChecklist}, map[string]string{"task_name": "조립", "unit_name": "운반", "cat_2": "O"})
	mustAdd(t, s, TableRef{Name: schema.KeyChecklist}, map[string]string{"task_name": "포장"})
	task := taskID(t, s, "조립")
	if err := s.SyncWorkConditions(task); err != nil {
		t.Fatal(err)
	}

	if err := s.RenameTask(task, "조립 라인"); err != nil {
		t.Fatalf("RenameTask: %v", err)
	}
	sv := s.Survey()
	if sv.TaskName(sv.Checklist[0].TaskID) != "조립 라인" {
		t.Errorf("checklist task = %q", sv.TaskName(sv.Checklist[0].TaskID))
	}
	if wc, ok := sv.WorkConditionTableFor(task); !ok || len(wc.Rows) != 1 {
		t.Errorf("work conditions detached after rename")
	}
	if err := s.RenameTask(task, "포장"); !errors.Is(err, ErrDuplicateTask) {
		t.Errorf("duplicate rename error = %v", err)
	}
	if err := s.RenameTask(task, "  "); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("blank rename error = %v", err)
	}
}

func TestPrefillCauseAnalysis(t *testing.T) {
	s := New(12)
	task, _ := s.AddTask("조립")
	ref := TableRef{Name: schema.KeyWorkConditions, Scope: task}
	var ids []string
	for i, cats := range []string{"1호", "", "2호", "3호", "4호", "5호", "6호", "7호", "8호"} {
		ids = append(ids, mustAdd(t, s, ref, map[string]string{"unit_name": string(rune('A' + i)), "categories": cats}))
	}

	if err := s.PrefillCauseAnalysis(task); err != nil {
		t.Fatal(err)
	}
	ca, _ := s.Survey().CauseAnalysisTableFor(task)
	if len(ca.Rows) != entity.CauseAnalysisRowCount {
		t.Fatalf("rows = %d", len(ca.Rows))
	}
	wantUnits := []string{"A", "C", "D", "E", "F", "G", "H"}
	for i, r := range ca.Rows {
		if r.No != i+1 || r.UnitName != wantUnits[i] {
			t.Errorf("row %d = no %d unit %q, want %d %q", i, r.No, r.UnitName, i+1, wantUnits[i])
		}
	}
	if ca.Rows[0].BurdenTask != "1호" {
		t.Errorf("burden task = %q", ca.Rows[0].BurdenTask)
	}

	caRef := TableRef{Name: schema.KeyCauseAnalysis, Scope: task}
	if err := s.UpdateCell(caRef, ca.Rows[1].ID, "cause", "반복 동작"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateCell(caRef, ca.Rows[1].ID, "burden_task", "x"); !errors.Is(err, ErrReadOnlyColumn) {
		t.Errorf("burden_task edit error = %v", err)
	}
	if _, err := s.AddRow(caRef, nil); !errors.Is(err, ErrFixedRows) {
		t.Errorf("add to cause analysis error = %v", err)
	}

	// Removing the first row shifts C into position 1; its cause survives.
	if err := s.RemoveRow(ref, ids[0]); err != nil {
		t.Fatal(err)
	}
	if err := s.PrefillCauseAnalysis(task); err != nil {
		t.Fatal(err)
	}
	ca, _ = s.Survey().CauseAnalysisTableFor(task)
	if ca.Rows[0].UnitName != "C" || ca.Rows[0].Cause != "반복 동작" {
		t.Errorf("row 1 = %+v", ca.Rows[0])
	}
	if ca.Rows[6].UnitName != "I" {
		t.Errorf("row 7 unit = %q, want I", ca.Rows[6].UnitName)
	}
}

func TestPrefillWithoutWorkConditions(t *testing.T) {
	s := New(12)
	task, _ := s.AddTask("조립")
	if err := s.PrefillCauseAnalysis(task); err != nil {
		t.Fatal(err)
	}
	ca, ok := s.Survey().CauseAnalysisTableFor(task)
	if !ok || len(ca.Rows) != entity.CauseAnalysisRowCount {
		t.Fatalf("expected seven blank rows, got %+v", ca)
	}
	if ca.Rows[0].UnitName != "" || ca.Rows[6].No != 7 {
		t.Errorf("rows = %+v", ca.Rows)
	}
}

func TestInvestigationForms(t *testing.T) {
	s := New(12)
	f1, _ := s.AddInvestigation()
	f2, _ := s.AddInvestigation()
	if f1.Name != "유해요인조사표 1" || f2.Name != "유해요인조사표 2" {
		t.Errorf("names = %q, %q", f1.Name, f2.Name)
	}
	if len(f1.Changes) != 4 {
		t.Fatalf("changes = %d", len(f1.Changes))
	}
	ref := TableRef{Name: schema.KeyInvestigations}
	if err := s.RemoveRow(ref, f1.ID); err != nil {
		t.Fatal(err)
	}
	f3, _ := s.AddInvestigation()
	if f3.Name != "유해요인조사표 3" {
		t.Errorf("name after removal = %q, want a fresh sequence number", f3.Name)
	}

	if err := s.UpdateCell(ref, f2.ID, "department", "생산1팀"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSituationChange(f2.ID, entity.ChangeEquipment, "no-change", "무시될 내용"); err != nil {
		t.Fatal(err)
	}
	changes := TableRef{Name: schema.KeySituationChanges, Scope: f2.ID}
	if err := s.UpdateCell(changes, string(entity.ChangeVolume), "state", "감소"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateCell(changes, string(entity.ChangeVolume), "detail", "주문 감소"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSituationChange(f2.ID, entity.ChangeSpeed, "faster", ""); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("invalid state error = %v", err)
	}

	form, _ := s.Survey().FindInvestigation(f2.ID)
	if form.Department != "생산1팀" {
		t.Errorf("department = %q", form.Department)
	}
	eq, _ := form.Change(entity.ChangeEquipment)
	if eq.Detail != "" {
		t.Errorf("detail kept for no-change: %q", eq.Detail)
	}
	vol, _ := form.Change(entity.ChangeVolume)
	if vol.State != entity.StateDecrease || vol.Detail != "주문 감소" {
		t.Errorf("volume change = %+v", vol)
	}
}

func TestDetailedImages(t *testing.T) {
	s := New(12)
	d, _ := s.AddDetailed()
	if d.Name != "정밀조사 1" {
		t.Errorf("name = %q", d.Name)
	}
	img, err := s.AttachImage(d.ID, entity.ImageRef{Key: "k", FileName: "a.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if got, err := s.Image(d.ID, img.ID); err != nil || got.Key != "k" {
		t.Errorf("Image = %+v, %v", got, err)
	}
	removed, err := s.DetachImage(d.ID, img.ID)
	if err != nil || removed.Key != "k" {
		t.Errorf("DetachImage = %+v, %v", removed, err)
	}
	if _, err := s.DetachImage(d.ID, img.ID); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("second detach error = %v", err)
	}
	if _, err := s.AttachImage("missing", entity.ImageRef{}); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("attach to missing error = %v", err)
	}
}

func TestSymptomTotals(t *testing.T) {
	s := New(12)
	ref := TableRef{Name: schema.KeyTenure}
	id := mustAdd(t, s, ref, map[string]string{"under_1": "2", "from_3_to_5": "5"})
	if err := s.UpdateCell(ref, id, "over_10", "1"); err != nil {
		t.Fatal(err)
	}
	if got := s.Survey().Symptoms.Tenure[0].Total; got != "8" {
		t.Errorf("tenure total = %q, want 8", got)
	}

	pain, _ := s.AddPainTask("포장")
	rows := TableRef{Name: schema.KeyPainRows, Scope: pain}
	_ = s.UpdateCell(rows, string(entity.PainAtRisk), "neck", "1")
	_ = s.UpdateCell(rows, string(entity.PainAtRisk), "leg", "2")
	p, _ := s.Survey().FindPainTask(pain)
	r, _ := p.Row(entity.PainAtRisk)
	if r.Total != "3" {
		t.Errorf("pain total = %q, want 3", r.Total)
	}
	if _, err := s.AddRow(rows, nil); !errors.Is(err, ErrFixedRows) {
		t.Errorf("add pain row error = %v", err)
	}
	if err := s.RemoveRow(TableRef{Name: schema.KeyPainTasks}, pain); err != nil {
		t.Errorf("remove pain task: %v", err)
	}
}
