package schema

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
)

func TestChecklistHeaders(t *testing.T) {
	sv := entity.NewSurvey(11)
	tbl := Checklist(sv.CategoryCount, sv)
	got := tbl.Headers()
	want := []string{"부", "팀", "작업명", "단위작업명", "일일 해당작업 시간", "중량(kg)",
		"1호", "2호", "3호", "4호", "5호", "6호", "7호", "8호", "9호", "10호", "11호"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Headers = %v\nwant %v", got, want)
	}
}

func TestChecklistTaskColumn(t *testing.T) {
	sv := entity.NewSurvey(12)
	tbl := Checklist(sv.CategoryCount, sv)

	var r entity.ChecklistRow
	if err := tbl.Defaults(&r); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Update(&r, "task_name", "조립"); err != nil {
		t.Fatal(err)
	}
	if r.TaskID == "" || sv.TaskName(r.TaskID) != "조립" {
		t.Fatalf("task not registered: %+v / %+v", r, sv.Tasks)
	}
	if v, _ := tbl.Get(&r, "task_name"); v != "조립" {
		t.Errorf("task_name = %q", v)
	}

	row := tbl.Encode(&r)
	if _, ok := row["task_name"]; ok {
		t.Error("virtual column persisted")
	}
	if string(row["task_id"]) != `"`+r.TaskID+`"` {
		t.Errorf("task_id cell = %s", row["task_id"])
	}
}

func TestChecklistCellsRenderMarks(t *testing.T) {
	sv := entity.NewSurvey(3)
	tbl := Checklist(sv.CategoryCount, sv)
	r := entity.ChecklistRow{UnitName: "운반"}
	r.NormalizeFlags(3)
	r.SetFlag(1, entity.FlagApplicable)
	r.SetFlag(3, entity.FlagPotential)

	got := tbl.Cells(&r)
	want := []any{"", "", "", "운반", "", "", "O", "X", "△"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Cells = %#v\nwant %#v", got, want)
	}
}

func TestUpdateRejects(t *testing.T) {
	var r entity.WorkConditionRow
	if err := WorkConditions.Update(&r, "id", "x"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("hidden column error = %v", err)
	}
	if err := WorkConditions.Update(&r, "total_score", "3"); !errors.Is(err, ErrReadOnlyColumn) {
		t.Errorf("read-only column error = %v", err)
	}
	if err := WorkConditions.Update(&r, "nope", "3"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("unknown column error = %v", err)
	}
}

func TestEncodeDecodeCellTypes(t *testing.T) {
	r := entity.WorkConditionRow{ID: "w1", Workload: "쉬움(2)", TotalScore: 6}
	row := WorkConditions.Encode(&r)
	if string(row["total_score"]) != "6" {
		t.Errorf("total_score = %s, want bare number", row["total_score"])
	}

	in := Row{
		"id":          json.RawMessage(`"w2"`),
		"unit_name":   json.RawMessage(`12`),
		"workload":    json.RawMessage(`null`),
		"total_score": json.RawMessage(`"4"`),
	}
	var got entity.WorkConditionRow
	if err := WorkConditions.Decode(in, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != "w2" || got.UnitName != "12" || got.Workload != "" || got.TotalScore != 4 {
		t.Errorf("decoded %+v", got)
	}

	in["total_score"] = json.RawMessage(`1.5`)
	if err := WorkConditions.Decode(in, &got); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("fractional score error = %v", err)
	}
}

func TestDecodeAppliesDefaults(t *testing.T) {
	var c entity.SituationChange
	if err := SituationChanges.Decode(Row{"category": json.RawMessage(`"work-speed"`)}, &c); err != nil {
		t.Fatal(err)
	}
	if c.State != entity.StateNoChange {
		t.Errorf("state = %q, want default no-change", c.State)
	}
	if err := SituationChanges.Decode(Row{"category": json.RawMessage(`"weather"`)}, &c); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("bad category error = %v", err)
	}
}

func TestBlank(t *testing.T) {
	r := entity.ImprovementRow{ID: "x"}
	if !Improvements.Blank(&r) {
		t.Error("row with only an id should be blank")
	}
	r.Cost = " 100만원 "
	if Improvements.Blank(&r) {
		t.Error("row with a cost should not be blank")
	}
	p := entity.TenureRow{Total: "5"}
	if !Tenure.Blank(&p) {
		t.Error("derived totals do not count as content")
	}
}
