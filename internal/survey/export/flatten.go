// Package export flattens a survey into named tables and renders them as a
// workbook or a paginated document.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
	"github.com/kaykim0310/wmsd-report/internal/survey/schema"
	"github.com/kaykim0310/wmsd-report/internal/survey/scoring"
)

// 시트 표시 이름
const (
	NameSite           = "사업장개요"
	NameChecklist      = "체크리스트"
	NameWorkConditions = "작업조건조사"
	NameCauseAnalysis  = "원인분석"
	NameDemographics   = "증상조사_기초현황"
	NameTenure         = "증상조사_근속기간"
	NameBurdenLevels   = "증상조사_육체적부담"
	NamePain           = "증상조사_통증호소"
	NameImprovements   = "개선계획"

	TitleChecklist    = "근골격계 부담작업 체크리스트"
	TitleImprovements = "작업환경 개선계획서"
	TitleReport       = "근골격계 부담작업 유해요인조사 보고서"
)

// Table is one logical table ready for rendering.
type Table struct {
	Key  string
	Name string
	// Task is the owning task's name for per-task tables.
	Task string
	// Title, when set, is written above the header row.
	Title   string
	Headers []string
	Rows    [][]any
}

// SheetBase 시트 이름 원본 (작업별 표는 "이름_작업명")
func (t Table) SheetBase() string {
	if t.Task == "" {
		return t.Name
	}
	return t.Name + "_" + t.Task
}

// Flatten produces the logical tables of sv in report order. Tables that
// cannot be built are skipped and reported as warnings.
func Flatten(sv *entity.Survey) ([]Table, []Warning) {
	f := flattener{sv: sv}

	f.one(NameSite, func() (Table, error) {
		return Table{
			Key:     schema.KeySite,
			Name:    NameSite,
			Headers: schema.Site.Headers(),
			Rows:    [][]any{schema.Site.Cells(&sv.Site)},
		}, nil
	})

	if len(sv.Checklist) > 0 {
		f.one(NameChecklist, func() (Table, error) {
			tbl := schema.Checklist(sv.CategoryCount, sv)
			return Table{
				Key:     schema.KeyChecklist,
				Name:    NameChecklist,
				Title:   TitleChecklist,
				Headers: tbl.Headers(),
				Rows:    rowsOf(tbl, sv.Checklist, false),
			}, nil
		})
	}

	for i := range sv.Investigations {
		form := &sv.Investigations[i]
		f.one(form.Name, func() (Table, error) { return investigationTable(form) })
	}
	for i := range sv.Detailed {
		d := &sv.Detailed[i]
		f.one(d.Name, func() (Table, error) { return detailedTable(d), nil })
	}

	for i := range sv.WorkConditions {
		wc := &sv.WorkConditions[i]
		f.one(NameWorkConditions, func() (Table, error) {
			task, err := f.task(wc.TaskID)
			if err != nil {
				return Table{}, err
			}
			headers := append(schema.WorkConditions.Headers(), "위험도")
			var rows [][]any
			for j := range wc.Rows {
				r := &wc.Rows[j]
				rows = append(rows, append(schema.WorkConditions.Cells(r), string(scoring.ScoreBand(r.TotalScore))))
			}
			return Table{Key: schema.KeyWorkConditions, Name: NameWorkConditions, Task: task, Headers: headers, Rows: rows}, nil
		})
	}
	for i := range sv.CauseAnalyses {
		ca := &sv.CauseAnalyses[i]
		f.one(NameCauseAnalysis, func() (Table, error) {
			task, err := f.task(ca.TaskID)
			if err != nil {
				return Table{}, err
			}
			if len(ca.Rows) != entity.CauseAnalysisRowCount {
				return Table{}, fmt.Errorf("cause analysis has %d rows, want %d", len(ca.Rows), entity.CauseAnalysisRowCount)
			}
			return Table{
				Key:     schema.KeyCauseAnalysis,
				Name:    NameCauseAnalysis,
				Task:    task,
				Headers: schema.CauseAnalysis.Headers(),
				Rows:    rowsOf(schema.CauseAnalysis, ca.Rows, false),
			}, nil
		})
	}

	symptoms := &sv.Symptoms
	if len(symptoms.Demographics) > 0 {
		f.one(NameDemographics, func() (Table, error) {
			return simpleTable(schema.Demographics, NameDemographics, symptoms.Demographics), nil
		})
	}
	if len(symptoms.Tenure) > 0 {
		f.one(NameTenure, func() (Table, error) {
			return simpleTable(schema.Tenure, NameTenure, symptoms.Tenure), nil
		})
	}
	if len(symptoms.BurdenLevels) > 0 {
		f.one(NameBurdenLevels, func() (Table, error) {
			return simpleTable(schema.BurdenLevels, NameBurdenLevels, symptoms.BurdenLevels), nil
		})
	}
	if len(symptoms.Pain) > 0 {
		f.one(NamePain, func() (Table, error) { return painTable(symptoms.Pain) })
	}

	if len(sv.Improvements) > 0 {
		f.one(NameImprovements, func() (Table, error) {
			return Table{
				Key:     schema.KeyImprovements,
				Name:    NameImprovements,
				Title:   TitleImprovements,
				Headers: schema.Improvements.Headers(),
				Rows:    rowsOf(schema.Improvements, sv.Improvements, true),
			}, nil
		})
	}

	return f.tables, f.warnings
}

type flattener struct {
	sv       *entity.Survey
	tables   []Table
	warnings []Warning
}

// one builds a single table, turning errors and panics into warnings.
func (f *flattener) one(name string, build func() (Table, error)) {
	t, err := func() (t Table, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return build()
	}()
	if err != nil {
		f.warnings = append(f.warnings, skipped(name, err))
		return
	}
	f.tables = append(f.tables, t)
}

func (f *flattener) task(id string) (string, error) {
	t, ok := f.sv.FindTask(id)
	if !ok {
		return "", fmt.Errorf("orphan table: task %q does not exist", id)
	}
	return t.Name, nil
}

func rowsOf[R any](t *schema.Table[R], rows []R, dropBlank bool) [][]any {
	out := make([][]any, 0, len(rows))
	for i := range rows {
		if dropBlank && t.Blank(&rows[i]) {
			continue
		}
		out = append(out, t.Cells(&rows[i]))
	}
	return out
}

func simpleTable[R any](t *schema.Table[R], name string, rows []R) Table {
	return Table{Key: t.Key, Name: name, Headers: t.Headers(), Rows: rowsOf(t, rows, false)}
}

func investigationTable(form *entity.InvestigationForm) (Table, error) {
	if len(form.Changes) != len(entity.ChangeCategories) {
		return Table{}, fmt.Errorf("form has %d situation changes, want %d", len(form.Changes), len(entity.ChangeCategories))
	}
	t := Table{
		Key:     schema.KeyInvestigations,
		Name:    form.Name,
		Headers: []string{"항목", "내용", "세부내용"},
	}
	cols := schema.Investigations.Visible()
	for _, c := range cols[1:] {
		t.Rows = append(t.Rows, []any{c.Header, c.Get(form), ""})
	}
	for i := range form.Changes {
		ch := &form.Changes[i]
		t.Rows = append(t.Rows, []any{ch.Category.Label(), ch.State.Label(), ch.Detail})
	}
	return t, nil
}

func detailedTable(d *entity.DetailedInvestigation) Table {
	t := Table{
		Key:     schema.KeyDetailed,
		Name:    d.Name,
		Headers: append([]string{"공정명", "작업명"}, append(schema.AnalysisResults.Headers(), "첨부 이미지")...),
	}
	var images []string
	for _, img := range d.Images {
		images = append(images, img.FileName)
	}
	attached := strings.Join(images, ", ")
	if len(d.Results) == 0 {
		t.Rows = append(t.Rows, []any{d.ProcessName, d.TaskName, "", "", "", attached})
		return t
	}
	for i := range d.Results {
		row := append([]any{d.ProcessName, d.TaskName}, schema.AnalysisResults.Cells(&d.Results[i])...)
		if i == 0 {
			row = append(row, attached)
		} else {
			row = append(row, "")
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func painTable(tasks []entity.PainTask) (Table, error) {
	t := Table{
		Key:     schema.KeyPainTasks,
		Name:    NamePain,
		Headers: append([]string{"작업명"}, schema.PainRows.Headers()...),
	}
	for i := range tasks {
		p := &tasks[i]
		if len(p.Rows) != len(entity.PainGroups) {
			return Table{}, fmt.Errorf("pain task %q has %d rows, want %d", p.TaskName, len(p.Rows), len(entity.PainGroups))
		}
		for j := range p.Rows {
			t.Rows = append(t.Rows, append([]any{p.TaskName}, schema.PainRows.Cells(&p.Rows[j])...))
		}
	}
	return t, nil
}

// cellText renders a cell for text-only outputs.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
