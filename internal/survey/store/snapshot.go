package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
	"github.com/kaykim0310/wmsd-report/internal/survey/schema"
)

// SchemaVersion is the save-file layout written by Encode. Decode accepts
// any version up to it.
const SchemaVersion = 1

type saveFile struct {
	SchemaVersion    int          `json:"schema_version"`
	CategoryCount    int          `json:"category_count"`
	SavedAt          string       `json:"saved_at,omitempty"`
	Site             schema.Row   `json:"site"`
	Tasks            []schema.Row `json:"tasks"`
	Checklist        []schema.Row `json:"checklist"`
	WorkConditions   []taskRows   `json:"work_conditions"`
	CauseAnalysis    []taskRows   `json:"cause_analysis"`
	InvestigationSeq int          `json:"investigation_seq"`
	Investigations   []formDoc    `json:"investigations"`
	DetailedSeq      int          `json:"detailed_seq"`
	Detailed         []detailDoc  `json:"detailed_investigations"`
	Demographics     []schema.Row `json:"symptom_demographics"`
	Tenure           []schema.Row `json:"symptom_tenure"`
	BurdenLevels     []schema.Row `json:"symptom_burden_levels"`
	Pain             []painDoc    `json:"symptom_pain"`
	Improvements     []schema.Row `json:"improvement_plan"`
}

type taskRows struct {
	TaskID string       `json:"task_id"`
	Rows   []schema.Row `json:"rows"`
}

type formDoc struct {
	Fields           schema.Row   `json:"fields"`
	SituationChanges []schema.Row `json:"situation_changes"`
}

type detailDoc struct {
	Fields  schema.Row   `json:"fields"`
	Images  []schema.Row `json:"images"`
	Results []schema.Row `json:"results"`
}

type painDoc struct {
	Fields schema.Row   `json:"fields"`
	Rows   []schema.Row `json:"rows"`
}

// Serialize writes the current state as a save file.
func (s *Store) Serialize() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Encode(s.sv)
}

// Deserialize replaces the whole state with the save file's contents. On
// any error the current state is left untouched.
func (s *Store) Deserialize(data []byte) error {
	sv, err := Decode(data)
	if err != nil {
		return err
	}
	s.Replace(sv)
	return nil
}

// Encode 저장 파일 생성
func Encode(sv *entity.Survey) ([]byte, error) {
	f := saveFile{
		SchemaVersion:    SchemaVersion,
		CategoryCount:    sv.CategoryCount,
		SavedAt:          time.Now().UTC().Format(time.RFC3339),
		Site:             schema.Site.Encode(&sv.Site),
		Tasks:            encodeRows(schema.Tasks, sv.Tasks),
		Checklist:        encodeRows(schema.Checklist(sv.CategoryCount, sv), sv.Checklist),
		InvestigationSeq: sv.InvestigationSeq,
		DetailedSeq:      sv.DetailedSeq,
		Demographics:     encodeRows(schema.Demographics, sv.Symptoms.Demographics),
		Tenure:           encodeRows(schema.Tenure, sv.Symptoms.Tenure),
		BurdenLevels:     encodeRows(schema.BurdenLevels, sv.Symptoms.BurdenLevels),
		Improvements:     encodeRows(schema.Improvements, sv.Improvements),
	}
	for _, t := range sv.WorkConditions {
		f.WorkConditions = append(f.WorkConditions, taskRows{TaskID: t.TaskID, Rows: encodeRows(schema.WorkConditions, t.Rows)})
	}
	for _, t := range sv.CauseAnalyses {
		f.CauseAnalysis = append(f.CauseAnalysis, taskRows{TaskID: t.TaskID, Rows: encodeRows(schema.CauseAnalysis, t.Rows)})
	}
	for i := range sv.Investigations {
		inv := &sv.Investigations[i]
		f.Investigations = append(f.Investigations, formDoc{
			Fields:           schema.Investigations.Encode(inv),
			SituationChanges: encodeRows(schema.SituationChanges, inv.Changes),
		})
	}
	for i := range sv.Detailed {
		d := &sv.Detailed[i]
		f.Detailed = append(f.Detailed, detailDoc{
			Fields:  schema.Detailed.Encode(d),
			Images:  encodeRows(schema.Images, d.Images),
			Results: encodeRows(schema.AnalysisResults, d.Results),
		})
	}
	for i := range sv.Symptoms.Pain {
		p := &sv.Symptoms.Pain[i]
		f.Pain = append(f.Pain, painDoc{
			Fields: schema.PainTasks.Encode(p),
			Rows:   encodeRows(schema.PainRows, p.Rows),
		})
	}
	return json.MarshalIndent(f, "", "  ")
}

func encodeRows[R any](t *schema.Table[R], rows []R) []schema.Row {
	out := make([]schema.Row, 0, len(rows))
	for i := range rows {
		out = append(out, t.Encode(&rows[i]))
	}
	return out
}

// Decode parses and validates a save file. Every failure wraps
// ErrMalformedSnapshot.
func Decode(data []byte) (*entity.Survey, error) {
	sv, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	return sv, nil
}

func decode(data []byte) (*entity.Survey, error) {
	var f saveFile
	if err := json.Unmarshal(bytes.TrimSpace(data), &f); err != nil {
		return nil, err
	}
	switch {
	case f.SchemaVersion <= 0:
		return nil, fmt.Errorf("missing schema_version")
	case f.SchemaVersion > SchemaVersion:
		return nil, fmt.Errorf("schema_version %d is newer than supported version %d", f.SchemaVersion, SchemaVersion)
	}
	if f.CategoryCount < 1 || f.CategoryCount > entity.DefaultCategoryCount {
		return nil, fmt.Errorf("category_count %d out of range 1..%d", f.CategoryCount, entity.DefaultCategoryCount)
	}

	sv := entity.NewSurvey(f.CategoryCount)
	sv.InvestigationSeq = f.InvestigationSeq
	sv.DetailedSeq = f.DetailedSeq

	if f.Site != nil {
		if err := schema.Site.Decode(f.Site, &sv.Site); err != nil {
			return nil, err
		}
	}

	var err error
	if sv.Tasks, err = decodeRows(schema.Tasks, f.Tasks); err != nil {
		return nil, err
	}
	names := make(map[string]bool)
	for _, t := range sv.Tasks {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("task %s has no name", t.ID)
		}
		if names[t.Name] {
			return nil, fmt.Errorf("duplicate task name %q", t.Name)
		}
		names[t.Name] = true
	}

	// The checklist schema resolves task names through sv; the virtual
	// task_name column is not persisted so Decode never registers tasks.
	if sv.Checklist, err = decodeRows(schema.Checklist(sv.CategoryCount, sv), f.Checklist); err != nil {
		return nil, err
	}
	for i := range sv.Checklist {
		r := &sv.Checklist[i]
		r.NormalizeFlags(sv.CategoryCount)
		if r.TaskID != "" {
			if _, ok := sv.FindTask(r.TaskID); !ok {
				return nil, fmt.Errorf("checklist row %s references unknown task %s", r.ID, r.TaskID)
			}
		}
	}

	seenTask := make(map[string]bool)
	for _, t := range f.WorkConditions {
		if err := requireTask(sv, schema.KeyWorkConditions, t.TaskID, seenTask); err != nil {
			return nil, err
		}
		rows, err := decodeRows(schema.WorkConditions, t.Rows)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			recomputeScore(&rows[i])
		}
		sv.WorkConditions = append(sv.WorkConditions, entity.WorkConditionTable{TaskID: t.TaskID, Rows: rows})
	}

	seenTask = make(map[string]bool)
	for _, t := range f.CauseAnalysis {
		if err := requireTask(sv, schema.KeyCauseAnalysis, t.TaskID, seenTask); err != nil {
			return nil, err
		}
		rows, err := decodeRows(schema.CauseAnalysis, t.Rows)
		if err != nil {
			return nil, err
		}
		if len(rows) != entity.CauseAnalysisRowCount {
			return nil, fmt.Errorf("cause analysis for task %s has %d rows, want %d", t.TaskID, len(rows), entity.CauseAnalysisRowCount)
		}
		for i := range rows {
			rows[i].No = i + 1
		}
		sv.CauseAnalyses = append(sv.CauseAnalyses, entity.CauseAnalysisTable{TaskID: t.TaskID, Rows: rows})
	}

	formIDs := make(map[string]bool)
	for _, doc := range f.Investigations {
		var form entity.InvestigationForm
		if err := decodeOne(schema.Investigations, doc.Fields, &form, formIDs); err != nil {
			return nil, err
		}
		if form.Changes, err = decodeRows(schema.SituationChanges, doc.SituationChanges); err != nil {
			return nil, err
		}
		if err := requireChangeCategories(form); err != nil {
			return nil, err
		}
		for i := range form.Changes {
			form.Changes[i].Normalize()
		}
		sv.Investigations = append(sv.Investigations, form)
	}

	detailedIDs := make(map[string]bool)
	for _, doc := range f.Detailed {
		var d entity.DetailedInvestigation
		if err := decodeOne(schema.Detailed, doc.Fields, &d, detailedIDs); err != nil {
			return nil, err
		}
		if d.Images, err = decodeRows(schema.Images, doc.Images); err != nil {
			return nil, err
		}
		if d.Results, err = decodeRows(schema.AnalysisResults, doc.Results); err != nil {
			return nil, err
		}
		sv.Detailed = append(sv.Detailed, d)
	}

	if sv.Symptoms.Demographics, err = decodeRows(schema.Demographics, f.Demographics); err != nil {
		return nil, err
	}
	if sv.Symptoms.Tenure, err = decodeRows(schema.Tenure, f.Tenure); err != nil {
		return nil, err
	}
	for i := range sv.Symptoms.Tenure {
		sv.Symptoms.Tenure[i].Recount()
	}
	if sv.Symptoms.BurdenLevels, err = decodeRows(schema.BurdenLevels, f.BurdenLevels); err != nil {
		return nil, err
	}
	for i := range sv.Symptoms.BurdenLevels {
		sv.Symptoms.BurdenLevels[i].Recount()
	}

	painIDs := make(map[string]bool)
	for _, doc := range f.Pain {
		var p entity.PainTask
		if err := decodeOne(schema.PainTasks, doc.Fields, &p, painIDs); err != nil {
			return nil, err
		}
		if p.Rows, err = decodeRows(schema.PainRows, doc.Rows); err != nil {
			return nil, err
		}
		if err := requirePainGroups(p); err != nil {
			return nil, err
		}
		for i := range p.Rows {
			p.Rows[i].Recount()
		}
		sv.Symptoms.Pain = append(sv.Symptoms.Pain, p)
	}

	if sv.Improvements, err = decodeRows(schema.Improvements, f.Improvements); err != nil {
		return nil, err
	}

	// Sequences only grow, so generated names never repeat after a restore.
	sv.InvestigationSeq = max(sv.InvestigationSeq, len(sv.Investigations))
	sv.DetailedSeq = max(sv.DetailedSeq, len(sv.Detailed))
	return sv, nil
}

// decodeRows decodes a row list, assigning ids to rows that carry none and
// rejecting duplicate ids.
func decodeRows[R any](t *schema.Table[R], rows []schema.Row) ([]R, error) {
	var out []R
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		var r R
		if err := t.Decode(row, &r); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Key, i+1, err)
		}
		if err := assignID(t, &r, seen); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeOne[R any](t *schema.Table[R], row schema.Row, r *R, seen map[string]bool) error {
	if err := t.Decode(row, r); err != nil {
		return fmt.Errorf("%s: %w", t.Key, err)
	}
	return assignID(t, r, seen)
}

func assignID[R any](t *schema.Table[R], r *R, seen map[string]bool) error {
	id := t.ID(r)
	if id == "" {
		if t.IDKey != "" {
			return fmt.Errorf("%s: row without %s", t.Key, t.IDKey)
		}
		id = entity.NewID()
		if err := t.SetID(r, id); err != nil {
			return err
		}
	}
	if seen[id] {
		return fmt.Errorf("%s: duplicate row %s", t.Key, id)
	}
	seen[id] = true
	return nil
}

func requireTask(sv *entity.Survey, table, taskID string, seen map[string]bool) error {
	if _, ok := sv.FindTask(taskID); !ok {
		return fmt.Errorf("%s references unknown task %q", table, taskID)
	}
	if seen[taskID] {
		return fmt.Errorf("%s: task %s appears twice", table, taskID)
	}
	seen[taskID] = true
	return nil
}

func requireChangeCategories(f entity.InvestigationForm) error {
	if len(f.Changes) != len(entity.ChangeCategories) {
		return fmt.Errorf("investigation %s has %d situation changes, want %d", f.ID, len(f.Changes), len(entity.ChangeCategories))
	}
	for _, c := range entity.ChangeCategories {
		if _, ok := f.Change(c); !ok {
			return fmt.Errorf("investigation %s is missing situation change %s", f.ID, c)
		}
	}
	return nil
}

func requirePainGroups(p entity.PainTask) error {
	if len(p.Rows) != len(entity.PainGroups) {
		return fmt.Errorf("pain task %s has %d rows, want %d", p.ID, len(p.Rows), len(entity.PainGroups))
	}
	for _, g := range entity.PainGroups {
		if _, ok := p.Row(g); !ok {
			return fmt.Errorf("pain task %s is missing group %s", p.ID, g)
		}
	}
	return nil
}
