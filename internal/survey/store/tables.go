package store

import (
	"fmt"
	"slices"
	"sort"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
	"github.com/kaykim0310/wmsd-report/internal/survey/schema"
	"github.com/kaykim0310/wmsd-report/internal/survey/scoring"
)

// TableRef addresses an editable table. Scope is the id of the owning task,
// investigation form, detailed investigation or pain task for tables that
// exist once per owner.
type TableRef struct {
	Name  string `json:"table"`
	Scope string `json:"scope,omitempty"`
}

func (r TableRef) String() string {
	if r.Scope == "" {
		return r.Name
	}
	return r.Name + "[" + r.Scope + "]"
}

type tableOps interface {
	add(sv *entity.Survey, scope string, values map[string]string) (string, error)
	remove(sv *entity.Survey, scope, id string) error
	update(sv *entity.Survey, scope, id, column, value string) error
}

// binding ties a schema to the slice it edits inside a survey.
type binding[R any] struct {
	table *schema.Table[R]
	// rows locates the slice for scope; create asks for the owning table to
	// be created when the owner exists but has no rows yet.
	rows   func(sv *entity.Survey, scope string, create bool) (*[]R, error)
	init   func(sv *entity.Survey, scope string, r *R)
	derive func(r *R)
	fixed  bool
}

func (b *binding[R]) add(sv *entity.Survey, scope string, values map[string]string) (string, error) {
	if b.fixed {
		return "", fmt.Errorf("%s: %w", b.table.Key, ErrFixedRows)
	}
	rows, err := b.rows(sv, scope, true)
	if err != nil {
		return "", err
	}

	var r R
	if err := b.table.Defaults(&r); err != nil {
		return "", err
	}
	if err := b.table.SetID(&r, entity.NewID()); err != nil {
		return "", err
	}
	if b.init != nil {
		b.init(sv, scope, &r)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := b.table.Update(&r, k, values[k]); err != nil {
			return "", err
		}
	}
	if b.derive != nil {
		b.derive(&r)
	}
	*rows = append(*rows, r)
	return b.table.ID(&r), nil
}

func (b *binding[R]) find(rows []R, id string) int {
	for i := range rows {
		if b.table.ID(&rows[i]) == id {
			return i
		}
	}
	return -1
}

func (b *binding[R]) remove(sv *entity.Survey, scope, id string) error {
	if b.fixed {
		return fmt.Errorf("%s: %w", b.table.Key, ErrFixedRows)
	}
	rows, err := b.rows(sv, scope, false)
	if err != nil {
		return err
	}
	i := b.find(*rows, id)
	if i < 0 {
		return fmt.Errorf("%s: %w: %s", b.table.Key, ErrRowNotFound, id)
	}
	*rows = slices.Delete(*rows, i, i+1)
	return nil
}

func (b *binding[R]) update(sv *entity.Survey, scope, id, column, value string) error {
	rows, err := b.rows(sv, scope, false)
	if err != nil {
		return err
	}
	i := b.find(*rows, id)
	if i < 0 {
		return fmt.Errorf("%s: %w: %s", b.table.Key, ErrRowNotFound, id)
	}
	r := &(*rows)[i]
	if err := b.table.Update(r, column, value); err != nil {
		return err
	}
	if b.derive != nil {
		b.derive(r)
	}
	return nil
}

// bindings builds the edit registry for sv. The checklist schema depends on
// the survey's category count and task registry, so the registry is built
// per mutation.
func bindings(sv *entity.Survey) map[string]tableOps {
	return map[string]tableOps{
		schema.KeyChecklist: &binding[entity.ChecklistRow]{
			table: schema.Checklist(sv.CategoryCount, sv),
			rows: func(sv *entity.Survey, _ string, _ bool) (*[]entity.ChecklistRow, error) {
				return &sv.Checklist, nil
			},
			init: func(sv *entity.Survey, _ string, r *entity.ChecklistRow) {
				r.NormalizeFlags(sv.CategoryCount)
			},
		},
		schema.KeyWorkConditions: &binding[entity.WorkConditionRow]{
			table:  schema.WorkConditions,
			rows:   workConditionRows,
			derive: recomputeScore,
		},
		schema.KeyCauseAnalysis: &binding[entity.CauseAnalysisRow]{
			table: schema.CauseAnalysis,
			rows: func(sv *entity.Survey, scope string, _ bool) (*[]entity.CauseAnalysisRow, error) {
				if _, ok := sv.FindTask(scope); !ok {
					return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, scope)
				}
				t, ok := sv.CauseAnalysisTableFor(scope)
				if !ok {
					return nil, fmt.Errorf("%s: %w: %s", schema.KeyCauseAnalysis, ErrScopeNotFound, scope)
				}
				return &t.Rows, nil
			},
			fixed: true,
		},
		schema.KeyInvestigations: &binding[entity.InvestigationForm]{
			table: schema.Investigations,
			rows: func(sv *entity.Survey, _ string, _ bool) (*[]entity.InvestigationForm, error) {
				return &sv.Investigations, nil
			},
			init: func(sv *entity.Survey, _ string, r *entity.InvestigationForm) {
				sv.InvestigationSeq++
				*r = entity.NewInvestigationForm(InvestigationName(sv.InvestigationSeq))
			},
		},
		schema.KeySituationChanges: &binding[entity.SituationChange]{
			table: schema.SituationChanges,
			rows: func(sv *entity.Survey, scope string, _ bool) (*[]entity.SituationChange, error) {
				f, ok := sv.FindInvestigation(scope)
				if !ok {
					return nil, fmt.Errorf("%s: %w: %s", schema.KeyInvestigations, ErrScopeNotFound, scope)
				}
				return &f.Changes, nil
			},
			derive: func(r *entity.SituationChange) { r.Normalize() },
			fixed:  true,
		},
		schema.KeyDetailed: &binding[entity.DetailedInvestigation]{
			table: schema.Detailed,
			rows: func(sv *entity.Survey, _ string, _ bool) (*[]entity.DetailedInvestigation, error) {
				return &sv.Detailed, nil
			},
			init: func(sv *entity.Survey, _ string, r *entity.DetailedInvestigation) {
				sv.DetailedSeq++
				r.Name = DetailedName(sv.DetailedSeq)
			},
		},
		schema.KeyAnalysisResults: &binding[entity.AnalysisResult]{
			table: schema.AnalysisResults,
			rows: func(sv *entity.Survey, scope string, _ bool) (*[]entity.AnalysisResult, error) {
				d, ok := sv.FindDetailed(scope)
				if !ok {
					return nil, fmt.Errorf("%s: %w: %s", schema.KeyDetailed, ErrScopeNotFound, scope)
				}
				return &d.Results, nil
			},
		},
		schema.KeyDemographics: &binding[entity.DemographicsRow]{
			table: schema.Demographics,
			rows: func(sv *entity.Survey, _ string, _ bool) (*[]entity.DemographicsRow, error) {
				return &sv.Symptoms.Demographics, nil
			},
		},
		schema.KeyTenure: &binding[entity.TenureRow]{
			table: schema.Tenure,
			rows: func(sv *entity.Survey, _ string, _ bool) (*[]entity.TenureRow, error) {
				return &sv.Symptoms.Tenure, nil
			},
			derive: func(r *entity.TenureRow) { r.Recount() },
		},
		schema.KeyBurdenLevels: &binding[entity.BurdenLevelRow]{
			table: schema.BurdenLevels,
			rows: func(sv *entity.Survey, _ string, _ bool) (*[]entity.BurdenLevelRow, error) {
				return &sv.Symptoms.BurdenLevels, nil
			},
			derive: func(r *entity.BurdenLevelRow) { r.Recount() },
		},
		schema.KeyPainTasks: &binding[entity.PainTask]{
			table: schema.PainTasks,
			rows: func(sv *entity.Survey, _ string, _ bool) (*[]entity.PainTask, error) {
				return &sv.Symptoms.Pain, nil
			},
			init: func(_ *entity.Survey, _ string, r *entity.PainTask) {
				*r = entity.NewPainTask(r.TaskName)
			},
		},
		schema.KeyPainRows: &binding[entity.PainRow]{
			table: schema.PainRows,
			rows: func(sv *entity.Survey, scope string, _ bool) (*[]entity.PainRow, error) {
				p, ok := sv.FindPainTask(scope)
				if !ok {
					return nil, fmt.Errorf("%s: %w: %s", schema.KeyPainTasks, ErrScopeNotFound, scope)
				}
				return &p.Rows, nil
			},
			derive: func(r *entity.PainRow) { r.Recount() },
			fixed:  true,
		},
		schema.KeyImprovements: &binding[entity.ImprovementRow]{
			table: schema.Improvements,
			rows: func(sv *entity.Survey, _ string, _ bool) (*[]entity.ImprovementRow, error) {
				return &sv.Improvements, nil
			},
		},
	}
}

func lookup(sv *entity.Survey, name string) (tableOps, error) {
	ops, ok := bindings(sv)[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return ops, nil
}

func workConditionRows(sv *entity.Survey, scope string, create bool) (*[]entity.WorkConditionRow, error) {
	if _, ok := sv.FindTask(scope); !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, scope)
	}
	if t, ok := sv.WorkConditionTableFor(scope); ok {
		return &t.Rows, nil
	}
	if !create {
		return nil, fmt.Errorf("%s: %w: %s", schema.KeyWorkConditions, ErrScopeNotFound, scope)
	}
	sv.WorkConditions = append(sv.WorkConditions, entity.WorkConditionTable{TaskID: scope})
	return &sv.WorkConditions[len(sv.WorkConditions)-1].Rows, nil
}

func recomputeScore(r *entity.WorkConditionRow) {
	r.TotalScore = scoring.TotalScore(r.Workload, r.Frequency)
}

// InvestigationName 유해요인조사표 기본 이름
func InvestigationName(seq int) string {
	return fmt.Sprintf("유해요인조사표 %d", seq)
}

// DetailedName 정밀조사 기본 이름
func DetailedName(seq int) string {
	return fmt.Sprintf("정밀조사 %d", seq)
}
