// Package store holds the survey state of one editing session: table edits,
// the derived work-condition and cause-analysis tables, and the versioned
// save file.
package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
	"github.com/kaykim0310/wmsd-report/internal/survey/schema"
	"github.com/kaykim0310/wmsd-report/internal/survey/scoring"
)

// Store 편집 세션의 조사 데이터
//
// Every mutation runs against a copy of the survey that replaces the live
// one only when the whole operation succeeds.
type Store struct {
	mu sync.RWMutex
	sv *entity.Survey
}

// New 빈 조사 데이터로 시작하는 Store 생성
func New(categoryCount int) *Store {
	return &Store{sv: entity.NewSurvey(categoryCount)}
}

// FromSurvey wraps an existing survey. The store takes ownership of sv.
func FromSurvey(sv *entity.Survey) *Store {
	return &Store{sv: sv}
}

// Survey returns a copy of the current state.
func (s *Store) Survey() *entity.Survey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sv.Clone()
}

// View runs fn against the live state under the read lock. fn must not
// retain or modify sv.
func (s *Store) View(fn func(sv *entity.Survey)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.sv)
}

// CategoryCount 체크리스트 항목 수
func (s *Store) CategoryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sv.CategoryCount
}

// Replace swaps in a complete survey, as after a restore.
func (s *Store) Replace(sv *entity.Survey) {
	s.mu.Lock()
	s.sv = sv
	s.mu.Unlock()
}

func (s *Store) mutate(fn func(sv *entity.Survey) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.sv.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.sv = next
	return nil
}

// Site 사업장 개요
func (s *Store) Site() entity.SiteProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sv.Site
}

// SiteField returns one site profile field; unset fields are "".
func (s *Store) SiteField(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return schema.Site.Get(&s.sv.Site, key)
}

// SetSite updates several site profile fields at once.
func (s *Store) SetSite(fields map[string]string) error {
	return s.mutate(func(sv *entity.Survey) error {
		for k, v := range fields {
			if err := schema.Site.Update(&sv.Site, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddRow appends a row with optional initial cell values and returns its id.
func (s *Store) AddRow(ref TableRef, values map[string]string) (string, error) {
	var id string
	err := s.mutate(func(sv *entity.Survey) error {
		ops, err := lookup(sv, ref.Name)
		if err != nil {
			return err
		}
		id, err = ops.add(sv, ref.Scope, values)
		return err
	})
	return id, err
}

// RemoveRow 행 삭제
func (s *Store) RemoveRow(ref TableRef, rowID string) error {
	return s.mutate(func(sv *entity.Survey) error {
		ops, err := lookup(sv, ref.Name)
		if err != nil {
			return err
		}
		return ops.remove(sv, ref.Scope, rowID)
	})
}

// UpdateCell 셀 편집
func (s *Store) UpdateCell(ref TableRef, rowID, column, value string) error {
	return s.mutate(func(sv *entity.Survey) error {
		ops, err := lookup(sv, ref.Name)
		if err != nil {
			return err
		}
		return ops.update(sv, ref.Scope, rowID, column, value)
	})
}

// Tasks 작업 목록
func (s *Store) Tasks() []entity.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Task(nil), s.sv.Tasks...)
}

// AddTask registers a task by name, returning the existing id when the name
// is already taken.
func (s *Store) AddTask(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: task name is required", ErrInvalidValue)
	}
	var id string
	err := s.mutate(func(sv *entity.Survey) error {
		id = sv.EnsureTask(name)
		return nil
	})
	return id, err
}

// RenameTask changes a task's display name. Rows keep referencing the task
// by id, so nothing downstream is detached.
func (s *Store) RenameTask(taskID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: task name is required", ErrInvalidValue)
	}
	return s.mutate(func(sv *entity.Survey) error {
		t, ok := sv.FindTask(taskID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		for _, other := range sv.Tasks {
			if other.ID != taskID && other.Name == name {
				return fmt.Errorf("%w: %s", ErrDuplicateTask, name)
			}
		}
		t.Name = name
		return nil
	})
}

// SyncWorkConditions derives the task's work-condition table from its
// checklist rows: one row per checklist row in checklist order, followed by
// manually added rows. Workload and frequency selections survive the sync;
// rows whose checklist row is gone are dropped.
func (s *Store) SyncWorkConditions(taskID string) error {
	return s.mutate(func(sv *entity.Survey) error {
		return syncWorkConditions(sv, taskID)
	})
}

func syncWorkConditions(sv *entity.Survey, taskID string) error {
	rows, err := workConditionRows(sv, taskID, true)
	if err != nil {
		return err
	}

	linked := make(map[string]entity.WorkConditionRow)
	var manual []entity.WorkConditionRow
	for _, r := range *rows {
		if r.ChecklistRowID == "" {
			manual = append(manual, r)
			continue
		}
		linked[r.ChecklistRowID] = r
	}

	var next []entity.WorkConditionRow
	for _, cr := range sv.ChecklistRowsForTask(taskID) {
		r, ok := linked[cr.ID]
		if !ok {
			r = entity.WorkConditionRow{ID: entity.NewID(), ChecklistRowID: cr.ID}
		}
		r.UnitName = cr.UnitName
		r.Categories = scoring.CategorySummary(cr.Flags)
		next = append(next, r)
	}
	next = append(next, manual...)
	for i := range next {
		recomputeScore(&next[i])
	}
	*rows = next
	return nil
}

// PrefillCauseAnalysis fills the task's fixed seven-row cause analysis from
// the first seven work-condition rows that carry a burden category. Rows
// still attached to the same work-condition row keep their free text.
func (s *Store) PrefillCauseAnalysis(taskID string) error {
	return s.mutate(func(sv *entity.Survey) error {
		return prefillCauseAnalysis(sv, taskID)
	})
}

func prefillCauseAnalysis(sv *entity.Survey, taskID string) error {
	if _, ok := sv.FindTask(taskID); !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	var candidates []entity.WorkConditionRow
	if wc, ok := sv.WorkConditionTableFor(taskID); ok {
		for _, r := range wc.Rows {
			if strings.TrimSpace(r.Categories) == "" {
				continue
			}
			candidates = append(candidates, r)
			if len(candidates) == entity.CauseAnalysisRowCount {
				break
			}
		}
	}

	ca, ok := sv.CauseAnalysisTableFor(taskID)
	if !ok {
		sv.CauseAnalyses = append(sv.CauseAnalyses, entity.CauseAnalysisTable{TaskID: taskID})
		ca = &sv.CauseAnalyses[len(sv.CauseAnalyses)-1]
	}
	prev := ca.Rows
	byLink := make(map[string]entity.CauseAnalysisRow)
	for _, r := range prev {
		if r.WorkConditionRowID != "" {
			byLink[r.WorkConditionRowID] = r
		}
	}

	rows := make([]entity.CauseAnalysisRow, entity.CauseAnalysisRowCount)
	for i := range rows {
		var r entity.CauseAnalysisRow
		switch {
		case i < len(candidates):
			c := candidates[i]
			old, kept := byLink[c.ID]
			if kept {
				r = old
			} else {
				r = entity.CauseAnalysisRow{ID: entity.NewID()}
			}
			r.WorkConditionRowID = c.ID
			r.UnitName = c.UnitName
			r.BurdenTask = c.Categories
		case i < len(prev) && prev[i].WorkConditionRowID == "":
			r = prev[i]
		default:
			r = entity.CauseAnalysisRow{ID: entity.NewID()}
		}
		r.No = i + 1
		rows[i] = r
	}
	ca.Rows = rows
	return nil
}

// AddInvestigation 유해요인조사표 추가 ("유해요인조사표 N")
func (s *Store) AddInvestigation() (entity.InvestigationForm, error) {
	id, err := s.AddRow(TableRef{Name: schema.KeyInvestigations}, nil)
	if err != nil {
		return entity.InvestigationForm{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, _ := s.sv.FindInvestigation(id)
	return *f, nil
}

// SetSituationChange records the state of one situation-change category.
// The detail is dropped when the state is no-change.
func (s *Store) SetSituationChange(formID string, category entity.ChangeCategory, state, detail string) error {
	return s.mutate(func(sv *entity.Survey) error {
		f, ok := sv.FindInvestigation(formID)
		if !ok {
			return fmt.Errorf("%s: %w: %s", schema.KeyInvestigations, ErrRowNotFound, formID)
		}
		c, ok := f.Change(category)
		if !ok {
			return fmt.Errorf("%w: %q is not a change category", ErrInvalidValue, category)
		}
		st, ok := entity.ParseChangeState(state)
		if !ok {
			return fmt.Errorf("%w: %q is not a change state", ErrInvalidValue, state)
		}
		c.State = st
		c.Detail = detail
		c.Normalize()
		return nil
	})
}

// AddDetailed 정밀조사 추가 ("정밀조사 N")
func (s *Store) AddDetailed() (entity.DetailedInvestigation, error) {
	id, err := s.AddRow(TableRef{Name: schema.KeyDetailed}, nil)
	if err != nil {
		return entity.DetailedInvestigation{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, _ := s.sv.FindDetailed(id)
	return *d, nil
}

// AttachImage records an uploaded image on a detailed investigation. The
// blob itself lives outside the store; ref.Key points at it.
func (s *Store) AttachImage(detailedID string, ref entity.ImageRef) (entity.ImageRef, error) {
	if ref.ID == "" {
		ref.ID = entity.NewID()
	}
	err := s.mutate(func(sv *entity.Survey) error {
		d, ok := sv.FindDetailed(detailedID)
		if !ok {
			return fmt.Errorf("%s: %w: %s", schema.KeyDetailed, ErrRowNotFound, detailedID)
		}
		d.Images = append(d.Images, ref)
		return nil
	})
	return ref, err
}

// Image 이미지 참조 조회
func (s *Store) Image(detailedID, imageID string) (entity.ImageRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.sv.FindDetailed(detailedID)
	if !ok {
		return entity.ImageRef{}, fmt.Errorf("%s: %w: %s", schema.KeyDetailed, ErrRowNotFound, detailedID)
	}
	img, ok := d.FindImage(imageID)
	if !ok {
		return entity.ImageRef{}, fmt.Errorf("%w: %s", ErrImageNotFound, imageID)
	}
	return *img, nil
}

// DetachImage removes the image reference and returns it so the caller can
// delete the blob.
func (s *Store) DetachImage(detailedID, imageID string) (entity.ImageRef, error) {
	var removed entity.ImageRef
	err := s.mutate(func(sv *entity.Survey) error {
		d, ok := sv.FindDetailed(detailedID)
		if !ok {
			return fmt.Errorf("%s: %w: %s", schema.KeyDetailed, ErrRowNotFound, detailedID)
		}
		for i, img := range d.Images {
			if img.ID == imageID {
				removed = img
				d.Images = append(d.Images[:i], d.Images[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrImageNotFound, imageID)
	})
	return removed, err
}

// AddPainTask 통증호소 작업 추가 (정상/관리대상자/통증호소자 3행)
func (s *Store) AddPainTask(taskName string) (string, error) {
	return s.AddRow(TableRef{Name: schema.KeyPainTasks}, map[string]string{"task_name": taskName})
}
