package schema

import (
	"fmt"
	"strconv"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
	"github.com/kaykim0310/wmsd-report/internal/survey/scoring"
)

// 표 키 (저장 파일 최상위 키, 셀 편집 API의 표 이름)
const (
	KeySite             = "site"
	KeyTasks            = "tasks"
	KeyChecklist        = "checklist"
	KeyWorkConditions   = "work_conditions"
	KeyCauseAnalysis    = "cause_analysis"
	KeyInvestigations   = "investigations"
	KeySituationChanges = "situation_changes"
	KeyDetailed         = "detailed_investigations"
	KeyImages           = "images"
	KeyAnalysisResults  = "analysis_results"
	KeyDemographics     = "symptom_demographics"
	KeyTenure           = "symptom_tenure"
	KeyBurdenLevels     = "symptom_burden_levels"
	KeyPainTasks        = "symptom_pain"
	KeyPainRows         = "symptom_pain_rows"
	KeyImprovements     = "improvement_plan"
)

// TaskDirectory resolves checklist task references. *entity.Survey
// implements it.
type TaskDirectory interface {
	TaskName(id string) string
	EnsureTask(name string) string
}

var Site = &Table[entity.SiteProfile]{
	Key:   KeySite,
	Title: "사업장개요",
	IDKey: "name",
	Columns: []Column[entity.SiteProfile]{
		TextColumn("name", "사업장명", func(r *entity.SiteProfile) *string { return &r.Name }),
		TextColumn("address", "소재지", func(r *entity.SiteProfile) *string { return &r.Address }),
		TextColumn("industry", "업종", func(r *entity.SiteProfile) *string { return &r.Industry }),
		TextColumn("preliminary_date", "예비조사일", func(r *entity.SiteProfile) *string { return &r.PreliminaryDate }),
		TextColumn("main_date", "본조사일", func(r *entity.SiteProfile) *string { return &r.MainDate }),
		TextColumn("organization", "수행기관", func(r *entity.SiteProfile) *string { return &r.Organization }),
		TextColumn("investigator", "성명", func(r *entity.SiteProfile) *string { return &r.Investigator }),
	},
}

var Tasks = &Table[entity.Task]{
	Key:   KeyTasks,
	Title: "작업",
	Columns: []Column[entity.Task]{
		HiddenColumn("id", func(r *entity.Task) *string { return &r.ID }),
		TextColumn("name", "작업명", func(r *entity.Task) *string { return &r.Name }),
	},
}

// Checklist builds the checklist schema for the given category count. The
// task name column resolves through dir and is not persisted; rows store the
// task id.
func Checklist(categoryCount int, dir TaskDirectory) *Table[entity.ChecklistRow] {
	cols := []Column[entity.ChecklistRow]{
		HiddenColumn("id", func(r *entity.ChecklistRow) *string { return &r.ID }),
		HiddenColumn("task_id", func(r *entity.ChecklistRow) *string { return &r.TaskID }),
		TextColumn("department", "부", func(r *entity.ChecklistRow) *string { return &r.Department }),
		TextColumn("team", "팀", func(r *entity.ChecklistRow) *string { return &r.Team }),
		{
			Key:     "task_name",
			Header:  "작업명",
			Virtual: true,
			Get:     func(r *entity.ChecklistRow) string { return dir.TaskName(r.TaskID) },
			Set: func(r *entity.ChecklistRow, v string) error {
				r.TaskID = dir.EnsureTask(v)
				return nil
			},
		},
		TextColumn("unit_name", "단위작업명", func(r *entity.ChecklistRow) *string { return &r.UnitName }),
		TextColumn("daily_hours", "일일 해당작업 시간", func(r *entity.ChecklistRow) *string { return &r.DailyHours }),
		TextColumn("weight_kg", "중량(kg)", func(r *entity.ChecklistRow) *string { return &r.WeightKg }),
	}
	for i := 1; i <= categoryCount; i++ {
		cols = append(cols, flagColumn(i))
	}
	return &Table[entity.ChecklistRow]{Key: KeyChecklist, Title: "근골격계 부담작업 체크리스트", Columns: cols}
}

// FlagColumnKey 체크리스트 항목 열 키 ("cat_3")
func FlagColumnKey(category int) string {
	return "cat_" + strconv.Itoa(category)
}

func flagColumn(category int) Column[entity.ChecklistRow] {
	return Column[entity.ChecklistRow]{
		Key:     FlagColumnKey(category),
		Header:  scoring.CategoryLabel(category),
		Default: string(entity.FlagNotApplicable),
		Get:     func(r *entity.ChecklistRow) string { return string(r.Flag(category)) },
		Set: func(r *entity.ChecklistRow, v string) error {
			f, ok := entity.ParseFlag(v)
			if !ok {
				return fmt.Errorf("%w: %q is not a checklist state", ErrInvalidValue, v)
			}
			r.SetFlag(category, f)
			return nil
		},
		Format: func(r *entity.ChecklistRow) string { return r.Flag(category).Mark() },
	}
}

var WorkConditions = &Table[entity.WorkConditionRow]{
	Key:   KeyWorkConditions,
	Title: "작업조건조사",
	Columns: []Column[entity.WorkConditionRow]{
		HiddenColumn("id", func(r *entity.WorkConditionRow) *string { return &r.ID }),
		HiddenColumn("checklist_row_id", func(r *entity.WorkConditionRow) *string { return &r.ChecklistRowID }),
		TextColumn("unit_name", "단위작업명", func(r *entity.WorkConditionRow) *string { return &r.UnitName }),
		TextColumn("categories", "부담작업(호)", func(r *entity.WorkConditionRow) *string { return &r.Categories }),
		TextColumn("workload", "작업부하(A)", func(r *entity.WorkConditionRow) *string { return &r.Workload }),
		TextColumn("frequency", "작업빈도(B)", func(r *entity.WorkConditionRow) *string { return &r.Frequency }),
		IntColumn("total_score", "총점수(A×B)", func(r *entity.WorkConditionRow) *int { return &r.TotalScore }).AsReadOnly(),
	},
}

var CauseAnalysis = &Table[entity.CauseAnalysisRow]{
	Key:   KeyCauseAnalysis,
	Title: "원인분석",
	Columns: []Column[entity.CauseAnalysisRow]{
		HiddenColumn("id", func(r *entity.CauseAnalysisRow) *string { return &r.ID }),
		HiddenColumn("work_condition_row_id", func(r *entity.CauseAnalysisRow) *string { return &r.WorkConditionRowID }),
		IntColumn("no", "번호", func(r *entity.CauseAnalysisRow) *int { return &r.No }).AsReadOnly(),
		TextColumn("unit_name", "단위작업명", func(r *entity.CauseAnalysisRow) *string { return &r.UnitName }),
		TextColumn("hazard_factor", "유해요인", func(r *entity.CauseAnalysisRow) *string { return &r.HazardFactor }),
		TextColumn("burden_task", "부담작업", func(r *entity.CauseAnalysisRow) *string { return &r.BurdenTask }).AsReadOnly(),
		TextColumn("cause", "발생원인", func(r *entity.CauseAnalysisRow) *string { return &r.Cause }),
		TextColumn("remarks", "비고", func(r *entity.CauseAnalysisRow) *string { return &r.Remarks }),
	},
}

var Investigations = &Table[entity.InvestigationForm]{
	Key:   KeyInvestigations,
	Title: "유해요인조사표",
	Columns: []Column[entity.InvestigationForm]{
		HiddenColumn("id", func(r *entity.InvestigationForm) *string { return &r.ID }),
		TextColumn("name", "조사표명", func(r *entity.InvestigationForm) *string { return &r.Name }),
		TextColumn("surveyed_at", "조사일시", func(r *entity.InvestigationForm) *string { return &r.SurveyedAt }),
		TextColumn("department", "부서명", func(r *entity.InvestigationForm) *string { return &r.Department }),
		TextColumn("investigator", "조사자", func(r *entity.InvestigationForm) *string { return &r.Investigator }),
		TextColumn("process_name", "공정명", func(r *entity.InvestigationForm) *string { return &r.ProcessName }),
		TextColumn("task_name", "작업명", func(r *entity.InvestigationForm) *string { return &r.TaskName }),
	},
}

var SituationChanges = &Table[entity.SituationChange]{
	Key:   KeySituationChanges,
	Title: "작업상황 변화",
	IDKey: "category",
	Columns: []Column[entity.SituationChange]{
		{
			Key:      "category",
			Header:   "구분",
			ReadOnly: true,
			Get:      func(r *entity.SituationChange) string { return string(r.Category) },
			Set: func(r *entity.SituationChange, v string) error {
				c := entity.ChangeCategory(v)
				if !c.Valid() {
					return fmt.Errorf("%w: %q is not a change category", ErrInvalidValue, v)
				}
				r.Category = c
				return nil
			},
			Format: func(r *entity.SituationChange) string { return r.Category.Label() },
		},
		{
			Key:     "state",
			Header:  "상태",
			Default: string(entity.StateNoChange),
			Get:     func(r *entity.SituationChange) string { return string(r.State) },
			Set: func(r *entity.SituationChange, v string) error {
				s, ok := entity.ParseChangeState(v)
				if !ok {
					return fmt.Errorf("%w: %q is not a change state", ErrInvalidValue, v)
				}
				r.State = s
				return nil
			},
			Format: func(r *entity.SituationChange) string { return r.State.Label() },
		},
		TextColumn("detail", "세부내용", func(r *entity.SituationChange) *string { return &r.Detail }),
	},
}

var Detailed = &Table[entity.DetailedInvestigation]{
	Key:   KeyDetailed,
	Title: "정밀조사",
	Columns: []Column[entity.DetailedInvestigation]{
		HiddenColumn("id", func(r *entity.DetailedInvestigation) *string { return &r.ID }),
		TextColumn("name", "조사명", func(r *entity.DetailedInvestigation) *string { return &r.Name }),
		TextColumn("process_name", "공정명", func(r *entity.DetailedInvestigation) *string { return &r.ProcessName }),
		TextColumn("task_name", "작업명", func(r *entity.DetailedInvestigation) *string { return &r.TaskName }),
	},
}

var Images = &Table[entity.ImageRef]{
	Key:   KeyImages,
	Title: "첨부 이미지",
	Columns: []Column[entity.ImageRef]{
		HiddenColumn("id", func(r *entity.ImageRef) *string { return &r.ID }),
		HiddenColumn("key", func(r *entity.ImageRef) *string { return &r.Key }),
		TextColumn("file_name", "파일명", func(r *entity.ImageRef) *string { return &r.FileName }),
		TextColumn("content_type", "형식", func(r *entity.ImageRef) *string { return &r.ContentType }).AsReadOnly(),
		{
			Key:      "size",
			Header:   "크기(byte)",
			Kind:     Int,
			ReadOnly: true,
			Get:      func(r *entity.ImageRef) string { return strconv.FormatInt(r.Size, 10) },
			Set: func(r *entity.ImageRef, v string) error {
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil || n < 0 {
					return fmt.Errorf("%w: %q is not a size", ErrInvalidValue, v)
				}
				r.Size = n
				return nil
			},
		},
	},
}

var AnalysisResults = &Table[entity.AnalysisResult]{
	Key:   KeyAnalysisResults,
	Title: "분석결과",
	Columns: []Column[entity.AnalysisResult]{
		HiddenColumn("id", func(r *entity.AnalysisResult) *string { return &r.ID }),
		TextColumn("tool", "분석도구", func(r *entity.AnalysisResult) *string { return &r.Tool }),
		TextColumn("result", "분석결과", func(r *entity.AnalysisResult) *string { return &r.Result }),
		TextColumn("max_score", "최대점수", func(r *entity.AnalysisResult) *string { return &r.MaxScore }),
	},
}

var Demographics = &Table[entity.DemographicsRow]{
	Key:   KeyDemographics,
	Title: "증상조사_기초현황",
	Columns: []Column[entity.DemographicsRow]{
		HiddenColumn("id", func(r *entity.DemographicsRow) *string { return &r.ID }),
		TextColumn("task_name", "작업명", func(r *entity.DemographicsRow) *string { return &r.TaskName }),
		TextColumn("respondents", "응답자(명)", func(r *entity.DemographicsRow) *string { return &r.Respondents }),
		TextColumn("male", "남", func(r *entity.DemographicsRow) *string { return &r.Male }),
		TextColumn("female", "여", func(r *entity.DemographicsRow) *string { return &r.Female }),
		TextColumn("average_age", "평균연령", func(r *entity.DemographicsRow) *string { return &r.AverageAge }),
		TextColumn("average_tenure", "평균근속년수", func(r *entity.DemographicsRow) *string { return &r.AverageTenure }),
	},
}

var Tenure = &Table[entity.TenureRow]{
	Key:   KeyTenure,
	Title: "증상조사_근속기간",
	Columns: []Column[entity.TenureRow]{
		HiddenColumn("id", func(r *entity.TenureRow) *string { return &r.ID }),
		TextColumn("task_name", "작업명", func(r *entity.TenureRow) *string { return &r.TaskName }),
		TextColumn("under_1", "1년 미만", func(r *entity.TenureRow) *string { return &r.Under1 }),
		TextColumn("from_1_to_3", "1~3년 미만", func(r *entity.TenureRow) *string { return &r.From1To3 }),
		TextColumn("from_3_to_5", "3~5년 미만", func(r *entity.TenureRow) *string { return &r.From3To5 }),
		TextColumn("from_5_to_10", "5~10년 미만", func(r *entity.TenureRow) *string { return &r.From5To10 }),
		TextColumn("over_10", "10년 이상", func(r *entity.TenureRow) *string { return &r.Over10 }),
		TextColumn("total", "합계", func(r *entity.TenureRow) *string { return &r.Total }).AsReadOnly(),
	},
}

var BurdenLevels = &Table[entity.BurdenLevelRow]{
	Key:   KeyBurdenLevels,
	Title: "증상조사_육체적부담",
	Columns: []Column[entity.BurdenLevelRow]{
		HiddenColumn("id", func(r *entity.BurdenLevelRow) *string { return &r.ID }),
		TextColumn("task_name", "작업명", func(r *entity.BurdenLevelRow) *string { return &r.TaskName }),
		TextColumn("none", "전혀 힘들지 않음", func(r *entity.BurdenLevelRow) *string { return &r.None }),
		TextColumn("tolerable", "견딜만 함", func(r *entity.BurdenLevelRow) *string { return &r.Tolerable }),
		TextColumn("slight", "약간 힘듦", func(r *entity.BurdenLevelRow) *string { return &r.Slight }),
		TextColumn("hard", "힘듦", func(r *entity.BurdenLevelRow) *string { return &r.Hard }),
		TextColumn("very_hard", "매우 힘듦", func(r *entity.BurdenLevelRow) *string { return &r.VeryHard }),
		TextColumn("total", "합계", func(r *entity.BurdenLevelRow) *string { return &r.Total }).AsReadOnly(),
	},
}

var PainTasks = &Table[entity.PainTask]{
	Key:   KeyPainTasks,
	Title: "증상조사_통증호소",
	Columns: []Column[entity.PainTask]{
		HiddenColumn("id", func(r *entity.PainTask) *string { return &r.ID }),
		TextColumn("task_name", "작업명", func(r *entity.PainTask) *string { return &r.TaskName }),
	},
}

var PainRows = &Table[entity.PainRow]{
	Key:   KeyPainRows,
	Title: "통증호소 현황",
	IDKey: "group",
	Columns: []Column[entity.PainRow]{
		{
			Key:      "group",
			Header:   "구분",
			ReadOnly: true,
			Get:      func(r *entity.PainRow) string { return string(r.Group) },
			Set: func(r *entity.PainRow, v string) error {
				g := entity.PainGroup(v)
				if !g.Valid() {
					return fmt.Errorf("%w: %q is not a pain group", ErrInvalidValue, v)
				}
				r.Group = g
				return nil
			},
			Format: func(r *entity.PainRow) string { return r.Group.Label() },
		},
		TextColumn("neck", "목", func(r *entity.PainRow) *string { return &r.Neck }),
		TextColumn("shoulder", "어깨", func(r *entity.PainRow) *string { return &r.Shoulder }),
		TextColumn("elbow", "팔/팔꿈치", func(r *entity.PainRow) *string { return &r.Elbow }),
		TextColumn("wrist", "손/손목/손가락", func(r *entity.PainRow) *string { return &r.Wrist }),
		TextColumn("back", "허리", func(r *entity.PainRow) *string { return &r.Back }),
		TextColumn("leg", "다리/발", func(r *entity.PainRow) *string { return &r.Leg }),
		TextColumn("total", "전체", func(r *entity.PainRow) *string { return &r.Total }).AsReadOnly(),
	},
}

var Improvements = &Table[entity.ImprovementRow]{
	Key:   KeyImprovements,
	Title: "개선계획",
	Columns: []Column[entity.ImprovementRow]{
		HiddenColumn("id", func(r *entity.ImprovementRow) *string { return &r.ID }),
		TextColumn("process", "공정명", func(r *entity.ImprovementRow) *string { return &r.Process }),
		TextColumn("task", "작업명", func(r *entity.ImprovementRow) *string { return &r.Task }),
		TextColumn("unit_name", "단위작업명", func(r *entity.ImprovementRow) *string { return &r.UnitName }),
		TextColumn("problem_cause", "문제점(원인)", func(r *entity.ImprovementRow) *string { return &r.ProblemCause }),
		TextColumn("worker_feedback", "근로자 의견", func(r *entity.ImprovementRow) *string { return &r.WorkerFeedback }),
		TextColumn("plan", "개선방안", func(r *entity.ImprovementRow) *string { return &r.Plan }),
		TextColumn("schedule", "추진일정", func(r *entity.ImprovementRow) *string { return &r.Schedule }),
		TextColumn("cost", "개선비용", func(r *entity.ImprovementRow) *string { return &r.Cost }),
		TextColumn("priority", "우선순위", func(r *entity.ImprovementRow) *string { return &r.Priority }),
	},
}
