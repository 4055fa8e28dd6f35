package entity

// ChangeCategory 작업상황 변화 구분
type ChangeCategory string

const (
	ChangeEquipment   ChangeCategory = "equipment"
	ChangeVolume      ChangeCategory = "workload-volume"
	ChangeSpeed       ChangeCategory = "work-speed"
	ChangeTaskContent ChangeCategory = "task-content"
)

// ChangeCategories 조사표에 항상 포함되는 4개 구분 (표시 순서)
var ChangeCategories = []ChangeCategory{ChangeEquipment, ChangeVolume, ChangeSpeed, ChangeTaskContent}

// Label 표시 이름
func (c ChangeCategory) Label() string {
	switch c {
	case ChangeEquipment:
		return "작업설비 변화"
	case ChangeVolume:
		return "작업량 변화"
	case ChangeSpeed:
		return "작업속도 변화"
	case ChangeTaskContent:
		return "업무 변화"
	}
	return string(c)
}

// Valid reports whether c is one of the fixed categories.
func (c ChangeCategory) Valid() bool {
	for _, v := range ChangeCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ChangeState 변화 상태
type ChangeState string

const (
	StateNoChange ChangeState = "no-change"
	StateDecrease ChangeState = "decrease"
	StateIncrease ChangeState = "increase"
	StateOther    ChangeState = "other"
)

// Label 표시 이름
func (s ChangeState) Label() string {
	switch s {
	case StateNoChange:
		return "변화없음"
	case StateDecrease:
		return "감소"
	case StateIncrease:
		return "증가"
	case StateOther:
		return "기타"
	}
	return string(s)
}

// ParseChangeState accepts canonical values and the Korean labels.
func ParseChangeState(s string) (ChangeState, bool) {
	switch s {
	case string(StateNoChange), "", "변화없음":
		return StateNoChange, true
	case string(StateDecrease), "감소":
		return StateDecrease, true
	case string(StateIncrease), "증가":
		return StateIncrease, true
	case string(StateOther), "기타":
		return StateOther, true
	}
	return "", false
}

// SituationChange 작업상황 변화 행
type SituationChange struct {
	Category ChangeCategory `json:"category"`
	State    ChangeState    `json:"state"`
	Detail   string         `json:"detail"`
}

// Normalize drops the detail text when nothing changed.
func (c *SituationChange) Normalize() {
	if c.State == "" {
		c.State = StateNoChange
	}
	if c.State == StateNoChange {
		c.Detail = ""
	}
}

// InvestigationForm 유해요인 기본조사표
type InvestigationForm struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	SurveyedAt   string            `json:"surveyed_at"`
	Department   string            `json:"department"`
	Investigator string            `json:"investigator"`
	ProcessName  string            `json:"process_name"`
	TaskName     string            `json:"task_name"`
	Changes      []SituationChange `json:"changes"`
}

// NewInvestigationForm 4개 구분이 모두 '변화없음'인 조사표 생성
func NewInvestigationForm(name string) InvestigationForm {
	f := InvestigationForm{ID: NewID(), Name: name}
	for _, c := range ChangeCategories {
		f.Changes = append(f.Changes, SituationChange{Category: c, State: StateNoChange})
	}
	return f
}

// Change 구분별 변화 행
func (f *InvestigationForm) Change(c ChangeCategory) (*SituationChange, bool) {
	for i := range f.Changes {
		if f.Changes[i].Category == c {
			return &f.Changes[i], true
		}
	}
	return nil, false
}

// ImageRef 첨부 이미지 참조 (원본은 blob 저장소에 보관)
type ImageRef struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// AnalysisResult 정밀조사 분석 결과 행
type AnalysisResult struct {
	ID       string `json:"id"`
	Tool     string `json:"tool"`
	Result   string `json:"result"`
	MaxScore string `json:"max_score"`
}

// DetailedInvestigation 정밀조사
type DetailedInvestigation struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	ProcessName string           `json:"process_name"`
	TaskName    string           `json:"task_name"`
	Images      []ImageRef       `json:"images"`
	Results     []AnalysisResult `json:"results"`
}

// FindImage 이미지 참조 조회
func (d *DetailedInvestigation) FindImage(id string) (*ImageRef, bool) {
	for i := range d.Images {
		if d.Images[i].ID == id {
			return &d.Images[i], true
		}
	}
	return nil, false
}
