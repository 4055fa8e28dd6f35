package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Snapshot 보관된 저장 파일
type Snapshot struct {
	ID            string         `json:"id" gorm:"primaryKey;size:36"`
	SessionID     string         `json:"session_id" gorm:"size:36;not null;index"`
	Name          string         `json:"name" gorm:"size:128;not null"`
	SiteName      string         `json:"site_name" gorm:"size:256"`
	SchemaVersion int            `json:"schema_version" gorm:"not null"`
	Payload       datatypes.JSON `json:"-" gorm:"not null"`
	Size          int64          `json:"size" gorm:"not null"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (Snapshot) TableName() string {
	return "survey_snapshots"
}
