package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
)

var (
	ErrNotFound = errors.New("record not found")
)

// SnapshotRepository 저장 파일 보관소
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// AutoMigrate creates the snapshot table.
func (r *SnapshotRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&entity.Snapshot{})
}

// Create 스냅샷 저장
func (r *SnapshotRepository) Create(ctx context.Context, snap *entity.Snapshot) error {
	return r.db.WithContext(ctx).Create(snap).Error
}

// FindByID loads a snapshot with its payload. Snapshots belonging to another
// session are reported as not found.
func (r *SnapshotRepository) FindByID(ctx context.Context, sessionID, id string) (*entity.Snapshot, error) {
	var snap entity.Snapshot
	err := r.db.WithContext(ctx).
		Where("id = ? AND session_id = ?", id, sessionID).
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}

// ListBySession 세션의 스냅샷 목록 (최신순, payload 제외)
func (r *SnapshotRepository) ListBySession(ctx context.Context, sessionID string) ([]entity.Snapshot, error) {
	var snaps []entity.Snapshot
	err := r.db.WithContext(ctx).
		Omit("payload").
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id ASC").
		Find(&snaps).Error
	return snaps, err
}

// Delete 스냅샷 삭제
func (r *SnapshotRepository) Delete(ctx context.Context, sessionID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND session_id = ?", id, sessionID).
		Delete(&entity.Snapshot{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBySession removes every snapshot of a session.
func (r *SnapshotRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&entity.Snapshot{})
	return result.RowsAffected, result.Error
}
