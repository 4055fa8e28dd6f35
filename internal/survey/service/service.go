package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/kaykim0310/wmsd-report/internal/metrics"
	"github.com/kaykim0310/wmsd-report/internal/survey/blob"
	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
	"github.com/kaykim0310/wmsd-report/internal/survey/export"
	"github.com/kaykim0310/wmsd-report/internal/survey/repository"
	"github.com/kaykim0310/wmsd-report/internal/survey/schema"
	"github.com/kaykim0310/wmsd-report/internal/survey/scoring"
	"github.com/kaykim0310/wmsd-report/internal/survey/session"
	"github.com/kaykim0310/wmsd-report/internal/survey/store"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrImageTooLarge     = errors.New("image exceeds the upload limit")
	ErrEmptyUpload       = errors.New("uploaded file is empty")
)

// Options 서비스 설정
type Options struct {
	FontPath      string
	MaxImageBytes int64
}

// SurveyService 조사 서비스
type SurveyService struct {
	sessions  *session.Manager
	snapshots *repository.SnapshotRepository
	blobs     blob.Store
	metrics   *metrics.Metrics
	logger    *zap.Logger
	opts      Options
}

// NewSurveyService wires the service. m may be nil.
func NewSurveyService(sessions *session.Manager, snapshots *repository.SnapshotRepository, blobs blob.Store, m *metrics.Metrics, logger *zap.Logger, opts Options) *SurveyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = 10 << 20
	}
	return &SurveyService{
		sessions:  sessions,
		snapshots: snapshots,
		blobs:     blobs,
		metrics:   m,
		logger:    logger,
		opts:      opts,
	}
}

func (s *SurveyService) session(ctx context.Context, sessionID string) (*session.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// edit runs fn against the session's store and mirrors the result. A mirror
// failure is logged; the in-memory edit stands.
func (s *SurveyService) edit(ctx context.Context, sessionID string, fn func(st *store.Store) error) error {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := fn(sess.Store); err != nil {
		return err
	}
	if err := s.sessions.Persist(ctx, sess); err != nil {
		s.logger.Warn("mirror session failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return nil
}

// ========== Sessions ==========

// CreateSession 새 세션 생성
func (s *SurveyService) CreateSession(ctx context.Context) (*session.Session, error) {
	return s.sessions.Create(ctx)
}

// DeleteSession drops the session together with its images and snapshots.
func (s *SurveyService) DeleteSession(ctx context.Context, sessionID string) error {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return err
	}
	var keys []string
	sess.Store.View(func(sv *entity.Survey) {
		keys = imageKeys(sv.Detailed)
	})
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.deleteBlobs(ctx, sessionID, keys)
	if n, err := s.snapshots.DeleteBySession(ctx, sessionID); err != nil {
		s.logger.Warn("delete session snapshots failed", zap.String("session_id", sessionID), zap.Error(err))
	} else if n > 0 {
		s.logger.Info("session snapshots deleted", zap.String("session_id", sessionID), zap.Int64("count", n))
	}
	return nil
}

// ========== Survey state ==========

// Survey 현재 조사 데이터 (복사본)
func (s *SurveyService) Survey(ctx context.Context, sessionID string) (*entity.Survey, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Store.Survey(), nil
}

// Catalog returns the category catalog sized to the session's checklist.
func (s *SurveyService) Catalog(ctx context.Context, sessionID string) (*scoring.Catalog, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return scoring.DefaultCatalog(sess.Store.CategoryCount())
}

func (s *SurveyService) SetSite(ctx context.Context, sessionID string, fields map[string]string) (entity.SiteProfile, error) {
	var site entity.SiteProfile
	err := s.edit(ctx, sessionID, func(st *store.Store) error {
		if err := st.SetSite(fields); err != nil {
			return err
		}
		site = st.Site()
		return nil
	})
	return site, err
}

// AddRow 행 추가
func (s *SurveyService) AddRow(ctx context.Context, sessionID string, ref store.TableRef, values map[string]string) (string, error) {
	var id string
	err := s.edit(ctx, sessionID, func(st *store.Store) (err error) {
		id, err = st.AddRow(ref, values)
		return err
	})
	return id, err
}

// RemoveRow deletes a row. Removing a detailed investigation also deletes
// the blobs of its images.
func (s *SurveyService) RemoveRow(ctx context.Context, sessionID string, ref store.TableRef, rowID string) error {
	var keys []string
	err := s.edit(ctx, sessionID, func(st *store.Store) error {
		if ref.Name == schema.KeyDetailed {
			st.View(func(sv *entity.Survey) {
				if d, ok := sv.FindDetailed(rowID); ok {
					keys = imageKeys([]entity.DetailedInvestigation{*d})
				}
			})
		}
		return st.RemoveRow(ref, rowID)
	})
	if err != nil {
		return err
	}
	s.deleteBlobs(ctx, sessionID, keys)
	return nil
}

// UpdateCell 셀 수정
func (s *SurveyService) UpdateCell(ctx context.Context, sessionID string, ref store.TableRef, rowID, column, value string) error {
	return s.edit(ctx, sessionID, func(st *store.Store) error {
		return st.UpdateCell(ref, rowID, column, value)
	})
}

// ========== Tasks ==========

func (s *SurveyService) AddTask(ctx context.Context, sessionID, name string) (string, error) {
	var id string
	err := s.edit(ctx, sessionID, func(st *store.Store) (err error) {
		id, err = st.AddTask(name)
		return err
	})
	return id, err
}

func (s *SurveyService) RenameTask(ctx context.Context, sessionID, taskID, name string) error {
	return s.edit(ctx, sessionID, func(st *store.Store) error {
		return st.RenameTask(taskID, name)
	})
}

// SyncWorkConditions 체크리스트 기준 작업조건조사 행 동기화
func (s *SurveyService) SyncWorkConditions(ctx context.Context, sessionID, taskID string) error {
	return s.edit(ctx, sessionID, func(st *store.Store) error {
		return st.SyncWorkConditions(taskID)
	})
}

// PrefillCauseAnalysis 작업조건조사 기준 원인분석 행 채우기
func (s *SurveyService) PrefillCauseAnalysis(ctx context.Context, sessionID, taskID string) error {
	return s.edit(ctx, sessionID, func(st *store.Store) error {
		return st.PrefillCauseAnalysis(taskID)
	})
}

// ========== Investigations ==========

func (s *SurveyService) AddInvestigation(ctx context.Context, sessionID string) (entity.InvestigationForm, error) {
	var form entity.InvestigationForm
	err := s.edit(ctx, sessionID, func(st *store.Store) (err error) {
		form, err = st.AddInvestigation()
		return err
	})
	return form, err
}

func (s *SurveyService) SetSituationChange(ctx context.Context, sessionID, formID string, category entity.ChangeCategory, state, detail string) error {
	return s.edit(ctx, sessionID, func(st *store.Store) error {
		return st.SetSituationChange(formID, category, state, detail)
	})
}

func (s *SurveyService) AddDetailed(ctx context.Context, sessionID string) (entity.DetailedInvestigation, error) {
	var d entity.DetailedInvestigation
	err := s.edit(ctx, sessionID, func(st *store.Store) (err error) {
		d, err = st.AddDetailed()
		return err
	})
	return d, err
}

func (s *SurveyService) AddPainTask(ctx context.Context, sessionID, taskName string) (string, error) {
	var id string
	err := s.edit(ctx, sessionID, func(st *store.Store) (err error) {
		id, err = st.AddPainTask(taskName)
		return err
	})
	return id, err
}

// ========== Images ==========

// UploadImage validates the upload as an image, stores the blob and attaches
// it to the detailed investigation.
func (s *SurveyService) UploadImage(ctx context.Context, sessionID, detailedID, fileName string, r io.Reader) (entity.ImageRef, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return entity.ImageRef{}, err
	}
	// Unknown investigations are rejected before the blob is stored.
	if _, err := sess.Store.Image(detailedID, ""); errors.Is(err, store.ErrRowNotFound) {
		return entity.ImageRef{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxImageBytes+1))
	if err != nil {
		return entity.ImageRef{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return entity.ImageRef{}, ErrEmptyUpload
	}
	if int64(len(data)) > s.opts.MaxImageBytes {
		return entity.ImageRef{}, ErrImageTooLarge
	}
	contentType, err := blob.SniffImage(data)
	if err != nil {
		return entity.ImageRef{}, err
	}

	key := blob.NewKey(sessionID, fileName)
	info, err := s.blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return entity.ImageRef{}, fmt.Errorf("store image: %w", err)
	}

	var ref entity.ImageRef
	err = s.edit(ctx, sessionID, func(st *store.Store) (err error) {
		ref, err = st.AttachImage(detailedID, entity.ImageRef{
			Key:         info.Key,
			FileName:    fileName,
			ContentType: contentType,
			Size:        info.Size,
		})
		return err
	})
	if err != nil {
		s.deleteBlobs(ctx, sessionID, []string{info.Key})
		return entity.ImageRef{}, err
	}
	s.logger.Info("image attached",
		zap.String("session_id", sessionID),
		zap.String("detailed_id", detailedID),
		zap.String("key", info.Key),
		zap.Int64("size", info.Size),
	)
	return ref, nil
}

// OpenImage returns the image reference and its content. The caller closes
// the reader.
func (s *SurveyService) OpenImage(ctx context.Context, sessionID, detailedID, imageID string) (entity.ImageRef, io.ReadCloser, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return entity.ImageRef{}, nil, err
	}
	ref, err := sess.Store.Image(detailedID, imageID)
	if err != nil {
		return entity.ImageRef{}, nil, err
	}
	_, rc, err := s.blobs.Get(ctx, ref.Key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return entity.ImageRef{}, nil, fmt.Errorf("%w: %s", store.ErrImageNotFound, imageID)
		}
		return entity.ImageRef{}, nil, err
	}
	return ref, rc, nil
}

// DeleteImage 이미지 삭제
func (s *SurveyService) DeleteImage(ctx context.Context, sessionID, detailedID, imageID string) error {
	var ref entity.ImageRef
	err := s.edit(ctx, sessionID, func(st *store.Store) (err error) {
		ref, err = st.DetachImage(detailedID, imageID)
		return err
	})
	if err != nil {
		return err
	}
	s.deleteBlobs(ctx, sessionID, []string{ref.Key})
	return nil
}

func (s *SurveyService) deleteBlobs(ctx context.Context, sessionID string, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blob.ErrNotFound) {
			s.logger.Warn("delete image blob failed",
				zap.String("session_id", sessionID),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
}

func imageKeys(detailed []entity.DetailedInvestigation) []string {
	var keys []string
	for _, d := range detailed {
		for _, img := range d.Images {
			keys = append(keys, img.Key)
		}
	}
	return keys
}

// ========== Save / load ==========

// Save 저장 파일 생성
func (s *SurveyService) Save(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Store.Serialize()
}

// Load replaces the session state with a save file. A malformed file
// leaves the state unchanged and returns an error wrapping
// store.ErrMalformedSnapshot.
func (s *SurveyService) Load(ctx context.Context, sessionID string, data []byte) error {
	err := s.edit(ctx, sessionID, func(st *store.Store) error {
		return st.Deserialize(data)
	})
	if errors.Is(err, store.ErrMalformedSnapshot) {
		s.logger.Warn("rejected malformed save file", zap.String("session_id", sessionID), zap.Error(err))
	}
	return err
}

// ========== Export ==========

// Export renders the session's survey. Tables that failed to render are
// listed in Result.Warnings.
func (s *SurveyService) Export(ctx context.Context, sessionID, format string) (*export.Result, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sv := sess.Store.Survey()

	var res *export.Result
	switch format {
	case FormatXLSX:
		res, err = export.Workbook(sv)
	case FormatPDF:
		res, err = export.Document(sv, export.DocumentOptions{FontPath: s.opts.FontPath})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		s.observeExport(format, 0, true)
		s.logger.Error("export failed", zap.String("session_id", sessionID), zap.String("format", format), zap.Error(err))
		return nil, err
	}

	s.observeExport(format, len(res.Warnings), false)
	for _, w := range res.Warnings {
		s.logger.Warn("export table skipped",
			zap.String("session_id", sessionID),
			zap.String("format", format),
			zap.String("table", w.Table),
			zap.Error(w.Err),
		)
	}
	return res, nil
}

func (s *SurveyService) observeExport(format string, skipped int, failed bool) {
	if s.metrics != nil {
		s.metrics.ObserveExport(format, skipped, failed)
	}
}

// ========== Snapshots ==========

// CreateSnapshot archives the current save file under name.
func (s *SurveyService) CreateSnapshot(ctx context.Context, sessionID, name string) (*entity.Snapshot, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	data, err := sess.Store.Serialize()
	if err != nil {
		return nil, err
	}
	site := sess.Store.Site()
	if name == "" {
		name = time.Now().Format("2006-01-02 15:04")
	}
	snap := &entity.Snapshot{
		ID:            uuid.New().String(),
		SessionID:     sessionID,
		Name:          name,
		SiteName:      site.Name,
		SchemaVersion: store.SchemaVersion,
		Payload:       datatypes.JSON(data),
		Size:          int64(len(data)),
		CreatedAt:     time.Now(),
	}
	if err := s.snapshots.Create(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	s.observeSnapshot("create")
	return snap, nil
}

func (s *SurveyService) ListSnapshots(ctx context.Context, sessionID string) ([]entity.Snapshot, error) {
	if _, err := s.session(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.snapshots.ListBySession(ctx, sessionID)
}

// RestoreSnapshot loads an archived save file into the session.
func (s *SurveyService) RestoreSnapshot(ctx context.Context, sessionID, snapshotID string) error {
	snap, err := s.snapshots.FindByID(ctx, sessionID, snapshotID)
	if err != nil {
		return err
	}
	if err := s.Load(ctx, sessionID, snap.Payload); err != nil {
		s.logger.Error("snapshot restore failed",
			zap.String("session_id", sessionID),
			zap.String("snapshot_id", snapshotID),
			zap.Error(err),
		)
		return err
	}
	s.observeSnapshot("restore")
	return nil
}

func (s *SurveyService) DeleteSnapshot(ctx context.Context, sessionID, snapshotID string) error {
	if err := s.snapshots.Delete(ctx, sessionID, snapshotID); err != nil {
		return err
	}
	s.observeSnapshot("delete")
	return nil
}

func (s *SurveyService) observeSnapshot(op string) {
	if s.metrics != nil {
		s.metrics.ObserveSnapshot(op)
	}
}
