package activity

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fitforge/server/cache"
	"github.com/fitforge/server/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Feed event types.
const (
	TypeWorkout     = "workout"
	TypeLevelUp     = "level_up"
	TypeQuest       = "quest"
	TypeAchievement = "achievement"
	TypeDuel        = "duel"
	TypeRaid        = "raid"
	TypeItem        = "item"
)

const recentFeedKey = "feed:recent"
const recentFeedCap = 100

// Entry holds one feed event to be recorded.
type Entry struct {
	UserID  *int64
	Type    string
	Message string
	Meta    interface{}
}

// Sink records feed entries asynchronously in batches. It is fire-and-forget:
// a full buffer drops entries rather than blocking the caller.
type Sink struct {
	db     *gorm.DB
	cache  cache.Cache
	ch     chan *model.ActivityLog
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates an activity Sink and starts its background worker.
func New(db *gorm.DB, c cache.Cache, logger *zap.Logger) *Sink {
	s := &Sink{
		db:     db,
		cache:  c,
		ch:     make(chan *model.ActivityLog, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// Record enqueues a feed entry for async write.
func (s *Sink) Record(entry Entry) {
	metaJSON, _ := json.Marshal(entry.Meta)
	record := &model.ActivityLog{
		UserID:  entry.UserID,
		Type:    entry.Type,
		Message: entry.Message,
		Meta:    datatypes.JSON(metaJSON),
	}
	select {
	case s.ch <- record:
	default:
		s.logger.Warn("activity channel full, dropping entry",
			zap.String("type", entry.Type))
	}
}

// Recent returns the latest feed entries for a user (or all users when
// userID is nil).
func (s *Sink) Recent(ctx context.Context, userID *int64, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 || limit > recentFeedCap {
		limit = 20
	}
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var logs []model.ActivityLog
	err := q.Find(&logs).Error
	return logs, err
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (s *Sink) Stop(_ context.Context) {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.wg.Wait()
}

func (s *Sink) worker() {
	defer s.wg.Done()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	batch := make([]*model.ActivityLog, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.db.Create(&batch).Error; err != nil {
			s.logger.Error("activity batch write failed", zap.Error(err))
		} else {
			s.pushToFeed(batch)
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-s.ch:
			batch = append(batch, entry)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// Drain remaining entries.
			for {
				select {
				case entry := <-s.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

// pushToFeed mirrors the batch into the capped cache list used by the
// recent-feed endpoint. Best effort.
func (s *Sink) pushToFeed(batch []*model.ActivityLog) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	values := make([]string, 0, len(batch))
	for _, rec := range batch {
		b, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		values = append(values, string(b))
	}
	if len(values) == 0 {
		return
	}
	if err := s.cache.LPush(ctx, recentFeedKey, values...); err != nil {
		return
	}
	_ = s.cache.LTrim(ctx, recentFeedKey, 0, recentFeedCap-1)
}

// Prune deletes feed rows older than the retention window and returns how
// many were removed.
func (s *Sink) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.ActivityLog{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.logger.Info("activity feed pruned",
			zap.Int64("removed", res.RowsAffected),
			zap.Time("cutoff", cutoff))
	}
	return res.RowsAffected, nil
}
