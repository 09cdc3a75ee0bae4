package callhistory

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// GormStore is the production Store, backed by a GORM connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an existing *gorm.DB. The schema must already be
// migrated; OpenDB does this for the standalone database, but a caller
// embedding call history into a larger application's own *gorm.DB can
// call this directly after running AutoMigrate(&CallRecord{}) itself.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Create implements Store.
func (s *GormStore) Create(rec *CallRecord) error {
	return s.db.Create(rec).Error
}

// CloseOpenCall implements Store, marking the most recent open record for
// streamID as closed. Stream IDs are reused across calls over time, so
// this targets the newest open row rather than assuming uniqueness.
func (s *GormStore) CloseOpenCall(streamID uint32, endTime time.Time, durationMS int64) error {
	var rec CallRecord
	err := s.db.Where("stream_id = ? AND open = ?", streamID, true).
		Order("start_time DESC").
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.db.Model(&rec).
		Updates(map[string]interface{}{
			"end_time":    endTime,
			"duration_ms": durationMS,
			"open":        false,
		}).Error
}

// Recent implements Store.
func (s *GormStore) Recent(limit int) ([]CallRecord, error) {
	var records []CallRecord
	err := s.db.Order("start_time DESC").Limit(limit).Find(&records).Error
	return records, err
}

// ByTalkgroup implements Store.
func (s *GormStore) ByTalkgroup(dstID uint32, limit int) ([]CallRecord, error) {
	var records []CallRecord
	err := s.db.Where("dst_id = ?", dstID).
		Order("start_time DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
