// Package callhistory persists completed voice calls to a database via
// GORM, mirroring the repeater core's call lifecycle as repeater.Observer
// notifications. It has no knowledge of the dispatch loop's internals —
// Recorder only ever sees VoiceCallStarted/VoiceCallEnded.
package callhistory

import (
	"sync"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/clock"
	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/logger"
)

// CallRecord is a single voice call, from key-up to key-down.
type CallRecord struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	SrcID       uint32    `gorm:"index;not null" json:"src_id"`
	DstID       uint32    `gorm:"index;not null" json:"dst_id"`
	Timeslot    int       `gorm:"not null" json:"timeslot"`
	StreamID    uint32    `gorm:"index;not null" json:"stream_id"`
	StartTime   time.Time `gorm:"index;not null" json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DurationMS  int64     `gorm:"default:0" json:"duration_ms"`
	Open        bool      `gorm:"index;not null" json:"open"`
}

// TableName fixes the table name regardless of the struct's Go name.
func (CallRecord) TableName() string {
	return "call_records"
}

// Store persists and queries CallRecords. GormStore is the production
// implementation; tests can substitute any other Store.
type Store interface {
	Create(rec *CallRecord) error
	CloseOpenCall(streamID uint32, endTime time.Time, durationMS int64) error
	Recent(limit int) ([]CallRecord, error)
	ByTalkgroup(dstID uint32, limit int) ([]CallRecord, error)
}

// Recorder implements repeater.Observer, turning call-lifecycle
// notifications into Store writes. It tracks in-flight calls in memory so
// VoiceCallEnded can compute a duration without a read-modify-write
// round trip to the store for every call.
type Recorder struct {
	store Store
	clock clock.Source
	log   *logger.Logger

	mu   sync.Mutex
	open map[uint32]time.Time // streamID -> start time
}

// NewRecorder returns a Recorder that writes through store. If clk is nil,
// clock.System{} is used. If log is nil, failures are silently dropped
// rather than panicking — an Observer must never take down the dispatch
// goroutine that calls it.
func NewRecorder(store Store, clk clock.Source, log *logger.Logger) *Recorder {
	if clk == nil {
		clk = clock.System{}
	}
	return &Recorder{
		store: store,
		clock: clk,
		log:   log,
		open:  make(map[uint32]time.Time),
	}
}

// VoiceCallStarted implements repeater.Observer.
func (r *Recorder) VoiceCallStarted(ts dmrpacket.Timeslot, streamID uint32, srcID, dstID uint32) {
	now := r.clock.Now()

	r.mu.Lock()
	r.open[streamID] = now
	r.mu.Unlock()

	rec := &CallRecord{
		SrcID:     srcID,
		DstID:     dstID,
		Timeslot:  int(ts),
		StreamID:  streamID,
		StartTime: now,
		Open:      true,
	}
	if err := r.store.Create(rec); err != nil {
		r.logError("create call record", err)
	}
}

// VoiceCallEnded implements repeater.Observer.
func (r *Recorder) VoiceCallEnded(ts dmrpacket.Timeslot, streamID uint32) {
	now := r.clock.Now()

	r.mu.Lock()
	start, ok := r.open[streamID]
	delete(r.open, streamID)
	r.mu.Unlock()

	var durationMS int64
	if ok {
		durationMS = now.Sub(start).Milliseconds()
	}
	if err := r.store.CloseOpenCall(streamID, now, durationMS); err != nil {
		r.logError("close call record", err)
	}
}

func (r *Recorder) logError(action string, err error) {
	if r.log == nil {
		return
	}
	r.log.Error("callhistory: "+action+" failed", logger.Error(err))
}
