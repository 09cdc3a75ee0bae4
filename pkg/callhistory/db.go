package callhistory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gorm.io/driver/sqlite"
	_ "modernc.org/sqlite"
)

// DBConfig configures the SQLite-backed call history database.
type DBConfig struct {
	Path string
}

// DB wraps a GORM connection opened against the pure-Go modernc.org/sqlite
// driver, matching the repeater's ambient preference for CGO-free builds.
type DB struct {
	db *gorm.DB
}

// OpenDB opens (and migrates) the call history database at cfg.Path.
func OpenDB(cfg DBConfig, log *logger.Logger) (*DB, error) {
	if cfg.Path == "" {
		cfg.Path = "call-history.db"
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create call history directory: %w", err)
		}
	}

	gormLog := gormlogger.New(
		&gormLogAdapter{log: log},
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	dialector := sqlite.Dialector{DriverName: "sqlite", DSN: cfg.Path}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open call history database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get call history sql.DB: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := db.AutoMigrate(&CallRecord{}); err != nil {
		return nil, fmt.Errorf("migrate call history schema: %w", err)
	}

	if log != nil {
		log.Info("call history database ready", logger.String("path", cfg.Path))
	}

	return &DB{db: db}, nil
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GormStore returns a Store backed by this database.
func (d *DB) GormStore() *GormStore {
	return &GormStore{db: d.db}
}

type gormLogAdapter struct {
	log *logger.Logger
}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	if l.log == nil {
		return
	}
	l.log.Info(fmt.Sprintf(format, args...))
}
