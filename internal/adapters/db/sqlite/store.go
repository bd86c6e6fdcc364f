package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const (
	PrimaryFileName = "studio.sqlite"
	BackupsDirName  = "backups"
	backupPrefix    = "backup-"
	backupExt       = ".sqlite"
)

// Store is the single owner of the open database plus its file layout.
type Store struct {
	db          *gorm.DB
	primaryPath string
	backupsDir  string
	now         func() time.Time
}

type StoreOptions struct {
	Admin  AdminSeed
	Logger goose.Logger
	Now    func() time.Time
}

func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
	}, &gorm.Config{
		Logger:  gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return db, nil
}

// OpenStore loads (or creates) <dataDir>/studio.sqlite, applies the schema and
// seeds the administrator when no user exists. Any failure here is fatal to
// startup.
func OpenStore(ctx context.Context, dataDir string, opts StoreOptions) (*Store, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data directory is required")
	}
	backupsDir := filepath.Join(dataDir, BackupsDirName)
	if err := os.MkdirAll(backupsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backups dir: %w", err)
	}

	primaryPath, err := filepath.Abs(filepath.Join(dataDir, PrimaryFileName))
	if err != nil {
		return nil, err
	}
	db, err := Open(primaryPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &Store{db: db, primaryPath: primaryPath, backupsDir: backupsDir, now: opts.Now}
	if s.now == nil {
		s.now = time.Now
	}

	if err := EnsureSchema(ctx, db, opts.Logger); err != nil {
		_ = s.Close()
		return nil, err
	}
	seed := opts.Admin
	if seed.Email == "" && seed.Password == "" {
		seed = DefaultAdminSeed()
	}
	if _, err := SeedIfEmpty(ctx, db, seed); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	return s, nil
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) PrimaryPath() string { return s.primaryPath }

func (s *Store) BackupsDir() string { return s.backupsDir }

// Save folds the write-ahead log into the primary file so that the file on
// its own holds the whole store.
func (s *Store) Save(ctx context.Context) error {
	var busy, logFrames, checkpointed int
	row := s.db.WithContext(ctx).Raw("PRAGMA wal_checkpoint(TRUNCATE)").Row()
	if err := row.Scan(&busy, &logFrames, &checkpointed); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if busy != 0 {
		return errors.New("checkpoint: store is busy")
	}
	return nil
}

// Export returns the serialized bytes of the entire store.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	tmp := filepath.Join(os.TempDir(), "studio-export-"+uuid.NewString()+backupExt)
	if err := s.vacuumInto(ctx, tmp); err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmp) }()
	return os.ReadFile(tmp)
}

// Backup writes a snapshot to backups/backup-<timestamp>.sqlite and returns
// its path. Old backups are never removed.
func (s *Store) Backup(ctx context.Context) (string, error) {
	at := s.now().UTC()
	path := filepath.Join(s.backupsDir, backupFileName(at))
	for {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		} else if err != nil {
			return "", err
		}
		at = at.Add(time.Millisecond)
		path = filepath.Join(s.backupsDir, backupFileName(at))
	}

	if err := s.vacuumInto(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}

// ListBackups returns backup paths, newest first.
func (s *Store) ListBackups() ([]string, error) {
	entries, err := os.ReadDir(s.backupsDir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupExt) {
			continue
		}
		out = append(out, filepath.Join(s.backupsDir, name))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) vacuumInto(ctx context.Context, path string) error {
	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", path).Error; err != nil {
		return fmt.Errorf("snapshot to %s: %w", path, err)
	}
	return nil
}

// backupFileName renders an ISO-8601 UTC timestamp with ':' and '.' replaced
// so it is safe on every filesystem: backup-2026-10-14T09-30-12-345Z.sqlite.
func backupFileName(at time.Time) string {
	ts := at.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return backupPrefix + ts + backupExt
}
