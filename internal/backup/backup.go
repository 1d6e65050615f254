package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	// MaxBackups is how many journal copies are kept before rotation.
	MaxBackups = 14
	// DirName is the backup directory, created next to the journal file.
	DirName = "backups"

	filePrefix = "lulu-"
)

// Info describes one backup file.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager snapshots the journal file into a sibling backups directory. SQLite
// journals are copied through VACUUM INTO so a snapshot is always a
// consistent database; JSON journals are plain file copies.
type Manager struct {
	journalPath string
	backupDir   string
	sqlite      bool
}

func NewManager(journalPath string) *Manager {
	return &Manager{
		journalPath: journalPath,
		backupDir:   filepath.Join(filepath.Dir(journalPath), DirName),
		sqlite:      filepath.Ext(journalPath) != ".json",
	}
}

func (m *Manager) BackupDir() string {
	return m.backupDir
}

// Create writes a new timestamped backup and rotates old ones, returning the
// path of the new file.
func (m *Manager) Create() (string, error) {
	return m.create(true)
}

func (m *Manager) create(rotate bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.journalPath); err != nil {
		return "", fmt.Errorf("journal does not exist: %s", m.journalPath)
	}

	dest, err := m.uniquePath()
	if err != nil {
		return "", err
	}

	if m.sqlite {
		err = m.snapshotSQLite(dest)
	} else {
		err = copyFile(m.journalPath, dest)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if rotate {
		if err := m.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to rotate old backups: %v\n", err)
		}
	}
	return dest, nil
}

// uniquePath builds a timestamped filename, appending a counter when backups
// land within the same second.
func (m *Manager) uniquePath() (string, error) {
	ext := filepath.Ext(m.journalPath)
	stamp := time.Now().Format("20060102-150405")

	dest := filepath.Join(m.backupDir, filePrefix+stamp+ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest, nil
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		dest = filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", filePrefix, stamp, counter, ext))
	}
}

func (m *Manager) snapshotSQLite(dest string) error {
	db, err := sql.Open("sqlite", m.journalPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("journal appears to be corrupted: %w", err)
	}

	// VACUUM INTO needs SQLite 3.27+; fall back to a raw copy otherwise.
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		return copyFile(m.journalPath, dest)
	}
	return nil
}

// List returns available backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	ext := filepath.Ext(m.journalPath)
	var backups []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.backupDir, name),
			Timestamp: info.ModTime(),
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the journal with a backup. The current journal is backed
// up first, and the swap happens through an atomic rename.
func (m *Manager) Restore(backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if m.sqlite {
		if err := m.verify(backupPath); err != nil {
			return fmt.Errorf("backup file is corrupted or invalid: %w", err)
		}
	}

	if _, err := os.Stat(m.journalPath); err == nil {
		if _, err := m.create(false); err != nil {
			return fmt.Errorf("failed to back up current journal before restore: %w", err)
		}
	}

	tempPath := m.journalPath + ".restore.tmp"
	if err := copyFile(backupPath, tempPath); err != nil {
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tempPath, m.journalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to restore journal: %w", err)
	}
	return nil
}

func (m *Manager) verify(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dest.Close()

	if _, err := dest.ReadFrom(source); err != nil {
		return err
	}
	return dest.Sync()
}
