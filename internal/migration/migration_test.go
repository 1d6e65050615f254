package migration

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestApplyFreshDatabase(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"001_init.sql":       {Data: []byte(`CREATE TABLE a (id INTEGER PRIMARY KEY);`)},
		"002_add_second.sql": {Data: []byte(`CREATE TABLE b (id INTEGER PRIMARY KEY);`)},
	}

	runner := NewRunner(db, fsys)
	applied, err := runner.Apply(nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if applied != 2 {
		t.Errorf("expected 2 applied migrations, got %d", applied)
	}

	version, err := runner.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	for _, table := range []string{"a", "b"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after migration: %v", table, err)
		}
	}
}

func TestApplyIsIncremental(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"001_init.sql": {Data: []byte(`CREATE TABLE a (id INTEGER PRIMARY KEY);`)},
	}

	runner := NewRunner(db, fsys)
	if _, err := runner.Apply(nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Second run with an additional migration applies only the new one.
	fsys["002_add_second.sql"] = &fstest.MapFile{Data: []byte(`CREATE TABLE b (id INTEGER PRIMARY KEY);`)}
	applied, err := NewRunner(db, fsys).Apply(nil)
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if applied != 1 {
		t.Errorf("expected 1 applied migration, got %d", applied)
	}
}

func TestApplyNoopWhenUpToDate(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"001_init.sql": {Data: []byte(`CREATE TABLE a (id INTEGER PRIMARY KEY);`)},
	}

	runner := NewRunner(db, fsys)
	if _, err := runner.Apply(nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	var logged []string
	applied, err := runner.Apply(func(s string) { logged = append(logged, s) })
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected no migrations applied, got %d", applied)
	}
	if len(logged) == 0 {
		t.Error("expected an up-to-date log line")
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"001_init.sql": {Data: []byte(`CREATE TABLE a (id INTEGER PRIMARY KEY);`)},
		"002_bad.sql":  {Data: []byte(`THIS IS NOT SQL;`)},
	}

	runner := NewRunner(db, fsys)
	if _, err := runner.Apply(nil); err == nil {
		t.Fatal("expected failure applying broken migration")
	}

	// The failed migration must not bump the version.
	version, err := runner.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1 after rollback, got %d", version)
	}
}

func TestReadMigrationsRejectsBadNames(t *testing.T) {
	db := openTestDB(t)

	for _, fsys := range []fstest.MapFS{
		{"init.sql": {Data: []byte(`SELECT 1;`)}},
		{"abc_init.sql": {Data: []byte(`SELECT 1;`)}},
		{"000_init.sql": {Data: []byte(`SELECT 1;`)}},
	} {
		if _, err := NewRunner(db, fsys).ReadMigrations(); err == nil {
			t.Errorf("expected error for filenames %v", fsys)
		}
	}
}

func TestReadMigrationsRejectsDuplicateVersions(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"001_one.sql": {Data: []byte(`SELECT 1;`)},
		"001_two.sql": {Data: []byte(`SELECT 1;`)},
	}

	if _, err := NewRunner(db, fsys).ReadMigrations(); err == nil {
		t.Error("expected error for duplicate versions")
	}
}

func TestValidateRejectsNewerSchema(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"001_init.sql": {Data: []byte(`CREATE TABLE a (id INTEGER PRIMARY KEY);`)},
	}

	runner := NewRunner(db, fsys)
	if _, err := runner.Apply(nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("failed to fake future version: %v", err)
	}

	if err := runner.Validate(); err == nil {
		t.Error("expected error validating a newer schema")
	}
}
