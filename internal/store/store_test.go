package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sabaqlab/sabaq/internal/assessment"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestBackupSaveLoadDelete(t *testing.T) {
	s := openTestStore(t)
	repo := s.BackupRepo()
	ctx := context.Background()

	b, err := repo.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("load (empty): %v", err)
	}
	if b != nil {
		t.Fatal("expected nil backup when none exist")
	}

	ts := time.Now().UTC().Truncate(time.Millisecond)
	err = repo.Save(ctx, &Backup{
		AssessmentID: "t1",
		GroupID:      "g1",
		Answers:      []assessment.Answer{{QuestionID: "q1", OptionID: "a"}},
		TimeSpent:    40,
		Timestamp:    ts,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	b, err = repo.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b == nil {
		t.Fatal("expected backup after save")
	}
	if b.GroupID != "g1" || b.TimeSpent != 40 || len(b.Answers) != 1 {
		t.Errorf("backup = %+v", b)
	}
	if !b.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", b.Timestamp, ts)
	}

	if err := repo.Delete(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	b, err = repo.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("load after delete: %v", err)
	}
	if b != nil {
		t.Fatal("expected nil backup after delete")
	}

	// Deleting again is a no-op.
	if err := repo.Delete(ctx, "t1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestBackupSaveReplaces(t *testing.T) {
	s := openTestStore(t)
	repo := s.BackupRepo()
	ctx := context.Background()

	for i, spent := range []int{10, 25} {
		err := repo.Save(ctx, &Backup{
			AssessmentID: "t1",
			TimeSpent:    spent,
			Timestamp:    time.Now().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(all))
	}
	if all[0].TimeSpent != 25 {
		t.Errorf("timeSpent = %d, want 25", all[0].TimeSpent)
	}
}

func TestBackupListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo := s.BackupRepo()
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		err := repo.Save(ctx, &Backup{
			AssessmentID: id,
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, b := range all {
		got = append(got, b.AssessmentID)
	}
	if len(got) != 3 || got[0] != "c" || got[2] != "a" {
		t.Errorf("order = %v, want [c b a]", got)
	}
}

func TestBackupCorruptPayload(t *testing.T) {
	s := openTestStore(t)
	repo := s.BackupRepo()
	ctx := context.Background()

	if err := repo.Save(ctx, &Backup{AssessmentID: "t1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	corrupt := []string{
		`not json`,
		`{"assessmentId": "t1", "answers": [{"questionId": "q1"}], "timeSpent": 1, "timestamp": "x"}`,
		`{"assessmentId": "t1", "answers": [], "timeSpent": -3, "timestamp": "x"}`,
	}
	for _, payload := range corrupt {
		if _, err := s.DB().Exec(`UPDATE backups SET payload = ? WHERE backup_key = ?`, payload, BackupKey("t1")); err != nil {
			t.Fatalf("corrupt row: %v", err)
		}
		_, err := repo.Load(ctx, "t1")
		if !errors.Is(err, ErrCorruptBackup) {
			t.Errorf("payload %q: err = %v, want ErrCorruptBackup", payload, err)
		}
	}
}

func TestBackupListSkipsCorruptRows(t *testing.T) {
	s := openTestStore(t)
	repo := s.BackupRepo()
	ctx := context.Background()

	if err := repo.Save(ctx, &Backup{AssessmentID: "good", TimeSpent: 12}); err != nil {
		t.Fatalf("save: %v", err)
	}
	_, err := s.DB().Exec(
		`INSERT INTO backups (backup_key, assessment_id, group_id, payload, updated_at) VALUES (?, ?, ?, ?, ?)`,
		BackupKey("bad"), "bad", "", `{not json`, time.Now().Add(time.Minute).UnixMilli(),
	)
	if err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].AssessmentID != "good" {
		t.Fatalf("list = %+v, want only the readable backup", all)
	}

	if _, err := repo.Load(ctx, "bad"); !errors.Is(err, ErrCorruptBackup) {
		t.Errorf("load bad: err = %v, want ErrCorruptBackup", err)
	}
	if err := repo.Delete(ctx, "bad"); err != nil {
		t.Fatalf("delete bad: %v", err)
	}
	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM backups`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("rows after delete = %d, want 1", n)
	}
}

func TestSubmitAttempts(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []SubmitAttemptData{
		{AttemptID: "x", AssessmentID: "t1", Transport: "primary", StatusCode: 503, ErrorMessage: "unavailable", Latency: 120 * time.Millisecond},
		{AttemptID: "x", AssessmentID: "t1", Transport: "primary", Success: true, Latency: 80 * time.Millisecond},
		{AttemptID: "y", AssessmentID: "t2", Transport: "legacy", Success: true},
	}
	for _, e := range events {
		if err := repo.AppendSubmitAttempt(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.SubmitAttempts(ctx, "t1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Success || got[0].StatusCode != 503 || got[0].ErrorMessage != "unavailable" {
		t.Errorf("first attempt = %+v", got[0])
	}
	if !got[1].Success || got[1].Latency != 80*time.Millisecond {
		t.Errorf("second attempt = %+v", got[1])
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("SABAQ_DB", filepath.Join(dir, "custom", "x.db"))
	p, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if p != filepath.Join(dir, "custom", "x.db") {
		t.Errorf("path = %q", p)
	}

	t.Setenv("SABAQ_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if p != filepath.Join(dir, "sabaq", "sabaq.db") {
		t.Errorf("path = %q", p)
	}
}
