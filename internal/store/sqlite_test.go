package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "test.db")
	s, err := NewSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func makeRecord(location, date string, maxT, minT float64, weather string) *Record {
	return &Record{
		Location: location,
		Date:     date,
		MaxTemp:  &maxT,
		MinTemp:  &minT,
		Weather:  weather,
	}
}

func TestSQLiteStore_UpsertAndGetLatest(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := makeRecord("臺北市", "2025-12-03", 25.0, 18.0, "多雲時晴")
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if rec.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set after upsert")
	}

	got, err := s.GetLatest(ctx, "臺北市")
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.Date != "2025-12-03" {
		t.Errorf("date = %q, want 2025-12-03", got.Date)
	}
	if got.MaxTemp == nil || *got.MaxTemp != 25.0 {
		t.Errorf("max_temp = %v, want 25.0", got.MaxTemp)
	}
	if got.MinTemp == nil || *got.MinTemp != 18.0 {
		t.Errorf("min_temp = %v, want 18.0", got.MinTemp)
	}
	if got.Weather != "多雲時晴" {
		t.Errorf("weather = %q, want 多雲時晴", got.Weather)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected non-zero updated_at")
	}
}

func TestSQLiteStore_UpsertOverwritesInPlace(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, makeRecord("臺北市", "2025-12-03", 25.0, 18.0, "多雲時晴")); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Same (location, date) with new values must overwrite, not add.
	if err := s.Upsert(ctx, makeRecord("臺北市", "2025-12-03", 27.0, 19.0, "晴天")); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := s.GetLatest(ctx, "臺北市")
	if err != nil {
		t.Fatal(err)
	}
	if *got.MaxTemp != 27.0 {
		t.Errorf("max_temp = %v, want 27.0", *got.MaxTemp)
	}
	if got.Weather != "晴天" {
		t.Errorf("weather = %q, want 晴天", got.Weather)
	}

	stats, err := s.GetStatistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 1 {
		t.Errorf("total_records = %d, want 1 after upsert to same key", stats.TotalRecords)
	}
}

func TestSQLiteStore_NullTemperatures(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := &Record{Location: "臺北市", Date: "-", Weather: "-"}
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.GetLatest(ctx, "臺北市")
	if err != nil {
		t.Fatal(err)
	}
	if got.MaxTemp != nil || got.MinTemp != nil {
		t.Errorf("temps = %v/%v, want nil/nil", got.MaxTemp, got.MinTemp)
	}
	if got.Date != "-" {
		t.Errorf("date = %q, want -", got.Date)
	}
}

func TestSQLiteStore_GetLatestPrefersNewestDate(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, makeRecord("臺北市", "2025-12-04", 26.0, 19.0, "晴天")); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, makeRecord("臺北市", "2025-12-03", 25.0, 18.0, "多雲時晴")); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetLatest(ctx, "臺北市")
	if err != nil {
		t.Fatal(err)
	}
	if got.Date != "2025-12-04" {
		t.Errorf("date = %q, want newest 2025-12-04", got.Date)
	}
}

func TestSQLiteStore_GetLatestAbsent(t *testing.T) {
	s := newTestSQLiteStore(t)

	got, err := s.GetLatest(context.Background(), "澎湖縣")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("expected nil for location with no rows")
	}
}

func TestSQLiteStore_GetAllLatest(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	// Insert out of name order; one location has two dates.
	inserts := []*Record{
		makeRecord("高雄市", "2025-12-03", 28.0, 22.0, "晴天"),
		makeRecord("臺北市", "2025-12-03", 25.0, 18.0, "多雲時晴"),
		makeRecord("臺北市", "2025-12-04", 26.0, 19.0, "晴天"),
		makeRecord("臺中市", "2025-12-03", 24.0, 16.0, "晴天"),
	}
	for _, rec := range inserts {
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.GetAllLatest(ctx)
	if err != nil {
		t.Fatalf("GetAllLatest: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}

	wantOrder := []string{"臺中市", "臺北市", "高雄市"}
	for i, want := range wantOrder {
		if recs[i].Location != want {
			t.Errorf("recs[%d].Location = %q, want %q", i, recs[i].Location, want)
		}
	}

	// 臺北市 must surface its newest date.
	if recs[1].Date != "2025-12-04" {
		t.Errorf("臺北市 date = %q, want 2025-12-04", recs[1].Date)
	}
}

func TestSQLiteStore_GetAllLatestEmpty(t *testing.T) {
	s := newTestSQLiteStore(t)

	recs, err := s.GetAllLatest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d records, want 0", len(recs))
	}
}

func TestSQLiteStore_GetStatistics(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	stats, err := s.GetStatistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 0 || stats.UniqueLocations != 0 {
		t.Errorf("empty store stats = %+v, want zeros", stats)
	}

	for _, rec := range []*Record{
		makeRecord("臺北市", "2025-12-03", 25.0, 18.0, "多雲時晴"),
		makeRecord("臺北市", "2025-12-04", 26.0, 19.0, "晴天"),
		makeRecord("高雄市", "2025-12-03", 28.0, 22.0, "晴天"),
	} {
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	stats, err = s.GetStatistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 3 {
		t.Errorf("total_records = %d, want 3", stats.TotalRecords)
	}
	if stats.UniqueLocations != 2 {
		t.Errorf("unique_locations = %d, want 2", stats.UniqueLocations)
	}
	if stats.SizeBytes <= 0 {
		t.Errorf("size_bytes = %d, want > 0", stats.SizeBytes)
	}
}

func TestSQLiteStore_IdempotentSetup(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "test.db")

	s1, err := NewSQLiteStore(dsn)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Upsert(context.Background(), makeRecord("臺北市", "2025-12-03", 25.0, 18.0, "多雲時晴")); err != nil {
		t.Fatal(err)
	}
	_ = s1.Close()

	// Reopening must not error and must keep existing data.
	s2, err := NewSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetLatest(context.Background(), "臺北市")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected record to survive reopen")
	}
}

func TestSQLiteStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "perms.db")
	s, err := NewSQLiteStore(dsn)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	info, err := os.Stat(dsn)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantErr bool
	}{
		{"time value", time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC), false},
		{"rfc3339", "2025-12-03T10:00:00Z", false},
		{"sqlite default", "2025-12-03 10:00:00", false},
		{"date only", "2025-12-03", false},
		{"garbage", "not a time", true},
		{"wrong type", 42, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTimestamp(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseTimestamp(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
