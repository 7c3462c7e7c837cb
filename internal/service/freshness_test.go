package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pcchou102/cwa-weather/internal/store"
)

// fakeStore is an in-memory store.Store with injectable failures.
type fakeStore struct {
	records    map[string]*store.Record
	upserts    int
	getErr     error
	upsertErr  error
	allErr     error
	statsErr   error
	statistics store.Statistics
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*store.Record)}
}

func (f *fakeStore) Upsert(_ context.Context, rec *store.Record) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	cp := *rec
	f.records[rec.Location] = &cp
	return nil
}

func (f *fakeStore) GetLatest(_ context.Context, location string) (*store.Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[location]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) GetAllLatest(_ context.Context) ([]store.Record, error) {
	if f.allErr != nil {
		return nil, f.allErr
	}
	var out []store.Record
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	return out, nil
}

func (f *fakeStore) GetStatistics(_ context.Context) (*store.Statistics, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	stats := f.statistics
	return &stats, nil
}

func (f *fakeStore) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFreshness_IsFresh(t *testing.T) {
	now := time.Date(2025, 12, 3, 12, 0, 0, 0, time.UTC)
	ttl := 10 * time.Minute

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just written", 0, true},
		{"well within ttl", 5 * time.Minute, true},
		{"one second inside", ttl - time.Second, true},
		{"exactly ttl old", ttl, false},
		{"past ttl", ttl + time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore()
			st.records["臺北市"] = &store.Record{
				Location:  "臺北市",
				Date:      "2025-12-03",
				UpdatedAt: now.Add(-tt.age),
			}
			clock := clockwork.NewFakeClockAt(now)
			fresh := NewFreshness(st, clock, discardLogger())

			if got := fresh.IsFresh(context.Background(), "臺北市", ttl); got != tt.want {
				t.Errorf("IsFresh(age=%v, ttl=%v) = %v, want %v", tt.age, ttl, got, tt.want)
			}
		})
	}
}

func TestFreshness_MissingRecord(t *testing.T) {
	fresh := NewFreshness(newFakeStore(), clockwork.NewFakeClock(), discardLogger())

	if fresh.IsFresh(context.Background(), "澎湖縣", time.Hour) {
		t.Error("expected false for a location with no stored record")
	}
}

func TestFreshness_StoreError(t *testing.T) {
	st := newFakeStore()
	st.getErr = errors.New("database is locked")
	fresh := NewFreshness(st, clockwork.NewFakeClock(), discardLogger())

	if fresh.IsFresh(context.Background(), "臺北市", time.Hour) {
		t.Error("expected false when the store read fails")
	}
}

func TestFreshness_ZeroTimestamp(t *testing.T) {
	st := newFakeStore()
	st.records["臺北市"] = &store.Record{Location: "臺北市", Date: "2025-12-03"}
	fresh := NewFreshness(st, clockwork.NewFakeClock(), discardLogger())

	if fresh.IsFresh(context.Background(), "臺北市", time.Hour) {
		t.Error("expected false for a record with a zero updated_at")
	}
}
