package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Jasuni69/mean-reversion/internal/domain"
)

type fakeWriter struct {
	puts map[string][]byte
	ct   map[string]string
	err  error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{puts: map[string][]byte{}, ct: map[string]string{}}
}

func (f *fakeWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	if f.err != nil {
		return f.err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(data); err != nil {
		return err
	}
	f.puts[path] = buf.Bytes()
	f.ct[path] = contentType
	return nil
}

type fakeSignalStore struct {
	recs []domain.SignalRecord
	err  error
}

func (f *fakeSignalStore) ListBefore(context.Context, time.Time) ([]domain.SignalRecord, error) {
	return f.recs, f.err
}

type fakeTradeStore struct {
	recs []domain.TradeRecord
}

func (f *fakeTradeStore) ListBefore(context.Context, time.Time) ([]domain.TradeRecord, error) {
	return f.recs, nil
}

func TestArchiveSignals(t *testing.T) {
	w := newFakeWriter()
	signals := &fakeSignalStore{recs: []domain.SignalRecord{
		{ID: 1, MarketID: "0xa", Outcome: domain.SignalOutcomeTraded},
		{ID: 2, MarketID: "0xb", Outcome: domain.SignalOutcomeMissed},
	}}
	a := NewArchiver(w, signals, &fakeTradeStore{})

	cutoff := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	n, err := a.ArchiveSignals(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ArchiveSignals: %v", err)
	}
	if n != 2 {
		t.Fatalf("archived = %d, want 2", n)
	}

	body, ok := w.puts["archive/signals/2026-07.jsonl"]
	if !ok {
		t.Fatalf("upload keys = %v, want month-partitioned path", keysOf(w.puts))
	}
	if w.ct["archive/signals/2026-07.jsonl"] != "application/x-ndjson" {
		t.Fatalf("content type = %q", w.ct["archive/signals/2026-07.jsonl"])
	}

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d JSONL lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "0xa") || !strings.Contains(lines[1], "0xb") {
		t.Fatalf("unexpected JSONL body: %s", body)
	}
}

func TestArchiveTrades(t *testing.T) {
	w := newFakeWriter()
	trades := &fakeTradeStore{recs: []domain.TradeRecord{
		{TradeID: "t1", Outcome: domain.TradeOutcomeWin},
	}}
	a := NewArchiver(w, &fakeSignalStore{}, trades)

	cutoff := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	n, err := a.ArchiveTrades(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ArchiveTrades: %v", err)
	}
	if n != 1 {
		t.Fatalf("archived = %d, want 1", n)
	}
	if _, ok := w.puts["archive/trades/2026-07.jsonl"]; !ok {
		t.Fatalf("upload keys = %v", keysOf(w.puts))
	}
}

func TestArchiveNothingToDo(t *testing.T) {
	w := newFakeWriter()
	a := NewArchiver(w, &fakeSignalStore{}, &fakeTradeStore{})

	n, err := a.ArchiveSignals(context.Background(), time.Now())
	if err != nil || n != 0 {
		t.Fatalf("empty archive = (%d, %v), want (0, nil)", n, err)
	}
	if len(w.puts) != 0 {
		t.Fatal("no records must mean no upload")
	}
}

func TestArchiveQueryFailure(t *testing.T) {
	a := NewArchiver(newFakeWriter(), &fakeSignalStore{err: errors.New("db down")}, &fakeTradeStore{})
	if _, err := a.ArchiveSignals(context.Background(), time.Now()); err == nil {
		t.Fatal("expected query error to propagate")
	}
}

func TestArchiveUploadFailure(t *testing.T) {
	w := newFakeWriter()
	w.err = errors.New("bucket gone")
	a := NewArchiver(w, &fakeSignalStore{recs: []domain.SignalRecord{{ID: 1}}}, &fakeTradeStore{})

	if _, err := a.ArchiveSignals(context.Background(), time.Now()); err == nil {
		t.Fatal("expected upload error to propagate")
	}
}

func keysOf(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
