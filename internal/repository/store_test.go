package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jpsoriano/permit-extractor/internal/cache"
	"github.com/jpsoriano/permit-extractor/internal/record"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "permits.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadEntries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := record.Empty()
	rec.FileName = "a.pdf"
	rec.BusinessName = "ACME Store"
	entry := cache.Entry{
		Sig:         cache.FileSignature{Size: 1234, MTime: 1700000000},
		Result:      rec,
		ProcessedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SaveEntry(ctx, "/docs/a.pdf", entry); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := s.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := entries["/docs/a.pdf"]
	if !ok {
		t.Fatalf("entry missing, got %v", entries)
	}
	if got.Sig != entry.Sig {
		t.Errorf("sig = %+v, want %+v", got.Sig, entry.Sig)
	}
	if got.Result == nil || got.Result.BusinessName != "ACME Store" {
		t.Errorf("result = %+v", got.Result)
	}
	if !got.ProcessedAt.Equal(entry.ProcessedAt) {
		t.Errorf("processed_at = %v, want %v", got.ProcessedAt, entry.ProcessedAt)
	}
}

func TestSaveEntryUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	path := "/docs/a.pdf"
	first := cache.Entry{Sig: cache.FileSignature{Size: 1}, ProcessedAt: time.Now()}
	if err := s.SaveEntry(ctx, path, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec := record.Empty()
	rec.FileName = "a.pdf"
	second := cache.Entry{Sig: cache.FileSignature{Size: 2}, Result: rec, ProcessedAt: time.Now()}
	if err := s.SaveEntry(ctx, path, second); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	entries, err := s.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[path].Sig.Size != 2 || entries[path].Result == nil {
		t.Errorf("upsert did not replace: %+v", entries[path])
	}
}

func TestListRecordsSkipsFailures(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := record.Empty()
	rec.FileName = "ok.pdf"
	if err := s.SaveEntry(ctx, "/docs/ok.pdf", cache.Entry{Result: rec, ProcessedAt: time.Now()}); err != nil {
		t.Fatalf("save ok: %v", err)
	}
	if err := s.SaveEntry(ctx, "/docs/failed.pdf", cache.Entry{ProcessedAt: time.Now()}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	records, err := s.ListRecords(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].FileName != "ok.pdf" {
		t.Errorf("records = %+v, want only ok.pdf", records)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveEntry(ctx, "/docs/a.pdf", cache.Entry{ProcessedAt: time.Now()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(ctx, "/docs/a.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	entries, err := s.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want empty", entries)
	}
}
