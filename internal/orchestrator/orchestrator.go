package orchestrator

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jpsoriano/permit-extractor/internal/cache"
	"github.com/jpsoriano/permit-extractor/internal/common"
	"github.com/jpsoriano/permit-extractor/internal/record"
)

// DocumentProcessor is the per-document pipeline the orchestrator drives.
type DocumentProcessor interface {
	Process(ctx context.Context, path string) (*record.PermitRecord, error)
}

// RecordStore mirrors finished cache entries to durable storage. May be nil.
type RecordStore interface {
	SaveEntry(ctx context.Context, path string, e cache.Entry) error
}

// PassStats summarizes one orchestration pass.
type PassStats struct {
	Scanned   int
	Pending   int
	Succeeded int
	Failed    int
}

// Orchestrator owns the processing cache for the lifetime of the process and
// runs pending documents through the pipeline with bounded parallelism.
type Orchestrator struct {
	Logger     *slog.Logger
	Cache      *cache.Cache
	Proc       DocumentProcessor
	Store      RecordStore
	MaxWorkers int
}

func New(logger *slog.Logger, c *cache.Cache, proc DocumentProcessor, store RecordStore) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		Logger:     logger,
		Cache:      c,
		Proc:       proc,
		Store:      store,
		MaxWorkers: 4,
	}
}

// Pass processes every stale document in paths. Each document is an
// independent unit of work; one document's failure never aborts the pass.
// Completion order across documents is not defined; the cache write for each
// document carries the signature observed at selection time, so a file edited
// mid-read is picked up again on the next pass.
func (o *Orchestrator) Pass(ctx context.Context, paths []string) PassStats {
	start := time.Now()

	o.Cache.Prune(paths)
	pending := o.Cache.Pending(paths)
	stats := PassStats{Scanned: len(paths), Pending: len(pending)}
	if len(pending) == 0 {
		return stats
	}

	workers := o.MaxWorkers
	if workers <= 0 {
		workers = 4
	}
	if len(pending) < workers {
		workers = len(pending)
	}

	var succeeded, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for _, doc := range pending {
		g.Go(func() error {
			entry := cache.Entry{Sig: doc.Sig, ProcessedAt: time.Now().UTC()}
			rec, err := o.Proc.Process(ctx, doc.Path)
			if err != nil {
				o.Logger.Warn("orchestrator.document.failed", "path", doc.Path, "error", err)
				failed.Add(1)
			} else {
				entry.Result = rec
				succeeded.Add(1)
				if sig, serr := cache.Signature(doc.Path); serr == nil && sig != doc.Sig {
					// the entry keeps the selection-time signature, so the
					// newer version is picked up on the next pass
					o.Logger.Warn("orchestrator.document.changed_during_processing",
						"path", doc.Path, "error", common.ErrSignatureRace)
				}
			}
			// failed attempts are written too, with Result nil, so the
			// document stays stale and is retried on the next pass
			o.Cache.Put(doc.Path, entry)
			if o.Store != nil {
				if err := o.Store.SaveEntry(ctx, doc.Path, entry); err != nil {
					o.Logger.Warn("orchestrator.store.save_failed", "path", doc.Path, "error", err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Succeeded = int(succeeded.Load())
	stats.Failed = int(failed.Load())

	o.Logger.Info("orchestrator.pass.done",
		"scanned", stats.Scanned,
		"pending", stats.Pending,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"workers", workers,
		"cache_size", o.Cache.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return stats
}
