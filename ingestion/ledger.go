package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/loader"
	"github.com/poiesic/vsloader/storage"
	"github.com/poiesic/vsloader/vectorstore"
)

// runRecorder tracks the state of one load and mirrors it to the ledger.
// Ledger failures are logged and never fail the load.
type runRecorder struct {
	run    *core.Run
	runs   storage.RunRepository
	logger *slog.Logger
}

func (r *runRecorder) advance(state core.RunState) {
	r.logger.Debug("run state", "from", r.run.State, "to", state)
	r.run.State = state
}

func (r *runRecorder) fingerprint(raw loader.RawData) {
	rc, err := raw.Open()
	if err != nil {
		return
	}
	defer rc.Close()

	fp, err := core.Fingerprint(rc)
	if err != nil {
		r.logger.Warn("could not fingerprint source", "err", err)
		return
	}
	r.run.Fingerprint = fp
}

// fail marks the run failed and returns err unchanged.
func (r *runRecorder) fail(ctx context.Context, err error) (Result, error) {
	r.logger.Error("load failed", "state", r.run.State, "err", err)
	r.run.Error = err.Error()
	r.advance(core.RunStateFailed)
	return r.complete(ctx), err
}

func (r *runRecorder) finish(ctx context.Context) Result {
	r.advance(core.RunStateDone)
	return r.complete(ctx)
}

func (r *runRecorder) complete(ctx context.Context) Result {
	r.run.FinishedAt = time.Now().UTC()
	r.save(context.WithoutCancel(ctx))
	return Result{
		Skipped:   r.run.Skipped,
		State:     r.run.State,
		Documents: r.run.Documents,
		Chunks:    r.run.Chunks,
		Stored: vectorstore.StoreResult{
			Batches:   r.run.BatchesStored,
			Documents: r.run.DocsStored,
		},
		RunID: r.run.Id,
	}
}

func (r *runRecorder) save(ctx context.Context) {
	if r.runs == nil {
		return
	}
	if err := r.runs.SaveRun(ctx, r.run); err != nil {
		r.logger.Warn("could not record run", "run", r.run.Id, "err", err)
	}
}
