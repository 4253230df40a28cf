package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) (storage.RunRepository, error) {
	return &RunRepository{backend: backend}, nil
}

// Close is a no-op; the backend is owned by the caller.
func (r *RunRepository) Close() error {
	return nil
}

// SaveRun creates or replaces a run and keeps the per-index ordering key current.
func (r *RunRepository) SaveRun(ctx context.Context, run *core.Run) error {
	if run.Id == "" {
		run.Id = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRunKey(run.Id)

		old, err := readRun(tx, key)
		if err != nil {
			return err
		}
		if old != nil && (old.Index != run.Index || !old.StartedAt.Equal(run.StartedAt)) {
			if err := tx.Delete(makeRunIndexKey(old.Index, old.StartedAt, old.Id)); err != nil {
				return err
			}
		}

		value, err := storage.MarshalRun(run)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Set(makeRunIndexKey(run.Index, run.StartedAt, run.Id), []byte(run.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetRun retrieves a run by ID.
func (r *RunRepository) GetRun(ctx context.Context, id string) (*core.Run, error) {
	var run *core.Run
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		run, err = readRun(tx, makeRunKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, storage.ErrNotFound
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (r *RunRepository) ListRuns(ctx context.Context, index string, limit int) ([]*core.Run, error) {
	if index == "" {
		return r.listAllRuns(limit)
	}

	var results []*core.Run
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialRunIndexKey(index)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible key with this prefix
		seek := append(slices.Clone(prefix), 0xFF)
		for iter.Seek(seek); iter.ValidForPrefix(prefix); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			run, err := readRun(tx, makeRunKey(string(id)))
			if err != nil {
				return err
			}
			if run != nil {
				results = append(results, run)
			}
		}
		return nil
	}, false)

	return results, err
}

// LatestRun returns the most recent run for index.
func (r *RunRepository) LatestRun(ctx context.Context, index string) (*core.Run, error) {
	runs, err := r.ListRuns(ctx, index, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, storage.ErrNotFound
	}
	return runs[0], nil
}

func (r *RunRepository) listAllRuns(limit int) ([]*core.Run, error) {
	var results []*core.Run
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var run *core.Run
			err := iter.Item().Value(func(val []byte) error {
				var err error
				run, err = storage.UnmarshalRun(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, run)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Run) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// readRun reads a run from the transaction. Missing runs return nil, nil.
func readRun(tx *badger.Txn, key []byte) (*core.Run, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var run *core.Run
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		run, unmarshalErr = storage.UnmarshalRun(val)
		return unmarshalErr
	})
	return run, err
}
