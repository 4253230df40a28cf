package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (storage.DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// IndexExists reports whether index metadata is present.
func (r *DocumentRepository) IndexExists(ctx context.Context, index string) (bool, error) {
	info, err := r.GetIndex(ctx, index)
	if errors.Is(err, storage.ErrIndexNotFound) {
		return false, nil
	}
	return info != nil, err
}

// CreateIndex writes index metadata unless it already exists.
func (r *DocumentRepository) CreateIndex(ctx context.Context, index string, dimensions int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := readIndexInfo(tx, index)
		if err != nil || existing != nil {
			return err
		}
		if err := writeIndexInfo(tx, &core.IndexInfo{
			Name:       index,
			Dimensions: max(dimensions, 0),
			CreatedAt:  time.Now().UTC(),
		}); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetIndex returns index metadata.
func (r *DocumentRepository) GetIndex(ctx context.Context, index string) (*core.IndexInfo, error) {
	var info *core.IndexInfo
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		info, err = readIndexInfo(tx, index)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrIndexNotFound, index)
	}
	return info, nil
}

// DeleteIndex removes index metadata and drops every document key of the index.
func (r *DocumentRepository) DeleteIndex(ctx context.Context, index string) (bool, error) {
	exists, err := r.IndexExists(ctx, index)
	if err != nil || !exists {
		return false, err
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeIndexInfoKey(index)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return false, err
	}

	if _, err := r.backend.DeletePrefix(makePartialDocumentKey(index)); err != nil {
		return false, err
	}
	return true, nil
}

// AddDocuments stores documents in one transaction.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.StoredDocument) ([]*core.StoredDocument, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		infos := make(map[string]*core.IndexInfo)
		now := time.Now().UTC()

		for _, doc := range docs {
			info, err := r.ensureIndex(tx, infos, doc)
			if err != nil {
				return err
			}
			if info.Dimensions != len(doc.Vector) {
				return fmt.Errorf("%w: index %s expects %d, got %d",
					storage.ErrDimensionMismatch, doc.Index, info.Dimensions, len(doc.Vector))
			}

			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				if nextID, err = r.idSeq.Next(); err != nil {
					return err
				}
			}
			doc.Id = core.ID(nextID)
			doc.InsertedAt = now

			value, err := storage.MarshalStoredDocument(doc)
			if err != nil {
				return err
			}
			if err := tx.Set(makeDocumentKey(doc.Index, doc.Id), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// CountDocuments counts document keys of index without reading values.
func (r *DocumentRepository) CountDocuments(ctx context.Context, index string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makePartialDocumentKey(index)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// FindSimilar scans every document of index and ranks by cosine similarity.
func (r *DocumentRepository) FindSimilar(ctx context.Context, index string, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.SearchResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialDocumentKey(index)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var doc *core.StoredDocument
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalStoredDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(doc.Vector) == 0 {
				continue
			}

			similarity := cosineSimilarity(vector, doc.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.SearchResult{
					Document: doc,
					Score:    similarity,
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ensureIndex returns the metadata for doc's index, creating the index or
// fixing its dimensions from the first vector when needed.
func (r *DocumentRepository) ensureIndex(tx *badger.Txn, cache map[string]*core.IndexInfo, doc *core.StoredDocument) (*core.IndexInfo, error) {
	if info, ok := cache[doc.Index]; ok {
		return info, nil
	}

	info, err := readIndexInfo(tx, doc.Index)
	if err != nil {
		return nil, err
	}
	if info == nil {
		info = &core.IndexInfo{Name: doc.Index, CreatedAt: time.Now().UTC()}
	}
	if info.Dimensions == 0 {
		info.Dimensions = len(doc.Vector)
		if err := writeIndexInfo(tx, info); err != nil {
			return nil, err
		}
	}
	cache[doc.Index] = info
	return info, nil
}

func readIndexInfo(tx *badger.Txn, index string) (*core.IndexInfo, error) {
	item, err := tx.Get(makeIndexInfoKey(index))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var info *core.IndexInfo
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		info, unmarshalErr = storage.UnmarshalIndexInfo(val)
		return unmarshalErr
	})
	return info, err
}

func writeIndexInfo(tx *badger.Txn, info *core.IndexInfo) error {
	value, err := storage.MarshalIndexInfo(info)
	if err != nil {
		return err
	}
	return tx.Set(makeIndexInfoKey(info.Name), value)
}
