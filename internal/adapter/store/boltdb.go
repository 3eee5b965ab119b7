package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"docqa/internal/domain"
	"docqa/internal/port"

	"go.etcd.io/bbolt"
)

var (
	bucketChunks  = []byte("chunks")
	bucketBlobs   = []byte("blobs")
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
	keyIndexInfo  = []byte("index_info")
)

var _ port.IndexStore = (*BoltStore)(nil)

// BoltStore persists a single document index in a bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore creates (or opens for writing) the index database at path,
// creating parent directories as needed.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketChunks, bucketBlobs, bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// OpenBoltStore opens an existing index read-only. It returns
// domain.ErrNoIndex when nothing has been persisted at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", domain.ErrNoIndex, path)
		}
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	s := &BoltStore{db: db}
	if _, err := s.GetIndexInfo(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

type chunkMeta struct {
	DocID string `json:"doc_id"`
	Index int    `json:"index"`
	Page  int    `json:"page"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// BuildIndex replaces whatever the database held with the given chunks and
// vectors. Either everything is written or nothing is.
func (s *BoltStore) BuildIndex(info domain.IndexInfo, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return domain.ErrEmptyIndex
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	info.SchemaVersion = CurrentSchemaVersion
	info.ChunkCount = len(chunks)
	if info.Dimension == 0 {
		info.Dimension = len(vectors[0])
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketBlobs, bucketVectors, bucketMeta} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		chunksBucket := tx.Bucket(bucketChunks)
		blobsBucket := tx.Bucket(bucketBlobs)
		vectorsBucket := tx.Bucket(bucketVectors)

		for i, chunk := range chunks {
			if len(vectors[i]) != info.Dimension {
				return fmt.Errorf("vector dimension mismatch for chunk %s: expected %d, got %d", chunk.ID, info.Dimension, len(vectors[i]))
			}

			data, err := json.Marshal(chunkMeta{
				DocID: chunk.DocID,
				Index: chunk.Index,
				Page:  chunk.Page,
				Start: chunk.Start,
				End:   chunk.End,
			})
			if err != nil {
				return err
			}
			if err := chunksBucket.Put([]byte(chunk.ID), data); err != nil {
				return err
			}
			if err := blobsBucket.Put([]byte(chunk.ID), []byte(chunk.Text)); err != nil {
				return err
			}

			vecData, err := json.Marshal(storedVector{Vector: vectors[i]})
			if err != nil {
				return err
			}
			if err := vectorsBucket.Put([]byte(chunk.ID), vecData); err != nil {
				return err
			}
		}

		infoData, err := json.Marshal(info)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyIndexInfo, infoData)
	})
}

func (s *BoltStore) GetChunk(id string) (domain.Chunk, error) {
	var chunk domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketChunks).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("chunk not found: %s", id)
		}
		var err error
		chunk, err = decodeChunk(id, data, tx.Bucket(bucketBlobs).Get([]byte(id)))
		return err
	})
	return chunk, err
}

// ListChunks returns every chunk in document order.
func (s *BoltStore) ListChunks() ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		blobs := tx.Bucket(bucketBlobs)
		return tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			chunk, err := decodeChunk(string(k), v, blobs.Get(k))
			if err != nil {
				return err
			}
			chunks = append(chunks, chunk)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})
	return chunks, nil
}

func decodeChunk(id string, metaData, text []byte) (domain.Chunk, error) {
	var meta chunkMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return domain.Chunk{}, fmt.Errorf("corrupt chunk %s: %w", id, err)
	}
	return domain.Chunk{
		ID:    id,
		DocID: meta.DocID,
		Index: meta.Index,
		Page:  meta.Page,
		Start: meta.Start,
		End:   meta.End,
		Text:  string(text),
	}, nil
}

// GetIndexInfo returns the metadata written by the last BuildIndex. A
// database that was never built reports domain.ErrNoIndex.
func (s *BoltStore) GetIndexInfo() (domain.IndexInfo, error) {
	var info domain.IndexInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return domain.ErrNoIndex
		}
		data := b.Get(keyIndexInfo)
		if data == nil {
			return domain.ErrNoIndex
		}
		return json.Unmarshal(data, &info)
	})
	return info, err
}

// Vectors loads the stored vectors into a searchable in-memory view.
func (s *BoltStore) Vectors() (port.VectorStore, error) {
	info, err := s.GetIndexInfo()
	if err != nil {
		return nil, err
	}
	return NewBoltVectorStore(s.db, info.Dimension)
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
