// Package ingest is the write boundary of the search core. The scraping
// pipeline calls it to upsert or delete tenders; it keeps the document
// store, the lexical index and the vector index in sync. Writes are
// serialized here so the read-only search path always observes a
// consistent snapshot.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maplebid/tendex/internal/domain"
	"github.com/maplebid/tendex/internal/metrics"
	"github.com/maplebid/tendex/internal/repository/document"
)

// Store persists tenders with their embeddings.
type Store interface {
	Put(ctx context.Context, doc *domain.Document, vec []float32) (bool, error)
	Get(ctx context.Context, id string) (document.Stored, error)
	Delete(ctx context.Context, id string) error
	All(ctx context.Context, fn func(document.Stored) error) error
}

// Lexical is the keyword index maintenance contract.
type Lexical interface {
	Put(doc domain.Document)
	Delete(id string)
	Len() int
}

// Vector is the similarity index maintenance contract.
type Vector interface {
	Put(id string, vec []float32) error
	Delete(id string)
}

// Embedder vectorizes document text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Service coordinates tender writes across storage and both indexes.
type Service struct {
	mu     sync.Mutex
	store  Store
	lex    Lexical
	vec    Vector
	embed  Embedder
	logger *zap.Logger
}

// New creates an ingest service.
func New(store Store, lex Lexical, vec Vector, embed Embedder, logger *zap.Logger) *Service {
	return &Service{store: store, lex: lex, vec: vec, embed: embed, logger: logger}
}

// Upsert stores a tender and rebuilds its index entries. Returns true if
// the tender was created. An embedding failure is non-fatal: the tender
// stays searchable by keyword and picks up a vector on the next upsert.
func (s *Service) Upsert(ctx context.Context, doc domain.Document) (bool, error) {
	if strings.TrimSpace(doc.ID) == "" {
		return false, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(doc.Title) == "" {
		return false, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	doc.UpdatedAt = now
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}

	vec := s.embedDoc(ctx, &doc)

	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.store.Put(ctx, &doc, vec)
	if err != nil {
		return false, fmt.Errorf("store tender %s: %w", doc.ID, err)
	}

	s.lex.Put(doc)
	if vec != nil {
		if err := s.vec.Put(doc.ID, vec); err != nil {
			// Dimension drift between provider and index config.
			s.logger.Error("Failed to index embedding", zap.String("id", doc.ID), zap.Error(err))
		}
	}

	metrics.IndexedDocuments.Set(float64(s.lex.Len()))
	return created, nil
}

// Get returns one stored tender.
func (s *Service) Get(ctx context.Context, id string) (domain.Document, error) {
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}
	return stored.Doc, nil
}

// Delete removes a tender from storage and both indexes.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.lex.Delete(id)
	s.vec.Delete(id)

	metrics.IndexedDocuments.Set(float64(s.lex.Len()))
	return nil
}

// LoadSnapshot rebuilds both in-process indexes from the document store.
// Called once at startup before the HTTP listener accepts traffic.
func (s *Service) LoadSnapshot(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	err := s.store.All(ctx, func(st document.Stored) error {
		s.lex.Put(st.Doc)
		if st.Vector != nil {
			if err := s.vec.Put(st.Doc.ID, st.Vector); err != nil {
				s.logger.Warn("Skipping stored embedding",
					zap.String("id", st.Doc.ID), zap.Error(err))
			}
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("load snapshot: %w", err)
	}

	metrics.IndexedDocuments.Set(float64(s.lex.Len()))
	return n, nil
}

// embedDoc vectorizes the searchable text of a tender. Returns nil when
// the provider is unavailable.
func (s *Service) embedDoc(ctx context.Context, doc *domain.Document) []float32 {
	var parts []string
	for _, ft := range doc.Body() {
		if ft.Text != "" {
			parts = append(parts, ft.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if text == "" {
		return nil
	}

	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("Embedding unavailable, tender indexed keyword-only",
			zap.String("id", doc.ID), zap.Error(err))
		return nil
	}
	return res.Embedding
}
