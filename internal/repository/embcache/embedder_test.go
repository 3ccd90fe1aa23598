package embcache

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/maplebid/tendex/internal/db"
	"github.com/maplebid/tendex/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

type mockEmbedder struct {
	vec    []float32
	err    error
	tokens int
	calls  int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: m.tokens}, nil
}

// --- Tests ---

func TestEmbed_MissThenHit(t *testing.T) {
	ctx := context.Background()
	inner := &mockEmbedder{vec: []float32{1, 2, 3}, tokens: 5}
	store := newMockStore()
	c := New(inner, store, nil, zap.NewNop())

	first, err := c.Embed(ctx, "bridge repair")
	if err != nil {
		t.Fatal(err)
	}
	if first.TotalTokens != 5 {
		t.Errorf("miss TotalTokens = %d, want inner usage", first.TotalTokens)
	}

	second, err := c.Embed(ctx, "bridge repair")
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if !reflect.DeepEqual(second.Embedding, first.Embedding) {
		t.Errorf("cached embedding = %v, want %v", second.Embedding, first.Embedding)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit TotalTokens = %d, want 0", second.TotalTokens)
	}
}

func TestEmbed_DifferentTextsDifferentKeys(t *testing.T) {
	ctx := context.Background()
	inner := &mockEmbedder{vec: []float32{1}}
	c := New(inner, newMockStore(), nil, zap.NewNop())

	if _, err := c.Embed(ctx, "snow removal"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Embed(ctx, "grass cutting"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2", inner.calls)
	}
}

func TestEmbed_StoreGetFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	inner := &mockEmbedder{vec: []float32{1}}
	store := newMockStore()
	store.getErr = errors.New("connection refused")
	c := New(inner, store, nil, zap.NewNop())

	res, err := c.Embed(ctx, "bridge")
	if err != nil {
		t.Fatalf("cache failure must not fail the embed: %v", err)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("embedding = %v", res.Embedding)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
}

func TestEmbed_StoreSetFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	inner := &mockEmbedder{vec: []float32{1}}
	store := newMockStore()
	store.setErr = errors.New("read-only replica")
	c := New(inner, store, nil, zap.NewNop())

	if _, err := c.Embed(ctx, "bridge"); err != nil {
		t.Fatalf("set failure must not fail the embed: %v", err)
	}
}

func TestEmbed_InnerErrorPropagates(t *testing.T) {
	ctx := context.Background()
	innerErr := errors.New("rate limited")
	c := New(&mockEmbedder{err: innerErr}, newMockStore(), nil, zap.NewNop())

	_, err := c.Embed(ctx, "bridge")
	if !errors.Is(err, innerErr) {
		t.Errorf("err = %v, want wrapped inner error", err)
	}
}

func TestEmbed_CorruptCacheEntryIgnored(t *testing.T) {
	ctx := context.Background()
	inner := &mockEmbedder{vec: []float32{1, 2}}
	store := newMockStore()
	c := New(inner, store, nil, zap.NewNop())

	store.data[c.cacheKey("bridge")] = []byte("abc") // not a multiple of 4

	res, err := c.Embed(ctx, "bridge")
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Error("corrupt entry should fall through to the provider")
	}
	if len(res.Embedding) != 2 {
		t.Errorf("embedding = %v", res.Embedding)
	}
}

func TestCacheKey(t *testing.T) {
	c := New(&mockEmbedder{}, newMockStore(), nil, zap.NewNop())
	key := c.cacheKey("bridge")
	if !strings.HasPrefix(key, cacheKeyPrefix) {
		t.Errorf("key = %q, want %q prefix", key, cacheKeyPrefix)
	}
	if key == c.cacheKey("culvert") {
		t.Error("different texts share a cache key")
	}
}
