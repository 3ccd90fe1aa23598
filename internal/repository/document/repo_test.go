package document

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/maplebid/tendex/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	hashes map[string]map[string]string

	existsErr error
	hsetErr   error
	getErr    error
	delErr    error
	scanErr   error
	multiErr  error
}

func newMockStore() *mockStore {
	return &mockStore{hashes: make(map[string]map[string]string)}
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	h := m.hashes[key]
	if h == nil {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.multiErr != nil {
		return nil, m.multiErr
	}
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i], _ = m.HGetAll(ctx, k)
	}
	return out, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.hashes, key)
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.hashes[key]
	return ok, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	keys := make([]string, 0, len(m.hashes))
	for k := range m.hashes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// --- Tests ---

func sampleDoc() domain.Document {
	return domain.Document{
		ID:            "t1",
		Title:         "Bridge repair",
		Organization:  "PSPC",
		Description:   "Structural repair of the bridge deck",
		Category:      "Construction",
		Reference:     "W8482-226011",
		NAICS:         "237310",
		Province:      "ON",
		ContractValue: "$1.2M",
		ClosingDate:   time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		SourceName:    "canadabuys",
		URL:           "https://example.org/t1",
		CreatedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := New(newMockStore())

	doc := sampleDoc()
	vec := []float32{0.25, -1, 3.5}

	created, err := repo.Put(ctx, &doc, vec)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("first Put should report created")
	}

	got, err := repo.Get(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Doc, doc) {
		t.Errorf("doc round trip:\n got %+v\nwant %+v", got.Doc, doc)
	}
	if !reflect.DeepEqual(got.Vector, vec) {
		t.Errorf("vector round trip: got %v, want %v", got.Vector, vec)
	}
}

func TestPut_UpdateNotCreated(t *testing.T) {
	ctx := context.Background()
	repo := New(newMockStore())
	doc := sampleDoc()

	if _, err := repo.Put(ctx, &doc, nil); err != nil {
		t.Fatal(err)
	}
	created, err := repo.Put(ctx, &doc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second Put should report updated, not created")
	}
}

func TestPut_NoVector(t *testing.T) {
	ctx := context.Background()
	repo := New(newMockStore())
	doc := sampleDoc()

	if _, err := repo.Put(ctx, &doc, nil); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Vector != nil {
		t.Errorf("vector = %v, want nil", got.Vector)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := New(newMockStore())
	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGet_StorageUnavailable(t *testing.T) {
	s := newMockStore()
	s.getErr = errors.New("connection refused")
	repo := New(s)

	_, err := repo.Get(context.Background(), "t1")
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("err = %v, want ErrStorageUnavailable", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := New(newMockStore())
	doc := sampleDoc()

	if _, err := repo.Put(ctx, &doc, nil); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "t1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestAll_StreamsEveryTender(t *testing.T) {
	ctx := context.Background()
	repo := New(newMockStore())

	// More than one load batch.
	n := loadBatch + 7
	for i := 0; i < n; i++ {
		doc := sampleDoc()
		doc.ID = fmt.Sprintf("t%04d", i)
		if _, err := repo.Put(ctx, &doc, []float32{float32(i)}); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	err := repo.All(ctx, func(s Stored) error {
		got = append(got, s.Doc.ID)
		if len(s.Vector) != 1 {
			t.Errorf("tender %s lost its vector", s.Doc.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != n {
		t.Errorf("streamed %d tenders, want %d", len(got), n)
	}
}

func TestAll_CallbackErrorStops(t *testing.T) {
	ctx := context.Background()
	repo := New(newMockStore())
	for _, id := range []string{"a", "b", "c"} {
		doc := sampleDoc()
		doc.ID = id
		if _, err := repo.Put(ctx, &doc, nil); err != nil {
			t.Fatal(err)
		}
	}

	sentinel := errors.New("stop")
	calls := 0
	err := repo.All(ctx, func(Stored) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want sentinel", err)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times after error", calls)
	}
}

func TestVectorBytes_RoundTrip(t *testing.T) {
	vec := []float32{0, 1, -2.5, 3.1415}
	got := bytesToVector(vectorToBytes(vec))
	if !reflect.DeepEqual(got, vec) {
		t.Errorf("round trip = %v, want %v", got, vec)
	}
	if bytesToVector("") != nil {
		t.Error("empty payload should decode to nil")
	}
	if bytesToVector("abc") != nil {
		t.Error("truncated payload should decode to nil")
	}
}

func TestParseHashFields_BadTimestampDegrades(t *testing.T) {
	doc, _ := parseHashFields("t1", map[string]string{
		fTitle:       "x",
		fClosingDate: "not-a-date",
	})
	if !doc.ClosingDate.IsZero() {
		t.Errorf("ClosingDate = %v, want zero", doc.ClosingDate)
	}
}
