package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"
)

func TestMemoryStorePutAssignsSequence(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	v1, err := s.Put(ctx, "wf", "doc one")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	v2, err := s.Put(ctx, "wf", "doc two")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if v1.Number != 1 || v2.Number != 2 {
		t.Errorf("numbers = %d, %d, want 1, 2", v1.Number, v2.Number)
	}
	if v1.ID == "" || v1.ID == v2.ID {
		t.Errorf("ids = %q, %q, want distinct non-empty", v1.ID, v2.ID)
	}
	if v1.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestMemoryStoreGetLatestList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Put(ctx, "wf", "one")
	s.Put(ctx, "wf", "two")
	s.Put(ctx, "other", "x")

	v, err := s.Get(ctx, "wf", 1)
	if err != nil || v.Document != "one" {
		t.Errorf("Get(1) = %v, %v", v, err)
	}
	if _, err := s.Get(ctx, "wf", 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(3) err = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "nope", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(nope) err = %v, want ErrNotFound", err)
	}

	latest, err := s.Latest(ctx, "wf")
	if err != nil || latest.Document != "two" {
		t.Errorf("Latest = %v, %v", latest, err)
	}
	if _, err := s.Latest(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest(nope) err = %v, want ErrNotFound", err)
	}

	vs, err := s.List(ctx, "wf")
	if err != nil || len(vs) != 2 {
		t.Fatalf("List = %v, %v", vs, err)
	}
	if vs[0].Number != 1 || vs[1].Number != 2 {
		t.Errorf("List order = %d, %d", vs[0].Number, vs[1].Number)
	}

	empty, err := s.List(ctx, "nope")
	if err != nil || len(empty) != 0 {
		t.Errorf("List(nope) = %v, %v, want empty", empty, err)
	}
}

func TestMemoryStoreRejectsEmptyWorkflow(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Put(context.Background(), "", "doc"); !errors.Is(err, ErrEmptyWorkflow) {
		t.Errorf("err = %v, want ErrEmptyWorkflow", err)
	}
}

func TestMemoryStoreConcurrentPuts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Put(ctx, "wf", "doc"); err != nil {
				t.Errorf("Put: %v", err)
			}
		}()
	}
	wg.Wait()

	vs, _ := s.List(ctx, "wf")
	if len(vs) != n {
		t.Fatalf("stored %d versions, want %d", len(vs), n)
	}
	seen := make(map[int]bool)
	for _, v := range vs {
		if seen[v.Number] {
			t.Errorf("duplicate sequence number %d", v.Number)
		}
		seen[v.Number] = true
	}
}

// TestMongoStore exercises the mongo backend against a live instance.
// Set FLOWSMITH_TEST_MONGO_URI (e.g. mongodb://localhost:27017) to enable.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("FLOWSMITH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FLOWSMITH_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, uri, "flowsmith_test", "versions_test")
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer s.Close(ctx)

	wf := "it-" + t.Name()

	v1, err := s.Put(ctx, wf, "doc one")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	v2, err := s.Put(ctx, wf, "doc two")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if v1.Number != 1 || v2.Number != 2 {
		t.Errorf("numbers = %d, %d, want 1, 2", v1.Number, v2.Number)
	}

	got, err := s.Get(ctx, wf, 1)
	if err != nil || got.Document != "doc one" {
		t.Errorf("Get = %v, %v", got, err)
	}
	latest, err := s.Latest(ctx, wf)
	if err != nil || latest.Number != 2 {
		t.Errorf("Latest = %v, %v", latest, err)
	}
	vs, err := s.List(ctx, wf)
	if err != nil || len(vs) != 2 {
		t.Errorf("List = %v, %v", vs, err)
	}
	if _, err := s.Get(ctx, wf, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(99) err = %v, want ErrNotFound", err)
	}
}
