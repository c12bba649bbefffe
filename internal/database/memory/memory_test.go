package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/facematch"
)

func testIdentity(id, name string, seed float32) facematch.Identity {
	d := make(facematch.Descriptor, 128)
	for i := range d {
		d[i] = seed
	}
	return facematch.Identity{ID: id, DisplayName: name, Descriptor: d, EnrolledAt: time.Unix(1700000000, 0)}
}

func TestStore_InsertAndListPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	for i, name := range []string{"Charlie", "Alice", "Bob"} {
		if err := s.Insert(ctx, testIdentity(fmt.Sprintf("id-%d", i), name, float32(i))); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 identities, got %d", len(all))
	}
	for i, want := range []string{"Charlie", "Alice", "Bob"} {
		if all[i].DisplayName != want {
			t.Errorf("position %d: expected %s, got %s", i, want, all[i].DisplayName)
		}
	}
}

func TestStore_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.Insert(ctx, testIdentity("same", "A", 0)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	err := s.Insert(ctx, testIdentity("same", "B", 1))
	if !errors.Is(err, database.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("expected count 1 after rejected insert, got %d", n)
	}
}

func TestStore_DimensionConflict(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.Insert(ctx, testIdentity("a", "A", 0)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	short := testIdentity("b", "B", 0)
	short.Descriptor = short.Descriptor[:64]
	if err := s.Insert(ctx, short); !errors.Is(err, database.ErrDimensionConflict) {
		t.Fatalf("expected ErrDimensionConflict, got %v", err)
	}
}

func TestStore_FindByID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.Insert(ctx, testIdentity("a", "Alice", 0.1))

	got, err := s.FindByID(ctx, "a")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got == nil || got.DisplayName != "Alice" {
		t.Fatalf("expected Alice, got %+v", got)
	}

	missing, err := s.FindByID(ctx, "nope")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown id, got %+v", missing)
	}
}

func TestStore_FindByName(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.Insert(ctx, testIdentity("a", "Jan Novák", 0))
	_ = s.Insert(ctx, testIdentity("b", "Jane Smith", 0))
	_ = s.Insert(ctx, testIdentity("c", "jan novak", 0))

	got, err := s.FindByName(ctx, "jan-novak")
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestStore_ReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	in := testIdentity("a", "Alice", 0.5)
	_ = s.Insert(ctx, in)

	in.Descriptor[0] = 42

	all, _ := s.ListAll(ctx)
	if all[0].Descriptor[0] != 0.5 {
		t.Fatalf("caller mutation leaked into store: %v", all[0].Descriptor[0])
	}

	all[0].Descriptor[1] = 42
	again, _ := s.ListAll(ctx)
	if again[0].Descriptor[1] != 0.5 {
		t.Errorf("snapshot mutation leaked into store: %v", again[0].Descriptor[1])
	}
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStore()

	if _, err := s.ListAll(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ListAll: expected context.Canceled, got %v", err)
	}
	if err := s.Insert(ctx, testIdentity("a", "A", 0)); !errors.Is(err, context.Canceled) {
		t.Errorf("Insert: expected context.Canceled, got %v", err)
	}
}

func TestStore_ConcurrentInsertAndList(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				id := fmt.Sprintf("w%d-%d", w, i)
				if err := s.Insert(ctx, testIdentity(id, id, float32(i))); err != nil {
					t.Errorf("Insert(%s) error = %v", id, err)
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		prev := 0
		for range 200 {
			all, err := s.ListAll(ctx)
			if err != nil {
				t.Errorf("ListAll() error = %v", err)
				return
			}
			if len(all) < prev {
				t.Errorf("snapshot shrank from %d to %d", prev, len(all))
			}
			prev = len(all)
		}
	}()

	wg.Wait()
	<-done

	n, _ := s.Count(ctx)
	if n != writers*perWriter {
		t.Errorf("expected %d identities, got %d", writers*perWriter, n)
	}
}
