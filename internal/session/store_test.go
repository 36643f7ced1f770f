package session

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestStorePutGet(t *testing.T) {
	t.Parallel()

	store := New()

	if _, ok := store.Get(42); ok {
		t.Fatal("expected no state for unseen chat")
	}

	first := State{VRM: "VN64NWG", URL: "https://vehiclescore.co.uk/score?registration=VN64NWG", SavedAt: time.Now()}
	store.Put(42, first)

	got, ok := store.Get(42)
	if !ok || got.VRM != "VN64NWG" {
		t.Fatalf("expected stored state, got %+v ok=%v", got, ok)
	}

	second := State{VRM: "AB12CDE", URL: "https://vehiclescore.co.uk/score?registration=AB12CDE", SavedAt: time.Now()}
	store.Put(42, second)

	got, ok = store.Get(42)
	if !ok || got.VRM != "AB12CDE" {
		t.Fatalf("expected later plate to replace earlier, got %+v", got)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one chat, got %d", store.Len())
	}
}

func TestStoreChatsAreIndependent(t *testing.T) {
	t.Parallel()

	store := New()
	store.Put(1, State{VRM: "AA11AAA"})
	store.Put(2, State{VRM: "BB22BBB"})

	one, _ := store.Get(1)
	two, _ := store.Get(2)
	if one.VRM != "AA11AAA" || two.VRM != "BB22BBB" {
		t.Fatalf("expected per-chat isolation, got %+v / %+v", one, two)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			chatID := int64(n % 4)
			store.Put(chatID, State{VRM: fmt.Sprintf("AB%02dCDE", n)})
			store.Get(chatID)
		}(i)
	}
	wg.Wait()

	if store.Len() != 4 {
		t.Fatalf("expected 4 chats after concurrent writes, got %d", store.Len())
	}
}
