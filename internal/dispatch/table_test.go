package dispatch

import (
	"fmt"
	"sync"
	"testing"
)

func TestTable_RegisterLookup(t *testing.T) {
	table := NewTable()

	var got any
	table.Register("next_slide", func(payload any) { got = payload })

	h, ok := table.Lookup("next_slide")
	if !ok {
		t.Fatal("Lookup(next_slide) ok = false, want true")
	}
	h("hello")
	if got != "hello" {
		t.Errorf("handler received %v, want hello", got)
	}

	if _, ok := table.Lookup("missing"); ok {
		t.Error("Lookup(missing) ok = true, want false")
	}
}

func TestTable_IgnoresEmptyRegistrations(t *testing.T) {
	table := NewTable()
	table.Register("", func(any) {})
	table.Register("x", nil)

	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}
}

func TestTable_UnregisterAndKeys(t *testing.T) {
	table := NewTable()
	for _, k := range []string{"wait_b", "clear_all", "next_slide"} {
		table.Register(k, func(any) {})
	}
	table.Unregister("wait_b")

	keys := table.Keys()
	want := []string{"clear_all", "next_slide"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestTable_ConcurrentAccess(t *testing.T) {
	table := NewTable()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			table.Register(fmt.Sprintf("key_%d", i), func(any) {})
		}()
		go func() {
			defer wg.Done()
			table.Lookup(fmt.Sprintf("key_%d", i))
			table.Keys()
		}()
	}
	wg.Wait()

	if table.Len() != 50 {
		t.Errorf("Len() = %d, want 50", table.Len())
	}
}
