package vmem

import (
	"testing"
)

// TestLRUReplacer tests basic LRU replacer functionality
func TestLRUReplacer(t *testing.T) {
	replacer := NewLRUReplacer(16, 4)

	if replacer == nil {
		t.Fatal("LRU replacer should not be nil")
	}

	if replacer.Size() != 0 {
		t.Errorf("Expected initial size 0, got %d", replacer.Size())
	}

	if _, ok := replacer.Slot(3); ok {
		t.Error("Page 3 should not have a ledger slot before loading")
	}
}

// TestLRUVictim tests victim selection
func TestLRUVictim(t *testing.T) {
	replacer := NewLRUReplacer(16, 3)

	// Load pages in order: 0, 1, 2
	replacer.Load(0)
	replacer.Load(1)
	replacer.Load(2)

	// Oldest should be 0
	victim := replacer.Evict(5)
	if victim != 0 {
		t.Errorf("Expected victim 0, got %d", victim)
	}

	// After evicting 0, next should be 1
	victim = replacer.Evict(6)
	if victim != 1 {
		t.Errorf("Expected victim 1, got %d", victim)
	}
}

// TestLRUTouch tests access updating recency
func TestLRUTouch(t *testing.T) {
	replacer := NewLRUReplacer(16, 3)

	replacer.Load(0)
	replacer.Load(1)
	replacer.Load(2)

	// Touch page 0 (makes it most recently used)
	replacer.Touch(0)

	// Now order should be: 1 (oldest), 2, 0 (newest)
	victim := replacer.Evict(3)
	if victim != 1 {
		t.Errorf("Expected victim 1 (oldest), got %d", victim)
	}
}

// TestLRUSlotReuse tests that the new page takes the victim's ledger slot
func TestLRUSlotReuse(t *testing.T) {
	replacer := NewLRUReplacer(16, 3)

	replacer.Load(4)
	replacer.Load(5)
	replacer.Load(6)
	replacer.Touch(4)

	victim := replacer.Evict(9)
	if victim != 5 {
		t.Fatalf("Expected victim 5, got %d", victim)
	}

	slot, ok := replacer.Slot(9)
	if !ok || slot != 1 {
		t.Errorf("Expected page 9 in slot 1, got %d (present=%v)", slot, ok)
	}

	if _, ok := replacer.Slot(5); ok {
		t.Error("Evicted page 5 should not keep a ledger slot")
	}

	pages := replacer.Pages()
	expected := []uint32{4, 9, 6}
	for i := range expected {
		if pages[i] != expected[i] {
			t.Errorf("At slot %d: expected page %d, got %d", i, expected[i], pages[i])
		}
	}
}

// TestLRUStamps tests that every reference advances the counter
func TestLRUStamps(t *testing.T) {
	replacer := NewLRUReplacer(16, 2)

	replacer.Load(1)
	replacer.Load(2)
	replacer.Touch(1)

	if replacer.LastAccess(1) != 3 {
		t.Errorf("Expected page 1 stamped at 3, got %d", replacer.LastAccess(1))
	}
	if replacer.LastAccess(2) != 2 {
		t.Errorf("Expected page 2 stamped at 2, got %d", replacer.LastAccess(2))
	}

	replacer.Evict(3)
	if replacer.LastAccess(3) != 4 {
		t.Errorf("Expected page 3 stamped at 4, got %d", replacer.LastAccess(3))
	}
}

// TestLRUEmpty tests eviction with nothing resident
func TestLRUEmpty(t *testing.T) {
	replacer := NewLRUReplacer(16, 2)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Expected panic when evicting from an empty ledger")
		}
		if err, ok := r.(error); !ok || !IsErrorCode(err, ErrCodeNoResidentPages) {
			t.Errorf("Expected ErrCodeNoResidentPages, got %v", r)
		}
	}()
	replacer.Evict(1)
}

// TestLRUMultipleVictims tests getting multiple victims in sequence
func TestLRUMultipleVictims(t *testing.T) {
	replacer := NewLRUReplacer(32, 5)

	frames := []uint32{0, 1, 2, 3, 4}
	for _, page := range frames {
		replacer.Load(page)
	}

	// New pages replace in LRU order
	for i, expected := range frames {
		victim := replacer.Evict(uint32(10 + i))
		if victim != expected {
			t.Errorf("At iteration %d: expected victim %d, got %d", i, expected, victim)
		}

		if replacer.Size() != uint32(len(frames)) {
			t.Errorf("Expected size %d, got %d", len(frames), replacer.Size())
		}
	}
}

// TestLRUClone tests that a clone does not share state
func TestLRUClone(t *testing.T) {
	replacer := NewLRUReplacer(16, 2)
	replacer.Load(1)
	replacer.Load(2)

	clone := replacer.Clone()
	replacer.Touch(1)

	if victim := replacer.Evict(3); victim != 2 {
		t.Errorf("Expected original to evict 2, got %d", victim)
	}
	if victim := clone.Evict(3); victim != 1 {
		t.Errorf("Expected clone to evict 1, got %d", victim)
	}
}
