package arena

import "testing"

func TestAllocGet(t *testing.T) {
	a := New[int](4)
	var handles []Handle
	for i := 0; i < 10; i++ {
		handles = append(handles, a.Alloc(i))
	}
	for i, h := range handles {
		if got := *a.Get(h); got != i {
			t.Errorf("handle %d: got %d, want %d", i, got, i)
		}
	}
	if a.Len() != 10 {
		t.Errorf("Len() = %d, want 10", a.Len())
	}
}

func TestHandleStableAcrossGrowth(t *testing.T) {
	a := New[string](2)
	h0 := a.Alloc("first")
	for i := 0; i < 20; i++ {
		a.Alloc("filler")
	}
	if got := *a.Get(h0); got != "first" {
		t.Errorf("handle invalidated by growth: got %q", got)
	}
}

func TestFreeList(t *testing.T) {
	var fl FreeList
	if _, ok := fl.Pop(); ok {
		t.Fatal("Pop on empty list should fail")
	}
	fl.Push(Handle(3))
	fl.Push(Handle(7))
	if fl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", fl.Len())
	}
	h, ok := fl.Pop()
	if !ok || h != Handle(7) {
		t.Fatalf("Pop() = %v, %v, want 7, true", h, ok)
	}
	h, ok = fl.Pop()
	if !ok || h != Handle(3) {
		t.Fatalf("Pop() = %v, %v, want 3, true", h, ok)
	}
}

func TestReset(t *testing.T) {
	a := New[int](4)
	a.Alloc(1)
	a.Alloc(2)
	a.Reset()
	if a.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", a.Len())
	}
}
