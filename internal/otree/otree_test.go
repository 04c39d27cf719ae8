package otree

import (
	"reflect"
	"testing"

	"github.com/go-test/deep"
)

func TestSetGet(t *testing.T) {
	tr := New[int]()
	tr.Set("beta", 2)
	tr.Set("alpha", 1)
	tr.Set("gamma", 3)
	tr.Set("beta", 22) // overwrite

	if v, ok := tr.Get("beta"); !ok || v != 22 {
		t.Errorf("Get(beta) = %v, %v, want 22, true", v, ok)
	}
	if _, ok := tr.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}
	if tr.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tr.Len())
	}
}

func TestKeysSorted(t *testing.T) {
	tr := New[int]()
	for _, k := range []string{"macro3", "macro1", "macro2"} {
		tr.Set(k, 0)
	}
	want := []string{"macro1", "macro2", "macro3"}
	if diff := deep.Equal(tr.Keys(), want); diff != nil {
		t.Error(diff)
	}
}

func TestDelete(t *testing.T) {
	tr := New[string]()
	tr.Set("a", "1")
	tr.Set("b", "2")
	tr.Set("c", "3")
	tr.Delete("b")
	if _, ok := tr.Get("b"); ok {
		t.Error("b should be gone")
	}
	if !reflect.DeepEqual(tr.Keys(), []string{"a", "c"}) {
		t.Errorf("Keys() = %v", tr.Keys())
	}
	tr.Delete("does-not-exist")
	if tr.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tr.Len())
	}
}

func TestRangeStopsEarly(t *testing.T) {
	tr := New[int]()
	tr.Set("a", 1)
	tr.Set("b", 2)
	tr.Set("c", 3)
	var seen []string
	tr.Range(func(k string, v int) bool {
		seen = append(seen, k)
		return k != "b"
	})
	if diff := deep.Equal(seen, []string{"a", "b"}); diff != nil {
		t.Error(diff)
	}
}
