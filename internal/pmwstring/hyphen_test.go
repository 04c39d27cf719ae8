package pmwstring

import "testing"

func TestHyphenTableDedup(t *testing.T) {
	var ht HyphenTable
	a := HyphenPattern{EndOfLine: String{Pack(FontRoman, '-')}}
	b := HyphenPattern{EndOfLine: String{Pack(FontRoman, '-')}}
	c := HyphenPattern{EndOfLine: String{Pack(FontRoman, '=')}}

	ia := ht.Intern(a)
	ib := ht.Intern(b)
	ic := ht.Intern(c)

	if ia != ib {
		t.Errorf("equal patterns should canonicalise to the same index: %d != %d", ia, ib)
	}
	if ic == ia {
		t.Error("distinct pattern should get its own index")
	}
	if ht.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ht.Len())
	}
}
