package ir

import "testing"

func TestCheckInvariantsAcceptsValid(t *testing.T) {
	p := mustParse(t, "0 var-x\n1 var-y\n2 add 0 1\n")
	p.CheckInvariants() // must not panic
}

func TestCheckInvariantsRejectsForwardOperand(t *testing.T) {
	b := NewBuilder(2)
	b.Push(Inst{Op: OpAdd, Args: [2]VId{5, 0}})
	p := b.Finish(0)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range operand")
		}
	}()
	p.CheckInvariants()
}

func TestCheckInvariantsRejectsStoreResult(t *testing.T) {
	b := NewBuilder(2)
	v := b.Push(Inst{Op: OpVarX, Args: [2]VId{NoVId, NoVId}})
	s := b.Push(StoreInst(0, v))
	p := b.Finish(s)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for Store as result")
		}
	}()
	p.CheckInvariants()
}

func TestInOutSlots(t *testing.T) {
	p := mustParse(t, "0 load 3\n1 load 1\n2 add 0 1\n3 store 5 2\n4 store 1 2\n")
	in := p.InSlots()
	if len(in) != 2 || in[0] != 1 || in[1] != 3 {
		t.Errorf("InSlots() = %v, want [1 3]", in)
	}
	out := p.OutSlots()
	if len(out) != 2 || out[0] != 1 || out[1] != 5 {
		t.Errorf("OutSlots() = %v, want [1 5]", out)
	}
}

func TestConstPoolDedup(t *testing.T) {
	pool := NewConstPool()
	a := pool.Intern(1.5)
	b := pool.Intern(2.5)
	c := pool.Intern(1.5)
	if a != c {
		t.Errorf("Intern(1.5) twice gave different offsets: %d, %d", a, c)
	}
	if b == a {
		t.Errorf("distinct constants collided at offset %d", a)
	}
	if pool.Len() != 2 {
		t.Errorf("Len() = %d, want 2", pool.Len())
	}
}

func TestClassifyTags(t *testing.T) {
	p := mustParse(t, "0 var-x\n1 var-y\n2 const 1\n3 add 0 2\n4 add 3 1\n")
	tags := Classify(p)
	cases := []struct {
		v    VId
		want Tag
	}{
		{0, TagX},
		{1, TagY},
		{2, TagC},
		{3, TagX},
		{4, TagXY},
	}
	for _, c := range cases {
		if got := tags.Get(int(c.v)); got != c.want {
			t.Errorf("tag(%d) = %s, want %s", c.v, got, c.want)
		}
	}
}
