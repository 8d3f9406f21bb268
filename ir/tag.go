package ir

import "github.com/xyproto/sdfc/internal/support"

// Tag classifies a value by which free variables it depends on. It is a
// four-element join-semilattice: {C, X, Y, XY}, with C the bottom
// element and XY the top. Reassociate (spec §4.2) and Memoize (spec
// §4.3) both need exactly this classification; it lives here so neither
// pass duplicates the sweep.
//
// This generalizes cleanly to the three-variable VarSet the original
// implementation this compiler is patterned after supports (X, Y, Z),
// but spec §1 fixes the surface language at two free variables, so only
// two bits are used.
type Tag uint8

const (
	TagC  Tag = 0
	TagX  Tag = 1 << 0
	TagY  Tag = 1 << 1
	TagXY Tag = TagX | TagY
)

func (t Tag) String() string {
	switch t {
	case TagC:
		return "const"
	case TagX:
		return "x"
	case TagY:
		return "y"
	case TagXY:
		return "xy"
	default:
		return "tag?"
	}
}

// Join computes the least upper bound of two tags: a value that depends
// on everything both operands depend on.
func (t Tag) Join(u Tag) Tag {
	return t | u
}

// Classify runs the forward sweep of spec §4.2 over a program that has
// not yet been memoized (i.e. contains no Load/Store), assigning every
// VId one of {C, X, Y, XY}.
func Classify(p *Program) *support.IdMap[Tag] {
	tags := support.NewIdMap[Tag](p.Len())
	for i, inst := range p.Insts {
		v := VId(i)
		var tag Tag
		switch inst.Op {
		case OpVarX:
			tag = TagX
		case OpVarY:
			tag = TagY
		case OpConst:
			tag = TagC
		case OpLoad, OpStore:
			panicInvariant("Classify: unexpected %s before memoization", inst.Op)
		default:
			for _, arg := range inst.Operands() {
				tag = tag.Join(tags.Get(int(arg)))
			}
		}
		tags.Set(int(v), tag)
	}
	return tags
}
