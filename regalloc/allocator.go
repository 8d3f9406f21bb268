package regalloc

import (
	"github.com/xyproto/sdfc/internal/support"
	"github.com/xyproto/sdfc/ir"
)

// sunkEntry is one queued "leave this operand in memory" decision: a
// promise that decisions[decisionIndex]'s operand at argSlot currently
// reads directly from vid's memory home, and could still be rewritten
// to read from a register if one is free for the whole span between
// tick (when the sink was queued) and whenever promotion is attempted.
type sunkEntry struct {
	vid           ir.VId
	decisionIndex int
	argSlot       int // 0 or 1: which ArgLoc field to patch on promotion
	tick          uint64

	// excludeRegs lists registers already committed to other operands
	// of the same instruction (its result, and the other argument);
	// promoting into one of these would clobber a value the sunk
	// instruction itself still needs at the moment it executes.
	excludeRegs [2]int
}

// allocator carries the mutable state of one reverse walk over a
// program. It is not reused across programs.
type allocator struct {
	p   *ir.Program
	cfg Config

	state       []valueState
	regOwner    []ir.VId
	regLastUse  []uint64
	dirtyBefore []uint64

	ring support.Ring[sunkEntry]
	tick uint64

	decisions  []Decision
	spillSlots int
}

// Allocate runs the reverse single-pass allocator of spec §4.4 over p,
// producing one Decision per instruction.
func Allocate(p *ir.Program, cfg Config) *Allocation {
	n := p.Len()
	a := &allocator{
		p:           p,
		cfg:         cfg,
		state:       make([]valueState, n),
		regOwner:    make([]ir.VId, cfg.NumRegs),
		regLastUse:  make([]uint64, cfg.NumRegs),
		dirtyBefore: make([]uint64, cfg.NumRegs),
		decisions:   make([]Decision, n),
	}
	for i := range a.state {
		a.state[i].reg = -1
	}
	for r := range a.regOwner {
		a.regOwner[r] = ir.NoVId
	}

	for i, inst := range p.Insts {
		switch inst.Op {
		case ir.OpVarX:
			a.state[i] = valueState{loc: locMemory, fixedHome: true, home: cfg.VarXHome, reg: -1}
		case ir.OpVarY:
			a.state[i] = valueState{loc: locMemory, fixedHome: true, home: cfg.VarYHome, reg: -1}
		case ir.OpLoad:
			a.state[i] = valueState{loc: locMemory, fixedHome: true, home: cfg.LoadHome(inst.Slot), reg: -1}
		}
	}

	for i := n - 1; i >= 0; i-- {
		a.tick++
		v := ir.VId(i)
		a.step(v, p.Inst(v))
	}

	return &Allocation{Decisions: a.decisions, SpillSlots: a.spillSlots}
}

func (a *allocator) step(v ir.VId, inst ir.Inst) {
	if inst.Op == ir.OpStore {
		var d Decision
		reg := a.getReg(inst.Args[0], &d.LoadsBefore)
		d.Arg0 = ArgLoc{InReg: true, Reg: reg}
		d.StoreAfter = true
		d.StoreHome = a.cfg.StoreHome(inst.Slot)
		a.decisions[v] = d
		return
	}

	st := &a.state[v]
	var d Decision
	switch st.loc {
	case locUnassigned:
		// Nothing ever demanded this value: dead code the pipeline
		// left behind, or a fixed-home input nothing reads.
		a.decisions[v] = Decision{Skip: true}
		return
	case locMemory:
		if st.fixedHome {
			// Nothing currently caches this input in a register; the
			// memory home already holds the truth.
			a.decisions[v] = Decision{Skip: true}
			return
		}
		// Spilled earlier and never reloaded since: the computation
		// still has to run, so give it a fresh transient register and
		// spill the result immediately.
		d.ResultReg = a.allocate(v)
		d.StoreAfter = true
		d.StoreHome = st.home
	case locRegister:
		d.ResultReg = int(st.reg)
		a.touch(d.ResultReg)
	case locRegisterAndMemory:
		d.ResultReg = int(st.reg)
		d.StoreAfter = !st.fixedHome
		if d.StoreAfter {
			d.StoreHome = st.home
		}
		a.touch(d.ResultReg)
	}

	arity := inst.Op.Arity()
	if arity >= 1 {
		d.Arg0, d.LoadsBefore = a.resolveOperand(v, 0, inst.Args[0], false, d.ResultReg, -1, d.LoadsBefore)
	}
	if arity >= 2 {
		// Only the second operand of a binary op ever accepts a direct
		// memory operand, per spec §4.5's instruction-selection note.
		d.Arg1, d.LoadsBefore = a.resolveOperand(v, 1, inst.Args[1], inst.Op.IsBinary(), d.ResultReg, d.Arg0.Reg, d.LoadsBefore)
	}

	// v's live range (in reverse-walk terms) ends at its own
	// definition; free the register for older instructions.
	a.regOwner[d.ResultReg] = ir.NoVId

	a.decisions[v] = d
}

// touch stamps a register as freshly used, both for LRU recency and for
// dirty-before sink-eligibility tracking.
func (a *allocator) touch(reg int) {
	a.regLastUse[reg] = a.tick
	a.dirtyBefore[reg] = a.tick
}

// resolveOperand decides how instruction v's operand at argSlot (source
// value u) should be read: a register, or - only when allowMem and
// policy allow it - a direct memory operand left for a later sink
// promotion. resultReg and otherArgReg (-1 if not yet assigned) name
// registers this same instruction already committed, excluded from any
// promotion this sink might later trigger for a different value.
func (a *allocator) resolveOperand(v ir.VId, argSlot int, u ir.VId, allowMem bool, resultReg, otherArgReg int, loads []ExtraLoad) (ArgLoc, []ExtraLoad) {
	st := &a.state[u]

	if st.hasSunk {
		if r, ok := a.tryPromote(u); ok {
			a.touch(r)
			return ArgLoc{InReg: true, Reg: r}, loads
		}
	}

	firstDemand := st.lastDemand == 0
	st.lastDemand = a.tick

	if st.loc == locRegister || st.loc == locRegisterAndMemory {
		a.touch(int(st.reg))
		return ArgLoc{InReg: true, Reg: int(st.reg)}, loads
	}

	if allowMem && st.loc == locMemory && a.wantsSink(firstDemand) {
		entry := sunkEntry{
			vid:           u,
			decisionIndex: int(v),
			argSlot:       argSlot,
			tick:          a.tick,
			excludeRegs:   [2]int{resultReg, otherArgReg},
		}
		st.sunk = a.ring.Push(entry)
		st.hasSunk = true
		return ArgLoc{InReg: false, Mem: st.home}, loads
	}

	r := a.getReg(u, &loads)
	return ArgLoc{InReg: true, Reg: r}, loads
}

// tryPromote attempts to resolve u's queued sink into a register,
// patching the earlier decision in place if it succeeds.
func (a *allocator) tryPromote(u ir.VId) (int, bool) {
	st := &a.state[u]
	entry, ok := a.ring.Get(st.sunk)
	if !ok || entry.vid != u {
		st.hasSunk = false
		return 0, false
	}

	eligible := func(cand int) bool {
		if cand == entry.excludeRegs[0] || cand == entry.excludeRegs[1] {
			return false
		}
		// A register is only safe to hand the promoted load without
		// eviction if it is both currently free and has not been
		// reassigned to anyone since the sink was queued: dirtyBefore
		// alone can't tell a genuinely-free register apart from one
		// whose live occupant simply hasn't been touched recently.
		return a.regOwner[cand] == ir.NoVId && a.dirtyBefore[cand] <= entry.tick
	}

	r := -1
	for cand := 0; cand < a.cfg.NumRegs; cand++ {
		if eligible(cand) {
			r = cand
			break
		}
	}

	// SinkPreferDead (and the stricter SinkRequireDead, which only ever
	// queues a sink on a value's last forward-order use) stop here: a
	// dead register or nothing. SinkAll and SinkSpillAny both go
	// further and will evict a live occupant that already has a valid
	// memory copy, since that eviction costs no extra Store.
	if r == -1 && (a.cfg.Policy == SinkAll || a.cfg.Policy == SinkSpillAny) {
		for cand := 0; cand < a.cfg.NumRegs; cand++ {
			if cand == entry.excludeRegs[0] || cand == entry.excludeRegs[1] {
				continue
			}
			owner := a.regOwner[cand]
			if owner == ir.NoVId {
				continue
			}
			ost := &a.state[owner]
			if ost.loc != locRegisterAndMemory && !ost.fixedHome {
				continue
			}
			if r == -1 || a.regLastUse[cand] < a.regLastUse[r] {
				r = cand
			}
		}
		if r != -1 {
			a.evict(r, a.regOwner[r])
		}
	}

	// SinkSpillAny alone will force out a live occupant with no memory
	// copy yet, paying for the extra Store that eviction now requires.
	if r == -1 && a.cfg.Policy == SinkSpillAny {
		for cand := 0; cand < a.cfg.NumRegs; cand++ {
			if cand == entry.excludeRegs[0] || cand == entry.excludeRegs[1] {
				continue
			}
			if r == -1 || a.regLastUse[cand] < a.regLastUse[r] {
				r = cand
			}
		}
		if r != -1 {
			if old := a.regOwner[r]; old != ir.NoVId {
				a.evict(r, old)
			}
		}
	}

	if r == -1 {
		return 0, false
	}

	patched := &a.decisions[entry.decisionIndex]
	loc := ArgLoc{InReg: true, Reg: r}
	if entry.argSlot == 0 {
		patched.Arg0 = loc
	} else {
		patched.Arg1 = loc
	}
	patched.LoadsBefore = append(patched.LoadsBefore, ExtraLoad{Reg: r, Mem: st.home})

	st.loc = locRegisterAndMemory
	st.reg = int8(r)
	st.hasSunk = false
	a.regOwner[r] = u
	return r, true
}

// wantsSink applies the configured SinkPolicy's creation-time trigger.
func (a *allocator) wantsSink(firstDemand bool) bool {
	switch a.cfg.Policy {
	case SinkNone:
		return false
	case SinkRequireDead:
		return firstDemand
	default: // SinkAll, SinkPreferDead, SinkSpillAny
		return true
	}
}

// getReg ensures u is resident in a register, appending a synthesized
// load to loadsBefore if one is needed, and returns that register. Used
// both for operands that never accept a memory form (Arg0, unary ops,
// Store's source) and as the fallback when sinking doesn't apply.
func (a *allocator) getReg(u ir.VId, loadsBefore *[]ExtraLoad) int {
	st := &a.state[u]
	if st.hasSunk {
		if r, ok := a.tryPromote(u); ok {
			a.touch(r)
			return r
		}
	}
	switch st.loc {
	case locRegister, locRegisterAndMemory:
		a.touch(int(st.reg))
		return int(st.reg)
	case locMemory:
		r := a.allocate(u)
		st.reg = int8(r)
		st.loc = locRegisterAndMemory
		*loadsBefore = append(*loadsBefore, ExtraLoad{Reg: r, Mem: st.home})
		return r
	default: // locUnassigned: first (i.e. last-in-forward-order) demand
		r := a.allocate(u)
		st.reg = int8(r)
		st.loc = locRegister
		return r
	}
}

func (a *allocator) allocate(owner ir.VId) int {
	best := -1
	for r := 0; r < a.cfg.NumRegs; r++ {
		if a.regOwner[r] == ir.NoVId {
			if best == -1 || a.regLastUse[r] < a.regLastUse[best] {
				best = r
			}
		}
	}
	if best == -1 {
		best = a.pickEvictionVictim()
	}
	if old := a.regOwner[best]; old != ir.NoVId {
		a.evict(best, old)
	}
	a.regOwner[best] = owner
	a.touch(best)
	return best
}

// pickEvictionVictim chooses a busy register to reclaim when none are
// free: lowest recent-use register whose occupant already has a valid
// memory copy (eviction is then free - no Store needed), falling back
// to the globally least-recently-used register otherwise.
func (a *allocator) pickEvictionVictim() int {
	best := -1
	bestFreeToEvict := false
	for r := 0; r < a.cfg.NumRegs; r++ {
		owner := a.regOwner[r]
		freeToEvict := a.state[owner].loc == locRegisterAndMemory || a.state[owner].fixedHome
		switch {
		case best == -1:
			best, bestFreeToEvict = r, freeToEvict
		case freeToEvict && !bestFreeToEvict:
			best, bestFreeToEvict = r, freeToEvict
		case freeToEvict == bestFreeToEvict && a.regLastUse[r] < a.regLastUse[best]:
			best = r
		}
	}
	return best
}

// evict reclaims r from owner: owner keeps (or gains) a valid memory
// copy and loses its register, unconditionally ending in locMemory - a
// value only ever regains a register by being demanded again.
func (a *allocator) evict(r int, owner ir.VId) {
	st := &a.state[owner]
	if st.loc == locRegister {
		st.home = MemRef{Base: "spill", Offset: a.spillSlots}
		a.spillSlots++
	}
	st.loc = locMemory
}
