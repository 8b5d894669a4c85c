package object

import (
	"cmp"
	"iter"
	"slices"
	"sync"

	"github.com/skdltmxn/rustdump/internal/demangle"
)

// SymbolKind identifies what a symbol refers to.
type SymbolKind int

const (
	SymbolKindOther SymbolKind = iota
	SymbolKindFunction
	SymbolKindData
	SymbolKindUndefined
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolKindFunction:
		return "func"
	case SymbolKindData:
		return "data"
	case SymbolKindUndefined:
		return "undef"
	default:
		return "other"
	}
}

// ParseSymbolKind maps a kind name as printed by String back to its value.
func ParseSymbolKind(s string) (SymbolKind, bool) {
	for _, k := range []SymbolKind{SymbolKindOther, SymbolKindFunction, SymbolKindData, SymbolKindUndefined} {
		if k.String() == s {
			return k, true
		}
	}
	return SymbolKindOther, false
}

// Symbol is a single entry of a binary's symbol table.
type Symbol struct {
	name    string
	address uint64
	size    uint64
	kind    SymbolKind

	demangledOnce sync.Once
	demangled     string
	crate         string
	demangleErr   error
}

func newSymbol(name string, address, size uint64, kind SymbolKind) *Symbol {
	return &Symbol{name: name, address: address, size: size, kind: kind}
}

func (s *Symbol) Name() string     { return s.name }
func (s *Symbol) Address() uint64  { return s.address }
func (s *Symbol) Size() uint64     { return s.size }
func (s *Symbol) Kind() SymbolKind { return s.kind }

// IsRust reports whether the raw name looks like a v0 mangled symbol.
func (s *Symbol) IsRust() bool { return demangle.IsMangled(s.name) }

func (s *Symbol) demangle() {
	s.demangledOnce.Do(func() {
		sym, err := demangle.Parse(s.name)
		if err != nil {
			s.demangled = s.name
			s.demangleErr = err
			return
		}
		s.demangled = sym.Display()
		s.crate = sym.Crate()
	})
}

// Demangle returns the demangled name. On failure the raw name is returned
// together with the parse error.
func (s *Symbol) Demangle() (string, error) {
	s.demangle()
	return s.demangled, s.demangleErr
}

// DemangledName returns the demangled name, or the raw name if not mangled.
func (s *Symbol) DemangledName() string {
	s.demangle()
	return s.demangled
}

// Crate returns the name of the crate the symbol belongs to, if known.
func (s *Symbol) Crate() string {
	s.demangle()
	return s.crate
}

// SymbolTable holds the symbols of a binary in file order.
type SymbolTable struct {
	symbols []*Symbol

	nameIndex     map[string][]*Symbol
	nameIndexOnce sync.Once

	byAddress     []*Symbol
	byAddressOnce sync.Once
}

func newSymbolTable(syms []*Symbol) *SymbolTable {
	return &SymbolTable{symbols: syms}
}

// Count returns the number of symbols.
func (st *SymbolTable) Count() int { return len(st.symbols) }

// Slice returns the symbols in file order. The slice must not be modified.
func (st *SymbolTable) Slice() []*Symbol { return st.symbols }

// All returns an iterator over all symbols.
func (st *SymbolTable) All() iter.Seq[*Symbol] {
	return slices.Values(st.symbols)
}

// Rust returns an iterator over v0 mangled symbols only.
func (st *SymbolTable) Rust() iter.Seq[*Symbol] {
	return func(yield func(*Symbol) bool) {
		for _, sym := range st.symbols {
			if !sym.IsRust() {
				continue
			}
			if !yield(sym) {
				return
			}
		}
	}
}

// buildNameIndex indexes symbols by raw and demangled name.
func (st *SymbolTable) buildNameIndex() {
	st.nameIndexOnce.Do(func() {
		st.nameIndex = make(map[string][]*Symbol, len(st.symbols))
		for _, sym := range st.symbols {
			st.nameIndex[sym.name] = append(st.nameIndex[sym.name], sym)
			if d := sym.DemangledName(); d != sym.name {
				st.nameIndex[d] = append(st.nameIndex[d], sym)
			}
		}
	})
}

// ByName looks up symbols by raw or demangled name.
func (st *SymbolTable) ByName(name string) iter.Seq[*Symbol] {
	return func(yield func(*Symbol) bool) {
		st.buildNameIndex()
		for _, sym := range st.nameIndex[name] {
			if !yield(sym) {
				return
			}
		}
	}
}

// FindByName finds the first symbol with the given name.
func (st *SymbolTable) FindByName(name string) (*Symbol, bool) {
	st.buildNameIndex()
	syms := st.nameIndex[name]
	if len(syms) == 0 {
		return nil, false
	}
	return syms[0], true
}

// FindByAddress returns the defined symbol with the highest address not
// above addr. A symbol with a known size must also cover addr.
func (st *SymbolTable) FindByAddress(addr uint64) (*Symbol, bool) {
	st.byAddressOnce.Do(func() {
		for _, sym := range st.symbols {
			if sym.kind != SymbolKindUndefined && sym.address != 0 {
				st.byAddress = append(st.byAddress, sym)
			}
		}
		slices.SortStableFunc(st.byAddress, func(a, b *Symbol) int {
			return cmp.Compare(a.address, b.address)
		})
	})

	i, found := slices.BinarySearchFunc(st.byAddress, addr, func(s *Symbol, target uint64) int {
		return cmp.Compare(s.address, target)
	})
	if found {
		return st.byAddress[i], true
	}
	if i == 0 {
		return nil, false
	}
	sym := st.byAddress[i-1]
	if sym.size != 0 && addr >= sym.address+sym.size {
		return nil, false
	}
	return sym, true
}
