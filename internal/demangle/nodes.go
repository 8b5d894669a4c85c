// Package demangle provides Rust v0 symbol name demangling.
package demangle

// Parser ceilings. Input comes from binaries that may be corrupted or
// hand-crafted, so both the node table and the nesting depth are bounded.
const (
	MaxComplexity = 256
	MaxDepth      = 100
)

// Slot is the index of a node in a symbol's arena.
type Slot int

// NodeKind identifies the type of AST node.
type NodeKind int

const (
	NodeKindEmpty NodeKind = iota
	NodeKindBasic
	// Path nodes
	NodeKindCrate
	NodeKindNested
	NodeKindGeneric
	NodeKindInherentImpl
	NodeKindTrait
	// Type nodes
	NodeKindArray
	NodeKindSlice
	NodeKindTuple
	NodeKindRef
	NodeKindRefMut
	NodeKindPointer
	NodeKindPointerMut
	NodeKindFnSig
	NodeKindDynTrait
)

var nodeKindNames = [...]string{
	NodeKindEmpty:        "Empty",
	NodeKindBasic:        "Basic",
	NodeKindCrate:        "Crate",
	NodeKindNested:       "Nested",
	NodeKindGeneric:      "Generic",
	NodeKindInherentImpl: "InherentImpl",
	NodeKindTrait:        "Trait",
	NodeKindArray:        "Array",
	NodeKindSlice:        "Slice",
	NodeKindTuple:        "Tuple",
	NodeKindRef:          "Ref",
	NodeKindRefMut:       "RefMut",
	NodeKindPointer:      "Pointer",
	NodeKindPointerMut:   "PointerMut",
	NodeKindFnSig:        "FnSig",
	NodeKindDynTrait:     "DynTrait",
}

func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "Unknown"
}

// Node is the interface implemented by all AST nodes. Children are
// referenced by Slot, never by pointer.
type Node interface {
	Kind() NodeKind
}

// Namespace marks what a nested path names.
type Namespace int

const (
	NamespaceUnknown Namespace = iota
	NamespaceValue
	NamespaceType
	NamespaceClosure
)

func (n Namespace) String() string {
	switch n {
	case NamespaceValue:
		return "value"
	case NamespaceType:
		return "type"
	case NamespaceClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// Lifetime is a de Bruijn style lifetime index. Zero is the erased lifetime.
type Lifetime uint64

const lifetimeLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Letter returns the display letter for the lifetime, or false if the
// lifetime is erased or has no letter.
func (l Lifetime) Letter() (byte, bool) {
	if l == 0 || l > Lifetime(len(lifetimeLetters)) {
		return 0, false
	}
	return lifetimeLetters[l-1], true
}

// Disambiguator is the optional `s <base-62>` suffix on crate roots and
// nested paths.
type Disambiguator struct {
	Value uint64
	Valid bool
}

// Const is a constant generic argument or array length.
// Start and End delimit the raw hex digits in the symbol source.
type Const struct {
	Negative    bool
	Placeholder bool
	Type        Slot
	Start       int
	End         int
}

// GenericKind identifies the kind of a generic argument.
type GenericKind int

const (
	GenericLifetime GenericKind = iota
	GenericType
	GenericConst
)

// Generic is a single generic argument.
type Generic struct {
	Kind     GenericKind
	Lifetime Lifetime
	Type     Slot
	Const    Const
}

// Empty is a reserved slot that never received content.
type Empty struct{}

func (Empty) Kind() NodeKind { return NodeKindEmpty }

// Basic is a primitive type such as `u8` or `str`.
type Basic struct {
	Name string
}

func (n *Basic) Kind() NodeKind { return NodeKindBasic }

// CratePath is a crate root.
type CratePath struct {
	Disambiguator Disambiguator
	Name          string
}

func (n *CratePath) Kind() NodeKind { return NodeKindCrate }

// NestedPath is `parent::name`.
type NestedPath struct {
	Namespace     Namespace
	Parent        Slot
	Disambiguator Disambiguator
	Name          string
}

func (n *NestedPath) Kind() NodeKind { return NodeKindNested }

// GenericPath is a path instantiated with generic arguments.
type GenericPath struct {
	Base Slot
	Args []Generic
}

func (n *GenericPath) Kind() NodeKind { return NodeKindGeneric }

// InherentImplPath is `<T>`. Impl is the path of the impl block itself,
// kept for lookups but not displayed.
type InherentImplPath struct {
	Impl     Slot
	SelfType Slot
}

func (n *InherentImplPath) Kind() NodeKind { return NodeKindInherentImpl }

// TraitPath is `<T as Trait>`. Impl is NoSlot for the "Y" form.
type TraitPath struct {
	Impl     Slot
	SelfType Slot
	Trait    Slot
}

func (n *TraitPath) Kind() NodeKind { return NodeKindTrait }

// ArrayType is `[T; N]`.
type ArrayType struct {
	Elem Slot
	Len  Const
}

func (n *ArrayType) Kind() NodeKind { return NodeKindArray }

// SliceType is `[T]`.
type SliceType struct {
	Elem Slot
}

func (n *SliceType) Kind() NodeKind { return NodeKindSlice }

// TupleType is `(T, U, ...)`.
type TupleType struct {
	Elems []Slot
}

func (n *TupleType) Kind() NodeKind { return NodeKindTuple }

// RefType is `&T` or `&mut T`.
type RefType struct {
	Mutable     bool
	HasLifetime bool
	Lifetime    Lifetime
	Elem        Slot
}

func (n *RefType) Kind() NodeKind {
	if n.Mutable {
		return NodeKindRefMut
	}
	return NodeKindRef
}

// PointerType is `*const T` or `*mut T`.
type PointerType struct {
	Mutable bool
	Elem    Slot
}

func (n *PointerType) Kind() NodeKind {
	if n.Mutable {
		return NodeKindPointerMut
	}
	return NodeKindPointer
}

// NoSlot marks an absent optional child.
const NoSlot Slot = -1

// FnSigType is a function pointer type.
type FnSigType struct {
	Unsafe bool
	ABI    string
	Args   []Slot
	Return Slot // NoSlot when the return type is unit
}

func (n *FnSigType) Kind() NodeKind { return NodeKindFnSig }

// AssocBinding is `Name = Type` inside a dyn trait bound.
type AssocBinding struct {
	Name string
	Type Slot
}

// DynBound is one trait of a trait object together with its bindings.
type DynBound struct {
	Trait    Slot
	Bindings []AssocBinding
}

// DynTraitType is `dyn A + B + 'a`.
type DynTraitType struct {
	Bounds   []DynBound
	Lifetime Lifetime
}

func (n *DynTraitType) Kind() NodeKind { return NodeKindDynTrait }

// arena is the fixed-capacity node table of a single parse.
type arena struct {
	nodes [MaxComplexity]Node
	next  int
}

// reserve hands out the next slot, initialised to Empty.
func (a *arena) reserve() (Slot, error) {
	if a.next == len(a.nodes) {
		return 0, ErrTooComplex
	}
	s := Slot(a.next)
	a.nodes[s] = Empty{}
	a.next++
	return s, nil
}

// alloc reserves a slot and fills it.
func (a *arena) alloc(n Node) (Slot, error) {
	s, err := a.reserve()
	if err != nil {
		return 0, err
	}
	a.nodes[s] = n
	return s, nil
}

func (a *arena) set(s Slot, n Node) {
	a.nodes[s] = n
}

func (a *arena) get(s Slot) Node {
	if s < 0 || int(s) >= a.next || a.nodes[s] == nil {
		return Empty{}
	}
	return a.nodes[s]
}

func (a *arena) len() int {
	return a.next
}

var basicTypes = [256]string{
	'b': "bool",
	'c': "char",
	'e': "str",
	'u': "()",
	'a': "i8",
	's': "i16",
	'l': "i32",
	'x': "i64",
	'n': "i128",
	'i': "isize",
	'h': "u8",
	't': "u16",
	'm': "u32",
	'y': "u64",
	'o': "u128",
	'j': "usize",
	'f': "f32",
	'd': "f64",
	'z': "!",
	'p': "_",
	'v': "...",
}

// basicType maps a single-byte primitive code to its name.
func basicType(tag byte) (string, bool) {
	name := basicTypes[tag]
	return name, name != ""
}
