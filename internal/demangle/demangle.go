package demangle

import (
	"bytes"
	"errors"
	"math"
	"math/bits"
	"strings"

	"github.com/skdltmxn/rustdump/internal/stream"
)

// Errors
var (
	ErrUnknownPrefix          = errors.New("demangle: unknown prefix")
	ErrSymbolTooSmall         = errors.New("demangle: symbol too small")
	ErrNotASCII               = errors.New("demangle: symbol is not ascii")
	ErrTooComplex             = errors.New("demangle: symbol too complex")
	ErrPathLengthNotNumber    = errors.New("demangle: invalid identifier length")
	ErrConstDelimiterNotFound = errors.New("demangle: constant delimiter not found")
	ErrBackrefIsFrontref      = errors.New("demangle: back-reference points forward")
	ErrDecodingBase62Num      = errors.New("demangle: invalid base-62 number")
	ErrInvalid                = errors.New("demangle: invalid mangled name")
)

// Symbol is a parsed symbol. Rendering happens on demand in Display.
type Symbol struct {
	source []byte
	ast    *arena
}

// Parse demangles a v0 mangled name. The accepted prefixes are `_R`,
// `__R` (Mach-O adds an underscore) and bare `R` (dbghelp strips them).
func Parse(mangled string) (*Symbol, error) {
	var rest string
	switch {
	case strings.HasPrefix(mangled, "_R"):
		rest = mangled[2:]
	case strings.HasPrefix(mangled, "__R"):
		rest = mangled[3:]
	case strings.HasPrefix(mangled, "R"):
		rest = mangled[1:]
	default:
		return nil, ErrUnknownPrefix
	}

	if len(rest) == 0 {
		return nil, ErrSymbolTooSmall
	}

	for i := 0; i < len(rest); i++ {
		if rest[i]&0x80 != 0 {
			return nil, ErrNotASCII
		}
	}

	p := newParser([]byte(rest))
	if _, err := p.parsePath(); err != nil {
		return nil, err
	}

	return &Symbol{source: p.src.Data(), ast: p.ast}, nil
}

// Source returns the symbol text after the prefix.
func (s *Symbol) Source() string { return string(s.source) }

// Len returns the number of arena slots in use.
func (s *Symbol) Len() int { return s.ast.len() }

// Node returns the node stored at slot i.
func (s *Symbol) Node(i Slot) Node { return s.ast.get(i) }

// Root returns the node at slot 0.
func (s *Symbol) Root() Node { return s.ast.get(0) }

// Crate returns the name of the crate the symbol's path starts from.
// Impl paths resolve through the impl block's own path, or the self type
// when there is none.
func (s *Symbol) Crate() string {
	slot := Slot(0)
	for range MaxComplexity {
		switch n := s.ast.get(slot).(type) {
		case *CratePath:
			return n.Name
		case *NestedPath:
			slot = n.Parent
		case *GenericPath:
			slot = n.Base
		case *InherentImplPath:
			slot = n.Impl
		case *TraitPath:
			slot = n.Impl
			if slot == NoSlot {
				slot = n.SelfType
			}
		case *RefType:
			slot = n.Elem
		case *PointerType:
			slot = n.Elem
		case *SliceType:
			slot = n.Elem
		case *ArrayType:
			slot = n.Elem
		default:
			return ""
		}
	}
	return ""
}

// parser holds the state of one parse attempt.
type parser struct {
	src   *stream.Reader
	ast   *arena
	depth int
}

func newParser(data []byte) *parser {
	return &parser{
		src: stream.NewReader(data),
		ast: &arena{},
	}
}

func (p *parser) enter() error {
	if p.depth == MaxDepth {
		return ErrTooComplex
	}
	p.depth++
	return nil
}

func (p *parser) leave() {
	p.depth--
}

// parsePath parses a <path> production and returns its slot.
func (p *parser) parsePath() (Slot, error) {
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.leave()

	tag, err := p.src.ReadByte()
	if err != nil {
		return 0, ErrInvalid
	}

	switch tag {
	case 'C':
		// [disambiguator] <identifier>
		dis, err := p.parseDisambiguator()
		if err != nil {
			return 0, err
		}
		name, err := p.parseIdent()
		if err != nil {
			return 0, err
		}
		return p.ast.alloc(&CratePath{Disambiguator: dis, Name: name})

	case 'M', 'X', 'Y':
		// "M" <impl-path> <type> | "X" <impl-path> <type> <path> | "Y" <type> <path>
		spot, err := p.ast.reserve()
		if err != nil {
			return 0, err
		}
		impl := NoSlot
		if tag != 'Y' {
			if _, err := p.parseDisambiguator(); err != nil {
				return 0, err
			}
			if impl, err = p.parsePath(); err != nil {
				return 0, err
			}
		}
		self, err := p.parseType()
		if err != nil {
			return 0, err
		}
		if tag == 'M' {
			p.ast.set(spot, &InherentImplPath{Impl: impl, SelfType: self})
			return spot, nil
		}
		trait, err := p.parsePath()
		if err != nil {
			return 0, err
		}
		p.ast.set(spot, &TraitPath{Impl: impl, SelfType: self, Trait: trait})
		return spot, nil

	case 'N':
		// <namespace> <path> [disambiguator] <identifier>
		ns := NamespaceUnknown
		if c, err := p.src.ReadByte(); err == nil {
			switch c {
			case 'v':
				ns = NamespaceValue
			case 't':
				ns = NamespaceType
			case 'C':
				ns = NamespaceClosure
			}
		}
		spot, err := p.ast.reserve()
		if err != nil {
			return 0, err
		}
		parent, err := p.parsePath()
		if err != nil {
			return 0, err
		}
		dis, err := p.parseDisambiguator()
		if err != nil {
			return 0, err
		}
		name, err := p.parseIdent()
		if err != nil {
			return 0, err
		}
		p.ast.set(spot, &NestedPath{Namespace: ns, Parent: parent, Disambiguator: dis, Name: name})
		return spot, nil

	case 'I':
		// <path> {<generic-arg>} "E"
		spot, err := p.ast.reserve()
		if err != nil {
			return 0, err
		}
		base, err := p.parsePath()
		if err != nil {
			return 0, err
		}
		var args []Generic
		for !p.src.Take('E') {
			arg, err := p.parseGenericArg()
			if err != nil {
				return 0, err
			}
			args = append(args, arg)
		}
		p.ast.set(spot, &GenericPath{Base: base, Args: args})

		// Compiler generated unique suffix, not displayed.
		if p.src.Take('c') {
			if _, err := p.parseIdent(); err != nil {
				return 0, err
			}
		}
		return spot, nil

	case 'B':
		return p.parseBackref(p.parsePath)

	case 'E':
		return p.ast.alloc(Empty{})

	default:
		return 0, ErrInvalid
	}
}

func (p *parser) parseGenericArg() (Generic, error) {
	tag, err := p.src.ReadByte()
	if err != nil {
		return Generic{}, ErrInvalid
	}
	switch tag {
	case 'L':
		lt, err := p.parseBase62()
		if err != nil {
			return Generic{}, err
		}
		return Generic{Kind: GenericLifetime, Lifetime: Lifetime(lt)}, nil
	case 'K':
		c, err := p.parseConst()
		if err != nil {
			return Generic{}, err
		}
		return Generic{Kind: GenericConst, Const: c}, nil
	default:
		if err := p.src.UnreadByte(); err != nil {
			return Generic{}, ErrInvalid
		}
		ty, err := p.parseType()
		if err != nil {
			return Generic{}, err
		}
		return Generic{Kind: GenericType, Type: ty}, nil
	}
}

// parseBackref jumps to an earlier offset, runs production there into a
// fresh slot and returns to where it was.
func (p *parser) parseBackref(production func() (Slot, error)) (Slot, error) {
	target, err := p.parseBase62()
	if err != nil {
		return 0, err
	}

	current := p.src.Offset()
	if target >= uint64(current-1) {
		return 0, ErrBackrefIsFrontref
	}

	if err := p.src.SetOffset(int(target)); err != nil {
		return 0, ErrBackrefIsFrontref
	}
	slot, err := production()
	if err != nil {
		return 0, err
	}
	if err := p.src.SetOffset(current); err != nil {
		return 0, ErrInvalid
	}
	return slot, nil
}

// parseTypes parses types until the "E" terminator.
func (p *parser) parseTypes() ([]Slot, error) {
	var slots []Slot
	for !p.src.Take('E') {
		s, err := p.parseType()
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// parseOptionalLifetime parses `["L" <base-62>]`.
func (p *parser) parseOptionalLifetime() (Lifetime, bool, error) {
	if !p.src.Take('L') {
		return 0, false, nil
	}
	lt, err := p.parseBase62()
	if err != nil {
		return 0, false, err
	}
	return Lifetime(lt), true, nil
}

// parseType parses a <type> production and returns its slot.
func (p *parser) parseType() (Slot, error) {
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.leave()

	tag, err := p.src.ReadByte()
	if err != nil {
		return 0, ErrInvalid
	}

	switch tag {
	case 'A':
		// <type> <const>
		spot, err := p.ast.reserve()
		if err != nil {
			return 0, err
		}
		elem, err := p.parseType()
		if err != nil {
			return 0, err
		}
		n, err := p.parseConst()
		if err != nil {
			return 0, err
		}
		p.ast.set(spot, &ArrayType{Elem: elem, Len: n})
		return spot, nil

	case 'S':
		spot, err := p.ast.reserve()
		if err != nil {
			return 0, err
		}
		elem, err := p.parseType()
		if err != nil {
			return 0, err
		}
		p.ast.set(spot, &SliceType{Elem: elem})
		return spot, nil

	case 'T':
		spot, err := p.ast.reserve()
		if err != nil {
			return 0, err
		}
		elems, err := p.parseTypes()
		if err != nil {
			return 0, err
		}
		p.ast.set(spot, &TupleType{Elems: elems})
		return spot, nil

	case 'R', 'Q':
		// ["L" <lifetime>] <type>
		lt, hasLt, err := p.parseOptionalLifetime()
		if err != nil {
			return 0, err
		}
		spot, err := p.ast.reserve()
		if err != nil {
			return 0, err
		}
		elem, err := p.parseType()
		if err != nil {
			return 0, err
		}
		p.ast.set(spot, &RefType{Mutable: tag == 'Q', HasLifetime: hasLt, Lifetime: lt, Elem: elem})
		return spot, nil

	case 'P', 'O':
		spot, err := p.ast.reserve()
		if err != nil {
			return 0, err
		}
		elem, err := p.parseType()
		if err != nil {
			return 0, err
		}
		p.ast.set(spot, &PointerType{Mutable: tag == 'O', Elem: elem})
		return spot, nil

	case 'F':
		return p.parseFnSig()

	case 'D':
		return p.parseDynTrait()

	case 'B':
		return p.parseBackref(p.parseType)

	default:
		if name, ok := basicType(tag); ok {
			return p.ast.alloc(&Basic{Name: name})
		}
		if err := p.src.UnreadByte(); err != nil {
			return 0, ErrInvalid
		}
		return p.parsePath()
	}
}

// parseFnSig parses `["G" binder] ["U"] ["K" "C" <ident>] {<type>} "E" ("u" | <type>)`.
func (p *parser) parseFnSig() (Slot, error) {
	if p.src.Take('G') {
		// Higher-ranked binders are not supported.
		return 0, ErrInvalid
	}

	sig := &FnSigType{Return: NoSlot}
	sig.Unsafe = p.src.Take('U')

	if p.src.Take('K') {
		if !p.src.Take('C') {
			return 0, ErrInvalid
		}
		abi, err := p.parseIdent()
		if err != nil {
			return 0, err
		}
		sig.ABI = abi
	}

	spot, err := p.ast.reserve()
	if err != nil {
		return 0, err
	}

	if sig.Args, err = p.parseTypes(); err != nil {
		return 0, err
	}

	if !p.src.Take('u') {
		if sig.Return, err = p.parseType(); err != nil {
			return 0, err
		}
	}

	p.ast.set(spot, sig)
	return spot, nil
}

// parseDynTrait parses `["G" binder] {<path> {"p" <ident> <type>}} "E" "L" <lifetime>`.
func (p *parser) parseDynTrait() (Slot, error) {
	if p.src.Take('G') {
		return 0, ErrInvalid
	}

	spot, err := p.ast.reserve()
	if err != nil {
		return 0, err
	}

	dyn := &DynTraitType{}
	for !p.src.Take('E') {
		trait, err := p.parsePath()
		if err != nil {
			return 0, err
		}
		bound := DynBound{Trait: trait}
		for p.src.Take('p') {
			name, err := p.parseIdent()
			if err != nil {
				return 0, err
			}
			ty, err := p.parseType()
			if err != nil {
				return 0, err
			}
			bound.Bindings = append(bound.Bindings, AssocBinding{Name: name, Type: ty})
		}
		dyn.Bounds = append(dyn.Bounds, bound)
	}

	lt, ok, err := p.parseOptionalLifetime()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrInvalid
	}
	dyn.Lifetime = lt

	p.ast.set(spot, dyn)
	return spot, nil
}

// parseConst parses `"p" | <type> ["n"] {<hex-digit>} "_"`.
func (p *parser) parseConst() (Const, error) {
	if p.src.Take('p') {
		ty, err := p.ast.alloc(&Basic{Name: "_"})
		if err != nil {
			return Const{}, err
		}
		return Const{Placeholder: true, Type: ty}, nil
	}

	ty, err := p.parseType()
	if err != nil {
		return Const{}, err
	}
	if basic, ok := p.ast.get(ty).(*Basic); !ok || !constType(basic.Name) {
		return Const{}, ErrInvalid
	}

	neg := p.src.Take('n')

	start := p.src.Offset()
	end := bytes.IndexByte(p.src.RemainingData(), '_')
	if end < 0 {
		return Const{}, ErrConstDelimiterNotFound
	}
	if err := p.src.Skip(end + 1); err != nil {
		return Const{}, ErrConstDelimiterNotFound
	}

	return Const{Negative: neg, Type: ty, Start: start, End: start + end}, nil
}

// constType reports whether constants of the named basic type can be rendered.
func constType(name string) bool {
	switch name {
	case "i8", "i16", "i32", "i64", "i128", "isize",
		"u8", "u16", "u32", "u64", "u128", "usize",
		"char", "bool":
		return true
	}
	return false
}

// parseBase62 parses `{<base-62-digit>} "_"`. An empty number is zero,
// anything else is the decoded value plus one.
func (p *parser) parseBase62() (uint64, error) {
	if p.src.Take('_') {
		return 0, nil
	}

	var num uint64
	for {
		c, err := p.src.ReadByte()
		if err != nil {
			return 0, ErrDecodingBase62Num
		}
		if c == '_' {
			if num == math.MaxUint64 {
				return 0, ErrDecodingBase62Num
			}
			return num + 1, nil
		}

		var digit uint64
		switch {
		case c >= '0' && c <= '9':
			digit = uint64(c - '0')
		case c >= 'a' && c <= 'z':
			digit = uint64(c-'a') + 10
		case c >= 'A' && c <= 'Z':
			digit = uint64(c-'A') + 36
		default:
			return 0, ErrDecodingBase62Num
		}

		hi, lo := bits.Mul64(num, 62)
		if hi != 0 {
			return 0, ErrDecodingBase62Num
		}
		sum, carry := bits.Add64(lo, digit, 0)
		if carry != 0 {
			return 0, ErrDecodingBase62Num
		}
		num = sum
	}
}

// parseDisambiguator parses `["s" <base-62>]`.
func (p *parser) parseDisambiguator() (Disambiguator, error) {
	if !p.src.Take('s') {
		return Disambiguator{}, nil
	}
	v, err := p.parseBase62()
	if err != nil {
		return Disambiguator{}, err
	}
	return Disambiguator{Value: v, Valid: true}, nil
}

// parseIdent parses `<decimal-number> ["_"] <bytes>`. No leading digit
// yields an empty identifier and consumes nothing.
func (p *parser) parseIdent() (string, error) {
	var n int
	digits := 0
	for {
		c, err := p.src.PeekByte()
		if err != nil || c < '0' || c > '9' {
			break
		}
		if err := p.src.Skip(1); err != nil {
			return "", ErrPathLengthNotNumber
		}
		digits++
		if n > (math.MaxInt32-int(c-'0'))/10 {
			return "", ErrPathLengthNotNumber
		}
		n = n*10 + int(c-'0')
	}
	if digits == 0 {
		return "", nil
	}

	if n > 0 {
		p.src.Take('_')
	}

	name, err := p.src.ReadBytesRef(n)
	if err != nil {
		return "", ErrPathLengthNotNumber
	}
	return string(name), nil
}

// Demangle returns the demangled form of a v0 symbol.
func Demangle(mangled string) (string, error) {
	sym, err := Parse(mangled)
	if err != nil {
		return "", err
	}
	return sym.Display(), nil
}

// DemangleSimple returns the demangled name, or the input unchanged if it
// cannot be demangled.
func DemangleSimple(mangled string) string {
	result, err := Demangle(mangled)
	if err != nil {
		return mangled
	}
	return result
}

// IsMangled returns true if the name carries one of the v0 prefixes.
func IsMangled(name string) bool {
	return strings.HasPrefix(name, "_R") || strings.HasPrefix(name, "__R") ||
		(strings.HasPrefix(name, "R") && len(name) > 1 && isTag(name[1]))
}

func isTag(c byte) bool {
	switch c {
	case 'C', 'M', 'X', 'Y', 'N', 'I', 'B':
		return true
	}
	return false
}
