package demangle

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Display renders the symbol as source-level text.
func (s *Symbol) Display() string {
	var b strings.Builder
	b.Grow(150)
	s.format(&b, 0)
	return b.String()
}

func (s *Symbol) String() string { return s.Display() }

func (s *Symbol) format(b *strings.Builder, slot Slot) {
	switch n := s.ast.get(slot).(type) {
	case Empty:
	case *Basic:
		b.WriteString(n.Name)
	case *CratePath:
		b.WriteString(n.Name)
	case *NestedPath:
		s.format(b, n.Parent)
		b.WriteString("::")
		if n.Namespace != NamespaceClosure {
			b.WriteString(n.Name)
			return
		}
		b.WriteString("{closure")
		if n.Name != "" {
			b.WriteByte(':')
			b.WriteString(n.Name)
		}
		if n.Disambiguator.Valid && n.Disambiguator.Value != 0 {
			b.WriteByte('#')
			formatNum(b, n.Disambiguator.Value, false)
		}
		b.WriteByte('}')
	case *GenericPath:
		s.formatGeneric(b, n, nil)
	case *InherentImplPath:
		b.WriteByte('<')
		s.format(b, n.SelfType)
		b.WriteByte('>')
	case *TraitPath:
		b.WriteByte('<')
		s.format(b, n.SelfType)
		b.WriteString(" as ")
		s.format(b, n.Trait)
		b.WriteByte('>')
	case *ArrayType:
		b.WriteByte('[')
		s.format(b, n.Elem)
		b.WriteString("; ")
		s.formatConst(b, n.Len)
		b.WriteByte(']')
	case *SliceType:
		b.WriteByte('[')
		s.format(b, n.Elem)
		b.WriteByte(']')
	case *TupleType:
		b.WriteByte('(')
		s.formatList(b, n.Elems)
		if len(n.Elems) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case *RefType:
		b.WriteByte('&')
		if n.HasLifetime && n.Lifetime != 0 {
			formatLifetime(b, n.Lifetime)
			b.WriteByte(' ')
		}
		if n.Mutable {
			b.WriteString("mut ")
		}
		s.format(b, n.Elem)
	case *PointerType:
		if n.Mutable {
			b.WriteString("*mut ")
		} else {
			b.WriteString("*const ")
		}
		s.format(b, n.Elem)
	case *FnSigType:
		if n.Unsafe {
			b.WriteString("unsafe ")
		}
		b.WriteString("fn")
		if n.ABI != "" {
			b.WriteByte(' ')
			b.WriteString(n.ABI)
		}
		b.WriteByte('(')
		s.formatList(b, n.Args)
		b.WriteByte(')')
		if n.Return != NoSlot {
			b.WriteString(" -> ")
			s.format(b, n.Return)
		}
	case *DynTraitType:
		b.WriteString("dyn ")
		for i, bound := range n.Bounds {
			if i > 0 {
				b.WriteString(" + ")
			}
			s.formatDynBound(b, bound)
		}
		if _, ok := n.Lifetime.Letter(); ok {
			b.WriteString(" + ")
			formatLifetime(b, n.Lifetime)
		}
	}
}

func (s *Symbol) formatList(b *strings.Builder, slots []Slot) {
	for i, slot := range slots {
		if i > 0 {
			b.WriteString(", ")
		}
		s.format(b, slot)
	}
}

// formatGeneric renders `base::<args>`, or `base<args>` for type paths.
// Associated type bindings of a dyn bound are appended to the arguments.
func (s *Symbol) formatGeneric(b *strings.Builder, n *GenericPath, bindings []AssocBinding) {
	s.format(b, n.Base)

	if base, ok := s.ast.get(n.Base).(*NestedPath); ok && base.Namespace == NamespaceType {
		b.WriteByte('<')
	} else {
		b.WriteString("::<")
	}

	for i, arg := range n.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		switch arg.Kind {
		case GenericLifetime:
			formatLifetime(b, arg.Lifetime)
		case GenericType:
			s.format(b, arg.Type)
		case GenericConst:
			s.formatConst(b, arg.Const)
		}
	}

	if len(n.Args) > 0 && len(bindings) > 0 {
		b.WriteString(", ")
	}
	s.formatBindings(b, bindings)
	b.WriteByte('>')
}

func (s *Symbol) formatDynBound(b *strings.Builder, bound DynBound) {
	if len(bound.Bindings) == 0 {
		s.format(b, bound.Trait)
		return
	}
	if g, ok := s.ast.get(bound.Trait).(*GenericPath); ok {
		s.formatGeneric(b, g, bound.Bindings)
		return
	}
	s.format(b, bound.Trait)
	b.WriteByte('<')
	s.formatBindings(b, bound.Bindings)
	b.WriteByte('>')
}

func (s *Symbol) formatBindings(b *strings.Builder, bindings []AssocBinding) {
	for i, binding := range bindings {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(binding.Name)
		b.WriteString(" = ")
		s.format(b, binding.Type)
	}
}

func formatLifetime(b *strings.Builder, lt Lifetime) {
	b.WriteByte('\'')
	if c, ok := lt.Letter(); ok {
		b.WriteByte(c)
	} else {
		b.WriteByte('_')
	}
}

func (s *Symbol) formatConst(b *strings.Builder, c Const) {
	if c.Placeholder {
		b.WriteByte('_')
		return
	}

	basic, ok := s.ast.get(c.Type).(*Basic)
	if !ok {
		b.WriteByte('_')
		return
	}

	value, err := strconv.ParseUint(string(s.source[c.Start:c.End]), 16, 64)
	if err != nil {
		b.WriteByte('_')
		return
	}

	switch basic.Name {
	case "bool":
		switch value {
		case 0:
			b.WriteString("false")
		case 1:
			b.WriteString("true")
		default:
			b.WriteByte('_')
		}
	case "char":
		if value > math.MaxInt32 || !utf8.ValidRune(rune(value)) {
			b.WriteByte('_')
			return
		}
		b.WriteRune(rune(value))
	default:
		formatNum(b, value, c.Negative)
	}
}

var pow10 = [...]uint64{
	1, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10,
	1e11, 1e12, 1e13, 1e14, 1e15, 1e16, 1e17, 1e18, 1e19,
}

// formatNum writes num in decimal, most significant digit first, without
// building intermediate strings. The digit count comes from a log10
// estimate corrected against exact powers of ten.
func formatNum(b *strings.Builder, num uint64, negative bool) {
	if negative && num != 0 {
		b.WriteByte('-')
	}

	n := int(math.Ceil(math.Log10(float64(num) + 1)))
	if n < 1 {
		n = 1
	}
	if n > len(pow10) {
		n = len(pow10)
	}
	for n < len(pow10) && num >= pow10[n] {
		n++
	}
	for n > 1 && num < pow10[n-1] {
		n--
	}

	for ; n > 0; n-- {
		pow := pow10[n-1]
		b.WriteByte(byte(num/pow) + '0')
		num %= pow
	}
}
