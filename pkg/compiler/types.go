package compiler

import "strings"

// BaseKind is the primitive kind a Type is built from.
type BaseKind int

const (
	KindUnknown BaseKind = iota
	KindVoid
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindPointer
	KindArray
	KindStruct
	KindUnion
	KindEnum
	KindFunction
	KindProcess
	KindSemaphore
	KindPid
)

var baseKindNames = map[BaseKind]string{
	KindUnknown: "unknown", KindVoid: "void", KindChar: "char",
	KindShort: "short", KindInt: "int", KindLong: "long",
	KindFloat: "float", KindDouble: "double", KindPointer: "pointer",
	KindArray: "array", KindStruct: "struct", KindUnion: "union",
	KindEnum: "enum", KindFunction: "function", KindProcess: "process",
	KindSemaphore: "semaphore", KindPid: "pid",
}

func (b BaseKind) String() string { return baseKindNames[b] }

// Qualifier is a bitset of storage-class and cv-qualifiers.
type Qualifier uint8

const (
	QualConst Qualifier = 1 << iota
	QualVolatile
	QualUnsigned
	QualSigned
	QualStatic
	QualExtern
	QualRegister
)

// maxArrayDims bounds the per-dimension size vector of an array type.
const maxArrayDims = 8

// Type is the full type descriptor. A pointer type is its pointee's base
// kind with PointerDepth >= 1; Elem is not set for pointers, so the
// pointee is recovered by decrementing PointerDepth. An array type carries
// len(ArrayDims) >= 1. Types are owned solely by whichever AST node or
// Symbol created them — Clone performs the deep copy that ownership
// transfer requires.
type Type struct {
	Base         BaseKind
	Quals        Qualifier
	PointerDepth int
	ArrayDims    []int // len <= maxArrayDims; outermost dim may be 0 (unsized)
	Elem         *Type // array element type
	Return       *Type // function return type
	Params       []*Type
	StructName   string // set when Base is KindStruct/KindUnion/KindEnum
}

func baseSize(b BaseKind) int {
	switch b {
	case KindChar:
		return 1
	case KindShort:
		return 2
	case KindInt:
		return 4
	case KindLong:
		return 8
	case KindFloat:
		return 4
	case KindDouble:
		return 8
	case KindPointer:
		return 4
	case KindPid:
		return 4
	case KindSemaphore:
		return 4
	case KindVoid:
		return 0
	default:
		return 4
	}
}

// Size computes the byte size of t: base-kind size times the product of
// any array dimensions. A pointer's size is the pointer's own base size
// (4), never the pointee's.
func (t *Type) Size() int {
	if t == nil {
		return 0
	}
	if t.PointerDepth > 0 {
		return baseSize(KindPointer)
	}
	sz := baseSize(t.Base)
	if t.Base == KindArray {
		if t.Elem != nil {
			sz = t.Elem.Size()
		}
		for _, d := range t.ArrayDims {
			if d > 0 {
				sz *= d
			}
		}
	}
	return sz
}

// Clone performs a deep copy so a caller can transfer Type ownership
// without aliasing the source node's or symbol's descriptor.
func (t *Type) Clone() *Type {
	if t == nil {
		return nil
	}
	c := &Type{
		Base:         t.Base,
		Quals:        t.Quals,
		PointerDepth: t.PointerDepth,
		StructName:   t.StructName,
	}
	if t.ArrayDims != nil {
		c.ArrayDims = append([]int(nil), t.ArrayDims...)
	}
	c.Elem = t.Elem.Clone()
	c.Return = t.Return.Clone()
	for _, p := range t.Params {
		c.Params = append(c.Params, p.Clone())
	}
	return c
}

// Compatible reports whether two types may participate in the same
// expression without a cast — base kind and pointer depth must agree; the
// compiler does no further structural checking beyond what parsing infers.
func (t *Type) Compatible(other *Type) bool {
	if t == nil || other == nil {
		return false
	}
	return t.Base == other.Base && t.PointerDepth == other.PointerDepth
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	var sb strings.Builder
	if t.Quals&QualUnsigned != 0 {
		sb.WriteString("unsigned ")
	}
	if t.Quals&QualConst != 0 {
		sb.WriteString("const ")
	}
	switch t.Base {
	case KindStruct:
		sb.WriteString("struct " + t.StructName)
	case KindUnion:
		sb.WriteString("union " + t.StructName)
	case KindEnum:
		sb.WriteString("enum " + t.StructName)
	case KindArray:
		sb.WriteString(t.Elem.String())
	default:
		sb.WriteString(t.Base.String())
	}
	for i := 0; i < t.PointerDepth; i++ {
		sb.WriteString("*")
	}
	for _, d := range t.ArrayDims {
		if d > 0 {
			sb.WriteString("[")
			sb.WriteString(itoa(d))
			sb.WriteString("]")
		} else {
			sb.WriteString("[]")
		}
	}
	return sb.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

var primitiveTypes = map[TokenKind]BaseKind{
	KW_VOID: KindVoid, KW_CHAR: KindChar, KW_SHORT: KindShort,
	KW_INT: KindInt, KW_LONG: KindLong, KW_FLOAT: KindFloat,
	KW_DOUBLE: KindDouble,
}
