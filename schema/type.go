// Copyright (c) 2017-2021, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package schema

// TypeBase is the built-in base type a Type ultimately derives from
// (spec.md §3).
type TypeBase int

const (
	TBinary TypeBase = iota
	TBits
	TBool
	TDec64
	TEmpty
	TEnum
	TIdent
	TInst
	TInt8
	TInt16
	TInt32
	TInt64
	TUint8
	TUint16
	TUint32
	TUint64
	TLeafref
	TString
	TUnion
)

func (b TypeBase) String() string {
	names := [...]string{
		"binary", "bits", "boolean", "decimal64", "empty", "enumeration",
		"identityref", "instance-identifier", "int8", "int16", "int32",
		"int64", "uint8", "uint16", "uint32", "uint64", "leafref",
		"string", "union",
	}
	if int(b) < len(names) {
		return names[b]
	}
	return "unknown"
}

var builtinByName = map[string]TypeBase{
	"binary": TBinary, "bits": TBits, "boolean": TBool, "decimal64": TDec64,
	"empty": TEmpty, "enumeration": TEnum, "identityref": TIdent,
	"instance-identifier": TInst, "int8": TInt8, "int16": TInt16,
	"int32": TInt32, "int64": TInt64, "uint8": TUint8, "uint16": TUint16,
	"uint32": TUint32, "uint64": TUint64, "leafref": TLeafref,
	"string": TString, "union": TUnion,
}

// LookupBuiltin returns the TypeBase for a bare (unprefixed) built-in type
// name, or false if name isn't a built-in.
func LookupBuiltin(name string) (TypeBase, bool) {
	b, ok := builtinByName[name]
	return b, ok
}

// IsNumeric reports whether b is one of the fixed-width integer bases.
func (b TypeBase) IsNumeric() bool {
	switch b {
	case TInt8, TInt16, TInt32, TInt64, TUint8, TUint16, TUint32, TUint64:
		return true
	default:
		return false
	}
}

// Type is the resolved representation of a `type` statement: either a
// direct use of a built-in, or derived from a Typedef (DerivedFrom != nil).
type Type struct {
	Base        TypeBase
	DerivedFrom *Typedef
	ModuleName  string // prefix this type reference was written with, if any
	RawName     string // the type name exactly as written (for re-printing)

	// Unresolved is true between a `type` statement being parsed and its
	// TypeDer/TypeDerTypedef unres entry settling Base/DerivedFrom; it
	// exists because TypeBase's zero value (TBinary) is itself a valid
	// resolved state, so Base alone can't distinguish "resolved to
	// binary" from "not yet resolved".
	Unresolved bool

	StringRestr *StringRestr
	Bits        []*Bit
	Enums       []*Enum
	Dec64       *Dec64Restr
	Leafref     *LeafrefRestr
	Ident       *IdentRestr
	Union       []*Type
	NumRange    *Range
}

type StringRestr struct {
	Length   *Range
	Patterns []*Pattern
}

type Pattern struct {
	Raw      string
	Inverted bool // 15.6 modifier "invert-match"
}

// Bit is one member of a `bits` type. Position is explicit or
// auto-assigned as (previous position + 1), starting at 0.
type Bit struct {
	Name         string
	Position     uint32
	AutoAssigned bool
	Description  string
	Reference    string
	Status       Status
}

// Enum is one member of an `enumeration` type. Value is explicit or
// auto-assigned as (previous value + 1), starting at 0.
type Enum struct {
	Name         string
	Value        int32
	AutoAssigned bool
	Description  string
	Reference    string
	Status       Status
}

type Dec64Restr struct {
	Digits  int // 1..18
	Divisor int64
	Range   *Range
}

type LeafrefRestr struct {
	Path            string
	Target          *Node
	RequireInstance bool
	HasRequireInst  bool
}

type IdentRestr struct {
	BaseNames []string // raw prefix:name tokens, one per `base` statement
	Bases     []*Identity
}

// Range is a generic ordered-boundary range used by both numeric `range`
// and string/binary `length` restrictions; boundary values are carried as
// int64/uint64/float64 in the three typed slice wrappers below depending
// on the base type, mirroring the teacher's Rb/Urb/Drb/Lb split
// (schema/types.go) rather than a single interface{} boundary type.
type Range struct {
	Signed    []Rb
	Unsigned  []Urb
	Decimal   []Drb
	ErrorMsg  string
	ErrorTag  string
}

type Rb struct{ Min, Max int64 }
type Urb struct{ Min, Max uint64 }
type Drb struct{ Min, Max float64 }

type Status int

const (
	StatusCurrent Status = iota
	StatusDeprecated
	StatusObsolete
)

// Typedef is a named, re-usable Type definition.
type Typedef struct {
	Name        string
	Type        *Type
	Default     string
	HasDefault  bool
	Units       string
	Description string
	Reference   string
	Status      Status
	Module      *Module
}

// Identity is a named constant in an inheritance graph (spec.md glossary).
type Identity struct {
	Name        string
	Module      *Module
	BaseNames   []string
	Bases       []*Identity
	Derived     []*Identity
	Description string
	Reference   string
	Status      Status
}

// Feature gates the presence of schema nodes at compile time.
type Feature struct {
	Name       string
	Module     *Module
	IfFeatures []string
	Enabled    bool
	Description string
	Reference   string
	Status      Status
}
