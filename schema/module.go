// Copyright (c) 2017-2021, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package schema

import "github.com/danos/yangschema/dict"

// ModuleKind distinguishes a module from a submodule (spec.md §3).
type ModuleKind int

const (
	KindModule ModuleKind = iota
	KindSubmodule
)

// ExternalKind classifies why a module was pulled into another module's
// import table: a genuine `import` statement, or a side effect of
// deviation/augmentation targeting it (spec.md §3, §4.5).
type ExternalKind int

const (
	Local ExternalKind = iota
	ViaDeviation
	ViaAugment
)

// Revision is one `revision` substatement; Module.Revisions[0] is always
// the most recent by lexicographic YYYY-MM-DD comparison (spec.md §4.3).
type Revision struct {
	Date        string
	Description string
	Reference   string
}

// Import records one `import` (External == Local) or a module pulled in
// implicitly by deviation/augmentation.
type Import struct {
	Name             string
	Prefix           string
	RequestedRevision string
	Module           *Module
	External         ExternalKind
	// Transforms is not populated by the loader: the transforms a deviation
	// applies are recorded on Deviation.Transforms, and ctx.Repository
	// indexes those for rewrite.SwitchDeviations.
	Transforms []*DeviateTransform
}

// Include records one `include` dependency on a submodule.
type Include struct {
	Name   string
	Module *Module // the submodule handle
}

// DeviateKind is the deviate-statement's verb (spec.md §4.5).
type DeviateKind int

const (
	DeviateNotSupported DeviateKind = iota
	DeviateAdd
	DeviateReplace
	DeviateDelete
)

func (k DeviateKind) String() string {
	switch k {
	case DeviateNotSupported:
		return "not-supported"
	case DeviateAdd:
		return "add"
	case DeviateReplace:
		return "replace"
	case DeviateDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// DeviateStmt is one `deviate` substatement of a `deviation`, holding the
// raw properties it names so the rewriter can apply/validate them against
// the target's nodetype.
type DeviateStmt struct {
	Kind       DeviateKind
	Units      *string
	Musts      []*Must
	Uniques    []string
	Default    *string
	Config     *ConfigState
	Mandatory  *bool
	MinElements *uint64
	MaxElements *uint64
	Type       *Type
}

// DeviateTransform is the "original snapshot" (spec.md §9 design note)
// that makes a DeviateStmt's application its own inverse: applying it
// once performs the deviation, applying it again restores original, and
// so on, which is exactly what switch_deviations toggles.
//
// A "deviate not-supported" transform doesn't mutate Target's fields, it
// detaches Target from the tree entirely; Parent and PrevSibling record
// where it came from (PrevSibling nil meaning Target was its parent's
// first child) so switching the deviation off can re-splice it back at
// its original document position, and OriginalNode is left nil.
type DeviateTransform struct {
	Stmt         *DeviateStmt
	Target       *Node
	OriginalNode *Node // shallow copy of Target as it was before this deviation
	Applied      bool

	Parent      *Node
	PrevSibling *Node
}

// Deviation is one `deviation` statement.
type Deviation struct {
	TargetPathRaw string
	Target        *Node
	Deviates      []*DeviateStmt
	Transforms    []*DeviateTransform
	Module        *Module // the module that declared the deviation
}

// Module is a parsed, (once sealed) fully linked YANG module or
// submodule (spec.md §3).
type Module struct {
	Name        string
	Prefix      string
	Namespace   string
	Organization string
	Contact     string
	Description string
	Reference   string

	Revisions []*Revision
	Imports   []*Import
	Includes  []*Include

	Identities map[string]*Identity
	Features   map[string]*Feature
	Typedefs   map[string]*Typedef
	Augments   []*Node
	Deviations []*Deviation

	Data *Node // first of the top-level data sibling chain

	Implemented bool
	Deviated    bool
	Kind        ModuleKind
	BelongsTo   *Module // set on submodules only

	YangVersion string
}

func NewModule(name string) *Module {
	return &Module{
		Name:       name,
		Identities: make(map[string]*Identity),
		Features:   make(map[string]*Feature),
		Typedefs:   make(map[string]*Typedef),
	}
}

// Revision returns the module's most recent revision date, or "" if it
// has none.
func (m *Module) Revision() string {
	if len(m.Revisions) == 0 {
		return ""
	}
	return m.Revisions[0].Date
}

// AddChild appends child to m's top-level data chain.
func (m *Module) AddChild(child *Node) {
	if m.Data == nil {
		child.Prev = child
		child.Next = nil
		m.Data = child
		return
	}
	last := m.Data.Prev
	last.Next = child
	child.Prev = last
	child.Next = nil
	m.Data.Prev = child
}

// Children returns the top-level data sibling chain in order, including
// data nodes contributed by included submodules (spec.md §3: "Submodules
// ... contribute their data nodes to the owning module's single data
// chain").
func (m *Module) Children() []*Node {
	var out []*Node
	for c := m.Data; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}

// LookupChild finds the first top-level data node of the given type named
// name, the Module-level counterpart of Node.LookupChild.
func (m *Module) LookupChild(t NodeType, name string) *Node {
	for c := m.Data; c != nil; c = c.Next {
		if c.NType == t && c.Name == name {
			return c
		}
	}
	return nil
}

// LookupImport finds the import entry for prefix, or nil.
func (m *Module) LookupImport(prefix string) *Import {
	for _, i := range m.Imports {
		if i.Prefix == prefix {
			return i
		}
	}
	return nil
}

// Destroy walks m's data chain in sibling order releasing every Dict
// reference owned by its nodes (spec.md §5: "destruction walks the data
// chain in sibling order, releases Dict references for every string
// field"). Nodes contributed by an included submodule are filtered out
// by module identity (spec.md §5) so they are released only when their
// owning submodule is itself destroyed.
func (m *Module) Destroy(d *dict.Dict) {
	var walk func(n *Node)
	walk = func(n *Node) {
		for c := n.FirstChild; c != nil; c = c.Next {
			walk(c)
		}
		if n.Module == m {
			for _, h := range n.ownedHandles {
				d.Release(h)
			}
		}
	}
	for c := m.Data; c != nil; c = c.Next {
		walk(c)
	}
}

