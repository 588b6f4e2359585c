// Copyright (c) 2017-2021, AT&T Intellectual Property.
// All rights reserved.
//
// Copyright (c) 2014-2017 by Brocade Communications Systems, Inc.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package schema is the in-memory schema tree (spec.md §3): the Node sum
// type, its nodetype-specific bodies, Type, and the Module that owns them.
// Nodes are allocated while parsing, reparented by uses expansion and
// augment application, and mutated only by the resolver/rewriter phase
// before the owning Module is sealed.
package schema

import "github.com/danos/yangschema/dict"

// NodeType tags the sum-type Node.Body.
type NodeType int

const (
	Container NodeType = iota
	List
	Leaf
	LeafList
	Choice
	Case
	AnyXML
	Uses
	Grouping
	Augment
	RPC
	Input
	Output
	Notification
)

func (t NodeType) String() string {
	switch t {
	case Container:
		return "container"
	case List:
		return "list"
	case Leaf:
		return "leaf"
	case LeafList:
		return "leaf-list"
	case Choice:
		return "choice"
	case Case:
		return "case"
	case AnyXML:
		return "anyxml"
	case Uses:
		return "uses"
	case Grouping:
		return "grouping"
	case Augment:
		return "augment"
	case RPC:
		return "rpc"
	case Input:
		return "input"
	case Output:
		return "output"
	case Notification:
		return "notification"
	default:
		return "unknown"
	}
}

// IsDataNode reports whether nodes of this type instantiate data (as
// opposed to grouping/augment/rpc bookkeeping nodes).
func (t NodeType) IsDataNode() bool {
	switch t {
	case Container, List, Leaf, LeafList, Choice, Case, AnyXML:
		return true
	default:
		return false
	}
}

// ConfigState is the tri-state config flag: a node either has an explicit
// value or inherits its nearest ancestor's (spec.md §3, "config inherits
// downward unless explicitly set on the node").
type ConfigState int

const (
	ConfigInherit ConfigState = iota
	ConfigTrue
	ConfigFalse
)

// NACMFlags are OR-combined down the data tree during rewrite (spec.md
// §4.5, NACM inheritance), except into grouping children.
type NACMFlags uint8

const (
	NACMDefaultDenyWrite NACMFlags = 1 << iota
	NACMDefaultDenyAll
)

// Flags bundles the small per-node boolean/tri-state properties that are
// common across several nodetypes (mandatory, config) so nodetype bodies
// don't each repeat them.
type Flags struct {
	Config       ConfigState
	Mandatory    bool
	HasMandatory bool
}

// Node is the common header every schema node carries (spec.md §3), plus
// a nodetype-specific Body. Siblings form an intrusive doubly-linked list
// where Prev on the first child points to the *last* sibling, giving O(1)
// append (spec.md §9 design note); Prev is nil only on an unlinked node.
//
// Name/Description/Reference are plain Go strings for ergonomic use
// throughout the resolver and rewriters; the Dict still owns the
// canonical backing bytes per spec.md §4.1 — every string a node is built
// from is interned through Handles recorded in ownedHandles, which
// Module.Destroy releases. This mirrors how real embedders of a C
// interner (the lineage spec.md's Dict design is modelled on) cache a
// decoded value next to a handle rather than re-resolving it on every
// comparison.
type Node struct {
	Name        string
	Description string
	Reference   string
	NType       NodeType
	Flags       Flags
	Features    []string // raw if-feature expressions gating this node
	NACM        NACMFlags
	Parent      *Node
	Prev        *Node
	Next        *Node
	FirstChild  *Node
	Module      *Module
	Private     interface{}

	Body interface{} // *ContainerBody, *ListBody, *LeafBody, ...

	ownedHandles []dict.Handle
}

// Own records that h (already inserted into a Dict) is owned by n, so
// Module.Destroy can release it. The builder calls this for every
// interned field a node acquires.
func (n *Node) Own(h dict.Handle) {
	n.ownedHandles = append(n.ownedHandles, h)
}

// OwnedHandles returns the handles n owns, for destruction accounting.
func (n *Node) OwnedHandles() []dict.Handle { return n.ownedHandles }

// AppendChild links child as the last child of n, maintaining the
// circular-Prev invariant described above.
func (n *Node) AppendChild(child *Node) {
	child.Parent = n
	child.Next = nil
	if n.FirstChild == nil {
		child.Prev = child
		n.FirstChild = child
		return
	}
	last := n.FirstChild.Prev
	last.Next = child
	child.Prev = last
	n.FirstChild.Prev = child
}

// RemoveChild unlinks child from n's child chain. child must currently be
// one of n's children.
func (n *Node) RemoveChild(child *Node) {
	prev := child.Prev
	next := child.Next
	if n.FirstChild == child {
		n.FirstChild = next
		if next != nil {
			next.Prev = prev // prev here is the old last sibling
		}
	} else {
		prev.Next = next
		if next != nil {
			next.Prev = prev
		} else if n.FirstChild != nil {
			n.FirstChild.Prev = prev
		}
	}
	child.Parent = nil
	child.Next = nil
	child.Prev = nil
}

// Children returns n's children in sibling order. O(n); callers doing
// repeated traversal should walk FirstChild/Next directly.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}

// LastChild returns n's last child in O(1), using the circular Prev
// pointer, or nil if n has no children.
func (n *Node) LastChild() *Node {
	if n.FirstChild == nil {
		return nil
	}
	return n.FirstChild.Prev
}

// ChildrenByType filters Children to the given nodetype.
func (n *Node) ChildrenByType(t NodeType) []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.Next {
		if c.NType == t {
			out = append(out, c)
		}
	}
	return out
}

// LookupChild finds the first direct child of the given type named name.
func (n *Node) LookupChild(t NodeType, name string) *Node {
	for c := n.FirstChild; c != nil; c = c.Next {
		if c.NType == t && c.Name == name {
			return c
		}
	}
	return nil
}

// EffectiveConfig resolves n's config flag, walking ancestors until an
// explicit value is found; the root default is true (spec.md §3).
func (n *Node) EffectiveConfig() bool {
	for c := n; c != nil; c = c.Parent {
		switch c.Flags.Config {
		case ConfigTrue:
			return true
		case ConfigFalse:
			return false
		}
	}
	return true
}

// --- Nodetype-specific bodies ---

type Must struct {
	XPath        string
	ErrorMessage string
	ErrorAppTag  string
	Description  string
}

type When struct {
	XPath       string
	Description string
}

type ContainerBody struct {
	Presence bool
	Typedefs []*Typedef
	Musts    []*Must
	When     *When
}

type ListBody struct {
	KeyNames []string // raw whitespace-separated tokens, queued for resolution
	Keys     []*Node  // resolved direct-child leaves, ordered
	Uniques  [][]*Node
	UniqueRaw []string
	Min, Max uint64
	Typedefs []*Typedef
	Musts    []*Must
	When     *When
}

type LeafBody struct {
	Type              *Type
	Units             string
	Default           string
	HasDefault        bool
	Musts             []*Must
	When              *When
	LeafrefBackEdges  map[*Node]struct{}
}

type LeafListBody struct {
	LeafBody
	Min, Max uint64
}

type ChoiceBody struct {
	DefaultRaw string
	Default    *Node
	When       *When
}

type CaseBody struct {
	When *When
}

type AnyXMLBody struct {
	Musts []*Must
	When  *When
}

type Refine struct {
	TargetPath  string
	Target      *Node
	Default     string
	HasDefault  bool
	Description string
	Reference   string
	Config      ConfigState
	Mandatory   bool
	HasMandatory bool
	Presence    bool
	HasPresence bool
	Min, Max    uint64
	HasMin, HasMax bool
	Musts       []*Must
}

type UsesBody struct {
	GroupingRaw string // raw prefix:name
	Grouping    *Node
	Refines     []*Refine
	Augments    []*Node
	When        *When
}

type GroupingBody struct {
	Typedefs []*Typedef
}

type AugmentBody struct {
	TargetPathRaw string
	Target        *Node
	When          *When
}

type RPCBody struct{ Typedefs []*Typedef }
type InputBody struct{ Typedefs []*Typedef }
type OutputBody struct{ Typedefs []*Typedef }
type NotificationBody struct{ Typedefs []*Typedef }
