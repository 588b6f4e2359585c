// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package rewrite performs the schema-tree mutations spec.md §4.5 calls
// rewriting: uses expansion, augment splicing, deviation application, and
// NACM-flag inheritance. Each function here is driven by an unres.Ref's
// Resolve closure (built in package parse) once its dependencies settle;
// this package itself has no notion of a work queue, only of tree shape.
package rewrite

import (
	"github.com/danos/yangschema/schema"
	"github.com/danos/yangschema/yerr"
)

// DeepCopy clones n and its whole subtree, reassigning Module to owner so
// a grouping (or augment) body copied into a new location is owned by the
// module instantiating it rather than the module that declared it (spec.md
// §4.5: "a used grouping's nodes belong, for NACM/config-inheritance and
// destruction purposes, to the module that names the `uses`"). Dict
// ownership is not re-interned here: callers that need independently
// destructible copies must re-own the copy's strings through Node.Own
// themselves -- the common case (expansion into the same Dict/module tree
// the source already lives in) does not need to, since both copies share
// the same backing Dict for the lifetime of the load.
func DeepCopy(n *schema.Node, owner *schema.Module) *schema.Node {
	cp := &schema.Node{
		Name:        n.Name,
		Description: n.Description,
		Reference:   n.Reference,
		NType:       n.NType,
		Flags:       n.Flags,
		Features:    append([]string(nil), n.Features...),
		NACM:        n.NACM,
		Module:      owner,
		Body:        copyBody(n.Body),
	}
	for c := n.FirstChild; c != nil; c = c.Next {
		cp.AppendChild(DeepCopy(c, owner))
	}
	return cp
}

func copyBody(b interface{}) interface{} {
	switch v := b.(type) {
	case *schema.ContainerBody:
		cp := *v
		return &cp
	case *schema.ListBody:
		cp := *v
		cp.Keys = append([]*schema.Node(nil), v.Keys...)
		return &cp
	case *schema.LeafBody:
		cp := *v
		cp.LeafrefBackEdges = make(map[*schema.Node]struct{})
		return &cp
	case *schema.LeafListBody:
		cp := *v
		cp.LeafrefBackEdges = make(map[*schema.Node]struct{})
		return &cp
	case *schema.ChoiceBody:
		cp := *v
		return &cp
	case *schema.CaseBody:
		cp := *v
		return &cp
	case *schema.AnyXMLBody:
		cp := *v
		return &cp
	case *schema.UsesBody:
		cp := *v
		return &cp
	case nil:
		return nil
	default:
		return v
	}
}

// GroupingReady reports whether g has no remaining `uses` descendants,
// i.e. its own body has been fully expanded and it is safe to copy
// (spec.md §4.4: "Uses is deferred until its grouping is fully resolved").
func GroupingReady(g *schema.Node) bool {
	for c := g.FirstChild; c != nil; c = c.Next {
		if c.NType == schema.Uses {
			return false
		}
		if !GroupingReady(c) {
			return false
		}
	}
	return true
}

// ExpandUses splices a deep copy of grouping's children into uses's
// parent in place of uses, applies refine statements to the copies, and
// finally detaches the uses node itself. It must only be called once
// GroupingReady(grouping) holds.
func ExpandUses(uses *schema.Node, grouping *schema.Node, refines []*schema.Refine) error {
	parent := uses.Parent
	if parent == nil {
		return yerr.New(yerr.Internal, nil, "uses %q has no parent to expand into", uses.Name)
	}
	var copies []*schema.Node
	for c := grouping.FirstChild; c != nil; c = c.Next {
		copies = append(copies, DeepCopy(c, uses.Module))
	}
	for _, cp := range copies {
		if err := applyRefines(cp, refines); err != nil {
			return err
		}
	}
	replaceChild(parent, uses, copies)
	return nil
}

// replaceChild rebuilds parent's sibling chain with anchor swapped out for
// replacements, preserving the position and order of every other child.
// Document order is observable (print, CheckSiblingUniqueness
// diagnostics), so this favors a straightforward full rebuild over a
// hand-spliced linked-list edit.
func replaceChild(parent, anchor *schema.Node, replacements []*schema.Node) {
	old := parent.Children()
	var next []*schema.Node
	for _, c := range old {
		if c == anchor {
			next = append(next, replacements...)
			continue
		}
		next = append(next, c)
	}
	parent.FirstChild = nil
	for _, c := range next {
		c.Parent = nil
		c.Prev, c.Next = nil, nil
		parent.AppendChild(c)
	}
}

func applyRefines(n *schema.Node, refines []*schema.Refine) error {
	for _, r := range refines {
		if r.TargetPath != n.Name {
			continue
		}
		if r.Description != "" {
			n.Description = r.Description
		}
		if r.Reference != "" {
			n.Reference = r.Reference
		}
		if r.Config != schema.ConfigInherit {
			n.Flags.Config = r.Config
		}
		if r.HasMandatory {
			n.Flags.Mandatory, n.Flags.HasMandatory = r.Mandatory, true
		}
		switch b := n.Body.(type) {
		case *schema.LeafBody:
			if r.HasDefault {
				b.Default, b.HasDefault = r.Default, true
			}
			b.Musts = append(b.Musts, r.Musts...)
		case *schema.ContainerBody:
			if r.HasPresence {
				b.Presence = r.Presence
			}
			b.Musts = append(b.Musts, r.Musts...)
		case *schema.ListBody:
			if r.HasMin {
				b.Min = r.Min
			}
			if r.HasMax {
				b.Max = r.Max
			}
			b.Musts = append(b.Musts, r.Musts...)
		case *schema.LeafListBody:
			if r.HasMin {
				b.Min = r.Min
			}
			if r.HasMax {
				b.Max = r.Max
			}
		}
	}
	return nil
}

// ApplyAugment reparents aug's children onto target, in document order.
// When aug carries a `when`, each moved child other than a case takes it
// as its own `when` if it has none; a child that already carries a `when`
// keeps only its own, and the two conditions are not combined.
func ApplyAugment(aug *schema.Node, target *schema.Node) error {
	ab := aug.Body.(*schema.AugmentBody)
	children := aug.Children()
	for _, c := range children {
		aug.RemoveChild(c)
		c.Parent = nil
		target.AppendChild(c)
		if ab.When != nil && c.NType != schema.Case {
			wrapWhen(c, ab.When)
		}
	}
	return nil
}

func wrapWhen(n *schema.Node, w *schema.When) {
	switch b := n.Body.(type) {
	case *schema.ContainerBody:
		if b.When == nil {
			b.When = w
		}
	case *schema.ListBody:
		if b.When == nil {
			b.When = w
		}
	case *schema.LeafBody:
		if b.When == nil {
			b.When = w
		}
	case *schema.LeafListBody:
		if b.When == nil {
			b.When = w
		}
	case *schema.ChoiceBody:
		if b.When == nil {
			b.When = w
		}
	case *schema.CaseBody:
		if b.When == nil {
			b.When = w
		}
	case *schema.AnyXMLBody:
		if b.When == nil {
			b.When = w
		}
	}
}

// ApplyDeviate performs one deviate statement's mutation against target,
// returning a DeviateTransform that makes the mutation its own inverse
// (spec.md §9 design note), so SwitchDeviations can toggle it later. A
// "not-supported" deviate detaches target from its parent entirely and
// records where it was so SwitchDeviations can re-splice it back.
func ApplyDeviate(target *schema.Node, d *schema.DeviateStmt) (*schema.DeviateTransform, error) {
	if d.Kind == schema.DeviateNotSupported {
		parent := target.Parent
		var prevSibling *schema.Node
		if parent != nil && parent.FirstChild != target {
			prevSibling = target.Prev
		}
		xf := &schema.DeviateTransform{Stmt: d, Target: target, Applied: true,
			Parent: parent, PrevSibling: prevSibling}
		if parent != nil {
			parent.RemoveChild(target)
		}
		return xf, nil
	}

	snapshot := *target
	snapshot.Body = copyBody(target.Body)
	xf := &schema.DeviateTransform{Stmt: d, Target: target, OriginalNode: &snapshot, Applied: true}
	switch d.Kind {
	case schema.DeviateAdd, schema.DeviateReplace:
		applyProps(target, d)
	case schema.DeviateDelete:
		clearProps(target, d)
	}
	return xf, nil
}

// SwitchDeviations toggles xf's deviation: if Applied, restores target
// from OriginalNode (or re-splices it back in, for not-supported);
// otherwise re-applies Stmt (or re-detaches it). This is the mechanism
// behind a Repository's deviation on/off switch (spec.md §5).
func SwitchDeviations(xf *schema.DeviateTransform) error {
	if xf.Stmt.Kind == schema.DeviateNotSupported {
		if xf.Parent == nil {
			xf.Applied = !xf.Applied
			return nil
		}
		if xf.Applied {
			spliceChildBack(xf.Parent, xf.Target, xf.PrevSibling)
		} else {
			xf.Parent.RemoveChild(xf.Target)
		}
		xf.Applied = !xf.Applied
		return nil
	}

	if xf.Applied {
		*xf.Target = *xf.OriginalNode
		xf.Target.Body = copyBody(xf.OriginalNode.Body)
		xf.Applied = false
		return nil
	}
	switch xf.Stmt.Kind {
	case schema.DeviateAdd, schema.DeviateReplace:
		applyProps(xf.Target, xf.Stmt)
	case schema.DeviateDelete:
		clearProps(xf.Target, xf.Stmt)
	}
	xf.Applied = true
	return nil
}

// spliceChildBack re-inserts child into parent's sibling chain immediately
// after prevSibling (or as the first child, if prevSibling is nil),
// rebuilding the whole chain the same way replaceChild does so document
// order stays correct for every other child.
func spliceChildBack(parent, child, prevSibling *schema.Node) {
	old := parent.Children()
	next := make([]*schema.Node, 0, len(old)+1)
	if prevSibling == nil {
		next = append(next, child)
	}
	for _, c := range old {
		next = append(next, c)
		if c == prevSibling {
			next = append(next, child)
		}
	}
	parent.FirstChild = nil
	for _, c := range next {
		c.Parent = nil
		c.Prev, c.Next = nil, nil
		parent.AppendChild(c)
	}
}

func applyProps(n *schema.Node, d *schema.DeviateStmt) {
	if d.Config != nil {
		n.Flags.Config = *d.Config
	}
	if d.Mandatory != nil {
		n.Flags.Mandatory, n.Flags.HasMandatory = *d.Mandatory, true
	}
	switch b := n.Body.(type) {
	case *schema.LeafBody:
		if d.Default != nil {
			b.Default, b.HasDefault = *d.Default, true
		}
		if d.Units != nil {
			b.Units = *d.Units
		}
		b.Musts = append(b.Musts, d.Musts...)
		if d.Type != nil {
			b.Type = d.Type
		}
	case *schema.ListBody:
		if d.MinElements != nil {
			b.Min = *d.MinElements
		}
		if d.MaxElements != nil {
			b.Max = *d.MaxElements
		}
		b.Musts = append(b.Musts, d.Musts...)
	case *schema.LeafListBody:
		if d.MinElements != nil {
			b.Min = *d.MinElements
		}
		if d.MaxElements != nil {
			b.Max = *d.MaxElements
		}
		if d.Type != nil {
			b.Type = d.Type
		}
	case *schema.ContainerBody:
		b.Musts = append(b.Musts, d.Musts...)
	}
}

func clearProps(n *schema.Node, d *schema.DeviateStmt) {
	switch b := n.Body.(type) {
	case *schema.LeafBody:
		if d.Default != nil {
			b.Default, b.HasDefault = "", false
		}
		if d.Units != nil {
			b.Units = ""
		}
	}
	if d.Mandatory != nil {
		n.Flags.Mandatory, n.Flags.HasMandatory = false, false
	}
}

// CheckNotSupportedKeys enforces "deviate not-supported cannot remove a
// list key leaf" (spec.md §3).
func CheckNotSupportedKeys(target *schema.Node) error {
	parent := target.Parent
	if parent == nil || parent.NType != schema.List {
		return nil
	}
	lb := parent.Body.(*schema.ListBody)
	for _, k := range lb.Keys {
		if k == target {
			return yerr.NewNotSupportedRemovesKey(nil, target.Name)
		}
	}
	return nil
}

// InheritNACM OR-combines NACM flags down the data tree, skipping into
// grouping bodies (which are never instantiated directly) per spec.md
// §4.5.
func InheritNACM(root *schema.Node) {
	var walk func(n *schema.Node, inherited schema.NACMFlags)
	walk = func(n *schema.Node, inherited schema.NACMFlags) {
		if n.NType == schema.Grouping {
			return
		}
		eff := n.NACM | inherited
		n.NACM = eff
		for c := n.FirstChild; c != nil; c = c.Next {
			walk(c, eff)
		}
	}
	walk(root, 0)
}
