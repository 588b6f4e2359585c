// Copyright (c) 2017-2021, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"fmt"

	"github.com/danos/yangschema/yerr"
)

// CheckSiblingUniqueness enforces "no duplicate identifiers in a given
// scope" (spec.md §3) for one level of instantiated data siblings. Choice
// and its cases are transparent: a case's children share the choice's
// sibling scope, matching RFC 7950 §7.9.
func CheckSiblingUniqueness(parent *Node, path []string) error {
	seen := make(map[string]*Node)
	var walk func(n *Node) error
	walk = func(n *Node) error {
		for c := n.FirstChild; c != nil; c = c.Next {
			if c.NType == Choice {
				for _, cs := range c.ChildrenByType(Case) {
					if err := walk(cs); err != nil {
						return err
					}
				}
				continue
			}
			if !c.NType.IsDataNode() {
				continue
			}
			if prior, ok := seen[c.Name]; ok && prior != c {
				return yerr.NewDuplicateIdentifier(path, "data node", c.Name)
			}
			seen[c.Name] = c
		}
		return nil
	}
	if parent == nil {
		return nil
	}
	return walk(parent)
}

// BitsOrdered checks "bit positions are sorted ascending" (spec.md §3).
func BitsOrdered(bits []*Bit) error {
	for i := 1; i < len(bits); i++ {
		if bits[i-1].Position >= bits[i].Position {
			return yerr.New(yerr.Internal, nil,
				"bit %q position %d does not exceed preceding bit %q position %d",
				bits[i].Name, bits[i].Position, bits[i-1].Name, bits[i-1].Position)
		}
	}
	return nil
}

// EnumValuesUnique checks "enum values are unique" (spec.md §3).
func EnumValuesUnique(enums []*Enum) error {
	seen := make(map[int32]string)
	for _, e := range enums {
		if prior, ok := seen[e.Value]; ok {
			return yerr.New(yerr.Internal, nil,
				"enum %q duplicates value %d already used by %q", e.Name, e.Value, prior)
		}
		seen[e.Value] = e.Name
	}
	return nil
}

// LeafrefAcyclic walks leaf.Type().Leafref.Target while the target is
// itself a leafref, failing with CircularLeafref on revisit (spec.md
// §4.4, Testable Property 5). maxSteps bounds the walk at the number of
// leaves in the repository, per the testable property's statement.
func LeafrefAcyclic(leaf *Node, maxSteps int) error {
	lb, ok := leaf.Body.(*LeafBody)
	if !ok {
		return nil
	}
	visited := map[*Node]bool{leaf: true}
	chain := []string{}
	cur := lb.Type
	steps := 0
	for cur != nil && cur.Base == TLeafref {
		steps++
		if steps > maxSteps {
			return yerr.NewCircularLeafref(nil, chain)
		}
		target := cur.Leafref.Target
		if target == nil {
			return nil // not yet resolved; caller's problem, not a cycle
		}
		if visited[target] {
			chain = append(chain, fmt.Sprintf("%p", target))
			return yerr.NewCircularLeafref(nil, chain)
		}
		visited[target] = true
		tb, ok := target.Body.(*LeafBody)
		if !ok {
			return nil
		}
		cur = tb.Type
	}
	return nil
}

// IsMandatory reports whether n is a mandatory data node, per spec.md
// §4.5's isMandatory rule: leaf/choice consult their own mandatory flag;
// list/leaf-list are mandatory iff min-elements > 0; a container is
// mandatory iff it has no presence and at least one mandatory descendant.
func IsMandatory(n *Node) bool {
	switch n.NType {
	case Leaf, Choice:
		return n.Flags.Mandatory
	case LeafList:
		return n.Body.(*LeafListBody).Min > 0
	case List:
		return n.Body.(*ListBody).Min > 0
	case Container:
		cb := n.Body.(*ContainerBody)
		if cb.Presence {
			return false
		}
		for c := n.FirstChild; c != nil; c = c.Next {
			if IsMandatory(c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CheckMandatoryNoDefault enforces "a leaf/choice with mandatory=true has
// no default" (spec.md §3).
func CheckMandatoryNoDefault(n *Node, name string, path []string) error {
	switch b := n.Body.(type) {
	case *LeafBody:
		if n.Flags.Mandatory && b.HasDefault {
			return yerr.NewMandatoryWithDefault(path, name)
		}
	case *ChoiceBody:
		if n.Flags.Mandatory && b.DefaultRaw != "" {
			return yerr.NewMandatoryWithDefault(path, name)
		}
	}
	return nil
}

// CheckConfigNesting enforces "config=true descendants of a config=false
// ancestor are forbidden" (spec.md §3).
func CheckConfigNesting(n *Node, path []string) error {
	var walk func(n *Node, ancestorFalse bool) error
	walk = func(n *Node, ancestorFalse bool) error {
		cfg := n.Flags.Config
		effFalse := ancestorFalse
		switch cfg {
		case ConfigFalse:
			effFalse = true
		case ConfigTrue:
			if ancestorFalse {
				return yerr.New(yerr.Internal, path,
					"config true node nested under a config false ancestor")
			}
			effFalse = false
		}
		for c := n.FirstChild; c != nil; c = c.Next {
			if err := walk(c, effFalse); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(n, false)
}
