// Copyright (c) 2017-2021, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"testing"

	"github.com/danos/yangschema/dict"
)

func TestNewModuleInitialisesMaps(t *testing.T) {
	m := NewModule("foo")
	if m.Identities == nil || m.Features == nil || m.Typedefs == nil {
		t.Fatal("NewModule left a map field nil")
	}
	if m.Name != "foo" {
		t.Errorf("Name = %q, want foo", m.Name)
	}
}

func TestRevisionReturnsFirstEntry(t *testing.T) {
	m := NewModule("foo")
	if got := m.Revision(); got != "" {
		t.Errorf("Revision of a module with no revisions = %q, want empty", got)
	}
	m.Revisions = []*Revision{{Date: "2021-06-01"}, {Date: "2020-01-01"}}
	if got, want := m.Revision(), "2021-06-01"; got != want {
		t.Errorf("Revision = %q, want %q", got, want)
	}
}

func TestAddChildAndChildren(t *testing.T) {
	m := NewModule("foo")
	a := &Node{Name: "a"}
	b := &Node{Name: "b"}
	m.AddChild(a)
	m.AddChild(b)

	got := m.Children()
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "b" {
		t.Fatalf("Children = %v, want [a b]", namesOf(got))
	}
}

func TestModuleLookupChild(t *testing.T) {
	m := NewModule("foo")
	m.AddChild(&Node{Name: "a", NType: Leaf})
	m.AddChild(&Node{Name: "b", NType: Container})

	if got := m.LookupChild(Leaf, "a"); got == nil {
		t.Error("LookupChild(Leaf, a) not found")
	}
	if got := m.LookupChild(Container, "a"); got != nil {
		t.Error("LookupChild should match on both type and name")
	}
	if got := m.LookupChild(Leaf, "missing"); got != nil {
		t.Errorf("LookupChild(Leaf, missing) = %v, want nil", got)
	}
}

func TestLookupImport(t *testing.T) {
	m := NewModule("foo")
	m.Imports = []*Import{{Name: "bar", Prefix: "b"}}

	if got := m.LookupImport("b"); got == nil || got.Name != "bar" {
		t.Errorf("LookupImport(b) = %v, want import bar", got)
	}
	if got := m.LookupImport("nope"); got != nil {
		t.Errorf("LookupImport(nope) = %v, want nil", got)
	}
}

func TestDestroyReleasesOnlyOwnedNodes(t *testing.T) {
	d := dict.New()
	owner := NewModule("owner")
	other := NewModule("other")

	h1 := d.InsertCopy("mine")
	h2 := d.InsertCopy("theirs")

	ownNode := &Node{Name: "a", Module: owner}
	ownNode.Own(h1)

	foreignNode := &Node{Name: "b", Module: other}
	foreignNode.Own(h2)

	owner.AddChild(ownNode)
	owner.AddChild(foreignNode) // e.g. contributed via an include attach

	owner.Destroy(d)

	if got := d.Refcount(h1); got != 0 {
		t.Errorf("owned handle refcount = %d after Destroy, want 0", got)
	}
	if got := d.Refcount(h2); got != 1 {
		t.Errorf("foreign-owned handle refcount = %d after owner's Destroy, want unchanged 1", got)
	}
}

func TestDeviateKindString(t *testing.T) {
	cases := map[DeviateKind]string{
		DeviateNotSupported: "not-supported",
		DeviateAdd:          "add",
		DeviateReplace:      "replace",
		DeviateDelete:       "delete",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("DeviateKind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
