// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"testing"

	"github.com/danos/yangschema/schema"
)

func TestDeepCopyReassignsModuleAndIsIndependent(t *testing.T) {
	src := schema.NewModule("src")
	dst := schema.NewModule("dst")

	orig := &schema.Node{Name: "leaf1", NType: schema.Leaf, Module: src, Body: &schema.LeafBody{Default: "1", HasDefault: true}}
	child := &schema.Node{Name: "inner", NType: schema.Leaf, Module: src, Body: &schema.LeafBody{}}
	orig.AppendChild(child)

	cp := DeepCopy(orig, dst)

	if cp.Module != dst {
		t.Errorf("copy's Module = %v, want dst", cp.Module)
	}
	if cp == orig || cp.FirstChild == child {
		t.Error("DeepCopy must not alias the original nodes")
	}
	if cp.FirstChild.Name != "inner" {
		t.Errorf("copy's child name = %q, want inner", cp.FirstChild.Name)
	}

	cp.Body.(*schema.LeafBody).Default = "2"
	if orig.Body.(*schema.LeafBody).Default != "1" {
		t.Error("mutating the copy's body mutated the original's body")
	}
}

func TestGroupingReadyFalseWithDescendantUses(t *testing.T) {
	g := &schema.Node{Name: "g", NType: schema.Grouping}
	container := &schema.Node{Name: "c", NType: schema.Container, Body: &schema.ContainerBody{}}
	uses := &schema.Node{Name: "other", NType: schema.Uses}
	container.AppendChild(uses)
	g.AppendChild(container)

	if GroupingReady(g) {
		t.Error("GroupingReady should be false while a descendant uses remains unexpanded")
	}
}

func TestGroupingReadyTrueWithoutUses(t *testing.T) {
	g := &schema.Node{Name: "g", NType: schema.Grouping}
	leaf := &schema.Node{Name: "x", NType: schema.Leaf, Body: &schema.LeafBody{}}
	g.AppendChild(leaf)

	if !GroupingReady(g) {
		t.Error("GroupingReady should be true once no descendant uses remains")
	}
}

func TestExpandUsesSplicesCopiesInPlace(t *testing.T) {
	m := schema.NewModule("m")
	grouping := &schema.Node{Name: "g", NType: schema.Grouping, Module: m}
	leafA := &schema.Node{Name: "a", NType: schema.Leaf, Module: m, Body: &schema.LeafBody{}}
	leafB := &schema.Node{Name: "b", NType: schema.Leaf, Module: m, Body: &schema.LeafBody{}}
	grouping.AppendChild(leafA)
	grouping.AppendChild(leafB)

	parent := &schema.Node{Name: "parent", NType: schema.Container, Module: m, Body: &schema.ContainerBody{}}
	before := &schema.Node{Name: "before", NType: schema.Leaf, Module: m, Body: &schema.LeafBody{}}
	uses := &schema.Node{Name: "g", NType: schema.Uses, Module: m, Body: &schema.UsesBody{}}
	after := &schema.Node{Name: "after", NType: schema.Leaf, Module: m, Body: &schema.LeafBody{}}
	parent.AppendChild(before)
	parent.AppendChild(uses)
	parent.AppendChild(after)

	if err := ExpandUses(uses, grouping, nil); err != nil {
		t.Fatalf("ExpandUses returned error: %v", err)
	}

	got := parent.Children()
	want := []string{"before", "a", "b", "after"}
	if len(got) != len(want) {
		t.Fatalf("children after expansion = %v, want %v", namesOf(got), want)
	}
	for i, w := range want {
		if got[i].Name != w {
			t.Errorf("children[%d] = %q, want %q", i, got[i].Name, w)
		}
	}
	if got := parent.LastChild(); got.Name != "after" {
		t.Errorf("LastChild = %q, want after", got.Name)
	}
}

func TestExpandUsesAppliesRefines(t *testing.T) {
	m := schema.NewModule("m")
	grouping := &schema.Node{Name: "g", NType: schema.Grouping, Module: m}
	leaf := &schema.Node{Name: "x", NType: schema.Leaf, Module: m, Flags: schema.Flags{Mandatory: true}, Body: &schema.LeafBody{}}
	grouping.AppendChild(leaf)

	parent := &schema.Node{Name: "parent", NType: schema.Container, Module: m, Body: &schema.ContainerBody{}}
	uses := &schema.Node{Name: "g", NType: schema.Uses, Module: m, Body: &schema.UsesBody{}}
	parent.AppendChild(uses)

	refines := []*schema.Refine{{TargetPath: "x", HasMandatory: true, Mandatory: false, Description: "refined"}}
	if err := ExpandUses(uses, grouping, refines); err != nil {
		t.Fatalf("ExpandUses returned error: %v", err)
	}

	got := parent.LookupChild(schema.Leaf, "x")
	if got == nil {
		t.Fatal("expanded leaf x not found")
	}
	if got.Flags.Mandatory {
		t.Error("refine should have cleared mandatory")
	}
	if got.Description != "refined" {
		t.Errorf("Description = %q, want refined", got.Description)
	}
}

func TestApplyAugmentReparentsAndWrapsWhen(t *testing.T) {
	m := schema.NewModule("m")
	target := &schema.Node{Name: "target", NType: schema.Container, Module: m, Body: &schema.ContainerBody{}}
	aug := &schema.Node{Name: "/target", NType: schema.Augment, Module: m, Body: &schema.AugmentBody{When: &schema.When{XPath: "foo"}}}
	leaf := &schema.Node{Name: "x", NType: schema.Leaf, Module: m, Body: &schema.LeafBody{}}
	aug.AppendChild(leaf)

	if err := ApplyAugment(aug, target); err != nil {
		t.Fatalf("ApplyAugment returned error: %v", err)
	}

	got := target.LookupChild(schema.Leaf, "x")
	if got == nil {
		t.Fatal("augmented leaf not reparented onto target")
	}
	if got.Parent != target {
		t.Error("augmented leaf's Parent not updated")
	}
	lb := got.Body.(*schema.LeafBody)
	if lb.When == nil || lb.When.XPath != "foo" {
		t.Error("augmented leaf should inherit the augment's when condition")
	}
	if aug.FirstChild != nil {
		t.Error("augment node should have no children left after ApplyAugment")
	}
}

func TestApplyDeviateAddThenSwitchDeviationsRestores(t *testing.T) {
	target := &schema.Node{Name: "x", NType: schema.Leaf, Body: &schema.LeafBody{}}
	newDefault := "5"
	d := &schema.DeviateStmt{Kind: schema.DeviateAdd, Default: &newDefault}

	xf, err := ApplyDeviate(target, d)
	if err != nil {
		t.Fatalf("ApplyDeviate returned error: %v", err)
	}
	if got := target.Body.(*schema.LeafBody).Default; got != "5" {
		t.Errorf("Default after ApplyDeviate = %q, want 5", got)
	}
	if !xf.Applied {
		t.Error("Applied should be true immediately after ApplyDeviate")
	}

	if err := SwitchDeviations(xf); err != nil {
		t.Fatalf("SwitchDeviations returned error: %v", err)
	}
	if xf.Applied {
		t.Error("Applied should be false after toggling off")
	}
	if got, want := target.Body.(*schema.LeafBody).HasDefault, false; got != want {
		t.Errorf("HasDefault after switching off = %v, want %v", got, want)
	}

	if err := SwitchDeviations(xf); err != nil {
		t.Fatalf("second SwitchDeviations returned error: %v", err)
	}
	if !xf.Applied {
		t.Error("Applied should be true after toggling back on")
	}
	if got := target.Body.(*schema.LeafBody).Default; got != "5" {
		t.Errorf("Default after re-applying = %q, want 5", got)
	}
}

func TestApplyDeviateNotSupportedDetachesAndSwitchDeviationsRestoresPosition(t *testing.T) {
	parent := &schema.Node{Name: "parent", NType: schema.Container, Body: &schema.ContainerBody{}}
	before := &schema.Node{Name: "before", NType: schema.Leaf, Body: &schema.LeafBody{}}
	target := &schema.Node{Name: "x", NType: schema.Leaf, Body: &schema.LeafBody{}}
	after := &schema.Node{Name: "after", NType: schema.Leaf, Body: &schema.LeafBody{}}
	parent.AppendChild(before)
	parent.AppendChild(target)
	parent.AppendChild(after)

	xf, err := ApplyDeviate(target, &schema.DeviateStmt{Kind: schema.DeviateNotSupported})
	if err != nil {
		t.Fatalf("ApplyDeviate returned error: %v", err)
	}
	if !xf.Applied {
		t.Error("Applied should be true immediately after a not-supported deviate")
	}
	if got := parent.LookupChild(schema.Leaf, "x"); got != nil {
		t.Fatal("target should be detached from parent after ApplyDeviate")
	}
	if got := namesOf(parent.Children()); len(got) != 2 || got[0] != "before" || got[1] != "after" {
		t.Fatalf("parent children after detach = %v, want [before after]", got)
	}

	if err := SwitchDeviations(xf); err != nil {
		t.Fatalf("SwitchDeviations returned error: %v", err)
	}
	if xf.Applied {
		t.Error("Applied should be false after switching the not-supported deviation off")
	}
	if got := namesOf(parent.Children()); len(got) != 3 || got[0] != "before" || got[1] != "x" || got[2] != "after" {
		t.Fatalf("parent children after restore = %v, want [before x after] (original position)", got)
	}

	if err := SwitchDeviations(xf); err != nil {
		t.Fatalf("second SwitchDeviations returned error: %v", err)
	}
	if !xf.Applied {
		t.Error("Applied should be true after toggling back on")
	}
	if got := namesOf(parent.Children()); len(got) != 2 || got[0] != "before" || got[1] != "after" {
		t.Fatalf("parent children after re-detach = %v, want [before after]", got)
	}
}

func TestApplyDeviateNotSupportedOnFirstChildRestoresAsFirst(t *testing.T) {
	parent := &schema.Node{Name: "parent", NType: schema.Container, Body: &schema.ContainerBody{}}
	target := &schema.Node{Name: "x", NType: schema.Leaf, Body: &schema.LeafBody{}}
	after := &schema.Node{Name: "after", NType: schema.Leaf, Body: &schema.LeafBody{}}
	parent.AppendChild(target)
	parent.AppendChild(after)

	xf, err := ApplyDeviate(target, &schema.DeviateStmt{Kind: schema.DeviateNotSupported})
	if err != nil {
		t.Fatalf("ApplyDeviate returned error: %v", err)
	}
	if err := SwitchDeviations(xf); err != nil {
		t.Fatalf("SwitchDeviations: %v", err)
	}
	if got := namesOf(parent.Children()); len(got) != 2 || got[0] != "x" || got[1] != "after" {
		t.Fatalf("parent children after restore = %v, want [x after]", got)
	}
}

func TestCheckNotSupportedKeysRejectsKeyLeaf(t *testing.T) {
	list := &schema.Node{Name: "l", NType: schema.List}
	key := &schema.Node{Name: "id", NType: schema.Leaf, Parent: list, Body: &schema.LeafBody{}}
	list.Body = &schema.ListBody{Keys: []*schema.Node{key}}

	if err := CheckNotSupportedKeys(key); err == nil {
		t.Error("expected error deviating not-supported on a list key leaf")
	}
}

func TestCheckNotSupportedKeysAllowsNonKeyLeaf(t *testing.T) {
	list := &schema.Node{Name: "l", NType: schema.List}
	key := &schema.Node{Name: "id", NType: schema.Leaf, Parent: list, Body: &schema.LeafBody{}}
	other := &schema.Node{Name: "other", NType: schema.Leaf, Parent: list, Body: &schema.LeafBody{}}
	list.Body = &schema.ListBody{Keys: []*schema.Node{key}}

	if err := CheckNotSupportedKeys(other); err != nil {
		t.Errorf("unexpected error for a non-key leaf: %v", err)
	}
}

func TestInheritNACMOrCombinesDownwardSkippingGroupings(t *testing.T) {
	root := &schema.Node{Name: "root", NACM: schema.NACMDefaultDenyWrite}
	grouping := &schema.Node{Name: "g", NType: schema.Grouping}
	groupingLeaf := &schema.Node{Name: "gl", NType: schema.Leaf, Body: &schema.LeafBody{}}
	grouping.AppendChild(groupingLeaf)
	plainChild := &schema.Node{Name: "c", NType: schema.Container, Body: &schema.ContainerBody{}, NACM: schema.NACMDefaultDenyAll}
	root.AppendChild(grouping)
	root.AppendChild(plainChild)

	InheritNACM(root)

	if plainChild.NACM&schema.NACMDefaultDenyWrite == 0 {
		t.Error("plain child should inherit root's NACMDefaultDenyWrite")
	}
	if plainChild.NACM&schema.NACMDefaultDenyAll == 0 {
		t.Error("plain child should keep its own NACMDefaultDenyAll")
	}
	if groupingLeaf.NACM != 0 {
		t.Error("InheritNACM must not descend into a grouping's body")
	}
}

func namesOf(ns []*schema.Node) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Name
	}
	return out
}
