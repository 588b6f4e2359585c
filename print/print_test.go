// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package print

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danos/yangschema/ctx"
	"github.com/danos/yangschema/schema"
)

func buildModule(t *testing.T, text string) *schema.Module {
	t.Helper()
	r := ctx.New(ctx.Config{})
	if err := r.ParseModule("foo", text); err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	m, ok := r.GetModule("foo", "")
	if !ok {
		t.Fatal("module not found after parse")
	}
	return m
}

func TestYANGRoundTripsThroughReparse(t *testing.T) {
	m := buildModule(t, `module foo {
		namespace "urn:foo";
		prefix f;
		container top {
			leaf x {
				type string;
			}
			list entries {
				key "id";
				leaf id {
					type string;
				}
			}
		}
	}`)

	var buf bytes.Buffer
	if err := YANG(&buf, m); err != nil {
		t.Fatalf("YANG: %v", err)
	}

	r2 := ctx.New(ctx.Config{})
	if err := r2.ParseModule("foo", buf.String()); err != nil {
		t.Fatalf("re-parsing printed output failed: %v\n--- output ---\n%s", err, buf.String())
	}
	m2, _ := r2.GetModule("foo", "")

	top := m2.LookupChild(schema.Container, "top")
	if top == nil {
		t.Fatal("container top missing from re-parsed module")
	}
	if top.LookupChild(schema.Leaf, "x") == nil {
		t.Error("leaf x missing from re-parsed module")
	}
	entries := top.LookupChild(schema.List, "entries")
	if entries == nil {
		t.Fatal("list entries missing from re-parsed module")
	}
	lb := entries.Body.(*schema.ListBody)
	if len(lb.KeyNames) != 1 || lb.KeyNames[0] != "id" {
		t.Errorf("re-parsed key = %v, want [id]", lb.KeyNames)
	}
}

func TestYANGIncludesNamespaceAndPrefix(t *testing.T) {
	m := buildModule(t, `module foo {
		namespace "urn:foo";
		prefix f;
	}`)
	var buf bytes.Buffer
	if err := YANG(&buf, m); err != nil {
		t.Fatalf("YANG: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `namespace "urn:foo"`) {
		t.Errorf("output missing namespace statement:\n%s", out)
	}
	if !strings.Contains(out, `prefix "f"`) {
		t.Errorf("output missing prefix statement:\n%s", out)
	}
}

func TestTreeMarksConfigFalseSubtreeAsReadOnly(t *testing.T) {
	m := buildModule(t, `module foo {
		namespace "urn:foo";
		prefix f;
		container top {
			config false;
			leaf x {
				type string;
			}
		}
	}`)
	var buf bytes.Buffer
	if err := Tree(&buf, m); err != nil {
		t.Fatalf("Tree: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "+--ro top") {
		t.Errorf("expected top to print as ro:\n%s", out)
	}
	if !strings.Contains(out, "+--ro x") {
		t.Errorf("expected x to inherit ro from its config-false parent:\n%s", out)
	}
}

func TestTreeSkipsNonDataNodes(t *testing.T) {
	m := buildModule(t, `module foo {
		namespace "urn:foo";
		prefix f;
		grouping g {
			leaf gleaf {
				type string;
			}
		}
		container top {
			uses g;
		}
	}`)
	var buf bytes.Buffer
	if err := Tree(&buf, m); err != nil {
		t.Fatalf("Tree: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "grouping") {
		t.Errorf("Tree should not mention groupings by keyword:\n%s", out)
	}
	if !strings.Contains(out, "gleaf") {
		t.Errorf("expected gleaf spliced in from uses expansion:\n%s", out)
	}
}

func TestDumpAndCompare(t *testing.T) {
	type point struct{ X, Y int }
	a := point{1, 2}
	b := point{1, 2}
	if diff := Compare(a, b); diff != "" {
		t.Errorf("Compare of equal values = %q, want empty", diff)
	}
	if d := Dump(a); d == "" {
		t.Error("Dump of a non-empty struct should not be empty")
	}
	c := point{1, 3}
	if diff := Compare(a, c); diff == "" {
		t.Error("Compare of differing values should report a non-empty diff")
	}
}
