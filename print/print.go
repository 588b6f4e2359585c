// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package print renders a resolved schema.Module back out: as an outline
// in YANG source text (see YANG for what it leaves out) and as a
// pyang-style indented tree, plus a structural Dump for debugging.
package print

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kylelemons/godebug/pretty"

	"github.com/danos/yangschema/schema"
)

// YANG writes m back out as YANG source text: the module header
// (namespace and prefix, or belongs-to and prefix), imports with their
// prefix, includes, revision dates, feature names, and the data tree with
// each node's keyword and name, each leaf's and leaf-list's type name and
// each list's key. Type restrictions, defaults, config, mandatory,
// must/when, descriptions, typedefs, identities, if-features, deviations
// and uses refines/augments are not printed, so re-parsing the output
// gives back only that outline of m. Whitespace, comments and statement
// ordering within a substatement group are not preserved either.
func YANG(w io.Writer, m *schema.Module) error {
	p := &yangPrinter{w: w}
	p.module(m)
	return p.err
}

type yangPrinter struct {
	w      io.Writer
	indent int
	err    error
}

func (p *yangPrinter) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, err := fmt.Fprintf(p.w, "%s"+format, append([]interface{}{strings.Repeat("  ", p.indent)}, args...)...)
	if err != nil {
		p.err = err
	}
}

func (p *yangPrinter) block(open string, body func()) {
	p.printf("%s {\n", open)
	p.indent++
	body()
	p.indent--
	p.printf("}\n")
}

func (p *yangPrinter) leafStmt(kw, arg string) {
	if arg == "" {
		return
	}
	p.printf("%s %q;\n", kw, arg)
}

func (p *yangPrinter) module(m *schema.Module) {
	kw := "module"
	if m.Kind == schema.KindSubmodule {
		kw = "submodule"
	}
	p.block(fmt.Sprintf("%s %s", kw, m.Name), func() {
		if m.Kind == schema.KindModule {
			p.leafStmt("namespace", m.Namespace)
			p.leafStmt("prefix", m.Prefix)
		} else {
			p.block(fmt.Sprintf("belongs-to %s", belongsToName(m)), func() {
				p.leafStmt("prefix", m.Prefix)
			})
		}
		for _, imp := range m.Imports {
			p.block(fmt.Sprintf("import %s", imp.Name), func() {
				p.leafStmt("prefix", imp.Prefix)
			})
		}
		for _, inc := range m.Includes {
			p.printf("include %s;\n", inc.Name)
		}
		for _, rev := range m.Revisions {
			p.printf("revision %s;\n", rev.Date)
		}
		for _, name := range sortedFeatureNames(m) {
			p.printf("feature %s;\n", name)
		}
		for c := m.Data; c != nil; c = c.Next {
			p.node(c)
		}
	})
}

func belongsToName(m *schema.Module) string {
	if m.BelongsTo == nil {
		return ""
	}
	return m.BelongsTo.Name
}

func sortedFeatureNames(m *schema.Module) []string {
	out := make([]string, 0, len(m.Features))
	for name := range m.Features {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (p *yangPrinter) node(n *schema.Node) {
	switch n.NType {
	case schema.Container:
		p.block(fmt.Sprintf("container %s", n.Name), func() { p.children(n) })
	case schema.List:
		lb := n.Body.(*schema.ListBody)
		p.block(fmt.Sprintf("list %s", n.Name), func() {
			if len(lb.KeyNames) > 0 {
				p.printf("key %q;\n", strings.Join(lb.KeyNames, " "))
			}
			p.children(n)
		})
	case schema.Leaf:
		lb := n.Body.(*schema.LeafBody)
		p.block(fmt.Sprintf("leaf %s", n.Name), func() {
			p.printf("type %s;\n", lb.Type.RawName)
		})
	case schema.LeafList:
		llb := n.Body.(*schema.LeafListBody)
		p.block(fmt.Sprintf("leaf-list %s", n.Name), func() {
			p.printf("type %s;\n", llb.Type.RawName)
		})
	case schema.Choice:
		p.block(fmt.Sprintf("choice %s", n.Name), func() { p.children(n) })
	case schema.Case:
		p.block(fmt.Sprintf("case %s", n.Name), func() { p.children(n) })
	case schema.AnyXML:
		p.printf("anyxml %s;\n", n.Name)
	case schema.Uses:
		p.printf("uses %s;\n", n.Name)
	case schema.Grouping:
		p.block(fmt.Sprintf("grouping %s", n.Name), func() { p.children(n) })
	case schema.Augment:
		p.block(fmt.Sprintf("augment %s", n.Name), func() { p.children(n) })
	case schema.RPC:
		p.block(fmt.Sprintf("rpc %s", n.Name), func() { p.children(n) })
	case schema.Input:
		p.block("input", func() { p.children(n) })
	case schema.Output:
		p.block("output", func() { p.children(n) })
	case schema.Notification:
		p.block(fmt.Sprintf("notification %s", n.Name), func() { p.children(n) })
	}
}

func (p *yangPrinter) children(n *schema.Node) {
	for c := n.FirstChild; c != nil; c = c.Next {
		p.node(c)
	}
}

// Tree renders m as a pyang-style indented tree of its data nodes: one
// line per node, "+--rw"/"+--ro" per its effective config state, nested
// two spaces per depth.
func Tree(w io.Writer, m *schema.Module) error {
	fmt.Fprintf(w, "module: %s\n", m.Name)
	var walk func(n *schema.Node, depth int) error
	walk = func(n *schema.Node, depth int) error {
		rw := "rw"
		if !n.EffectiveConfig() {
			rw = "ro"
		}
		_, err := fmt.Fprintf(w, "%s+--%s %s\n", strings.Repeat("  ", depth), rw, n.Name)
		if err != nil {
			return err
		}
		for c := n.FirstChild; c != nil; c = c.Next {
			if !c.NType.IsDataNode() {
				continue
			}
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for c := m.Data; c != nil; c = c.Next {
		if !c.NType.IsDataNode() {
			continue
		}
		if err := walk(c, 0); err != nil {
			return err
		}
	}
	return nil
}

// Dump pretty-prints an arbitrary resolved value (a *schema.Module, a
// *schema.Node, a diff target) for debugging, used by the yangc CLI's
// -debug flag and by tests comparing structural shape without a
// field-by-field cmp.Diff.
func Dump(v interface{}) string {
	return pretty.Sprint(v)
}

// Compare reports a human-readable diff between two values, or "" if
// they print identically.
func Compare(a, b interface{}) string {
	return pretty.Compare(a, b)
}
