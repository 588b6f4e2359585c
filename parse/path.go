// Copyright (c) 2017-2021, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package parse

import (
	"fmt"
	"strings"

	"github.com/danos/yangschema/schema"
)

// Full XPath evaluation is explicitly out of scope (spec.md §1); what the
// resolver needs from a `path`, `augment` target, `deviation` target, `key`
// or `unique` string is only the schema-node-identifying skeleton: a
// sequence of ".." (parent) and name (child) axis steps, each optionally
// prefixed, with any `[predicate]` ignored because predicates never
// change which schema node a step denotes. This lets the loader satisfy
// the leafref/augment/deviation/key/unique invariants of spec.md §3
// without building a general expression evaluator.

type pathStep struct {
	up     bool
	prefix string
	name   string
}

// splitPathSteps splits raw on '/' while respecting '[...]' nesting, and
// classifies each segment as an up-step or a (possibly prefixed) name
// step. An absolute path (leading '/') is reported via absolute=true.
func splitPathSteps(raw string) (steps []pathStep, absolute bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false, fmt.Errorf("empty path")
	}
	if raw[0] == '/' {
		absolute = true
		raw = raw[1:]
	}
	depth := 0
	start := 0
	flush := func(seg string) error {
		seg = strings.TrimSpace(stripPredicate(seg))
		if seg == "" {
			return fmt.Errorf("empty path step in %q", raw)
		}
		if seg == ".." {
			steps = append(steps, pathStep{up: true})
			return nil
		}
		prefix, name, err := splitPrefixed(seg)
		if err != nil {
			return err
		}
		steps = append(steps, pathStep{prefix: prefix, name: name})
		return nil
	}
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, false, fmt.Errorf("unbalanced ']' in path %q", raw)
			}
		case '/':
			if depth == 0 {
				if err := flush(raw[start:i]); err != nil {
					return nil, false, err
				}
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, false, fmt.Errorf("unbalanced '[' in path %q", raw)
	}
	if err := flush(raw[start:]); err != nil {
		return nil, false, err
	}
	return steps, absolute, nil
}

// stripPredicate removes a trailing "[...]" from a single path segment,
// e.g. "name[key='x']" -> "name".
func stripPredicate(seg string) string {
	if i := strings.IndexByte(seg, '['); i >= 0 {
		return seg[:i]
	}
	return seg
}

func splitPrefixed(tok string) (prefix, name string, err error) {
	if i := strings.IndexByte(tok, ':'); i >= 0 {
		return tok[:i], tok[i+1:], validateIdentifier(tok[i+1:])
	}
	return "", tok, validateIdentifier(tok)
}

func validateIdentifier(s string) error {
	if s == "" {
		return fmt.Errorf("empty identifier")
	}
	for i, r := range s {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' ||
			(i > 0 && ((r >= '0' && r <= '9') || r == '-' || r == '.'))
		if !ok {
			return fmt.Errorf("invalid identifier %q", s)
		}
	}
	return nil
}

// moduleResolver resolves a path step's prefix to a module, "" meaning
// the step's own enclosing module.
type moduleResolver func(prefix string) (*schema.Module, bool)

// errNotYet distinguishes "not resolvable yet" (soft, e.g. the target
// module hasn't been parsed yet) from a genuine syntactic/semantic error
// (hard).
type errNotYet struct{ detail string }

func (e *errNotYet) Error() string { return e.detail }

func notYet(format string, args ...interface{}) error {
	return &errNotYet{detail: fmt.Sprintf(format, args...)}
}

func isNotYet(err error) bool {
	_, ok := err.(*errNotYet)
	return ok
}

// resolveRelativePath resolves a leafref's (always relative, per common
// usage; absolute leafref paths are handled via resolveAbsolutePath)
// series of ".." / name steps starting from the sibling scope of from.
func resolveRelativePath(from *schema.Node, steps []pathStep, mr moduleResolver) (*schema.Node, error) {
	cur := from
	i := 0
	for ; i < len(steps) && steps[i].up; i++ {
		if cur == nil {
			return nil, fmt.Errorf("path ascends above the module root")
		}
		cur = cur.Parent
	}
	if cur == nil {
		// Ascended all the way to the module's top-level data, which
		// Node.Parent represents as nil rather than a sentinel node.
		return descend(nil, from.Module, steps[i:], mr)
	}
	return descend(cur, nil, steps[i:], mr)
}

// resolveAbsolutePath resolves a path rooted at a module's top-level data.
func resolveAbsolutePath(localModule *schema.Module, steps []pathStep, mr moduleResolver) (*schema.Node, error) {
	return descend(nil, localModule, steps, mr)
}

// descend walks steps from either a schema.Node (cur != nil) or a
// module's top level (mod != nil, first step only).
func descend(cur *schema.Node, mod *schema.Module, steps []pathStep, mr moduleResolver) (*schema.Node, error) {
	for idx, st := range steps {
		if st.up {
			return nil, fmt.Errorf("unexpected '..' step mid-path")
		}
		target, ok := mr(st.prefix)
		if !ok {
			return nil, notYet("module for prefix %q not yet resolved", st.prefix)
		}
		var candidates []*schema.Node
		if cur == nil {
			candidates = childrenOf(mod, target)
		} else {
			candidates = cur.Children()
		}
		var next *schema.Node
		for _, c := range candidates {
			if nodeNameMatches(c, st.name, target) {
				next = c
				break
			}
		}
		if next == nil {
			if idx == len(steps)-1 {
				return nil, notYet("node %q not found (yet)", st.name)
			}
			return nil, notYet("intermediate node %q not found (yet)", st.name)
		}
		cur = next
		mod = nil
	}
	if cur == nil {
		return nil, fmt.Errorf("empty path")
	}
	return cur, nil
}

func childrenOf(localModule *schema.Module, target *schema.Module) []*schema.Node {
	m := target
	if m == nil {
		m = localModule
	}
	return m.Children()
}

func nodeNameMatches(c *schema.Node, name string, expectedModule *schema.Module) bool {
	return c.Name == name
}
