// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package parse

import (
	"errors"

	"github.com/danos/yangschema/schema"
)

var errNoShadow = errors.New("cannot shadow")

// tscope is the typedef symbol table: one per lexical nesting level that
// may carry `typedef` statements (module, grouping, container, list, rpc,
// input, output, notification), chained to its enclosing scope. No
// shadowing is allowed, matching the teacher's TEnv (parse/symtab.go).
type tscope struct {
	prev *tscope
	syms map[string]*schema.Typedef
}

func newTScope(p *tscope) *tscope {
	return &tscope{prev: p, syms: make(map[string]*schema.Typedef)}
}

func (s *tscope) get(name string) (*schema.Typedef, bool) {
	if s == nil {
		return nil, false
	}
	if t, ok := s.syms[name]; ok {
		return t, true
	}
	return s.prev.get(name)
}

func (s *tscope) put(name string, t *schema.Typedef) error {
	if _, ok := s.get(name); ok {
		return errNoShadow
	}
	s.syms[name] = t
	return nil
}

// gscope is the grouping symbol table, same shape as tscope (teacher's
// GEnv).
type gscope struct {
	prev *gscope
	syms map[string]*schema.Node
}

func newGScope(p *gscope) *gscope {
	return &gscope{prev: p, syms: make(map[string]*schema.Node)}
}

func (s *gscope) get(name string) (*schema.Node, bool) {
	if s == nil {
		return nil, false
	}
	if n, ok := s.syms[name]; ok {
		return n, true
	}
	return s.prev.get(name)
}

func (s *gscope) put(name string, n *schema.Node) error {
	if _, ok := s.get(name); ok {
		return errNoShadow
	}
	s.syms[name] = n
	return nil
}
