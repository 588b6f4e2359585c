// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package parse

import (
	"strconv"
	"strings"

	"github.com/danos/yangschema/schema"
	"github.com/danos/yangschema/unres"
	"github.com/danos/yangschema/yerr"
)

func (b *Builder) buildTypedef(c *bctx, s *Stmt) (*schema.Typedef, error) {
	ts := s.ChildByKeyword("type")
	if ts == nil {
		return nil, yerr.NewMissingRequiredChild(c.path, "type")
	}
	dummy := &schema.Node{Module: c.mod}
	typ, err := b.buildType(c, ts, dummy)
	if err != nil {
		return nil, err
	}
	t := &schema.Typedef{
		Name:        s.Arg,
		Type:        typ,
		Units:       textOf(s, "units"),
		Description: textOf(s, "description"),
		Reference:   textOf(s, "reference"),
		Status:      parseStatus(s),
		Module:      c.mod,
	}
	if ds := s.ChildByKeyword("default"); ds != nil {
		t.Default, t.HasDefault = ds.Arg, true
	}
	b.enqueueTypedefResolution(c, ts, typ, dummy)
	return t, nil
}

// buildType constructs the Type value for one `type` statement. owner is
// the node that reference-resolution unres entries (leafref target,
// identityref base) are eventually attached to.
func (b *Builder) buildType(c *bctx, s *Stmt, owner *schema.Node) (*schema.Type, error) {
	prefix, name, err := splitPrefixed(s.Arg)
	if err != nil {
		return nil, yerr.New(yerr.Internal, c.path, "invalid type name %q: %v", s.Arg, err)
	}
	t := &schema.Type{RawName: s.Arg, ModuleName: prefix}

	if prefix == "" {
		if base, ok := schema.LookupBuiltin(name); ok {
			t.Base = base
			if err := applyRestrictions(c, s, t, owner); err != nil {
				return nil, err
			}
			return t, nil
		}
		if td, ok := c.tscope.get(name); ok {
			t.Base = td.Type.Base
			t.DerivedFrom = td
			if err := applyRestrictions(c, s, t, owner); err != nil {
				return nil, err
			}
			return t, nil
		}
	}
	// Either prefixed, or an unprefixed name not (yet) visible in the
	// lexical scope (for example a typedef whose type names a typedef
	// declared after it) -- deferred to a TypeDer entry for a leaf's type,
	// or a TypeDerTypedef entry for a typedef's own type.
	t.Unresolved = true
	return t, nil
}

func applyRestrictions(c *bctx, s *Stmt, t *schema.Type, owner *schema.Node) error {
	switch t.Base {
	case schema.TString, schema.TBinary:
		sr := &schema.StringRestr{}
		if ls := s.ChildByKeyword("length"); ls != nil {
			r, err := parseRange(ls, false)
			if err != nil {
				return err
			}
			sr.Length = r
		}
		for _, ps := range s.ChildrenByKeyword("pattern") {
			p := &schema.Pattern{Raw: ps.Arg}
			if mod := ps.ChildByKeyword("modifier"); mod != nil && mod.Arg == "invert-match" {
				p.Inverted = true
			}
			sr.Patterns = append(sr.Patterns, p)
		}
		t.StringRestr = sr
	case schema.TEnum:
		prev := int32(-1)
		for _, es := range s.ChildrenByKeyword("enum") {
			e := &schema.Enum{Name: es.Arg, Status: parseStatus(es)}
			if vs := es.ChildByKeyword("value"); vs != nil {
				v, err := strconv.ParseInt(vs.Arg, 10, 64)
				if err != nil || v < -2147483648 || v > 2147483647 {
					return yerr.NewEnumValueOverflow(c.path, v)
				}
				e.Value = int32(v)
			} else {
				if prev == 2147483647 {
					return yerr.NewEnumValueOverflow(c.path, int64(prev)+1)
				}
				e.Value = prev + 1
				e.AutoAssigned = true
			}
			prev = e.Value
			t.Enums = append(t.Enums, e)
		}
		if err := schema.EnumValuesUnique(t.Enums); err != nil {
			return err
		}
	case schema.TBits:
		prev := int64(-1)
		for _, bs := range s.ChildrenByKeyword("bit") {
			bit := &schema.Bit{Name: bs.Arg, Status: parseStatus(bs)}
			if ps := bs.ChildByKeyword("position"); ps != nil {
				v, err := strconv.ParseUint(ps.Arg, 10, 64)
				if err != nil || v > 4294967295 {
					return yerr.NewBitPositionOverflow(c.path, v)
				}
				bit.Position = uint32(v)
			} else {
				bit.Position = uint32(prev + 1)
				bit.AutoAssigned = true
			}
			prev = int64(bit.Position)
			t.Bits = append(t.Bits, bit)
		}
		if err := schema.BitsOrdered(t.Bits); err != nil {
			return err
		}
	case schema.TDec64:
		dr := &schema.Dec64Restr{}
		ds := s.ChildByKeyword("fraction-digits")
		if ds == nil {
			return yerr.NewMissingRequiredChild(c.path, "fraction-digits")
		}
		digits, err := strconv.Atoi(ds.Arg)
		if err != nil || digits < 1 || digits > 18 {
			return yerr.NewInvalidRange(c.path, "fraction-digits must be 1..18")
		}
		dr.Digits = digits
		divisor := int64(1)
		for i := 0; i < digits; i++ {
			divisor *= 10
		}
		dr.Divisor = divisor
		if rs := s.ChildByKeyword("range"); rs != nil {
			r, err := parseRange(rs, true)
			if err != nil {
				return err
			}
			dr.Range = r
		}
		t.Dec64 = dr
	case schema.TLeafref:
		ps := s.ChildByKeyword("path")
		if ps == nil {
			return yerr.NewMissingRequiredChild(c.path, "path")
		}
		lr := &schema.LeafrefRestr{Path: ps.Arg}
		if ri := s.ChildByKeyword("require-instance"); ri != nil {
			lr.RequireInstance, lr.HasRequireInst = ri.Arg == "true", true
		}
		t.Leafref = lr
	case schema.TIdent:
		ir := &schema.IdentRestr{}
		for _, bs := range s.ChildrenByKeyword("base") {
			ir.BaseNames = append(ir.BaseNames, bs.Arg)
		}
		t.Ident = ir
	case schema.TUnion:
		for _, us := range s.ChildrenByKeyword("type") {
			mt, err := c.buildMemberType(us)
			if err != nil {
				return err
			}
			t.Union = append(t.Union, mt)
			if mt.Unresolved {
				c.b.enqueueTypeResolution(c, us, mt, owner)
			}
		}
	default:
		if t.Base.IsNumeric() {
			if rs := s.ChildByKeyword("range"); rs != nil {
				r, err := parseRange(rs, false)
				if err != nil {
					return err
				}
				t.NumRange = r
			}
		}
	}
	return nil
}

// buildMemberType is a restriction-aware recursive call used only for
// union members, where c is captured by closure over bctx's builder.
func (c *bctx) buildMemberType(s *Stmt) (*schema.Type, error) {
	dummy := &schema.Node{Module: c.mod}
	return c.b.buildType(c, s, dummy)
}

func parseRange(s *Stmt, decimal bool) (*schema.Range, error) {
	r := &schema.Range{
		ErrorMsg: textOf(s, "error-message"),
		ErrorTag: textOf(s, "error-app-tag"),
	}
	parts := strings.Split(s.Arg, "|")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		bounds := strings.SplitN(p, "..", 2)
		lo := strings.TrimSpace(bounds[0])
		hi := lo
		if len(bounds) == 2 {
			hi = strings.TrimSpace(bounds[1])
		}
		if decimal {
			loV, hiV, err := parseDecBound(lo, hi)
			if err != nil {
				return nil, yerr.NewInvalidRange(nil, err.Error())
			}
			r.Decimal = append(r.Decimal, schema.Drb{Min: loV, Max: hiV})
			continue
		}
		loI, err := strconv.ParseInt(lo, 10, 64)
		if err == nil {
			hiI := loI
			if hi != "max" {
				hiI, err = strconv.ParseInt(hi, 10, 64)
			}
			if err != nil {
				return nil, yerr.NewInvalidRange(nil, "bad range bound "+p)
			}
			r.Signed = append(r.Signed, schema.Rb{Min: loI, Max: hiI})
			continue
		}
		loU, err := strconv.ParseUint(lo, 10, 64)
		if err != nil {
			return nil, yerr.NewInvalidRange(nil, "bad range bound "+p)
		}
		hiU := loU
		if hi != "max" {
			hiU, err = strconv.ParseUint(hi, 10, 64)
			if err != nil {
				return nil, yerr.NewInvalidRange(nil, "bad range bound "+p)
			}
		}
		r.Unsigned = append(r.Unsigned, schema.Urb{Min: loU, Max: hiU})
	}
	return r, nil
}

func parseDecBound(lo, hi string) (float64, float64, error) {
	loV, err := strconv.ParseFloat(lo, 64)
	if err != nil {
		return 0, 0, err
	}
	if hi == "max" {
		return loV, loV, nil
	}
	hiV, err := strconv.ParseFloat(hi, 64)
	if err != nil {
		return 0, 0, err
	}
	return loV, hiV, nil
}

// enqueueTypeResolution settles a type reference that buildType left
// unbaked (prefixed typedef, or a not-yet-lexically-visible local
// typedef), re-running applyRestrictions once the Typedef is found.
func (b *Builder) enqueueTypeResolution(c *bctx, s *Stmt, t *schema.Type, owner *schema.Node) {
	if !t.Unresolved {
		b.enqueueLeafLikeFollowups(c, t, owner)
		return
	}
	path := c.path
	raw := t.RawName
	ref := &unres.Ref{Kind: unres.TypeDer, Path: path, Detail: raw,
		Resolve: func() (bool, error) {
			td, err := c.resolveTypedefRef(raw)
			if err != nil {
				if isNotYet(err) {
					return false, nil
				}
				return false, err
			}
			t.Base = td.Type.Base
			t.DerivedFrom = td
			t.Unresolved = false
			if err := applyRestrictions(c, s, t, owner); err != nil {
				return false, err
			}
			b.enqueueLeafLikeFollowups(c, t, owner)
			return true, nil
		}}
	b.res.Add(ref)
}

func (b *Builder) enqueueTypedefResolution(c *bctx, s *Stmt, t *schema.Type, owner *schema.Node) {
	if !t.Unresolved {
		return
	}
	raw := t.RawName
	ref := &unres.Ref{Kind: unres.TypeDerTypedef, Path: c.path, Detail: raw,
		Resolve: func() (bool, error) {
			td, err := c.resolveTypedefRef(raw)
			if err != nil {
				if isNotYet(err) {
					return false, nil
				}
				return false, err
			}
			t.Base = td.Type.Base
			t.DerivedFrom = td
			t.Unresolved = false
			if err := applyRestrictions(c, s, t, owner); err != nil {
				return false, err
			}
			return true, nil
		}}
	b.res.Add(ref)
}

// enqueueLeafLikeFollowups enqueues the secondary reference kinds that
// only make sense once t.Base is known: leafref path targets and
// identityref bases.
func (b *Builder) enqueueLeafLikeFollowups(c *bctx, t *schema.Type, owner *schema.Node) {
	switch t.Base {
	case schema.TLeafref:
		if t.Leafref != nil {
			b.enqueueLeafref(c, t.Leafref, owner)
		}
	case schema.TIdent:
		if t.Ident != nil {
			b.enqueueIdentBases(c, t.Ident)
		}
	case schema.TUnion:
		for _, mt := range t.Union {
			b.enqueueLeafLikeFollowups(c, mt, owner)
		}
	}
}

func (b *Builder) enqueueLeafref(c *bctx, lr *schema.LeafrefRestr, owner *schema.Node) {
	path := c.path
	mr := c.resolveModulePrefix
	ref := &unres.Ref{Kind: unres.TypeLeafref, Path: path, Detail: lr.Path,
		Resolve: func() (bool, error) {
			steps, absolute, err := splitPathSteps(lr.Path)
			if err != nil {
				return false, yerr.NewInvalidRange(path, err.Error())
			}
			var target *schema.Node
			if absolute {
				target, err = resolveAbsolutePath(c.mod, steps, mr)
			} else {
				target, err = resolveRelativePath(owner, steps, mr)
			}
			if err != nil {
				if isNotYet(err) {
					return false, nil
				}
				return false, err
			}
			lr.Target = target
			if tb, ok := target.Body.(*schema.LeafBody); ok {
				tb.LeafrefBackEdges[owner] = struct{}{}
			}
			return true, schema.LeafrefAcyclic(owner, 100000)
		}}
	b.res.Add(ref)
}

func (b *Builder) enqueueIdentBases(c *bctx, ir *schema.IdentRestr) {
	for _, raw := range ir.BaseNames {
		raw := raw
		ref := &unres.Ref{Kind: unres.TypeIdentref, Path: c.path, Detail: raw,
			Resolve: func() (bool, error) {
				_, id, err := c.resolveIdentityRef(raw)
				if err != nil {
					if isNotYet(err) {
						return false, nil
					}
					return false, err
				}
				ir.Bases = append(ir.Bases, id)
				return true, nil
			}}
		b.res.Add(ref)
	}
}

func (c *bctx) resolveTypedefRef(raw string) (*schema.Typedef, error) {
	prefix, name, err := splitPrefixed(raw)
	if err != nil {
		return nil, err
	}
	if prefix == "" || prefix == c.mod.Prefix {
		if td, ok := c.tscope.get(name); ok {
			return td, nil
		}
		if td, ok := c.mod.Typedefs[name]; ok {
			return td, nil
		}
		return nil, notYet("typedef %q not found (yet)", name)
	}
	imp, ok := c.prefixes[prefix]
	if !ok {
		return nil, yerr.NewUnknownPrefix(c.path, prefix)
	}
	if imp.Module == nil {
		return nil, notYet("module for prefix %q not yet resolved", prefix)
	}
	td, ok := imp.Module.Typedefs[name]
	if !ok {
		return nil, notYet("typedef %q not found (yet) in module %q", name, imp.Module.Name)
	}
	return td, nil
}
