// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package parse

import (
	"strings"

	"github.com/danos/yangschema/rewrite"
	"github.com/danos/yangschema/schema"
	"github.com/danos/yangschema/unres"
	"github.com/danos/yangschema/yerr"
)

// enqueueUses defers a `uses` statement until its named grouping exists
// and is itself fully expanded (spec.md §4.4: "Uses is deferred until its
// grouping is fully resolved"), at which point it hands off to
// rewrite.ExpandUses.
func (b *Builder) enqueueUses(c *bctx, n *schema.Node, ub *schema.UsesBody) {
	path := c.path
	ref := &unres.Ref{Kind: unres.Uses, Path: path, Detail: ub.GroupingRaw,
		Resolve: func() (bool, error) {
			g, err := c.resolveGroupingRef(ub.GroupingRaw)
			if err != nil {
				if isNotYet(err) {
					return false, nil
				}
				return false, err
			}
			if !rewrite.GroupingReady(g) {
				return false, nil
			}
			ub.Grouping = g
			if err := rewrite.ExpandUses(n, g, ub.Refines); err != nil {
				return false, err
			}
			for _, aug := range ub.Augments {
				b.enqueueAugmentAgainst(c, aug, n.Parent)
			}
			return true, nil
		}}
	b.res.Add(ref)
}

func (c *bctx) resolveGroupingRef(raw string) (*schema.Node, error) {
	prefix, name, err := splitPrefixed(raw)
	if err != nil {
		return nil, err
	}
	if prefix == "" || prefix == c.mod.Prefix {
		if g, ok := c.gscope.get(name); ok {
			return g, nil
		}
		return nil, notYet("grouping %q not found (yet)", name)
	}
	imp, ok := c.prefixes[prefix]
	if !ok {
		return nil, yerr.NewUnknownPrefix(c.path, prefix)
	}
	if imp.Module == nil {
		return nil, notYet("module for prefix %q not yet resolved", prefix)
	}
	for _, top := range imp.Module.Children() {
		if top.NType == schema.Grouping && top.Name == name {
			return top, nil
		}
	}
	return nil, notYet("grouping %q not found (yet) in module %q", name, imp.Module.Name)
}

// enqueueAugment resolves a top-level (module-scope) augment's target
// path absolutely from the local module's data tree.
func (b *Builder) enqueueAugment(c *bctx, n *schema.Node, ab *schema.AugmentBody) {
	mr := c.resolveModulePrefix
	mod := c.mod
	path := c.path
	ref := &unres.Ref{Kind: unres.Augment, Path: path, Detail: ab.TargetPathRaw,
		Resolve: func() (bool, error) {
			steps, _, err := splitPathSteps(ab.TargetPathRaw)
			if err != nil {
				return false, yerr.New(yerr.Internal, path, "invalid augment target: %v", err)
			}
			target, err := resolveAbsolutePath(mod, steps, mr)
			if err != nil {
				if isNotYet(err) {
					return false, nil
				}
				return false, err
			}
			ab.Target = target
			return true, rewrite.ApplyAugment(n, target)
		}}
	b.res.Add(ref)
}

// enqueueAugmentAgainst resolves an augment nested inside a `uses`
// statement, whose target path is relative to the node the grouping was
// used from (RFC 7950 §7.17: "the target node must be ... one of the
// nodes... defined in the grouping").
func (b *Builder) enqueueAugmentAgainst(c *bctx, n *schema.Node, anchor *schema.Node) {
	ab := n.Body.(*schema.AugmentBody)
	mr := c.resolveModulePrefix
	path := c.path
	ref := &unres.Ref{Kind: unres.Augment, Path: path, Detail: ab.TargetPathRaw,
		Resolve: func() (bool, error) {
			steps, absolute, err := splitPathSteps(ab.TargetPathRaw)
			if err != nil {
				return false, yerr.New(yerr.Internal, path, "invalid augment target: %v", err)
			}
			var target *schema.Node
			if absolute {
				target, err = resolveAbsolutePath(c.mod, steps, mr)
			} else {
				target, err = descendFrom(anchor, steps, mr)
			}
			if err != nil {
				if isNotYet(err) {
					return false, nil
				}
				return false, err
			}
			ab.Target = target
			return true, rewrite.ApplyAugment(n, target)
		}}
	b.res.Add(ref)
}

func descendFrom(anchor *schema.Node, steps []pathStep, mr moduleResolver) (*schema.Node, error) {
	cur := anchor
	for _, st := range steps {
		if st.up {
			return nil, yerr.New(yerr.Internal, nil, "'..' not valid in a uses-relative augment path")
		}
		var next *schema.Node
		for _, ch := range cur.Children() {
			if nodeNameMatches(ch, st.name, nil) {
				next = ch
				break
			}
		}
		if next == nil {
			return nil, notYet("node %q not found (yet)", st.name)
		}
		cur = next
	}
	return cur, nil
}

// enqueueDeviation defers a `deviation` until its target resolves, then
// applies every deviate substatement in document order and validates the
// not-supported/key invariant.
func (b *Builder) enqueueDeviation(c *bctx, dv *schema.Deviation) {
	mr := c.resolveModulePrefix
	mod := c.mod
	path := c.path
	ref := &unres.Ref{Kind: unres.Deviation, Path: path, Detail: dv.TargetPathRaw,
		Resolve: func() (bool, error) {
			steps, _, err := splitPathSteps(dv.TargetPathRaw)
			if err != nil {
				return false, yerr.New(yerr.Internal, path, "invalid deviation target: %v", err)
			}
			target, err := resolveAbsolutePath(mod, steps, mr)
			if err != nil {
				if isNotYet(err) {
					return false, nil
				}
				return false, err
			}
			if target.Module == mod {
				return false, yerr.NewDeviationOfOwnModule(path, mod.Name)
			}
			dv.Target = target
			for _, d := range dv.Deviates {
				if d.Kind == schema.DeviateNotSupported {
					if err := rewrite.CheckNotSupportedKeys(target); err != nil {
						return false, err
					}
				}
				xf, err := rewrite.ApplyDeviate(target, d)
				if err != nil {
					return false, err
				}
				dv.Transforms = append(dv.Transforms, xf)
			}
			mod.Deviated = true
			return true, nil
		}}
	b.res.Add(ref)
}

// enqueueListKeys resolves a list's space-separated `key` argument into
// direct-child leaf nodes, in the order named (spec.md §3).
func (b *Builder) enqueueListKeys(c *bctx, n *schema.Node, lb *schema.ListBody) {
	path := c.path
	ref := &unres.Ref{Kind: unres.ListKeys, Path: path, Detail: strings.Join(lb.KeyNames, " "),
		Resolve: func() (bool, error) {
			keys := make([]*schema.Node, len(lb.KeyNames))
			for i, name := range lb.KeyNames {
				k := n.LookupChild(schema.Leaf, name)
				if k == nil {
					return false, nil
				}
				if k.Flags.Config == schema.ConfigFalse {
					return false, yerr.New(yerr.Internal, path,
						"list key %q may not be config false", name)
				}
				keys[i] = k
			}
			lb.Keys = keys
			return true, nil
		}}
	b.res.Add(ref)
}

// enqueueListUnique resolves each `unique` statement's whitespace
// separated set of (possibly descendant) leaf paths.
func (b *Builder) enqueueListUnique(c *bctx, n *schema.Node, lb *schema.ListBody) {
	path := c.path
	mr := c.resolveModulePrefix
	for _, raw := range lb.UniqueRaw {
		raw := raw
		ref := &unres.Ref{Kind: unres.ListUnique, Path: path, Detail: raw,
			Resolve: func() (bool, error) {
				var group []*schema.Node
				for _, tok := range strings.Fields(raw) {
					steps, _, err := splitPathSteps(tok)
					if err != nil {
						return false, yerr.New(yerr.Internal, path, "invalid unique path: %v", err)
					}
					leaf, err := descendFrom(n, steps, mr)
					if err != nil {
						if isNotYet(err) {
							return false, nil
						}
						return false, err
					}
					group = append(group, leaf)
				}
				lb.Uniques = append(lb.Uniques, group)
				return true, nil
			}}
		b.res.Add(ref)
	}
}

// enqueueChoiceDefault resolves a choice's `default` argument to one of
// its direct case children.
func (b *Builder) enqueueChoiceDefault(c *bctx, n *schema.Node, cb *schema.ChoiceBody) {
	path := c.path
	ref := &unres.Ref{Kind: unres.ChoiceDefault, Path: path, Detail: cb.DefaultRaw,
		Resolve: func() (bool, error) {
			_, name, err := splitPrefixed(cb.DefaultRaw)
			if err != nil {
				return false, yerr.New(yerr.Internal, path, "invalid default case: %v", err)
			}
			cs := n.LookupChild(schema.Case, name)
			if cs == nil {
				return false, nil
			}
			cb.Default = cs
			return true, nil
		}}
	b.res.Add(ref)
}
