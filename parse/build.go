// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danos/yangschema/dict"
	"github.com/danos/yangschema/schema"
	"github.com/danos/yangschema/unres"
	"github.com/danos/yangschema/yerr"
)

// LookupModuleFunc resolves an import/include target by name and an
// optional requested revision ("" meaning latest), and is supplied by the
// caller (the ctx package's Repository) so this package never depends on
// ctx (spec.md §9 design note: "the builder is a free function of a
// Stmt tree and a module lookup callback").
type LookupModuleFunc func(name, revision string) (*schema.Module, bool)

// Builder turns one module's or submodule's Stmt tree into a
// *schema.Module, interning every string through Dict and enqueuing an
// unres.Ref for every forward reference it cannot settle on the spot
// (spec.md §4.3, §4.4).
type Builder struct {
	d      *dict.Dict
	res    *unres.Resolver
	lookup LookupModuleFunc
}

func NewBuilder(d *dict.Dict, res *unres.Resolver, lookup LookupModuleFunc) *Builder {
	return &Builder{d: d, res: res, lookup: lookup}
}

// bctx is the mutable state threaded through one module's build: the
// typedef/grouping scopes in effect at the current nesting level, and the
// path used to annotate errors.
type bctx struct {
	b        *Builder
	mod      *schema.Module
	tscope   *tscope
	gscope   *gscope
	path     []string
	prefixes map[string]*schema.Import // prefix -> import, for path/type resolution
}

func (c *bctx) push(name string) *bctx {
	n := *c
	n.path = append(append([]string(nil), c.path...), name)
	return &n
}

func (c *bctx) childScopes() *bctx {
	n := *c
	n.tscope = newTScope(c.tscope)
	n.gscope = newGScope(c.gscope)
	return &n
}

// own interns s into the builder's Dict and records ownership on n,
// returning s itself for convenient inline use (spec.md §4.1: every
// identifier is Dict-owned even though Node fields are plain strings).
func (c *bctx) own(n *schema.Node, s string) string {
	h := c.b.d.InsertCopy(s)
	n.Own(h)
	return s
}

// BuildModule parses the single top-level "module" or "submodule"
// statement in root and returns the constructed schema.Module, or a hard
// error for anything that can never be fixed by waiting (spec.md §4.3).
func (b *Builder) BuildModule(root *Stmt) (*schema.Module, error) {
	if len(root.Children) != 1 {
		return nil, yerr.New(yerr.UnexpectedStatementInContext, nil,
			"input must contain exactly one top-level module or submodule statement")
	}
	top := root.Children[0]
	switch top.Keyword {
	case "module":
		return b.buildModuleOrSubmodule(top, schema.KindModule)
	case "submodule":
		return b.buildModuleOrSubmodule(top, schema.KindSubmodule)
	default:
		return nil, yerr.NewUnexpectedStatement(nil, top.Keyword)
	}
}

func (b *Builder) buildModuleOrSubmodule(s *Stmt, kind schema.ModuleKind) (*schema.Module, error) {
	if s.Arg == "" {
		return nil, yerr.NewMissingRequiredChild(nil, "module name")
	}
	m := schema.NewModule(s.Arg)
	m.Kind = kind
	path := []string{s.Arg}

	if err := requireAtMostOnce(s, path, "namespace", "prefix", "belongs-to",
		"organization", "contact", "description", "reference", "yang-version"); err != nil {
		return nil, err
	}

	c := &bctx{b: b, mod: m, tscope: newTScope(nil), gscope: newGScope(nil),
		path: path, prefixes: make(map[string]*schema.Import)}

	if yv := s.ChildByKeyword("yang-version"); yv != nil {
		m.YangVersion = yv.Arg
	} else {
		m.YangVersion = "1"
	}

	if kind == schema.KindModule {
		ns := s.ChildByKeyword("namespace")
		if ns == nil {
			return nil, yerr.NewMissingRequiredChild(path, "namespace")
		}
		m.Namespace = ns.Arg
		pfx := s.ChildByKeyword("prefix")
		if pfx == nil {
			return nil, yerr.NewMissingRequiredChild(path, "prefix")
		}
		m.Prefix = pfx.Arg
	} else {
		bt := s.ChildByKeyword("belongs-to")
		if bt == nil {
			return nil, yerr.NewMissingRequiredChild(path, "belongs-to")
		}
		pfx := bt.ChildByKeyword("prefix")
		if pfx == nil {
			return nil, yerr.NewMissingRequiredChild(path, "belongs-to/prefix")
		}
		m.Prefix = pfx.Arg
		// The owning module is resolved lazily: ctx.attachSubmodules cross
		// checks belongs-to against the real parent (spec.md §9 supplemented
		// feature) once both are loaded; we stash the name on a throwaway
		// Module here so BelongsTo.Name is available before that happens.
		m.BelongsTo = &schema.Module{Name: bt.Arg}
	}

	if o := s.ChildByKeyword("organization"); o != nil {
		m.Organization = o.Arg
	}
	if ct := s.ChildByKeyword("contact"); ct != nil {
		m.Contact = ct.Arg
	}
	if d := s.ChildByKeyword("description"); d != nil {
		m.Description = d.Arg
	}
	if r := s.ChildByKeyword("reference"); r != nil {
		m.Reference = r.Arg
	}

	for _, rv := range s.ChildrenByKeyword("revision") {
		m.Revisions = append(m.Revisions, &schema.Revision{
			Date:        rv.Arg,
			Description: textOf(rv, "description"),
			Reference:   textOf(rv, "reference"),
		})
	}
	sortRevisionsDesc(m.Revisions)

	if err := b.buildImports(c, s); err != nil {
		return nil, err
	}
	if err := b.buildIncludes(c, s); err != nil {
		return nil, err
	}

	for _, fs := range s.ChildrenByKeyword("feature") {
		if _, dup := m.Features[fs.Arg]; dup {
			return nil, yerr.NewDuplicateIdentifier(path, "feature", fs.Arg)
		}
		f := &schema.Feature{Name: fs.Arg, Module: m}
		for _, iff := range fs.ChildrenByKeyword("if-feature") {
			f.IfFeatures = append(f.IfFeatures, iff.Arg)
		}
		f.Description = textOf(fs, "description")
		f.Reference = textOf(fs, "reference")
		m.Features[fs.Arg] = f
	}

	for _, is := range s.ChildrenByKeyword("identity") {
		if _, dup := m.Identities[is.Arg]; dup {
			return nil, yerr.NewDuplicateIdentifier(path, "identity", is.Arg)
		}
		id := &schema.Identity{Name: is.Arg, Module: m}
		for _, base := range is.ChildrenByKeyword("base") {
			id.BaseNames = append(id.BaseNames, base.Arg)
		}
		id.Description = textOf(is, "description")
		id.Reference = textOf(is, "reference")
		m.Identities[is.Arg] = id
		b.enqueueIdentityBase(c, id)
	}

	for _, td := range s.ChildrenByKeyword("typedef") {
		t, err := b.buildTypedef(c, td)
		if err != nil {
			return nil, err
		}
		if _, dup := m.Typedefs[t.Name]; dup {
			return nil, yerr.NewDuplicateIdentifier(path, "typedef", t.Name)
		}
		m.Typedefs[t.Name] = t
		c.tscope.put(t.Name, t)
	}

	for _, gr := range s.ChildrenByKeyword("grouping") {
		g, err := b.buildGrouping(c, gr)
		if err != nil {
			return nil, err
		}
		c.gscope.put(g.Name, g)
		m.AddChild(g)
	}

	dataKeywords := []string{"container", "leaf", "leaf-list", "list",
		"choice", "anyxml", "uses", "rpc", "notification"}
	for _, kw := range dataKeywords {
		for _, ds := range s.ChildrenByKeyword(kw) {
			n, err := b.buildDataNode(c, ds, kw)
			if err != nil {
				return nil, err
			}
			if n != nil {
				m.AddChild(n)
			}
		}
	}

	for _, as := range s.ChildrenByKeyword("augment") {
		n, err := b.buildAugment(c, as)
		if err != nil {
			return nil, err
		}
		m.Augments = append(m.Augments, n)
		m.AddChild(n)
	}

	for _, dv := range s.ChildrenByKeyword("deviation") {
		d, err := b.buildDeviation(c, dv)
		if err != nil {
			return nil, err
		}
		m.Deviations = append(m.Deviations, d)
	}

	if err := schema.CheckSiblingUniqueness(&schema.Node{FirstChild: m.Data}, path); err != nil {
		return nil, err
	}

	return m, nil
}

func (b *Builder) buildImports(c *bctx, s *Stmt) error {
	for _, is := range s.ChildrenByKeyword("import") {
		pfx := is.ChildByKeyword("prefix")
		if pfx == nil {
			return yerr.NewMissingRequiredChild(append(c.path, is.Arg), "prefix")
		}
		imp := &schema.Import{Name: is.Arg, Prefix: pfx.Arg, External: schema.Local}
		if rv := is.ChildByKeyword("revision-date"); rv != nil {
			imp.RequestedRevision = rv.Arg
		}
		if c.prefixes[imp.Prefix] != nil {
			return yerr.NewDuplicateIdentifier(c.path, "prefix", imp.Prefix)
		}
		c.mod.Imports = append(c.mod.Imports, imp)
		c.prefixes[imp.Prefix] = imp
		b.enqueueModuleRef(c, imp)
	}
	return nil
}

func (b *Builder) buildIncludes(c *bctx, s *Stmt) error {
	for _, is := range s.ChildrenByKeyword("include") {
		inc := &schema.Include{Name: is.Arg}
		c.mod.Includes = append(c.mod.Includes, inc)
		ref := &unres.Ref{Kind: unres.ModuleRef, Path: c.path, Detail: "include " + is.Arg,
			Resolve: func() (bool, error) {
				sub, ok := b.lookup(inc.Name, "")
				if !ok {
					return false, nil
				}
				inc.Module = sub
				return true, nil
			}}
		b.res.Add(ref)
	}
	return nil
}

func (b *Builder) enqueueModuleRef(c *bctx, imp *schema.Import) {
	path := c.path
	ref := &unres.Ref{Kind: unres.ModuleRef, Path: path, Detail: "import " + imp.Name,
		Resolve: func() (bool, error) {
			mod, ok := b.lookup(imp.Name, imp.RequestedRevision)
			if !ok {
				return false, nil
			}
			imp.Module = mod
			return true, nil
		}}
	b.res.Add(ref)
}

func (b *Builder) enqueueIdentityBase(c *bctx, id *schema.Identity) {
	path := c.path
	for _, baseName := range id.BaseNames {
		baseName := baseName
		ref := &unres.Ref{Kind: unres.IdentityBase, Path: path, Detail: baseName,
			Resolve: func() (bool, error) {
				mod, base, err := c.resolveIdentityRef(baseName)
				if err != nil {
					if isNotYet(err) {
						return false, nil
					}
					return false, err
				}
				_ = mod
				id.Bases = append(id.Bases, base)
				base.Derived = append(base.Derived, id)
				return true, nil
			}}
		b.res.Add(ref)
	}
}

// resolveIdentityRef resolves a prefix:name identity reference against
// c's module (local, when unprefixed) or an imported module.
func (c *bctx) resolveIdentityRef(raw string) (*schema.Module, *schema.Identity, error) {
	prefix, name, err := splitPrefixed(raw)
	if err != nil {
		return nil, nil, err
	}
	mod := c.mod
	if prefix != "" && prefix != c.mod.Prefix {
		imp, ok := c.prefixes[prefix]
		if !ok {
			return nil, nil, yerr.NewUnknownPrefix(c.path, prefix)
		}
		if imp.Module == nil {
			return nil, nil, notYet("module for prefix %q not yet resolved", prefix)
		}
		mod = imp.Module
	}
	id, ok := mod.Identities[name]
	if !ok {
		return nil, nil, notYet("identity %q not found (yet) in module %q", name, mod.Name)
	}
	return mod, id, nil
}

func (c *bctx) resolveModulePrefix(prefix string) (*schema.Module, bool) {
	if prefix == "" || prefix == c.mod.Prefix {
		return c.mod, true
	}
	imp, ok := c.prefixes[prefix]
	if !ok || imp.Module == nil {
		return nil, false
	}
	return imp.Module, true
}

func textOf(s *Stmt, kw string) string {
	if c := s.ChildByKeyword(kw); c != nil {
		return c.Arg
	}
	return ""
}

func requireAtMostOnce(s *Stmt, path []string, keywords ...string) error {
	for _, kw := range keywords {
		if len(s.ChildrenByKeyword(kw)) > 1 {
			return yerr.NewDuplicateStatement(path, kw)
		}
	}
	return nil
}

func sortRevisionsDesc(rs []*schema.Revision) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j].Date > rs[j-1].Date; j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
}

// --- config/status/flags helpers shared by data-node builders ---

func parseConfig(s *Stmt) (schema.ConfigState, error) {
	cs := s.ChildByKeyword("config")
	if cs == nil {
		return schema.ConfigInherit, nil
	}
	switch cs.Arg {
	case "true":
		return schema.ConfigTrue, nil
	case "false":
		return schema.ConfigFalse, nil
	default:
		return 0, yerr.New(yerr.Internal, nil, "invalid config value %q", cs.Arg)
	}
}

func parseMandatory(s *Stmt) (bool, bool) {
	ms := s.ChildByKeyword("mandatory")
	if ms == nil {
		return false, false
	}
	return ms.Arg == "true", true
}

func parseStatus(s *Stmt) schema.Status {
	st := s.ChildByKeyword("status")
	if st == nil {
		return schema.StatusCurrent
	}
	switch st.Arg {
	case "deprecated":
		return schema.StatusDeprecated
	case "obsolete":
		return schema.StatusObsolete
	default:
		return schema.StatusCurrent
	}
}

func parseUint64(s string) (uint64, error) {
	if s == "unbounded" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func buildMusts(s *Stmt) []*schema.Must {
	var out []*schema.Must
	for _, ms := range s.ChildrenByKeyword("must") {
		out = append(out, &schema.Must{
			XPath:        ms.Arg,
			ErrorMessage: textOf(ms, "error-message"),
			ErrorAppTag:  textOf(ms, "error-app-tag"),
			Description:  textOf(ms, "description"),
		})
	}
	return out
}

func buildWhen(s *Stmt) *schema.When {
	ws := s.ChildByKeyword("when")
	if ws == nil {
		return nil
	}
	return &schema.When{XPath: ws.Arg, Description: textOf(ws, "description")}
}

func buildTypedefs(c *bctx, s *Stmt) ([]*schema.Typedef, error) {
	var out []*schema.Typedef
	for _, td := range s.ChildrenByKeyword("typedef") {
		t, err := c.b.buildTypedef(c, td)
		if err != nil {
			return nil, err
		}
		if err := c.tscope.put(t.Name, t); err != nil {
			return nil, yerr.NewDuplicateIdentifier(c.path, "typedef", t.Name)
		}
		out = append(out, t)
	}
	return out, nil
}

func newNode(c *bctx, s *Stmt, nt schema.NodeType) *schema.Node {
	n := &schema.Node{NType: nt, Module: c.mod}
	n.Name = c.own(n, s.Arg)
	n.Description = c.own(n, textOf(s, "description"))
	n.Reference = c.own(n, textOf(s, "reference"))
	return n
}

// buildGrouping builds a `grouping` statement's own Node, used both at
// module scope and nested inside containers/lists/etc (spec.md §3:
// groupings may be defined at any of those levels, and are resolved
// through the lexically enclosing chain, same as typedefs).
func (b *Builder) buildGrouping(c *bctx, s *Stmt) (*schema.Node, error) {
	n := newNode(c, s, schema.Grouping)
	gc := c.push(s.Arg).childScopes()
	typedefs, err := buildTypedefs(gc, s)
	if err != nil {
		return nil, err
	}
	n.Body = &schema.GroupingBody{Typedefs: typedefs}
	if err := b.buildChildrenInto(gc, n, s); err != nil {
		return nil, err
	}
	return n, nil
}

// buildChildrenInto builds every recognised data-node/uses substatement of
// s as a child of n, in document order. A nested grouping statement is
// built into c's grouping scope instead of being appended to n.
func (b *Builder) buildChildrenInto(c *bctx, n *schema.Node, s *Stmt) error {
	for _, ds := range s.Children {
		switch ds.Keyword {
		case "grouping":
			g, err := b.buildGrouping(c, ds)
			if err != nil {
				return err
			}
			if err := c.gscope.put(g.Name, g); err != nil {
				return yerr.NewDuplicateIdentifier(c.path, "grouping", g.Name)
			}
		case "container", "leaf", "leaf-list", "list", "choice", "case", "anyxml", "uses":
			child, err := b.buildDataNode(c, ds, ds.Keyword)
			if err != nil {
				return err
			}
			if child != nil {
				n.AppendChild(child)
			}
		}
	}
	return nil
}

func (b *Builder) buildDataNode(c *bctx, s *Stmt, kw string) (*schema.Node, error) {
	switch kw {
	case "container":
		return b.buildContainer(c, s)
	case "leaf":
		return b.buildLeaf(c, s)
	case "leaf-list":
		return b.buildLeafList(c, s)
	case "list":
		return b.buildList(c, s)
	case "choice":
		return b.buildChoice(c, s)
	case "case":
		return b.buildCase(c, s)
	case "anyxml":
		return b.buildAnyXML(c, s)
	case "uses":
		return b.buildUses(c, s)
	case "rpc":
		return b.buildRPC(c, s)
	case "notification":
		return b.buildNotification(c, s)
	default:
		return nil, yerr.NewUnexpectedStatement(c.path, kw)
	}
}

func (b *Builder) buildContainer(c *bctx, s *Stmt) (*schema.Node, error) {
	n := newNode(c, s, schema.Container)
	nc := c.push(s.Arg).childScopes()
	cfg, err := parseConfig(s)
	if err != nil {
		return nil, err
	}
	n.Flags.Config = cfg
	typedefs, err := buildTypedefs(nc, s)
	if err != nil {
		return nil, err
	}
	n.Body = &schema.ContainerBody{
		Presence: s.ChildByKeyword("presence") != nil,
		Typedefs: typedefs,
		Musts:    buildMusts(s),
		When:     buildWhen(s),
	}
	if err := b.buildChildrenInto(nc, n, s); err != nil {
		return nil, err
	}
	for _, as := range s.ChildrenByKeyword("augment") {
		aug, err := b.buildAugment(nc, as)
		if err != nil {
			return nil, err
		}
		n.AppendChild(aug)
	}
	return n, nil
}

func (b *Builder) buildLeaf(c *bctx, s *Stmt) (*schema.Node, error) {
	n := newNode(c, s, schema.Leaf)
	cfg, err := parseConfig(s)
	if err != nil {
		return nil, err
	}
	n.Flags.Config = cfg
	mand, has := parseMandatory(s)
	n.Flags.Mandatory, n.Flags.HasMandatory = mand, has

	ts := s.ChildByKeyword("type")
	if ts == nil {
		return nil, yerr.NewMissingRequiredChild(c.path, "type")
	}
	typ, err := b.buildType(c, ts, n)
	if err != nil {
		return nil, err
	}
	lb := &schema.LeafBody{
		Type:             typ,
		Units:            textOf(s, "units"),
		Musts:            buildMusts(s),
		When:             buildWhen(s),
		LeafrefBackEdges: make(map[*schema.Node]struct{}),
	}
	if ds := s.ChildByKeyword("default"); ds != nil {
		lb.Default, lb.HasDefault = ds.Arg, true
	}
	n.Body = lb
	if lb.HasDefault && n.Flags.Mandatory {
		return nil, yerr.NewMandatoryWithDefault(c.path, n.Name)
	}
	b.enqueueTypeResolution(c, ts, typ, n)
	return n, nil
}

func (b *Builder) buildLeafList(c *bctx, s *Stmt) (*schema.Node, error) {
	n := newNode(c, s, schema.LeafList)
	cfg, err := parseConfig(s)
	if err != nil {
		return nil, err
	}
	n.Flags.Config = cfg
	ts := s.ChildByKeyword("type")
	if ts == nil {
		return nil, yerr.NewMissingRequiredChild(c.path, "type")
	}
	typ, err := b.buildType(c, ts, n)
	if err != nil {
		return nil, err
	}
	llb := &schema.LeafListBody{LeafBody: schema.LeafBody{
		Type: typ, Units: textOf(s, "units"), Musts: buildMusts(s), When: buildWhen(s),
		LeafrefBackEdges: make(map[*schema.Node]struct{}),
	}}
	if ms := s.ChildByKeyword("min-elements"); ms != nil {
		v, err := parseUint64(ms.Arg)
		if err != nil {
			return nil, yerr.New(yerr.Internal, c.path, "invalid min-elements: %v", err)
		}
		llb.Min = v
	}
	if ms := s.ChildByKeyword("max-elements"); ms != nil && ms.Arg != "unbounded" {
		v, err := parseUint64(ms.Arg)
		if err != nil {
			return nil, yerr.New(yerr.Internal, c.path, "invalid max-elements: %v", err)
		}
		llb.Max = v
	}
	n.Body = llb
	b.enqueueTypeResolution(c, ts, typ, n)
	return n, nil
}

func (b *Builder) buildList(c *bctx, s *Stmt) (*schema.Node, error) {
	n := newNode(c, s, schema.List)
	nc := c.push(s.Arg).childScopes()
	cfg, err := parseConfig(s)
	if err != nil {
		return nil, err
	}
	n.Flags.Config = cfg
	typedefs, err := buildTypedefs(nc, s)
	if err != nil {
		return nil, err
	}
	lb := &schema.ListBody{Typedefs: typedefs, Musts: buildMusts(s), When: buildWhen(s)}
	if ks := s.ChildByKeyword("key"); ks != nil {
		lb.KeyNames = strings.Fields(ks.Arg)
	}
	for _, us := range s.ChildrenByKeyword("unique") {
		lb.UniqueRaw = append(lb.UniqueRaw, us.Arg)
	}
	if ms := s.ChildByKeyword("min-elements"); ms != nil {
		v, err := parseUint64(ms.Arg)
		if err != nil {
			return nil, yerr.New(yerr.Internal, c.path, "invalid min-elements: %v", err)
		}
		lb.Min = v
	}
	if ms := s.ChildByKeyword("max-elements"); ms != nil && ms.Arg != "unbounded" {
		v, err := parseUint64(ms.Arg)
		if err != nil {
			return nil, yerr.New(yerr.Internal, c.path, "invalid max-elements: %v", err)
		}
		lb.Max = v
	}
	n.Body = lb
	if err := b.buildChildrenInto(nc, n, s); err != nil {
		return nil, err
	}
	for _, as := range s.ChildrenByKeyword("augment") {
		aug, err := b.buildAugment(nc, as)
		if err != nil {
			return nil, err
		}
		n.AppendChild(aug)
	}
	if len(lb.KeyNames) > 0 {
		b.enqueueListKeys(c, n, lb)
	}
	if len(lb.UniqueRaw) > 0 {
		b.enqueueListUnique(c, n, lb)
	}
	return n, nil
}

func (b *Builder) buildChoice(c *bctx, s *Stmt) (*schema.Node, error) {
	n := newNode(c, s, schema.Choice)
	nc := c.push(s.Arg)
	mand, has := parseMandatory(s)
	n.Flags.Mandatory, n.Flags.HasMandatory = mand, has
	cb := &schema.ChoiceBody{When: buildWhen(s)}
	if ds := s.ChildByKeyword("default"); ds != nil {
		cb.DefaultRaw = ds.Arg
	}
	if cb.DefaultRaw != "" && n.Flags.Mandatory {
		return nil, yerr.NewMandatoryWithDefault(c.path, n.Name)
	}
	n.Body = cb
	for _, kw := range []string{"container", "leaf", "leaf-list", "list", "anyxml", "case"} {
		for _, ds := range s.ChildrenByKeyword(kw) {
			var child *schema.Node
			var err error
			if kw == "case" {
				child, err = b.buildCase(nc, ds)
			} else {
				child, err = b.buildDataNode(nc, ds, kw)
				if err == nil {
					// A short-form case (bare container/leaf/... directly
					// under choice, RFC 7950 §7.9.2) is wrapped implicitly.
					wrapper := &schema.Node{NType: schema.Case, Name: child.Name, Module: c.mod}
					wrapper.AppendChild(child)
					child = wrapper
				}
			}
			if err != nil {
				return nil, err
			}
			n.AppendChild(child)
		}
	}
	if cb.DefaultRaw != "" {
		b.enqueueChoiceDefault(c, n, cb)
	}
	return n, nil
}

func (b *Builder) buildCase(c *bctx, s *Stmt) (*schema.Node, error) {
	n := newNode(c, s, schema.Case)
	nc := c.push(s.Arg)
	n.Body = &schema.CaseBody{When: buildWhen(s)}
	if err := b.buildChildrenInto(nc, n, s); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *Builder) buildAnyXML(c *bctx, s *Stmt) (*schema.Node, error) {
	n := newNode(c, s, schema.AnyXML)
	n.Body = &schema.AnyXMLBody{Musts: buildMusts(s), When: buildWhen(s)}
	return n, nil
}

func (b *Builder) buildRPC(c *bctx, s *Stmt) (*schema.Node, error) {
	n := newNode(c, s, schema.RPC)
	nc := c.push(s.Arg).childScopes()
	typedefs, err := buildTypedefs(nc, s)
	if err != nil {
		return nil, err
	}
	n.Body = &schema.RPCBody{Typedefs: typedefs}
	if in := s.ChildByKeyword("input"); in != nil {
		inNode := &schema.Node{NType: schema.Input, Module: c.mod, Body: &schema.InputBody{}}
		if err := b.buildChildrenInto(nc, inNode, in); err != nil {
			return nil, err
		}
		n.AppendChild(inNode)
	}
	if out := s.ChildByKeyword("output"); out != nil {
		outNode := &schema.Node{NType: schema.Output, Module: c.mod, Body: &schema.OutputBody{}}
		if err := b.buildChildrenInto(nc, outNode, out); err != nil {
			return nil, err
		}
		n.AppendChild(outNode)
	}
	return n, nil
}

func (b *Builder) buildNotification(c *bctx, s *Stmt) (*schema.Node, error) {
	n := newNode(c, s, schema.Notification)
	nc := c.push(s.Arg).childScopes()
	typedefs, err := buildTypedefs(nc, s)
	if err != nil {
		return nil, err
	}
	n.Body = &schema.NotificationBody{Typedefs: typedefs}
	if err := b.buildChildrenInto(nc, n, s); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *Builder) buildUses(c *bctx, s *Stmt) (*schema.Node, error) {
	n := newNode(c, s, schema.Uses)
	ub := &schema.UsesBody{GroupingRaw: s.Arg, When: buildWhen(s)}
	for _, rs := range s.ChildrenByKeyword("refine") {
		ub.Refines = append(ub.Refines, buildRefine(rs))
	}
	for _, as := range s.ChildrenByKeyword("augment") {
		aug, err := b.buildAugmentNode(c, as)
		if err != nil {
			return nil, err
		}
		ub.Augments = append(ub.Augments, aug)
	}
	n.Body = ub
	b.enqueueUses(c, n, ub)
	return n, nil
}

func buildRefine(s *Stmt) *schema.Refine {
	r := &schema.Refine{TargetPath: s.Arg, Musts: buildMusts(s)}
	r.Description = textOf(s, "description")
	r.Reference = textOf(s, "reference")
	if ds := s.ChildByKeyword("default"); ds != nil {
		r.Default, r.HasDefault = ds.Arg, true
	}
	if cfg, err := parseConfig(s); err == nil {
		r.Config = cfg
	}
	if m, has := parseMandatory(s); has {
		r.Mandatory, r.HasMandatory = m, true
	}
	if s.ChildByKeyword("presence") != nil {
		r.Presence, r.HasPresence = true, true
	}
	if ms := s.ChildByKeyword("min-elements"); ms != nil {
		if v, err := parseUint64(ms.Arg); err == nil {
			r.Min, r.HasMin = v, true
		}
	}
	if ms := s.ChildByKeyword("max-elements"); ms != nil {
		if v, err := parseUint64(ms.Arg); err == nil {
			r.Max, r.HasMax = v, true
		}
	}
	return r
}

func (b *Builder) buildAugment(c *bctx, s *Stmt) (*schema.Node, error) {
	n, err := b.buildAugmentNode(c, s)
	if err != nil {
		return nil, err
	}
	b.enqueueAugment(c, n, n.Body.(*schema.AugmentBody))
	return n, nil
}

// buildAugmentNode builds an augment's Node and children without queueing
// its target resolution; an augment inside `uses` is resolved by
// enqueueAugmentAgainst once the grouping has been expanded.
func (b *Builder) buildAugmentNode(c *bctx, s *Stmt) (*schema.Node, error) {
	n := &schema.Node{NType: schema.Augment, Module: c.mod}
	n.Name = c.own(n, s.Arg)
	ab := &schema.AugmentBody{TargetPathRaw: s.Arg, When: buildWhen(s)}
	n.Body = ab
	if err := b.buildChildrenInto(c, n, s); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *Builder) buildDeviation(c *bctx, s *Stmt) (*schema.Deviation, error) {
	dv := &schema.Deviation{TargetPathRaw: s.Arg, Module: c.mod}
	for _, ds := range s.ChildrenByKeyword("deviate") {
		stmt, err := buildDeviateStmt(ds)
		if err != nil {
			return nil, err
		}
		dv.Deviates = append(dv.Deviates, stmt)
	}
	b.enqueueDeviation(c, dv)
	return dv, nil
}

func buildDeviateStmt(s *Stmt) (*schema.DeviateStmt, error) {
	ds := &schema.DeviateStmt{}
	switch s.Arg {
	case "not-supported":
		ds.Kind = schema.DeviateNotSupported
		return ds, nil
	case "add":
		ds.Kind = schema.DeviateAdd
	case "replace":
		ds.Kind = schema.DeviateReplace
	case "delete":
		ds.Kind = schema.DeviateDelete
	default:
		return nil, fmt.Errorf("invalid deviate argument %q", s.Arg)
	}
	if u := s.ChildByKeyword("units"); u != nil {
		ds.Units = &u.Arg
	}
	ds.Musts = buildMusts(s)
	for _, us := range s.ChildrenByKeyword("unique") {
		ds.Uniques = append(ds.Uniques, us.Arg)
	}
	if d := s.ChildByKeyword("default"); d != nil {
		ds.Default = &d.Arg
	}
	if cfg := s.ChildByKeyword("config"); cfg != nil {
		v := schema.ConfigTrue
		if cfg.Arg == "false" {
			v = schema.ConfigFalse
		}
		ds.Config = &v
	}
	if m := s.ChildByKeyword("mandatory"); m != nil {
		v := m.Arg == "true"
		ds.Mandatory = &v
	}
	if mn := s.ChildByKeyword("min-elements"); mn != nil {
		if v, err := parseUint64(mn.Arg); err == nil {
			ds.MinElements = &v
		}
	}
	if mx := s.ChildByKeyword("max-elements"); mx != nil {
		if v, err := parseUint64(mx.Arg); err == nil {
			ds.MaxElements = &v
		}
	}
	return ds, nil
}
