// Copyright (c) 2017-2021, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package ctx

import (
	"testing"

	"github.com/danos/yangschema/schema"
)

func TestParseModuleMinimal(t *testing.T) {
	r := New(Config{})
	err := r.ParseModule("foo", `module foo {
		namespace "urn:foo";
		prefix f;
		leaf x {
			type string;
		}
	}`)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	m, ok := r.GetModule("foo", "")
	if !ok {
		t.Fatal("GetModule(foo, \"\") not found after successful parse")
	}
	if m.LookupChild(schema.Leaf, "x") == nil {
		t.Error("leaf x missing from loaded module")
	}
}

func TestParseModulesResolvesCrossModuleImport(t *testing.T) {
	r := New(Config{})
	sources := map[string]string{
		"base": `module base {
			namespace "urn:base";
			prefix b;
			typedef percent {
				type uint8 {
					range "0..100";
				}
			}
			identity animal {
			}
		}`,
		"user": `module user {
			namespace "urn:user";
			prefix u;
			import base {
				prefix b;
			}
			leaf level {
				type b:percent;
			}
			identity dog {
				base b:animal;
			}
		}`,
	}
	if err := r.ParseModules(sources); err != nil {
		t.Fatalf("ParseModules: %v", err)
	}
	user, ok := r.GetModule("user", "")
	if !ok {
		t.Fatal("user module not found")
	}
	leaf := user.LookupChild(schema.Leaf, "level")
	lb := leaf.Body.(*schema.LeafBody)
	if lb.Type.Unresolved {
		t.Fatal("cross-module typedef reference left unresolved")
	}
	if lb.Type.Base != schema.TUint8 {
		t.Errorf("leaf base type = %v, want TUint8", lb.Type.Base)
	}
	dog := user.Identities["dog"]
	if dog == nil || len(dog.Bases) != 1 || dog.Bases[0].Name != "animal" {
		t.Errorf("identity dog bases = %v, want [animal]", dog)
	}
}

func TestParseModulesUnresolvableImportFails(t *testing.T) {
	r := New(Config{})
	err := r.ParseModule("user", `module user {
		namespace "urn:user";
		prefix u;
		import missing {
			prefix m;
		}
		leaf x {
			type m:percent;
		}
	}`)
	if err == nil {
		t.Fatal("expected an error for an import that never resolves")
	}
	if _, ok := r.GetModule("user", ""); ok {
		t.Error("a failed load must not leave a partial module committed")
	}
}

func TestParseModulesImportCycleFails(t *testing.T) {
	r := New(Config{})
	sources := map[string]string{
		"a": `module a {
			namespace "urn:a";
			prefix a;
			import b { prefix b; }
		}`,
		"b": `module b {
			namespace "urn:b";
			prefix b;
			import a { prefix a; }
		}`,
	}
	if err := r.ParseModules(sources); err == nil {
		t.Error("expected an import cycle error")
	}
}

func TestParseModulesSubmoduleAttachment(t *testing.T) {
	r := New(Config{})
	sources := map[string]string{
		"main": `module main {
			namespace "urn:main";
			prefix m;
			include sub;
		}`,
		"sub": `submodule sub {
			belongs-to main {
				prefix m;
			}
			leaf fromsub {
				type string;
			}
		}`,
	}
	if err := r.ParseModules(sources); err != nil {
		t.Fatalf("ParseModules: %v", err)
	}
	main, ok := r.GetModule("main", "")
	if !ok {
		t.Fatal("main module not found")
	}
	if main.LookupChild(schema.Leaf, "fromsub") == nil {
		t.Error("submodule's leaf should be attached onto the owning module")
	}
}

func TestParseModulesIncludeCycleFails(t *testing.T) {
	r := New(Config{})
	sources := map[string]string{
		"main": `module main {
			namespace "urn:main";
			prefix m;
			include sub;
		}`,
		"sub": `submodule sub {
			belongs-to main {
				prefix m;
			}
			include sub2;
		}`,
		"sub2": `submodule sub2 {
			belongs-to main {
				prefix m;
			}
			include sub;
		}`,
	}
	if err := r.ParseModules(sources); err == nil {
		t.Error("expected an include cycle error")
	}
}

func TestParseModulesGroupingCycleFails(t *testing.T) {
	r := New(Config{})
	err := r.ParseModule("foo", `module foo {
		namespace "urn:foo";
		prefix f;
		grouping g1 {
			uses g2;
		}
		grouping g2 {
			uses g1;
		}
		container top {
			uses g1;
		}
	}`)
	if err == nil {
		t.Error("expected a grouping cycle error")
	}
}

func TestSetImplementedSameRevisionIsIdempotent(t *testing.T) {
	r := New(Config{})
	if err := r.ParseModule("foo", `module foo {
		namespace "urn:foo";
		prefix f;
		revision 2020-01-01;
	}`); err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if err := r.SetImplemented("foo", "2020-01-01"); err != nil {
		t.Fatalf("SetImplemented: %v", err)
	}
	if err := r.SetImplemented("foo", "2020-01-01"); err != nil {
		t.Errorf("re-setting the same implemented revision should be idempotent, got %v", err)
	}
}

func TestFeatureEnabledDefaultsToAllEnabledWithoutChecker(t *testing.T) {
	r := New(Config{})
	if !r.FeatureEnabled("foo:bar") {
		t.Error("with no FeaturesChecker configured, every feature should default to enabled")
	}
}

type denyAll struct{}

func (denyAll) Enabled(string) bool { return false }

func TestFeatureEnabledConsultsConfiguredChecker(t *testing.T) {
	r := New(Config{Features: denyAll{}})
	if r.FeatureEnabled("foo:bar") {
		t.Error("expected the configured FeaturesChecker to deny this feature")
	}
}

func TestSetDeviationsEnabledTogglesAppliedFlag(t *testing.T) {
	r := New(Config{})
	sources := map[string]string{
		"target": `module target {
			namespace "urn:target";
			prefix t;
			container top {
				leaf x {
					type string;
				}
			}
		}`,
		"dev": `module dev {
			namespace "urn:dev";
			prefix d;
			import target {
				prefix t;
			}
			deviation "/t:top/t:x" {
				deviate not-supported;
			}
		}`,
	}
	if err := r.ParseModules(sources); err != nil {
		t.Fatalf("ParseModules: %v", err)
	}
	target, _ := r.GetModule("target", "")
	top := target.LookupChild(schema.Container, "top")
	if top.LookupChild(schema.Leaf, "x") != nil {
		t.Fatal("deviation should already be applied once the module is committed")
	}

	if err := r.SetDeviationsEnabled("dev", false); err != nil {
		t.Fatalf("SetDeviationsEnabled(false): %v", err)
	}
	if top.LookupChild(schema.Leaf, "x") == nil {
		t.Error("leaf x should be restored once the deviation is switched off")
	}

	if err := r.SetDeviationsEnabled("dev", true); err != nil {
		t.Fatalf("SetDeviationsEnabled(true): %v", err)
	}
	if top.LookupChild(schema.Leaf, "x") != nil {
		t.Error("leaf x should be removed again once the deviation is switched back on")
	}
}
