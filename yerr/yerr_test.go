// Copyright (c) 2017,2019, AT&T Intellectual Property. All rights reserved
//
// SPDX-License-Identifier: MPL-2.0

package yerr

import "testing"

func TestErrorIncludesPath(t *testing.T) {
	err := NewDuplicateIdentifier([]string{"a", "b"}, "data node", "foo")
	if err.Code != DuplicateIdentifier {
		t.Errorf("Code = %v, want DuplicateIdentifier", err.Code)
	}
	if err.Path == "" {
		t.Error("Path empty despite a non-empty path argument")
	}
	if got := err.Error(); got == "" {
		t.Error("Error() returned empty string")
	}
}

func TestErrorOmitsPathWhenEmpty(t *testing.T) {
	err := New(Internal, nil, "something went wrong")
	if err.Path != "" {
		t.Errorf("Path = %q, want empty", err.Path)
	}
}

func TestUnwrapReturnsMgmtError(t *testing.T) {
	err := NewUnresolvedReference(nil, "leafref", "no such node")
	if err.Unwrap() == nil {
		t.Error("Unwrap() returned nil")
	}
	if err.MgmtError() == nil {
		t.Error("MgmtError() returned nil")
	}
}

func TestCodeStringIsStable(t *testing.T) {
	cases := map[Code]string{
		DuplicateIdentifier: "DuplicateIdentifier",
		UnresolvedReference: "UnresolvedReference",
		CircularLeafref:     "CircularLeafref",
		SubmoduleOrphaned:   "SubmoduleOrphaned",
		Internal:            "Internal",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Errorf("Code(%d).String() = %q, want %q", code, got, want)
		}
	}
}

func TestConstructorsSetExpectedCode(t *testing.T) {
	cases := []struct {
		name string
		err  *LoadError
		want Code
	}{
		{"DuplicateStatement", NewDuplicateStatement(nil, "key"), DuplicateStatement},
		{"MissingRequiredChild", NewMissingRequiredChild(nil, "type"), MissingRequiredChild},
		{"UnexpectedStatement", NewUnexpectedStatement(nil, "foo"), UnexpectedStatementInContext},
		{"UnknownPrefix", NewUnknownPrefix(nil, "x"), UnknownPrefix},
		{"InvalidRange", NewInvalidRange(nil, "1..2"), InvalidRange},
		{"BitPositionOverflow", NewBitPositionOverflow(nil, 1<<33), BitPositionOverflow},
		{"EnumValueOverflow", NewEnumValueOverflow(nil, 1<<33), EnumValueOverflow},
		{"MandatoryWithDefault", NewMandatoryWithDefault(nil, "leaf"), MandatoryWithDefault},
		{"ConflictingImplementedRevision", NewConflictingImplementedRevision(nil, "m", "2020-01-01", "2021-01-01"), ConflictingImplementedRevision},
		{"DeviationOfOwnModule", NewDeviationOfOwnModule(nil, "m"), DeviationOfOwnModule},
		{"NotSupportedRemovesKey", NewNotSupportedRemovesKey(nil, "id"), NotSupportedRemovesKey},
		{"SubmoduleOrphaned", NewSubmoduleOrphaned(nil, "sub", "m"), SubmoduleOrphaned},
	}
	for _, c := range cases {
		if c.err.Code != c.want {
			t.Errorf("%s: Code = %v, want %v", c.name, c.err.Code, c.want)
		}
	}
}
