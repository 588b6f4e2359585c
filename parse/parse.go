// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package parse

// ParseText lexes and groups input into a Stmt tree, the entry point
// ctx.Repository calls before handing the tree to a Builder.
func ParseText(input string) (*Stmt, error) {
	return parseStmts(input)
}
