// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package parse

import "strings"

// unquoteDouble applies the escape-sequence rules of spec.md §4.3 to the
// body of a double-quoted string: \n -> LF, \t -> HT, \\ -> \, \" -> ",
// any other \X is literal (backslash and X both kept).
func unquoteDouble(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// stripIndent applies RFC 6020 §6.1.3: after escape handling, every line
// after the first has up to `indent` leading columns removed, where a tab
// counts as eight spaces; any residual (non-column) leading whitespace is
// preserved.
func stripIndent(s string, indent int) string {
	if indent <= 0 || !strings.Contains(s, "\n") {
		return s
	}
	lines := strings.Split(s, "\n")
	for li := 1; li < len(lines); li++ {
		lines[li] = stripLineIndent(lines[li], indent)
	}
	return strings.Join(lines, "\n")
}

func stripLineIndent(line string, indent int) string {
	col := 0
	i := 0
	for i < len(line) && col < indent {
		switch line[i] {
		case ' ':
			col++
		case '\t':
			col += 8 - (col % 8)
			if col > indent {
				// Tab overshoots the indent column: the residual spaces
				// implied by the overshoot are preserved as real spaces.
				overshoot := col - indent
				return strings.Repeat(" ", overshoot) + line[i+1:]
			}
		default:
			return line[i:]
		}
		i++
	}
	return line[i:]
}

// unquoteSingle passes a single-quoted string through verbatim (spec.md
// §4.3: "Single-quoted strings are passed through verbatim").
func unquoteSingle(s string) string { return s }
