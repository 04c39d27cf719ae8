// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package lexer

import (
	"fmt"
	"strconv"
	"strings"
)

// expandString copies in, expanding macro calls and `&*N(...)`
// replications left to right. nest is the macro-nesting level: -1 for a
// top-level line, >=0 while expanding one macro call's arguments (which
// may themselves contain further macro calls, recursively, up to
// MaxMacroDepth).
func (lx *Lexer) expandString(in string, nest int) (string, error) {
	if nest >= MaxMacroDepth {
		return "", fmt.Errorf("macro nesting exceeds %d levels", MaxMacroDepth)
	}
	var out strings.Builder
	i := 0
	for i < len(in) {
		ch := in[i]
		i++

		// A literal '&' is written "&&"; any other character is copied
		// through unchanged.
		if ch != '&' {
			out.WriteByte(ch)
			continue
		}
		if i < len(in) && in[i] == '&' {
			out.WriteByte('&')
			i++
			continue
		}
		// An argument reference such as &1 (in a *define body) is kept
		// for instantiate to substitute when the macro is called.
		if i < len(in) && in[i] >= '0' && in[i] <= '9' {
			out.WriteByte('&')
			continue
		}

		var mm *Macro
		count := 1
		hadSemicolon := false

		switch {
		case i < len(in) && isAlnum(in[i]):
			start := i
			for i < len(in) && isAlnum(in[i]) {
				i++
			}
			name := in[start:i]
			if i < len(in) && in[i] == ';' {
				i++
				hadSemicolon = true
			}
			found, ok := lx.Macros.Get(name)
			if !ok {
				return "", fmt.Errorf("undefined macro %q", name)
			}
			if found == nil {
				continue // a macro explicitly defined with no replacement
			}
			mm = found

		case i < len(in) && in[i] == '*':
			i++
			start := i
			for i < len(in) && in[i] >= '0' && in[i] <= '9' {
				i++
			}
			if start == i {
				return "", fmt.Errorf("expected a count after &*")
			}
			n, _ := strconv.Atoi(in[start:i])
			count = n
			if i >= len(in) || in[i] != '(' {
				return "", fmt.Errorf("expected '(' after &*%d", count)
			}
			mm = replicateMacro

		default:
			return "", fmt.Errorf("invalid character after '&'")
		}

		// No-argument macros substitute their text verbatim.
		if len(mm.DefaultArgs) == 0 {
			out.WriteString(mm.Text)
			continue
		}

		args := make([]string, len(mm.DefaultArgs))
		haveArg := make([]bool, len(mm.DefaultArgs))

		if !hadSemicolon && i < len(in) && in[i] == '(' {
			i++
			for argIdx := 0; ; argIdx++ {
				var arg strings.Builder
				bracketDepth := 0
				inQuotes := false
				for i < len(in) {
					c := in[i]
					if c == '\n' || c == 0 {
						break
					}
					if (c == ',' || c == ')') && bracketDepth == 0 && !inQuotes {
						break
					}
					if c == '&' && i+1 < len(in) && !isAlnum(in[i+1]) && in[i+1] != '*' {
						arg.WriteByte(in[i+1])
						i += 2
						continue
					}
					if c == '"' {
						inQuotes = !inQuotes
					} else if !inQuotes {
						if c == '(' {
							bracketDepth++
						} else if c == ')' {
							bracketDepth--
						}
					}
					arg.WriteByte(c)
					i++
				}
				if argIdx >= len(args) {
					args = append(args, "")
					haveArg = append(haveArg, false)
				}
				if arg.Len() > 0 {
					args[argIdx] = arg.String()
					haveArg[argIdx] = true
				}
				if i >= len(in) || in[i] == '\n' || in[i] == 0 {
					return "", fmt.Errorf("unterminated macro argument list for %q", mm.Name)
				}
				if in[i] == ')' {
					i++
					break
				}
				i++ // skip ','
			}
			if mm == replicateMacro && len(args) > 1 {
				return "", fmt.Errorf("&* replication takes only one argument")
			}
		}

		// Recursively expand any '&' inside each supplied argument.
		for idx, a := range args {
			if haveArg[idx] && strings.ContainsRune(a, '&') {
				expanded, err := lx.expandString(a, nest+1)
				if err != nil {
					return "", err
				}
				args[idx] = expanded
			}
		}

		replacement, err := instantiate(mm, args, haveArg)
		if err != nil {
			return "", err
		}
		for n := 0; n < count; n++ {
			out.WriteString(replacement)
		}
	}
	return out.String(), nil
}

// instantiate substitutes `&n`/`&n;` argument references in mm.Text with
// the supplied argument (or the macro's own default when none was given).
func instantiate(mm *Macro, args []string, haveArg []bool) (string, error) {
	var out strings.Builder
	text := mm.Text
	i := 0
	for i < len(text) {
		if text[i] == '&' && i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '9' {
			j := i + 1
			n := 0
			for j < len(text) && text[j] >= '0' && text[j] <= '9' {
				n = n*10 + int(text[j]-'0')
				j++
			}
			if j < len(text) && text[j] == ';' {
				j++
			}
			idx := n - 1
			if idx >= 0 && idx < len(args) {
				if idx < len(haveArg) && haveArg[idx] {
					out.WriteString(args[idx])
				} else if idx < len(mm.DefaultArgs) {
					out.WriteString(mm.DefaultArgs[idx])
				}
			}
			i = j
			continue
		}
		out.WriteByte(text[i])
		i++
	}
	return out.String(), nil
}
