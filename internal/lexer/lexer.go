// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package lexer is the line-oriented source front end: it reads physical
// lines, joins `&&&` continuations, strips `@` comments, expands macros
// (including `&*N(...)` replication), and dispatches preprocessor lines
// (`*if`/`*fi`/`*include`/`*define`) while tracking nested skip state. The
// header and stave parsers share one Lexer and drive it character by
// character through NextC.
package lexer

import (
	"bufio"
	"io"
	"strings"

	"github.com/ellisgrant/pmw/internal/otree"
)

// ENDFILE is the sentinel NextC returns once the outermost input file is
// exhausted.
const ENDFILE = -1

// MaxMacroDepth bounds macro expansion nesting (including &* replication).
const MaxMacroDepth = 20

// MaxIncludeDepth bounds how many files may be stacked via *include.
const MaxIncludeDepth = 10

// Macro is one named macro's definition: up to MaxMacroArgs default
// argument strings (an empty string is an empty default, substituted when
// a call gives no argument) and a replacement template using `&n` / `&n;`
// argument references.
type Macro struct {
	Name         string
	DefaultArgs  []string // length is the macro's declared argument count
	Text         string
}

// MaxMacroArgs bounds how many arguments a *define may declare.
const MaxMacroArgs = 20

// replicateMacro is the pseudo-macro &*N(text) shares expansion code with:
// one argument, replacement text "&1".
var replicateMacro = &Macro{Name: "*", DefaultArgs: []string{""}, Text: "&1"}

type includeFrame struct {
	name       string
	reader     *bufio.Reader
	lineNumber int
	okDepth    int
}

// Lexer owns the input-line buffers and the include-file stack. Only one
// input file is actively read at a time; *include stacks the current one.
type Lexer struct {
	Macros *otree.Tree[*Macro]

	line    string // current logical line, including trailing '\n'
	rawLine string // pre-macro-expansion copy of line, used for error context
	prevLine string // previous logical line, kept for error context

	pos  int // read index into line
	c    rune

	lineNumber int
	filename   string
	reader     *bufio.Reader

	stack []includeFrame

	okDepth   int
	skipDepth int

	// OpenInclude resolves and opens the path named by a *include
	// directive. The lexer itself has no filesystem dependency; the
	// owning parser context supplies this callback. With no callback set,
	// *include is an error.
	OpenInclude func(path string) (io.Reader, error)

	Errors ErrorReporter
}

// ErrorReporter receives lexer diagnostics; the parser packages plug in
// their shared diagnostic sink here.
type ErrorReporter interface {
	Errorf(format string, args ...interface{})
}

// New returns a Lexer reading from r, identified as filename in
// diagnostics.
func New(filename string, r io.Reader, errs ErrorReporter) *Lexer {
	return &Lexer{
		Macros:   otree.New[*Macro](),
		filename: filename,
		reader:   bufio.NewReader(r),
		Errors:   errs,
	}
}

func (lx *Lexer) errorf(format string, args ...interface{}) {
	if lx.Errors != nil {
		lx.Errors.Errorf(format, args...)
	}
}

// readPhysicalLine reads one line of text (including its newline, or
// synthesizing one at EOF-without-newline) into lx.line. It returns false
// when the current file is exhausted.
func (lx *Lexer) readPhysicalLine() bool {
	text, err := lx.reader.ReadString('\n')
	if text == "" && err != nil {
		return false
	}
	if strings.ContainsRune(text, 0) {
		lx.errorf("binary zero discarded from input")
		text = strings.ReplaceAll(text, "\x00", "")
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	lx.lineNumber++
	lx.prevLine = lx.line
	lx.line = text
	return true
}

// PrevLine returns the previous logical line, for error messages that
// need to show context from just before the offending one.
func (lx *Lexer) PrevLine() string { return lx.prevLine }

// handleContinuation joins further physical lines while the current
// logical line ends in "&&&\n": the marker is dropped and the next
// physical line is appended directly, with no newline between them.
func (lx *Lexer) handleContinuation() {
	for len(lx.line) >= 4 && lx.line[len(lx.line)-4:len(lx.line)-1] == "&&&" {
		kept := lx.line[:len(lx.line)-4]
		if !lx.readPhysicalLine() {
			lx.line = kept + "\n"
			return
		}
		lx.line = kept + lx.line
	}
}

// stripComment removes a trailing `@...` comment (outside quotes),
// trimming any preceding whitespace, and replaces it with the line's
// terminating newline.
func stripComment(line string) string {
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '"' {
			inQuotes = !inQuotes
		} else if !inQuotes && c == '@' {
			j := i
			for j > 0 && (line[j-1] == ' ' || line[j-1] == '\t') {
				j--
			}
			return line[:j] + "\n"
		}
	}
	return line
}

// expandMacros strips any trailing comment, and if the line contains an
// '&', swaps it into the raw-line buffer and runs macro expansion into a
// fresh line buffer.
func (lx *Lexer) expandMacros() {
	lx.line = stripComment(lx.line)
	if !strings.ContainsRune(lx.line, '&') {
		return
	}
	lx.rawLine = lx.line
	out, err := lx.expandString(lx.rawLine, -1)
	if err != nil {
		lx.errorf("%v", err)
	}
	lx.line = out
}

// handlePreprocessing inspects a freshly-read logical line for a leading
// (ignoring spaces/tabs) '*' preprocessor directive, processes it, and
// resets the line to empty; otherwise it leaves the line untouched unless
// skipDepth is active, in which case the whole line is treated as blank.
func (lx *Lexer) handlePreprocessing() {
	i := 0
	for i < len(lx.line) && (lx.line[i] == ' ' || lx.line[i] == '\t') {
		i++
	}
	skip := false
	if i < len(lx.line) && lx.line[i] == '*' {
		i++
		start := i
		for i < len(lx.line) && isAlpha(lx.line[i]) {
			i++
		}
		if i == start {
			lx.errorf("expected a preprocessor directive name after '*'")
		} else {
			lx.processDirective(lx.line[start:i], lx.line[i:])
		}
		skip = true
	} else {
		skip = lx.skipDepth > 0
	}
	if skip {
		lx.pos = len(lx.line)
	} else {
		lx.pos = 0
	}
	lx.c = '\n'
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// processDirective runs one *name rest preprocessor directive.
func (lx *Lexer) processDirective(name, rest string) {
	rest = strings.TrimLeft(rest, " \t")
	rest = strings.TrimRight(rest, "\n")
	switch name {
	case "if":
		if lx.skipDepth > 0 {
			lx.skipDepth++
			return
		}
		if evalCondition(rest) {
			lx.okDepth++
		} else {
			lx.skipDepth++
		}
	case "else":
		switch {
		case lx.skipDepth > 1:
			// still inside an outer skip
		case lx.skipDepth == 1:
			lx.skipDepth = 0
			lx.okDepth++
		case lx.okDepth > 0:
			lx.okDepth--
			lx.skipDepth = 1
		default:
			lx.errorf("*else without matching *if")
		}
	case "fi":
		switch {
		case lx.skipDepth > 0:
			lx.skipDepth--
		case lx.okDepth > 0:
			lx.okDepth--
		default:
			lx.errorf("*fi without matching *if")
		}
	case "define":
		if lx.skipDepth == 0 {
			lx.define(rest)
		}
	case "include":
		if lx.skipDepth == 0 {
			lx.include(strings.Trim(rest, "\""))
		}
	default:
		lx.errorf("unknown preprocessor directive *%s", name)
	}
}

// evalCondition supports a bare macro name (true if defined, by
// convention set to a non-empty/non-zero value) and the negated form
// "!name".
func evalCondition(expr string) bool {
	expr = strings.TrimSpace(expr)
	negate := false
	if strings.HasPrefix(expr, "!") {
		negate = true
		expr = expr[1:]
	}
	result := expr != "" && expr != "0"
	if negate {
		return !result
	}
	return result
}

// define registers a macro from a "name(arg,arg,...) = text"-shaped
// *define body (the '=' is optional). Each parenthesised item is that
// argument's default; an empty item gives an empty default.
func (lx *Lexer) define(body string) {
	name, rest, ok := cutIdentifier(body)
	if !ok {
		lx.errorf("bad macro name in *define")
		return
	}
	var args []string
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			lx.errorf("unterminated argument list in *define %s", name)
			return
		}
		for _, a := range strings.Split(rest[1:end], ",") {
			args = append(args, strings.TrimSpace(a))
		}
		if len(args) > MaxMacroArgs {
			lx.errorf("macro %s declares more than %d arguments", name, MaxMacroArgs)
			return
		}
		rest = rest[end+1:]
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, "=")
	lx.Macros.Set(name, &Macro{Name: name, DefaultArgs: args, Text: strings.TrimSpace(rest)})
}

func cutIdentifier(s string) (name, rest string, ok bool) {
	i := 0
	for i < len(s) && isAlnum(s[i]) {
		i++
	}
	if i == 0 {
		return "", s, false
	}
	return s[:i], s[i:], true
}

func isAlnum(b byte) bool {
	return isAlpha(b) || (b >= '0' && b <= '9')
}

// include pushes the current file onto the stack and starts reading path,
// resolved through the OpenInclude callback.
func (lx *Lexer) include(path string) {
	if len(lx.stack) >= MaxIncludeDepth {
		lx.errorf("*include nesting exceeds %d files", MaxIncludeDepth)
		return
	}
	if lx.OpenInclude == nil {
		lx.errorf("*include is not available for this input")
		return
	}
	r, err := lx.OpenInclude(path)
	if err != nil {
		lx.errorf("*include %s: %v", path, err)
		return
	}
	lx.PushInclude(path, r)
}

// PushInclude switches the lexer onto a newly-opened include file,
// stacking the current one to resume at EOF.
func (lx *Lexer) PushInclude(filename string, r io.Reader) {
	lx.stack = append(lx.stack, includeFrame{
		name:       lx.filename,
		reader:     lx.reader,
		lineNumber: lx.lineNumber,
		okDepth:    lx.okDepth,
	})
	lx.filename = filename
	lx.reader = bufio.NewReader(r)
	lx.lineNumber = 0
	lx.okDepth = 0
	lx.skipDepth = 0
}

func (lx *Lexer) popInclude() bool {
	if len(lx.stack) == 0 {
		return false
	}
	top := lx.stack[len(lx.stack)-1]
	lx.stack = lx.stack[:len(lx.stack)-1]
	lx.filename = top.name
	lx.reader = top.reader
	lx.lineNumber = top.lineNumber
	lx.okDepth = top.okDepth
	lx.skipDepth = 0
	return true
}

// NextC advances to and returns the next input character, joining
// continuations, expanding macros, and dispatching preprocessor lines and
// included files transparently. It returns ENDFILE once the outermost
// file is exhausted with no unclosed *if or pending *include.
func (lx *Lexer) NextC() rune {
	for {
		if lx.pos < len(lx.line) {
			lx.c = rune(lx.line[lx.pos])
			lx.pos++
			return lx.c
		}
		for {
			if lx.readPhysicalLine() {
				lx.handleContinuation()
				if lx.skipDepth <= 0 {
					lx.expandMacros()
				}
				break
			}
			if lx.skipDepth > 0 || lx.okDepth > 0 {
				lx.errorf("missing *fi at end of file %s", lx.filename)
				lx.skipDepth, lx.okDepth = 0, 0
			}
			if !lx.popInclude() {
				lx.c = ENDFILE
				return lx.c
			}
		}
		lx.handlePreprocessing()
	}
}

// NextWord consumes an identifier ([A-Za-z][A-Za-z0-9_]*) starting at the
// current character, returning it lowercased and leaving lx.c on the
// first non-identifier character. Directive and macro names are
// case-insensitive; callers that care about case (the note parser) read
// characters directly instead.
func (lx *Lexer) NextWord() string {
	lx.SkipSignificant()
	if !isAlpha(byte(lx.c)) {
		return ""
	}
	var sb strings.Builder
	for isAlnum(byte(lx.c)) || lx.c == '_' {
		c := lx.c
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		sb.WriteRune(c)
		lx.NextC()
	}
	return sb.String()
}

// SkipSignificant skips spaces and tabs (not newlines), landing lx.c on
// the first significant character.
func (lx *Lexer) SkipSignificant() {
	for lx.c == ' ' || lx.c == '\t' {
		lx.NextC()
	}
}

// C returns the current character without advancing.
func (lx *Lexer) C() rune { return lx.c }

// Position reports the current file name and line number for error
// messages.
func (lx *Lexer) Position() (string, int) {
	return lx.filename, lx.lineNumber
}

// RawLine returns the pre-macro-expansion text of the current logical
// line, for error reflection ("the offending input line ... reprinted").
func (lx *Lexer) RawLine() string {
	if lx.rawLine != "" {
		return lx.rawLine
	}
	return lx.line
}
