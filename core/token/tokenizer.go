package token

import (
	"os"
	"strconv"
	"strings"

	"github.com/qsh-sh/qsh/core/debug"
)

// Tokenize lexes a single logical line (newline already stripped) into an
// ordered token list. The caller is expected to have joined continuation
// lines; an unclosed quote here is an error.
func Tokenize(input string, env Environment) ([]Token, error) {
	t := &tokenizer{input: input, env: env}
	if err := t.run(); err != nil {
		return nil, err
	}
	debug.Logf(debug.Tokenizer, "tokenized %q into %d tokens", input, len(t.out))
	return t.out, nil
}

type tokenizer struct {
	input string
	pos   int
	env   Environment
	out   []Token
}

func (t *tokenizer) emit(kind Kind, value string) {
	t.out = append(t.out, Token{Kind: kind, Value: value})
}

func (t *tokenizer) peek(off int) byte {
	if t.pos+off < len(t.input) {
		return t.input[t.pos+off]
	}
	return 0
}

func isOperatorByte(c byte) bool {
	return c == '|' || c == '&' || c == ';' || c == '<' || c == '>'
}

func isWordBreak(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f', '#', '"', '\'', '$', '`':
		return true
	}
	return isOperatorByte(c)
}

func (t *tokenizer) run() error {
	for t.pos < len(t.input) {
		c := t.input[t.pos]

		// Whitespace separates tokens.
		if c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f' {
			t.pos++
			continue
		}

		// A comment ends the line.
		if c == '#' {
			return nil
		}

		switch {
		case c == '2' && t.peek(1) == '>':
			t.lexErrRedirection()
		case isOperatorByte(c):
			t.lexOperator()
		case c == '$':
			if err := t.lexDollar(); err != nil {
				return err
			}
		case c == '`':
			if err := t.lexBacktick(); err != nil {
				return err
			}
		case c == '!':
			if err := t.lexHistory(); err != nil {
				return err
			}
		case c == '\'':
			if err := t.lexSingleQuote(); err != nil {
				return err
			}
		case c == '"':
			if err := t.lexDoubleQuote(); err != nil {
				return err
			}
		default:
			t.lexWord()
		}
	}
	return nil
}

// lexErrRedirection handles the 2> family: 2>, 2>>, 2>&1 and 2>>&1.
func (t *tokenizer) lexErrRedirection() {
	rest := t.input[t.pos:]
	for _, form := range []string{"2>>&1", "2>&1", "2>>", "2>"} {
		if strings.HasPrefix(rest, form) {
			t.emit(Redirection, form)
			t.pos += len(form)
			return
		}
	}
}

func (t *tokenizer) lexOperator() {
	rest := t.input[t.pos:]
	switch {
	case strings.HasPrefix(rest, "&&"):
		t.emit(Operator, "&&")
		t.pos += 2
	case strings.HasPrefix(rest, "||"):
		t.emit(Operator, "||")
		t.pos += 2
	case strings.HasPrefix(rest, ">>"):
		t.emit(Redirection, ">>")
		t.pos += 2
	case strings.HasPrefix(rest, "<<"):
		t.emit(Redirection, "<<")
		t.pos += 2
	case strings.HasPrefix(rest, "&>"):
		t.emit(Redirection, "&>")
		t.pos += 2
	case rest[0] == '<' || rest[0] == '>':
		t.emit(Redirection, rest[:1])
		t.pos++
	default:
		// One of | & ;
		t.emit(Operator, rest[:1])
		t.pos++
	}
}

// lexDollar handles $?, $$, $!, ${NAME}, ${NAME:-default}, $NAME, $(...),
// $((expr)) and a bare $.
func (t *tokenizer) lexDollar() error {
	start := t.pos
	t.pos++ // consume $

	switch t.peek(0) {
	case '(':
		if t.peek(1) == '(' {
			return t.lexArith(start)
		}
		return t.lexCmdSub(start)
	case '?':
		t.pos++
		t.emit(Variable, strconv.Itoa(t.env.LastStatus()))
		return nil
	case '$':
		t.pos++
		t.emit(Variable, strconv.Itoa(os.Getpid()))
		return nil
	case '!':
		t.pos++
		t.emit(Variable, strconv.Itoa(os.Getppid()))
		return nil
	case '{':
		return t.lexBracedVar(start)
	}

	name := t.scanVarName()
	if name == "" {
		t.emit(Literal, "$")
		return nil
	}
	value, _ := t.env.LookupVar(name)
	t.emit(Variable, value)
	return nil
}

func (t *tokenizer) scanVarName() string {
	start := t.pos
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		alpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		digit := c >= '0' && c <= '9'
		if t.pos == start && !alpha {
			break
		}
		if !alpha && !digit {
			break
		}
		t.pos++
	}
	return t.input[start:t.pos]
}

func (t *tokenizer) lexBracedVar(start int) error {
	t.pos++ // consume {
	end := strings.IndexByte(t.input[t.pos:], '}')
	if end < 0 {
		return &LexError{Offset: start, Msg: "unclosed ${"}
	}
	body := t.input[t.pos : t.pos+end]
	t.pos += end + 1

	name, def, hasDefault := body, "", false
	if i := strings.Index(body, ":-"); i >= 0 {
		name, def, hasDefault = body[:i], body[i+2:], true
	}
	value, ok := t.env.LookupVar(name)
	if hasDefault && (!ok || value == "") {
		value = def
	}
	t.emit(Variable, value)
	return nil
}

// lexCmdSub scans $(...) honoring nested parentheses and backslash escapes.
func (t *tokenizer) lexCmdSub(start int) error {
	t.pos++ // consume (
	depth := 1
	var sb strings.Builder
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		switch c {
		case '\\':
			if t.pos+1 < len(t.input) {
				sb.WriteByte(c)
				sb.WriteByte(t.input[t.pos+1])
				t.pos += 2
				continue
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				t.pos++
				t.emit(CmdSub, sb.String())
				return nil
			}
		}
		sb.WriteByte(c)
		t.pos++
	}
	return &LexError{Offset: start, Msg: "unclosed command substitution"}
}

func (t *tokenizer) lexBacktick() error {
	start := t.pos
	t.pos++ // consume `
	var sb strings.Builder
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		if c == '\\' && t.pos+1 < len(t.input) {
			sb.WriteByte(t.input[t.pos+1])
			t.pos += 2
			continue
		}
		if c == '`' {
			t.pos++
			t.emit(CmdSub, sb.String())
			return nil
		}
		sb.WriteByte(c)
		t.pos++
	}
	return &LexError{Offset: start, Msg: "unclosed backquote"}
}

// lexArith scans $((expr)), evaluates it immediately and emits the decimal
// result as a literal.
func (t *tokenizer) lexArith(start int) error {
	t.pos += 2 // consume ((
	depth := 2
	exprStart := t.pos
	for t.pos < len(t.input) {
		switch t.input[t.pos] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				expr := t.input[exprStart : t.pos-1]
				t.pos++
				result, err := EvalArith(expr, func(name string) string {
					v, _ := t.env.LookupVar(name)
					return v
				})
				if err != nil {
					return &LexError{Offset: start, Msg: "bad arithmetic expression: " + err.Error()}
				}
				t.emit(Literal, strconv.FormatInt(result, 10))
				return nil
			}
		}
		t.pos++
	}
	return &LexError{Offset: start, Msg: "unclosed arithmetic expansion"}
}

// lexHistory handles the !! and !N designators: the recalled command is
// substituted in place and lexed as if the user had typed it. A ! that
// matches neither designator is emitted as a bare literal.
func (t *tokenizer) lexHistory() error {
	if t.peek(1) == '!' {
		if cmd, ok := t.env.LastCommand(); ok {
			t.pos += 2
			return t.splice(cmd)
		}
		t.pos += 2
		t.emit(Literal, "!")
		return nil
	}

	end := t.pos + 1
	for end < len(t.input) && t.input[end] >= '0' && t.input[end] <= '9' {
		end++
	}
	if end > t.pos+1 {
		n, err := strconv.Atoi(t.input[t.pos+1 : end])
		if err == nil {
			if cmd, ok := t.env.CommandAt(n); ok {
				t.pos = end
				return t.splice(cmd)
			}
		}
	}

	t.pos++
	t.emit(Literal, "!")
	return nil
}

// splice re-tokenizes substituted text and appends the resulting tokens.
func (t *tokenizer) splice(text string) error {
	sub, err := Tokenize(text, t.env)
	if err != nil {
		return err
	}
	t.out = append(t.out, sub...)
	return nil
}

func (t *tokenizer) lexSingleQuote() error {
	start := t.pos
	t.pos++ // consume '
	end := strings.IndexByte(t.input[t.pos:], '\'')
	if end < 0 {
		return &LexError{Offset: start, Msg: "unclosed single quote"}
	}
	t.emit(Quoted, t.input[t.pos:t.pos+end])
	t.pos += end + 1
	return nil
}

func (t *tokenizer) lexDoubleQuote() error {
	start := t.pos
	t.pos++ // consume "
	var sb strings.Builder
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		if c == '\\' && t.pos+1 < len(t.input) {
			next := t.input[t.pos+1]
			switch next {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '"', '\'':
				sb.WriteByte(next)
			default:
				// Unknown escapes are preserved verbatim.
				sb.WriteByte('\\')
				sb.WriteByte(next)
			}
			t.pos += 2
			continue
		}
		if c == '"' {
			t.pos++
			t.emit(Quoted, sb.String())
			return nil
		}
		sb.WriteByte(c)
		t.pos++
	}
	return &LexError{Offset: start, Msg: "unclosed double quote"}
}

// lexWord scans an unquoted literal. A backslash escapes the following byte,
// including quote characters and word breaks.
func (t *tokenizer) lexWord() {
	var sb strings.Builder
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		if c == '\\' && t.pos+1 < len(t.input) {
			sb.WriteByte(t.input[t.pos+1])
			t.pos += 2
			continue
		}
		if isWordBreak(c) {
			break
		}
		// Stop before an error-redirection form so "2>" starts a fresh
		// token, but let digits inside a word pass through.
		if c == '2' && sb.Len() == 0 && t.peek(1) == '>' {
			break
		}
		sb.WriteByte(c)
		t.pos++
	}
	if sb.Len() > 0 {
		t.emit(Literal, sb.String())
	}
}
