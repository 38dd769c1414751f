package parse

import (
	"fmt"
	"strings"

	"github.com/qsh-sh/qsh/core/debug"
	"github.com/qsh-sh/qsh/core/token"
)

// ParseError reports a structurally invalid token stream. The offending
// line is discarded; last_status is left unchanged.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Msg
}

// Options supplies the parser's collaborators.
type Options struct {
	// SetVar records a NAME=VALUE assignment-prefix entry.
	SetVar func(name, value string) error
	// Subshell captures the stdout of a command substitution.
	Subshell func(text string) (string, int, error)
	// Home resolves the current user's home directory for tilde
	// expansion.
	Home func() (string, bool)
	// UserHome resolves another user's home directory for ~USER.
	UserHome func(user string) (string, bool)
	// Glob expands a pattern; nil falls back to the default filesystem
	// glob.
	Glob func(pattern string) []string
}

// Parse consumes a token list and returns the head of a command chain. A
// line that consists only of variable assignments returns a nil chain.
func Parse(tokens []token.Token, opts Options) (*Command, error) {
	if opts.Home == nil {
		opts.Home = defaultHome
	}
	if opts.UserHome == nil {
		opts.UserHome = defaultUserHome
	}
	if opts.Glob == nil {
		opts.Glob = defaultGlob
	}

	tokens, err := consumeAssignments(tokens, opts)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	p := &parser{opts: opts}
	head, err := p.run(tokens)
	if err != nil {
		return nil, err
	}
	debug.Logf(debug.Parser, "parsed chain: %s", head.Text())
	return head, nil
}

// consumeAssignments lifts the NAME=VALUE prefix off the token list.
func consumeAssignments(tokens []token.Token, opts Options) ([]token.Token, error) {
	for len(tokens) > 0 {
		tok := tokens[0]
		if tok.Kind != token.Literal {
			break
		}
		eq := strings.IndexByte(tok.Value, '=')
		if eq <= 0 {
			break
		}
		name, value := tok.Value[:eq], tok.Value[eq+1:]
		if !validVarName(name) {
			break
		}
		if opts.SetVar != nil {
			if err := opts.SetVar(name, value); err != nil {
				return nil, &ParseError{Msg: err.Error()}
			}
		}
		tokens = tokens[1:]
	}
	return tokens, nil
}

func validVarName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		alpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		digit := c >= '0' && c <= '9'
		if i == 0 && !alpha {
			return false
		}
		if !alpha && !digit {
			return false
		}
	}
	return name != ""
}

type parser struct {
	opts Options
	head *Command
	cur  *Command
}

func (p *parser) run(tokens []token.Token) (*Command, error) {
	p.head = &Command{}
	p.cur = p.head

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Kind {
		case token.Literal:
			if err := p.appendExpanded(tok.Value); err != nil {
				return nil, err
			}

		case token.Quoted, token.Variable:
			if err := p.appendArg(tok.Value); err != nil {
				return nil, err
			}

		case token.CmdSub:
			out, _, err := p.opts.Subshell(tok.Value)
			if err != nil {
				return nil, &ParseError{Msg: fmt.Sprintf("command substitution: %v", err)}
			}
			if err := p.appendArg(strings.TrimRight(out, "\n")); err != nil {
				return nil, err
			}

		case token.Redirection:
			consumed, err := p.addRedirection(tok.Value, tokens[i+1:])
			if err != nil {
				return nil, err
			}
			i += consumed

		case token.Operator:
			op := chainOp(tok.Value)
			if len(p.cur.Argv) == 0 {
				return nil, &ParseError{Msg: fmt.Sprintf("syntax error near %q", tok.Value)}
			}
			p.cur.Op = op
			if i == len(tokens)-1 {
				if op == OpPipe || op == OpAnd || op == OpOr {
					return nil, &ParseError{Msg: fmt.Sprintf("%q with no right-hand side", tok.Value)}
				}
				// Trailing ; or & ends the chain cleanly.
				return p.head, nil
			}
			next := &Command{}
			p.cur.Next = next
			p.cur = next
		}
	}

	if len(p.cur.Argv) == 0 {
		if p.cur == p.head {
			// Only redirections, no command.
			return nil, &ParseError{Msg: "missing command"}
		}
		return nil, &ParseError{Msg: "operator with no right-hand side"}
	}
	return p.head, nil
}

func chainOp(value string) ChainOp {
	switch value {
	case "|":
		return OpPipe
	case "&&":
		return OpAnd
	case "||":
		return OpOr
	case "&":
		return OpBackground
	default:
		return OpNone
	}
}

// appendExpanded applies tilde then glob expansion to an unquoted word and
// appends the result.
func (p *parser) appendExpanded(word string) error {
	word = p.expandTilde(word)
	if !strings.ContainsAny(word, "*?[") {
		return p.appendArg(word)
	}
	for _, match := range p.opts.Glob(word) {
		if err := p.appendArg(match); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) appendArg(arg string) error {
	if len(p.cur.Argv) >= MaxArgs {
		return &ParseError{Msg: fmt.Sprintf("too many arguments (max %d)", MaxArgs)}
	}
	if len(p.cur.Argv) == 0 {
		p.cur.Name = arg
	}
	p.cur.Argv = append(p.cur.Argv, arg)
	return nil
}

// addRedirection consumes the target token where the form requires one and
// returns how many extra tokens were used.
func (p *parser) addRedirection(form string, rest []token.Token) (int, error) {
	if len(p.cur.Redirections) >= MaxRedirections {
		return 0, &ParseError{Msg: fmt.Sprintf("too many redirections (max %d)", MaxRedirections)}
	}

	var kind RedirKind
	needsTarget := true
	switch form {
	case "<":
		kind = InFile
	case ">":
		kind = OutFile
	case ">>":
		kind = AppendFile
	case "2>":
		kind = ErrFile
	case "2>>":
		kind = ErrAppendFile
	case "2>&1", "2>>&1":
		kind, needsTarget = ErrToOut, false
	case "&>":
		kind = BothOut
	case "<<":
		kind = HereDoc
	default:
		return 0, &ParseError{Msg: "unknown redirection " + form}
	}

	if !needsTarget {
		p.cur.Redirections = append(p.cur.Redirections, Redirection{Kind: kind})
		return 0, nil
	}

	if len(rest) == 0 || rest[0].Kind == token.Operator || rest[0].Kind == token.Redirection {
		return 0, &ParseError{Msg: fmt.Sprintf("missing target for %q", form)}
	}
	target := rest[0].Value
	if kind != HereDoc && rest[0].Kind == token.Literal {
		target = p.expandTilde(target)
	}
	p.cur.Redirections = append(p.cur.Redirections, Redirection{Kind: kind, Target: target})
	return 1, nil
}
