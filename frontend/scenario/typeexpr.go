package scenario

import (
	"fmt"
	"github.com/cottand/kinfer/frontend/types"
	"github.com/pkg/errors"
	lex "github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// nameResolver resolves a bare name to a type, for type parameters and placeholders.
// Names it does not know are taken to be classes.
type nameResolver func(name string) (types.Type, bool)

func noNames(string) (types.Type, bool) { return nil, false }

type tokenKind int

const (
	nameToken tokenKind = iota
	placeholderToken
	openToken
	closeToken
	commaToken
	nullableToken
	subtypeToken
	equalToken
)

type tokenRule struct {
	kind    tokenKind
	pattern string
	name    string
	skip    bool
}

var rules = []tokenRule{
	{pattern: `[ \t\n]+`, skip: true},
	{kind: subtypeToken, pattern: `<:`, name: "`<:`"},
	{kind: equalToken, pattern: `==`, name: "`==`"},
	{kind: openToken, pattern: `<`, name: "`<`"},
	{kind: closeToken, pattern: `>`, name: "`>`"},
	{kind: commaToken, pattern: `,`, name: "`,`"},
	{kind: nullableToken, pattern: `[?]`, name: "`?`"},
	{kind: placeholderToken, pattern: `[$][0-9]+`, name: "a placeholder"},
	{kind: nameToken, pattern: `[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*`, name: "a type name"},
}

var (
	lexer      *lex.Lexer
	tokenNames = make(map[tokenKind]string, len(rules))
)

func token(kind tokenKind) lex.Action {
	return func(s *lex.Scanner, m *machines.Match) (any, error) {
		return s.Token(int(kind), string(m.Bytes), m), nil
	}
}

func skip(*lex.Scanner, *machines.Match) (any, error) {
	return nil, nil
}

func init() {
	lexer = lex.NewLexer()
	for _, rule := range rules {
		action := skip
		if !rule.skip {
			action = token(rule.kind)
			tokenNames[rule.kind] = rule.name
		}
		lexer.Add([]byte(rule.pattern), action)
	}
	if err := lexer.CompileNFA(); err != nil {
		panic(err)
	}
}

func tokenize(src string) ([]*lex.Token, error) {
	scanner, err := lexer.Scanner([]byte(src))
	if err != nil {
		return nil, errors.Wrapf(err, "could not scan '%s'", src)
	}
	var tokens []*lex.Token
	for tok, err, eof := scanner.Next(); !eof; tok, err, eof = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "unexpected character in '%s'", src)
		}
		tokens = append(tokens, tok.(*lex.Token))
	}
	return tokens, nil
}

type typeParser struct {
	tokens  []*lex.Token
	pos     int
	resolve nameResolver
}

// parseType parses a type expression such as `Map<K, List<V>>?`
func parseType(src string, resolve nameResolver) (types.Type, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	t, err := parseTokens(tokens, resolve)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid type '%s'", src)
	}
	return t, nil
}

// parseConstraint parses `A <: B` or `A == B`
func parseConstraint(src string, resolve nameResolver) (lhs, rhs types.Type, equality bool, err error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, nil, false, err
	}
	op := -1
	for i, tok := range tokens {
		if kind := tokenKind(tok.Type); kind == subtypeToken || kind == equalToken {
			op = i
			break
		}
	}
	if op < 0 {
		return nil, nil, false, errors.Errorf("invalid constraint '%s': expected 'A <: B' or 'A == B'", src)
	}
	if lhs, err = parseTokens(tokens[:op], resolve); err != nil {
		return nil, nil, false, errors.Wrapf(err, "invalid constraint '%s'", src)
	}
	if rhs, err = parseTokens(tokens[op+1:], resolve); err != nil {
		return nil, nil, false, errors.Wrapf(err, "invalid constraint '%s'", src)
	}
	return lhs, rhs, tokenKind(tokens[op].Type) == equalToken, nil
}

func parseTokens(tokens []*lex.Token, resolve nameResolver) (types.Type, error) {
	p := &typeParser{tokens: tokens, resolve: resolve}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, p.unexpected("the end")
	}
	return t, nil
}

func (p *typeParser) peek(kind tokenKind) bool {
	return p.pos < len(p.tokens) && tokenKind(p.tokens[p.pos].Type) == kind
}

func (p *typeParser) unexpected(expected string) error {
	if p.pos >= len(p.tokens) {
		return errors.Errorf("expected %s, found the end", expected)
	}
	tok := p.tokens[p.pos]
	return errors.Errorf("expected %s, found %s '%s' at %d", expected, tokenNames[tokenKind(tok.Type)], tok.Value, tok.TC)
}

func (p *typeParser) parse() (types.Type, error) {
	if p.peek(placeholderToken) {
		name := p.tokens[p.pos].Value.(string)
		resolved, ok := p.resolve(name)
		if !ok {
			return nil, errors.Errorf("unknown placeholder %s", name)
		}
		p.pos++
		return resolved, nil
	}
	if !p.peek(nameToken) {
		return nil, p.unexpected(tokenNames[nameToken])
	}
	name := p.tokens[p.pos].Value.(string)
	p.pos++

	var args []types.Type
	if p.peek(openToken) {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek(commaToken) {
				p.pos++
				continue
			}
			if p.peek(closeToken) {
				p.pos++
				break
			}
			return nil, p.unexpected(fmt.Sprintf("%s or %s", tokenNames[commaToken], tokenNames[closeToken]))
		}
	}
	nullable := false
	if p.peek(nullableToken) {
		p.pos++
		nullable = true
	}

	if name == "Nothing" {
		if len(args) > 0 {
			return nil, errors.New("Nothing takes no type arguments")
		}
		return types.Nothing{Nullable: nullable}, nil
	}
	if resolved, ok := p.resolve(name); ok {
		if len(args) > 0 || nullable {
			return nil, errors.Errorf("type parameter '%s' cannot have arguments or be nullable", name)
		}
		return resolved, nil
	}
	return &types.Class{Name: name, Args: args, Nullable: nullable}, nil
}
