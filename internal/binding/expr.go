package binding

import (
	"fmt"
	"strconv"
	"strings"

	"fieldbind/internal/fieldpath"
)

const (
	modLocal    = '#'
	modNegate   = '!'
	modOneWay   = '$'
	modResource = '@'
	modParent   = '^'

	transformSigil = '='
	formatMarker   = ":%"
)

// Modifiers are the prefix flags of a reference token.
type Modifiers struct {
	Local    bool
	Negate   bool
	OneWay   bool
	Resource bool
	Parent   bool
}

// Token is one parsed source reference.
type Token struct {
	Raw  string
	Mods Modifiers

	// Path is the field path of component references.
	Path string
	// Table and Key address resource references. An empty Table means the
	// engine's default table.
	Table string
	Key   string

	// Default is used when the source has no value.
	Default *string
	// Format is the fmt verb of a format placeholder, e.g. "%.2f".
	Format string
}

// Expr is a parsed binding expression.
type Expr struct {
	Raw  string
	Kind Kind

	Sources []Token

	// Template is the positional template of format bindings: "{0} of {1}".
	Template string
	template *formatTemplate

	// FuncType qualifies FuncName in transform bindings, e.g. "Math" in
	// "=Math.Max(A, B)".
	FuncType string
	FuncName string
}

// OneWay reports whether the expression can only flow source to target.
func (e *Expr) OneWay() bool {
	if e.Kind != KindSingle {
		return true
	}

	return e.Sources[0].Mods.OneWay || e.Sources[0].Mods.Resource
}

// QualifiedFunc returns "Type.Func" or "Func".
func (e *Expr) QualifiedFunc() string {
	if e.FuncType == "" {
		return e.FuncName
	}

	return e.FuncType + "." + e.FuncName
}

// ParseExpr parses a binding expression.
func ParseExpr(s string) (*Expr, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return nil, &SyntaxError{Expr: s, Msg: "empty expression"}
	}

	if inner, ok := transformBody(text); ok {
		return parseTransform(s, inner)
	}

	if !strings.ContainsAny(text, "{}") {
		tok, err := parseToken(s, text, 0)
		if err != nil {
			return nil, err
		}

		return single(s, tok), nil
	}

	return parsePlaceholders(s, text)
}

func single(raw string, tok Token) *Expr {
	kind := KindSingle
	if tok.Mods.Resource {
		kind = KindResource
	}

	return &Expr{Raw: raw, Kind: kind, Sources: []Token{tok}}
}

// transformBody strips the sigil and one optional pair of braces.
func transformBody(text string) (string, bool) {
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") && len(text) > 2 && text[1] == transformSigil {
		return strings.TrimSpace(text[2 : len(text)-1]), true
	}

	if text[0] == transformSigil {
		return strings.TrimSpace(text[1:]), true
	}

	return "", false
}

func parseTransform(raw, body string) (*Expr, error) {
	open := strings.IndexByte(body, '(')
	if open < 0 || !strings.HasSuffix(body, ")") {
		return nil, &SyntaxError{Expr: raw, Msg: "transform needs Func(args)"}
	}

	name := strings.TrimSpace(body[:open])

	e := &Expr{Raw: raw, Kind: KindTransform}

	if typ, fn, ok := strings.Cut(name, "."); ok {
		e.FuncType, e.FuncName = typ, fn
	} else {
		e.FuncName = name
	}

	if !isIdent(e.FuncName) || (e.FuncType != "" && !isIdent(e.FuncType)) {
		return nil, &SyntaxError{Expr: raw, Msg: fmt.Sprintf("bad function name %q", name)}
	}

	args := strings.TrimSpace(body[open+1 : len(body)-1])
	if args == "" {
		return e, nil
	}

	offset := open + 1
	for arg := range strings.SplitSeq(args, ",") {
		tok, err := parseToken(raw, strings.TrimSpace(arg), offset)
		if err != nil {
			return nil, err
		}

		e.Sources = append(e.Sources, tok)
		offset += len(arg) + 1
	}

	return e, nil
}

func parsePlaceholders(raw, text string) (*Expr, error) {
	var (
		tmpl   strings.Builder
		tokens []Token
		spans  int
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			tmpl.WriteString("{{")
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			tmpl.WriteString("}}")
			i++
		case c == '}':
			return nil, &SyntaxError{Expr: raw, Offset: i, Msg: "unmatched '}'"}
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, &SyntaxError{Expr: raw, Offset: i, Msg: "unterminated placeholder"}
			}

			content := text[i+1 : i+1+end]
			if strings.ContainsRune(content, '{') {
				return nil, &SyntaxError{Expr: raw, Offset: i, Msg: "nested '{'"}
			}

			body, format := content, ""
			if at := strings.Index(content, formatMarker); at >= 0 {
				body, format = content[:at], content[at+1:]
			}

			tok, err := parseToken(raw, strings.TrimSpace(body), i+1)
			if err != nil {
				return nil, err
			}

			tok.Format = format

			tmpl.WriteByte('{')
			tmpl.WriteString(strconv.Itoa(len(tokens)))

			if format != "" {
				tmpl.WriteByte(':')
				tmpl.WriteString(format)
			}

			tmpl.WriteByte('}')

			tokens = append(tokens, tok)

			if i == 0 && i+1+end == len(text)-1 {
				spans++
			}

			i += end + 1
		default:
			tmpl.WriteByte(c)
		}
	}

	if len(tokens) == 0 {
		return nil, &SyntaxError{Expr: raw, Msg: "no recognizable path"}
	}

	if len(tokens) == 1 && spans == 1 && tokens[0].Format == "" {
		return single(raw, tokens[0]), nil
	}

	ft, err := compileTemplate(tmpl.String())
	if err != nil {
		return nil, &SyntaxError{Expr: raw, Msg: err.Error()}
	}

	return &Expr{
		Raw:      raw,
		Kind:     KindFormat,
		Sources:  tokens,
		Template: ft.text,
		template: ft,
	}, nil
}

func parseToken(raw, text string, offset int) (Token, error) {
	tok := Token{Raw: text}

	i := 0
loop:
	for ; i < len(text); i++ {
		var flag *bool

		switch text[i] {
		case modLocal:
			flag = &tok.Mods.Local
		case modNegate:
			flag = &tok.Mods.Negate
		case modOneWay:
			flag = &tok.Mods.OneWay
		case modResource:
			flag = &tok.Mods.Resource
		case modParent:
			flag = &tok.Mods.Parent
		default:
			break loop
		}

		if *flag {
			return Token{}, &SyntaxError{Expr: raw, Offset: offset + i, Msg: fmt.Sprintf("duplicate modifier %q", text[i])}
		}

		*flag = true
	}

	rest := text[i:]
	if path, def, ok := strings.Cut(rest, ":"); ok {
		rest = path
		tok.Default = &def
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Token{}, &SyntaxError{Expr: raw, Offset: offset + i, Msg: "no recognizable path"}
	}

	if tok.Mods.Resource {
		if tok.Mods.Local || tok.Mods.Parent {
			return Token{}, &SyntaxError{Expr: raw, Offset: offset, Msg: "resource references take no scope modifier"}
		}

		table, key, qualified := strings.Cut(rest, "/")
		if !qualified {
			table, key = "", rest
		}

		if key == "" || (qualified && table == "") || strings.ContainsAny(rest, " \t") {
			return Token{}, &SyntaxError{Expr: raw, Offset: offset + i, Msg: fmt.Sprintf("bad resource reference %q", rest)}
		}

		tok.Table, tok.Key = table, key

		return tok, nil
	}

	if _, err := fieldpath.ParsePath(rest); err != nil {
		return Token{}, &SyntaxError{Expr: raw, Offset: offset + i, Msg: err.Error()}
	}

	tok.Path = rest

	return tok, nil
}

func isIdent(s string) bool {
	_, err := fieldpath.ParsePath(s)
	return err == nil && !strings.Contains(s, ".")
}

type templatePart struct {
	literal string
	index   int // -1 for literal parts
	verb    string
}

// formatTemplate is a compiled positional template.
type formatTemplate struct {
	text  string
	parts []templatePart
}

func compileTemplate(text string) (*formatTemplate, error) {
	ft := &formatTemplate{text: text}

	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			ft.parts = append(ft.parts, templatePart{literal: lit.String(), index: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch {
		case (c == '{' || c == '}') && i+1 < len(text) && text[i+1] == c:
			lit.WriteByte(c)
			i++
		case c == '{':
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated placeholder at %d", i)
			}

			spec := text[i+1 : i+end]
			num, verb, _ := strings.Cut(spec, ":")

			idx, err := strconv.Atoi(num)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("bad placeholder index %q", num)
			}

			flush()
			ft.parts = append(ft.parts, templatePart{index: idx, verb: verb})
			i += end
		default:
			lit.WriteByte(c)
		}
	}

	flush()

	return ft, nil
}

// Render substitutes values. Missing values, or nil ones, render empty.
func (ft *formatTemplate) Render(values []any) string {
	var b strings.Builder

	for _, p := range ft.parts {
		switch {
		case p.index < 0:
			b.WriteString(p.literal)
		case p.index >= len(values) || values[p.index] == nil:
		case p.verb != "":
			fmt.Fprintf(&b, p.verb, values[p.index])
		default:
			fmt.Fprint(&b, values[p.index])
		}
	}

	return b.String()
}
