// Package stylesheet processes the input stylesheet: it replaces @tailwind
// directives with generated layers, registers @layer class rules as
// on-demand classes and expands @apply.
package stylesheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/yacobolo/utilgen/internal/engine"
)

// Default is the input used when no stylesheet is configured.
const Default = "@tailwind base;\n@tailwind components;\n@tailwind utilities;\n"

// Error is a failure at a line of the input stylesheet.
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// token is a lexed token with the line it starts on
type token struct {
	tt   css.TokenType
	text string
	line int
}

func (t token) is(tt css.TokenType, text string) bool {
	return t.tt == tt && t.text == text
}

func (t token) blank() bool {
	return t.tt == css.WhitespaceToken || t.tt == css.CommentToken
}

func tokenize(input string) ([]token, error) {
	lexer := css.NewLexer(parse.NewInputString(input))
	var toks []token
	line := 1
	for {
		tt, text := lexer.Next()
		if tt == css.ErrorToken {
			// ErrorToken at EOF is normal
			if err := lexer.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			break
		}
		toks = append(toks, token{tt: tt, text: string(text), line: line})
		line += strings.Count(string(text), "\n")
	}
	return toks, nil
}

func join(toks []token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.text)
	}
	return b.String()
}

// part is either verbatim text or a directive replaced at render time.
type part struct {
	text      string
	layer     engine.Layer
	directive bool
}

// Document is a prepared input stylesheet.
type Document struct {
	parts []part
}

// Directives returns the layers the document asks for, in order.
func (d *Document) Directives() []engine.Layer {
	var out []engine.Layer
	for _, p := range d.parts {
		if p.directive {
			out = append(out, p.layer)
		}
	}
	return out
}

// Render substitutes the generated layers into the document. User text is
// written as authored; minify only drops whitespace between top-level parts.
func (d *Document) Render(sheet *engine.Sheet, minify bool) string {
	var b strings.Builder
	for _, p := range d.parts {
		if p.directive {
			b.WriteString(sheet.Render(p.layer, minify))
			continue
		}
		if minify && strings.TrimSpace(p.text) == "" {
			continue
		}
		b.WriteString(p.text)
	}
	return b.String()
}

// Prepare parses input, registers its @layer rules with e and returns the
// document to render once candidates are known.
func Prepare(file, input string, e *engine.Engine) (*Document, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, &Error{File: file, Line: 1, Msg: err.Error()}
	}
	p := &parser{file: file, toks: toks, e: e}
	doc := &Document{}
	if err := p.document(doc, ""); err != nil {
		return nil, err
	}
	return doc, nil
}

// Register parses plugin CSS. @layer blocks are registered like in Prepare;
// bare class rules go to the bare layer.
func Register(file, input string, e *engine.Engine, bare engine.Layer) error {
	toks, err := tokenize(input)
	if err != nil {
		return &Error{File: file, Line: 1, Msg: err.Error()}
	}
	p := &parser{file: file, toks: toks, e: e}
	return p.document(nil, bare)
}

type parser struct {
	file string
	toks []token
	pos  int
	e    *engine.Engine
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return &Error{File: p.file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) done() bool {
	return p.pos >= len(p.toks)
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

// document walks the top level. With doc == nil every rule must be a class
// rule and is registered in the bare layer.
func (p *parser) document(doc *Document, bare engine.Layer) error {
	var text strings.Builder
	flush := func() {
		if doc != nil && text.Len() > 0 {
			doc.parts = append(doc.parts, part{text: text.String()})
		}
		text.Reset()
	}

	for !p.done() {
		t := p.next()
		switch {
		case t.blank():
			text.WriteString(t.text)
		case t.is(css.AtKeywordToken, "@tailwind"):
			layer, err := p.directive(t)
			if err != nil {
				return err
			}
			if doc == nil {
				return p.errorf(t.line, "@tailwind is not allowed in plugin CSS")
			}
			flush()
			doc.parts = append(doc.parts, part{layer: layer, directive: true})
		case t.is(css.AtKeywordToken, "@layer"):
			passthrough, err := p.layer(t)
			if err != nil {
				return err
			}
			text.WriteString(passthrough)
		case doc == nil:
			prelude, block, err := p.rule(t)
			if err != nil {
				return err
			}
			if err := p.registerRules(bare, prelude, block, nil); err != nil {
				return err
			}
		default:
			prelude, block, err := p.rule(t)
			if err != nil {
				return err
			}
			text.WriteString(join(prelude))
			if block != nil {
				body, err := p.expand(block)
				if err != nil {
					return err
				}
				text.WriteString("{" + body + "}")
			} else {
				text.WriteString(";")
			}
		}
	}
	flush()
	return nil
}

// directive reads "@tailwind <layer>;".
func (p *parser) directive(at token) (engine.Layer, error) {
	var name string
	for !p.done() {
		t := p.next()
		if t.tt == css.SemicolonToken {
			break
		}
		if t.tt == css.IdentToken {
			name = t.text
		}
	}
	layer, ok := engine.ParseLayer(name)
	if !ok {
		return "", p.errorf(at.line, "unknown @tailwind layer %q", name)
	}
	return layer, nil
}

// rule reads a prelude starting with first and its block. A statement
// ending in ';' returns a nil block.
func (p *parser) rule(first token) (prelude, block []token, err error) {
	prelude = []token{first}
	if first.tt == css.RightBraceToken {
		return nil, nil, p.errorf(first.line, "unexpected }")
	}
	if first.tt == css.LeftBraceToken {
		prelude = nil
		block, err = p.block(first)
		return prelude, block, err
	}
	for !p.done() {
		t := p.next()
		switch t.tt {
		case css.SemicolonToken:
			return prelude, nil, nil
		case css.LeftBraceToken:
			block, err = p.block(t)
			return prelude, block, err
		case css.RightBraceToken:
			return nil, nil, p.errorf(t.line, "unexpected }")
		}
		prelude = append(prelude, t)
	}
	return prelude, nil, nil
}

// block reads up to the '}' matching open, which was already consumed.
func (p *parser) block(open token) ([]token, error) {
	depth := 1
	start := p.pos
	for !p.done() {
		t := p.next()
		switch t.tt {
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			depth--
			if depth == 0 {
				return p.toks[start : p.pos-1], nil
			}
		}
	}
	return nil, p.errorf(open.line, "unclosed block")
}

// layer handles "@layer name { ... }". Rules that are not class rules are
// returned as text to keep in place.
func (p *parser) layer(at token) (string, error) {
	prelude, block, err := p.rule(at)
	if err != nil {
		return "", err
	}
	if block == nil {
		return join(prelude) + ";", nil
	}
	name := strings.TrimSpace(join(prelude[1:]))
	layer, ok := engine.ParseLayer(name)
	if !ok {
		body, err := p.expand(block)
		if err != nil {
			return "", err
		}
		return join(prelude) + "{" + body + "}", nil
	}
	if layer == engine.LayerBase {
		body, err := p.expand(block)
		if err != nil {
			return "", err
		}
		p.e.AddBaseCSS(body)
		return "", nil
	}
	sub := &parser{file: p.file, toks: block, e: p.e}
	return sub.classRules(layer, nil)
}

// classRules registers every class rule in the current token list.
func (p *parser) classRules(layer engine.Layer, atRules []string) (string, error) {
	var leftover strings.Builder
	for !p.done() {
		t := p.next()
		if t.blank() {
			continue
		}
		prelude, block, err := p.rule(t)
		if err != nil {
			return "", err
		}
		if block == nil {
			return "", p.errorf(t.line, "unexpected statement %q in @layer %s", strings.TrimSpace(join(prelude)), layer)
		}
		if t.tt == css.AtKeywordToken {
			if t.text != "@media" && t.text != "@supports" {
				return "", p.errorf(t.line, "%s is not supported inside @layer %s", t.text, layer)
			}
			sub := &parser{file: p.file, toks: block, e: p.e}
			inner, err := sub.classRules(layer, append(append([]string{}, atRules...), collapse(join(prelude))))
			if err != nil {
				return "", err
			}
			if inner != "" {
				leftover.WriteString(collapse(join(prelude)) + " {" + inner + "}")
			}
			continue
		}
		if !hasClass(prelude) {
			body, err := p.expand(block)
			if err != nil {
				return "", err
			}
			leftover.WriteString(collapse(join(prelude)) + " {" + body + "}\n")
			continue
		}
		if err := p.registerRules(layer, prelude, block, atRules); err != nil {
			return "", err
		}
	}
	return leftover.String(), nil
}

// registerRules turns one rule into a custom rule per class in its selectors.
func (p *parser) registerRules(layer engine.Layer, prelude, block []token, atRules []string) error {
	line := 0
	if len(prelude) > 0 {
		line = prelude[0].line
	}
	if block == nil {
		return p.errorf(line, "expected a rule block")
	}
	decls, err := p.decls(block)
	if err != nil {
		return err
	}
	var rules []engine.CustomRule
	for _, sel := range splitSelectors(prelude) {
		found := false
		for i := 0; i+1 < len(sel); i++ {
			if !sel[i].is(css.DelimToken, ".") || sel[i+1].tt != css.IdentToken || insideParens(sel, i) {
				continue
			}
			found = true
			tmpl := collapse(join(sel[:i]) + "&" + join(sel[i+2:]))
			rules = append(rules, engine.CustomRule{
				Class:    unescape(sel[i+1].text),
				Template: tmpl,
				AtRules:  atRules,
				Decls:    decls,
			})
		}
		if !found {
			return p.errorf(line, "selector %q has no class", collapse(join(sel)))
		}
	}
	p.e.AddCustomRules(layer, rules)
	return nil
}

// decls parses a declaration block, expanding @apply.
func (p *parser) decls(block []token) ([]engine.Decl, error) {
	var out []engine.Decl
	for _, stmt := range splitTop(block, css.SemicolonToken) {
		stmt = trimBlank(stmt)
		if len(stmt) == 0 {
			continue
		}
		if stmt[0].is(css.AtKeywordToken, "@apply") {
			applied, err := p.apply(stmt)
			if err != nil {
				return nil, err
			}
			out = append(out, applied...)
			continue
		}
		for _, t := range stmt {
			if t.tt == css.LeftBraceToken {
				return nil, p.errorf(t.line, "nested rules are not supported in class rules")
			}
		}
		colon := -1
		for i, t := range stmt {
			if t.tt == css.ColonToken {
				colon = i
				break
			}
		}
		if colon <= 0 {
			return nil, p.errorf(stmt[0].line, "invalid declaration %q", collapse(join(stmt)))
		}
		out = append(out, engine.Decl{
			Prop:  strings.TrimSpace(join(stmt[:colon])),
			Value: strings.TrimSpace(join(stmt[colon+1:])),
		})
	}
	return out, nil
}

// apply resolves "@apply a b c [!important]".
func (p *parser) apply(stmt []token) ([]engine.Decl, error) {
	names := strings.Fields(join(stmt[1:]))
	imp := false
	if n := len(names); n > 0 && names[n-1] == "!important" {
		names, imp = names[:n-1], true
	}
	if len(names) == 0 {
		return nil, p.errorf(stmt[0].line, "@apply without classes")
	}
	if imp {
		for i, n := range names {
			if !strings.HasPrefix(n, "!") {
				names[i] = "!" + n
			}
		}
	}
	decls, err := p.e.ApplyDecls(names)
	if err != nil {
		return nil, p.errorf(stmt[0].line, "%v", err)
	}
	return decls, nil
}

// expand copies a block verbatim, replacing @apply statements with their
// declarations.
func (p *parser) expand(block []token) (string, error) {
	var b strings.Builder
	for i := 0; i < len(block); i++ {
		t := block[i]
		if !t.is(css.AtKeywordToken, "@apply") {
			b.WriteString(t.text)
			continue
		}
		end := i
		for end < len(block) && block[end].tt != css.SemicolonToken && block[end].tt != css.RightBraceToken {
			end++
		}
		decls, err := p.apply(block[i:end])
		if err != nil {
			return "", err
		}
		for j, d := range decls {
			if j > 0 {
				b.WriteString("; ")
			}
			b.WriteString(d.String())
		}
		i = end - 1
	}
	return b.String(), nil
}

func splitTop(toks []token, sep css.TokenType) [][]token {
	var out [][]token
	depth, start := 0, 0
	for i, t := range toks {
		switch t.tt {
		case css.LeftParenthesisToken, css.FunctionToken, css.LeftBraceToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBraceToken, css.RightBracketToken:
			depth--
		case sep:
			if depth == 0 {
				out = append(out, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(out, toks[start:])
}

func splitSelectors(prelude []token) [][]token {
	var out [][]token
	for _, s := range splitTop(prelude, css.CommaToken) {
		if s = trimBlank(s); len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func trimBlank(toks []token) []token {
	for len(toks) > 0 && toks[0].blank() {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].blank() {
		toks = toks[:len(toks)-1]
	}
	return toks
}

func insideParens(toks []token, i int) bool {
	depth := 0
	for _, t := range toks[:i] {
		switch t.tt {
		case css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		}
	}
	return depth > 0
}

func hasClass(prelude []token) bool {
	for i := 0; i+1 < len(prelude); i++ {
		if prelude[i].is(css.DelimToken, ".") && prelude[i+1].tt == css.IdentToken {
			return true
		}
	}
	return false
}

// collapse trims and folds whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// unescape decodes CSS escapes in an identifier ("hover\:x", "\32 xl").
func unescape(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		j := i + 1
		for j < len(s) && j < i+7 && isHex(s[j]) {
			j++
		}
		if j == i+1 {
			b.WriteByte(s[j])
			i = j
			continue
		}
		var r rune
		for _, c := range s[i+1 : j] {
			r = r*16 + hexVal(byte(c))
		}
		b.WriteRune(r)
		if j < len(s) && s[j] == ' ' {
			j++
		}
		i = j - 1
	}
	return b.String()
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func hexVal(c byte) rune {
	switch {
	case c >= '0' && c <= '9':
		return rune(c - '0')
	case c >= 'a' && c <= 'f':
		return rune(c-'a') + 10
	}
	return rune(c-'A') + 10
}
