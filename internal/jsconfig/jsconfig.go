// Package jsconfig statically evaluates JavaScript and TypeScript
// configuration modules that export a plain object literal.
package jsconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Lang selects the grammar a source is parsed with.
type Lang int

// Supported grammars
const (
	JavaScript Lang = iota
	TypeScript
)

// LangForPath picks the grammar from a file extension.
func LangForPath(path string) (Lang, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".cjs", ".mjs":
		return JavaScript, true
	case ".ts", ".mts", ".cts":
		return TypeScript, true
	}
	return 0, false
}

// Module is the value of require('m') or of an imported binding. Args holds
// the arguments when the module is called as a factory: require('m')(opts).
type Module struct {
	Path   string
	Args   []any
	Called bool
}

// Regex is a regular expression literal. It is kept so callers can reject
// it with a precise message.
type Regex struct {
	Pattern string
	Flags   string
}

// SyntaxError is a parse or evaluation failure at a source position.
type SyntaxError struct {
	File   string
	Line   int // 1-based
	Column int // 1-based
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// Load reads and evaluates a configuration file.
func Load(path string) (map[string]any, error) {
	lang, ok := LangForPath(path)
	if !ok {
		return nil, fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}
	// #nosec G304 - path comes from trusted configuration
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, path, lang)
}

// Parse evaluates src and returns the exported object.
func Parse(src []byte, filename string, lang Lang) (map[string]any, error) {
	parser := ts.NewParser()
	defer parser.Close()

	var language *ts.Language
	switch lang {
	case TypeScript:
		language = ts.NewLanguage(ts_typescript.LanguageTypescript())
	default:
		language = ts.NewLanguage(ts_javascript.Language())
	}
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: parser returned nil tree", filename)
	}
	defer tree.Close()

	ev := &evaluator{src: src, file: filename, bindings: map[string]*ts.Node{}, modules: map[string]string{}}
	root := tree.RootNode()
	if root.HasError() {
		bad := firstError(root)
		return nil, ev.errorf(bad, "syntax error near %q", snippet(bad.Utf8Text(src)))
	}

	exported, err := ev.program(root)
	if err != nil {
		return nil, err
	}
	v, err := ev.eval(exported)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ev.errorf(exported, "exported configuration must be an object, got %s", describe(v))
	}
	return obj, nil
}

type evaluator struct {
	src      []byte
	file     string
	bindings map[string]*ts.Node // const x = <expr>
	modules  map[string]string   // import x from 'm', const x = require('m')
	depth    int
}

func (ev *evaluator) errorf(n *ts.Node, format string, args ...any) error {
	pos := n.StartPosition()
	return &SyntaxError{
		File:   ev.file,
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// program collects bindings and returns the exported expression.
func (ev *evaluator) program(root *ts.Node) (*ts.Node, error) {
	var exported *ts.Node
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Kind() {
		case "import_statement":
			ev.recordImport(stmt)
		case "lexical_declaration", "variable_declaration":
			ev.recordDeclarators(stmt)
		case "export_statement":
			if v := stmt.ChildByFieldName("value"); v != nil {
				exported = v
				continue
			}
			if d := stmt.ChildByFieldName("declaration"); d != nil {
				ev.recordDeclarators(d)
			}
		case "expression_statement":
			if rhs := exportAssignment(stmt, ev.src); rhs != nil {
				exported = rhs
			}
		}
	}
	if exported == nil {
		return nil, ev.errorf(root, "no exported configuration (expected module.exports = {...} or export default {...})")
	}
	return exported, nil
}

func (ev *evaluator) recordImport(stmt *ts.Node) {
	source := stmt.ChildByFieldName("source")
	if source == nil {
		return
	}
	path := stringContent(source, ev.src)
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		clause := stmt.NamedChild(i)
		if clause.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			if id := clause.NamedChild(j); id.Kind() == "identifier" {
				ev.modules[id.Utf8Text(ev.src)] = path
			}
		}
	}
}

func (ev *evaluator) recordDeclarators(decl *ts.Node) {
	for i := uint(0); i < decl.NamedChildCount(); i++ {
		d := decl.NamedChild(i)
		if d.Kind() != "variable_declarator" {
			continue
		}
		name, value := d.ChildByFieldName("name"), d.ChildByFieldName("value")
		if name == nil || value == nil || name.Kind() != "identifier" {
			continue
		}
		ident := name.Utf8Text(ev.src)
		if path, ok := ev.requirePath(value); ok {
			ev.modules[ident] = path
			continue
		}
		ev.bindings[ident] = value
	}
}

// exportAssignment matches module.exports = x and exports.default = x.
func exportAssignment(stmt *ts.Node, src []byte) *ts.Node {
	expr := stmt.NamedChild(0)
	if expr == nil || expr.Kind() != "assignment_expression" {
		return nil
	}
	left := expr.ChildByFieldName("left")
	if left == nil {
		return nil
	}
	switch left.Utf8Text(src) {
	case "module.exports", "exports.default", "module.exports.default":
		return expr.ChildByFieldName("right")
	}
	return nil
}

const maxDepth = 64

func (ev *evaluator) eval(n *ts.Node) (any, error) {
	ev.depth++
	defer func() { ev.depth-- }()
	if ev.depth > maxDepth {
		return nil, ev.errorf(n, "configuration nests too deeply")
	}

	switch n.Kind() {
	case "object":
		return ev.object(n)
	case "array":
		return ev.array(n)
	case "string":
		return stringContent(n, ev.src), nil
	case "template_string":
		return ev.template(n)
	case "number":
		return ev.number(n)
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	case "identifier":
		return ev.identifier(n)
	case "parenthesized_expression", "satisfies_expression", "as_expression",
		"non_null_expression", "type_assertion":
		inner := n.NamedChild(0)
		if inner == nil {
			return nil, ev.errorf(n, "empty expression")
		}
		return ev.eval(inner)
	case "call_expression":
		return ev.call(n)
	case "regex":
		r := Regex{}
		if p := n.ChildByFieldName("pattern"); p != nil {
			r.Pattern = p.Utf8Text(ev.src)
		}
		if f := n.ChildByFieldName("flags"); f != nil {
			r.Flags = f.Utf8Text(ev.src)
		}
		return r, nil
	case "unary_expression":
		return ev.unary(n)
	case "arrow_function", "function_expression", "function":
		return nil, ev.errorf(n, "functions are not supported in a static configuration")
	}
	return nil, ev.errorf(n, "unsupported expression %s", n.Kind())
}

func (ev *evaluator) object(n *ts.Node) (map[string]any, error) {
	out := map[string]any{}
	for _, c := range slots(n) {
		switch c.Kind() {
		case ",":
			return nil, ev.errorf(c, "syntax error: unexpected %q", ",")
		case "pair":
			key, err := ev.key(c.ChildByFieldName("key"))
			if err != nil {
				return nil, err
			}
			val := c.ChildByFieldName("value")
			if val == nil {
				return nil, ev.errorf(c, "property %q has no value", key)
			}
			v, err := ev.eval(val)
			if err != nil {
				return nil, err
			}
			out[key] = v
		case "shorthand_property_identifier":
			v, err := ev.identifier(c)
			if err != nil {
				return nil, err
			}
			out[c.Utf8Text(ev.src)] = v
		case "spread_element":
			v, err := ev.eval(c.NamedChild(0))
			if err != nil {
				return nil, err
			}
			m, ok := v.(map[string]any)
			if !ok {
				return nil, ev.errorf(c, "cannot spread %s into an object", describe(v))
			}
			for k, val := range m {
				out[k] = val
			}
		case "method_definition":
			return nil, ev.errorf(c, "functions are not supported in a static configuration")
		default:
			return nil, ev.errorf(c, "unsupported object member %s", c.Kind())
		}
	}
	return out, nil
}

// slots lists the members of a bracketed, comma separated node. The grammar
// accepts empty members, so an empty slot is returned as the comma that
// closes it. A single trailing comma is not a slot.
func slots(n *ts.Node) []*ts.Node {
	var out []*ts.Node
	empty := true
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch {
		case c.Kind() == "comment":
		case c.Kind() == ",":
			if empty {
				out = append(out, c)
			}
			empty = true
		case c.IsNamed():
			out = append(out, c)
			empty = false
		}
	}
	return out
}

func (ev *evaluator) key(k *ts.Node) (string, error) {
	if k == nil {
		return "", &SyntaxError{File: ev.file, Msg: "object member without key"}
	}
	switch k.Kind() {
	case "property_identifier", "identifier":
		return k.Utf8Text(ev.src), nil
	case "string":
		return stringContent(k, ev.src), nil
	case "number":
		v, err := ev.number(k)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return "", ev.errorf(k, "unsupported key %s", k.Kind())
}

func (ev *evaluator) array(n *ts.Node) ([]any, error) {
	out := []any{}
	for _, c := range slots(n) {
		switch c.Kind() {
		case ",":
			// hole
			out = append(out, nil)
			continue
		case "spread_element":
			v, err := ev.eval(c.NamedChild(0))
			if err != nil {
				return nil, err
			}
			arr, ok := v.([]any)
			if !ok {
				return nil, ev.errorf(c, "cannot spread %s into an array", describe(v))
			}
			out = append(out, arr...)
			continue
		}
		v, err := ev.eval(c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (ev *evaluator) template(n *ts.Node) (string, error) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c.Kind() == "template_substitution" {
			return "", ev.errorf(c, "template substitutions are not supported")
		}
	}
	text := n.Utf8Text(ev.src)
	return unescape(text[1 : len(text)-1]), nil
}

func (ev *evaluator) number(n *ts.Node) (float64, error) {
	text := strings.ReplaceAll(n.Utf8Text(ev.src), "_", "")
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, nil
	}
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return float64(i), nil
	}
	return 0, ev.errorf(n, "invalid number %q", text)
}

func (ev *evaluator) unary(n *ts.Node) (any, error) {
	op := n.ChildByFieldName("operator")
	arg := n.ChildByFieldName("argument")
	if op == nil || arg == nil {
		return nil, ev.errorf(n, "unsupported unary expression")
	}
	v, err := ev.eval(arg)
	if err != nil {
		return nil, err
	}
	f, ok := v.(float64)
	if !ok {
		return nil, ev.errorf(n, "unary %s on %s is not supported", op.Utf8Text(ev.src), describe(v))
	}
	switch op.Utf8Text(ev.src) {
	case "-":
		return -f, nil
	case "+":
		return f, nil
	}
	return nil, ev.errorf(n, "unary %s is not supported", op.Utf8Text(ev.src))
}

func (ev *evaluator) identifier(n *ts.Node) (any, error) {
	name := n.Utf8Text(ev.src)
	if path, ok := ev.modules[name]; ok {
		return Module{Path: path}, nil
	}
	if b, ok := ev.bindings[name]; ok {
		return ev.eval(b)
	}
	if name == "undefined" {
		return nil, nil
	}
	return nil, ev.errorf(n, "unresolved identifier %q", name)
}

// call handles require('m'), require('m')(opts) and imported(opts).
func (ev *evaluator) call(n *ts.Node) (any, error) {
	if path, ok := ev.requirePath(n); ok {
		return Module{Path: path}, nil
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return nil, ev.errorf(n, "unsupported call")
	}
	var callee any
	var err error
	switch {
	case fn.Kind() == "identifier":
		name := fn.Utf8Text(ev.src)
		path, ok := ev.modules[name]
		if !ok {
			return nil, ev.errorf(fn, "call of %q is not supported; only plugin modules can be called", name)
		}
		callee = Module{Path: path}
	case fn.Kind() == "call_expression":
		if callee, err = ev.call(fn); err != nil {
			return nil, err
		}
	default:
		return nil, ev.errorf(fn, "unsupported call of %s", fn.Kind())
	}
	mod, ok := callee.(Module)
	if !ok || mod.Called {
		return nil, ev.errorf(n, "only plugin modules can be called")
	}
	args, err := ev.arguments(n.ChildByFieldName("arguments"))
	if err != nil {
		return nil, err
	}
	mod.Args, mod.Called = args, true
	return mod, nil
}

func (ev *evaluator) arguments(n *ts.Node) ([]any, error) {
	if n == nil {
		return nil, nil
	}
	var out []any
	for _, c := range slots(n) {
		if c.Kind() == "," {
			return nil, ev.errorf(c, "syntax error: unexpected %q", ",")
		}
		v, err := ev.eval(c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// requirePath matches require('literal').
func (ev *evaluator) requirePath(n *ts.Node) (string, bool) {
	if n.Kind() != "call_expression" {
		return "", false
	}
	fn, args := n.ChildByFieldName("function"), n.ChildByFieldName("arguments")
	if fn == nil || args == nil || fn.Kind() != "identifier" || fn.Utf8Text(ev.src) != "require" {
		return "", false
	}
	if args.NamedChildCount() != 1 || args.NamedChild(0).Kind() != "string" {
		return "", false
	}
	return stringContent(args.NamedChild(0), ev.src), true
}

func stringContent(n *ts.Node, src []byte) string {
	text := n.Utf8Text(src)
	if len(text) < 2 {
		return text
	}
	return unescape(text[1 : len(text)-1])
}

// unescape decodes JavaScript string escapes.
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
		i++
		switch c := s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
		case 'x', 'u':
			n := 2
			if c == 'u' {
				n = 4
			}
			if c == 'u' && i+1 < len(s) && s[i+1] == '{' {
				if end := strings.IndexByte(s[i:], '}'); end > 0 {
					if r, err := strconv.ParseUint(s[i+2:i+end], 16, 32); err == nil {
						b.WriteRune(rune(r))
						i += end
						continue
					}
				}
			}
			if i+n < len(s) {
				if r, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32); err == nil {
					b.WriteRune(rune(r))
					i += n
					continue
				}
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func firstError(n *ts.Node) *ts.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c.HasError() || c.IsMissing() {
			return firstError(c)
		}
	}
	return n
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 24 {
		s = s[:24] + "..."
	}
	return s
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	case Module:
		return "a module reference"
	case Regex:
		return "a regular expression"
	}
	return fmt.Sprintf("%T", v)
}
