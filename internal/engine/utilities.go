package engine

import (
	"strconv"
	"strings"
)

// ParseDecls parses "prop: value; prop: value" into declarations.
func ParseDecls(s string) []Decl {
	var out []Decl
	for _, part := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		out = append(out, Decl{Prop: strings.TrimSpace(prop), Value: strings.TrimSpace(val)})
	}
	return out
}

func (e *Engine) static(name, decls string) {
	e.AddStatic(LayerUtilities, name, Fragment{Decls: ParseDecls(decls)})
}

// pairs registers statics from alternating name, value arguments.
func (e *Engine) pairs(prop string, nameValues ...string) {
	for i := 0; i+1 < len(nameValues); i += 2 {
		e.static(nameValues[i], prop+": "+nameValues[i+1])
	}
}

// keyword registers name-value statics sharing one property, e.g. "cursor-pointer".
func (e *Engine) keyword(prefix, prop string, values ...string) {
	for _, v := range values {
		name := v
		if prefix != "" {
			name = prefix + "-" + v
		}
		e.static(name, prop+": "+v)
	}
}

// themed registers a functional utility that writes one theme value to props.
func (e *Engine) themed(root, category string, negatable bool, props ...string) {
	e.AddFunctional(Functional{Root: root, Negatable: negatable, Resolve: func(v Value) ([]Fragment, bool) {
		val, ok := e.ThemeValue(category, v)
		if !ok {
			return nil, false
		}
		return single(props, val), true
	}})
}

// colored registers a colour utility accepting an opacity modifier.
func (e *Engine) colored(root, category string, props ...string) {
	e.AddFunctional(Functional{Root: root, Resolve: func(v Value) ([]Fragment, bool) {
		val, ok := e.ColorValue(category, v)
		if !ok {
			return nil, false
		}
		return single(props, val), true
	}})
}

func single(props []string, val string) []Fragment {
	decls := make([]Decl, len(props))
	for i, p := range props {
		decls[i] = Decl{Prop: p, Value: val}
	}
	return []Fragment{{Decls: decls}}
}

// ThemeValue resolves v against a theme category, or takes an arbitrary value.
func (e *Engine) ThemeValue(category string, v Value) (string, bool) {
	if v.Modifier != "" && (v.Arbitrary || v.modifierArbitrary) {
		return "", false
	}
	var val string
	if v.Arbitrary {
		if guessType(v) == "color" {
			return "", false
		}
		val = v.Raw
	} else {
		key := v.Full()
		if v.IsDefault() {
			key = "DEFAULT"
		}
		tok, ok := e.theme.Lookup(category, key)
		if !ok {
			return "", false
		}
		val = tok.Value
	}
	if v.Negative {
		val = Negate(val)
	}
	return val, true
}

// ColorValue resolves a colour and applies an opacity modifier.
func (e *Engine) ColorValue(category string, v Value) (string, bool) {
	var c string
	if v.Arbitrary {
		if guessType(v) != "color" {
			return "", false
		}
		c = v.Raw
	} else {
		if v.IsDefault() {
			return "", false
		}
		tok, ok := e.theme.Lookup(category, v.Raw)
		if !ok {
			return "", false
		}
		c = tok.Value
	}
	if v.Modifier == "" {
		return c, true
	}
	alpha := v.Modifier
	if !v.modifierArbitrary {
		tok, ok := e.theme.Lookup("opacity", v.Modifier)
		if !ok {
			return "", false
		}
		alpha = tok.Value
	}
	return withAlpha(c, alpha), true
}

type sided struct {
	side  string
	props []string
}

const transitionColors = "color, background-color, border-color, text-decoration-color, fill, stroke"

const easing = "cubic-bezier(0.4, 0, 0.2, 1)"

// registerCore registers the built-in utilities. Registration order is
// output order.
func (e *Engine) registerCore() {
	e.registerContainer()
	e.static("sr-only", "position: absolute; width: 1px; height: 1px; padding: 0; margin: -1px; overflow: hidden; clip: rect(0, 0, 0, 0); white-space: nowrap; border-width: 0")
	e.static("not-sr-only", "position: static; width: auto; height: auto; padding: 0; margin: 0; overflow: visible; clip: auto; white-space: normal")
	e.keyword("pointer-events", "pointer-events", "none", "auto")
	e.static("visible", "visibility: visible")
	e.static("invisible", "visibility: hidden")
	e.keyword("", "position", "static", "fixed", "absolute", "relative", "sticky")

	e.themed("inset", "inset", true, "inset")
	e.themed("inset-x", "inset", true, "left", "right")
	e.themed("inset-y", "inset", true, "top", "bottom")
	for _, side := range []string{"top", "right", "bottom", "left"} {
		e.themed(side, "inset", true, side)
	}
	e.themed("z", "zIndex", true, "z-index")

	e.static("col-auto", "grid-column: auto")
	e.static("col-span-full", "grid-column: 1 / -1")
	e.AddFunctional(Functional{Root: "col-span", Resolve: func(v Value) ([]Fragment, bool) {
		n, ok := positiveInt(v)
		if !ok {
			return nil, false
		}
		return single([]string{"grid-column"}, "span "+n+" / span "+n), true
	}})
	e.keyword("float", "float", "right", "left", "none")
	e.keyword("clear", "clear", "left", "right", "both", "none")

	e.themed("m", "margin", true, "margin")
	e.themed("mx", "margin", true, "margin-left", "margin-right")
	e.themed("my", "margin", true, "margin-top", "margin-bottom")
	e.themed("mt", "margin", true, "margin-top")
	e.themed("mr", "margin", true, "margin-right")
	e.themed("mb", "margin", true, "margin-bottom")
	e.themed("ml", "margin", true, "margin-left")

	e.static("box-border", "box-sizing: border-box")
	e.static("box-content", "box-sizing: content-box")
	e.keyword("", "display", "block", "inline-block", "inline", "flex", "inline-flex",
		"table", "grid", "inline-grid", "contents", "flow-root", "list-item")
	e.static("hidden", "display: none")

	e.themed("h", "height", false, "height")
	e.themed("max-h", "maxHeight", false, "max-height")
	e.themed("min-h", "minHeight", false, "min-height")
	e.themed("w", "width", false, "width")
	e.themed("min-w", "minWidth", false, "min-width")
	e.themed("max-w", "maxWidth", false, "max-width")

	e.pairs("flex", "flex-1", "1 1 0%", "flex-auto", "1 1 auto", "flex-initial", "0 1 auto", "flex-none", "none")
	e.static("shrink", "flex-shrink: 1")
	e.static("shrink-0", "flex-shrink: 0")
	e.static("grow", "flex-grow: 1")
	e.static("grow-0", "flex-grow: 0")

	e.keyword("cursor", "cursor", "auto", "default", "pointer", "wait", "text", "move", "not-allowed")
	e.keyword("select", "user-select", "none", "text", "all", "auto")
	e.keyword("list", "list-style-position", "inside", "outside")
	e.keyword("list", "list-style-type", "none", "disc", "decimal")

	e.static("grid-cols-none", "grid-template-columns: none")
	e.AddFunctional(Functional{Root: "grid-cols", Resolve: func(v Value) ([]Fragment, bool) {
		if v.Arbitrary {
			return single([]string{"grid-template-columns"}, v.Raw), true
		}
		n, ok := positiveInt(v)
		if !ok {
			return nil, false
		}
		return single([]string{"grid-template-columns"}, "repeat("+n+", minmax(0, 1fr))"), true
	}})

	e.static("flex-row", "flex-direction: row")
	e.static("flex-row-reverse", "flex-direction: row-reverse")
	e.static("flex-col", "flex-direction: column")
	e.static("flex-col-reverse", "flex-direction: column-reverse")
	e.static("flex-wrap", "flex-wrap: wrap")
	e.static("flex-wrap-reverse", "flex-wrap: wrap-reverse")
	e.static("flex-nowrap", "flex-wrap: nowrap")
	e.pairs("align-items",
		"items-start", "flex-start", "items-end", "flex-end", "items-center", "center",
		"items-baseline", "baseline", "items-stretch", "stretch")
	e.pairs("justify-content",
		"justify-start", "flex-start", "justify-end", "flex-end", "justify-center", "center",
		"justify-between", "space-between", "justify-around", "space-around", "justify-evenly", "space-evenly")

	e.themed("gap", "gap", false, "gap")
	e.themed("gap-x", "gap", false, "column-gap")
	e.themed("gap-y", "gap", false, "row-gap")
	const between = "& > :not([hidden]) ~ :not([hidden])"
	for _, sp := range []struct{ root, prop string }{{"space-x", "margin-left"}, {"space-y", "margin-top"}} {
		prop := sp.prop
		e.AddFunctional(Functional{Root: sp.root, Negatable: true, Resolve: func(v Value) ([]Fragment, bool) {
			val, ok := e.ThemeValue("spacing", v)
			if !ok {
				return nil, false
			}
			return []Fragment{{Template: between, Decls: []Decl{{Prop: prop, Value: val}}}}, true
		}})
	}

	e.pairs("align-self",
		"self-auto", "auto", "self-start", "flex-start", "self-end", "flex-end",
		"self-center", "center", "self-stretch", "stretch")

	for _, axis := range []string{"", "-x", "-y"} {
		prop := "overflow" + axis
		for _, v := range []string{"auto", "hidden", "visible", "scroll"} {
			e.static("overflow"+axis+"-"+v, prop+": "+v)
		}
	}
	e.static("truncate", "overflow: hidden; text-overflow: ellipsis; white-space: nowrap")
	e.static("text-ellipsis", "text-overflow: ellipsis")
	e.static("text-clip", "text-overflow: clip")
	e.keyword("whitespace", "white-space", "normal", "nowrap", "pre", "pre-line", "pre-wrap")
	e.static("break-words", "overflow-wrap: break-word")
	e.static("break-all", "word-break: break-all")

	e.themed("rounded", "borderRadius", false, "border-radius")
	for _, c := range []sided{
		{"t", []string{"border-top-left-radius", "border-top-right-radius"}},
		{"r", []string{"border-top-right-radius", "border-bottom-right-radius"}},
		{"b", []string{"border-bottom-right-radius", "border-bottom-left-radius"}},
		{"l", []string{"border-top-left-radius", "border-bottom-left-radius"}},
		{"tl", []string{"border-top-left-radius"}},
		{"tr", []string{"border-top-right-radius"}},
		{"br", []string{"border-bottom-right-radius"}},
		{"bl", []string{"border-bottom-left-radius"}},
	} {
		e.themed("rounded-"+c.side, "borderRadius", false, c.props...)
	}

	e.themed("border", "borderWidth", false, "border-width")
	for _, c := range []sided{
		{"x", []string{"border-left-width", "border-right-width"}},
		{"y", []string{"border-top-width", "border-bottom-width"}},
		{"t", []string{"border-top-width"}},
		{"r", []string{"border-right-width"}},
		{"b", []string{"border-bottom-width"}},
		{"l", []string{"border-left-width"}},
	} {
		e.themed("border-"+c.side, "borderWidth", false, c.props...)
	}
	e.keyword("border", "border-style", "solid", "dashed", "dotted", "double", "none")
	e.colored("border", "borderColor", "border-color")

	e.colored("bg", "backgroundColor", "background-color")
	e.AddFunctional(Functional{Root: "bg", Resolve: func(v Value) ([]Fragment, bool) {
		if !v.Arbitrary || guessType(v) != "url" && v.Hint != "image" {
			return nil, false
		}
		return single([]string{"background-image"}, v.Raw), true
	}})
	e.static("bg-cover", "background-size: cover")
	e.static("bg-contain", "background-size: contain")
	e.static("bg-center", "background-position: center")
	e.static("bg-no-repeat", "background-repeat: no-repeat")
	e.colored("fill", "colors", "fill")
	e.colored("stroke", "colors", "stroke")
	e.keyword("object", "object-fit", "contain", "cover", "fill", "none", "scale-down")

	e.themed("p", "padding", false, "padding")
	e.themed("px", "padding", false, "padding-left", "padding-right")
	e.themed("py", "padding", false, "padding-top", "padding-bottom")
	e.themed("pt", "padding", false, "padding-top")
	e.themed("pr", "padding", false, "padding-right")
	e.themed("pb", "padding", false, "padding-bottom")
	e.themed("pl", "padding", false, "padding-left")

	e.keyword("text", "text-align", "left", "center", "right", "justify")

	e.AddFunctional(Functional{Root: "font", Resolve: func(v Value) ([]Fragment, bool) {
		if v.Arbitrary && v.Hint != "number" && !isNumber(v.Raw) {
			return nil, false
		}
		val, ok := e.ThemeValue("fontWeight", v)
		if !ok {
			return nil, false
		}
		return single([]string{"font-weight"}, val), true
	}})
	e.themed("font", "fontFamily", false, "font-family")

	e.AddFunctional(Functional{Root: "text", Resolve: e.fontSize})
	e.colored("text", "textColor", "color")

	e.static("uppercase", "text-transform: uppercase")
	e.static("lowercase", "text-transform: lowercase")
	e.static("capitalize", "text-transform: capitalize")
	e.static("normal-case", "text-transform: none")
	e.static("italic", "font-style: italic")
	e.static("not-italic", "font-style: normal")
	e.themed("leading", "lineHeight", false, "line-height")
	e.themed("tracking", "letterSpacing", true, "letter-spacing")
	e.static("underline", "text-decoration-line: underline")
	e.static("line-through", "text-decoration-line: line-through")
	e.static("no-underline", "text-decoration-line: none")
	e.static("antialiased", "-webkit-font-smoothing: antialiased; -moz-osx-font-smoothing: grayscale")
	e.static("subpixel-antialiased", "-webkit-font-smoothing: auto; -moz-osx-font-smoothing: auto")

	e.themed("opacity", "opacity", false, "opacity")
	e.themed("shadow", "boxShadow", false, "box-shadow")
	e.static("outline-none", "outline: 2px solid transparent; outline-offset: 2px")

	e.static("transition", "transition-property: "+transitionColors+", opacity, box-shadow, transform, filter, backdrop-filter; transition-timing-function: "+easing+"; transition-duration: 150ms")
	e.static("transition-none", "transition-property: none")
	e.static("transition-all", "transition-property: all; transition-timing-function: "+easing+"; transition-duration: 150ms")
	e.static("transition-colors", "transition-property: "+transitionColors+"; transition-timing-function: "+easing+"; transition-duration: 150ms")
	e.static("transition-opacity", "transition-property: opacity; transition-timing-function: "+easing+"; transition-duration: 150ms")
	e.static("transition-shadow", "transition-property: box-shadow; transition-timing-function: "+easing+"; transition-duration: 150ms")
	e.static("transition-transform", "transition-property: transform; transition-timing-function: "+easing+"; transition-duration: 150ms")
	e.themed("duration", "transitionDuration", false, "transition-duration")
	e.static("ease-linear", "transition-timing-function: linear")
	e.static("ease-in", "transition-timing-function: cubic-bezier(0.4, 0, 1, 1)")
	e.static("ease-out", "transition-timing-function: cubic-bezier(0, 0, 0.2, 1)")
	e.static("ease-in-out", "transition-timing-function: "+easing)

	e.static("content-none", "content: none")
	e.AddFunctional(Functional{Root: "content", Resolve: func(v Value) ([]Fragment, bool) {
		if !v.Arbitrary {
			return nil, false
		}
		return single([]string{"content"}, v.Raw), true
	}})
}

// fontSize resolves text-{size} with an optional line-height modifier.
func (e *Engine) fontSize(v Value) ([]Fragment, bool) {
	if v.IsDefault() {
		return nil, false
	}
	var size, lh string
	if v.Arbitrary {
		switch guessType(v) {
		case "length", "percentage", "absolute-size":
		default:
			return nil, false
		}
		size = v.Raw
	} else {
		tok, ok := e.theme.Lookup("fontSize", v.Raw)
		if !ok {
			return nil, false
		}
		size, lh = tok.Value, tok.LineHeight
	}
	if v.Modifier != "" {
		if v.modifierArbitrary {
			lh = v.Modifier
		} else {
			tok, ok := e.theme.Lookup("lineHeight", v.Modifier)
			if !ok {
				return nil, false
			}
			lh = tok.Value
		}
	}
	decls := []Decl{{Prop: "font-size", Value: size}}
	if lh != "" {
		decls = append(decls, Decl{Prop: "line-height", Value: lh})
	}
	return []Fragment{{Decls: decls}}, true
}

func (e *Engine) registerContainer() {
	frags := []Fragment{{Decls: []Decl{{Prop: "width", Value: "100%"}}}}
	for _, s := range e.screens {
		frags = append(frags, Fragment{
			AtRules: []string{"@media (min-width: " + s.MinWidth + ")"},
			Decls:   []Decl{{Prop: "max-width", Value: s.MinWidth}},
		})
	}
	e.AddStatic(LayerComponents, "container", frags...)
}

func positiveInt(v Value) (string, bool) {
	if v.Modifier != "" || v.IsDefault() {
		return "", false
	}
	n, err := strconv.Atoi(v.Raw)
	if err != nil || n <= 0 {
		return "", false
	}
	return v.Raw, true
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// registerPreflight adds the base reset.
func (e *Engine) registerPreflight() {
	sans := "ui-sans-serif, system-ui, sans-serif"
	if tok, ok := e.theme.Lookup("fontFamily", "sans"); ok {
		sans = tok.Value
	}
	border := "#e5e7eb"
	if tok, ok := e.theme.Lookup("colors", "gray-200"); ok {
		border = tok.Value
	}
	e.AddBase("*, ::before, ::after", ParseDecls("box-sizing: border-box; border-width: 0; border-style: solid; border-color: "+border))
	e.AddBase("html", ParseDecls("line-height: 1.5; -webkit-text-size-adjust: 100%; tab-size: 4; font-family: "+sans))
	e.AddBase("body", ParseDecls("margin: 0; line-height: inherit"))
	e.AddBase("h1, h2, h3, h4, h5, h6", ParseDecls("font-size: inherit; font-weight: inherit"))
	e.AddBase("a", ParseDecls("color: inherit; text-decoration: inherit"))
	e.AddBase("button, input, optgroup, select, textarea", ParseDecls("font-family: inherit; font-size: 100%; line-height: inherit; color: inherit; margin: 0; padding: 0"))
	e.AddBase("blockquote, dl, dd, h1, h2, h3, h4, h5, h6, hr, figure, p, pre", ParseDecls("margin: 0"))
	e.AddBase("ol, ul, menu", ParseDecls("list-style: none; margin: 0; padding: 0"))
	e.AddBase("img, svg, video, canvas, audio, iframe, embed, object", ParseDecls("display: block; vertical-align: middle"))
	e.AddBase("img, video", ParseDecls("max-width: 100%; height: auto"))
	e.AddBase("[hidden]", ParseDecls("display: none"))
}
