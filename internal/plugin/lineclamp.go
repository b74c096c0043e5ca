package plugin

import (
	"fmt"
	"strconv"

	"github.com/yacobolo/utilgen/internal/engine"
)

func init() {
	Register("utilgen/line-clamp", newLineClamp)
	Register("@tailwindcss/line-clamp", newLineClamp)
}

const defaultClampMax = 6

// lineClamp adds line-clamp-<n> and line-clamp-none.
type lineClamp struct {
	max int
}

func newLineClamp(options map[string]any) (Plugin, error) {
	p := &lineClamp{max: defaultClampMax}
	if raw, ok := options["max"]; ok {
		n, err := toInt(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("option max: expected a positive integer, got %v", raw)
		}
		p.max = n
	}
	return p, nil
}

func (p *lineClamp) Name() string { return "line-clamp" }

func (p *lineClamp) Register(api *API) error {
	api.AddUtilities(map[string][]engine.Decl{
		"line-clamp-none": {
			{Prop: "overflow", Value: "visible"},
			{Prop: "display", Value: "block"},
			{Prop: "-webkit-box-orient", Value: "horizontal"},
			{Prop: "-webkit-line-clamp", Value: "none"},
		},
	})
	api.AddFunctional(func(*engine.Engine) engine.Functional {
		return engine.Functional{Root: "line-clamp", Resolve: p.resolve}
	})
	return nil
}

func (p *lineClamp) resolve(v engine.Value) ([]engine.Fragment, bool) {
	if v.Modifier != "" || v.Raw == "" {
		return nil, false
	}
	n, err := strconv.Atoi(v.Raw)
	if err != nil || n < 1 || (!v.Arbitrary && n > p.max) {
		return nil, false
	}
	return []engine.Fragment{{Decls: []engine.Decl{
		{Prop: "overflow", Value: "hidden"},
		{Prop: "display", Value: "-webkit-box"},
		{Prop: "-webkit-box-orient", Value: "vertical"},
		{Prop: "-webkit-line-clamp", Value: strconv.Itoa(n)},
	}}}, true
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	}
	return 0, fmt.Errorf("unexpected %T", v)
}
