package theme

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// ValueError reports a theme value that cannot be converted into a token.
type ValueError struct {
	Path string
	Msg  string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// FromRaw converts a decoded descriptor value (from JS, YAML, JSON or TOML)
// into a Scale. path is used in error messages, category selects the
// tuple rules for fontSize and fontFamily.
func FromRaw(path, category string, raw any) (Scale, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, &ValueError{Path: path, Msg: fmt.Sprintf("expected an object, got %s", kindOf(raw))}
	}
	out := Scale{}
	if err := flatten(out, map[string]string{}, path, category, "", m); err != nil {
		return nil, err
	}
	return out, nil
}

// flatten walks m in key order. seen maps each token name to the path that
// set it; two paths flattening to the same name are an error.
func flatten(out Scale, seen map[string]string, path, category, prefix string, m map[string]any) error {
	for _, key := range slices.Sorted(maps.Keys(m)) {
		v := m[key]
		name := joinKey(prefix, key)
		p := path + "." + key
		if nested, ok := asMap(v); ok && !isFontSizeObject(category, nested) {
			if err := flatten(out, seen, p, category, name, nested); err != nil {
				return err
			}
			continue
		}
		if prev, ok := seen[name]; ok {
			return &ValueError{Path: p, Msg: fmt.Sprintf("key %q is also set by %s", name, prev)}
		}
		tok, err := toToken(p, category, v)
		if err != nil {
			return err
		}
		out[name] = tok
		seen[name] = p
	}
	return nil
}

// joinKey flattens nested keys: red + 500 = red-500, red + DEFAULT = red.
func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "DEFAULT":
		return prefix
	}
	return prefix + "-" + key
}

// isFontSizeObject detects {fontSize: "1rem", lineHeight: "1.5"} values
func isFontSizeObject(category string, m map[string]any) bool {
	if category != "fontSize" {
		return false
	}
	_, ok := m["fontSize"]
	return ok
}

func toToken(path, category string, v any) (Token, error) {
	if m, ok := asMap(v); ok {
		v = m
	}
	switch val := v.(type) {
	case []any:
		return tupleToken(path, category, val)
	case map[string]any:
		size, err := scalar(path+".fontSize", val["fontSize"])
		if err != nil {
			return Token{}, err
		}
		tok := Token{Value: size}
		if lh, ok := val["lineHeight"]; ok {
			if tok.LineHeight, err = scalar(path+".lineHeight", lh); err != nil {
				return Token{}, err
			}
		}
		return tok, nil
	}
	s, err := scalar(path, v)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: s}, nil
}

func tupleToken(path, category string, items []any) (Token, error) {
	switch category {
	case "fontFamily":
		parts := make([]string, 0, len(items))
		for i, item := range items {
			s, err := scalar(fmt.Sprintf("%s[%d]", path, i), item)
			if err != nil {
				return Token{}, err
			}
			parts = append(parts, s)
		}
		return Token{Value: strings.Join(parts, ", ")}, nil
	case "fontSize":
		if len(items) == 0 || len(items) > 2 {
			return Token{}, &ValueError{Path: path, Msg: "fontSize tuple must be [size] or [size, lineHeight]"}
		}
		size, err := scalar(path+"[0]", items[0])
		if err != nil {
			return Token{}, err
		}
		tok := Token{Value: size}
		if len(items) == 2 {
			lh := items[1]
			if m, ok := asMap(lh); ok {
				lh = m["lineHeight"]
			}
			if tok.LineHeight, err = scalar(path+"[1]", lh); err != nil {
				return Token{}, err
			}
		}
		return tok, nil
	}
	return Token{}, &ValueError{Path: path, Msg: "arrays are only allowed in fontSize and fontFamily"}
}

func scalar(path string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return "", &ValueError{Path: path, Msg: "empty value"}
		}
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	}
	return "", &ValueError{Path: path, Msg: fmt.Sprintf("expected a string or number, got %s", kindOf(v))}
}

// asMap normalises the map shapes produced by the different decoders.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any, map[any]any:
		return "object"
	case int, int64, uint64, float64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
