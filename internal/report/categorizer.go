package report

import (
	"strings"

	"github.com/yacobolo/utilgen/internal/engine"
)

// Category groups related CSS properties in explain output
type Category string

// Categories in display order
const (
	CategoryLayout     Category = "layout"
	CategoryVisual     Category = "visual"
	CategoryTypography Category = "typography"
	CategoryEffects    Category = "effects"
	CategoryVariables  Category = "variables" // custom properties (--x)
	CategoryVendor     Category = "vendor"    // -webkit-*, -moz-*
)

var categoryOrder = []Category{
	CategoryLayout, CategoryVisual, CategoryTypography, CategoryEffects, CategoryVariables, CategoryVendor,
}

// propertyCategories holds the exact matches; prefixes handle the rest.
var propertyCategories = map[string]Category{
	"display":  CategoryLayout,
	"position": CategoryLayout,
	"inset":    CategoryLayout,
	"top":      CategoryLayout,
	"right":    CategoryLayout,
	"bottom":   CategoryLayout,
	"left":     CategoryLayout,
	"width":    CategoryLayout,
	"height":   CategoryLayout,
	"gap":      CategoryLayout,
	"float":    CategoryLayout,
	"clear":    CategoryLayout,
	"z-index":  CategoryLayout,
	"order":    CategoryLayout,

	"color":            CategoryVisual,
	"background-color": CategoryVisual,
	"opacity":          CategoryVisual,
	"box-shadow":       CategoryVisual,
	"fill":             CategoryVisual,
	"stroke":           CategoryVisual,
	"visibility":       CategoryVisual,

	"line-height":    CategoryTypography,
	"letter-spacing": CategoryTypography,
	"white-space":    CategoryTypography,
	"word-break":     CategoryTypography,
	"vertical-align": CategoryTypography,

	"transform": CategoryEffects,
	"filter":    CategoryEffects,
	"cursor":    CategoryEffects,
}

var prefixCategories = []struct {
	prefix string
	cat    Category
}{
	{"--", CategoryVariables},
	{"-webkit-", CategoryVendor},
	{"-moz-", CategoryVendor},
	{"-ms-", CategoryVendor},
	{"flex", CategoryLayout},
	{"grid", CategoryLayout},
	{"justify-", CategoryLayout},
	{"align-", CategoryLayout},
	{"place-", CategoryLayout},
	{"margin", CategoryLayout},
	{"padding", CategoryLayout},
	{"min-", CategoryLayout},
	{"max-", CategoryLayout},
	{"overflow", CategoryLayout},
	{"inset-", CategoryLayout},
	{"row-gap", CategoryLayout},
	{"column-gap", CategoryLayout},
	{"object-", CategoryLayout},
	{"aspect-", CategoryLayout},
	{"background", CategoryVisual},
	{"border", CategoryVisual},
	{"outline", CategoryVisual},
	{"font", CategoryTypography},
	{"text-", CategoryTypography},
	{"list-", CategoryTypography},
	{"transition", CategoryEffects},
	{"animation", CategoryEffects},
	{"backdrop-", CategoryEffects},
	{"mix-blend", CategoryEffects},
	{"pointer-", CategoryEffects},
	{"user-select", CategoryEffects},
}

// categorizeProperty determines the category of a CSS property
func categorizeProperty(name string) Category {
	if cat, ok := propertyCategories[name]; ok {
		return cat
	}
	for _, p := range prefixCategories {
		if strings.HasPrefix(name, p.prefix) {
			return p.cat
		}
	}
	// Default to layout for unknown properties
	return CategoryLayout
}

// categoryGroup is one category's declarations in source order.
type categoryGroup struct {
	Category Category
	Decls    []engine.Decl
}

// groupDecls buckets decls by category. Empty categories are left out.
func groupDecls(decls []engine.Decl) []categoryGroup {
	buckets := make(map[Category][]engine.Decl)
	for _, d := range decls {
		cat := categorizeProperty(d.Prop)
		buckets[cat] = append(buckets[cat], d)
	}
	var out []categoryGroup
	for _, cat := range categoryOrder {
		if len(buckets[cat]) > 0 {
			out = append(out, categoryGroup{Category: cat, Decls: buckets[cat]})
		}
	}
	return out
}
