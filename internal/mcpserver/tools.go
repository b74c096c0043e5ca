package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

func generateStylesheetTool() mcp.Tool {
	return mcp.NewTool("generate_stylesheet",
		mcp.WithDescription("Scan the content files and generate the stylesheet without writing it. "+
			"Returns the generated classes, build stats and warnings."),
		mcp.WithBoolean("include_css",
			mcp.Description("Include the generated CSS in the response (default false)"),
		),
	)
}

func explainClassTool() mcp.Tool {
	return mcp.NewTool("explain_class",
		mcp.WithDescription("Show the CSS rules a single utility class generates, including variants, "+
			"dark mode and plugin utilities."),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("The class to explain, e.g. \"md:hover:bg-red-500\""),
		),
	)
}

func listVariantsTool() mcp.Tool {
	return mcp.NewTool("list_variants",
		mcp.WithDescription("List the variant prefixes a class can use, such as hover, md or dark. "+
			"Includes screens from the theme and variants added by plugins."),
	)
}

func listThemeTool() mcp.Tool {
	return mcp.NewTool("list_theme",
		mcp.WithDescription("List the effective theme. Without a category, returns every category with its key count; "+
			"with a category, returns its keys and values."),
		mcp.WithString("category",
			mcp.Description("Theme category such as colors, spacing or fontSize"),
		),
	)
}
