package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/iconpark/pkg/raster"
	"github.com/gnana997/iconpark/pkg/style"
)

// ToolNames lists the registered tools in registration order.
var ToolNames = []string{
	"list_categories",
	"search_icons",
	"get_icon",
	"get_svg",
	"get_png",
	"get_snippet",
}

func listCategoriesTool() mcp.Tool {
	return mcp.NewTool("list_categories",
		mcp.WithDescription("Returns icon category names with icon counts, sorted by name."),
	)
}

func searchIconsTool() mcp.Tool {
	return mcp.NewTool("search_icons",
		mcp.WithDescription("Finds icons whose title, name or tags contain the query (case-insensitive), optionally within one category."),
		mcp.WithString("query", mcp.Description("Search text. Empty matches every icon.")),
		mcp.WithString("category", mcp.Description(`Category name, or "all" (default).`)),
		mcp.WithNumber("limit", mcp.Description("Maximum icons returned (default 50)."), mcp.Min(1)),
	)
}

func getIconTool() mcp.Tool {
	return mcp.NewTool("get_icon",
		mcp.WithDescription("Returns the catalog record of one icon plus its component name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Kebab-case icon name, e.g. add-one.")),
	)
}

func getSVGTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Renders an icon with the given style and returns normalized SVG markup."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Kebab-case icon name.")),
	}
	return mcp.NewTool("get_svg", append(opts, styleArgs(true)...)...)
}

func getPNGTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Renders an icon and returns it as a square PNG image on a white background."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Kebab-case icon name.")),
		mcp.WithNumber("size", mcp.Description("Edge length of the image in pixels."),
			mcp.Min(raster.MinSize), mcp.Max(raster.MaxSize)),
	}
	return mcp.NewTool("get_png", append(opts, styleArgs(false)...)...)
}

func getSnippetTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Returns React or Vue code that uses the icon component with the given style."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Kebab-case icon name.")),
		mcp.WithString("framework", mcp.Required(), mcp.Enum("react", "vue")),
	}
	return mcp.NewTool("get_snippet", append(opts, styleArgs(true)...)...)
}

// styleArgs are the optional style overrides shared by the render tools.
// get_png declares its own size argument.
func styleArgs(withSize bool) []mcp.ToolOption {
	opts := []mcp.ToolOption{
		mcp.WithString("theme", mcp.Enum(
			string(style.ThemeOutline), string(style.ThemeFilled),
			string(style.ThemeTwoTone), string(style.ThemeMultiColor))),
		mcp.WithNumber("stroke_width", mcp.Min(style.MinStrokeWidth), mcp.Max(style.MaxStrokeWidth)),
		mcp.WithString("stroke_color", mcp.Description("Hex color such as #333 or #2F88FF.")),
		mcp.WithString("line_cap", mcp.Enum(
			string(style.CapButt), string(style.CapRound), string(style.CapSquare))),
		mcp.WithString("line_join", mcp.Enum(
			string(style.JoinMiter), string(style.JoinRound), string(style.JoinBevel))),
	}
	if withSize {
		opts = append(opts, mcp.WithNumber("size", mcp.Description("Icon size in pixels."),
			mcp.Min(style.MinSize), mcp.Max(style.MaxSize)))
	}
	return opts
}
