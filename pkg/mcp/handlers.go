package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/extract"
	"github.com/gnana997/iconpark/pkg/registry"
	"github.com/gnana997/iconpark/pkg/snippet"
	"github.com/gnana997/iconpark/pkg/style"
)

const (
	defaultSearchLimit = 50
	maxSuggestions     = 3
)

type iconSummary struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
}

type searchResult struct {
	Total int           `json:"total"`
	Icons []iconSummary `json:"icons"`
}

type iconDetails struct {
	catalog.Icon
	Component string            `json:"component"`
	HasSource bool              `json:"has_source"`
	Packages  map[string]string `json:"packages"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) handleListCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	qs, _ := s.sources()
	return jsonResult(qs.ListCategories())
}

func (s *Server) handleSearchIcons(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	qs, _ := s.sources()
	query := req.GetString("query", "")
	category := req.GetString("category", catalog.AllCategories)
	limit := req.GetInt("limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	matches := qs.Filter(query, category)
	out := searchResult{Total: len(matches), Icons: make([]iconSummary, 0, min(limit, len(matches)))}
	for _, icon := range matches {
		if len(out.Icons) == limit {
			break
		}
		out.Icons = append(out.Icons, iconSummary{
			Name:     icon.Name,
			Title:    icon.Title,
			Category: icon.Category,
			Tags:     icon.Tags,
		})
	}
	return jsonResult(out)
}

func (s *Server) handleGetIcon(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	icon, errResult := s.lookup(req)
	if errResult != nil {
		return errResult, nil
	}
	_, reg := s.sources()
	_, err := reg.Resolve(icon.Name)

	packages := make(map[string]string, len(snippet.Frameworks()))
	for _, f := range snippet.Frameworks() {
		packages[string(f)] = f.Package()
	}
	return jsonResult(iconDetails{
		Icon:      *icon,
		Component: registry.ToPascalCase(icon.Name),
		HasSource: err == nil,
		Packages:  packages,
	})
}

func (s *Server) handleGetSVG(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	icon, errResult := s.lookup(req)
	if errResult != nil {
		return errResult, nil
	}
	cfg, err := s.styleFromArgs(req, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	svg, err := s.extractor().ExtractNormalized(ctx, extract.Snapshot{Icon: icon, Style: cfg}, 0)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("render "+icon.Name, err), nil
	}
	return mcp.NewToolResultText(string(svg)), nil
}

func (s *Server) handleGetPNG(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	icon, errResult := s.lookup(req)
	if errResult != nil {
		return errResult, nil
	}
	cfg, err := s.styleFromArgs(req, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	size := req.GetInt("size", cfg.Size)

	svg, err := s.extractor().ExtractNormalized(ctx, extract.Snapshot{Icon: icon, Style: cfg}, size)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("render "+icon.Name, err), nil
	}
	png, err := s.rasterizer.Rasterize(ctx, svg, size)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("rasterize "+icon.Name, err), nil
	}

	label := fmt.Sprintf("%s.png (%dx%d)", icon.Name, size, size)
	return mcp.NewToolResultImage(label, base64.StdEncoding.EncodeToString(png), "image/png"), nil
}

func (s *Server) handleGetSnippet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	icon, errResult := s.lookup(req)
	if errResult != nil {
		return errResult, nil
	}
	framework, err := req.RequireString("framework")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := snippet.ParseFramework(framework)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg, err := s.styleFromArgs(req, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	code, err := snippet.Generate(f, *icon, cfg)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("generate snippet", err), nil
	}
	return mcp.NewToolResultText(code), nil
}

// lookup resolves the "name" argument against the catalog. Unknown names
// produce an error result with close matches.
func (s *Server) lookup(req mcp.CallToolRequest) (*catalog.Icon, *mcp.CallToolResult) {
	name, err := req.RequireString("name")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	name = strings.TrimSpace(name)

	qs, reg := s.sources()
	if icon, ok := qs.GetIcon(name); ok {
		copied := *icon
		return &copied, nil
	}

	msg := fmt.Sprintf("unknown icon %q", name)
	if suggestions := reg.Suggest(name, maxSuggestions); len(suggestions) > 0 {
		msg += "; did you mean: " + strings.Join(suggestions, ", ") + "?"
	}
	return nil, mcp.NewToolResultError(msg)
}

// styleFromArgs applies the optional style arguments to the server's base
// style. withSize is false for tools whose size argument means something else.
func (s *Server) styleFromArgs(req mcp.CallToolRequest, withSize bool) (style.Config, error) {
	cfg := s.base

	if v := req.GetString("theme", ""); v != "" {
		theme, err := style.ParseTheme(v)
		if err != nil {
			return cfg, err
		}
		cfg.Theme = theme
	}
	if v := req.GetString("line_cap", ""); v != "" {
		lineCap, err := style.ParseLineCap(v)
		if err != nil {
			return cfg, err
		}
		cfg.LineCap = lineCap
	}
	if v := req.GetString("line_join", ""); v != "" {
		lineJoin, err := style.ParseLineJoin(v)
		if err != nil {
			return cfg, err
		}
		cfg.LineJoin = lineJoin
	}
	if v := req.GetString("stroke_color", ""); v != "" {
		cfg.StrokeColor = v
	}
	cfg.StrokeWidth = req.GetInt("stroke_width", cfg.StrokeWidth)
	if withSize {
		cfg.Size = req.GetInt("size", cfg.Size)
	}
	return cfg, cfg.Validate()
}
