package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/iconpark/pkg/style"
)

// defaultConfigPath is read when --config is not given. A missing file at
// this path is not an error.
const defaultConfigPath = ".iconpark/config.yaml"

// ProjectConfig holds the contents of .iconpark/config.yaml. Environment
// variables override the file; flags override both.
type ProjectConfig struct {
	CatalogPath string       `yaml:"catalog_path" env:"ICONPARK_CATALOG"`
	IconsDir    string       `yaml:"icons_dir" env:"ICONPARK_ICONS"`
	OutputDir   string       `yaml:"output_dir" env:"ICONPARK_OUT"`
	LogLevel    string       `yaml:"log_level" env:"ICONPARK_LOG_LEVEL"`
	LogFormat   string       `yaml:"log_format" env:"ICONPARK_LOG_FORMAT"`
	MCPLog      string       `yaml:"mcp_log" env:"ICONPARK_MCP_LOG"`
	Watch       bool         `yaml:"watch" env:"ICONPARK_WATCH"`
	Style       style.Config `yaml:"style" envPrefix:"ICONPARK_STYLE_"`
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		OutputDir: ".",
		LogLevel:  "info",
		LogFormat: "text",
		Style:     style.Default(),
	}
}

// loadProjectConfig applies the config file at path and then the environment
// to the defaults. When explicit is false a missing file is ignored.
func loadProjectConfig(path string, explicit bool) (ProjectConfig, error) {
	cfg := defaultProjectConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with the persistent flags the user set.
func applyFlags(cfg *ProjectConfig, flags *pflag.FlagSet) {
	override := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	override("catalog", &cfg.CatalogPath)
	override("icons", &cfg.IconsDir)
	override("out", &cfg.OutputDir)
	override("log-level", &cfg.LogLevel)
	override("log-format", &cfg.LogFormat)
}

// styleFlags registers the style overrides shared by the render commands.
type styleFlags struct {
	size        int
	strokeWidth int
	strokeColor string
	lineCap     string
	lineJoin    string
	theme       string
}

func (sf *styleFlags) register(flags *pflag.FlagSet) {
	flags.IntVar(&sf.size, "size", 0, "icon size in pixels")
	flags.IntVar(&sf.strokeWidth, "stroke-width", 0, "stroke width")
	flags.StringVar(&sf.strokeColor, "stroke-color", "", "stroke color, e.g. #333")
	flags.StringVar(&sf.lineCap, "line-cap", "", "butt, round or square")
	flags.StringVar(&sf.lineJoin, "line-join", "", "miter, round or bevel")
	flags.StringVar(&sf.theme, "theme", "", "outline, filled, two-tone or multi-color")
}

// apply writes the flags the user set onto c.
func (sf *styleFlags) apply(flags *pflag.FlagSet, c *style.Config) error {
	if flags.Changed("size") {
		c.Size = sf.size
	}
	if flags.Changed("stroke-width") {
		c.StrokeWidth = sf.strokeWidth
	}
	if flags.Changed("stroke-color") {
		c.StrokeColor = sf.strokeColor
	}
	if flags.Changed("line-cap") {
		v, err := style.ParseLineCap(sf.lineCap)
		if err != nil {
			return err
		}
		c.LineCap = v
	}
	if flags.Changed("line-join") {
		v, err := style.ParseLineJoin(sf.lineJoin)
		if err != nil {
			return err
		}
		c.LineJoin = v
	}
	if flags.Changed("theme") {
		v, err := style.ParseTheme(sf.theme)
		if err != nil {
			return err
		}
		c.Theme = v
	}
	return nil
}
