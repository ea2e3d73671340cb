// Package style holds the user-adjustable rendering parameters of an icon
// and the theme color conventions of the icon library.
package style

import (
	"errors"
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Theme selects how the four color slots of an icon are filled.
type Theme string

const (
	ThemeOutline    Theme = "outline"
	ThemeFilled     Theme = "filled"
	ThemeTwoTone    Theme = "two-tone"
	ThemeMultiColor Theme = "multi-color"
)

// LineCap is the SVG stroke-linecap value.
type LineCap string

const (
	CapButt   LineCap = "butt"
	CapRound  LineCap = "round"
	CapSquare LineCap = "square"
)

// LineJoin is the SVG stroke-linejoin value.
type LineJoin string

const (
	JoinMiter LineJoin = "miter"
	JoinRound LineJoin = "round"
	JoinBevel LineJoin = "bevel"
)

// Bounds of the numeric parameters.
const (
	MinSize        = 16
	MaxSize        = 128
	MinStrokeWidth = 1
	MaxStrokeWidth = 10
)

// Library color conventions. Icon sources are authored with these four
// colors in slots 0..3 (outer stroke, outer fill, inner stroke, inner fill).
const (
	DefaultStroke      = "#333"
	DefaultAccent      = "#2F88FF"
	DefaultInnerStroke = "#FFF"
	DefaultInnerFill   = "#43CCF8"
)

// ErrInvalid is returned by Validate and the Parse helpers.
var ErrInvalid = errors.New("invalid style")

// Config is the set of parameters applied when rendering an icon.
type Config struct {
	Size        int      `json:"size" yaml:"size" env:"SIZE"`
	StrokeWidth int      `json:"strokeWidth" yaml:"stroke_width" env:"STROKE_WIDTH"`
	StrokeColor string   `json:"strokeColor" yaml:"stroke_color" env:"STROKE_COLOR"`
	LineCap     LineCap  `json:"lineCap" yaml:"line_cap" env:"LINE_CAP"`
	LineJoin    LineJoin `json:"lineJoin" yaml:"line_join" env:"LINE_JOIN"`
	Theme       Theme    `json:"theme" yaml:"theme" env:"THEME"`
}

// Default returns the initial style of a session.
func Default() Config {
	return Config{
		Size:        36,
		StrokeWidth: 4,
		StrokeColor: DefaultStroke,
		LineCap:     CapRound,
		LineJoin:    JoinRound,
		Theme:       ThemeOutline,
	}
}

// Reset restores c to Default().
func (c *Config) Reset() {
	*c = Default()
}

// Clamped returns a copy with Size and StrokeWidth forced into their bounds.
func (c Config) Clamped() Config {
	c.Size = clamp(c.Size, MinSize, MaxSize)
	c.StrokeWidth = clamp(c.StrokeWidth, MinStrokeWidth, MaxStrokeWidth)
	return c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Validate reports every out-of-range or unknown field.
func (c Config) Validate() error {
	var errs []error
	if c.Size < MinSize || c.Size > MaxSize {
		errs = append(errs, fmt.Errorf("size %d out of range [%d, %d]", c.Size, MinSize, MaxSize))
	}
	if c.StrokeWidth < MinStrokeWidth || c.StrokeWidth > MaxStrokeWidth {
		errs = append(errs, fmt.Errorf("stroke width %d out of range [%d, %d]", c.StrokeWidth, MinStrokeWidth, MaxStrokeWidth))
	}
	if err := ValidateColor(c.StrokeColor); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLineCap(string(c.LineCap)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLineJoin(string(c.LineJoin)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseTheme(string(c.Theme)); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// ValidateColor accepts #rgb and #rrggbb hex colors.
func ValidateColor(s string) error {
	if _, err := colorful.Hex(s); err != nil {
		return fmt.Errorf("%w: stroke color %q is not a hex color", ErrInvalid, s)
	}
	return nil
}

// ParseTheme converts user input to a Theme.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeOutline, ThemeFilled, ThemeTwoTone, ThemeMultiColor:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown theme %q", ErrInvalid, s)
}

// ParseLineCap converts user input to a LineCap.
func ParseLineCap(s string) (LineCap, error) {
	switch c := LineCap(strings.ToLower(strings.TrimSpace(s))); c {
	case CapButt, CapRound, CapSquare:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown line cap %q", ErrInvalid, s)
}

// ParseLineJoin converts user input to a LineJoin.
func ParseLineJoin(s string) (LineJoin, error) {
	switch j := LineJoin(strings.ToLower(strings.TrimSpace(s))); j {
	case JoinMiter, JoinRound, JoinBevel:
		return j, nil
	}
	return "", fmt.Errorf("%w: unknown line join %q", ErrInvalid, s)
}

// FillValues returns the fill prop passed to the icon component:
// one color for outline and filled, [stroke, accent] for two-tone,
// [stroke, accent, inner-stroke, inner-fill] for multi-color.
func (c Config) FillValues() []string {
	switch c.Theme {
	case ThemeTwoTone:
		return []string{c.StrokeColor, DefaultAccent}
	case ThemeMultiColor:
		return []string{c.StrokeColor, DefaultAccent, DefaultInnerStroke, DefaultInnerFill}
	default:
		return []string{c.StrokeColor}
	}
}

// Palette returns the colors substituted into slots 0..3 of an icon source.
func (c Config) Palette() [4]string {
	fill := c.FillValues()
	switch c.Theme {
	case ThemeFilled:
		return [4]string{fill[0], fill[0], DefaultInnerStroke, DefaultInnerStroke}
	case ThemeTwoTone:
		return [4]string{fill[0], fill[1], fill[0], fill[1]}
	case ThemeMultiColor:
		return [4]string{fill[0], fill[1], fill[2], fill[3]}
	default:
		return [4]string{fill[0], "none", fill[0], "none"}
	}
}

// Key is a stable string identifying the rendered output of c.
func (c Config) Key() string {
	return fmt.Sprintf("%d|%d|%s|%s|%s|%s", c.Size, c.StrokeWidth, strings.ToUpper(c.StrokeColor), c.LineCap, c.LineJoin, c.Theme)
}
