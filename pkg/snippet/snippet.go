// Package snippet generates framework code that renders an icon with a given
// style, and verifies generated code by parsing it.
package snippet

import (
	"fmt"
	"strings"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/registry"
	"github.com/gnana997/iconpark/pkg/style"
)

// Framework is a target component framework.
type Framework string

const (
	React Framework = "react"
	Vue   Framework = "vue"
)

// Component packages imported by generated snippets.
const (
	ReactPackage = "@icon-park/react"
	VuePackage   = "@icon-park/vue-next"
)

// Frameworks lists the supported frameworks.
func Frameworks() []Framework {
	return []Framework{React, Vue}
}

// ParseFramework converts user input to a Framework.
func ParseFramework(s string) (Framework, error) {
	switch f := Framework(strings.ToLower(strings.TrimSpace(s))); f {
	case React, Vue:
		return f, nil
	}
	return "", fmt.Errorf("unknown framework %q (want react or vue)", s)
}

// Package returns the import path of the icon components for f.
func (f Framework) Package() string {
	if f == Vue {
		return VuePackage
	}
	return ReactPackage
}

// FillValues returns the colors passed as the fill prop for cfg.
func FillValues(cfg style.Config) []string {
	return cfg.FillValues()
}

// Generate returns a snippet that renders icon in framework f with cfg.
func Generate(f Framework, icon catalog.Icon, cfg style.Config) (string, error) {
	if icon.Name == "" {
		return "", fmt.Errorf("icon name is required")
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	name := registry.ToPascalCase(icon.Name)

	switch f {
	case React:
		return react(name, cfg), nil
	case Vue:
		return vue(name, cfg), nil
	default:
		return "", fmt.Errorf("unknown framework %q", f)
	}
}

// fillList renders values as a single-quoted array literal body.
func fillList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func react(name string, cfg style.Config) string {
	fill := fmt.Sprintf(`fill="%s"`, cfg.StrokeColor)
	if values := cfg.FillValues(); len(values) > 1 {
		fill = "fill={" + fillList(values) + "}"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "import { %s } from '%s'\n\n", name, ReactPackage)
	fmt.Fprintf(&b, "<%s \n", name)
	fmt.Fprintf(&b, "  theme=\"%s\" \n", cfg.Theme)
	fmt.Fprintf(&b, "  size=\"%d\" \n", cfg.Size)
	fmt.Fprintf(&b, "  strokeWidth={%d}\n", cfg.StrokeWidth)
	fmt.Fprintf(&b, "  strokeLinecap=\"%s\"\n", cfg.LineCap)
	fmt.Fprintf(&b, "  strokeLinejoin=\"%s\"\n", cfg.LineJoin)
	fmt.Fprintf(&b, "  %s\n", fill)
	b.WriteString("/>")
	return b.String()
}

func vue(name string, cfg style.Config) string {
	fill := fmt.Sprintf(`fill="%s"`, cfg.StrokeColor)
	if values := cfg.FillValues(); len(values) > 1 {
		fill = `:fill="` + fillList(values) + `"`
	}

	var b strings.Builder
	b.WriteString("<template>\n")
	fmt.Fprintf(&b, "  <%s \n", name)
	fmt.Fprintf(&b, "    theme=\"%s\" \n", cfg.Theme)
	fmt.Fprintf(&b, "    :size=\"%d\" \n", cfg.Size)
	fmt.Fprintf(&b, "    :strokeWidth=\"%d\"\n", cfg.StrokeWidth)
	fmt.Fprintf(&b, "    strokeLinecap=\"%s\"\n", cfg.LineCap)
	fmt.Fprintf(&b, "    strokeLinejoin=\"%s\"\n", cfg.LineJoin)
	fmt.Fprintf(&b, "    %s\n", fill)
	b.WriteString("  />\n</template>\n\n<script>\n")
	fmt.Fprintf(&b, "import { %s } from '%s'\n\n", name, VuePackage)
	b.WriteString("export default {\n  components: {\n")
	fmt.Fprintf(&b, "    %s\n", name)
	b.WriteString("  }\n}\n</script>")
	return b.String()
}
