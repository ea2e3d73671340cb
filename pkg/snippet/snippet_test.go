package snippet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/parser"
	"github.com/gnana997/iconpark/pkg/style"
)

var addOne = catalog.Icon{ID: 1, Name: "add-one", Title: "Add One", Category: "Base"}

func newVerifier(t *testing.T) *Verifier {
	t.Helper()
	pm := parser.NewManager(nil)
	t.Cleanup(func() { pm.Close() })
	return NewVerifier(pm)
}

func TestGenerate_ReactDefault(t *testing.T) {
	code, err := Generate(React, addOne, style.Default())
	require.NoError(t, err)

	want := "import { AddOne } from '@icon-park/react'\n" +
		"\n" +
		"<AddOne \n" +
		"  theme=\"outline\" \n" +
		"  size=\"36\" \n" +
		"  strokeWidth={4}\n" +
		"  strokeLinecap=\"round\"\n" +
		"  strokeLinejoin=\"round\"\n" +
		"  fill=\"#333\"\n" +
		"/>"
	assert.Equal(t, want, code)
}

func TestGenerate_VueDefault(t *testing.T) {
	code, err := Generate(Vue, addOne, style.Default())
	require.NoError(t, err)

	want := "<template>\n" +
		"  <AddOne \n" +
		"    theme=\"outline\" \n" +
		"    :size=\"36\" \n" +
		"    :strokeWidth=\"4\"\n" +
		"    strokeLinecap=\"round\"\n" +
		"    strokeLinejoin=\"round\"\n" +
		"    fill=\"#333\"\n" +
		"  />\n" +
		"</template>\n" +
		"\n" +
		"<script>\n" +
		"import { AddOne } from '@icon-park/vue-next'\n" +
		"\n" +
		"export default {\n" +
		"  components: {\n" +
		"    AddOne\n" +
		"  }\n" +
		"}\n" +
		"</script>"
	assert.Equal(t, want, code)
}

func TestGenerate_FillExpressions(t *testing.T) {
	tests := []struct {
		theme     style.Theme
		wantReact string
		wantVue   string
	}{
		{style.ThemeOutline, `fill="#123456"`, `fill="#123456"`},
		{style.ThemeFilled, `fill="#123456"`, `fill="#123456"`},
		{style.ThemeTwoTone, `fill={['#123456', '#2F88FF']}`, `:fill="['#123456', '#2F88FF']"`},
		{style.ThemeMultiColor, `fill={['#123456', '#2F88FF', '#FFF', '#43CCF8']}`, `:fill="['#123456', '#2F88FF', '#FFF', '#43CCF8']"`},
	}
	for _, tc := range tests {
		t.Run(string(tc.theme), func(t *testing.T) {
			cfg := style.Default()
			cfg.Theme = tc.theme
			cfg.StrokeColor = "#123456"

			react, err := Generate(React, addOne, cfg)
			require.NoError(t, err)
			assert.Contains(t, react, tc.wantReact)
			assert.Contains(t, react, `theme="`+string(tc.theme)+`"`)

			vue, err := Generate(Vue, addOne, cfg)
			require.NoError(t, err)
			assert.Contains(t, vue, tc.wantVue)
		})
	}
}

func TestFillValues_MultiColor(t *testing.T) {
	cfg := style.Default()
	cfg.Theme = style.ThemeMultiColor
	cfg.StrokeColor = "#123456"
	assert.Equal(t, []string{"#123456", "#2F88FF", "#FFF", "#43CCF8"}, FillValues(cfg))
}

func TestGenerate_Errors(t *testing.T) {
	_, err := Generate("svelte", addOne, style.Default())
	assert.Error(t, err)

	_, err = Generate(React, catalog.Icon{}, style.Default())
	assert.Error(t, err)

	cfg := style.Default()
	cfg.StrokeWidth = 99
	_, err = Generate(React, addOne, cfg)
	assert.ErrorIs(t, err, style.ErrInvalid)
}

func TestParseFramework(t *testing.T) {
	f, err := ParseFramework(" React ")
	require.NoError(t, err)
	assert.Equal(t, React, f)
	assert.Equal(t, VuePackage, Vue.Package())

	_, err = ParseFramework("angular")
	assert.Error(t, err)
	assert.Equal(t, []Framework{React, Vue}, Frameworks())
}

func TestVerify_React(t *testing.T) {
	v := newVerifier(t)
	cfg := style.Default()
	cfg.Theme = style.ThemeTwoTone
	cfg.Size = 48
	code, err := Generate(React, addOne, cfg)
	require.NoError(t, err)

	report, err := v.Verify(React, code)
	require.NoError(t, err)
	assert.Equal(t, "AddOne", report.Component)
	assert.Equal(t, ReactPackage, report.Package)
	assert.Equal(t, Prop{Value: "two-tone"}, report.Props["theme"])
	assert.Equal(t, Prop{Value: "48"}, report.Props["size"])
	assert.Equal(t, Prop{Value: "4", Expression: true}, report.Props["strokeWidth"])
	assert.Equal(t, Prop{Value: "['#333', '#2F88FF']", Expression: true}, report.Props["fill"])
}

func TestVerify_Vue(t *testing.T) {
	v := newVerifier(t)
	cfg := style.Default()
	cfg.Theme = style.ThemeMultiColor
	code, err := Generate(Vue, catalog.Icon{Name: "check-one"}, cfg)
	require.NoError(t, err)

	report, err := v.Verify(Vue, code)
	require.NoError(t, err)
	assert.Equal(t, "CheckOne", report.Component)
	assert.Equal(t, VuePackage, report.Package)
	assert.Equal(t, Prop{Value: "multi-color"}, report.Props["theme"])
	assert.Equal(t, Prop{Value: "36", Expression: true}, report.Props["size"])
	assert.Equal(t, Prop{Value: "4", Expression: true}, report.Props["strokewidth"])
	assert.Equal(t, Prop{Value: "['#333', '#2F88FF', '#FFF', '#43CCF8']", Expression: true}, report.Props["fill"])
}

func TestVerify_AllEmbeddedStyles(t *testing.T) {
	v := newVerifier(t)
	for _, f := range Frameworks() {
		for _, theme := range []style.Theme{style.ThemeOutline, style.ThemeFilled, style.ThemeTwoTone, style.ThemeMultiColor} {
			cfg := style.Default()
			cfg.Theme = theme
			code, err := Generate(f, catalog.Icon{Name: "close-one"}, cfg)
			require.NoError(t, err)
			_, err = v.Verify(f, code)
			assert.NoError(t, err, "%s/%s", f, theme)
		}
	}
}

func TestVerify_Malformed(t *testing.T) {
	v := newVerifier(t)
	tests := []struct {
		name string
		f    Framework
		code string
	}{
		{"syntax error", React, "import { AddOne } from '@icon-park/react'\n<AddOne size={ />"},
		{"missing import", React, "<AddOne size=\"36\" />"},
		{"wrong package", React, "import { AddOne } from 'icons'\n<AddOne />"},
		{"two elements", React, "import { AddOne, Home } from '@icon-park/react'\n<AddOne />;\n<Home />"},
		{"vue without template", Vue, "<script>export default {}</script>"},
		{"vue unregistered", Vue, "<template><AddOne /></template><script>import { AddOne } from '@icon-park/vue-next'\nexport default { components: {} }</script>"},
		{"vue html element", Vue, "<template><div></div></template><script>export default {}</script>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(tc.f, tc.code)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}
