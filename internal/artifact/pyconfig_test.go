package artifact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderConfig_Scalars(t *testing.T) {
	doc := Document{
		{Key: "API_KEY", Value: Scalar("sk-test")},
		{Key: "USE_PROXY", Value: Scalar("True")},
		{Key: "CODE_HIGHLIGHT", Value: Scalar("False")},
		{Key: "TIMEOUT_SECONDS", Value: Scalar("25")},
		{Key: "RATIO", Value: Scalar("0.5")},
		{Key: "LAYOUT", Value: Scalar("LEFT-RIGHT")},
		{Key: "API_URL", Value: Scalar("https://api.openai.com/v1/chat/completions")},
	}

	got := RenderConfig(doc)
	lines := strings.Split(got, "\n")

	assert.Len(t, lines, len(doc), "one line per scalar field")
	assert.Equal(t, []string{
		"API_KEY = 'sk-test'",
		"USE_PROXY = True",
		"CODE_HIGHLIGHT = False",
		"TIMEOUT_SECONDS = 25",
		"RATIO = 0.5",
		"LAYOUT = 'LEFT-RIGHT'",
		"API_URL = 'https://api.openai.com/v1/chat/completions'",
	}, lines)
}

func TestRenderConfig_ScalarQuotingEdges(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"lowercase boolean is a string", "true", "X = 'true'"},
		{"empty string is quoted", "", "X = ''"},
		{"negative number", "-3", "X = -3"},
		{"NaN is not a number", "NaN", "X = 'NaN'"},
		{"Infinity is not finite", "Infinity", "X = 'Infinity'"},
		{"numeric credential is emitted bare", "12345", "X = 12345"},
		{"embedded quote is not escaped", "it's", "X = 'it's'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderConfig(Document{{Key: "X", Value: Scalar(tt.value)}}))
		})
	}
}

func TestRenderConfig_Mapping(t *testing.T) {
	doc := Document{
		{Key: "API_KEY", Value: Scalar("sk-test")},
		{Key: "proxies", Value: Mapping(
			Entry{Key: "http", Value: "socks5h://localhost:11284"},
			Entry{Key: "https", Value: "socks5h://localhost:11284"},
		)},
		{Key: "MAX_RETRY", Value: Scalar("2")},
	}

	want := strings.Join([]string{
		"API_KEY = 'sk-test'",
		"proxies = {",
		`    'http': '"socks5h://localhost:11284"',`,
		`    'https': '"socks5h://localhost:11284"',`,
		"}",
		"MAX_RETRY = 2",
	}, "\n")

	assert.Equal(t, want, RenderConfig(doc))
}

func TestRenderConfig_EmptyMappingValues(t *testing.T) {
	doc := Document{
		{Key: "proxies", Value: Mapping(
			Entry{Key: "http", Value: ""},
			Entry{Key: "https", Value: ""},
		)},
	}

	assert.Equal(t, "proxies = {\n    'http': '\"\"',\n    'https': '\"\"',\n}", RenderConfig(doc))
}

func TestRenderConfig_List(t *testing.T) {
	t.Run("empty list renders an empty block", func(t *testing.T) {
		assert.Equal(t, "AUTHENTICATION = {\n}", RenderConfig(Document{{Key: "AUTHENTICATION", Value: List()}}))
	})

	t.Run("nested values are indented json", func(t *testing.T) {
		got := RenderConfig(Document{{Key: "AUTHENTICATION", Value: List([]string{"user", "pass"})}})
		want := "AUTHENTICATION = {\n" +
			"    '0': '[\n" +
			"      \"user\",\n" +
			"      \"pass\"\n" +
			"    ]',\n" +
			"}"
		assert.Equal(t, want, got)
	})
}

func TestRenderConfig_HTMLNotEscaped(t *testing.T) {
	got := RenderConfig(Document{{Key: "proxies", Value: Mapping(Entry{Key: "http", Value: "http://a&b<c>"})}})
	assert.Contains(t, got, `"http://a&b<c>"`)
}

func TestDocumentWithout(t *testing.T) {
	doc := Document{
		{Key: "A", Value: Scalar("1")},
		{Key: "WEB_PORT", Value: Scalar("30000")},
		{Key: "B", Value: Scalar("2")},
	}

	trimmed := doc.Without("WEB_PORT")
	assert.Len(t, trimmed, 2)
	_, ok := trimmed.Lookup("WEB_PORT")
	assert.False(t, ok)
	assert.Len(t, doc, 3, "input untouched")
}
