package i18n

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestLoadEmbedded(t *testing.T) {
	i := NewI18n(language.English)
	require.NoError(t, i.LoadEmbedded())

	assert.Equal(t, "Username already exists", i.Translate("ErrorUsernameExists", "en", nil))
	assert.Equal(t, "用户名已存在", i.Translate("ErrorUsernameExists", "zh", nil))
	// unknown languages fall back to the bundle default
	assert.Equal(t, "Username already exists", i.Translate("ErrorUsernameExists", "fr", nil))
	// unknown ids come back unchanged
	assert.Equal(t, "NoSuchMessage", i.Translate("NoSuchMessage", "en", nil))
}

func TestTranslateWithDefault(t *testing.T) {
	i := NewI18n(language.English)
	assert.Equal(t, "hello bob", i.TranslateWithDefault("Greeting", "hello {{.Name}}", "en", map[string]any{"Name": "bob"}))
}

func TestLoadTranslations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.toml"), []byte(`Hello = "Hello there"`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644))

	i := NewI18n(language.English)
	require.NoError(t, i.LoadTranslations(dir))
	assert.Equal(t, "Hello there", i.Translate("Hello", "en", nil))

	assert.Error(t, i.LoadTranslations(filepath.Join(dir, "missing")))
}

func TestInitTranslatorWithExtraPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.toml"), []byte(`Extra = "extra message"`), 0644))
	require.NoError(t, InitTranslator(dir))
	t.Cleanup(func() { _ = InitTranslator("") })

	tr := GetTranslator()
	assert.Equal(t, "extra message", tr.Translate("Extra", "en", nil))
	assert.Equal(t, "Invalid credentials", tr.Translate("ErrorInvalidCredentials", "en", nil))
}

func TestLanguageFromRequest(t *testing.T) {
	cases := []struct {
		name   string
		xLang  string
		accept string
		want   string
	}{
		{"x-lang wins", "zh", "en-US", cnst.LangZH},
		{"x-lang region", "zh-CN", "", cnst.LangZH},
		{"accept language", "", "zh-CN,zh;q=0.9,en;q=0.8", cnst.LangZH},
		{"accept skips unsupported", "", "fr-FR,en;q=0.5", cnst.LangEN},
		{"unsupported x-lang", "fr", "", cnst.LangEN},
		{"nothing", "", "", cnst.LangEN},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.xLang != "" {
				r.Header.Set(cnst.XLang, tc.xLang)
			}
			if tc.accept != "" {
				r.Header.Set("Accept-Language", tc.accept)
			}
			assert.Equal(t, tc.want, LanguageFromRequest(r))
		})
	}
}

func TestMiddlewareSetsLanguage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, LangFromContext(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "zh-TW")
	r.ServeHTTP(w, req)
	assert.Equal(t, "zh", w.Body.String())
}
