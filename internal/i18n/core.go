package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

var (
	translatorMu sync.RWMutex
	translator   *I18n
	defaultLang  = cnst.LangDefault

	supportedLangs = []string{cnst.LangEN, cnst.LangZH}
)

// SetDefaultLanguage sets the language used when a request expresses no usable preference
func SetDefaultLanguage(lang string) {
	if isSupported(lang) {
		defaultLang = lang
	}
}

// InitTranslator builds the global translator from the embedded catalogues
// plus any *.toml files found under extraPath.
func InitTranslator(extraPath string) error {
	t := NewI18n(language.English)
	if err := t.LoadEmbedded(); err != nil {
		return err
	}
	if extraPath != "" {
		if err := t.LoadTranslations(extraPath); err != nil {
			return err
		}
	}

	translatorMu.Lock()
	translator = t
	translatorMu.Unlock()
	return nil
}

// GetTranslator returns the global translator, initializing it from the
// embedded catalogues on first use.
func GetTranslator() *I18n {
	translatorMu.RLock()
	t := translator
	translatorMu.RUnlock()
	if t != nil {
		return t
	}
	_ = InitTranslator("")

	translatorMu.RLock()
	defer translatorMu.RUnlock()
	return translator
}

// I18n manages internationalization and translations
type I18n struct {
	bundle      *i18n.Bundle
	defaultLang language.Tag
}

// NewI18n creates a new I18n instance with the specified default language
func NewI18n(defaultLang language.Tag) *I18n {
	bundle := i18n.NewBundle(defaultLang)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	return &I18n{
		bundle:      bundle,
		defaultLang: defaultLang,
	}
}

// LoadEmbedded loads the catalogues compiled into the binary
func (i *I18n) LoadEmbedded() error {
	files, err := fs.Glob(localeFS, "locales/*.toml")
	if err != nil {
		return err
	}
	for _, f := range files {
		if _, err := i.bundle.LoadMessageFileFS(localeFS, f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadTranslations loads translation files from the specified directory
func (i *I18n) LoadTranslations(translationsDir string) error {
	files, err := os.ReadDir(translationsDir)
	if err != nil {
		return fmt.Errorf("failed to read translations directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".toml") {
			continue
		}
		if _, err := i.bundle.LoadMessageFile(filepath.Join(translationsDir, file.Name())); err != nil {
			return fmt.Errorf("failed to load %s: %w", file.Name(), err)
		}
	}
	return nil
}

// Translate returns a localized string for the given message ID and language.
// The message ID is returned when no catalogue knows it.
func (i *I18n) Translate(msgID string, lang string, templateData map[string]any) string {
	return i.TranslateWithDefault(msgID, "", lang, templateData)
}

// TranslateWithDefault is Translate with an English fallback rendered when no
// catalogue carries msgID.
func (i *I18n) TranslateWithDefault(msgID, defaultMessage, lang string, templateData map[string]any) string {
	localizer := i18n.NewLocalizer(i.bundle, lang, i.defaultLang.String())

	lc := &i18n.LocalizeConfig{MessageID: msgID}
	if defaultMessage != "" {
		lc.DefaultMessage = &i18n.Message{ID: msgID, Other: defaultMessage}
	}
	if len(templateData) > 0 {
		lc.TemplateData = templateData
	}

	msg, err := localizer.Localize(lc)
	if err != nil || msg == "" {
		if defaultMessage != "" {
			return defaultMessage
		}
		return msgID
	}
	return msg
}

// Middleware resolves the request language once and stores it on the context
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(cnst.XLang, LanguageFromRequest(c.Request))
		c.Next()
	}
}

// LangFromContext returns the language chosen by Middleware, or the default
func LangFromContext(c *gin.Context) string {
	if c == nil {
		return defaultLang
	}
	if v, ok := c.Get(cnst.XLang); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		return LanguageFromRequest(c.Request)
	}
	return defaultLang
}

// LanguageFromRequest picks X-Lang first, then the best Accept-Language entry
func LanguageFromRequest(r *http.Request) string {
	if lang := r.Header.Get(cnst.XLang); lang != "" {
		return normalizeLang(lang)
	}

	if accept := r.Header.Get("Accept-Language"); accept != "" {
		tags, _, err := language.ParseAcceptLanguage(accept)
		if err == nil {
			for _, tag := range tags {
				base, _ := tag.Base()
				if isSupported(base.String()) {
					return base.String()
				}
			}
		}
	}
	return defaultLang
}

// normalizeLang reduces a tag such as zh-CN to a supported base language
func normalizeLang(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return defaultLang
	}
	base, _ := tag.Base()
	if isSupported(base.String()) {
		return base.String()
	}
	return defaultLang
}

func isSupported(lang string) bool {
	for _, s := range supportedLangs {
		if s == lang {
			return true
		}
	}
	return false
}

// TranslateMessage translates a message ID using the context's language preference
func TranslateMessage(c *gin.Context, msgID string, data map[string]any) string {
	return GetTranslator().Translate(msgID, LangFromContext(c), data)
}
