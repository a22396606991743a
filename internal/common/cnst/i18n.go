package cnst

const (
	LangEN      = "en"
	LangZH      = "zh"
	LangDefault = LangEN
)

const (
	// XLang is the request header that overrides Accept-Language
	XLang            = "X-Lang"
	CtxKeyTranslator = "translator"
)
