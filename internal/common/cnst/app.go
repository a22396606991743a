package cnst

const (
	AppName     = "apphub"
	CommandName = "apiserver"
)

const (
	ApiServerYaml = "apiserver.yaml"
)

const (
	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"

	LimiterStoreMemory = "memory"
	LimiterStoreRedis  = "redis"
)
