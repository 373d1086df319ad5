package config

const (
	defaultDataDir           = "~/.local/share/variantshare"
	defaultLogDir            = "~/.local/share/variantshare/logs"
	defaultAPIBind           = "127.0.0.1:7590"
	defaultSearchAddress     = "http://127.0.0.1:9200"
	defaultSearchIndex       = "screenshots"
	defaultSearchMaxResults  = 1000
	defaultSearchTimeout     = 15
	defaultDocGenTimeout     = 60
	defaultMailTransport     = "none"
	defaultMailTimeout       = 30
	defaultTimezone          = "Asia/Kolkata"
	defaultLocale            = "en-US"
	defaultLocatorAppType    = "web"
	defaultFilenamePrefix    = "variant"
	defaultSendPerMinute     = 30
	defaultSendBurst         = 5
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultGraphBaseEndpoint = "https://graph.microsoft.com/v1.0"
)

var (
	defaultImageAppTypes   = []string{"web", "desktop", "sap", "citrix"}
	defaultURLDenyAppTypes = []string{"desktop", "sap", "citrix"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Search: Search{
			Addresses:      []string{defaultSearchAddress},
			Index:          defaultSearchIndex,
			MaxResults:     defaultSearchMaxResults,
			TimeoutSeconds: defaultSearchTimeout,
		},
		DocGen: DocGen{
			TimeoutSeconds: defaultDocGenTimeout,
		},
		Mail: Mail{
			Transport:      defaultMailTransport,
			TimeoutSeconds: defaultMailTimeout,
		},
		Export: Export{
			Timezone:        defaultTimezone,
			Locale:          defaultLocale,
			ImageAppTypes:   append([]string(nil), defaultImageAppTypes...),
			LocatorAppType:  defaultLocatorAppType,
			URLDenyAppTypes: append([]string(nil), defaultURLDenyAppTypes...),
			FilenamePrefix:  defaultFilenamePrefix,
		},
		API: API{
			SendPerMinute: defaultSendPerMinute,
			SendBurst:     defaultSendBurst,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
