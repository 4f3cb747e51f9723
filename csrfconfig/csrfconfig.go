// Package csrfconfig loads csrf settings from CSRF_* environment variables
// and, optionally, a config file. Environment variables win over the file.
//
//	CSRF_SECRET_KEY       required
//	CSRF_SALT             optional signing salt
//	CSRF_MAX_AGE          seconds, default 3600
//	CSRF_HEADER_NAME      default X-CSRF-Token
//	CSRF_HTTP_METHODS     comma or space separated, default POST,PUT,PATCH,DELETE
//	CSRF_COOKIE_NAME      default FAPICSRFTOKEN
//	CSRF_COOKIE_PATH      default /
//	CSRF_COOKIE_DOMAIN
//	CSRF_COOKIE_SECURE    default false
//	CSRF_COOKIE_SAMESITE  strict | lax | none, default none
//	CSRF_COOKIE_HTTPONLY  default true
//
// File keys are the same names without the prefix, in lower case
// (secret_key, max_age, ...).
package csrfconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/JeanGrijp/go-csrf-token/csrf"
)

const envPrefix = "CSRF"

const (
	keySecretKey      = "secret_key"
	keySalt           = "salt"
	keyMaxAge         = "max_age"
	keyHeaderName     = "header_name"
	keyHTTPMethods    = "http_methods"
	keyCookieName     = "cookie_name"
	keyCookiePath     = "cookie_path"
	keyCookieDomain   = "cookie_domain"
	keyCookieSecure   = "cookie_secure"
	keyCookieSameSite = "cookie_samesite"
	keyCookieHTTPOnly = "cookie_httponly"
)

// Config is the raw configuration read from the environment.
type Config struct {
	Options csrf.Options
	Salt    string
}

// Load reads the optional file at path (any format viper understands,
// picked by extension) and then the environment. Malformed numbers and
// booleans are errors, not zero values.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("csrfconfig: read %s: %w", path, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Salt: v.GetString(keySalt),
		Options: csrf.Options{
			SecretKey:      v.GetString(keySecretKey),
			HeaderName:     v.GetString(keyHeaderName),
			CookieName:     v.GetString(keyCookieName),
			CookiePath:     v.GetString(keyCookiePath),
			CookieDomain:   v.GetString(keyCookieDomain),
			CookieSameSite: v.GetString(keyCookieSameSite),
		},
	}

	if raw := strings.TrimSpace(v.GetString(keyMaxAge)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("csrfconfig: %s: %w", envName(keyMaxAge), err)
		}
		cfg.Options.MaxAge = n
	}

	secure, err := parseBool(v, keyCookieSecure)
	if err != nil {
		return Config{}, err
	}
	if secure != nil {
		cfg.Options.CookieSecure = *secure
	}
	if cfg.Options.CookieHTTPOnly, err = parseBool(v, keyCookieHTTPOnly); err != nil {
		return Config{}, err
	}

	methods, err := parseList(v.Get(keyHTTPMethods))
	if err != nil {
		return Config{}, fmt.Errorf("csrfconfig: %s: %w", envName(keyHTTPMethods), err)
	}
	cfg.Options.Methods = methods
	return cfg, nil
}

// Settings validates the loaded options.
func (c Config) Settings() (csrf.Settings, error) {
	return csrf.NewSettings(c.Options)
}

// Protector builds a Protector from the loaded configuration, applying
// the configured salt before opts.
func (c Config) Protector(opts ...csrf.Option) (*csrf.Protector, error) {
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	return csrf.New(s, append([]csrf.Option{csrf.WithSalt(c.Salt)}, opts...)...)
}

func parseBool(v *viper.Viper, key string) (*bool, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("csrfconfig: %s: %w", envName(key), err)
	}
	return &b, nil
}

// parseList accepts "POST,PUT", "POST PUT" or a list from a config file.
func parseList(raw any) ([]string, error) {
	var items []string
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		items = strings.FieldsFunc(t, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
	case []string:
		items = t
	case []any:
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected %T in list", e)
			}
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("unexpected %T", raw)
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(key)
}
