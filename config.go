package auth

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"gopkg.in/yaml.v3"
)

// LoginType selects how passwords are verified
type LoginType = int

const (
	// LoginTypeStandard compares against the stored password hash
	LoginTypeStandard LoginType = 0
	// LoginTypeLDAP delegates to a BindVerifier when one is configured
	LoginTypeLDAP LoginType = 1
)

const (
	DefaultTokenIDClaim = "preferred_username"
	DefaultConfigEnv    = "AUTH_CONFIG"
)

// Config holds the resolver options. Implementations must return stable
// values for the duration of one request.
type Config interface {
	GetAnonymousBrowse() bool
	GetReverseProxyLogin() bool
	GetReverseProxyHeader() string
	GetReverseProxyUsesToken() bool
	GetReverseProxyMatchEmail() bool
	GetLoginType() LoginType
	GetJWKSURL() string
	GetTokenAudience() string
	GetTokenIssuer() string
	GetTokenIDClaim() string
}

// ConfigProvider returns the current configuration snapshot. It is called
// once per resolution.
type ConfigProvider func() Config

// StaticConfig returns a provider that always yields cfg
func StaticConfig(cfg Config) ConfigProvider {
	return func() Config {
		return cfg
	}
}

var _ Config = Options{}

// Options is the struct implementation of Config
type Options struct {
	AnonymousBrowse        bool      `yaml:"anonymous_browse" json:"anonymous_browse"`
	ReverseProxyLogin      bool      `yaml:"reverse_proxy_login" json:"reverse_proxy_login"`
	ReverseProxyHeader     string    `yaml:"reverse_proxy_header" json:"reverse_proxy_header"`
	ReverseProxyUsesToken  bool      `yaml:"reverse_proxy_uses_token" json:"reverse_proxy_uses_token"`
	ReverseProxyMatchEmail bool      `yaml:"reverse_proxy_match_email" json:"reverse_proxy_match_email"`
	LoginType              LoginType `yaml:"login_type" json:"login_type"`
	JWKSURL                string    `yaml:"jwks_url" json:"jwks_url"`
	TokenAudience          string    `yaml:"token_audience" json:"token_audience"`
	TokenIssuer            string    `yaml:"token_issuer" json:"token_issuer"`
	TokenIDClaim           string    `yaml:"token_id_claim" json:"token_id_claim"`
	DatabaseDSN            string    `yaml:"database_dsn" json:"database_dsn"`
}

// DefaultOptions returns Options with reverse proxy login disabled
func DefaultOptions() Options {
	return Options{
		LoginType:    LoginTypeStandard,
		TokenIDClaim: DefaultTokenIDClaim,
	}
}

func (o Options) GetAnonymousBrowse() bool        { return o.AnonymousBrowse }
func (o Options) GetReverseProxyLogin() bool      { return o.ReverseProxyLogin }
func (o Options) GetReverseProxyHeader() string   { return o.ReverseProxyHeader }
func (o Options) GetReverseProxyUsesToken() bool  { return o.ReverseProxyUsesToken }
func (o Options) GetReverseProxyMatchEmail() bool { return o.ReverseProxyMatchEmail }
func (o Options) GetLoginType() LoginType         { return o.LoginType }
func (o Options) GetJWKSURL() string              { return o.JWKSURL }
func (o Options) GetTokenAudience() string        { return o.TokenAudience }
func (o Options) GetTokenIssuer() string          { return o.TokenIssuer }
func (o Options) GetTokenIDClaim() string         { return o.TokenIDClaim }

// Validate checks the token mode requirements. Reverse proxy token login
// needs a header, a JWKS endpoint and a claim name.
func (o Options) Validate() error {
	tokenMode := o.ReverseProxyLogin && o.ReverseProxyUsesToken

	err := validation.ValidateStruct(&o,
		validation.Field(&o.LoginType, validation.In(LoginTypeStandard, LoginTypeLDAP)),
		validation.Field(&o.ReverseProxyHeader, validation.By(requiredIf(o.ReverseProxyLogin))),
		validation.Field(&o.JWKSURL, validation.By(requiredIf(tokenMode)), is.URL),
		validation.Field(&o.TokenIDClaim, validation.By(requiredIf(tokenMode))),
	)
	if err != nil {
		return wrapErr(ErrInvalidConfig, err, map[string]any{
			"cause": err.Error(),
		})
	}
	return nil
}

func requiredIf(cond bool) validation.RuleFunc {
	return func(value any) error {
		if !cond {
			return nil
		}
		if s, _ := value.(string); strings.TrimSpace(s) == "" {
			return fmt.Errorf("cannot be blank")
		}
		return nil
	}
}

// LoadOptions reads YAML options from path (or the AUTH_CONFIG env var when
// path is empty), applies AUTH_* environment overrides and validates.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	if path == "" {
		path = os.Getenv(DefaultConfigEnv)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return opts, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return opts, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&opts)

	if err := opts.Validate(); err != nil {
		return opts, err
	}

	return opts, nil
}

func applyEnvOverrides(o *Options) {
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setBool("AUTH_ANONYMOUS_BROWSE", &o.AnonymousBrowse)
	setBool("AUTH_REVERSE_PROXY_LOGIN", &o.ReverseProxyLogin)
	setString("AUTH_REVERSE_PROXY_HEADER", &o.ReverseProxyHeader)
	setBool("AUTH_REVERSE_PROXY_USES_TOKEN", &o.ReverseProxyUsesToken)
	setBool("AUTH_REVERSE_PROXY_MATCH_EMAIL", &o.ReverseProxyMatchEmail)
	setString("AUTH_JWKS_URL", &o.JWKSURL)
	setString("AUTH_TOKEN_AUDIENCE", &o.TokenAudience)
	setString("AUTH_TOKEN_ISSUER", &o.TokenIssuer)
	setString("AUTH_TOKEN_ID_CLAIM", &o.TokenIDClaim)
	setString("AUTH_DATABASE_DSN", &o.DatabaseDSN)

	if v := os.Getenv("AUTH_LOGIN_TYPE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.LoginType = n
		}
	}
}
