package config

import (
	"strings"
	"time"

	"github.com/edupegoretti/sitec/params"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr = ":3000"
	DefaultStaticDir  = "./static"
)

type MySQLConfig struct {
	Dsn             string `mapstructure:"dsn"`
	TablePrefix     string `mapstructure:"tablePrefix"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"`
	ConnMaxIdleTime int    `mapstructure:"connMaxIdleTime"`
	ConnMaxLifetime int    `mapstructure:"connMaxLifetime"`
}

type SessionConfig struct {
	// Secret signs admin session tokens. When empty the session manager runs
	// in insecure mode and startup refuses to serve unless explicitly allowed.
	Secret        string        `mapstructure:"secret"`
	SessionMaxAge time.Duration `mapstructure:"sessionMaxAge"`
	CookieName    string        `mapstructure:"cookieName"`
	CookieSecure  bool          `mapstructure:"cookieSecure"`
}

type AdminConfig struct {
	// Credential is the stored admin credential record: base64(salt||derivedKey),
	// produced out of band by the hash-password subcommand.
	Credential string `mapstructure:"credential"`
}

type CMSConfig struct {
	BaseURL  string        `mapstructure:"baseURL"`
	APIToken string        `mapstructure:"apiToken"`
	CacheTTL time.Duration `mapstructure:"cacheTTL"`
	// WebhookSecret authenticates the CMS revalidation webhook.
	WebhookSecret string `mapstructure:"webhookSecret"`
}

type CRMConfig struct {
	// WebhookURL receives captured leads. Empty disables forwarding.
	WebhookURL string `mapstructure:"webhookURL"`
	AuthToken  string `mapstructure:"authToken"`
	// NotifyEmail receives a mail notification for every new lead.
	NotifyEmail string `mapstructure:"notifyEmail"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	TLS      bool   `mapstructure:"tls"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`
}

type MailConfig struct {
	Backend string     `mapstructure:"backend"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type Config struct {
	Debug        bool          `mapstructure:"debug"`
	Production   bool          `mapstructure:"production"`
	SiteName     string        `mapstructure:"siteName"`
	BaseURL      string        `mapstructure:"baseURL"`
	ListenAddr   string        `mapstructure:"listenAddr"`
	StaticDir    string        `mapstructure:"staticDir"`
	TemplateDir  string        `mapstructure:"templateDir"`
	AllowOrigins []string      `mapstructure:"allowOrigins"`
	Admin        AdminConfig   `mapstructure:"admin"`
	Session      SessionConfig `mapstructure:"session"`
	CMS          CMSConfig     `mapstructure:"cms"`
	CRM          CRMConfig     `mapstructure:"crm"`
	Mail         MailConfig    `mapstructure:"mail"`
	Redis        RedisConfig   `mapstructure:"redis"`
	MySQL        MySQLConfig   `mapstructure:"mysql"`
}

func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.StaticDir == "" {
		c.StaticDir = DefaultStaticDir
	}
	if c.Session.SessionMaxAge == 0 {
		c.Session.SessionMaxAge = params.SessionMaxAge
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = params.SessionCookieName
	}
	if c.CMS.CacheTTL == 0 {
		c.CMS.CacheTTL = params.ContentCacheTTL
	}
	// cookies must only travel over https in production
	if c.Production {
		c.Session.CookieSecure = true
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
