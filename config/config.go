package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Configuration struct {
	ApiPort string `json:"api_port" yaml:"api_port"`
	LogPath string `json:"log_path" yaml:"log_path"`

	Database  string `json:"database" yaml:"database"` // "sqlite3", "postgres" ou "mysql"
	DbPath    string `json:"db_path" yaml:"db_path"`
	DbHost    string `json:"db_host" yaml:"db_host"`
	DbPort    string `json:"db_port" yaml:"db_port"`
	DbUser    string `json:"db_user" yaml:"db_user"`
	DbName    string `json:"db_name" yaml:"db_name"`
	DbPass    string `json:"db_pass" yaml:"db_pass"`
	DbSSLMode string `json:"db_sslmode" yaml:"db_sslmode"`
	DebugSQL  bool   `json:"debug_sql" yaml:"debug_sql"`

	CorsOrigins []string `json:"cors_origins" yaml:"cors_origins"`

	Security struct {
		JwtSecret string `json:"jwt_secret" yaml:"jwt_secret"`
	} `json:"security" yaml:"security"`

	Gateway struct {
		TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
		PageSize       int `json:"page_size" yaml:"page_size"`
		MaxPages       int `json:"max_pages" yaml:"max_pages"`
	} `json:"gateway" yaml:"gateway"`

	Events struct {
		AmqpURL  string `json:"amqp_url" yaml:"amqp_url"`
		Exchange string `json:"exchange" yaml:"exchange"`
		Producer string `json:"producer" yaml:"producer"`
		// DialAttempts/DialDelayMs controlam o retry da conexão com o broker no boot.
		DialAttempts int `json:"dial_attempts" yaml:"dial_attempts"`
		DialDelayMs  int `json:"dial_delay_ms" yaml:"dial_delay_ms"`
	} `json:"events" yaml:"events"`

	Sync struct {
		// Schedule é uma expressão cron (robfig/cron). Vazio desliga o sync em background.
		Schedule string `json:"schedule" yaml:"schedule"`
	} `json:"sync" yaml:"sync"`
}

// GatewayTimeout is the per-call deadline for Gateway requests.
func (c Configuration) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load lê o arquivo de configuração (JSON ou YAML, pela extensão),
// expande ${VAR} com o ambiente e aplica os defaults.
func Load(path string) (Configuration, error) {
	var c Configuration
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	expanded := []byte(expandEnvVars(string(b)))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(expanded, &c)
	default:
		err = json.Unmarshal(expanded, &c)
	}
	if err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}

	ApplyDefaults(&c)
	return c, nil
}

// ApplyDefaults (pra evitar nil/zero chato)
func ApplyDefaults(c *Configuration) {
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		c.Gateway.TimeoutSeconds = 30
	}
	if c.Gateway.PageSize <= 0 {
		c.Gateway.PageSize = 50
	}
	if c.Gateway.MaxPages <= 0 {
		c.Gateway.MaxPages = 20
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = "zapcrm.events"
	}
	if c.Events.Producer == "" {
		c.Events.Producer = "zapcrm"
	}
	if c.Events.DialAttempts <= 0 {
		c.Events.DialAttempts = 5
	}
	if c.Events.DialDelayMs <= 0 {
		c.Events.DialDelayMs = 500
	}
	if len(c.CorsOrigins) == 0 {
		c.CorsOrigins = []string{"*"}
	}
}

func expandEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}
