// Package config carga la configuración del servicio desde YAML y la pisa
// con variables de entorno. Las duraciones viajan como string ("24h") y se
// validan al cargar.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
		ShutdownTimeout    string   `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`

	JWT struct {
		Secret    string `yaml:"secret"`
		Issuer    string `yaml:"issuer"`
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"jwt"`

	Bootstrap struct {
		Seed          bool   `yaml:"seed"`
		AdminUsername string `yaml:"admin_username"`
		AdminPassword string `yaml:"admin_password"`
		AdminEmail    string `yaml:"admin_email"`
	} `yaml:"bootstrap"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

type StorageConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Postgres struct {
		MaxConns           int32         `yaml:"max_conns"`
		MinConns           int32         `yaml:"min_conns"`
		ConnMaxLifetime    time.Duration `yaml:"-"`
		ConnMaxLifetimeStr string        `yaml:"conn_max_lifetime"`
	} `yaml:"postgres"`
}

// Kinds de caché soportados.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type CacheConfig struct {
	Kind  string `yaml:"kind"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Memory struct {
		DefaultTTL    time.Duration `yaml:"-"`
		DefaultTTLStr string        `yaml:"default_ttl"`
	} `yaml:"memory"`
}

// Load lee el YAML en path (opcional: path vacío usa solo defaults y env),
// aplica defaults, pisa con variables de entorno y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = CacheMemory
	}
	if c.Cache.Memory.DefaultTTLStr == "" {
		c.Cache.Memory.DefaultTTLStr = "2m"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "usersapp"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "24h"
	}
	if c.Bootstrap.AdminUsername == "" {
		c.Bootstrap.AdminUsername = "admin"
	}
	if c.Bootstrap.AdminPassword == "" {
		c.Bootstrap.AdminPassword = "123456" // solo dev; en prod se exige override
	}
	if c.Bootstrap.AdminEmail == "" {
		c.Bootstrap.AdminEmail = "admin@localhost"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	// DATABASE_URL implica driver postgres salvo override explícito.
	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
		if _, explicit := getEnvStr("STORAGE_DRIVER"); !explicit {
			c.Storage.Driver = "postgres"
		}
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = int32(v)
	}
	if v, ok := getEnvInt("POSTGRES_MIN_CONNS"); ok {
		c.Storage.Postgres.MinConns = int32(v)
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetimeStr = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTLStr = v
	}

	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}

	if v, ok := getEnvBool("BOOTSTRAP_SEED"); ok {
		c.Bootstrap.Seed = v
	}
	if v, ok := getEnvStr("BOOTSTRAP_ADMIN_USERNAME"); ok {
		c.Bootstrap.AdminUsername = v
	}
	if v, ok := getEnvStr("BOOTSTRAP_ADMIN_PASSWORD"); ok {
		c.Bootstrap.AdminPassword = v
	}
	if v, ok := getEnvStr("BOOTSTRAP_ADMIN_EMAIL"); ok {
		c.Bootstrap.AdminEmail = v
	}

	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvBool("MIGRATE"); ok {
		c.Flags.Migrate = v
	}
}

// finish valida duraciones y consistencia, y materializa los campos parseados.
func (c *Config) finish() error {
	for _, d := range []struct {
		name, val string
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"jwt.access_ttl", c.JWT.AccessTTL},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
	}
	if s := c.Storage.Postgres.ConnMaxLifetimeStr; s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: storage.postgres.conn_max_lifetime: %w", err)
		}
		c.Storage.Postgres.ConnMaxLifetime = d
	}
	if s := c.Cache.Memory.DefaultTTLStr; s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: cache.memory.default_ttl: %w", err)
		}
		c.Cache.Memory.DefaultTTL = d
	}

	if c.IsProd() {
		if c.JWT.Secret == "" {
			return errors.New("config: jwt.secret es obligatorio en prod")
		}
		if c.Bootstrap.Seed && c.Bootstrap.AdminPassword == "123456" {
			return errors.New("config: bootstrap.admin_password por defecto no se permite en prod")
		}
	}
	if c.JWT.Secret == "" {
		// Secreto efímero de desarrollo: los tokens mueren con el proceso.
		c.JWT.Secret = "dev-secret-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return nil
}

// IsProd informa si el entorno configurado es producción.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }

// AccessTTL devuelve la ventana de validez de los tokens ya parseada.
func (c *Config) AccessTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.AccessTTL)
	return d
}

// ReadTimeout devuelve el timeout de lectura del servidor HTTP.
func (c *Config) ReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadTimeout)
	return d
}

// WriteTimeout devuelve el timeout de escritura del servidor HTTP.
func (c *Config) WriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

// ShutdownTimeout devuelve el plazo máximo del apagado ordenado.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ShutdownTimeout)
	return d
}
