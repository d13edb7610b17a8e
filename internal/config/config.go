package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	Doris      DorisConfig      `yaml:"doris"`
	S3         S3Config         `yaml:"s3"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Domains    []DomainConfig   `yaml:"domains"`
	Serializer SerializerConfig `yaml:"serializer"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	APIPrefix string `yaml:"api_prefix"`
	Debug     bool   `yaml:"debug"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

type LogConfig struct {
	Dir         string `yaml:"dir"`
	FileName    string `yaml:"file_name"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	BackupCount int    `yaml:"backup_count"`
}

type AuthConfig struct {
	CredentialFile    string        `yaml:"credential_file"`
	DefaultGroups     []string      `yaml:"default_groups"`
	GroupList         []string      `yaml:"group_list"`
	UnmodifiableGroup string        `yaml:"unmodifiable_group"`
	LoginTTL          time.Duration `yaml:"login_ttl"`
}

type DorisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Catalog  string `yaml:"catalog"`
	Database string `yaml:"database"`
}

// Configured reports whether the connection settings are complete.
// Password may be empty on open clusters.
func (d DorisConfig) Configured() bool {
	return d.Host != "" && d.Port > 0 && d.User != "" && d.Catalog != "" && d.Database != ""
}

// DSN builds a MySQL-protocol DSN; Doris exposes catalog.database as the
// schema name.
func (d DorisConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s.%s?charset=utf8mb4&parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Catalog, d.Database)
}

type S3Config struct {
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	SessionToken string `yaml:"session_token"`
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
}

type SchedulerConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type DomainConfig struct {
	Name        string `yaml:"name" json:"name"`
	LLMProvider string `yaml:"llm_provider" json:"llm_provider"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Active      bool   `yaml:"active" json:"-"`
}

type SerializerConfig struct {
	MediumFields    []string `yaml:"medium_fields"`
	ParseJSONFields []string `yaml:"parse_json_fields"`
}

// Load reads the YAML config at path and applies environment overrides.
// A missing config file is not an error; defaults apply. A .env file next
// to the binary is loaded first so overrides behave the same either way.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:      "Autobahn Backend",
			Version:   "0.1.1",
			APIPrefix: "/api/v1",
			Debug:     true,
		},
		Server: ServerConfig{Address: "0.0.0.0:8739"},
		Log: LogConfig{
			Dir:         "logs",
			FileName:    "app.log",
			MaxSizeMB:   100,
			BackupCount: 10,
		},
		Auth: AuthConfig{
			CredentialFile:    "./credentials.txt",
			GroupList:         []string{"official", "group_a", "group_b", "group_c"},
			UnmodifiableGroup: "official",
			LoginTTL:          7 * 24 * time.Hour,
		},
		Scheduler: SchedulerConfig{Timeout: 20 * time.Second},
		Serializer: SerializerConfig{
			MediumFields: []string{"image", "images", "video", "videos", "audio", "audios"},
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = "0.0.0.0:8739"
	}
	if cfg.App.APIPrefix == "" {
		cfg.App.APIPrefix = "/api/v1"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 100
	}
	if cfg.Log.BackupCount == 0 {
		cfg.Log.BackupCount = 10
	}
	if cfg.Auth.CredentialFile == "" {
		cfg.Auth.CredentialFile = "./credentials.txt"
	}
	if cfg.Auth.LoginTTL == 0 {
		cfg.Auth.LoginTTL = 7 * 24 * time.Hour
	}
	if cfg.Scheduler.Timeout == 0 {
		cfg.Scheduler.Timeout = 20 * time.Second
	}
	if len(cfg.Serializer.MediumFields) == 0 {
		cfg.Serializer.MediumFields = []string{"image", "images", "video", "videos", "audio", "audios"}
	}
	if len(cfg.Serializer.ParseJSONFields) == 0 {
		cfg.Serializer.ParseJSONFields = append(
			append([]string{}, cfg.Serializer.MediumFields...),
			"relative_image", "conversations", "meta_data",
		)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("CREDENTIAL_FILE_PATH"); v != "" {
		cfg.Auth.CredentialFile = v
	}
	if v := os.Getenv("PROCESS_SCHEDULER_HOST"); v != "" {
		cfg.Scheduler.Host = v
	}
	if v := os.Getenv("DEFAULT_DORIS_HOST"); v != "" {
		cfg.Doris.Host = v
	}
	if v := os.Getenv("DEFAULT_DORIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Doris.Port = port
		}
	}
	if v := os.Getenv("DEFAULT_DORIS_USER"); v != "" {
		cfg.Doris.User = v
	}
	if v := os.Getenv("DEFAULT_DORIS_PASSWORD"); v != "" {
		cfg.Doris.Password = v
	}
	if v := os.Getenv("DEFAULT_DORIS_CATALOG"); v != "" {
		cfg.Doris.Catalog = v
	}
	if v := os.Getenv("DEFAULT_DORIS_DATABASE"); v != "" {
		cfg.Doris.Database = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.S3.SecretKey = v
	}
	if v := os.Getenv("S3_SESSION_TOKEN"); v != "" {
		cfg.S3.SessionToken = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.S3.Region = v
	}
}
