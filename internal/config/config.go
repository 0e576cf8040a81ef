// Package config loads the service settings from the environment and optional dotenv files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	StorePostgres = "postgres"
	StoreREST     = "rest"
)

type Config struct {
	Port        string `koanf:"port" validate:"required"`
	DatabaseURL string `koanf:"database_url" validate:"required_if=RecordStore postgres"`
	RecordStore string `koanf:"record_store" validate:"oneof=postgres rest"`

	SupabaseURL   string `koanf:"supabase_url" validate:"required_if=RecordStore rest"`
	SupabaseKey   string `koanf:"supabase_key" validate:"required_if=RecordStore rest"`
	StorageBucket string `koanf:"storage_bucket" validate:"required"`

	AuthSecret    string `koanf:"auth_secret"`
	AdminPassword string `koanf:"admin_password"`

	ImageCollection  string        `koanf:"image_collection" validate:"required"`
	ImageColumn      string        `koanf:"image_column" validate:"required"`
	ImagePrefixes    []string      `koanf:"image_prefixes"`
	NormalizeTargets []string      `koanf:"normalize_targets"`
	Workers          int           `koanf:"normalize_workers" validate:"min=1,max=64"`
	UpdateTimeout    time.Duration `koanf:"update_timeout" validate:"min=0"`
	HTTPTimeout      time.Duration `koanf:"http_timeout" validate:"min=0"`
	MaxUploadBytes   int64         `koanf:"max_upload_bytes" validate:"min=1"`
}

func Default() Config {
	return Config{
		Port:            "8080",
		RecordStore:     StorePostgres,
		StorageBucket:   "project-images",
		ImageCollection: "project_images",
		ImageColumn:     "image_url",
		ImagePrefixes:   []string{"/images/projects/", "/images/"},
		NormalizeTargets: []string{
			"project_images.image_url",
			"projects.featured_image_url",
		},
		Workers:        4,
		UpdateTimeout:  10 * time.Second,
		HTTPTimeout:    30 * time.Second,
		MaxUploadBytes: 10 << 20,
	}
}

// envKeys maps environment variables to config keys.
var envKeys = map[string]string{
	"PORT":              "port",
	"DATABASE_URL":      "database_url",
	"RECORD_STORE":      "record_store",
	"SUPABASE_URL":      "supabase_url",
	"SUPABASE_KEY":      "supabase_key",
	"STORAGE_BUCKET":    "storage_bucket",
	"AUTH_SECRET":       "auth_secret",
	"ADMIN_PASSWORD":    "admin_password",
	"IMAGE_COLLECTION":  "image_collection",
	"IMAGE_COLUMN":      "image_column",
	"IMAGE_PREFIXES":    "image_prefixes",
	"NORMALIZE_TARGETS": "normalize_targets",
	"NORMALIZE_WORKERS": "normalize_workers",
	"UPDATE_TIMEOUT":    "update_timeout",
	"HTTP_TIMEOUT":      "http_timeout",
	"MAX_UPLOAD_BYTES":  "max_upload_bytes",
}

// legacyEnvKeys are the names the old Next.js app used; canonical names win.
var legacyEnvKeys = map[string]string{
	"NEXT_PUBLIC_SUPABASE_URL":      "supabase_url",
	"NEXT_PUBLIC_SUPABASE_ANON_KEY": "supabase_key",
}

var listKeys = map[string]bool{
	"image_prefixes":    true,
	"normalize_targets": true,
}

// Load reads .env.local and .env when present, then the process environment,
// on top of Default().
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env.local", ".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{TransformFunc: transform(legacyEnvKeys)}), nil); err != nil {
		return nil, fmt.Errorf("load legacy env: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{TransformFunc: transform(envKeys)}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func transform(keys map[string]string) func(string, string) (string, any) {
	return func(name, value string) (string, any) {
		key, ok := keys[name]
		if !ok {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	}
}

func splitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, t := range c.NormalizeTargets {
		if parts := strings.Split(t, "."); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("invalid config: normalize target %q is not collection.column", t)
		}
	}
	return nil
}

// ServerReady reports what the HTTP server needs beyond Validate.
func (c *Config) ServerReady() error {
	if c.AuthSecret == "" {
		return errors.New("AUTH_SECRET is not set")
	}
	if c.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD is not set")
	}
	return nil
}
