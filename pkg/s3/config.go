package s3

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/ini.v1"
)

const (
	// DefaultEndpoint is the ECS Test Drive S3 endpoint. Self-hosted ECS
	// listens on http://ecs-address:9020 or https://ecs-address:9021.
	DefaultEndpoint = "https://object.ecstestdrive.com"
	DefaultRegion   = "us-east-1"

	// DefaultPublicEndpointTemplate needs wildcard DNS and a matching certificate.
	DefaultPublicEndpointTemplate = "https://" + namespacePlaceholder + ".public.ecstestdrive.com"

	namespacePlaceholder = "{namespace}"

	configSection = "s3"
	envPrefix     = "S3"
)

// Config holds values to configure the client
type Config struct {
	Endpoint  string `envconfig:"ENDPOINT"`
	Namespace string `envconfig:"NAMESPACE"`
	Region    string `envconfig:"REGION"`
	// AccessKeyID is equivalent to the user
	AccessKeyID string `envconfig:"ACCESS_KEY_ID"`
	// AccessKeyID2 is a second user, used as grantee in ACL exercises
	AccessKeyID2    string `envconfig:"ACCESS_KEY_ID_2"`
	SecretAccessKey string `envconfig:"SECRET_KEY"`
	// PathStyle is always enforced by NewClient, custom endpoints
	// usually lack wildcard DNS.
	PathStyle        bool             `envconfig:"PATH_STYLE"`
	SignatureVersion SignatureVersion `envconfig:"SIGNATURE_VERSION"`

	Bucket                 string `envconfig:"BUCKET"`
	Bucket2                string `envconfig:"BUCKET_2"`
	VersionedBucket        string `envconfig:"VERSIONED_BUCKET"`
	Object                 string `envconfig:"OBJECT"`
	PublicEndpointTemplate string `envconfig:"PUBLIC_ENDPOINT"`
}

// DefaultConfig returns the workshop defaults. Credentials and namespace
// are placeholders and have to be provided by the user.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:               DefaultEndpoint,
		Region:                 DefaultRegion,
		PathStyle:              true,
		SignatureVersion:       SignatureV4,
		Bucket:                 "workshop-bucket",
		Bucket2:                "workshop-bucket-2",
		VersionedBucket:        "workshop-versioned-bucket",
		Object:                 "workshop-object",
		PublicEndpointTemplate: DefaultPublicEndpointTemplate,
	}
}

// LoadConfig resolves the configuration from defaults, the optional INI
// file at path and finally S3_* environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overrides values with the keys found in the [s3] section
// of an INI file.
func (cfg *Config) LoadFile(path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return cfg.loadSection(f.Section(configSection))
}

func (cfg *Config) loadSection(section *ini.Section) error {
	strKeys := map[string]*string{
		"endpoint":         &cfg.Endpoint,
		"namespace":        &cfg.Namespace,
		"region":           &cfg.Region,
		"access_key_id":    &cfg.AccessKeyID,
		"access_key_id_2":  &cfg.AccessKeyID2,
		"secret_key":       &cfg.SecretAccessKey,
		"bucket":           &cfg.Bucket,
		"bucket_2":         &cfg.Bucket2,
		"versioned_bucket": &cfg.VersionedBucket,
		"object":           &cfg.Object,
		"public_endpoint":  &cfg.PublicEndpointTemplate,
	}
	for name, field := range strKeys {
		if section.HasKey(name) {
			*field = section.Key(name).String()
		}
	}

	if section.HasKey("path_style") {
		pathStyle, err := section.Key("path_style").Bool()
		if err != nil {
			return fmt.Errorf("invalid path_style: %w", err)
		}
		cfg.PathStyle = pathStyle
	}
	if section.HasKey("signature_version") {
		if err := cfg.SignatureVersion.UnmarshalText([]byte(section.Key("signature_version").String())); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides values with S3_* environment variables that are set.
func (cfg *Config) ApplyEnv() error {
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// HasCredentials reports whether both keys are set. Either one missing
// makes the client fall back to anonymous requests.
func (cfg *Config) HasCredentials() bool {
	return cfg.AccessKeyID != "" && cfg.SecretAccessKey != ""
}

// PublicEndpoint interpolates the namespace into the public endpoint template.
func (cfg *Config) PublicEndpoint() (string, error) {
	if cfg.Namespace == "" {
		return "", errors.New("namespace is not set, cannot build public endpoint")
	}
	tmpl := cfg.PublicEndpointTemplate
	if tmpl == "" {
		tmpl = DefaultPublicEndpointTemplate
	}
	if !strings.Contains(tmpl, namespacePlaceholder) {
		return "", fmt.Errorf("public endpoint template %q has no %s placeholder", tmpl, namespacePlaceholder)
	}
	return strings.ReplaceAll(tmpl, namespacePlaceholder, cfg.Namespace), nil
}

// String renders the config with secrets masked.
func (cfg *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "endpoint=%s region=%s namespace=%s ", cfg.Endpoint, cfg.Region, cfg.Namespace)
	fmt.Fprintf(&b, "access-key-id=%s access-key-id-2=%s secret-key=%s ",
		mask(cfg.AccessKeyID), mask(cfg.AccessKeyID2), maskSecret(cfg.SecretAccessKey))
	fmt.Fprintf(&b, "path-style=%t signature=%s", cfg.PathStyle, cfg.SignatureVersion)
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "<unset>"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

func maskSecret(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "********"
}
