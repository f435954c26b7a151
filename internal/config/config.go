// Package config handles configuration loading for the bxd-request tool.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax). This allows key passwords to
// be injected at runtime instead of being stored in the file.
//
// # Configuration Sections
//
//   - customer: customer id and environment written into every request
//   - keys: where the signing key and certificate are loaded from (pem, pkcs12
//     or pkcs11)
//   - signing: digest algorithm of the XML signature
//   - request: default command fields (target id, status, file type)
//   - logging: log level and output format
//
// # Example Configuration
//
//	customer:
//	  id: "11111111"
//	  environment: PRODUCTION
//
//	keys:
//	  mode: pkcs12
//	  pkcs12:
//	    file: /etc/bxd/signing.p12
//	    password: ${BXD_KEY_PASSWORD}
//
//	request:
//	  targetId: 11111111A1
//	  fileType: TITO
//
// See [Load] for loading configuration from a file.
package config

import (
	"crypto"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Customer CustomerConfig `yaml:"customer"`
	Keys     KeysConfig     `yaml:"keys"`
	Signing  SigningConfig  `yaml:"signing"`
	Request  RequestConfig  `yaml:"request"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CustomerConfig identifies the bank customer
type CustomerConfig struct {
	ID string `yaml:"id"`
	// Environment is PRODUCTION or TEST
	Environment string `yaml:"environment"`
}

// KeysConfig holds signing key settings
type KeysConfig struct {
	// Mode determines how the key and certificate are loaded
	// - "pem": separate PEM files for key and certificate
	// - "pkcs12": a single PKCS#12 (.p12/.pfx) bundle
	// - "pkcs11": a token (HSM/smart card), requires the pkcs11 build tag
	Mode string `yaml:"mode"`

	PEM    PEMKeyConfig `yaml:"pem"`
	PKCS12 PKCS12Config `yaml:"pkcs12"`
	PKCS11 PKCS11Config `yaml:"pkcs11"`
}

// PEMKeyConfig holds PEM file locations
type PEMKeyConfig struct {
	KeyFile  string `yaml:"keyFile"`
	CertFile string `yaml:"certFile"`
}

// PKCS12Config holds PKCS#12 bundle settings
type PKCS12Config struct {
	File string `yaml:"file"`
	// Password can be an env var reference like ${BXD_KEY_PASSWORD}
	Password string `yaml:"password"`
}

// PKCS11Config holds PKCS#11 token settings
type PKCS11Config struct {
	// ModulePath is the path to the PKCS#11 library (.so/.dylib/.dll)
	ModulePath string `yaml:"modulePath"`
	TokenLabel string `yaml:"tokenLabel"`
	// PIN can be an env var reference like ${BXD_TOKEN_PIN}
	PIN string `yaml:"pin"`
	// KeyLabel is the label shared by the key pair and its certificate
	KeyLabel string `yaml:"keyLabel"`
}

// SigningConfig holds XML signature settings
type SigningConfig struct {
	// Digest is "sha1" (default, what the banks expect) or "sha256"
	Digest string `yaml:"digest"`
}

// Hash returns the crypto.Hash for Digest.
func (c SigningConfig) Hash() crypto.Hash {
	if strings.EqualFold(c.Digest, "sha256") {
		return crypto.SHA256
	}
	return crypto.SHA1
}

// RequestConfig holds defaults for command specific fields
type RequestConfig struct {
	TargetID string `yaml:"targetId"`
	Status   string `yaml:"status"`
	FileType string `yaml:"fileType"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel returns Level as a slog.Level. Unknown levels map to info;
// Load rejects them.
func (c LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	// Validate
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Customer.Environment == "" {
		c.Customer.Environment = "PRODUCTION"
	}
	if c.Keys.Mode == "" {
		c.Keys.Mode = "pem"
	}
	if c.Signing.Digest == "" {
		c.Signing.Digest = "sha1"
	}
	if c.Request.Status == "" {
		c.Request.Status = "NEW"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) validate() error {
	if c.Customer.ID == "" {
		return fmt.Errorf("customer.id is required")
	}

	switch c.Customer.Environment {
	case "PRODUCTION", "TEST":
	default:
		return fmt.Errorf("customer.environment must be 'PRODUCTION' or 'TEST', got '%s'", c.Customer.Environment)
	}

	switch c.Keys.Mode {
	case "pem":
		if c.Keys.PEM.KeyFile == "" || c.Keys.PEM.CertFile == "" {
			return fmt.Errorf("keys.pem.keyFile and keys.pem.certFile are required when mode is 'pem'")
		}
	case "pkcs12":
		if c.Keys.PKCS12.File == "" {
			return fmt.Errorf("keys.pkcs12.file is required when mode is 'pkcs12'")
		}
	case "pkcs11":
		p := c.Keys.PKCS11
		if p.ModulePath == "" || p.TokenLabel == "" || p.KeyLabel == "" {
			return fmt.Errorf("keys.pkcs11.modulePath, tokenLabel and keyLabel are required when mode is 'pkcs11'")
		}
	default:
		return fmt.Errorf("keys.mode must be 'pem', 'pkcs12' or 'pkcs11', got '%s'", c.Keys.Mode)
	}

	switch strings.ToLower(c.Signing.Digest) {
	case "sha1", "sha256":
	default:
		return fmt.Errorf("signing.digest must be 'sha1' or 'sha256', got '%s'", c.Signing.Digest)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json', got '%s'", c.Logging.Format)
	}

	return nil
}
