package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the proof service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	RedisURL    string
	PostgresURL string
	ChainRPCURL string

	DomainName        string
	DomainVersion     string
	ChainID           int64
	VerifyingContract string

	SignerPrivateKey     string
	AllowEphemeralSigner bool

	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool

	ProofTTL           time.Duration
	NonceRetention     time.Duration
	ClockSkewTolerance time.Duration
	SweepInterval      time.Duration
	OracleTimeout      time.Duration
	SessionTTL         time.Duration

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		RedisURL    string `yaml:"redis_url"`
		PostgresURL string `yaml:"postgres_url"`
		ChainRPCURL string `yaml:"chain_rpc_url"`
	} `yaml:"dependencies"`
	Proof struct {
		DomainName        string `yaml:"domain_name"`
		DomainVersion     string `yaml:"domain_version"`
		ChainID           int64  `yaml:"chain_id"`
		VerifyingContract string `yaml:"verifying_contract"`
	} `yaml:"proof"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "proof-service",
		HTTPPort:             8080,
		GRPCPort:             9090,
		DomainName:           "GatePass",
		DomainVersion:        "1",
		ChainID:              1,
		AllowEphemeralSigner: true,
		JWTKeyID:             "proof-session-key-1",
		AllowEphemeralJWT:    true,
		ProofTTL:             60 * time.Second,
		NonceRetention:       300 * time.Second,
		ClockSkewTolerance:   5 * time.Second,
		SweepInterval:        60 * time.Second,
		OracleTimeout:        5 * time.Second,
		SessionTTL:           24 * time.Hour,
		MaxDBConns:           20,
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		OutboxClaimTTL:       30 * time.Second,
		OutboxMaxRetries:     5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.PostgresURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.ChainRPCURL != "" {
			cfg.ChainRPCURL = f.Dependencies.ChainRPCURL
		}
		if f.Proof.DomainName != "" {
			cfg.DomainName = f.Proof.DomainName
		}
		if f.Proof.DomainVersion != "" {
			cfg.DomainVersion = f.Proof.DomainVersion
		}
		if f.Proof.ChainID > 0 {
			cfg.ChainID = f.Proof.ChainID
		}
		if f.Proof.VerifyingContract != "" {
			cfg.VerifyingContract = f.Proof.VerifyingContract
		}
	}

	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.PostgresURL = envOrDefault("POSTGRES_URL", cfg.PostgresURL)
	cfg.ChainRPCURL = envOrDefault("CHAIN_RPC_URL", cfg.ChainRPCURL)
	cfg.DomainName = envOrDefault("PROOF_DOMAIN_NAME", cfg.DomainName)
	cfg.DomainVersion = envOrDefault("PROOF_DOMAIN_VERSION", cfg.DomainVersion)
	cfg.ChainID = int64(envInt("CHAIN_ID", int(cfg.ChainID)))
	cfg.VerifyingContract = envOrDefault("VERIFYING_CONTRACT", cfg.VerifyingContract)
	// The signer key never comes from the config file; only env/secret mounts.
	cfg.SignerPrivateKey = os.Getenv("SIGNER_PRIVATE_KEY")
	cfg.AllowEphemeralSigner = envBool("SIGNER_ALLOW_EPHEMERAL", cfg.AllowEphemeralSigner)
	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.ProofTTL = time.Duration(envInt("PROOF_TTL_SECONDS", int(cfg.ProofTTL.Seconds()))) * time.Second
	cfg.NonceRetention = time.Duration(envInt("NONCE_RETENTION_SECONDS", int(cfg.NonceRetention.Seconds()))) * time.Second
	cfg.ClockSkewTolerance = time.Duration(envInt("CLOCK_SKEW_SECONDS", int(cfg.ClockSkewTolerance.Seconds()))) * time.Second
	cfg.SweepInterval = time.Duration(envInt("SWEEP_INTERVAL_SECONDS", int(cfg.SweepInterval.Seconds()))) * time.Second
	cfg.OracleTimeout = time.Duration(envInt("ORACLE_TIMEOUT_SECONDS", int(cfg.OracleTimeout.Seconds()))) * time.Second
	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_HOURS", int(cfg.SessionTTL.Hours()))) * time.Hour
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	if cfg.ProofTTL <= 0 {
		return Config{}, fmt.Errorf("proof ttl must be positive")
	}
	if cfg.NonceRetention < cfg.ProofTTL {
		return Config{}, fmt.Errorf("nonce retention must be at least the proof ttl")
	}
	if cfg.SignerPrivateKey == "" && !cfg.AllowEphemeralSigner {
		return Config{}, fmt.Errorf("missing SIGNER_PRIVATE_KEY")
	}
	if (cfg.JWTPrivateKeyPEM == "" || cfg.JWTPublicKeyPEM == "") && !cfg.AllowEphemeralJWT {
		return Config{}, fmt.Errorf("missing JWT_PRIVATE_KEY_PEM or JWT_PUBLIC_KEY_PEM")
	}
	if cfg.VerifyingContract != "" && cfg.ChainRPCURL == "" {
		return Config{}, fmt.Errorf("verifying contract configured without CHAIN_RPC_URL")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
