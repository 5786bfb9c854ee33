// Package config provides a reusable loader for ZHTP node configuration
// files and environment variables. It is versioned so that applications
// can depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"zhtp-network/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a ZHTP node, one section per
// major component named in the startup order.
type Config struct {
	Network struct {
		NodeID         string   `mapstructure:"node_id" json:"node_id"`
		ChainID        uint32   `mapstructure:"chain_id" json:"chain_id"`
		ListenAddr     string   `mapstructure:"listen_addr" json:"listen_addr"`
		BootstrapPeers []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
	} `mapstructure:"network" json:"network"`

	DHT struct {
		BucketSize      int `mapstructure:"bucket_size" json:"bucket_size"`
		AlphaConcurrency int `mapstructure:"alpha_concurrency" json:"alpha_concurrency"`
		ReplicationFactor int `mapstructure:"replication_factor" json:"replication_factor"`
	} `mapstructure:"dht" json:"dht"`

	Mesh struct {
		NonceCacheTTLSeconds int    `mapstructure:"nonce_cache_ttl_seconds" json:"nonce_cache_ttl_seconds"`
		NonceCacheCapacity   int    `mapstructure:"nonce_cache_capacity" json:"nonce_cache_capacity"`
		RatePreset           string `mapstructure:"rate_preset" json:"rate_preset"`
	} `mapstructure:"mesh" json:"mesh"`

	Consensus struct {
		ProposeTimeoutMS   int `mapstructure:"propose_timeout_ms" json:"propose_timeout_ms"`
		PrevoteTimeoutMS   int `mapstructure:"prevote_timeout_ms" json:"prevote_timeout_ms"`
		PrecommitTimeoutMS int `mapstructure:"precommit_timeout_ms" json:"precommit_timeout_ms"`
		MinStake           uint64 `mapstructure:"min_stake" json:"min_stake"`
	} `mapstructure:"consensus" json:"consensus"`

	Storage struct {
		DataDir             string `mapstructure:"data_dir" json:"data_dir"`
		ChunkCacheHotBytes  int    `mapstructure:"chunk_cache_hot_bytes" json:"chunk_cache_hot_bytes"`
		ChunkCacheWarmBytes int    `mapstructure:"chunk_cache_warm_bytes" json:"chunk_cache_warm_bytes"`
		ChunkCacheColdBytes int    `mapstructure:"chunk_cache_cold_bytes" json:"chunk_cache_cold_bytes"`
		ErasureDataShards   int    `mapstructure:"erasure_data_shards" json:"erasure_data_shards"`
		ErasureParityShards int    `mapstructure:"erasure_parity_shards" json:"erasure_parity_shards"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment-specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is
// loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/zhtp/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
			}
		}
	}

	viper.AutomaticEnv() // picks up matching process environment variables
	setDefaults()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ZHTP_ENV environment
// variable. A missing config file is not an error: setDefaults backs
// every field with an environment-variable-or-fallback so a bare node
// still starts with sane values.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ZHTP_ENV", ""))
}

// setDefaults seeds viper's default layer so Unmarshal always
// populates every field even when no config file is present. Each
// default itself respects an environment-variable override, so a
// deployment can configure a node through the environment alone.
func setDefaults() {
	viper.SetDefault("network.node_id", utils.EnvOrDefault("ZHTP_NODE_ID", ""))
	viper.SetDefault("network.chain_id", utils.EnvOrDefaultInt("ZHTP_CHAIN_ID", 1))
	viper.SetDefault("network.listen_addr", utils.EnvOrDefault("ZHTP_LISTEN_ADDR", "0.0.0.0:7946"))

	viper.SetDefault("dht.bucket_size", utils.EnvOrDefaultInt("ZHTP_DHT_BUCKET_SIZE", 20))
	viper.SetDefault("dht.alpha_concurrency", utils.EnvOrDefaultInt("ZHTP_DHT_ALPHA", 3))
	viper.SetDefault("dht.replication_factor", utils.EnvOrDefaultInt("ZHTP_DHT_REPLICATION_FACTOR", 20))

	viper.SetDefault("mesh.nonce_cache_ttl_seconds", utils.EnvOrDefaultInt("ZHTP_NONCE_CACHE_TTL_SECONDS", 300))
	viper.SetDefault("mesh.nonce_cache_capacity", utils.EnvOrDefaultInt("ZHTP_NONCE_CACHE_CAPACITY", 100_000))
	viper.SetDefault("mesh.rate_preset", utils.EnvOrDefault("ZHTP_RATE_PRESET", "default"))

	viper.SetDefault("consensus.propose_timeout_ms", utils.EnvOrDefaultInt("ZHTP_PROPOSE_TIMEOUT_MS", 3000))
	viper.SetDefault("consensus.prevote_timeout_ms", utils.EnvOrDefaultInt("ZHTP_PREVOTE_TIMEOUT_MS", 1000))
	viper.SetDefault("consensus.precommit_timeout_ms", utils.EnvOrDefaultInt("ZHTP_PRECOMMIT_TIMEOUT_MS", 1000))
	viper.SetDefault("consensus.min_stake", utils.EnvOrDefaultUint64("ZHTP_MIN_STAKE", 1_000*1_000_000))

	viper.SetDefault("storage.data_dir", utils.EnvOrDefault("ZHTP_DATA_DIR", "./data"))
	viper.SetDefault("storage.chunk_cache_hot_bytes", utils.EnvOrDefaultInt("ZHTP_CHUNK_CACHE_HOT_BYTES", 64<<20))
	viper.SetDefault("storage.chunk_cache_warm_bytes", utils.EnvOrDefaultInt("ZHTP_CHUNK_CACHE_WARM_BYTES", 256<<20))
	viper.SetDefault("storage.chunk_cache_cold_bytes", utils.EnvOrDefaultInt("ZHTP_CHUNK_CACHE_COLD_BYTES", 1<<30))
	viper.SetDefault("storage.erasure_data_shards", utils.EnvOrDefaultInt("ZHTP_ERASURE_DATA_SHARDS", 10))
	viper.SetDefault("storage.erasure_parity_shards", utils.EnvOrDefaultInt("ZHTP_ERASURE_PARITY_SHARDS", 4))

	viper.SetDefault("logging.level", utils.EnvOrDefault("ZHTP_LOG_LEVEL", "info"))
	viper.SetDefault("logging.file", utils.EnvOrDefault("ZHTP_LOG_FILE", ""))
}
