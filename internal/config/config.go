package config

import (
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/dappmarket/market-ledger/internal/log"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Env     string
	Network string
	Index   string
	Debug   bool
	LogPath string

	ApiPort string

	PlatformOwner        string
	PlatformFeePercent   uint
	CollectionFeePercent uint
	RoyaltyFeePercent    uint

	IpfsHosts       []string
	IpfsTimeout     int
	MetadataRetries int

	Queue         QueueConfig
	ElasticSearch ElasticSearchConfig
	Aws           AwsConfig
	SentryDsn     string
}

type QueueConfig struct {
	Enabled bool
}

type AwsConfig struct {
	AccessKey string
	SecretKey string
	Token     string
	Region    string
}

type ElasticSearchConfig struct {
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Aws              bool
	Username         string
	Password         string
	MappingDir       string
	BulkPersistCount int
	Refresh          string
}

var ipfsHosts = []string{
	"https://gateway.pinata.cloud",
	"https://cloudflare-ipfs.com",
	"https://gateway.ipfs.io",
}

func Init(app string) {
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Unable to load .env")
	}

	initLogger(app)
}

func initLogger(app string) {
	cfg := Get()
	log.NewLogger(cfg.LogPath+"/"+app+".log", cfg.Debug, cfg.SentryDsn)
}

func Get() *Config {
	return &Config{
		Env:                  getString("ENV", ""),
		Network:              getString("NETWORK", "local"),
		Index:                getString("INDEX_NAME", "market"),
		Debug:                getBool("DEBUG", false),
		LogPath:              getString("LOG_PATH", "./var/log"),
		ApiPort:              getString("API_PORT", "8080"),
		PlatformOwner:        getString("PLATFORM_OWNER", ""),
		PlatformFeePercent:   getUint("PLATFORM_FEE_PERCENT", 1),
		CollectionFeePercent: getUint("COLLECTION_FEE_PERCENT", 1),
		RoyaltyFeePercent:    getUint("ROYALTY_FEE_PERCENT", 1),
		IpfsHosts:            getSlice("IPFS_HOSTS", ipfsHosts, ","),
		IpfsTimeout:          getInt("IPFS_TIMEOUT", 10),
		MetadataRetries:      getInt("METADATA_RETRIES", 3),
		SentryDsn:            getString("SENTRY_DSN", ""),
		Queue: QueueConfig{
			Enabled: getBool("QUEUE_ENABLED", false),
		},
		Aws: AwsConfig{
			AccessKey: getString("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getString("AWS_SECRET_KEY_ID", ""),
			Token:     getString("AWS_TOKEN", ""),
			Region:    getString("AWS_REGION", ""),
		},
		ElasticSearch: ElasticSearchConfig{
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Aws:              getBool("ELASTIC_SEARCH_AWS", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			MappingDir:       getString("ELASTIC_SEARCH_MAPPING_DIR", "./data/mappings"),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 300),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
		},
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getUint(key string, defaultValue uint) uint {
	val := getInt(key, int(defaultValue))
	if val < 0 {
		return defaultValue
	}

	return uint(val)
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}
