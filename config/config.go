// Package config provides the viper-backed configuration of a modscot instance along with its keys
// and defaults
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DebugKey enables debug logging, bool value
	DebugKey = "debug"

	// TimeLocationKey is the time location used by scheduled actions and status views, string value
	TimeLocationKey = "timeLocation"

	// MemberInfoCacheSizeKey is the number of member infos to keep in cache, int value. 0 disables caching
	MemberInfoCacheSizeKey = "memberInfoCacheSize"

	// StatusMessageCacheSizeKey is the number of ticket status message ids to keep in cache, int value. 0 disables caching
	StatusMessageCacheSizeKey = "statusMessageCacheSize"

	// EventProcessingPartitionCount is the number of partitions (and workers) processing events. Must be a power of two
	EventProcessingPartitionCount = "advanced.eventProcessingPartitionCount"

	// EventProcessingBufferedEventCount is the size of each partition's queue
	EventProcessingBufferedEventCount = "advanced.eventProcessingBufferedEventCount"

	// SupportPersonalLimitKey is the number of open tickets a member may have at once, int value
	SupportPersonalLimitKey = "support.personalLimit"

	// SupportCommunityLimitKey is the number of open tickets a community may have at once, int value
	SupportCommunityLimitKey = "support.communityLimit"

	// StorageBackendKey selects the ticket storage: memory, leveldb or postgres
	StorageBackendKey = "storage.backend"

	// StoragePathKey is the directory of leveldb databases
	StoragePathKey = "storage.path"

	// StoragePostgresDSNKey is the postgres connection string used by the postgres backend
	StoragePostgresDSNKey = "storage.postgresDSN"

	// SettingsBackendKey selects the community settings storage: memory, leveldb, redis or datastore
	SettingsBackendKey = "settings.backend"

	// SettingsRedisAddrKey is the redis address used by the redis settings backend
	SettingsRedisAddrKey = "settings.redisAddr"

	// SettingsRedisPasswordKey is the redis password used by the redis settings backend
	SettingsRedisPasswordKey = "settings.redisPassword"

	// SettingsGCloudProjectIDKey is the gcloud project of the datastore settings backend
	SettingsGCloudProjectIDKey = "settings.gcloudProjectID"

	// SettingsGCloudCredentialsFileKey is the credentials file of the datastore settings backend
	SettingsGCloudCredentialsFileKey = "settings.gcloudCredentialsFile"

	// AdminAddrKey is the listen address of the admin http endpoint. Empty disables it
	AdminAddrKey = "admin.addr"

	// PluginsKey is the root of plugin configurations
	PluginsKey = "plugins"

	// EnvPrefix is the prefix of environment variables overriding configuration values
	EnvPrefix = "MODSCOT"
)

// Storage backend names
const (
	MemoryBackend    = "memory"
	LevelDBBackend   = "leveldb"
	PostgresBackend  = "postgres"
	RedisBackend     = "redis"
	DatastoreBackend = "datastore"
)

// PluginConfig is the configuration sub-tree of a single plugin
type PluginConfig = viper.Viper

// NewViperWithDefaults creates a new viper instance with modscot's defaults
func NewViperWithDefaults() (v *viper.Viper) {
	v = viper.New()
	return LayerConfigWithDefaults(v)
}

// LayerConfigWithDefaults sets modscot's defaults on an existing viper instance
func LayerConfigWithDefaults(v *viper.Viper) *viper.Viper {
	v.SetDefault(DebugKey, false)
	v.SetDefault(TimeLocationKey, "Local")
	v.SetDefault(MemberInfoCacheSizeKey, 500)
	v.SetDefault(StatusMessageCacheSizeKey, 1000)
	v.SetDefault(EventProcessingPartitionCount, 16)
	v.SetDefault(EventProcessingBufferedEventCount, 10)
	v.SetDefault(SupportPersonalLimitKey, 2)
	v.SetDefault(SupportCommunityLimitKey, 25)
	v.SetDefault(StorageBackendKey, LevelDBBackend)
	v.SetDefault(StoragePathKey, "~/.modscot")
	v.SetDefault(SettingsBackendKey, LevelDBBackend)
	v.SetDefault(SettingsRedisAddrKey, "127.0.0.1:6379")
	v.SetDefault(AdminAddrKey, ":8086")

	return v
}

// LoadEnv loads environment variables from the given .env files (a missing file is not an error)
// and binds MODSCOT_ prefixed variables to configuration keys (i.e. MODSCOT_SUPPORT_PERSONALLIMIT)
func LoadEnv(v *viper.Viper, envFiles ...string) (err error) {
	for _, f := range envFiles {
		if err = godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("Failed to load environment from [%s]: %v", f, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return nil
}

// GetTimeLocation returns the time location configured with TimeLocationKey
func GetTimeLocation(v *viper.Viper) (timeLoc *time.Location, err error) {
	return time.LoadLocation(v.GetString(TimeLocationKey))
}

// GetPluginConfig returns the viper sub configuration for a named plugin
func GetPluginConfig(v *viper.Viper, name string) (pc *PluginConfig, err error) {
	pluginConfigKey := fmt.Sprintf("%s.%s", PluginsKey, name)
	if !v.IsSet(pluginConfigKey) {
		return nil, fmt.Errorf("Missing plugin configuration for plugin [%s] at [%s]", name, pluginConfigKey)
	}

	return v.Sub(pluginConfigKey), nil
}
