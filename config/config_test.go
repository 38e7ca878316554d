package config_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexandre-normand/modscot/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithDefault(t *testing.T) {
	v := config.NewViperWithDefaults()

	assert.Equal(t, false, v.GetBool(config.DebugKey), "%s should be %t", config.DebugKey, false)
	assert.Equal(t, "Local", v.GetString(config.TimeLocationKey), "%s should be %s", config.TimeLocationKey, "Local")
	assert.Equal(t, 500, v.GetInt(config.MemberInfoCacheSizeKey), "%s should be %d", config.MemberInfoCacheSizeKey, 500)
	assert.Equal(t, 16, v.GetInt(config.EventProcessingPartitionCount), "%s should be %d", config.EventProcessingPartitionCount, 16)
	assert.Equal(t, 10, v.GetInt(config.EventProcessingBufferedEventCount), "%s should be %d", config.EventProcessingBufferedEventCount, 10)
	assert.Equal(t, 2, v.GetInt(config.SupportPersonalLimitKey), "%s should be %d", config.SupportPersonalLimitKey, 2)
	assert.Equal(t, 25, v.GetInt(config.SupportCommunityLimitKey), "%s should be %d", config.SupportCommunityLimitKey, 25)
	assert.Equal(t, config.LevelDBBackend, v.GetString(config.StorageBackendKey))
	assert.Equal(t, config.LevelDBBackend, v.GetString(config.SettingsBackendKey))
}

func TestLayerConfigWithDefaults(t *testing.T) {
	v := viper.New()

	for key := range config.NewViperWithDefaults().AllSettings() {
		assert.Nil(t, v.Get(key))
	}

	v = config.LayerConfigWithDefaults(v)
	for key, expectedVal := range config.NewViperWithDefaults().AllSettings() {
		assert.Equal(t, expectedVal, v.Get(key), "%s should be %v", key, expectedVal)
	}
}

func TestLayeredConfigWithDefaultsAndOverrides(t *testing.T) {
	v := viper.New()
	v.Set(config.EventProcessingPartitionCount, 32)
	v.Set(config.SupportPersonalLimitKey, 5)

	v = config.LayerConfigWithDefaults(v)

	assert.Equal(t, 32, v.GetInt(config.EventProcessingPartitionCount))
	assert.Equal(t, 5, v.GetInt(config.SupportPersonalLimitKey))
	assert.Equal(t, 25, v.GetInt(config.SupportCommunityLimitKey))
}

func TestLoadEnvFromFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "modscotEnv")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, ioutil.WriteFile(envFile, []byte("MODSCOT_SUPPORT_COMMUNITYLIMIT=40\n"), 0600))
	defer os.Unsetenv("MODSCOT_SUPPORT_COMMUNITYLIMIT")

	v := config.NewViperWithDefaults()
	err = config.LoadEnv(v, envFile)
	require.NoError(t, err)

	assert.Equal(t, 40, v.GetInt(config.SupportCommunityLimitKey))
}

func TestLoadEnvWithMissingFile(t *testing.T) {
	v := config.NewViperWithDefaults()

	err := config.LoadEnv(v, "/does/not/exist/.env")

	assert.NoError(t, err)
}

func TestGetTimeLocationWithTimezoneId(t *testing.T) {
	v := viper.New()
	v.Set(config.TimeLocationKey, "America/Los_Angeles")

	timeLoc, err := config.GetTimeLocation(v)

	assert.Nil(t, err)
	if assert.NotNil(t, timeLoc) {
		assert.Equal(t, "America/Los_Angeles", timeLoc.String())
	}
}

func TestGetTimeLocationWithInvalidValue(t *testing.T) {
	v := viper.New()
	v.Set(config.TimeLocationKey, "invalid")

	_, err := config.GetTimeLocation(v)

	if assert.NotNil(t, err) {
		assert.Contains(t, err.Error(), "invalid")
	}
}

func TestGetPluginConfig(t *testing.T) {
	v := viper.New()
	v.Set(config.PluginsKey, map[string]interface{}{
		"presence": map[string]interface{}{
			"every": "minutes",
		},
	})

	pc, err := config.GetPluginConfig(v, "presence")

	assert.Nil(t, err)
	if assert.NotNil(t, pc) {
		assert.Equal(t, "minutes", pc.GetString("every"))
	}
}

func TestGetPluginConfigWithMissingConfig(t *testing.T) {
	v := viper.New()

	_, err := config.GetPluginConfig(v, "pluginName")

	if assert.NotNil(t, err) {
		assert.Contains(t, err.Error(), "Missing plugin configuration for plugin [pluginName]")
	}
}
