package config

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	c := Default()
	if !assert.NotNil(t, c) {
		return
	}
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "dbg_get_inout_pair", c.Bridge.QueryFunc)
	assert.Equal(t, "dbg_add_pending_bps", c.Bridge.PendingFunc)
	assert.Equal(t, "dbg_remove_pending_bps", c.Bridge.NotifyFunc)
	assert.Equal(t, "dbg_out", c.Bridge.OutVar)
	assert.Equal(t, ".text", c.Bridge.TextSection)
	assert.Equal(t, UseZeroOffset, c.Bridge.OnMissingModule)
	assert.Equal(t, "sysv-amd64", c.Bridge.CallingConvention)
}

func TestLoadYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	err := v.ReadConfig(bytes.NewBufferString(`
log:
  level: debug
bridge:
  out_var: my_out
  on_missing_module: FAIL
`))
	assert.NoError(t, err)

	c, err := Load(v)
	assert.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "my_out", c.Bridge.OutVar)
	assert.Equal(t, FailOnMissing, c.Bridge.OnMissingModule)
	assert.Equal(t, "dbg_get_inout_pair", c.Bridge.QueryFunc)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key string
		val string
	}{
		{"log.level", "loud"},
		{"bridge.on_missing_module", "ignore"},
		{"bridge.calling_convention", "ms-x64"},
		{"bridge.out_var", " "},
	}

	for _, tt := range tests {
		v := viper.New()
		v.Set(tt.key, tt.val)
		_, err := Load(v)
		assert.Error(t, err, tt.key)
	}
}
