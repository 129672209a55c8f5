package config

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type colour string

func (c *colour) UnmarshalText(text []byte) error {
	switch s := strings.ToLower(string(text)); s {
	case "red", "blue":
		*c = colour(s)
		return nil
	}
	return fmt.Errorf("unknown colour %q", string(text))
}

type testConfig struct {
	Colour  colour
	Wait    time.Duration
	Names   []string
	Timeout time.Duration
}

func decode(t *testing.T, yaml string) (testConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	var c testConfig
	err := v.Unmarshal(&c, CustomHooks...)
	return c, err
}

func TestCustomHooks(t *testing.T) {
	c, err := decode(t, "colour: RED\nwait: 150ms\nnames: a,b\ntimeout: 2\n")
	require.NoError(t, err)
	assert.Equal(t, testConfig{
		Colour:  "red",
		Wait:    150 * time.Millisecond,
		Names:   []string{"a", "b"},
		Timeout: 2 * time.Second,
	}, c)
}

func TestCustomHooks_FractionalSeconds(t *testing.T) {
	c, err := decode(t, "timeout: 0.05\n")
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, c.Timeout)
}

func TestCustomHooks_InvalidEnum(t *testing.T) {
	_, err := decode(t, "colour: green\n")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown colour")
}
