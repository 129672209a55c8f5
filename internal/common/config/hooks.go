package config

import (
	"encoding"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// CustomHooks replaces viper's default decode hook, so the defaults it provides are composed back in.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		DurationSecondsHookFunc(),
		TextUnmarshalerHookFunc(),
	)),
}

// TextUnmarshalerHookFunc decodes strings into any target implementing encoding.TextUnmarshaler.
// Enumerations use this to reject unknown values while the configuration is loaded.
func TextUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		// check that src and target types are valid
		if f.Kind() != reflect.String {
			return data, nil
		}
		target := reflect.New(t)
		u, ok := target.Interface().(encoding.TextUnmarshaler)
		if !ok {
			return data, nil
		}
		if err := u.UnmarshalText([]byte(data.(string))); err != nil {
			return nil, err
		}
		return target.Elem().Interface(), nil
	}
}

// DurationSecondsHookFunc decodes plain numbers into a time.Duration as seconds, so that
// yaml files can say `probeTimeout: 2` as well as `probeTimeout: 2s`.
func DurationSecondsHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		}
		return data, nil
	}
}
