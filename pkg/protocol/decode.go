package protocol

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var optionType = reflect.TypeOf(Option{})

// optionHook lets bare option values decode into Option.
func optionHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != optionType || from.Kind() == reflect.Map {
		return data, nil
	}
	return OptionFrom(data), nil
}

// Decode maps a response payload onto a typed struct using its mapstructure tags.
// Loose scalar types (ids sent as numbers, numbers sent as strings) are accepted.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       optionHook,
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
