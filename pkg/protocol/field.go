package protocol

import (
	"encoding/json"
	"fmt"
)

// FieldType names the control a FieldDef renders to.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldCheckbox FieldType = "checkbox"
	FieldSelect   FieldType = "select"
)

// FieldDef describes one entry of a node's interface schema.
type FieldDef struct {
	Type          FieldType `json:"type" mapstructure:"type" yaml:"type"`
	Label         string    `json:"label,omitempty" mapstructure:"label" yaml:"label,omitempty"`
	Placeholder   string    `json:"placeholder,omitempty" mapstructure:"placeholder" yaml:"placeholder,omitempty"`
	Default       any       `json:"default,omitempty" mapstructure:"default" yaml:"default,omitempty"`
	Options       []Option  `json:"options,omitempty" mapstructure:"options" yaml:"options,omitempty"`
	OptionsSource string    `json:"options_source,omitempty" mapstructure:"options_source" yaml:"options_source,omitempty"`
	Description   string    `json:"description,omitempty" mapstructure:"description" yaml:"description,omitempty"`
	Rows          int       `json:"rows,omitempty" mapstructure:"rows" yaml:"rows,omitempty"`
	Step          any       `json:"step,omitempty" mapstructure:"step" yaml:"step,omitempty"`
}

// Schema maps field keys to their definitions.
type Schema map[string]FieldDef

// Option is a select choice. On the wire it is either a bare value or
// an object {"value": ..., "text": ...}.
type Option struct {
	Value any    `json:"value" mapstructure:"value" yaml:"value"`
	Text  string `json:"text" mapstructure:"text" yaml:"text"`
}

// Key returns the string form used to compare option values with form values.
func (o Option) Key() string {
	if o.Value == nil {
		return ""
	}
	return fmt.Sprint(o.Value)
}

// Label returns the text shown for the option.
func (o Option) Label() string {
	if o.Text != "" {
		return o.Text
	}
	return o.Key()
}

// UnmarshalJSON accepts both the bare and the object form.
func (o *Option) UnmarshalJSON(data []byte) error {
	var obj struct {
		Value any    `json:"value"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		o.Value, o.Text = obj.Value, obj.Text
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = v
	o.Text = fmt.Sprint(v)
	return nil
}

// OptionFrom normalises a raw wire option.
func OptionFrom(raw any) Option {
	if m, ok := raw.(map[string]any); ok {
		opt := Option{Value: m["value"]}
		if t, ok := m["text"].(string); ok {
			opt.Text = t
		}
		return opt
	}
	return Option{Value: raw, Text: fmt.Sprint(raw)}
}
