package nodeui

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/warp/pkg/protocol"
)

var (
	// ErrUnknownField is returned by Form.Set for keys outside the schema.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidValue is returned by Form.Set when the value does not fit the control.
	ErrInvalidValue = errors.New("invalid value for field")

	// ErrInert is returned by Form.Set on a control that cannot be edited.
	ErrInert = errors.New("field is not editable")
)

// ErrorOption is the single placeholder shown when dynamic options fail to load.
var ErrorOption = protocol.Option{Value: "error", Text: "error"}

// Control is one rendered field.
type Control struct {
	Key           string
	Type          protocol.FieldType
	Label         string
	Placeholder   string
	Description   string
	Rows          int
	Step          any
	Value         any
	Options       []protocol.Option
	OptionsSource string

	// Loading is set while dynamic options are being fetched.
	Loading bool

	// Inert controls are shown but neither editable nor submitted.
	Inert bool

	// Err holds the reason the control became inert.
	Err string
}

// Active reports whether the control takes part in submissions.
func (c *Control) Active() bool { return !c.Inert && !c.Loading }

// Selected returns the index of the current option, or -1.
func (c *Control) Selected() int {
	if c.Value == nil {
		return -1
	}
	key := fmt.Sprint(c.Value)
	for i, opt := range c.Options {
		if opt.Key() == key {
			return i
		}
	}
	return -1
}

// Form is an ordered set of controls, sorted by field key.
type Form struct {
	Controls []*Control
	index    map[string]*Control
}

// Build creates a form. Each control starts at staticInput[key], or the
// schema default when the stored value is missing or null.
func Build(s protocol.Schema, staticInput map[string]any) *Form {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := &Form{index: make(map[string]*Control, len(keys))}
	for _, key := range keys {
		def := s[key]
		c := &Control{
			Key:           key,
			Type:          def.Type,
			Label:         def.Label,
			Placeholder:   def.Placeholder,
			Description:   def.Description,
			Rows:          def.Rows,
			Step:          def.Step,
			OptionsSource: def.OptionsSource,
			Options:       append([]protocol.Option(nil), def.Options...),
		}
		if c.Label == "" {
			c.Label = key
		}
		if v, ok := staticInput[key]; ok && v != nil {
			c.Value = v
		} else {
			c.Value = def.Default
		}
		if c.Type == protocol.FieldSelect && c.OptionsSource != "" && len(def.Options) == 0 {
			c.Loading = true
		}
		f.Controls = append(f.Controls, c)
		f.index[key] = c
	}
	return f
}

// Control returns the control for key.
func (f *Form) Control(key string) (*Control, bool) {
	c, ok := f.index[key]
	return c, ok
}

// Set records a user edit.
func (f *Form) Set(key string, value any) error {
	c, ok := f.index[key]
	if !ok {
		return fmt.Errorf("%q: %w", key, ErrUnknownField)
	}
	if !c.Active() {
		return fmt.Errorf("%q: %w", key, ErrInert)
	}
	switch c.Type {
	case protocol.FieldCheckbox:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%q expects a bool: %w", key, ErrInvalidValue)
		}
		c.Value = b
	case protocol.FieldSelect:
		want := fmt.Sprint(value)
		for _, opt := range c.Options {
			if opt.Key() == want {
				c.Value = opt.Value
				return nil
			}
		}
		return fmt.Errorf("%q has no option %q: %w", key, want, ErrInvalidValue)
	case protocol.FieldNumber:
		switch v := value.(type) {
		case float64, float32, int, int64, string:
			c.Value = v
		default:
			return fmt.Errorf("%q expects a number: %w", key, ErrInvalidValue)
		}
	default:
		if value == nil {
			c.Value = ""
			return nil
		}
		text, err := cleanText(fmt.Sprint(value))
		if err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
		c.Value = text
	}
	return nil
}

// Submission is the form-data view of a form: a key is present in Values
// only when its control submitted something, and checkboxes appear only when
// checked. Fields lists every control that took part.
type Submission struct {
	Values map[string]any
	Fields map[string]protocol.FieldType
}

// Submit collects the active controls.
func (f *Form) Submit() Submission {
	sub := Submission{Values: map[string]any{}, Fields: map[string]protocol.FieldType{}}
	for _, c := range f.Controls {
		if !c.Active() {
			continue
		}
		sub.Fields[c.Key] = c.Type
		switch c.Type {
		case protocol.FieldCheckbox:
			if truthy(c.Value) {
				sub.Values[c.Key] = true
			}
		case protocol.FieldSelect:
			if i := c.Selected(); i >= 0 {
				sub.Values[c.Key] = c.Options[i].Value
			} else if len(c.Options) > 0 {
				sub.Values[c.Key] = c.Options[0].Value
			}
		case protocol.FieldNumber:
			if c.Value != nil {
				sub.Values[c.Key] = c.Value
			}
		default:
			if c.Value == nil {
				sub.Values[c.Key] = ""
			} else {
				sub.Values[c.Key] = fmt.Sprint(c.Value)
			}
		}
	}
	return sub
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "on" || s == "1" || s == "yes"
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
