package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/protocol"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var files embed.FS

const (
	layoutURL = "https://warp.dev/schemas/layout.json"
	fieldURL  = "https://warp.dev/schemas/field.json"
)

// Validator holds the compiled schemas. It is safe for concurrent use.
type Validator struct {
	layout *jsonschema.Schema
	field  *jsonschema.Schema
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	for url, name := range map[string]string{layoutURL: "schemas/layout.json", fieldURL: "schemas/field.json"} {
		raw, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", name, err)
		}
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add %s: %w", name, err)
		}
	}

	layout, err := c.Compile(layoutURL)
	if err != nil {
		return nil, fmt.Errorf("compile layout schema: %w", err)
	}
	field, err := c.Compile(fieldURL)
	if err != nil {
		return nil, fmt.Errorf("compile field schema: %w", err)
	}
	return &Validator{layout: layout, field: field}, nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns a shared Validator. The embedded schemas are fixed at build
// time, so a compile failure is a programming error and panics.
func Default() *Validator {
	defaultOnce.Do(func() {
		v, err := New()
		if err != nil {
			panic(err)
		}
		defaultValidator = v
	})
	return defaultValidator
}

// ValidateSnapshot checks a layout snapshot.
func (v *Validator) ValidateSnapshot(snap graph.Snapshot) error {
	doc, err := toJSONValue(snap)
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}
	if err := v.layout.Validate(doc); err != nil {
		return toAggregate("", err)
	}
	return nil
}

// ValidateInterface checks every field of a node interface. It returns the
// valid subset, and an *AggregateError naming the rejected fields if any.
func (v *Validator) ValidateInterface(s protocol.Schema) (protocol.Schema, error) {
	valid := make(protocol.Schema, len(s))
	var errs []error

	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		def := s[key]
		doc, err := toJSONValue(def)
		if err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: def})
			continue
		}
		if err := v.field.Validate(doc); err != nil {
			errs = append(errs, ValidationErrors(toAggregate(key, err))...)
			continue
		}
		valid[key] = def
	}
	if len(errs) > 0 {
		return valid, &AggregateError{Errors: errs}
	}
	return valid, nil
}

// toJSONValue round-trips a value through JSON so numbers become json.Number.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}

func toAggregate(key string, err error) error {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &AggregateError{Errors: []error{&ValidationError{Key: key, Reason: err.Error()}}}
	}
	var out []error
	for _, leaf := range leaves(verr) {
		loc := "/" + strings.Join(leaf.InstanceLocation, "/")
		reason := leaf.Error()
		if unit := leaf.BasicOutput(); unit.Error != nil {
			reason = unit.Error.String()
		}
		name := loc
		if key != "" {
			name = key
			if loc != "/" {
				reason = loc + ": " + reason
			}
		}
		out = append(out, &ValidationError{Key: name, Reason: reason})
	}
	return &AggregateError{Errors: out}
}

func leaves(verr *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(verr.Causes) == 0 {
		return []*jsonschema.ValidationError{verr}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range verr.Causes {
		out = append(out, leaves(cause)...)
	}
	return out
}
