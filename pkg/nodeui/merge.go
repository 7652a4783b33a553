package nodeui

import "github.com/aretw0/warp/pkg/protocol"

// MergeStaticInput builds the static input to persist after a save.
//
// Every schema key gets a value: the submitted one when present (checkboxes
// by presence, numbers parsed to float64), else the previous stored value,
// else the schema default, else nil. Stored keys that are not in the schema
// are carried over unchanged.
func MergeStaticInput(s protocol.Schema, prev map[string]any, sub Submission) map[string]any {
	out := make(map[string]any, len(s)+len(prev))
	for k, v := range prev {
		if _, inSchema := s[k]; !inSchema {
			out[k] = v
		}
	}
	for key, def := range s {
		if v, ok := submitted(def, key, sub); ok {
			out[key] = v
			continue
		}
		if v, ok := prev[key]; ok {
			out[key] = v
			continue
		}
		out[key] = def.Default
	}
	return out
}

func submitted(def protocol.FieldDef, key string, sub Submission) (any, bool) {
	if _, took := sub.Fields[key]; !took {
		return nil, false
	}
	raw, present := sub.Values[key]
	switch def.Type {
	case protocol.FieldCheckbox:
		return present, true
	case protocol.FieldNumber:
		if !present {
			return nil, false
		}
		n, ok := toNumber(raw)
		return n, ok
	default:
		return raw, present
	}
}
