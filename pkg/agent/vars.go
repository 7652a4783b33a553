package agent

import (
	"errors"
	"fmt"
)

// VarType is the declared type of an agent variable.
type VarType string

const (
	VarText   VarType = "text"
	VarArray  VarType = "array"
	VarNumber VarType = "number"
	VarObject VarType = "object"
)

var (
	// ErrVarExists is returned by AddVar for a name already in use.
	ErrVarExists = errors.New("variable already exists")

	// ErrVarNotFound is returned by DeleteVar for an unknown name.
	ErrVarNotFound = errors.New("variable not found")

	// ErrVarType is returned by ParseVarType for an unknown type.
	ErrVarType = errors.New("unknown variable type")
)

// ParseVarType validates a type name.
func ParseVarType(s string) (VarType, error) {
	switch t := VarType(s); t {
	case VarText, VarArray, VarNumber, VarObject:
		return t, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrVarType)
}

// Default is the value a new variable of the type starts with.
func (t VarType) Default() any {
	switch t {
	case VarText:
		return ""
	case VarArray:
		return []any{}
	default:
		return nil
	}
}
