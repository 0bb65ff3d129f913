package strategy

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/tradesim/internal/models"
)

// ParameterType is the value kind of a strategy parameter
type ParameterType string

const (
	ParameterNumber  ParameterType = "number"
	ParameterBoolean ParameterType = "boolean"
	ParameterSelect  ParameterType = "select"
)

// ParameterSpec declares one tunable strategy parameter and its bounds
type ParameterSpec struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Type        ParameterType `json:"type"`
	Default     any           `json:"default"`
	Min         float64       `json:"min_value,omitempty"`
	Max         float64       `json:"max_value,omitempty"`
	Step        float64       `json:"step,omitempty"`
	Options     []string      `json:"options,omitempty"`
}

// Parameters maps parameter ids to values
type Parameters map[string]any

var validate = validator.New()

// Float returns a numeric parameter, 0 when absent or not numeric
func (p Parameters) Float(id string) float64 {
	v, _ := toFloat(p[id])
	return v
}

// Int returns a numeric parameter rounded to the nearest integer
func (p Parameters) Int(id string) int {
	return int(math.Round(p.Float(id)))
}

// Clone returns a shallow copy
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ParseParameter converts a raw command-line value into the type the parameter declares
func ParseParameter(spec ParameterSpec, raw string) (any, error) {
	switch spec.Type {
	case ParameterNumber:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %q is not a number", spec.ID, raw)
		}
		return v, nil
	case ParameterBoolean:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %q is not a boolean", spec.ID, raw)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// resolveParameters checks params against specs and fills in defaults. Numbers are normalised to float64.
func resolveParameters(specs []ParameterSpec, params Parameters) (Parameters, error) {
	known := make(map[string]ParameterSpec, len(specs))
	for _, spec := range specs {
		known[spec.ID] = spec
	}

	var problems []string
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := known[k]; !ok {
			problems = append(problems, fmt.Sprintf("unknown parameter %q", k))
		}
	}

	resolved := make(Parameters, len(specs))
	for _, spec := range specs {
		value, ok := params[spec.ID]
		if !ok || value == nil {
			value = spec.Default
		}
		normalised, err := checkValue(spec, value)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		resolved[spec.ID] = normalised
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidParameters, strings.Join(problems, "; "))
	}
	return resolved, nil
}

func checkValue(spec ParameterSpec, value any) (any, error) {
	switch spec.Type {
	case ParameterNumber:
		v, ok := toFloat(value)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s must be a number, got %v", spec.ID, value)
		}
		if err := validate.Var(v, fmt.Sprintf("gte=%g,lte=%g", spec.Min, spec.Max)); err != nil {
			return nil, fmt.Errorf("%s must be between %g and %g, got %g", spec.ID, spec.Min, spec.Max, v)
		}
		if spec.Step > 0 {
			steps := (v - spec.Min) / spec.Step
			if math.Abs(steps-math.Round(steps)) > 1e-6 {
				return nil, fmt.Errorf("%s must be a multiple of %g from %g, got %g", spec.ID, spec.Step, spec.Min, v)
			}
		}
		return v, nil
	case ParameterBoolean:
		v, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%s must be a boolean, got %v", spec.ID, value)
		}
		return v, nil
	case ParameterSelect:
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string, got %v", spec.ID, value)
		}
		if err := validate.Var(v, "oneof="+strings.Join(spec.Options, " ")); err != nil {
			return nil, fmt.Errorf("%s must be one of [%s], got %q", spec.ID, strings.Join(spec.Options, ", "), v)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%s has unsupported type %q", spec.ID, spec.Type)
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
