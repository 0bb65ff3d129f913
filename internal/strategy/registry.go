package strategy

import (
	"fmt"

	"github.com/yourusername/tradesim/internal/models"
)

// Kind identifies a strategy variant
type Kind string

const (
	KindMovingAverageCrossover Kind = "moving-average-crossover"
	KindRSI                    Kind = "rsi-strategy"
	KindBollingerBands         Kind = "bollinger-bands"
	KindMACD                   Kind = "macd-strategy"
	KindMeanReversion          Kind = "mean-reversion"
)

// RiskLevel is the advertised risk of a strategy
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Definition is one strategy variant: its parameter schema and its generator
type Definition struct {
	ID          Kind
	Name        string
	Description string
	RiskLevel   RiskLevel
	Parameters  []ParameterSpec
	generate    GenerateFunc
	constraint  func(Parameters) error
}

// Resolve validates params against the schema and returns them with defaults filled in
func (d Definition) Resolve(params Parameters) (Parameters, error) {
	resolved, err := resolveParameters(d.Parameters, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.ID, err)
	}
	if d.constraint != nil {
		if err := d.constraint(resolved); err != nil {
			return nil, fmt.Errorf("%s: %w: %s", d.ID, models.ErrInvalidParameters, err.Error())
		}
	}
	return resolved, nil
}

// Generate resolves params and runs the generator
func (d Definition) Generate(prices []float64, dates []string, params Parameters) (Result, Parameters, error) {
	if dates != nil && len(dates) != len(prices) {
		return Result{}, nil, fmt.Errorf("%s: %d dates for %d prices", d.ID, len(dates), len(prices))
	}
	resolved, err := d.Resolve(params)
	if err != nil {
		return Result{}, nil, err
	}
	return d.generate(prices, dates, resolved), resolved, nil
}

// Metadata describes the definition
func (d Definition) Metadata() Metadata {
	return Metadata{
		ID:          string(d.ID),
		Name:        d.Name,
		Description: d.Description,
		RiskLevel:   d.RiskLevel,
		Parameters:  d.Parameters,
	}
}

// Registry maps strategy ids to definitions
type Registry struct {
	definitions map[Kind]Definition
	order       []Kind
}

// NewRegistry builds a registry from definitions, in listing order
func NewRegistry(definitions ...Definition) *Registry {
	r := &Registry{definitions: make(map[Kind]Definition, len(definitions))}
	for _, d := range definitions {
		if _, exists := r.definitions[d.ID]; !exists {
			r.order = append(r.order, d.ID)
		}
		r.definitions[d.ID] = d
	}
	return r
}

// DefaultRegistry returns the built-in strategies
func DefaultRegistry() *Registry {
	return NewRegistry(
		MovingAverageCrossover(),
		RSIStrategy(),
		BollingerBands(),
		MACDCrossover(),
		MeanReversion(),
	)
}

// Lookup finds a definition by id
func (r *Registry) Lookup(id string) (Definition, error) {
	d, ok := r.definitions[Kind(id)]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", models.ErrUnknownStrategy, id)
	}
	return d, nil
}

// List returns all definitions in registration order
func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.definitions[id])
	}
	return out
}

func numberParam(id, name, description string, def, min, max, step float64) ParameterSpec {
	return ParameterSpec{
		ID:          id,
		Name:        name,
		Description: description,
		Type:        ParameterNumber,
		Default:     def,
		Min:         min,
		Max:         max,
		Step:        step,
	}
}
