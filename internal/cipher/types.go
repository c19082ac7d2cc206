package cipher

import (
	"context"
	"fmt"
)

// OperationType defines the category of an operation
type OperationType string

const (
	OperationTypeAnalyze OperationType = "analyze"
	OperationTypeDecrypt OperationType = "decrypt"
	OperationTypeEncrypt OperationType = "encrypt"
)

// Operation is a named analysis or keyed transformation over a text
type Operation interface {
	// Name returns the unique identifier for this operation
	Name() string

	// Type returns the category of this operation
	Type() OperationType

	// Description returns a human-readable description
	Description() string

	// Params lists the parameter names the operation reads
	Params() []string

	// Execute applies the operation to the input text
	Execute(ctx context.Context, input string, params map[string]interface{}) (*Report, error)

	// Reverse returns the inverse operation if available
	Reverse() (Operation, bool)
}

// Report is the uniform result of an operation. Only the fields relevant to
// the operation that produced it are set.
type Report struct {
	Operation       string            `json:"operation"`
	Plaintext       string            `json:"plaintext,omitempty"`
	Candidates      []CaesarCandidate `json:"candidates,omitempty"`
	Frequencies     []LetterFrequency `json:"frequencies,omitempty"`
	TotalLetters    int               `json:"total_letters,omitempty"`
	Shift           *int              `json:"shift,omitempty"`
	ChiSquare       *float64          `json:"chi_square,omitempty"`
	AffineKey       *AffineKey        `json:"affine_key,omitempty"`
	AffineSolutions []AffineKey       `json:"affine_solutions,omitempty"`
	KeyLengths      []int             `json:"key_lengths,omitempty"`
	Repeats         []TrigramRepeat   `json:"repeats,omitempty"`
	KeySquare       []string          `json:"key_square,omitempty"`
	Message         string            `json:"message,omitempty"`
}

// OperationConfig represents configuration for an operation in a pipeline
type OperationConfig struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Pipeline chains operations, feeding each step's plaintext into the next
type Pipeline struct {
	Operations []OperationConfig `json:"operations"`
	Reversible bool              `json:"reversible"`
}

// StepFunc runs a single pipeline step. It lets callers wrap each operation
// with their own instrumentation.
type StepFunc func(ctx context.Context, op Operation, input string, params map[string]interface{}) (*Report, error)

// Execute runs the pipeline on the input text and returns the last report
func (p *Pipeline) Execute(ctx context.Context, input string) (*Report, error) {
	return p.Run(ctx, input, func(ctx context.Context, op Operation, input string, params map[string]interface{}) (*Report, error) {
		return op.Execute(ctx, input, params)
	})
}

// Run feeds input through every step using step to execute each operation.
// Every step but the last must produce plaintext.
func (p *Pipeline) Run(ctx context.Context, input string, step StepFunc) (*Report, error) {
	if len(p.Operations) == 0 {
		return nil, fmt.Errorf("pipeline has no operations")
	}

	text := input
	var report *Report
	for i, opConfig := range p.Operations {
		op, exists := GetOperation(opConfig.Name)
		if !exists {
			return nil, fmt.Errorf("unknown operation at step %d: %s", i, opConfig.Name)
		}

		var err error
		report, err = step(ctx, op, text, opConfig.Parameters)
		if err != nil {
			return nil, fmt.Errorf("operation %s failed at step %d: %w", opConfig.Name, i, err)
		}
		if report.Plaintext == "" && i < len(p.Operations)-1 {
			return nil, fmt.Errorf("operation %s at step %d produced no text to chain", opConfig.Name, i)
		}
		text = report.Plaintext
	}

	return report, nil
}

// Reverse creates the inverse pipeline: steps in reverse order, each replaced
// by its inverse operation with the same parameters.
func (p *Pipeline) Reverse() (*Pipeline, error) {
	if !p.Reversible {
		return nil, &NotReversibleError{}
	}

	reversed := &Pipeline{
		Operations: make([]OperationConfig, len(p.Operations)),
		Reversible: true,
	}

	for i, opConfig := range p.Operations {
		op, exists := GetOperation(opConfig.Name)
		if !exists {
			return nil, fmt.Errorf("unknown operation: %s", opConfig.Name)
		}

		reverseOp, ok := op.Reverse()
		if !ok {
			return nil, &NotReversibleError{Operation: opConfig.Name}
		}

		reversed.Operations[len(p.Operations)-1-i] = OperationConfig{
			Name:       reverseOp.Name(),
			Parameters: opConfig.Parameters,
		}
	}

	return reversed, nil
}

// Recipe is a named, stored pipeline
type Recipe struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Pipeline    Pipeline `json:"pipeline"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// OperationInfo describes a registered operation for listings.
type OperationInfo struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Params      []string `json:"params,omitempty"`
	Reversible  bool     `json:"reversible"`
}

// Describe summarises op.
func Describe(op Operation) OperationInfo {
	_, reversible := op.Reverse()
	return OperationInfo{
		Name:        op.Name(),
		Type:        string(op.Type()),
		Description: op.Description(),
		Params:      op.Params(),
		Reversible:  reversible,
	}
}

// BaseOperation provides common functionality for operations
type BaseOperation struct {
	NameValue        string
	TypeValue        OperationType
	DescriptionValue string
	ParamNames       []string
	ReverseOp        Operation
}

func (b *BaseOperation) Name() string {
	return b.NameValue
}

func (b *BaseOperation) Type() OperationType {
	return b.TypeValue
}

func (b *BaseOperation) Description() string {
	return b.DescriptionValue
}

func (b *BaseOperation) Params() []string {
	return b.ParamNames
}

func (b *BaseOperation) Reverse() (Operation, bool) {
	if b.ReverseOp == nil {
		return nil, false
	}
	return b.ReverseOp, true
}
