package cipher

import (
	"fmt"
	"sort"
	"sync"
)

var (
	operationsRegistry = make(map[string]Operation)
	registryMu         sync.RWMutex
)

// RegisterOperation adds an operation to the global registry
func RegisterOperation(op Operation) error {
	if op == nil {
		return fmt.Errorf("cannot register nil operation")
	}

	name := op.Name()
	if name == "" {
		return fmt.Errorf("operation name cannot be empty")
	}
	switch op.Type() {
	case OperationTypeAnalyze, OperationTypeDecrypt, OperationTypeEncrypt:
	default:
		return fmt.Errorf("operation %s has unknown type %q", name, op.Type())
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := operationsRegistry[name]; exists {
		return fmt.Errorf("operation %s is already registered", name)
	}

	operationsRegistry[name] = op
	return nil
}

func mustRegister(ops ...Operation) {
	for _, op := range ops {
		if err := RegisterOperation(op); err != nil {
			panic(err)
		}
	}
}

// GetOperation retrieves an operation from the registry by name
func GetOperation(name string) (Operation, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	op, exists := operationsRegistry[name]
	return op, exists
}

// ListOperations returns all registered operations sorted by name
func ListOperations() []Operation {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ops := make([]Operation, 0, len(operationsRegistry))
	for _, op := range operationsRegistry {
		ops = append(ops, op)
	}

	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Name() < ops[j].Name()
	})

	return ops
}

// ListOperationsByType returns operations filtered by type
func ListOperationsByType(opType OperationType) []Operation {
	var ops []Operation
	for _, op := range ListOperations() {
		if op.Type() == opType {
			ops = append(ops, op)
		}
	}
	return ops
}

// ListOperationInfo describes every registered operation in name order.
func ListOperationInfo() []OperationInfo {
	ops := ListOperations()
	out := make([]OperationInfo, 0, len(ops))
	for _, op := range ops {
		out = append(out, Describe(op))
	}
	return out
}

// resetRegistry restores the built-in operations (for tests)
func resetRegistry() {
	registryMu.Lock()
	operationsRegistry = make(map[string]Operation)
	registryMu.Unlock()
	registerBuiltins()
}
