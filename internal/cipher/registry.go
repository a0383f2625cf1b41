package cipher

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// opRegistry maps operation names, as written in recipes and on the
// command line, to their implementations.
type opRegistry struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

// operations is the process-wide registry. Pipelines, recipes, the detector
// and the CLI all resolve names through it.
var operations = &opRegistry{ops: make(map[string]Operation)}

// validOperationName rejects names that could not survive a comma separated
// --ops list or a recipe file.
func validOperationName(name string) error {
	if name == "" {
		return fmt.Errorf("operation name cannot be empty")
	}
	if strings.ContainsAny(name, ", \t\r\n") {
		return fmt.Errorf("operation name %q contains a separator", name)
	}
	return nil
}

func (r *opRegistry) add(op Operation, replace bool) error {
	if op == nil {
		return fmt.Errorf("cannot register nil operation")
	}
	name := op.Name()
	if err := validOperationName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ops[name]; exists && !replace {
		return fmt.Errorf("operation %s is already registered", name)
	}
	r.ops[name] = op
	return nil
}

func (r *opRegistry) get(name string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// sorted returns the operations accepted by keep, ordered by name.
func (r *opRegistry) sorted(keep func(Operation) bool) []Operation {
	r.mu.RLock()
	out := make([]Operation, 0, len(r.ops))
	for _, op := range r.ops {
		if keep == nil || keep(op) {
			out = append(out, op)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// RegisterOperation makes op available to pipelines under op.Name(). Names
// are unique and may not contain commas or whitespace.
func RegisterOperation(op Operation) error {
	return operations.add(op, false)
}

// GetOperation looks up a registered operation by name.
func GetOperation(name string) (Operation, bool) {
	return operations.get(name)
}

// ListOperations returns every registered operation ordered by name.
func ListOperations() []Operation {
	return operations.sorted(nil)
}

// ListOperationsByType returns the operations of one category, ordered by
// name.
func ListOperationsByType(opType OperationType) []Operation {
	return operations.sorted(func(op Operation) bool { return op.Type() == opType })
}

func UnregisterOperation(name string) {
	operations.mu.Lock()
	defer operations.mu.Unlock()
	delete(operations.ops, name)
}

// RegisterDefaults installs the cipher, normalization, grouping and armor
// operations. Names already taken are left alone.
func RegisterDefaults() {
	for _, op := range defaultOperations() {
		if _, taken := operations.get(op.Name()); !taken {
			_ = operations.add(op, true)
		}
	}
}

// ClearRegistry empties the registry. Tests call RegisterDefaults afterwards.
func ClearRegistry() {
	operations.mu.Lock()
	defer operations.mu.Unlock()
	operations.ops = make(map[string]Operation)
}
