// Package transform implements document transforms, which are used by the
// editor to treat changes as first-class values, which can be saved, shared,
// and reasoned about.
package transform

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cozy/prosemirror-go/model"
)

// Step objects represent an atomic change. It generally applies only to the
// document it was created for, since the positions stored in it will only make
// sense for that document.
//
// New steps are defined by implementing this interface, and registering a
// JSON deserializer with a unique identifier in a StepRegistry.
type Step interface {
	// Applies this step to the given document, returning a result
	// object that either indicates failure, if the step can not be
	// applied to this document, or indicates success by containing a
	// transformed document.
	Apply(doc *model.Node) StepResult

	// GetMap gets the step map that represents the changes made by this step,
	// and which can be used to transform between positions in the old and the
	// new document.
	GetMap() *StepMap

	// Invert creates an inverted version of this step. Needs the document as
	// it was before the step as argument.
	Invert(doc *model.Node) (Step, error)

	// Map this step through a mappable thing, returning either a version of
	// that step with its positions adjusted, or nil if the step was entirely
	// deleted by the mapping.
	Map(mapping Mappable) Step

	// Merge tries to merge this step with another one, to be applied directly
	// after it. Returns the merged step when possible.
	Merge(other Step) (Step, bool)

	// ToJSON creates a JSON-serializeable representation of this step. The
	// stepType property holds the identifier the step is registered with.
	ToJSON() map[string]interface{}
}

// StepResult is the result of applying a step. Contains either a new document
// or a failure value.
type StepResult struct {
	// The transformed document.
	Doc *model.Node
	// Text providing information about a failed step.
	Failed string
}

// OK creates a successful step result.
func OK(doc *model.Node) StepResult {
	return StepResult{Doc: doc}
}

// Fail creates a failed step result.
func Fail(message string) StepResult {
	return StepResult{Failed: message}
}

// FromReplace calls Node.Replace with the given arguments. Create a successful
// result if it succeeds, and a failed one if it returns an error.
func FromReplace(doc *model.Node, from, to int, slice *model.Slice) StepResult {
	replaced, err := doc.Replace(from, to, slice)
	if err != nil {
		return Fail(err.Error())
	}
	return OK(replaced)
}

// StepFromJSONFunc deserializes a step of a given type.
type StepFromJSONFunc func(schema *model.Schema, obj map[string]interface{}) (Step, error)

// StepRegistry maps the stepType identifiers of the JSON representation to
// the functions that deserialize them.
type StepRegistry struct {
	mu   sync.RWMutex
	byID map[string]StepFromJSONFunc
}

// NewStepRegistry returns a registry that knows the built-in step types.
func NewStepRegistry() *StepRegistry {
	r := &StepRegistry{byID: map[string]StepFromJSONFunc{}}
	builtins := []struct {
		id string
		fn StepFromJSONFunc
	}{
		{"replace", ReplaceStepFromJSON},
		{"replaceAround", ReplaceAroundStepFromJSON},
		{"addMark", AddMarkStepFromJSON},
		{"removeMark", RemoveMarkStepFromJSON},
		{"addNodeMark", AddNodeMarkStepFromJSON},
		{"removeNodeMark", RemoveNodeMarkStepFromJSON},
		{"attr", AttrStepFromJSON},
		{"docAttr", DocAttrStepFromJSON},
		{"setAttrs", SetAttrsStepFromJSON},
	}
	for _, b := range builtins {
		r.byID[b.id] = b.fn
	}
	return r
}

// Register adds a step type to the registry. It returns an error if the
// identifier is already in use.
func (r *StepRegistry) Register(id string, fn StepFromJSONFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("Duplicate use of step JSON ID %s", id)
	}
	r.byID[id] = fn
	return nil
}

// FromJSON deserializes a step from its JSON representation.
func (r *StepRegistry) FromJSON(schema *model.Schema, raw interface{}) (Step, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.New("Invalid input for Step.fromJSON")
	}
	id, ok := obj["stepType"].(string)
	if !ok {
		return nil, errors.New("Invalid input for Step.fromJSON")
	}
	r.mu.RLock()
	fn, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("No step type %s defined", id)
	}
	return fn(schema, obj)
}

var defaultRegistry = NewStepRegistry()

// StepFromJSON deserializes a step with the built-in step types.
func StepFromJSON(schema *model.Schema, raw interface{}) (Step, error) {
	return defaultRegistry.FromJSON(schema, raw)
}

// intField reads a numeric field of a JSON object. JSON numbers are decoded
// as float64, but steps built in Go use ints.
func intField(obj map[string]interface{}, key string) (int, bool) {
	switch v := obj[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

func intFields(obj map[string]interface{}, keys ...string) ([]int, bool) {
	values := make([]int, len(keys))
	for i, key := range keys {
		v, ok := intField(obj, key)
		if !ok {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}
