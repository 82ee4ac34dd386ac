package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// UnmarshalJSON accepts the nodes and marks either as a list of [name, spec]
// pairs, or as an object whose keys are the names. The order of the keys is
// preserved in the latter case.
func (s *SchemaSpec) UnmarshalJSON(data []byte) error {
	var raw struct {
		Nodes   json.RawMessage `json:"nodes"`
		Marks   json.RawMessage `json:"marks"`
		TopNode string          `json:"topNode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.TopNode = raw.TopNode
	s.Nodes = nil
	s.Marks = nil
	err := decodeNamedSpecs(raw.Nodes, func(name string, data json.RawMessage) error {
		spec := &NodeSpec{}
		if err := unmarshalSpec(data, spec); err != nil {
			return fmt.Errorf("node %s: %w", name, err)
		}
		spec.Key = name
		s.Nodes = append(s.Nodes, spec)
		return nil
	})
	if err != nil {
		return err
	}
	return decodeNamedSpecs(raw.Marks, func(name string, data json.RawMessage) error {
		spec := &MarkSpec{}
		if err := unmarshalSpec(data, spec); err != nil {
			return fmt.Errorf("mark %s: %w", name, err)
		}
		spec.Key = name
		s.Marks = append(s.Marks, spec)
		return nil
	})
}

// MarshalJSON writes the nodes and marks as lists of [name, spec] pairs.
func (s SchemaSpec) MarshalJSON() ([]byte, error) {
	nodes := make([][]interface{}, len(s.Nodes))
	for i, spec := range s.Nodes {
		nodes[i] = []interface{}{spec.Key, spec}
	}
	marks := make([][]interface{}, len(s.Marks))
	for i, spec := range s.Marks {
		marks[i] = []interface{}{spec.Key, spec}
	}
	obj := map[string]interface{}{"nodes": nodes, "marks": marks}
	if s.TopNode != "" {
		obj["topNode"] = s.TopNode
	}
	return json.Marshal(obj)
}

func unmarshalSpec(data json.RawMessage, spec interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	return json.Unmarshal(data, spec)
}

func decodeNamedSpecs(data json.RawMessage, fn func(name string, data json.RawMessage) error) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	switch data[0] {
	case '[':
		var pairs []json.RawMessage
		if err := json.Unmarshal(data, &pairs); err != nil {
			return err
		}
		for _, pair := range pairs {
			var items []json.RawMessage
			if err := json.Unmarshal(pair, &items); err != nil {
				return err
			}
			if len(items) != 2 {
				return errors.New("Expected a [name, spec] pair")
			}
			var name string
			if err := json.Unmarshal(items[0], &name); err != nil {
				return err
			}
			if err := fn(name, items[1]); err != nil {
				return err
			}
		}
		return nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(data))
		if _, err := dec.Token(); err != nil {
			return err
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			name, _ := tok.(string)
			var spec json.RawMessage
			if err := dec.Decode(&spec); err != nil {
				return err
			}
			if err := fn(name, spec); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New("Expected a list or an object of specs")
}

// UnmarshalJSON sets HasDefault when the "default" key is present, even if
// its value is null.
func (a *AttributeSpec) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = AttributeSpec{}
	if d, ok := raw["default"]; ok {
		a.HasDefault = true
		if err := json.Unmarshal(d, &a.Default); err != nil {
			return err
		}
	}
	if v, ok := raw["validate"]; ok {
		if err := json.Unmarshal(v, &a.Validate); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON writes the default and the validate type names.
func (a AttributeSpec) MarshalJSON() ([]byte, error) {
	obj := map[string]interface{}{}
	if a.HasDefault || a.Default != nil {
		obj["default"] = a.Default
	}
	if a.Validate != "" {
		obj["validate"] = a.Validate
	}
	return json.Marshal(obj)
}
