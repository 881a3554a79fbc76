// SPDX-License-Identifier: MIT

// Package storage holds the pieces shared by the persistent session-storage
// backends: the state codec and its type registry. The backends themselves
// live in subpackages (memory, redis, badgerstore, sqlite, filestore).
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Codec serializes arbitrary typed session state for persistence. Backends
// that keep state in process memory do not need one.
type Codec interface {
	Encode(state any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// envelope is the persisted form: the registered type name plus the JSON
// payload.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// JSONCodec encodes state as a {type, data} JSON envelope. State types must
// be registered up front so Decode can rebuild the concrete value; like
// controller/view registration, this happens before the pipeline starts.
type JSONCodec struct {
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// Register adds the concrete types of the given sample values to the
// registry. Pointer samples register their element type.
func (c *JSONCodec) Register(samples ...any) *JSONCodec {
	for _, s := range samples {
		t := reflect.TypeOf(s)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		name := t.String()
		c.byName[name] = t
		c.byType[t] = name
	}
	return c
}

var nullJSON = []byte("null")

// Encode marshals state into its envelope. A nil state encodes as null, so
// backends can persist "no state yet" uniformly.
func (c *JSONCodec) Encode(state any) ([]byte, error) {
	if state == nil {
		return nullJSON, nil
	}
	t := reflect.TypeOf(state)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name, ok := c.byType[t]
	if !ok {
		return nil, fmt.Errorf("storage: state type %v is not registered", t)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("storage: encode state %v: %w", t, err)
	}
	return json.Marshal(envelope{Type: name, Data: data})
}

// Decode rebuilds the concrete state value from its envelope.
func (c *JSONCodec) Decode(data []byte) (any, error) {
	if len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), nullJSON) {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("storage: decode envelope: %w", err)
	}
	t, ok := c.byName[env.Type]
	if !ok {
		return nil, fmt.Errorf("storage: state type %q is not registered", env.Type)
	}
	v := reflect.New(t)
	if err := json.Unmarshal(env.Data, v.Interface()); err != nil {
		return nil, fmt.Errorf("storage: decode state %q: %w", env.Type, err)
	}
	return v.Elem().Interface(), nil
}
