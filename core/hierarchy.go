// SPDX-License-Identifier: MIT

package core

import "reflect"

// anyType is the universal root every dispatch ancestry terminates in. A
// binding registered under TypeOf[any]() matches any event (or state).
var anyType = reflect.TypeOf((*any)(nil)).Elem()

// TypeOf returns the reflect.Type used to key registry bindings for T.
// TypeOf[any]() yields the universal root.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// ancestry returns the dispatch ancestry of t from most to least specific,
// ending with the universal root. Go has no runtime class hierarchy, so the
// chain is declared structurally: a type's parent is its first anonymous
// (embedded) struct field. Pointer types dispatch as their element type.
//
//	type MarketEvent struct{ ... }
//	type PriceUpdated struct{ MarketEvent; ... }
//
// gives PriceUpdated the ancestry [PriceUpdated, MarketEvent, any].
func ancestry(t reflect.Type) []reflect.Type {
	chain := make([]reflect.Type, 0, 4)
	seen := make(map[reflect.Type]bool, 4)
	for t != nil && !seen[t] {
		t = deref(t)
		if t == nil || seen[t] {
			break
		}
		seen[t] = true
		chain = append(chain, t)
		t = parentOf(t)
	}
	if len(chain) == 0 || chain[len(chain)-1] != anyType {
		chain = append(chain, anyType)
	}
	return chain
}

// parentOf returns the declared parent of t, or nil for a hierarchy root.
func parentOf(t reflect.Type) reflect.Type {
	if t.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := deref(f.Type)
		if ft != nil && ft.Kind() == reflect.Struct {
			return ft
		}
	}
	return nil
}

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
