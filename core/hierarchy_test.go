// SPDX-License-Identifier: MIT

package core

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

// Test hierarchy: commandEvent → textEvent → baseEvent → any.
type baseEvent struct{ sid string }

func (e baseEvent) SessionID() string { return e.sid }

type textEvent struct {
	baseEvent
	text string
}

type commandEvent struct {
	textEvent
	name string
}

// States: greeting and farewell both descend from convoState.
type convoState struct{ topic string }

type greeting struct{ convoState }

type farewell struct{ convoState }

func TestAncestryOfEmbeddedChain(t *testing.T) {
	got := ancestry(reflect.TypeOf(commandEvent{}))
	want := []reflect.Type{
		TypeOf[commandEvent](),
		TypeOf[textEvent](),
		TypeOf[baseEvent](),
		TypeOf[any](),
	}
	require.Equal(t, want, got)
}

func TestAncestryDerefsPointers(t *testing.T) {
	got := ancestry(reflect.TypeOf(&textEvent{}))
	want := []reflect.Type{
		TypeOf[textEvent](),
		TypeOf[baseEvent](),
		TypeOf[any](),
	}
	require.Equal(t, want, got)
}

func TestAncestryOfRootType(t *testing.T) {
	// A type with no embedded parent chains straight to the universal root.
	got := ancestry(reflect.TypeOf(convoState{}))
	require.Equal(t, []reflect.Type{TypeOf[convoState](), TypeOf[any]()}, got)
}

func TestAncestryOfNonStruct(t *testing.T) {
	got := ancestry(reflect.TypeOf("plain state"))
	require.Equal(t, []reflect.Type{reflect.TypeOf(""), TypeOf[any]()}, got)
}

func TestAncestrySkipsNonParentFields(t *testing.T) {
	// Named (non-anonymous) fields never contribute to the ancestry.
	type holder struct {
		Child convoState
	}
	got := ancestry(reflect.TypeOf(holder{}))
	require.Equal(t, []reflect.Type{reflect.TypeOf(holder{}), TypeOf[any]()}, got)
}
