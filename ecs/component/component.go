// Package component declares the data attached to entities. Systems in
// ecs/system own all behaviour.
package component

import (
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
)

var (
	ErrEntityNotAlive       = eris.New("ecs: entity not alive")
	ErrNilComponent         = eris.New("ecs: component is nil")
	ErrInvalidComponentKind = eris.New("ecs: invalid component kind")
)

type ComponentID uint32

var nextComponentID atomic.Uint32

// Kind is implemented by every ComponentKind so kinds of different types
// can be passed to one query.
type Kind interface {
	ID() ComponentID
	String() string
}

// ComponentKind identifies one component store. The name is the Go type
// name and only shows up in errors and logs.
type ComponentKind[T any] struct {
	id   ComponentID
	name string
}

func NewComponentKind[T any]() ComponentKind[T] {
	var zero T
	return ComponentKind[T]{
		id:   ComponentID(nextComponentID.Add(1)),
		name: fmt.Sprintf("%T", zero),
	}
}

func (k ComponentKind[T]) ID() ComponentID {
	return k.id
}

func (k ComponentKind[T]) String() string {
	if k.name == "" {
		return "invalid"
	}
	return k.name
}

func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

// ComponentHandle is the package-level registration each component file
// declares, e.g. var BodyComponent = NewComponent[Body]().
type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

func NewComponent[T any]() ComponentHandle[T] {
	return ComponentHandle[T]{kind: NewComponentKind[T]()}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] {
	return h.kind
}
