package tablegraph

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupportedModelClass is returned when a model class lacks the
	// capability an operation needs, or a value cannot provide a graph node.
	ErrNotSupportedModelClass = errors.New("not supported model class")

	// ErrNodeWithIDDoesNotExist is returned when a row references a node that
	// is not in the graph.
	ErrNodeWithIDDoesNotExist = errors.New("node with id does not exist")

	// ErrRelationshipDoesNotExist is returned when a row references a
	// relationship that is not in the graph.
	ErrRelationshipDoesNotExist = errors.New("relationship does not exist")

	// ErrInvalidArgumentsConfiguration is returned when the arguments of a call
	// contradict each other or are incomplete.
	ErrInvalidArgumentsConfiguration = errors.New("invalid arguments configuration")
)

// NodeNotFoundError is returned when no node of Label has Key equal to Value.
type NodeNotFoundError struct {
	Label string
	Key   string
	Value any
}

// Error returns the error string.
func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("%s node with %s=%v does not exist", e.Label, e.Key, e.Value)
}

// Is reports whether target is ErrNodeWithIDDoesNotExist.
func (e *NodeNotFoundError) Is(target error) bool {
	return target == ErrNodeWithIDDoesNotExist
}

// IsNodeNotFound returns true if the error is a NodeNotFoundError.
func IsNodeNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NodeNotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNodeWithIDDoesNotExist)
}

// RelationshipNotFoundError is returned when no relationship of Type links
// the nodes identified by From and To.
type RelationshipNotFoundError struct {
	Type string
	From any
	To   any
}

// Error returns the error string.
func (e *RelationshipNotFoundError) Error() string {
	return fmt.Sprintf("relationship %s from %v to %v does not exist", e.Type, e.From, e.To)
}

// Is reports whether target is ErrRelationshipDoesNotExist.
func (e *RelationshipNotFoundError) Is(target error) bool {
	return target == ErrRelationshipDoesNotExist
}

// IsRelationshipNotFound returns true if the error is a RelationshipNotFoundError.
func IsRelationshipNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *RelationshipNotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrRelationshipDoesNotExist)
}

func invalidArguments(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgumentsConfiguration, fmt.Sprintf(format, args...))
}
