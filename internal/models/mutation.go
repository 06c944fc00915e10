package models

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"entgo.io/ent"
	"github.com/samber/lo"

	"github.com/looplj/oppressor/internal/ent/schema"
)

var (
	commentFields = append(
		lo.FlatMap(schema.Comment{}.Mixin(), func(m ent.Mixin, _ int) []string {
			return fieldNames(m.Fields())
		}),
		fieldNames(schema.Comment{}.Fields())...,
	)
	commentEdges = lo.Map(schema.Comment{}.Edges(), func(e ent.Edge, _ int) string {
		return e.Descriptor().Name
	})
)

func fieldNames(fields []ent.Field) []string {
	return lo.Map(fields, func(f ent.Field, _ int) string {
		return f.Descriptor().Name
	})
}

// CommentMutation represents an operation that mutates a Comment.
// Its fields are the ones declared by schema.Comment.
type CommentMutation struct {
	op     ent.Op
	fields map[string]ent.Value
}

var _ ent.Mutation = (*CommentMutation)(nil)

func NewCommentMutation(op ent.Op) *CommentMutation {
	return &CommentMutation{
		op:     op,
		fields: map[string]ent.Value{},
	}
}

func (m *CommentMutation) Op() ent.Op {
	return m.op
}

func (m *CommentMutation) Type() string {
	return "Comment"
}

// Fields returns the names of the fields set in this mutation, in schema order.
func (m *CommentMutation) Fields() []string {
	return lo.Filter(commentFields, func(name string, _ int) bool {
		_, ok := m.fields[name]
		return ok
	})
}

func (m *CommentMutation) Field(name string) (ent.Value, bool) {
	v, ok := m.fields[name]
	return v, ok
}

func (m *CommentMutation) SetField(name string, value ent.Value) error {
	if !slices.Contains(commentFields, name) {
		return fmt.Errorf("unknown Comment field %s", name)
	}

	m.fields[name] = value

	return nil
}

func (m *CommentMutation) AddedFields() []string {
	return nil
}

func (m *CommentMutation) AddedField(name string) (ent.Value, bool) {
	return nil, false
}

func (m *CommentMutation) AddField(name string, value ent.Value) error {
	return fmt.Errorf("unknown Comment numeric field %s", name)
}

func (m *CommentMutation) ClearedFields() []string {
	return nil
}

func (m *CommentMutation) FieldCleared(name string) bool {
	return false
}

func (m *CommentMutation) ClearField(name string) error {
	return fmt.Errorf("unknown Comment nullable field %s", name)
}

func (m *CommentMutation) ResetField(name string) error {
	if !slices.Contains(commentFields, name) {
		return fmt.Errorf("unknown Comment field %s", name)
	}

	delete(m.fields, name)

	return nil
}

func (m *CommentMutation) AddedEdges() []string {
	return nil
}

func (m *CommentMutation) AddedIDs(name string) []ent.Value {
	return nil
}

func (m *CommentMutation) RemovedEdges() []string {
	return nil
}

func (m *CommentMutation) RemovedIDs(name string) []ent.Value {
	return nil
}

func (m *CommentMutation) ClearedEdges() []string {
	return nil
}

func (m *CommentMutation) EdgeCleared(name string) bool {
	return false
}

func (m *CommentMutation) ClearEdge(name string) error {
	return fmt.Errorf("unknown Comment unique edge %s", name)
}

func (m *CommentMutation) ResetEdge(name string) error {
	if !slices.Contains(commentEdges, name) {
		return fmt.Errorf("unknown Comment edge %s", name)
	}

	return nil
}

func (m *CommentMutation) OldField(ctx context.Context, name string) (ent.Value, error) {
	return nil, errors.New("OldField is only allowed on UpdateOne operations")
}
