package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"
)

// Comment holds the schema definition for the Comment entity.
// The models package builds its Comment mutations from these fields.
type Comment struct {
	ent.Schema
}

func (Comment) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeMixin{},
	}
}

func (Comment) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("commentable_id").
			StorageKey("comments_by_commentable_id"),
	}
}

// Fields of the Comment.
func (Comment) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		field.String("commentable_id").
			Immutable().
			Comment("Polymorphic owner of the comment"),
		field.String("author"),
		field.Text("body"),
	}
}

// Edges of the Comment.
func (Comment) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("notifications", Notification.Type),
	}
}
