package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/mixin"
)

// TimeMixin stamps comments and notifications with UTC write times.
// Copied comments get fresh timestamps, not the source comment's.
type TimeMixin struct {
	mixin.Schema
}

func (TimeMixin) Fields() []ent.Field {
	return []ent.Field{
		field.Time("created_at").
			Immutable().
			Default(utcNow).
			Comment("When the record was first written"),
		field.Time("updated_at").
			Default(utcNow).
			UpdateDefault(utcNow),
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
