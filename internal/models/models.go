package models

import (
	"context"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent"
	"github.com/google/uuid"

	"github.com/looplj/oppressor/internal/callbacks"
	"github.com/looplj/oppressor/internal/log"
	"github.com/looplj/oppressor/internal/oppressor"
)

type Comment struct {
	ID            uuid.UUID
	CommentableID string
	Author        string
	Body          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Notification struct {
	ID         uuid.UUID
	CommentID  uuid.UUID
	Recipients []string
	CreatedAt  time.Time
}

// Models holds the Comment and Notification classes and their in-memory tables.
type Models struct {
	Comment      *oppressor.Class
	Notification *oppressor.Class

	mu            sync.RWMutex
	hooks         []ent.Hook
	comments      map[string][]Comment
	notifications []Notification
	recipients    map[string][]string
}

func New(suppressor *oppressor.Suppressor) *Models {
	m := &Models{
		comments:   map[string][]Comment{},
		recipients: map[string][]string{},
	}

	m.Notification = oppressor.NewClass("Notification", oppressor.WithSuppressor(suppressor)).
		Define("create", m.createNotification)

	m.Comment = oppressor.NewClass("Comment", oppressor.WithSuppressor(suppressor)).
		Define("after_create", m.notifyRecipients)

	m.Use(callbacks.After(m.Comment, "after_create", ent.OpCreate))

	return m
}

// Use adds a list of mutation hooks to the hooks stack of comment writes.
// Hooks run in the order they were added, outermost first.
func (m *Models) Use(hooks ...ent.Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = append(m.hooks, hooks...)
}

// Subscribe registers recipients notified about new comments on commentable.
func (m *Models) Subscribe(commentableID string, recipients ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recipients[commentableID] = append(m.recipients[commentableID], recipients...)
}

// CreateComment stores a comment through the comment hooks, so its after_create callback runs.
func (m *Models) CreateComment(ctx context.Context, commentableID, author, body string) (Comment, error) {
	mutation := NewCommentMutation(ent.OpCreate)

	for name, value := range map[string]ent.Value{
		"commentable_id": commentableID,
		"author":         author,
		"body":           body,
	} {
		if err := mutation.SetField(name, value); err != nil {
			return Comment{}, err
		}
	}

	m.mu.RLock()
	hooks := append([]ent.Hook(nil), m.hooks...)
	m.mu.RUnlock()

	var mutator ent.Mutator = ent.MutateFunc(m.insertComment)
	for i := len(hooks) - 1; i >= 0; i-- {
		mutator = hooks[i](mutator)
	}

	v, err := mutator.Mutate(ctx, mutation)
	if err != nil {
		return Comment{}, fmt.Errorf("create comment on %s: %w", commentableID, err)
	}

	comment, ok := v.(Comment)
	if !ok {
		return Comment{}, fmt.Errorf("create comment on %s: unexpected value %T", commentableID, v)
	}

	return comment, nil
}

func (m *Models) insertComment(ctx context.Context, mutation ent.Mutation) (ent.Value, error) {
	if mutation.Op() != ent.OpCreate {
		return nil, fmt.Errorf("%s: unsupported op %s", mutation.Type(), mutation.Op())
	}

	commentableID, err := field[string](mutation, "commentable_id")
	if err != nil {
		return nil, err
	}

	author, err := field[string](mutation, "author")
	if err != nil {
		return nil, err
	}

	body, err := field[string](mutation, "body")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment := Comment{
		ID:            uuid.New(),
		CommentableID: commentableID,
		Author:        author,
		Body:          body,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for name, value := range map[string]ent.Value{
		"id":         comment.ID,
		"created_at": comment.CreatedAt,
		"updated_at": comment.UpdatedAt,
	} {
		if err := mutation.SetField(name, value); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.comments[commentableID] = append(m.comments[commentableID], comment)
	m.mu.Unlock()

	return comment, nil
}

func (m *Models) Comments(commentableID string) []Comment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]Comment(nil), m.comments[commentableID]...)
}

func (m *Models) Notifications() []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]Notification(nil), m.notifications...)
}

func (m *Models) notifyRecipients(ctx context.Context, recv *oppressor.Instance, args ...any) (any, error) {
	commentID, err := attribute[uuid.UUID](recv, "id")
	if err != nil {
		return nil, fmt.Errorf("comment after_create: %w", err)
	}

	commentableID, err := attribute[string](recv, "commentable_id")
	if err != nil {
		return nil, fmt.Errorf("comment after_create: %w", err)
	}

	m.mu.RLock()
	recipients := append([]string(nil), m.recipients[commentableID]...)
	m.mu.RUnlock()

	return m.Notification.New(nil).Call(ctx, "create", commentID, recipients)
}

func (m *Models) createNotification(ctx context.Context, recv *oppressor.Instance, args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("notification create: expected comment id and recipients, got %d args", len(args))
	}

	commentID, ok := args[0].(uuid.UUID)
	if !ok {
		return nil, fmt.Errorf("notification create: expected comment id, got %T", args[0])
	}

	recipients, _ := args[1].([]string)

	notification := Notification{
		ID:         uuid.New(),
		CommentID:  commentID,
		Recipients: recipients,
		CreatedAt:  time.Now().UTC(),
	}

	m.mu.Lock()
	m.notifications = append(m.notifications, notification)
	m.mu.Unlock()

	log.Debug(ctx, "notification created",
		log.String("notification_id", notification.ID.String()),
		log.String("comment_id", commentID.String()),
		log.Int("recipients", len(recipients)),
	)

	return notification, nil
}

func field[T any](mutation ent.Mutation, name string) (T, error) {
	var zero T

	v, ok := mutation.Field(name)
	if !ok {
		return zero, fmt.Errorf("%s: missing field %s", mutation.Type(), name)
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s: field %s is %T, want %T", mutation.Type(), name, v, zero)
	}

	return typed, nil
}

func attribute[T any](recv *oppressor.Instance, name string) (T, error) {
	var zero T

	v, ok := recv.Get(name)
	if !ok {
		return zero, fmt.Errorf("%s: missing attribute %s", recv.Class().Name(), name)
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s: attribute %s is %T, want %T", recv.Class().Name(), name, v, zero)
	}

	return typed, nil
}
