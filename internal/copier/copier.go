package copier

import (
	"context"
	"fmt"

	"github.com/looplj/oppressor/internal/log"
	"github.com/looplj/oppressor/internal/models"
	"github.com/looplj/oppressor/internal/oppressor"
)

type Result struct {
	Copied int
	// SuppressedMethod is the Notification method that was intercepted during the copy.
	SuppressedMethod string
}

type Copier struct {
	Models *models.Models
}

func New(m *models.Models) *Copier {
	return &Copier{Models: m}
}

// CopyTo copies every comment of source onto destination without notifying anyone.
func (c *Copier) CopyTo(ctx context.Context, sourceID, destinationID string) (Result, error) {
	var result Result

	comments := c.Models.Comments(sourceID)

	err := c.Models.Notification.Oppress(ctx, func(ctx context.Context) error {
		result.SuppressedMethod, _ = oppressor.IsSuppressed(ctx, c.Models.Notification)

		for _, comment := range comments {
			if _, err := c.Models.CreateComment(ctx, destinationID, comment.Author, comment.Body); err != nil {
				return fmt.Errorf("copy comment %s: %w", comment.ID, err)
			}

			result.Copied++
		}

		return nil
	})
	if err != nil {
		log.Error(ctx, "copy comments failed",
			log.String("source", sourceID),
			log.String("destination", destinationID),
			log.Int("copied", result.Copied),
			log.Cause(err),
		)

		return result, err
	}

	log.Info(ctx, "copied comments",
		log.String("source", sourceID),
		log.String("destination", destinationID),
		log.Int("copied", result.Copied),
		log.String("suppressed_method", result.SuppressedMethod),
	)

	return result, nil
}
