// Package engagement implements likes, dislikes and follows.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/emilythestrangee/aurora/backend/internal/apperr"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/models"
	"github.com/emilythestrangee/aurora/backend/internal/observability"
)

const invalidUserMessage = "User field must be a valid ID"

// Reactions toggles likes and dislikes on posts and comments.
type Reactions struct {
	store database.Store
}

func NewReactions(store database.Store) *Reactions {
	return &Reactions{store: store}
}

// ReactToPost applies dir from userID to the post with slug.
func (r *Reactions) ReactToPost(ctx context.Context, slug, userID string, dir models.Direction) (models.Outcome, error) {
	failed := failure(models.TargetPost, dir)
	if err := checkUserID(userID); err != nil {
		return 0, err
	}

	post, err := r.store.PostBySlug(ctx, slug)
	if err != nil {
		return 0, resolve(err, failed)
	}
	return r.React(ctx, models.Target{Kind: models.TargetPost, ID: post.ID}, userID, dir)
}

// ReactToComment applies dir from userID to a comment, which must belong
// to the post with slug.
func (r *Reactions) ReactToComment(ctx context.Context, slug, commentID, userID string, dir models.Direction) (models.Outcome, error) {
	failed := failure(models.TargetComment, dir)
	if err := checkUserID(userID); err != nil {
		return 0, err
	}
	if uuid.Validate(commentID) != nil {
		return 0, failed
	}

	post, err := r.store.PostBySlug(ctx, slug)
	if err != nil {
		return 0, resolve(err, failed)
	}
	comment, err := r.store.CommentByID(ctx, commentID)
	if err != nil {
		return 0, resolve(err, failed)
	}
	if comment.PostID != post.ID {
		return 0, failed
	}
	return r.React(ctx, models.Target{Kind: models.TargetComment, ID: comment.ID}, userID, dir)
}

// React runs one step of the reaction state machine. The acting user must
// exist; a missing user or target yields the same generic failure.
func (r *Reactions) React(ctx context.Context, target models.Target, userID string, dir models.Direction) (models.Outcome, error) {
	failed := failure(target.Kind, dir)

	if _, err := r.store.UserByID(ctx, userID); err != nil {
		return 0, resolve(err, failed)
	}

	outcome, err := r.store.ApplyReaction(ctx, target, userID, dir)
	if err != nil {
		return 0, resolve(err, failed)
	}

	observability.Reactions.WithLabelValues(string(target.Kind), dir.String(), outcome.String()).Inc()
	slog.DebugContext(ctx, "reaction applied",
		"target", target.Kind, "id", target.ID, "user", userID,
		"direction", dir.String(), "outcome", outcome.String())
	return outcome, nil
}

// Message is the confirmation text for a reaction outcome, e.g.
// "Post liked successfully!" or "Comment undisliked successfully!".
func Message(kind models.TargetKind, dir models.Direction, outcome models.Outcome) string {
	verb := "liked"
	if dir == models.Dislike {
		verb = "disliked"
	}
	if outcome == models.Unreacted {
		verb = "un" + verb
	}
	return fmt.Sprintf("%s %s successfully!", noun(kind), verb)
}

func noun(kind models.TargetKind) string {
	if kind == models.TargetComment {
		return "Comment"
	}
	return "Post"
}

// failure is the generic error for a reaction whose user or target is missing.
func failure(kind models.TargetKind, dir models.Direction) *apperr.AppError {
	verb := "liking"
	if dir == models.Dislike {
		verb = "disliking"
	}
	object := "a post"
	if kind == models.TargetComment {
		object = "a post comment"
	}
	return apperr.Failed(fmt.Sprintf("Error while %s %s. Please try again", verb, object))
}

func checkUserID(id string) error {
	if uuid.Validate(id) != nil {
		return apperr.Invalid(invalidUserMessage)
	}
	return nil
}

// resolve maps a missing record to failed and anything else to Internal.
func resolve(err error, failed *apperr.AppError) error {
	if errors.Is(err, database.ErrNotFound) {
		return failed
	}
	return apperr.Wrap(err)
}
