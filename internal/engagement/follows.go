package engagement

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/emilythestrangee/aurora/backend/internal/apperr"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/models"
	"github.com/emilythestrangee/aurora/backend/internal/observability"
)

const (
	SelfFollowMessage = "You cannot follow yourself"
	NotOwnerMessage   = "You can only update your own profile"
)

// Follows toggles follow edges from a user to another user or a category.
type Follows struct {
	store database.Store
}

func NewFollows(store database.Store) *Follows {
	return &Follows{store: store}
}

// Toggle flips the edge from the user named username to target and returns
// that user's profile afterwards. caller is the authenticated user.
func (f *Follows) Toggle(ctx context.Context, caller *models.User, username string, target models.Target) (*models.User, error) {
	failed := followFailure(target.Kind)

	if uuid.Validate(target.ID) != nil {
		return nil, apperr.Invalid(invalidTargetMessage(target.Kind))
	}
	if target.Kind == models.TargetUser && target.ID == caller.ID {
		return nil, apperr.Broken(SelfFollowMessage)
	}

	follower, err := f.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, resolve(err, failed)
	}
	if target.Kind == models.TargetUser && target.ID == follower.ID {
		return nil, apperr.Broken(SelfFollowMessage)
	}
	if follower.ID != caller.ID {
		return nil, apperr.New(apperr.Forbidden, NotOwnerMessage, nil)
	}

	following, err := f.store.ToggleFollow(ctx, follower.ID, target)
	if err != nil {
		return nil, resolve(err, failed)
	}

	observability.FollowToggles.WithLabelValues(string(target.Kind), strconv.FormatBool(following)).Inc()
	slog.DebugContext(ctx, "follow toggled",
		"follower", follower.ID, "target", target.Kind, "id", target.ID, "following", following)

	updated, err := f.store.UserByID(ctx, follower.ID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return updated, nil
}

func followFailure(kind models.TargetKind) *apperr.AppError {
	if kind == models.TargetCategory {
		return apperr.Failed("Error while following/unfollowing a category. Please try again")
	}
	return apperr.Failed("Error while following/unfollowing a user. Please try again")
}

func invalidTargetMessage(kind models.TargetKind) string {
	if kind == models.TargetCategory {
		return "Category must be a valid ID"
	}
	return "User must be a valid ID"
}
