package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/plantgram/internal/config"
	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/repository"
)

// ProfileStore is the profile table as seen by the persona registry.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Create(ctx context.Context, profile *domain.Profile) error
	Update(ctx context.Context, id string, updates map[string]interface{}) error
}

// PersonaRegistry makes sure the fairy's profile row exists.
type PersonaRegistry struct {
	store   ProfileStore
	persona config.PersonaConfig
	logger  *logger.Logger
}

// NewPersonaRegistry creates a registry for the configured persona.
func NewPersonaRegistry(store ProfileStore, persona config.PersonaConfig, log *logger.Logger) *PersonaRegistry {
	return &PersonaRegistry{store: store, persona: persona, logger: log}
}

// PersonaID returns the fixed persona ID.
func (r *PersonaRegistry) PersonaID() string {
	return r.persona.ID
}

// Persona returns the configured persona identity.
func (r *PersonaRegistry) Persona() config.PersonaConfig {
	return r.persona
}

func (r *PersonaRegistry) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, r.logger)
}

// EnsurePersonaExists creates the persona profile if it is missing and
// repairs a stale avatar if it is present. It is safe to call concurrently:
// losing an insert race to another caller counts as success.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//
// Returns:
//   - error: wraps ErrPersonaBootstrap when the row can be neither found nor created.
func (r *PersonaRegistry) EnsurePersonaExists(ctx context.Context) error {
	existing, err := r.store.GetByID(ctx, r.persona.ID)
	switch {
	case err == nil:
		r.refresh(ctx, existing)
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: lookup: %v", ErrPersonaBootstrap, err)
	}

	profile := &domain.Profile{
		ID:        r.persona.ID,
		Username:  r.persona.Username,
		FullName:  r.persona.DisplayName,
		AvatarURL: r.persona.AvatarURL,
		Bio:       r.persona.Bio,
	}
	if err := r.store.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Another caller may have inserted it first; confirm by ID so a
			// username clash is not mistaken for success.
			if _, getErr := r.store.GetByID(ctx, r.persona.ID); getErr == nil {
				return nil
			}
		}
		return fmt.Errorf("%w: create: %v", ErrPersonaBootstrap, err)
	}

	r.log(ctx).WithField(logger.FieldUserID, r.persona.ID).Info("Persona profile created")
	return nil
}

// refresh repairs presentation drift. Failures are logged, never returned.
func (r *PersonaRegistry) refresh(ctx context.Context, existing *domain.Profile) {
	if r.persona.AvatarURL == "" || existing.AvatarURL == r.persona.AvatarURL {
		return
	}
	if err := r.store.Update(ctx, r.persona.ID, map[string]interface{}{"avatar_url": r.persona.AvatarURL}); err != nil {
		r.log(ctx).WithError(err).Warn("Failed to refresh persona avatar")
		return
	}
	r.log(ctx).WithFields(logger.Fields{
		"from": existing.AvatarURL,
		"to":   r.persona.AvatarURL,
	}).Info("Persona avatar refreshed")
}
