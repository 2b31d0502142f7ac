// Package session manages open variable-edit dialogs: one Session per
// scenario object being edited, owning the edit set for its lifetime and
// coordinating validation, merge, and persistence on accept.
package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tmachale/scenforge/internal/editor/varedit"
	"github.com/tmachale/scenforge/internal/scenario/entity"
	"github.com/tmachale/scenforge/internal/scenario/variable"
)

// Validator is the external pre-commit validation step. A nil error
// means every value in the set is acceptable.
type Validator interface {
	CheckSet(set *varedit.Set) error
}

// Repository persists an object's override collections after a
// successful commit. Implementations replace the stored collections,
// never merge into them.
type Repository interface {
	SaveOverrides(ctx context.Context, kind entity.Kind, id string, ov *entity.Overrides) error
}

// Session is one open edit dialog. It owns exactly one edit set, is
// bound to exactly one scenario object, and is never shared across
// dialogs or goroutines.
type Session struct {
	id        string
	kind      entity.Kind
	objectID  string
	name      string
	set       *varedit.Set
	overrides *entity.Overrides
	validator Validator
	repo      Repository // nil = in-memory only
	logger    *zap.Logger
	closed    bool
}

// Open creates a Session for the object of the given kind and id in the
// scenario. For every category the kind exposes, the baseline is the
// registry's category defaults — overlaid with the class's overrides for
// templates — and the working copy starts at the object's effective
// values.
//
// Precondition: validator and logger must be non-nil. repo may be nil;
// overrides then live only in the loaded scenario.
// Postcondition: Returns an open Session with a clean edit set, or an
// error if the object does not exist.
func Open(
	scen *entity.Scenario,
	reg *variable.Registry,
	kind entity.Kind,
	objectID string,
	validator Validator,
	repo Repository,
	logger *zap.Logger,
) (*Session, error) {
	overrides, name, err := scen.Object(kind, objectID)
	if err != nil {
		return nil, err
	}

	snapshots := make(map[variable.Category]varedit.Snapshot)
	for _, cat := range kind.Categories() {
		defaults := reg.Defaults(cat)
		if kind == entity.KindEntityTemplate {
			// A template inherits from its class, not the raw baseline.
			tmpl := scen.Templates[objectID]
			class := scen.Classes[tmpl.ClassID]
			defaults = entity.Effective(defaults, class.Overrides.CategoryOverrides(cat))
		}
		snapshots[cat] = varedit.Snapshot{
			Default: defaults,
			Current: entity.Effective(defaults, overrides.CategoryOverrides(cat)),
		}
	}

	set, err := varedit.New(snapshots)
	if err != nil {
		return nil, fmt.Errorf("opening edit session for %s %q: %w", kind, objectID, err)
	}

	s := &Session{
		id:        uuid.New().String(),
		kind:      kind,
		objectID:  objectID,
		name:      name,
		set:       set,
		overrides: overrides,
		validator: validator,
		repo:      repo,
		logger:    logger,
	}
	logger.Debug("edit session opened",
		zap.String("session", s.id),
		zap.String("kind", string(kind)),
		zap.String("object", objectID),
	)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Kind returns the kind of the object under edit.
func (s *Session) Kind() entity.Kind { return s.kind }

// ObjectID returns the id of the object under edit.
func (s *Session) ObjectID() string { return s.objectID }

// ObjectName returns the display name of the object under edit.
func (s *Session) ObjectName() string { return s.name }

// Set returns the session's edit set. The caller drives all edit
// operations through it; the session only mediates commit and cancel.
func (s *Session) Set() *varedit.Set { return s.set }

// Commit validates the working values, merges them into the object's
// override collections, and persists them when a repository is attached.
// On a validation failure the error is returned and the edit set is left
// untouched so the user can correct input; nothing is persisted.
//
// Postcondition: On success the session is closed and the returned flag
// reports whether the persisted collections changed.
func (s *Session) Commit(ctx context.Context) (bool, error) {
	if s.closed {
		return false, fmt.Errorf("session %s is closed", s.id)
	}
	if err := s.validator.CheckSet(s.set); err != nil {
		s.logger.Info("commit rejected by validation",
			zap.String("session", s.id), zap.Error(err))
		return false, err
	}

	changed := s.set.AcceptAndMerge(s.overrides)
	if s.repo != nil {
		if err := s.repo.SaveOverrides(ctx, s.kind, s.objectID, s.overrides); err != nil {
			return false, fmt.Errorf("persisting overrides for %s %q: %w", s.kind, s.objectID, err)
		}
	}
	s.closed = true
	s.logger.Info("edit session committed",
		zap.String("session", s.id),
		zap.String("kind", string(s.kind)),
		zap.String("object", s.objectID),
		zap.Bool("changed", changed),
	)
	return changed, nil
}

// Cancel discards the session. The edit set is dropped without being
// merged; no object state or persisted state changes.
func (s *Session) Cancel() {
	if s.closed {
		return
	}
	s.closed = true
	s.logger.Debug("edit session cancelled",
		zap.String("session", s.id),
		zap.Bool("had_edits", s.set.Dirty()),
	)
}

// Closed reports whether the session has been committed or cancelled.
func (s *Session) Closed() bool { return s.closed }
