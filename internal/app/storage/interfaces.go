// Package storage defines the persistence contracts for the resource
// façades. The demo ships with the in-memory implementation only; a
// database-backed store can be swapped in behind the same interfaces.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/spacenexus/platform/internal/app/domain/experiment"
	"github.com/spacenexus/platform/internal/app/domain/postcard"
)

// ErrNotFound is returned by lookups for ids that were never allocated.
var ErrNotFound = errors.New("record not found")

// ErrInvalidTransition is returned when a postcard status update does not
// follow the linear fulfillment lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

// ExperimentStore persists experiment records. Records are append-only;
// the verified flag is the only mutable field.
type ExperimentStore interface {
	CreateExperiment(ctx context.Context, exp experiment.Experiment) (experiment.Experiment, error)
	GetExperiment(ctx context.Context, id int) (experiment.Experiment, error)
	ListExperiments(ctx context.Context) ([]experiment.Experiment, error)
	SetExperimentVerified(ctx context.Context, id int, verified bool) (experiment.Experiment, error)
}

// PostcardStore persists postcard records. Records are append-only;
// status advances strictly along the fulfillment lifecycle.
type PostcardStore interface {
	CreatePostcard(ctx context.Context, card postcard.Postcard) (postcard.Postcard, error)
	GetPostcard(ctx context.Context, id int) (postcard.Postcard, error)
	ListPostcards(ctx context.Context) ([]postcard.Postcard, error)
	AdvancePostcardStatus(ctx context.Context, id int, next postcard.Status, at time.Time) (postcard.Postcard, error)
}
