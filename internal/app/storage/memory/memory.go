// Package memory provides the in-memory implementation of the storage
// interfaces. It is the only store the demo runs with and is also what
// tests instantiate.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spacenexus/platform/internal/app/domain/experiment"
	"github.com/spacenexus/platform/internal/app/domain/postcard"
	"github.com/spacenexus/platform/internal/app/storage"
)

// Store keeps every collection in insertion order behind a single RWMutex.
// Inserts allocate ids and append atomically, so concurrent creations can
// never share an id or clobber each other, and readers never observe a
// partially populated record. Records are cloned on the way in and out.
type Store struct {
	mu sync.RWMutex

	nextExperimentID int
	experiments      []experiment.Experiment
	experimentIndex  map[int]int

	nextPostcardID int
	postcards      []postcard.Postcard
	postcardIndex  map[int]int
}

var _ storage.ExperimentStore = (*Store)(nil)
var _ storage.PostcardStore = (*Store)(nil)

// New creates an empty store. Id allocation starts at 1 per collection and
// ids are never reused; there is no delete operation.
func New() *Store {
	return &Store{
		nextExperimentID: 1,
		experimentIndex:  make(map[int]int),
		nextPostcardID:   1,
		postcardIndex:    make(map[int]int),
	}
}

// ExperimentStore implementation ----------------------------------------------

func (s *Store) CreateExperiment(_ context.Context, exp experiment.Experiment) (experiment.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp.ID = s.nextExperimentID
	s.nextExperimentID++

	exp = cloneExperiment(exp)
	s.experimentIndex[exp.ID] = len(s.experiments)
	s.experiments = append(s.experiments, exp)
	return cloneExperiment(exp), nil
}

func (s *Store) GetExperiment(_ context.Context, id int) (experiment.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.experimentIndex[id]
	if !ok {
		return experiment.Experiment{}, fmt.Errorf("experiment %d: %w", id, storage.ErrNotFound)
	}
	return cloneExperiment(s.experiments[idx]), nil
}

func (s *Store) ListExperiments(_ context.Context) ([]experiment.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]experiment.Experiment, 0, len(s.experiments))
	for _, exp := range s.experiments {
		result = append(result, cloneExperiment(exp))
	}
	return result, nil
}

func (s *Store) SetExperimentVerified(_ context.Context, id int, verified bool) (experiment.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.experimentIndex[id]
	if !ok {
		return experiment.Experiment{}, fmt.Errorf("experiment %d: %w", id, storage.ErrNotFound)
	}
	s.experiments[idx].Verified = verified
	return cloneExperiment(s.experiments[idx]), nil
}

// PostcardStore implementation ------------------------------------------------

func (s *Store) CreatePostcard(_ context.Context, card postcard.Postcard) (postcard.Postcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card.ID = s.nextPostcardID
	s.nextPostcardID++

	card = clonePostcard(card)
	s.postcardIndex[card.ID] = len(s.postcards)
	s.postcards = append(s.postcards, card)
	return clonePostcard(card), nil
}

func (s *Store) GetPostcard(_ context.Context, id int) (postcard.Postcard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.postcardIndex[id]
	if !ok {
		return postcard.Postcard{}, fmt.Errorf("postcard %d: %w", id, storage.ErrNotFound)
	}
	return clonePostcard(s.postcards[idx]), nil
}

func (s *Store) ListPostcards(_ context.Context) ([]postcard.Postcard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]postcard.Postcard, 0, len(s.postcards))
	for _, card := range s.postcards {
		result = append(result, clonePostcard(card))
	}
	return result, nil
}

// AdvancePostcardStatus moves a postcard to the next lifecycle state and
// stamps the launch/return dates as the card reaches those states. Any
// transition other than the immediate successor is rejected.
func (s *Store) AdvancePostcardStatus(_ context.Context, id int, next postcard.Status, at time.Time) (postcard.Postcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.postcardIndex[id]
	if !ok {
		return postcard.Postcard{}, fmt.Errorf("postcard %d: %w", id, storage.ErrNotFound)
	}

	current := s.postcards[idx].Status
	if next.Rank() != current.Rank()+1 {
		return postcard.Postcard{}, fmt.Errorf("postcard %d: %s -> %s: %w",
			id, current, next, storage.ErrInvalidTransition)
	}

	s.postcards[idx].Status = next
	stamp := at.UTC()
	switch next {
	case postcard.StatusLaunched:
		s.postcards[idx].LaunchDate = &stamp
	case postcard.StatusReturned:
		s.postcards[idx].ReturnDate = &stamp
	}
	return clonePostcard(s.postcards[idx]), nil
}

// Clone helpers ----------------------------------------------------------------

func cloneExperiment(exp experiment.Experiment) experiment.Experiment {
	exp.DataFileURL = cloneString(exp.DataFileURL)
	return exp
}

func clonePostcard(card postcard.Postcard) postcard.Postcard {
	card.WalletAddress = cloneString(card.WalletAddress)
	card.NFTTokenID = cloneString(card.NFTTokenID)
	card.ImageURL = cloneString(card.ImageURL)
	card.LaunchDate = cloneTime(card.LaunchDate)
	card.ReturnDate = cloneTime(card.ReturnDate)
	return card
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}
