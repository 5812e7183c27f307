// Package postcards implements the postcard façade: creation with
// optional staged images, wallet/batch listings and the status
// aggregation. Status transitions themselves are driven by the
// fulfillment runner, not by an HTTP endpoint.
package postcards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spacenexus/platform/internal/app/domain/postcard"
	"github.com/spacenexus/platform/internal/app/query"
	"github.com/spacenexus/platform/internal/app/storage"
	"github.com/spacenexus/platform/internal/app/upload"
	"github.com/spacenexus/platform/pkg/logger"
)

// ErrInvalid marks client errors on postcard input.
var ErrInvalid = errors.New("invalid postcard input")

// currentBatch is the single active flight batch. Batch rotation is
// handled by the (not yet built) launch planning system.
const currentBatch = 1

// Service manages the postcard collection.
type Service struct {
	store storage.PostcardStore
	log   *logger.Logger
}

// New constructs a postcard service.
func New(store storage.PostcardStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("postcards")
	}
	return &Service{store: store, log: log}
}

// CreateInput carries the client-supplied fields for a new postcard.
type CreateInput struct {
	Name          string
	Email         string
	Content       string
	WalletAddress string
}

// Create validates the input and inserts a new postcard in the created
// state, assigned to the active batch. A staged image is linked into the
// record on success and discarded on any failure, with discard errors
// logged rather than escalated.
func (s *Service) Create(ctx context.Context, in CreateInput, staged *upload.Staged) (postcard.Postcard, error) {
	card, err := s.create(ctx, in, staged)
	if err != nil && staged != nil {
		if derr := staged.Discard(); derr != nil {
			s.log.WithError(derr).WithField("path", staged.Path).Warn("failed to discard staged image")
		}
	}
	return card, err
}

func (s *Service) create(ctx context.Context, in CreateInput, staged *upload.Staged) (postcard.Postcard, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Content = strings.TrimSpace(in.Content)
	in.WalletAddress = strings.TrimSpace(in.WalletAddress)

	if in.Name == "" || in.Email == "" || in.Content == "" {
		return postcard.Postcard{}, fmt.Errorf("%w: name, email, and content are required fields", ErrInvalid)
	}

	card := postcard.Postcard{
		Name:      in.Name,
		Email:     in.Email,
		Content:   in.Content,
		Status:    postcard.StatusCreated,
		CreatedAt: time.Now().UTC(),
		BatchID:   currentBatch,
	}
	if in.WalletAddress != "" {
		wallet := in.WalletAddress
		card.WalletAddress = &wallet
	}
	if staged != nil {
		url := staged.URL
		card.ImageURL = &url
	}

	card, err := s.store.CreatePostcard(ctx, card)
	if err != nil {
		return postcard.Postcard{}, err
	}

	s.log.WithField("postcard_id", card.ID).
		WithField("batch_id", card.BatchID).
		Info("postcard created")
	return card, nil
}

// Get returns a single postcard by id.
func (s *Service) Get(ctx context.Context, id int) (postcard.Postcard, error) {
	return s.store.GetPostcard(ctx, id)
}

// List returns one page of the collection plus the unfiltered total.
func (s *Service) List(ctx context.Context, limit, offset int) ([]postcard.Postcard, int, error) {
	all, err := s.store.ListPostcards(ctx)
	if err != nil {
		return nil, 0, err
	}
	return query.Paginate(all, limit, offset), len(all), nil
}

// ListByWallet returns every postcard owned by the wallet address,
// compared case-insensitively. Postcards without a wallet never match.
func (s *Service) ListByWallet(ctx context.Context, address string) ([]postcard.Postcard, error) {
	all, err := s.store.ListPostcards(ctx)
	if err != nil {
		return nil, err
	}
	return query.Filter(all, func(c postcard.Postcard) bool {
		return c.WalletAddress != nil && strings.EqualFold(*c.WalletAddress, address)
	}), nil
}

// ListByBatch returns every postcard assigned to the flight batch.
func (s *Service) ListByBatch(ctx context.Context, batchID int) ([]postcard.Postcard, error) {
	all, err := s.store.ListPostcards(ctx)
	if err != nil {
		return nil, err
	}
	return query.Filter(all, func(c postcard.Postcard) bool {
		return c.BatchID == batchID
	}), nil
}

// StatusStats counts postcards per lifecycle state plus the collection
// total.
func (s *Service) StatusStats(ctx context.Context) (postcard.StatusStats, error) {
	all, err := s.store.ListPostcards(ctx)
	if err != nil {
		return postcard.StatusStats{}, err
	}

	stats := postcard.StatusStats{Total: len(all)}
	for _, card := range all {
		switch card.Status {
		case postcard.StatusCreated:
			stats.Created++
		case postcard.StatusLaunched:
			stats.Launched++
		case postcard.StatusReturned:
			stats.Returned++
		case postcard.StatusMailedToOwner:
			stats.Mailed++
		}
	}
	return stats, nil
}

// Advance moves a postcard to the next lifecycle state. Out-of-order
// transitions are rejected by the store.
func (s *Service) Advance(ctx context.Context, id int, next postcard.Status, at time.Time) (postcard.Postcard, error) {
	card, err := s.store.AdvancePostcardStatus(ctx, id, next, at)
	if err != nil {
		return postcard.Postcard{}, err
	}
	s.log.WithField("postcard_id", card.ID).
		WithField("status", card.Status).
		Info("postcard advanced")
	return card, nil
}
