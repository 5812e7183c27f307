// Package experiments implements the experiment façade: creation with
// optional staged data files, filtered listings and the per-type
// verification statistics.
package experiments

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spacenexus/platform/internal/app/domain/experiment"
	"github.com/spacenexus/platform/internal/app/query"
	"github.com/spacenexus/platform/internal/app/storage"
	"github.com/spacenexus/platform/internal/app/upload"
	"github.com/spacenexus/platform/pkg/logger"
)

// ErrInvalid marks client errors: missing required fields or values
// outside the experiment type enumeration.
var ErrInvalid = errors.New("invalid experiment input")

// Service manages the experiment collection.
type Service struct {
	store storage.ExperimentStore
	log   *logger.Logger
}

// New constructs an experiment service.
func New(store storage.ExperimentStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("experiments")
	}
	return &Service{store: store, log: log}
}

// CreateInput carries the client-supplied fields for a new experiment.
type CreateInput struct {
	Name           string
	Description    string
	ExperimentType string
	Scientist      string
}

// Create validates the input and inserts a new experiment. When a staged
// data file is passed, its URL is linked into the record; on any failure
// the staged file is discarded before the error is returned, so a file
// only persists alongside a stored record. Discard failures are logged
// and never replace the creation error.
func (s *Service) Create(ctx context.Context, in CreateInput, staged *upload.Staged) (experiment.Experiment, error) {
	exp, err := s.create(ctx, in, staged)
	if err != nil && staged != nil {
		if derr := staged.Discard(); derr != nil {
			s.log.WithError(derr).WithField("path", staged.Path).Warn("failed to discard staged data file")
		}
	}
	return exp, err
}

func (s *Service) create(ctx context.Context, in CreateInput, staged *upload.Staged) (experiment.Experiment, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Scientist = strings.TrimSpace(in.Scientist)

	if in.Name == "" || in.Description == "" || in.ExperimentType == "" || in.Scientist == "" {
		return experiment.Experiment{}, fmt.Errorf("%w: name, description, experiment type, and scientist address are required fields", ErrInvalid)
	}
	expType, err := experiment.ParseType(in.ExperimentType)
	if err != nil {
		return experiment.Experiment{}, fmt.Errorf("%w: %s", ErrInvalid, err)
	}

	exp := experiment.Experiment{
		Name:         in.Name,
		Description:  in.Description,
		Type:         expType,
		IPFSDataHash: ipfsHash(),
		Timestamp:    time.Now().UnixMilli(),
		Scientist:    in.Scientist,
		Verified:     false,
	}
	if staged != nil {
		url := staged.URL
		exp.DataFileURL = &url
	}

	exp, err = s.store.CreateExperiment(ctx, exp)
	if err != nil {
		return experiment.Experiment{}, err
	}

	s.log.WithField("experiment_id", exp.ID).
		WithField("type", exp.Type).
		Info("experiment created")
	return exp, nil
}

// Get returns a single experiment by id.
func (s *Service) Get(ctx context.Context, id int) (experiment.Experiment, error) {
	return s.store.GetExperiment(ctx, id)
}

// List returns one page of the collection plus the unfiltered total.
func (s *Service) List(ctx context.Context, limit, offset int) ([]experiment.Experiment, int, error) {
	all, err := s.store.ListExperiments(ctx)
	if err != nil {
		return nil, 0, err
	}
	return query.Paginate(all, limit, offset), len(all), nil
}

// ListByType returns every experiment of the given type. A value outside
// the enumeration is a client error, not an empty result.
func (s *Service) ListByType(ctx context.Context, rawType string) ([]experiment.Experiment, error) {
	expType, err := experiment.ParseType(rawType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	all, err := s.store.ListExperiments(ctx)
	if err != nil {
		return nil, err
	}
	return query.Filter(all, func(e experiment.Experiment) bool {
		return e.Type == expType
	}), nil
}

// ListByScientist returns every experiment submitted from the address,
// compared case-insensitively against the full string.
func (s *Service) ListByScientist(ctx context.Context, address string) ([]experiment.Experiment, error) {
	all, err := s.store.ListExperiments(ctx)
	if err != nil {
		return nil, err
	}
	return query.Filter(all, func(e experiment.Experiment) bool {
		return strings.EqualFold(e.Scientist, address)
	}), nil
}

// ListVerified returns the whole verified subset, unpaginated.
func (s *Service) ListVerified(ctx context.Context) ([]experiment.Experiment, error) {
	all, err := s.store.ListExperiments(ctx)
	if err != nil {
		return nil, err
	}
	return query.Filter(all, func(e experiment.Experiment) bool {
		return e.Verified
	}), nil
}

// SetVerified toggles the verified flag, the only mutation experiments
// support.
func (s *Service) SetVerified(ctx context.Context, id int, verified bool) (experiment.Experiment, error) {
	exp, err := s.store.SetExperimentVerified(ctx, id, verified)
	if err != nil {
		return experiment.Experiment{}, err
	}
	s.log.WithField("experiment_id", id).
		WithField("verified", verified).
		Info("experiment verification updated")
	return exp, nil
}

// TypeStats aggregates total, verified and verified-percent counts per
// experiment type. Every enumeration member is present in the result,
// zero-valued types included.
func (s *Service) TypeStats(ctx context.Context) (map[experiment.Type]experiment.TypeStat, error) {
	all, err := s.store.ListExperiments(ctx)
	if err != nil {
		return nil, err
	}

	stats := make(map[experiment.Type]experiment.TypeStat, len(experiment.Types))
	for _, t := range experiment.Types {
		stats[t] = experiment.TypeStat{}
	}
	for _, exp := range all {
		stat := stats[exp.Type]
		stat.Total++
		if exp.Verified {
			stat.Verified++
		}
		stats[exp.Type] = stat
	}
	for t, stat := range stats {
		if stat.Total > 0 {
			stat.Percent = int(float64(stat.Verified)/float64(stat.Total)*100 + 0.5)
			stats[t] = stat
		}
	}
	return stats, nil
}

// ipfsHash fabricates a content-address reference. There is no real IPFS
// pinning behind the demo.
func ipfsHash() string {
	buf := make([]byte, 20)
	_, _ = rand.Read(buf)
	return "ipfs://hash" + hex.EncodeToString(buf)
}
