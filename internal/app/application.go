// Package app wires the resource façades together and manages their
// lifecycle.
package app

import (
	"context"

	"github.com/spacenexus/platform/internal/app/services/experiments"
	"github.com/spacenexus/platform/internal/app/services/postcards"
	tokensvc "github.com/spacenexus/platform/internal/app/services/token"
	"github.com/spacenexus/platform/internal/app/storage"
	"github.com/spacenexus/platform/internal/app/storage/memory"
	"github.com/spacenexus/platform/internal/app/system"
	"github.com/spacenexus/platform/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation, which is what the demo and the tests run
// with.
type Stores struct {
	Experiments storage.ExperimentStore
	Postcards   storage.PostcardStore
}

// Application ties the façades together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Experiments *experiments.Service
	Postcards   *postcards.Service
	Token       *tokensvc.Service
}

// New builds a fully initialised application. The token façade answers
// from the supplied fixture; stores left nil share one in-memory store.
func New(stores Stores, fixture tokensvc.Fixture, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Experiments == nil {
		stores.Experiments = mem
	}
	if stores.Postcards == nil {
		stores.Postcards = mem
	}

	manager := system.NewManager()
	for _, name := range []string{"experiments", "postcards", "token"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, err
		}
	}

	return &Application{
		manager:     manager,
		log:         log,
		Experiments: experiments.New(stores.Experiments, log),
		Postcards:   postcards.New(stores.Postcards, log),
		Token:       tokensvc.New(fixture, log),
	}, nil
}

// Attach registers an additional lifecycle-managed service, such as the
// postcard fulfillment runner. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
