package service_registry

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mafundi/mafundi-cli/internal/registry"
)

// Definition describes a service that may be registered.
type Definition struct {
	Name        string
	Enabled     bool
	Constructor func() (registry.Service, error)
}

// ServiceRegistry starts services in registration order and stops them in reverse.
type ServiceRegistry struct {
	services    map[string]registry.Service
	serviceKeys []string
	started     []string
	Logger      zerolog.Logger
}

// NewServiceRegistry creates an empty registry.
func NewServiceRegistry(logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]registry.Service),
		Logger:   logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Debug().Msgf("Registered service: %s", name)
}

// RegisterServices constructs and registers every enabled definition, in order.
func (sr *ServiceRegistry) RegisterServices(defs []Definition) error {
	var registered []string
	for _, def := range defs {
		if !def.Enabled {
			sr.Logger.Debug().Str("service", def.Name).Msg("Service is disabled, skipping")
			continue
		}
		svc, err := def.Constructor()
		if err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to create %s service", def.Name)
			return fmt.Errorf("failed to create %s service: %w", def.Name, err)
		}
		sr.RegisterService(def.Name, svc)
		registered = append(registered, def.Name)
	}

	sr.Logger.Debug().Msgf("Registered services in order: %v", registered)
	return nil
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Debug().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			_ = sr.StopServices()
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		sr.started = append(sr.started, name)
	}

	return nil
}

// StopServices stops started services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.started) - 1; i >= 0; i-- {
		name := sr.started[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	sr.started = nil

	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}
