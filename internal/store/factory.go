package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// FactoryConfig elige el adapter principal y, opcionalmente, uno distinto para grants.
type FactoryConfig struct {
	// Storage adapter para clientes, usuarios y templates (y grants si Grants es nil).
	Storage AdapterConfig

	// Grants adapter opcional para códigos y tokens (ej: redis).
	Grants *AdapterConfig
}

// Stores agrupa los repositorios que consume la aplicación.
type Stores struct {
	Clients   repository.ClientRepository
	Users     repository.UserRepository
	Templates repository.TemplateRepository
	Enroller  repository.Enroller
	Grants    repository.GrantRepository

	conns []AdapterConnection
}

// Open conecta los adapters configurados y arma el conjunto de repositorios.
func Open(ctx context.Context, cfg FactoryConfig) (*Stores, error) {
	log := logger.From(ctx).With(logger.Component("store"))

	main, err := OpenAdapter(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("factory: connect %s: %w", cfg.Storage.Name, err)
	}
	s := &Stores{
		Clients:   main.Clients(),
		Users:     main.Users(),
		Templates: main.Templates(),
		Enroller:  main.Enroller(),
		Grants:    main.Grants(),
		conns:     []AdapterConnection{main},
	}
	if s.Clients == nil || s.Users == nil || s.Templates == nil || s.Enroller == nil {
		_ = s.Close()
		return nil, fmt.Errorf("factory: adapter %q cannot be used as primary storage", main.Name())
	}

	if cfg.Grants != nil && cfg.Grants.Name != "" && cfg.Grants.Name != cfg.Storage.Name {
		gc, err := OpenAdapter(ctx, *cfg.Grants)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("factory: connect grants %s: %w", cfg.Grants.Name, err)
		}
		s.conns = append(s.conns, gc)
		s.Grants = gc.Grants()
	}
	if s.Grants == nil {
		_ = s.Close()
		return nil, errors.New("factory: no grant repository available")
	}

	names := make([]string, 0, len(s.conns))
	for _, c := range s.conns {
		names = append(names, c.Name())
	}
	log.Info("storage ready", logger.Any("adapters", names))
	return s, nil
}

// Ping verifica todas las conexiones.
func (s *Stores) Ping(ctx context.Context) error {
	for _, c := range s.conns {
		if err := c.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.Name(), err)
		}
	}
	return nil
}

// PGPool devuelve el pool pgx del adapter postgres, o nil si no hay.
func (s *Stores) PGPool() *pgxpool.Pool {
	for _, c := range s.conns {
		if p, ok := c.(interface{ Pool() *pgxpool.Pool }); ok {
			return p.Pool()
		}
	}
	return nil
}

// Close cierra todas las conexiones.
func (s *Stores) Close() error {
	var errs []error
	for _, c := range s.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}
