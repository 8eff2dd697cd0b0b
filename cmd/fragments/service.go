package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/backend"
	"github.com/sagarc03/fragments/config"
	"github.com/sagarc03/fragments/imaging"
	"github.com/sagarc03/fragments/markdown"
)

var errEphemeralBackend = errors.New("memory database keeps nothing between runs; configure sqlite or postgres")

// openService opens the configured backends and builds the fragment service
// on top of them. The caller closes the returned Backend.
func openService(ctx context.Context, cfg *config.Config) (*fragments.Service, *backend.Backend, error) {
	converter, err := newConverter(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts, err := cfg.ServiceOptions()
	if err != nil {
		return nil, nil, fmt.Errorf("service options: %w", err)
	}

	b, err := backend.Open(ctx, cfg.Backend())
	if err != nil {
		return nil, nil, fmt.Errorf("open backend: %w", err)
	}

	service, err := fragments.NewService(b.Repo, b.Blobs, converter, opts)
	if err != nil {
		_ = b.Close()
		return nil, nil, fmt.Errorf("create service: %w", err)
	}

	return service, b, nil
}

func newConverter(cfg *config.Config) (*fragments.Converter, error) {
	transcoder, err := imaging.New(imaging.Options{JPEGQuality: cfg.Conversion.JPEGQuality})
	if err != nil {
		return nil, fmt.Errorf("create image transcoder: %w", err)
	}

	converter, err := fragments.NewConverter(markdown.New(markdown.Options{GFM: cfg.Conversion.GFM}), transcoder)
	if err != nil {
		return nil, fmt.Errorf("create converter: %w", err)
	}

	return converter, nil
}

// requirePersistent rejects offline commands against the memory metadata
// backend, which would operate on an empty store and discard the result.
func requirePersistent(cfg *config.Config) error {
	if cfg.Database.Type == "memory" {
		return errEphemeralBackend
	}
	return nil
}
