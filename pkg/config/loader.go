// Package config fills service configuration structs from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Validator is implemented by configs that check their own invariants. Load
// and LoadWithPrefix call Validate after a successful parse.
type Validator interface {
	Validate() error
}

// Load fills cfg from its `env` struct tags with no name prefix.
func Load(cfg any) error {
	return load(cfg, env.Options{}, "config")
}

// LoadWithPrefix scopes every tag under prefix, so with "STOREFRONT_" the
// tag `env:"HTTP_PORT"` reads STOREFRONT_HTTP_PORT.
func LoadWithPrefix(cfg any, prefix string) error {
	return load(cfg, env.Options{Prefix: prefix}, prefix+" config")
}

func load(cfg any, opts env.Options, what string) error {
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse %s: %w", what, err)
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate %s: %w", what, err)
		}
	}
	return nil
}
