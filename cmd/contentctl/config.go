package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/debemdeboas/yasny-slukh/internal/db"
	"github.com/debemdeboas/yasny-slukh/internal/logger"
	"github.com/debemdeboas/yasny-slukh/internal/repository"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys shared by flags and CONTENTCTL_* environment variables.
const (
	cfgKeyConfig   = "config"
	cfgKeyBackend  = "backend"
	cfgKeyEndpoint = "endpoint"
	cfgKeyFile     = "file"
	cfgKeyLogLevel = "log-level"

	envPrefix = "CONTENTCTL"
)

// newViper resolves settings with the precedence flags > CONTENTCTL_* env >
// defaults.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyConfig, "config.yaml")
	v.SetDefault(cfgKeyLogLevel, "warn")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	return v, nil
}

// loadStorage reads the server's config file and applies the overrides in v.
func loadStorage(v *viper.Viper) (config.StorageConfig, error) {
	if err := config.LoadConfig(v.GetString(cfgKeyConfig)); err != nil {
		return config.StorageConfig{}, err
	}
	cfg := *config.AppConfig
	cfg.ApplyEnv(os.Getenv)

	if b := v.GetString(cfgKeyBackend); b != "" {
		cfg.Storage.Backend = b
	}
	if e := v.GetString(cfgKeyEndpoint); e != "" {
		cfg.Storage.Endpoint = e
	}
	if f := v.GetString(cfgKeyFile); f != "" {
		cfg.Storage.FilePath = f
	}
	if err := cfg.Validate(); err != nil {
		return config.StorageConfig{}, err
	}
	return cfg.Storage, nil
}

// openStore opens the configured store. The caller must call the returned
// func when done.
func openStore(ctx context.Context, v *viper.Viper) (repository.Store, func() error, error) {
	l := logger.New(v.GetString(cfgKeyLogLevel))
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	repository.SetLogger(logger.Component(l, "repository"))

	storage, err := loadStorage(v)
	if err != nil {
		return nil, nil, err
	}
	store, closeFn, err := repository.Open(ctx, storage, os.Getenv)
	if err != nil {
		return nil, nil, fmt.Errorf(config.ErrOpenStoreFmt, err)
	}
	return store, closeFn, nil
}
