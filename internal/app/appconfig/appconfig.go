package appconfig

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"equipviz.dev/backend/internal/app/appcontext"
)

const EnvPrefix = "equipviz"

func Parse(ctx appcontext.Ctx) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	var config ConfigSpec
	err = envconfig.Process(EnvPrefix, &config)
	if err != nil {
		_ = envconfig.Usage(EnvPrefix, &config)
		return nil, fmt.Errorf("failed to parse configuration: %w. More info on how to configure this backend is located at https://pkg.go.dev/equipviz.dev/backend/internal/app/appconfig#ConfigSpec", err)
	}

	if config.StorageBackend == StorageBackendPostgres && config.PostgresDSN == "" {
		return nil, fmt.Errorf("failed to parse configuration: EQUIPVIZ_POSTGRES_DSN is required when EQUIPVIZ_STORAGE_BACKEND is %q", StorageBackendPostgres)
	}

	return &Config{
		ConfigSpec: config,
		AppContext: ctx,
	}, nil
}
