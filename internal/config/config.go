package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/bookstore/pkg/logger"
)

const envPrefix = "BOOKSTORE"

// MustInit loads .env and config.yaml into viper and installs the process logger.
// Any key can be overridden from the environment, e.g. BOOKSTORE_ORDERS_RESTOCK_ON_CANCEL.
func MustInit() {
	if err := load(".env", "/etc/bookstore-svc", "."); err != nil {
		panic(err)
	}
	SetupLogger()
}

func load(envFile string, configPaths ...string) error {
	// Secrets may also come straight from the environment.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error while loading %s: %w", envFile, err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	return nil
}

func SetupLogger() {
	slog.SetDefault(slog.New(logger.NewHandler(nil)))
}
