package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/wholesale/internal/app"
	"github.com/vladislavdragonenkov/wholesale/internal/version"
)

const defaultEnvFile = ".env"

// envLookup совпадает по сигнатуре с os.LookupEnv.
type envLookup func(string) (string, bool)

// loadConfig собирает конфигурацию из окружения процесса и, если он есть, из env-файла.
// Переменные окружения процесса имеют приоритет над файлом.
func loadConfig(envFile string, lookup envLookup) (app.Config, error) {
	fileValues, err := readEnvFile(envFile)
	if err != nil {
		return app.Config{}, err
	}

	return app.ConfigFromEnv(func(key string) (string, bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
		v, ok := fileValues[key]
		return v, ok
	})
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, nil
}

func main() {
	envFile := flag.String("env-file", defaultEnvFile, "optional dotenv file with WHS_* settings")
	flag.Parse()

	cfg, err := loadConfig(*envFile, os.LookupEnv)
	if err != nil {
		log.WithError(err).Fatal("некорректная конфигурация")
	}
	cfg.ConfigureLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"build":        version.Build().String(),
	}).Info("запускаем SalesService")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("SalesService остановлен")
}
