package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spams12/gege/internal/app"
	config "github.com/spams12/gege/internal/cfg"
	"github.com/spams12/gege/pkg/logger"
)

//	@title						Storefront API
//	@version					1.0
//	@description				Каталог, аукционы и оформление заказов
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	// .env необязателен, в контейнере переменные приходят из окружения
	envErr := godotenv.Load()

	log := logger.NewZapLogger(config.LoadLoggerOptions())
	defer func() { _ = log.Sync() }()

	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warnf("failed to read .env: %v", envErr)
	}

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		_ = log.Sync()
		os.Exit(1)
	}
}
