package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"ilim-checkout/internal/app"
	"ilim-checkout/internal/cli"
	"ilim-checkout/internal/config"
	"ilim-checkout/internal/handler"
	"ilim-checkout/internal/logging"
)

var version = "dev"

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(handleRequest)
	} else {
		if err := runLocal(); err != nil {
			os.Exit(1)
		}
	}
}

func runLocal() error {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return cli.Execute(ctx, version)
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := logging.New(logging.DefaultConfig())

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return handler.NewErrorResponse(http.StatusInternalServerError, "configuration error"), nil
	}

	application, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return handler.NewErrorResponse(http.StatusInternalServerError, "dependency initialization error"), nil
	}
	defer application.Close()

	apiHandler := handler.NewAPIHandler(application, logger.With("component", "api"))
	return apiHandler.Handle(ctx, request)
}
