package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"

	"github.com/finpak/go-wallet-core/cmd/routes"
	"github.com/finpak/go-wallet-core/internal/key"
	"github.com/finpak/go-wallet-core/internal/notification"
	"github.com/finpak/go-wallet-core/internal/transaction"
	"github.com/finpak/go-wallet-core/internal/user"
	"github.com/finpak/go-wallet-core/internal/wallet"
	"github.com/finpak/go-wallet-core/pkg/config"
	"github.com/finpak/go-wallet-core/pkg/database"
	"github.com/finpak/go-wallet-core/pkg/events"
	"github.com/finpak/go-wallet-core/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	database.Connect(cfg.DBUrl)
	database.Migrate(
		&user.User{},
		&wallet.Wallet{},
		&wallet.BalanceHistory{},
		&transaction.Transaction{},
		&key.APIKey{},
	)

	redisClient := events.NewRedisClient(cfg)

	// start background notification worker
	worker := notification.NewWorker(notification.LogSender{}, redisClient)
	worker.Start()

	r := mux.NewRouter()
	handler := routes.RegisterRoutes(r, cfg, redisClient)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("Server starting", logger.Fields{"port": cfg.Port, "env": cfg.Env})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Could not listen", logger.Fields{"port": cfg.Port, "error": err.Error()})
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	server.Shutdown(ctx)
	logger.Info("Server gracefully shut down")
}
