package routes

import (
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/finpak/go-wallet-core/internal/auth"
	"github.com/finpak/go-wallet-core/internal/key"
	"github.com/finpak/go-wallet-core/internal/middleware"
	"github.com/finpak/go-wallet-core/internal/notification"
	"github.com/finpak/go-wallet-core/internal/transaction"
	"github.com/finpak/go-wallet-core/internal/user"
	"github.com/finpak/go-wallet-core/internal/wallet"
	"github.com/finpak/go-wallet-core/pkg/config"
	"github.com/finpak/go-wallet-core/pkg/database"
	"github.com/finpak/go-wallet-core/pkg/events"
	"github.com/finpak/go-wallet-core/pkg/logger"
)

func RegisterRoutes(r *mux.Router, cfg config.Config, queue *events.RedisClient) http.Handler {
	userRepo := user.NewRepository(database.DB)
	keyRepo := key.NewRepository(database.DB)
	walletRepo := wallet.NewRepository(database.DB)
	txRepo := transaction.NewRepository(database.DB)

	dispatcher := notification.NewDispatcher(queue)

	walletService := wallet.NewService(walletRepo, dispatcher)
	txService := transaction.NewService(txRepo, dispatcher)

	keyHandler := key.NewHandler(cfg, keyRepo)
	walletHandler := wallet.NewHandler(cfg, walletService)
	txHandler := transaction.NewHandler(cfg, txService, walletService, userRepo)

	r.Use(middleware.LoggingMiddleware)

	transferLimiter := middleware.NewRateLimiter(rate.Limit(5), 10)

	keysR := r.PathPrefix("/api/keys").Subrouter()
	keysR.Use(auth.JWTMiddleware(cfg, userRepo))
	keysR.HandleFunc("/create", keyHandler.CreateAPIKey).Methods("POST")
	keysR.HandleFunc("/rollover", keyHandler.RolloverAPIKey).Methods("POST")
	keysR.HandleFunc("/revoke", keyHandler.RevokeAPIKey).Methods("POST")
	keysR.HandleFunc("", keyHandler.ListAPIKeys).Methods("GET")

	walletR := r.PathPrefix("/api/wallet").Subrouter()

	createR := walletR.PathPrefix("/create").Subrouter()
	createR.Use(auth.JWTMiddleware(cfg, userRepo))
	createR.HandleFunc("", walletHandler.CreateWallet).Methods("POST")

	walletOpsR := walletR.PathPrefix("").Subrouter()
	walletOpsR.Use(auth.UnifiedAuthMiddleware(cfg, userRepo, keyRepo))
	walletOpsR.Use(auth.RequirePermission(string(key.PermissionRead)))
	walletOpsR.HandleFunc("", walletHandler.GetWallet).Methods("GET")
	walletOpsR.HandleFunc("/balance", walletHandler.GetWalletBalance).Methods("GET")
	walletOpsR.HandleFunc("/history", walletHandler.GetHistory).Methods("GET")

	txR := r.PathPrefix("/api/transactions").Subrouter()
	txR.Use(auth.UnifiedAuthMiddleware(cfg, userRepo, keyRepo))

	transferR := txR.PathPrefix("/transfer").Subrouter()
	transferR.Use(auth.RequirePermission(string(key.PermissionTransfer)))
	transferR.Use(transferLimiter.Limit)
	transferR.HandleFunc("", txHandler.TransferFunds).Methods("POST")

	topupR := txR.PathPrefix("/topup").Subrouter()
	topupR.Use(auth.RequirePermission(string(key.PermissionTopUp)))
	topupR.Use(transferLimiter.Limit)
	topupR.HandleFunc("", txHandler.TopUp).Methods("POST")

	writeR := txR.PathPrefix("").Subrouter()
	writeR.Use(auth.RequirePermission(string(key.PermissionTransfer)))
	writeR.HandleFunc("", txHandler.CreateTransaction).Methods("POST")
	writeR.HandleFunc("/{id}/cancel", txHandler.CancelTransaction).Methods("POST")

	readR := txR.PathPrefix("").Subrouter()
	readR.Use(auth.RequirePermission(string(key.PermissionRead)))
	readR.HandleFunc("", txHandler.GetTransactions).Methods("GET")
	readR.HandleFunc("/ref/{reference}", txHandler.GetTransaction).Methods("GET")

	reconcileR := txR.PathPrefix("").Subrouter()
	reconcileR.Use(auth.RequirePermission(string(key.PermissionReconcile)))
	reconcileR.HandleFunc("/reconcile", txHandler.ReconcileTransactions).Methods("POST")
	reconcileR.HandleFunc("/unreconciled", txHandler.GetUnreconciledTransactions).Methods("GET")

	if cfg.Env != "production" {

		r.HandleFunc("/swagger.yaml", func(w http.ResponseWriter, r *http.Request) {
			content, err := os.ReadFile("docs/swagger.yaml")
			if err != nil {
				logger.Error("Failed to read swagger.yaml", logger.Fields{"error": err.Error()})
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			baseURL := "/"
			modifiedContent := strings.Replace(string(content), "{{BASE_URL}}", baseURL, -1)
			modifiedContent = strings.Replace(modifiedContent, "{{MIN_TRANSACTION_AMOUNT}}", cfg.MinTransactionAmount.String(), -1)

			w.Header().Set("Content-Type", "application/yaml")
			w.Write([]byte(modifiedContent))
		})

		r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
			httpSwagger.URL("/swagger.yaml"),
		))
		logger.Info("Swagger documentation enabled at /swagger/index.html")
	}

	corsObj := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "x-api-key"}),
	)

	return corsObj(r)
}
