package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/financialstatementflow/internal/app"
	"github.com/gin-gonic/gin"
)

var (
	router  http.Handler
	once    sync.Once
	initErr error
)

func init() {
	gin.SetMode(gin.ReleaseMode)
	functions.HTTP("FinancialsAPI", handleFinancials)
}

// main is required by the Go Functions Framework.
func main() {}

func setup() (http.Handler, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return a.Router, nil
}

// handleFinancials serves every statement endpoint through the shared gin router.
func handleFinancials(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		router, initErr = setup()
	})
	if initErr != nil {
		slog.Error("CRITICAL: service initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	router.ServeHTTP(w, r)
}
