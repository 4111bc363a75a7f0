package query

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ordermart/ordermart/app/query/controller"
	"github.com/ordermart/ordermart/app/query/types"
)

// NewServer creates the HTTP server of app.
func NewServer(app *types.App) error {
	ctler := controller.NewController(app)
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	// use <ip>:<port> to bind to a specific interface or :<port> to bind to all interfaces
	app.Server = &http.Server{Addr: app.Addr, Handler: controller.WithCORS(router)}
	app.Logger.Info("Starting server", zap.String("addr", app.Addr))

	return nil
}
