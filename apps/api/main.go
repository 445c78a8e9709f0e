package main

import (
	"context"
	"fmt"
	"log"

	dig_container "github.com/enghaven/portal/apps/api/di/dig"
	echoapi "github.com/enghaven/portal/apps/api/echo"
	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/user"
	"github.com/enghaven/portal/storage/database"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		db *database.DB,
		usrSvc *user.Service,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		dbLogger := dbLoggerParam.Logger
		defer dbLogger.Close()
		defer func() {
			if err := db.Close(); err != nil {
				dbLogger.Error("Failed to close", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		created, err := usrSvc.EnsureAdminSeed(context.Background(), conf.Admin.Email, conf.Admin.Password)
		if err != nil {
			apiLogger.Error(fmt.Sprintf("seeding admin: %v", err), err)
		} else if created {
			apiLogger.Info("admin account created: " + conf.Admin.Email)
		}

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()
		apiLogger.Info("listening on " + conf.Server.Address())

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Error(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
