// Package app wires the application together: configuration, database pool,
// migrations, Genkit, the intake and retrieval core, and the conversational
// assistant. Each component is constructed once here and injected; nothing
// below this package reaches for globals.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarthealth/healthnav/internal/assist"
	"github.com/smarthealth/healthnav/internal/config"
	"github.com/smarthealth/healthnav/internal/intake"
	"github.com/smarthealth/healthnav/internal/patientstore"
	"github.com/smarthealth/healthnav/internal/retrieval"
	"github.com/smarthealth/healthnav/internal/vecindex"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit *genkit.Genkit
	DBPool *pgxpool.Pool

	Patients  *patientstore.Store
	Vectors   *vecindex.Index
	Pipeline  *intake.Pipeline
	Engine    *retrieval.Engine
	Assistant *assist.Assistant
}

// Close releases everything Setup acquired. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		if a.Logger != nil {
			a.Logger.Debug("database pool closed")
		}
	}

	return nil
}
