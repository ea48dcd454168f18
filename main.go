package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/collections"
	"tendereval/commands"
	"tendereval/config"
	"tendereval/handlers"
)

func main() {
	// A missing .env is fine; the environment may be set another way.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv(config.EnvPath))
	if err != nil {
		log.Fatal(err)
	}

	app := pocketbase.New()
	commands.Register(app.RootCmd)

	// Create collections, seed data and backfill on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if cfg.Seed {
			if err := collections.Seed(app); err != nil {
				log.Printf("Warning: seed data failed: %v", err)
			}
		}
		if err := collections.EnsureTechnicalRounds(app); err != nil {
			log.Printf("Warning: technical round backfill failed: %v", err)
		}
		if err := collections.MigrateDefaultNormalizationSettings(app, cfg.Settings()); err != nil {
			log.Printf("Warning: normalization settings migration failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))

		// ── Registry ─────────────────────────────────────────────
		se.Router.GET("/api/projects", handlers.HandleProjectList(app))
		se.Router.POST("/api/projects", handlers.HandleProjectCreate(app))
		se.Router.GET("/api/projects/{projectId}/packages", handlers.HandlePackageList(app))
		se.Router.POST("/api/projects/{projectId}/packages", handlers.HandlePackageCreate(app))
		se.Router.GET("/api/packages/{packageId}/contractors", handlers.HandleContractorList(app))
		se.Router.POST("/api/packages/{packageId}/contractors", handlers.HandleContractorCreate(app))

		// ── Rankings ─────────────────────────────────────────────
		se.Router.GET("/api/packages/{packageId}/rankings", handlers.HandlePackageRankings(app, cfg))

		// ── Commercial evaluation (loaded once per request) ──────
		api := se.Router.Group("/api/evaluations/{id}")
		api.BindFunc(handlers.EvaluationMiddleware(app, cfg))

		api.GET("/comparison", handlers.HandleComparisonJSON(app, cfg))
		api.PATCH("/settings", handlers.HandleSettingsUpdate(app, cfg))
		api.GET("/issues", handlers.HandleIssues(app, cfg))

		api.PUT("/overrides", handlers.HandleOverrideSet(app, cfg))
		api.DELETE("/overrides/{contractorId}/{itemId}", handlers.HandleOverrideDelete(app, cfg))

		// Error report must be registered before the import route shares its prefix
		api.POST("/bids/import/errors", handlers.HandleBidImportErrorReport(app))
		api.POST("/bids/import", handlers.HandleBidImport(app, cfg))

		api.GET("/export/excel", handlers.HandleComparisonExportExcel(app, cfg))
		api.GET("/export/pdf", handlers.HandleComparisonExportPDF(app, cfg))

		// generate is registered before {ptcId} so it is not matched as an id
		api.POST("/ptcs/generate", handlers.HandlePTCGenerate(app, cfg))
		api.GET("/ptcs", handlers.HandlePTCList(app, cfg))
		api.PATCH("/ptcs/{ptcId}", handlers.HandlePTCUpdate(app, cfg))
		api.POST("/ptcs/{contractorId}/deviations", handlers.HandlePTCAddDeviation(app, cfg))

		// ── Comparison page (HTMX) ───────────────────────────────
		page := se.Router.Group("/evaluations/{id}")
		page.BindFunc(handlers.EvaluationMiddleware(app, cfg))
		page.GET("/comparison", handlers.HandleComparisonPage(app, cfg))
		page.POST("/settings", handlers.HandleSettingsUpdate(app, cfg))
		page.POST("/overrides", handlers.HandleOverrideSet(app, cfg))

		// Redirect home to projects list
		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/api/projects")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
