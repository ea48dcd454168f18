package handlers

import (
	"context"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/config"
)

type contextKey string

const EvaluationKey contextKey = "evaluation"

// EvaluationMiddleware loads the commercial evaluation named by the {id}
// path value once and stores it in the request context for the handlers
// of the /evaluations/{id} route groups.
func EvaluationMiddleware(app *pocketbase.PocketBase, cfg *config.Config) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := loadEvaluation(app, e.Request.PathValue("id"), cfg.Settings())
		if err != nil {
			if isHTMX(e) {
				return ErrorToast(e, statusFor(err), "Evaluation could not be loaded")
			}
			return respondError(e, "evaluation_middleware", err)
		}

		ctx := context.WithValue(e.Request.Context(), EvaluationKey, ev)
		e.Request = e.Request.WithContext(ctx)

		return e.Next()
	}
}

// evaluationFor returns the evaluation stored by EvaluationMiddleware or
// loads it when the handler is called directly.
func evaluationFor(e *core.RequestEvent, app *pocketbase.PocketBase, cfg *config.Config) (*evaluation, error) {
	if ev, ok := e.Request.Context().Value(EvaluationKey).(*evaluation); ok {
		return ev, nil
	}
	return loadEvaluation(app, e.Request.PathValue("id"), cfg.Settings())
}
