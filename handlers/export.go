package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/config"
	"tendereval/services"
)

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}

func exportData(e *core.RequestEvent, app *pocketbase.PocketBase, cfg *config.Config) (services.ExportData, error) {
	ev, err := evaluationFor(e, app, cfg)
	if err != nil {
		return services.ExportData{}, err
	}
	data, err := comparisonData(app, cfg, ev)
	if err != nil {
		return services.ExportData{}, err
	}
	return data.Export, nil
}

// HandleComparisonExportExcel returns a handler that generates and downloads
// the bid comparison as an Excel file.
func HandleComparisonExportExcel(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := exportData(e, app, cfg)
		if err != nil {
			app.Logger().Warn("export_excel: could not load evaluation", "id", e.Request.PathValue("id"), "error", err)
			return e.String(statusFor(err), "Evaluation could not be exported")
		}

		xlsxBytes, err := services.GenerateExcel(data)
		if err != nil {
			app.Logger().Error("export_excel: failed to generate", "error", err)
			return e.String(http.StatusInternalServerError, "Failed to generate Excel file")
		}

		filename := fmt.Sprintf("Comparison_%s_%d.xlsx", sanitizeFilename(data.Title), time.Now().Year())

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// HandleComparisonExportPDF returns a handler that generates and downloads
// the bid comparison as a PDF file.
func HandleComparisonExportPDF(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := exportData(e, app, cfg)
		if err != nil {
			app.Logger().Warn("export_pdf: could not load evaluation", "id", e.Request.PathValue("id"), "error", err)
			return e.String(statusFor(err), "Evaluation could not be exported")
		}

		pdfBytes, err := services.GeneratePDF(data)
		if err != nil {
			app.Logger().Error("export_pdf: failed to generate", "error", err)
			return e.String(http.StatusInternalServerError, "Failed to generate PDF file")
		}

		filename := fmt.Sprintf("Comparison_%s_%d.pdf", sanitizeFilename(data.Title), time.Now().Year())

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(pdfBytes)
		return nil
	}
}
