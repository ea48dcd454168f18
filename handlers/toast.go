package handlers

import (
	"encoding/json"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// TotalsChangedEvent tells the comparison page that normalized totals
// moved and the ranking strip must refresh.
const TotalsChangedEvent = "totalsChanged"

// TriggerEvent adds a client event to the HX-Trigger response header,
// merging it into any events already set. An existing header that is not
// a JSON object is replaced.
func TriggerEvent(e *core.RequestEvent, name string, payload any) {
	events := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil {
			log.Printf("toast: existing HX-Trigger is not valid JSON, overwriting: %v", err)
			events = map[string]any{}
		}
	}
	events[name] = payload

	data, err := json.Marshal(events)
	if err != nil {
		log.Printf("toast: failed to marshal HX-Trigger JSON: %v", err)
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))
}

// SetToast shows a toast notification on the client via HTMX.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	TriggerEvent(e, "showToast", map[string]string{
		"message": message,
		"type":    toastType,
	})
}

// ErrorToast sets an error toast and prevents HTMX from swapping the error text into the DOM.
// It sets HX-Reswap: none so the response body is ignored by HTMX, while the HX-Trigger
// header still fires the toast event.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, "error", message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}

// TotalsChanged fires TotalsChangedEvent with the evaluation id.
func TotalsChanged(e *core.RequestEvent, evaluationID string) {
	TriggerEvent(e, TotalsChangedEvent, map[string]string{"evaluationId": evaluationID})
}

