package notification

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

var client = &http.Client{Timeout: 10 * time.Second}

// SendAlert posts a JSON payload to url. Transport failures are logged and
// swallowed; alerts never fail the caller.
func SendAlert(log *zap.SugaredLogger, url string, payload interface{}) {
	body, _ := json.Marshal(payload)

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Warnw("send alert webhook", "error", err)
		return
	}
	defer resp.Body.Close()
}

// SendDuplicateContactAlert fires the configured alert webhook when sync
// finds two cached contacts sharing an email.
func SendDuplicateContactAlert(log *zap.SugaredLogger, orgID uint, email string) {
	url := os.Getenv("ALERT_WEBHOOK_URL")
	if url == "" {
		return
	}
	SendAlert(log, url, map[string]interface{}{
		"message":        "duplicate contact email detected during sync",
		"organizationId": orgID,
		"email":          email,
	})
}
