package trmnl

import (
	"context"
	"fmt"

	"github.com/carlmjohnson/requests"
	"github.com/sirupsen/logrus"
)

// TrmnlService sends merge variables to a TRMNL plugin webhook.
type TrmnlService struct {
	WebhookURL string
}

func CreateTrmnlService(webhookURL string) *TrmnlService {
	return &TrmnlService{WebhookURL: webhookURL}
}

// Send wraps the merge variables in the webhook envelope and POSTs them.
func (trmnlService *TrmnlService) Send(ctx context.Context, mergeVariables map[string]any) error {
	payload := map[string]any{
		"merge_variables": mergeVariables,
	}

	logrus.Infof("sending %d merge variables to TRMNL", len(mergeVariables))

	var response string
	err := requests.
		URL(trmnlService.WebhookURL).
		Header("Content-Type", "application/json").
		BodyJSON(&payload).
		ToString(&response).
		Fetch(ctx)
	if err != nil {
		return fmt.Errorf("send merge variables: %w", err)
	}

	logrus.Debugf("TRMNL response: %s", response)
	return nil
}

// SendError pushes an error-display payload so the device shows what went
// wrong instead of stale data.
func (trmnlService *TrmnlService) SendError(ctx context.Context, message string, title string) error {
	return trmnlService.Send(ctx, map[string]any{
		"panel_type":    "error",
		"title":         title,
		"error_message": message,
	})
}
