package push

import (
	"context"
	"log/slog"

	"github.com/Veraticus/expense-tracker/internal/model"
)

// LogGateway logs messages instead of sending them. It is used when push
// delivery is disabled.
type LogGateway struct{}

// Send logs one line per token and reports every token as delivered.
func (LogGateway) Send(_ context.Context, tokens []string, title, body string) []model.SendResult {
	results := make([]model.SendResult, 0, len(tokens))
	for _, token := range tokens {
		slog.Info("push disabled, not sending", "token", redact(token), "title", title, "body", body)
		results = append(results, model.SendResult{Token: token, MessageID: "log"})
	}
	return results
}
