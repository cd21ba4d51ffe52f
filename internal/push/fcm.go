package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Veraticus/expense-tracker/internal/common"
	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/service"
)

// FCMGateway sends notifications through the FCM HTTP v1 API.
type FCMGateway struct {
	service   *fcm.Service
	projectID string
	retry     service.RetryOptions
}

// NewFCMGateway authenticates with the service account named in config and
// returns a gateway for its project.
func NewFCMGateway(ctx context.Context, config Config) (*FCMGateway, error) {
	jsonKey, err := os.ReadFile(config.ServiceAccountPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account key file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, jsonKey, fcm.FirebaseMessagingScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %w", err)
	}

	projectID := config.ProjectID
	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, fmt.Errorf("%w: FCM project id", common.ErrMissingConfig)
	}

	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	return newGateway(ctx, httpClient, projectID, config)
}

// NewFCMGatewayWithClient builds a gateway over an already authenticated
// client. config.Endpoint overrides the FCM base URL when set.
func NewFCMGatewayWithClient(ctx context.Context, httpClient *http.Client, projectID string, config Config) (*FCMGateway, error) {
	return newGateway(ctx, httpClient, projectID, config)
}

func newGateway(ctx context.Context, httpClient *http.Client, projectID string, config Config) (*FCMGateway, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}

	srv, err := fcm.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create FCM service: %w", err)
	}

	return &FCMGateway{
		service:   srv,
		projectID: projectID,
		retry: service.RetryOptions{
			MaxAttempts:  config.RetryAttempts,
			InitialDelay: config.RetryDelay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		},
	}, nil
}

// Send delivers the message to every token, one request per token.
func (g *FCMGateway) Send(ctx context.Context, tokens []string, title, body string) []model.SendResult {
	results := make([]model.SendResult, 0, len(tokens))
	for _, token := range tokens {
		results = append(results, g.sendOne(ctx, token, title, body))
	}
	return results
}

func (g *FCMGateway) sendOne(ctx context.Context, token, title, body string) model.SendResult {
	req := &fcm.SendMessageRequest{
		Message: &fcm.Message{
			Token: token,
			Notification: &fcm.Notification{
				Title: title,
				Body:  body,
			},
		},
	}

	var messageID string
	err := common.WithRetry(ctx, func() error {
		resp, err := g.service.Projects.Messages.Send("projects/"+g.projectID, req).Context(ctx).Do()
		if err != nil {
			return classify(err)
		}
		messageID = resp.Name
		return nil
	}, g.retry)

	if err != nil {
		slog.Warn("push delivery failed", "token", redact(token), "error", err)
		return model.SendResult{Token: token, Err: err}
	}

	slog.Debug("push delivered", "token", redact(token), "message_id", messageID)
	return model.SendResult{Token: token, MessageID: messageID}
}

// classify marks throttling and server-side FCM failures as retryable.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return common.Retryable(err)
		}
	}
	return err
}

func redact(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
