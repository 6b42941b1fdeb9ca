// Package eventbridge publishes cache health alerts to AWS EventBridge
// so ops tooling can route them to pagers and dashboards.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"argus-backend/internal/cache/metrics"
)

// putEventsAPI is the slice of the EventBridge client the publisher uses.
type putEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// detailType labels alert events on the bus.
const detailType = "cache.health.alert"

// AlertPublisher implements the metrics sink over EventBridge PutEvents.
type AlertPublisher struct {
	client       putEventsAPI
	eventBusName string
	source       string
	logger       *zap.Logger
}

var _ metrics.Sink = (*AlertPublisher)(nil)

// NewAlertPublisher creates a publisher targeting the named event bus.
func NewAlertPublisher(client *eventbridge.Client, eventBusName, source string, logger *zap.Logger) *AlertPublisher {
	return newAlertPublisher(client, eventBusName, source, logger)
}

func newAlertPublisher(client putEventsAPI, eventBusName, source string, logger *zap.Logger) *AlertPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertPublisher{
		client:       client,
		eventBusName: eventBusName,
		source:       source,
		logger:       logger,
	}
}

// Publish sends the alerts to EventBridge, splitting into batches of the
// PutEvents maximum of 10 entries.
func (p *AlertPublisher) Publish(ctx context.Context, alerts []metrics.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	const batchSize = 10
	for i := 0; i < len(alerts); i += batchSize {
		end := i + batchSize
		if end > len(alerts) {
			end = len(alerts)
		}
		if err := p.publishBatch(ctx, alerts[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *AlertPublisher) publishBatch(ctx context.Context, alerts []metrics.Alert) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(alerts))

	for _, alert := range alerts {
		detail, err := json.Marshal(alert)
		if err != nil {
			p.logger.Error("failed to marshal alert",
				zap.String("metric", alert.Metric),
				zap.Error(err),
			)
			continue
		}

		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(p.source),
			DetailType:   aws.String(detailType),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(alert.At),
		})
	}

	if len(entries) == 0 {
		return nil
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("publish alerts to eventbridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for _, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("alert entry rejected",
					zap.String("error_code", aws.ToString(entry.ErrorCode)),
					zap.String("error_message", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d alert events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("alerts published",
		zap.Int("count", len(entries)),
		zap.String("event_bus", p.eventBusName),
	)
	return nil
}
