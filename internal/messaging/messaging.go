package messaging

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/walletgraph/walletgraph/internal/adapter"
	"github.com/walletgraph/walletgraph/internal/domain"
	"github.com/walletgraph/walletgraph/internal/logger"
	"github.com/walletgraph/walletgraph/internal/ownership"
)

const (
	// StreamName is the JetStream stream holding NFT discovery events
	StreamName = "WALLETGRAPH_NFTS"

	// DiscoverySubjectPrefix is the subject root for discovery events; the
	// chain id is appended per event
	DiscoverySubjectPrefix = "nfts.discovered"

	consumerName = "walletgraph-ingest"
)

// DiscoverySubject returns the subject a chain's discovery events publish to
func DiscoverySubject(chainID domain.ChainID) string {
	return fmt.Sprintf("%s.%s", DiscoverySubjectPrefix, chainID)
}

// Publisher emits NFT discovery events for indexing jobs
type Publisher struct {
	js   adapter.JetStream
	json adapter.JSON
}

// NewPublisher creates a discovery event publisher
func NewPublisher(js adapter.JetStream, json adapter.JSON) *Publisher {
	return &Publisher{js: js, json: json}
}

// PublishDiscovery publishes one discovery event to the chain's subject
func (p *Publisher) PublishDiscovery(ctx context.Context, event domain.NftDiscoveryEvent) error {
	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode discovery event: %w", err)
	}

	subject := DiscoverySubject(event.ChainID)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

// Subscriber consumes NFT discovery events and appends ownership rows
type Subscriber struct {
	js        adapter.JetStream
	json      adapter.JSON
	validator *ownership.Validator
	stream    string
	consumer  string
}

// NewSubscriber creates a discovery event subscriber. Empty stream or
// consumer names fall back to the defaults.
func NewSubscriber(js adapter.JetStream, json adapter.JSON, validator *ownership.Validator) *Subscriber {
	return &Subscriber{
		js:        js,
		json:      json,
		validator: validator,
		stream:    StreamName,
		consumer:  consumerName,
	}
}

// WithNames overrides the stream and durable consumer names
func (s *Subscriber) WithNames(stream, consumer string) *Subscriber {
	if stream != "" {
		s.stream = stream
	}
	if consumer != "" {
		s.consumer = consumer
	}
	return s
}

// Start creates the durable consumer and begins processing events. The
// returned ConsumeContext stops consumption when stopped or drained.
func (s *Subscriber) Start(ctx context.Context) (adapter.ConsumeContext, error) {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, s.stream, jetstream.ConsumerConfig{
		Durable:       s.consumer,
		FilterSubject: DiscoverySubjectPrefix + ".>",
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg adapter.Message) {
		s.handle(ctx, msg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return consumeCtx, nil
}

// handle processes one discovery event. Malformed payloads are terminated so
// they are not redelivered; transient append failures are nacked for
// redelivery after the validator's own retries are exhausted. Redelivery of
// an already-applied event appends nothing and acks.
func (s *Subscriber) handle(ctx context.Context, msg adapter.Message) {
	var event domain.NftDiscoveryEvent
	if err := s.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("malformed discovery event: %w", err))
		if err := msg.Term(); err != nil {
			logger.WarnCtx(ctx, "failed to terminate message", zap.Error(err))
		}
		return
	}

	result, err := s.validator.AddNfts(ctx, event.PublicKey, event.Nfts)
	if err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("public_key", event.PublicKey),
			zap.String("chain_id", event.ChainID.String()))
		if err := msg.Nak(); err != nil {
			logger.WarnCtx(ctx, "failed to nack message", zap.Error(err))
		}
		return
	}

	logger.InfoCtx(ctx, "appended ownership rows",
		zap.String("public_key", event.PublicKey),
		zap.String("chain_id", event.ChainID.String()),
		zap.Int64("inserted", result.Inserted))

	if err := msg.Ack(); err != nil {
		logger.WarnCtx(ctx, "failed to ack message", zap.Error(err))
	}
}
