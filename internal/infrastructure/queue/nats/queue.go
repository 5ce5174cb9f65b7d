package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/infrastructure/resilience"
)

// Queue carries the two event streams: answers.recorded (api publishes,
// worker consumes into the audit table) and corpus.updated (ingestion
// publishes, api consumes to clear the answer cache).
type Queue struct {
	conn           *nats.Conn
	answersSubject string
	corpusSubject  string
	queueGroup     string
	executor       *resilience.Executor
	logger         *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	QueueGroup           string
	ResilienceExecutor   *resilience.Executor
}

func New(url, answersSubject, corpusSubject string, logger *slog.Logger) (*Queue, error) {
	return NewWithOptions(url, answersSubject, corpusSubject, logger, Options{})
}

func NewWithOptions(url, answersSubject, corpusSubject string, logger *slog.Logger, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("benefits-navigator"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	queueGroup := options.QueueGroup
	if queueGroup == "" {
		queueGroup = "audit-workers"
	}
	return &Queue{
		conn:           conn,
		answersSubject: answersSubject,
		corpusSubject:  corpusSubject,
		queueGroup:     queueGroup,
		executor:       options.ResilienceExecutor,
		logger:         logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishAnswerRecorded(ctx context.Context, event domain.AnswerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal answer event: %w", err)
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.answersSubject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeAnswerRecorded consumes answer events under the audit queue
// group, so multiple workers split the stream instead of duplicating rows.
// Blocks until ctx is cancelled.
func (q *Queue) SubscribeAnswerRecorded(ctx context.Context, handler func(context.Context, domain.AnswerEvent) error) error {
	sub, err := q.conn.QueueSubscribe(q.answersSubject, q.queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		var event domain.AnswerEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			q.logger.Error("answer_event_decode_failed", "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, event); err != nil {
			q.logger.Error("answer_event_handler_failed", "event_id", event.ID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	return q.waitAndDrain(ctx, sub)
}

// SubscribeCorpusUpdated fans corpus-change notifications out to every api
// replica; no queue group, each instance must flush its own cache.
func (q *Queue) SubscribeCorpusUpdated(ctx context.Context, handler func(context.Context) error) error {
	sub, err := q.conn.Subscribe(q.corpusSubject, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx); err != nil {
			q.logger.Error("corpus_update_handler_failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	return q.waitAndDrain(ctx, sub)
}

func (q *Queue) waitAndDrain(ctx context.Context, sub *nats.Subscription) error {
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
