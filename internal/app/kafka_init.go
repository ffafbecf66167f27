package app

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/wholesale/internal/metrics"
	"github.com/vladislavdragonenkov/wholesale/internal/service/outbox"
)

// initKafkaProducer создаёт producer, если список брокеров не пустой.
// Пустой список не считается ошибкой: возвращается nil, nil.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	brokerList := splitBrokers(brokers)
	if len(brokerList) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokerList, logger.WithField("component", "kafka"))
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

func splitBrokers(brokers string) []string {
	result := make([]string, 0)
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			result = append(result, b)
		}
	}
	return result
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// logPublisher заменяет Kafka, когда брокеры не настроены: событие пишется в лог и считается доставленным.
type logPublisher struct {
	logger *log.Entry
}

func (p logPublisher) Publish(event domain.OutboxMessage) error {
	p.logger.WithFields(log.Fields{
		"event_id":     event.ID,
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID,
	}).Debug("outbox event published to log")
	return nil
}

// newOutboxWorker связывает outbox с Kafka или, без брокеров, с логом.
func newOutboxWorker(cfg Config, repo domain.OutboxRepository, producer *kafka.Producer, outboxMetrics *metrics.OutboxMetrics, logger *log.Entry) *outbox.Worker {
	options := []outbox.Option{
		outbox.WithLogger(logger.WithField("component", "outbox")),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	}
	if outboxMetrics != nil {
		options = append(options, outbox.WithMetrics(outboxMetrics))
	}

	var publisher domain.OutboxPublisher = logPublisher{logger: logger.WithField("component", "outbox")}
	if producer != nil {
		publisher = kafka.NewOutboxPublisher(producer, cfg.OutboxTopic)
		if cfg.OutboxDLQTopic != "" {
			options = append(options, outbox.WithDLQPublisher(kafka.NewDLQPublisher(producer, cfg.OutboxDLQTopic, cfg.OutboxTopic)))
		}
	}
	return outbox.NewWorker(repo, publisher, options...)
}

// startOutboxWorker запускает worker в фоне; возвращает cancel и канал завершения.
func startOutboxWorker(ctx context.Context, worker *outbox.Worker) (context.CancelFunc, <-chan struct{}) {
	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(workerCtx)
	}()
	return cancel, done
}
