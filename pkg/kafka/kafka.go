package kafka

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/illegalcall/reelwriter/internal/config"
)

const (
	maxRetries = 10
	retryDelay = 3 * time.Second
)

func waitForKafka(brokers []string, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		config := sarama.NewConfig()
		config.Net.DialTimeout = 1 * time.Second
		client, err := sarama.NewClient(brokers, config)
		if err == nil {
			client.Close()
			return nil
		}
		slog.Info("Waiting for Kafka to be ready...", "attempt", i+1)
		time.Sleep(delay)
	}
	return fmt.Errorf("kafka not available after %d attempts", attempts)
}

// producerConfig hashes message keys so every event of a profile lands on
// the same partition and is consumed in order.
func producerConfig(cfg config.KafkaConfig) *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Producer.Retry.Max = cfg.RetryMax
	config.Producer.Retry.Backoff = cfg.RetryBackoff
	return config
}

func consumerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true
	return config
}

// NewProducer connects a synchronous producer for script events.
func NewProducer(cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	brokers := []string{cfg.Broker}
	if err := waitForKafka(brokers, maxRetries, retryDelay); err != nil {
		return nil, err
	}
	return sarama.NewSyncProducer(brokers, producerConfig(cfg))
}

// NewConsumer joins the worker's consumer group.
func NewConsumer(cfg config.KafkaConfig) (sarama.ConsumerGroup, error) {
	brokers := []string{cfg.Broker}
	if err := waitForKafka(brokers, maxRetries, retryDelay); err != nil {
		return nil, err
	}
	return sarama.NewConsumerGroup(brokers, cfg.Group, consumerConfig())
}
