package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexfit/billing-service/internal/kafka/producer"
	"github.com/nexfit/billing-service/pkg/logger"
	kafkaGo "github.com/segmentio/kafka-go"
)

// EnsureTopics проверяет и создает топики биллинговых событий
func EnsureTopics(brokers []string, log *logger.Logger) error {
	requiredTopics := []kafkaGo.TopicConfig{
		{
			Topic:             producer.TopicPaymentConfirmed,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
		{
			Topic:             producer.TopicPaymentFailed,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
		{
			Topic:             producer.TopicSubscriptionActivated,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
		{
			Topic:             producer.TopicSplitSettled,
			NumPartitions:     1,
			ReplicationFactor: 1,
		},
	}

	if len(brokers) == 0 || brokers[0] == "" {
		return errors.New("kafka broker address is empty")
	}

	connCtx, cancelConn := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelConn()

	conn, err := kafkaGo.DialLeader(connCtx, "tcp", brokers[0], "", 0)
	if err != nil {
		return fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("kafka read partitions failed: %w", err)
	}

	existingTopics := make(map[string]bool)
	for _, p := range partitions {
		existingTopics[p.Topic] = true
	}

	var topicsToCreate []kafkaGo.TopicConfig
	for _, config := range requiredTopics {
		if !existingTopics[config.Topic] {
			topicsToCreate = append(topicsToCreate, config)
		}
	}

	if len(topicsToCreate) == 0 {
		log.Debug("All required Kafka topics already exist")
		return nil
	}

	if err := conn.CreateTopics(topicsToCreate...); err != nil {
		if errors.Is(err, kafkaGo.TopicAlreadyExists) {
			log.Warn("Some Kafka topics already existed during creation")
			return nil
		}
		return fmt.Errorf("kafka create topics failed: %w", err)
	}

	log.Info("Created %d Kafka topics", len(topicsToCreate))
	return nil
}
