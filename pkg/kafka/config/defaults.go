package kafka_config

import "time"

const (
	DefaultKafkaEnabled  = false
	DefaultKafkaBrokers  = "localhost:9092"
	DefaultKafkaClientID = "megastrength"

	DefaultBookingTopic = "bookings.events"
	DefaultDLQTopic     = "bookings.events.dlq"

	// Producer defaults
	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // Require all replicas
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	// Consumer defaults
	DefaultConsumerGroupID           = "booking-notifier"
	DefaultConsumerStartOffset       = -2 // Oldest: a new notifier group replays the backlog
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 10 * 1024 * 1024 // 10MB
	DefaultConsumerMaxWait           = 500 * time.Millisecond
	DefaultConsumerCommitInterval    = 1 * time.Second
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerMaxRetries        = 3
	DefaultConsumerRetryBackoff      = 500 * time.Millisecond
)
