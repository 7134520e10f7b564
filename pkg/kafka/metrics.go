package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	topicLabels    = []string{"topic"}
	consumerLabels = []string{"topic", "consumer_group"}
)

var (
	published = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fynd",
		Subsystem: "kafka_producer",
		Name:      "published_total",
		Help:      "Events written to Kafka.",
	}, topicLabels)

	publishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fynd",
		Subsystem: "kafka_producer",
		Name:      "errors_total",
		Help:      "Kafka writes that returned an error.",
	}, topicLabels)

	publishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fynd",
		Subsystem: "kafka_producer",
		Name:      "write_duration_seconds",
		Help:      "Time spent in a single Kafka write.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	}, topicLabels)

	// consumed is labeled by outcome: handled, failed, duplicate or malformed.
	consumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fynd",
		Subsystem: "kafka_consumer",
		Name:      "messages_total",
		Help:      "Kafka messages read, by how they were disposed of.",
	}, append(consumerLabels, "outcome"))
)

const (
	outcomeHandled   = "handled"
	outcomeFailed    = "failed"
	outcomeDuplicate = "duplicate"
	outcomeMalformed = "malformed"
)
