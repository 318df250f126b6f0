package kafka_test

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/radieske/sports-bet-ledger/internal/shared/kafka"
)

func TestBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, kafka.Brokers(" a:9092, ,b:9092 "))
	assert.Nil(t, kafka.Brokers(""))
}

func TestNewWriter_HashesByKey(t *testing.T) {
	w := kafka.NewWriter("a:9092,b:9092", "rollup_ops")
	assert.Equal(t, "rollup_ops", w.Topic)
	assert.IsType(t, &kafkago.Hash{}, w.Balancer)
}
