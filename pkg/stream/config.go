package stream

import (
	"errors"
	"strings"

	"github.com/quiby-ai/recordwire/pkg/record"
)

var (
	ErrNoBrokers      = errors.New("stream: no brokers configured")
	ErrNoTopicPrefix  = errors.New("stream: topic prefix cannot be empty")
	ErrNoGroupID      = errors.New("stream: consumer group id cannot be empty")
	ErrHeaderMismatch = errors.New("stream: header disagrees with record")
)

type Config struct {
	Brokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	TopicPrefix string   `env:"KAFKA_TOPIC_PREFIX" envDefault:"recordwire"`
	GroupID     string   `env:"KAFKA_GROUP_ID" envDefault:"recordwire"`
}

func DefaultConfig() Config {
	return Config{
		TopicPrefix: "recordwire",
		GroupID:     "recordwire",
	}
}

func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return ErrNoBrokers
	}
	if c.TopicPrefix == "" {
		return ErrNoTopicPrefix
	}
	return nil
}

// Topic names the topic carrying records of one value type.
func Topic(prefix string, vt record.ValueType) string {
	return prefix + "-" + strings.ToLower(string(vt))
}

// Topics lists the topics of every variant registered with r.
func Topics(prefix string, r *record.Registry) []string {
	variants := r.Variants()
	topics := make([]string, 0, len(variants))
	for _, vt := range variants {
		topics = append(topics, Topic(prefix, vt))
	}
	return topics
}
