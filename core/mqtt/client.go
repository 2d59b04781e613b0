package mqtt

import (
	"fmt"
	"strings"
)

// Publisher sends payloads to an MQTT broker.
type Publisher interface {
	// Publish delivers payload on topic. Implementations retry transient
	// failures before returning an error.
	Publish(topic string, payload []byte) error
}

// DefaultTopicPrefix is the root of every depot topic.
const DefaultTopicPrefix = "depot"

// EventTopic returns the topic carrying the log records of one vehicle.
func EventTopic(prefix, simulation, evID string) string {
	return fmt.Sprintf("%s/%s/%s/events", topicRoot(prefix), segment(simulation), segment(evID))
}

// SummaryTopic returns the topic carrying the summary of a simulation.
func SummaryTopic(prefix, simulation string) string {
	return fmt.Sprintf("%s/%s/summary", topicRoot(prefix), segment(simulation))
}

// StatusTopic returns the topic holding the retained online status.
func StatusTopic(prefix string) string {
	return topicRoot(prefix) + "/status"
}

func topicRoot(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return DefaultTopicPrefix
	}
	return prefix
}

// segment strips wildcard and separator characters from a topic level.
func segment(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#':
			return '_'
		}
		return r
	}, s)
}
