package kafka

// Topic definitions for Kafka event streaming
const (
	// TopicSentimentDaily carries one event per completed daily run
	TopicSentimentDaily = "coin.sentiment.daily"

	// TopicRunFailed carries daily runs that aborted
	TopicRunFailed = "coin.sentiment.run_failed"
)
