package kafka

// NewPublisherWithWriter exposes newPublisher to the external tests.
var NewPublisherWithWriter = func(w writer, topic string) *Publisher {
	return newPublisher(w, topic)
}
