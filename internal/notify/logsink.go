package notify

import "log"

// LogSink writes events to the process log. Useful in demo mode and tests.
type LogSink struct{}

func (LogSink) Publish(event string, payload interface{}) {
	log.Printf("[notify] %s: %+v", event, payload)
}
