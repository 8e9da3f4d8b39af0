package messaging

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// headers adapts a Kafka message's header list to a propagation.TextMapCarrier.
// Setting an existing key overwrites its value in place.
type headers struct {
	list *[]kafka.Header
}

var _ propagation.TextMapCarrier = headers{}

func (h headers) Get(key string) string {
	for _, hdr := range *h.list {
		if hdr.Key == key {
			return string(hdr.Value)
		}
	}
	return ""
}

func (h headers) Set(key, value string) {
	for i := range *h.list {
		if (*h.list)[i].Key == key {
			(*h.list)[i].Value = []byte(value)
			return
		}
	}
	*h.list = append(*h.list, kafka.Header{Key: key, Value: []byte(value)})
}

func (h headers) Keys() []string {
	keys := make([]string, 0, len(*h.list))
	for _, hdr := range *h.list {
		keys = append(keys, hdr.Key)
	}
	return keys
}

func injectTrace(ctx context.Context, msg *kafka.Message) {
	otel.GetTextMapPropagator().Inject(ctx, headers{list: &msg.Headers})
}

func extractTrace(ctx context.Context, msg *kafka.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, headers{list: &msg.Headers})
}
