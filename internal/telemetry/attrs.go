package telemetry

import "go.opentelemetry.io/otel/attribute"

func attrOp(op string) attribute.KeyValue {
	return attribute.String("op", op)
}
