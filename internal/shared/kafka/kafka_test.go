package kafka

import (
	"context"
	"reflect"
	"testing"
)

func TestBrokers(t *testing.T) {
	tests := map[string][]string{
		"localhost:9092":              {"localhost:9092"},
		"a:9092, b:9092,":             {"a:9092", "b:9092"},
		"":                            nil,
		" kafka-1:9092 ,kafka-2:9092": {"kafka-1:9092", "kafka-2:9092"},
	}
	for in, want := range tests {
		if got := Brokers(in); !reflect.DeepEqual(got, want) {
			t.Errorf("Brokers(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSendDLQDisabled(t *testing.T) {
	if err := SendDLQ(context.Background(), nil, "wager_tracked", "u1", map[string]string{"a": "b"}, nil); err != nil {
		t.Errorf("nil writer should be a no-op, got %v", err)
	}
}

func TestEnsureTopicsWithoutBrokers(t *testing.T) {
	if err := EnsureTopics(context.Background(), " , ", 1, "wager_tracked"); err == nil {
		t.Error("expected error without brokers")
	}
}
