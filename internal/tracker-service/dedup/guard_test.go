package dedup

import (
	"strings"
	"testing"
)

func TestKey(t *testing.T) {
	a := key("u1", "https://cdn.example/1.png")
	if !strings.HasPrefix(a, "wager:seen:u1:") || len(a) != len("wager:seen:u1:")+40 {
		t.Errorf("key = %q", a)
	}
	if a != key("u1", "https://cdn.example/1.png") {
		t.Error("key must be deterministic")
	}
	if a == key("u2", "https://cdn.example/1.png") {
		t.Error("same image for another user must not collide")
	}
	if a == key("u1", "https://cdn.example/2.png") {
		t.Error("different images must not collide")
	}
}
