package chat

import "testing"

func TestCloneTranscriptIndependence(t *testing.T) {
	original := []Message{User("a"), Assistant("b")}
	copied := CloneTranscript(original)

	copied[0].Content = "mutated"
	if original[0].Content != "a" {
		t.Fatal("clone shares backing array with original")
	}
}

func TestCloneTranscriptNil(t *testing.T) {
	if CloneTranscript(nil) != nil {
		t.Fatal("nil transcript should stay nil")
	}
}

func TestConstructors(t *testing.T) {
	if msg := User("hi"); msg.Role != RoleUser || msg.Content != "hi" {
		t.Fatalf("unexpected user turn: %+v", msg)
	}
	if msg := Assistant("ok"); msg.Role != RoleAssistant || msg.Content != "ok" {
		t.Fatalf("unexpected assistant turn: %+v", msg)
	}
}
