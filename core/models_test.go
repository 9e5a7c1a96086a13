package core

import (
	"testing"
)

func TestDerivedID(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{
			name:  "single part",
			parts: []string{"document-1"},
		},
		{
			name:  "document and chunk index",
			parts: []string{"5f2b0c9e-8a41-4f6e-9f1d-3f6a1b2c3d4e", "7"},
		},
		{
			name:  "empty part",
			parts: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := DerivedID(tt.parts...)
			id2 := DerivedID(tt.parts...)

			if id1 != id2 {
				t.Errorf("DerivedID() produced different IDs for same parts: %s vs %s", id1, id2)
			}
		})
	}
}

func TestDerivedID_Different(t *testing.T) {
	if DerivedID("doc", "1") == DerivedID("doc", "2") {
		t.Errorf("DerivedID() produced same ID for different parts")
	}

	// Part boundaries must matter: ("ab","c") and ("a","bc") differ.
	if DerivedID("ab", "c") == DerivedID("a", "bc") {
		t.Errorf("DerivedID() ignores part boundaries")
	}
}

func TestDocumentStatusString(t *testing.T) {
	tests := []struct {
		status DocumentStatus
		want   string
	}{
		{StatusPending, "pending"},
		{StatusProcessing, "processing"},
		{StatusCompleted, "completed"},
		{StatusFailed, "failed"},
		{DocumentStatus(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("DocumentStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
