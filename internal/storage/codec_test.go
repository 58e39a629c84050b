package storage

import (
	"errors"
	"testing"
)

func TestRunRecordCodecRoundTrip(t *testing.T) {
	want := sampleRun("run-codec", "2026-08-23T10:00:00Z")

	payload, err := EncodeRunRecord(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeRunRecord(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.ID != want.ID || got.Counts != want.Counts || got.Seed != want.Seed {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if len(got.Accuracies) != len(want.Accuracies) {
		t.Fatalf("expected %d accuracies, got %d", len(want.Accuracies), len(got.Accuracies))
	}
}

func TestDecodeRunRecordRejectsVersionMismatch(t *testing.T) {
	record := sampleRun("run-version", "2026-08-23T10:00:00Z")
	record.SchemaVersion = CurrentSchemaVersion + 1

	payload, err := EncodeRunRecord(record)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRunRecord(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestDecodeRunRecordRejectsGarbage(t *testing.T) {
	if _, err := DecodeRunRecord([]byte("not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}
