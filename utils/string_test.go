package utils

import "testing"

func TestCompressDecompressRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"a longer value with \"quotes\" and\nnewlines and repeated repeated repeated text",
	}

	for _, input := range inputs {
		compressed, err := CompressString(input)
		if err != nil {
			t.Fatalf("CompressString(%q) failed: %v", input, err)
		}
		decompressed, err := DecompressString(compressed)
		if err != nil {
			t.Fatalf("DecompressString failed: %v", err)
		}
		if decompressed != input {
			t.Errorf("Round trip mismatch: expected %q, got %q", input, decompressed)
		}
	}
}

func TestDecompressInvalidInput(t *testing.T) {
	if _, err := DecompressString("not base64 at all!!!"); err == nil {
		t.Error("Expected error for invalid base64 input")
	}
	if _, err := DecompressString("aGVsbG8="); err == nil {
		t.Error("Expected error for non-gzip payload")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Expected untouched string, got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Expected truncated string, got %q", got)
	}
}
