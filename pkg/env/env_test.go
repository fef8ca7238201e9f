package env

import "testing"

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("ENTRYDESK_TEST_BLANK", "   ")
	if got := Get("ENTRYDESK_TEST_BLANK", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestGetFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("ENTRYDESK_TEST_A", "")
	t.Setenv("ENTRYDESK_TEST_B", "b")
	t.Setenv("ENTRYDESK_TEST_C", "c")
	if got := GetFirst("x", "ENTRYDESK_TEST_A", "ENTRYDESK_TEST_B", "ENTRYDESK_TEST_C"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := GetFirst("x", "ENTRYDESK_TEST_MISSING"); got != "x" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
