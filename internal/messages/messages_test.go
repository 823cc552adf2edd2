package messages

import (
	"strings"
	"testing"
)

func TestRender_SirenFallbackText(t *testing.T) {
	got := Render(SirenFallback, "en", "myLocationName", "loc-1")
	want := "There is an unresponded siren. Please check on myLocationName."
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRender_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	got := Render(DisconnectionInitial, "fr", "Room 2", "loc-2")
	if !strings.Contains(got, "Room 2") || !strings.Contains(got, "loc-2") {
		t.Fatalf("missing substitutions: %q", got)
	}
	if got != Render(DisconnectionInitial, "en", "Room 2", "loc-2") {
		t.Fatal("expected english fallback")
	}
}

func TestRender_SpanishCatalog(t *testing.T) {
	got := Render(Reconnection, "es", "Cuarto 3", "loc-3")
	if !strings.Contains(got, "reconectado") || !strings.Contains(got, "Cuarto 3") {
		t.Fatalf("unexpected spanish text: %q", got)
	}
}
