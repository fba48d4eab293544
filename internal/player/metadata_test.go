package player

import "testing"

func TestParseVorbisComments(t *testing.T) {
	m := parseVorbisComments([]string{"title= Night Drive ", "ARTIST=Kite", "junk", "Album=Loops"})
	if m.Title != "Night Drive" || m.Artist != "Kite" || m.Album != "Loops" {
		t.Fatalf("parseVorbisComments() = %+v", m)
	}
	if got := m.Display(); got != "Kite - Night Drive" {
		t.Fatalf("Display() = %q, want %q", got, "Kite - Night Drive")
	}
}

func TestReadMetadataFallsBackToFileName(t *testing.T) {
	m := ReadMetadata("/nowhere/field recording.wav")
	if m.Title != "field recording" {
		t.Fatalf("Title = %q, want %q", m.Title, "field recording")
	}
	if got := m.Display(); got != "field recording" {
		t.Fatalf("Display() = %q, want %q", got, "field recording")
	}
}
