package player

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/jfreymuth/oggvorbis"
)

// Metadata holds track information for the preview title.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// Display returns "Artist - Title", or just the title.
func (m Metadata) Display() string {
	if m.Artist == "" {
		return m.Title
	}
	return m.Artist + " - " + m.Title
}

// ReadMetadata reads ID3v2 tags from MP3 files and Vorbis comments from Ogg
// files, falling back to the file name.
func ReadMetadata(path string) Metadata {
	var m Metadata
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		m = readID3(path)
	case ".ogg":
		m = readVorbisComments(path)
	}
	if m.Title != "" {
		return m
	}

	base := filepath.Base(path)
	return Metadata{
		Title:  strings.TrimSuffix(base, filepath.Ext(base)),
		Artist: m.Artist,
		Album:  m.Album,
	}
}

func readID3(path string) Metadata {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Metadata{}
	}
	defer tag.Close()
	return Metadata{
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
		Album:  strings.TrimSpace(tag.Album()),
	}
}

func readVorbisComments(path string) Metadata {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}
	}
	defer f.Close()
	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return Metadata{}
	}
	return parseVorbisComments(r.CommentHeader().Comments)
}

func parseVorbisComments(comments []string) Metadata {
	var m Metadata
	for _, c := range comments {
		key, value, ok := strings.Cut(c, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(key) {
		case "TITLE":
			m.Title = value
		case "ARTIST":
			m.Artist = value
		case "ALBUM":
			m.Album = value
		}
	}
	return m
}
