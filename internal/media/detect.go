package media

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// audioExts are the containers the player can decode.
var audioExts = []string{".mp3", ".wav", ".flac", ".ogg"}

// IsSupportedExt returns true if the extension is a supported audio format.
func IsSupportedExt(ext string) bool {
	return slices.Contains(audioExts, strings.ToLower(ext))
}

// SupportedExtsList returns a human-readable list of supported audio formats.
func SupportedExtsList() string {
	return strings.Join(audioExts, ", ")
}

// CheckFile makes sure path names a regular file with a playable extension.
func CheckFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupportedExt(ext) {
		return fmt.Errorf("unsupported format %q (supported: %s)", ext, SupportedExtsList())
	}
	return nil
}
