// Package library lists songs stored in mood-named folders on local disk.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultMood is the folder used when no mood is requested.
	DefaultMood = "mixed"

	// MountPath is the URL prefix the library root is served under.
	MountPath = "/songs"
)

// SupportedExtensions lists the audio formats the player can stream.
var SupportedExtensions = []string{".mp3", ".wav", ".ogg", ".m4a"}

// Song is a playable file in the library.
type Song struct {
	ID   string `json:"id"`   // File name without extension
	Name string `json:"name"` // Display name: "my-song" -> "My Song"
	Path string `json:"path"` // Escaped URL path under MountPath
	Mood string `json:"mood"` // Folder the song was found in
}

// Library reads songs from <root>/<mood>/.
type Library struct {
	root string
}

// New creates a Library rooted at root.
func New(root string) *Library {
	return &Library{root: root}
}

// Root returns the library root directory.
func (l *Library) Root() string {
	return l.root
}

// EnsureRoot creates the library root if it does not exist.
func (l *Library) EnsureRoot() error {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return fmt.Errorf("creating library root %s: %w", l.root, err)
	}
	return nil
}

// ResolveMood returns the folder name for a requested mood.
// An empty tag resolves to DefaultMood.
func ResolveMood(tag string) string {
	if tag == "" {
		return DefaultMood
	}
	return tag
}

// Songs lists the supported audio files in the folder for tag.
//
// A missing folder is not an error: it yields an empty list. Tags that are
// not a single path element (for example "../x" or "a/b") also yield an
// empty list. The returned slice is never nil.
func (l *Library) Songs(tag string) ([]Song, error) {
	tag = ResolveMood(tag)
	songs := []Song{}

	if !validFolder(tag) {
		return songs, nil
	}

	entries, err := os.ReadDir(filepath.Join(l.root, tag))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return songs, nil
		}
		return songs, fmt.Errorf("reading mood folder %q: %w", tag, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsSupported(entry.Name()) {
			continue
		}
		songs = append(songs, newSong(tag, entry.Name()))
	}

	return songs, nil
}

// IsSupported reports whether name has a supported audio extension.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// DisplayName turns a file stem into a title: hyphens become spaces and
// every word is capitalized.
func DisplayName(id string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(id, "-", " "))
}

func newSong(tag, fileName string) Song {
	id := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return Song{
		ID:   id,
		Name: DisplayName(id),
		Path: SongURL(tag, fileName),
		Mood: tag,
	}
}

// SongURL returns the URL path of fileName in the tag folder. Each segment
// is escaped so names containing '#', '?' or '%' stay addressable.
func SongURL(tag, fileName string) string {
	return MountPath + "/" + url.PathEscape(tag) + "/" + url.PathEscape(fileName)
}

// validFolder reports whether tag names a direct child of the root.
func validFolder(tag string) bool {
	if tag == "." || tag == ".." {
		return false
	}
	if strings.ContainsAny(tag, `/\`) {
		return false
	}
	return fs.ValidPath(tag)
}
