// Package thumb manages the on-disk lifecycle of uploaded thumbnail images.
// It only performs file-level operations; the association between a file and
// an event record is owned by the caller.
package thumb

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Filenames are generated from an unambiguous alphabet, independent of the
// uploaded file's original name.
const (
	nameAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_-"
	nameLength   = 18
)

// ErrMissingOriginal reports that the canonical file a record points at is
// gone. That breaks the record/file invariant and must be surfaced, not
// silently ignored.
var ErrMissingOriginal = errors.New("original thumbnail file is missing")

type Manager struct {
	dir    string
	logger *slog.Logger
}

// NewManager creates the storage directory if needed and returns a Manager
// rooted there.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create thumbnail dir: %w", err)
	}
	return &Manager{dir: dir, logger: logger}, nil
}

// Dir returns the storage directory root.
func (m *Manager) Dir() string {
	return m.dir
}

// Store persists the uploaded content under a randomly generated filename and
// returns its path (slash-separated).
func (m *Manager) Store(r io.Reader) (string, error) {
	// O_EXCL guards against the unlikely name collision; retry with a new
	// name instead of clobbering.
	for attempt := 0; attempt < 3; attempt++ {
		name, err := randomName()
		if err != nil {
			return "", err
		}
		path := filepath.Join(m.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create thumbnail file: %w", err)
		}

		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("write thumbnail file: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("close thumbnail file: %w", err)
		}
		return filepath.ToSlash(path), nil
	}
	return "", fmt.Errorf("could not find a free thumbnail filename")
}

// ReplaceIfChanged decides between the existing file and a freshly stored
// upload and returns exactly one terminal path. If the two are byte-identical
// the upload is discarded and the existing path kept; otherwise the old file
// is removed and the upload's path adopted. The old file is never removed
// before the contents are confirmed different.
func (m *Manager) ReplaceIfChanged(existingPath, newPath string) (string, error) {
	oldInfo, err := os.Stat(existingPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrMissingOriginal, existingPath)
	}
	if err != nil {
		return "", fmt.Errorf("stat existing thumbnail: %w", err)
	}

	newInfo, err := os.Stat(newPath)
	if err != nil {
		return "", fmt.Errorf("stat new thumbnail: %w", err)
	}

	// Size is a cheap filter before hashing.
	if oldInfo.Size() == newInfo.Size() {
		oldHash, err := fileHash(existingPath)
		if err != nil {
			return "", err
		}
		newHash, err := fileHash(newPath)
		if err != nil {
			return "", err
		}
		if bytes.Equal(oldHash, newHash) {
			if err := os.Remove(newPath); err != nil {
				return "", fmt.Errorf("discard identical upload: %w", err)
			}
			return existingPath, nil
		}
	}

	if err := os.Remove(existingPath); err != nil {
		return "", fmt.Errorf("remove replaced thumbnail: %w", err)
	}
	return newPath, nil
}

// Remove deletes a stored thumbnail file.
func (m *Manager) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove thumbnail: %w", err)
	}
	return nil
}

func fileHash(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash file: %w", err)
	}
	return h.Sum(nil), nil
}

// randomName draws nameLength characters from nameAlphabet using rejection
// sampling so every character is equally likely.
func randomName() (string, error) {
	const maxAccept = byte(len(nameAlphabet) * (256 / len(nameAlphabet))) // 228

	name := make([]byte, 0, nameLength)
	buf := make([]byte, 32)
	for len(name) < nameLength {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return "", fmt.Errorf("generate filename: %w", err)
		}
		for _, b := range buf {
			if b >= maxAccept {
				continue
			}
			name = append(name, nameAlphabet[int(b)%len(nameAlphabet)])
			if len(name) == nameLength {
				break
			}
		}
	}
	return string(name), nil
}
