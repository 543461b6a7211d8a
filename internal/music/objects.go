package music

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const objectScheme = "blob:"

// Objects holds uploaded audio as temporary files addressed by blob: references.
// A reference stays valid until it is revoked.
type Objects struct {
	dir string

	mu    sync.Mutex
	paths map[string]string
}

// NewObjects stores files under dir, or the system temp dir when dir is empty.
func NewObjects(dir string) *Objects {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Objects{dir: dir, paths: make(map[string]string)}
}

// Create copies r into a new object and returns its reference.
func (o *Objects) Create(name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(name))
	f, err := os.CreateTemp(o.dir, "genna-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close object: %w", err)
	}

	ref := objectScheme + uuid.NewString()
	o.mu.Lock()
	o.paths[ref] = f.Name()
	o.mu.Unlock()
	return ref, nil
}

// Path resolves a reference to its file.
func (o *Objects) Path(ref string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.paths[ref]
	return p, ok
}

// Revoke deletes the object. Unknown references are ignored.
func (o *Objects) Revoke(ref string) {
	o.mu.Lock()
	p, ok := o.paths[ref]
	delete(o.paths, ref)
	o.mu.Unlock()
	if !ok {
		return
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		log.Printf("warn: removing object %s: %v", ref, err)
	}
}

// Len reports how many references are live.
func (o *Objects) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.paths)
}

// IsObjectRef reports whether url is a blob: reference.
func IsObjectRef(url string) bool {
	return strings.HasPrefix(url, objectScheme)
}
