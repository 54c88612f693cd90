// Package roster loads the set of known identities from a directory of
// reference photos. One photo per person; the file name (extension stripped)
// becomes the identity name.
package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// Identity is one known person: a name and the embedding of their reference photo.
type Identity struct {
	Name      string
	Embedding []float32
}

// ErrNoIdentities is returned when a load produced zero usable identities.
var ErrNoIdentities = errors.New("no known identities loaded")

// Embedder computes one embedding for an image containing a single face.
type Embedder interface {
	Represent(ctx context.Context, imageData []byte) ([]float32, error)
}

// Roster is the immutable set of known identities for a run. Iteration order
// is the load order (sorted file names), which makes matching deterministic.
type Roster struct {
	identities []Identity
	dim        int
}

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

// ListImageFiles returns the supported image files in a directory, sorted by
// name. Extension matching is case-insensitive.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read faces directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// IdentityName derives the identity name from a reference photo path.
func IdentityName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads every supported image in dir and embeds it through the embedder.
// Files that fail to embed (unreadable, no face found) are skipped with a
// warning; they never abort the load. Quiet suppresses the progress bar and
// warnings for machine-readable output modes.
//
// All embeddings must come from the same model: the first successful file
// fixes the dimension and later files with a different dimension are skipped.
func Load(ctx context.Context, dir string, embedder Embedder, quiet bool) (*Roster, error) {
	files, err := ListImageFiles(dir)
	if err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if !quiet && len(files) > 0 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Loading known faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	r := &Roster{}
	for _, path := range files {
		if bar != nil {
			bar.Add(1)
		}

		name := IdentityName(path)
		data, err := os.ReadFile(path)
		if err != nil {
			warnf(quiet, "Warning: failed to read '%s': %v\n", path, err)
			continue
		}

		emb, err := embedder.Represent(ctx, data)
		if err != nil {
			warnf(quiet, "Warning: failed to embed '%s': %v\n", path, err)
			continue
		}

		if r.dim == 0 {
			r.dim = len(emb)
		} else if len(emb) != r.dim {
			warnf(quiet, "Warning: skipping '%s': embedding dimension %d does not match roster dimension %d\n",
				path, len(emb), r.dim)
			continue
		}

		r.identities = append(r.identities, Identity{Name: name, Embedding: emb})
	}

	return r, nil
}

// FromIdentities builds a roster from pre-computed identities, preserving
// order. Used when the roster comes from the database instead of a directory.
func FromIdentities(identities []Identity) (*Roster, error) {
	r := &Roster{}
	for _, id := range identities {
		if len(id.Embedding) == 0 {
			continue
		}
		if r.dim == 0 {
			r.dim = len(id.Embedding)
		} else if len(id.Embedding) != r.dim {
			return nil, fmt.Errorf("identity '%s': embedding dimension %d does not match roster dimension %d",
				id.Name, len(id.Embedding), r.dim)
		}
		r.identities = append(r.identities, id)
	}
	return r, nil
}

// Identities returns the known identities in load order.
func (r *Roster) Identities() []Identity {
	return r.identities
}

// Len returns the number of known identities.
func (r *Roster) Len() int {
	return len(r.identities)
}

// Empty reports whether the roster holds no identities. An empty roster is a
// valid but terminal state: nothing can ever match against it.
func (r *Roster) Empty() bool {
	return len(r.identities) == 0
}

// Dim returns the embedding dimension shared by all identities, 0 when empty.
func (r *Roster) Dim() int {
	return r.dim
}

func warnf(quiet bool, format string, args ...any) {
	if !quiet {
		fmt.Printf(format, args...)
	}
}
