package roster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeEmbedder returns canned embeddings keyed by image content.
type fakeEmbedder struct {
	embeddings map[string][]float32
	errs       map[string]error
	calls      int
}

func (f *fakeEmbedder) Represent(_ context.Context, imageData []byte) ([]float32, error) {
	f.calls++
	key := string(imageData)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if emb, ok := f.embeddings[key]; ok {
		return emb, nil
	}
	return nil, errors.New("unexpected image")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Alice.jpg", "alice-img")
	writeFile(t, dir, "Bob.PNG", "bob-img")
	writeFile(t, dir, "notes.txt", "not an image")

	emb := &fakeEmbedder{embeddings: map[string][]float32{
		"alice-img": {1, 0, 0},
		"bob-img":   {0, 1, 0},
	}}

	r, err := Load(context.Background(), dir, emb, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if r.Len() != 2 {
		t.Fatalf("expected 2 identities, got %d", r.Len())
	}
	if r.Dim() != 3 {
		t.Errorf("expected dim 3, got %d", r.Dim())
	}

	// Sorted file order: Alice before Bob.
	ids := r.Identities()
	if ids[0].Name != "Alice" || ids[1].Name != "Bob" {
		t.Errorf("unexpected load order: %s, %s", ids[0].Name, ids[1].Name)
	}

	// The .txt file must not reach the embedder.
	if emb.calls != 2 {
		t.Errorf("expected 2 embedder calls, got %d", emb.calls)
	}
}

func TestLoad_SkipsFailedEmbeddings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Alice.jpg", "alice-img")
	writeFile(t, dir, "Blurry.jpg", "blurry-img")
	writeFile(t, dir, "Carol.jpg", "carol-img")

	emb := &fakeEmbedder{
		embeddings: map[string][]float32{
			"alice-img": {1, 0},
			"carol-img": {0, 1},
		},
		errs: map[string]error{
			"blurry-img": errors.New("no face detected"),
		},
	}

	r, err := Load(context.Background(), dir, emb, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if r.Len() != 2 {
		t.Fatalf("expected failed file to be skipped, got %d identities", r.Len())
	}
	for _, id := range r.Identities() {
		if id.Name == "Blurry" {
			t.Error("failed file must not produce an identity")
		}
	}
}

func TestLoad_SkipsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Alice.jpg", "alice-img")
	writeFile(t, dir, "Bob.jpg", "bob-img")

	emb := &fakeEmbedder{embeddings: map[string][]float32{
		"alice-img": {1, 0, 0},
		"bob-img":   {0, 1}, // wrong dimension
	}}

	r, err := Load(context.Background(), dir, emb, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if r.Len() != 1 {
		t.Fatalf("expected mismatched embedding to be skipped, got %d identities", r.Len())
	}
	if r.Identities()[0].Name != "Alice" {
		t.Errorf("expected Alice to survive, got %s", r.Identities()[0].Name)
	}
}

func TestLoad_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{}

	r, err := Load(context.Background(), dir, emb, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !r.Empty() {
		t.Error("expected empty roster")
	}
	if emb.calls != 0 {
		t.Errorf("embedder must not be called for an empty directory, got %d calls", emb.calls)
	}
}

func TestLoad_UnreadableDirectory(t *testing.T) {
	emb := &fakeEmbedder{}
	if _, err := Load(context.Background(), "/nonexistent/faces", emb, true); err == nil {
		t.Fatal("expected error for unreadable directory")
	}
}

func TestFromIdentities(t *testing.T) {
	r, err := FromIdentities([]Identity{
		{Name: "Alice", Embedding: []float32{1, 0}},
		{Name: "Bob", Embedding: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("FromIdentities failed: %v", err)
	}
	if r.Len() != 2 || r.Dim() != 2 {
		t.Errorf("unexpected roster: len=%d dim=%d", r.Len(), r.Dim())
	}
}

func TestFromIdentities_DimensionMismatch(t *testing.T) {
	_, err := FromIdentities([]Identity{
		{Name: "Alice", Embedding: []float32{1, 0}},
		{Name: "Bob", Embedding: []float32{0, 1, 0}},
	})
	if err == nil {
		t.Fatal("expected error for mismatched dimensions")
	}
}

func TestIdentityName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"Faces/Alice.jpg", "Alice"},
		{"Faces/jan_novak.jpeg", "jan_novak"},
		{"/abs/path/Bob.webp", "Bob"},
		{"NoExt", "NoExt"},
	}
	for _, tc := range tests {
		if got := IdentityName(tc.path); got != tc.want {
			t.Errorf("IdentityName(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jan Novák", "jan novak"},
		{"jan-novak", "jan novak"},
		{"jan_novak", "jan novak"},
		{"JIŘÍ", "jiri"},
		{"  Alice ", "alice"},
	}
	for _, tc := range tests {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
