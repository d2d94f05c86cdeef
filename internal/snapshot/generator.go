package snapshot

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Artifact is a stored summary image with its content digest.
type Artifact struct {
	Data []byte
	// Digest is the hex BLAKE3-256 of Data, suitable as a strong ETag.
	Digest string
}

// ETag returns Digest as a quoted entity tag.
func (a *Artifact) ETag() string { return `"` + a.Digest + `"` }

// Generator renders summaries into a Store.
type Generator struct {
	Store Store
}

// NewGenerator returns a Generator writing to store.
func NewGenerator(store Store) *Generator {
	return &Generator{Store: store}
}

// Generate renders s and replaces the stored image.
func (g *Generator) Generate(ctx context.Context, s Summary) error {
	data, err := Render(s)
	if err != nil {
		return err
	}
	if err := g.Store.Put(ctx, data); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	return nil
}

// Latest returns the most recently stored image, or ErrNotFound.
func (g *Generator) Latest(ctx context.Context) (*Artifact, error) {
	data, err := g.Store.Get(ctx)
	if err != nil {
		return nil, err
	}
	sum := blake3.Sum256(data)
	return &Artifact{Data: data, Digest: hex.EncodeToString(sum[:])}, nil
}
