package executor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Guest is a WebAssembly program importing the boundary functions.
type Guest interface {
	// Name identifies the guest in logs and journals.
	Name() string

	// Module returns the WebAssembly binary.
	Module() []byte
}

// digester is implemented by guests that know their module digest, sparing
// a hash of the binary on every run.
type digester interface {
	Digest() string
}

type binaryGuest struct {
	name   string
	wasm   []byte
	digest string
}

// Binary returns a guest for an in-memory module.
func Binary(name string, wasm []byte) Guest {
	return &binaryGuest{name: name, wasm: wasm, digest: digestOf(wasm)}
}

// LoadFile reads a guest module from path. The guest is named after the
// file without its extension.
func LoadFile(path string) (Guest, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read guest: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Binary(name, wasm), nil
}

func (g *binaryGuest) Name() string   { return g.name }
func (g *binaryGuest) Module() []byte { return g.wasm }
func (g *binaryGuest) Digest() string { return g.digest }

// Digest returns the hex SHA-256 of the guest's module.
func Digest(g Guest) string {
	if d, ok := g.(digester); ok {
		return d.Digest()
	}
	return digestOf(g.Module())
}

func digestOf(wasm []byte) string {
	sum := sha256.Sum256(wasm)
	return hex.EncodeToString(sum[:])
}
