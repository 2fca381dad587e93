// Package formats reads and writes mesh files.
//
// Two encodings are supported: OMSH, a binary container that carries every
// channel of [mesh.Mesh], and Wavefront OBJ for interchange with DCC tools.
package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/occlubake/pkg/mesh"
)

// ErrUnknownExtension is returned when a path has no supported mesh extension.
var ErrUnknownExtension = errors.New("unknown mesh file extension")

// File extensions understood by LoadMesh and SaveMesh.
const (
	ExtOMSH = ".omsh"
	ExtOBJ  = ".obj"
)

// LoadMesh reads a mesh file, choosing the decoder by extension.
func LoadMesh(path string) (*mesh.Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtOMSH:
		return ParseMeshFile(path)
	case ExtOBJ:
		return ReadOBJFile(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExtension, path)
	}
}

// SaveMesh writes m to path, choosing the encoder by extension.
func SaveMesh(path string, m *mesh.Mesh) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ExtOMSH && ext != ExtOBJ {
		return fmt.Errorf("%w: %s", ErrUnknownExtension, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating mesh file: %w", err)
	}

	if ext == ExtOMSH {
		err = WriteMesh(f, m)
	} else {
		err = WriteOBJ(f, m)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// WriteMeshFile writes m as OMSH to path.
func WriteMeshFile(path string, m *mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating mesh file: %w", err)
	}
	if err := WriteMesh(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func meshName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
