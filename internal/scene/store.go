package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/occlubake/internal/config"
	"github.com/Faultbox/occlubake/internal/logger"
	"github.com/Faultbox/occlubake/pkg/encoding"
	"github.com/Faultbox/occlubake/pkg/formats"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

// ErrNotPrepared is returned by Save before Prepare succeeded.
var ErrNotPrepared = errors.New("store has no run folder")

// runStamp is the layout of the run folder suffix.
const runStamp = "20060102_150405"

// maxUnique bounds the numbered suffix search in uniquePath.
const maxUnique = 10000

// FileStore writes reduced meshes into a timestamped folder per run.
type FileStore struct {
	Dir    string // parent of the run folder
	Prefix string // run folder is <Prefix>_YYYYMMDD_HHMMSS
	Format string // config.FormatOMSH or config.FormatOBJ
	Now    func() time.Time

	folder string
}

// NewFileStore creates a store from output settings. An empty Dir falls
// back to fallbackDir.
func NewFileStore(cfg config.OutputConfig, fallbackDir string) *FileStore {
	dir := cfg.Dir
	if dir == "" {
		dir = fallbackDir
	}
	return &FileStore{Dir: dir, Prefix: cfg.FolderPrefix, Format: cfg.Format}
}

// Prepare creates the run folder and returns its path.
func (s *FileStore) Prepare() (string, error) {
	if s.Dir == "" {
		return "", errors.New("output directory not set")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	prefix := s.Prefix
	if prefix == "" {
		prefix = "OptimizedMeshes"
	}

	folder := filepath.Join(s.Dir, prefix+"_"+now().Format(runStamp))
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", fmt.Errorf("creating run folder: %w", err)
	}
	s.folder = folder
	logger.Info("output folder ready", zap.String("path", folder))
	return folder, nil
}

// Folder returns the run folder created by Prepare.
func (s *FileStore) Folder() string {
	return s.folder
}

// Save writes m as <name>_Optimized with the configured extension and
// returns the written path.
func (s *FileStore) Save(name string, m *mesh.Mesh) (string, error) {
	if s.folder == "" {
		return "", ErrNotPrepared
	}

	ext := formats.ExtOMSH
	if s.Format == config.FormatOBJ {
		ext = formats.ExtOBJ
	}

	path, err := uniquePath(filepath.Join(s.folder, encoding.FileName(name, "mesh")+"_Optimized"), ext)
	if err != nil {
		return "", err
	}

	named := *m
	named.Name = name + "_Optimized"
	if err := formats.SaveMesh(path, &named); err != nil {
		return "", err
	}

	logger.Debug("mesh saved", zap.String("target", name), zap.String("path", path))
	return path, nil
}

// uniquePath returns base+ext, or base+" N"+ext for the first N that does
// not exist yet.
func uniquePath(base, ext string) (string, error) {
	path := base + ext
	for n := 1; n <= maxUnique; n++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		} else if err != nil {
			return "", err
		}
		path = fmt.Sprintf("%s %d%s", base, n, ext)
	}
	return "", fmt.Errorf("no free name for %s%s", base, ext)
}
