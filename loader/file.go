package loader

import (
	"context"
	"log/slog"
	"path/filepath"
)

// FileLoader resolves names under <ProjectPath>/data.
type FileLoader struct {
	projectPath string
	logger      *slog.Logger
}

var _ Loader = (*FileLoader)(nil)

// NewFileLoader creates a loader rooted at projectPath.
func NewFileLoader(projectPath string, logger *slog.Logger) *FileLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileLoader{
		projectPath: projectPath,
		logger:      logger.With("component", "file-loader"),
	}
}

// Load returns the resolved path. Existence is not checked here.
func (l *FileLoader) Load(ctx context.Context, fileName string) (RawData, error) {
	path := filepath.Join(l.projectPath, "data", fileName)
	l.logger.Debug("resolved source file", "name", fileName, "path", path)
	return RawData{Name: fileName, Path: path}, nil
}
