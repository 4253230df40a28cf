package loader

import (
	"context"
	"fmt"
	"log/slog"
)

// Settings carries the values needed by any Loader implementation.
type Settings struct {
	Kind        Kind
	ProjectPath string
	Region      string
	Bucket      string
}

// New creates the Loader selected by settings.Kind.
func New(ctx context.Context, settings Settings, logger *slog.Logger) (Loader, error) {
	switch settings.Kind {
	case KindFile:
		return NewFileLoader(settings.ProjectPath, logger), nil
	case KindS3:
		return NewS3LoaderFromRegion(ctx, settings.Region, settings.Bucket, logger)
	default:
		return nil, fmt.Errorf("unknown loader %q", settings.Kind)
	}
}
