package artifact

import (
	"path/filepath"

	"chatdock/internal/constants"
	"chatdock/internal/errors"
	"chatdock/internal/logger"

	"github.com/spf13/afero"
)

// Paths are the locations of the generated artifacts
type Paths struct {
	Dir        string
	Config     string
	Dockerfile string
}

// Writer materializes the launch artifacts on a filesystem
type Writer struct {
	fs       afero.Fs
	template BuildTemplate
}

// NewWriter creates a writer. A nil fs means the OS filesystem.
func NewWriter(fs afero.Fs, tmpl BuildTemplate) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Writer{fs: fs, template: tmpl}
}

// Write renders doc and the Dockerfile into dir. Any failure aborts the
// launch; nothing is retried.
func (w *Writer) Write(dir string, doc Document) (*Paths, error) {
	paths := &Paths{
		Dir:        dir,
		Config:     filepath.Join(dir, constants.ConfigFileName),
		Dockerfile: filepath.Join(dir, constants.BuildFileName),
	}

	if err := w.fs.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.ArtifactWriteFailed(dir, err)
	}

	// config.py carries the API key
	if err := afero.WriteFile(w.fs, paths.Config, []byte(RenderConfig(doc)+"\n"), constants.SecureFilePermissions); err != nil {
		return nil, errors.ArtifactWriteFailed(paths.Config, err)
	}

	dockerfile, err := RenderBuildDescriptor(w.template)
	if err != nil {
		return nil, errors.ArtifactWriteFailed(paths.Dockerfile, err)
	}
	if err := afero.WriteFile(w.fs, paths.Dockerfile, []byte(dockerfile), constants.FilePermissions); err != nil {
		return nil, errors.ArtifactWriteFailed(paths.Dockerfile, err)
	}

	logger.WithFields(logger.Fields{
		"config":     paths.Config,
		"dockerfile": paths.Dockerfile,
	}).Info("Launch artifacts written")

	return paths, nil
}
