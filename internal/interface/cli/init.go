package cli

import (
	_ "embed"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/x0georgiev/gushter/internal/app"
	infraConfig "github.com/x0georgiev/gushter/internal/infra/config"
)

//go:embed templates/backlog.yaml.tmpl
var backlogTmpl string

//go:embed templates/checks.yaml.tmpl
var checksTmpl string

func newInitCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the .gushter directory structure",
		RunE: func(c *cobra.Command, _ []string) error {
			if dir == "" {
				dir = "."
			}
			fsys := afero.NewOsFs()
			paths := app.ResolvePathsIn(filepath.Join(dir, ".gushter"))

			for _, d := range []string{paths.Etc, paths.Var} {
				if err := fsys.MkdirAll(d, 0755); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", d, err)
				}
			}

			files := []struct {
				path string
				data []byte
			}{
				{paths.Setting, infraConfig.CreateDefaultSettings()},
				{paths.Backlog, []byte(backlogTmpl)},
				{paths.Checks, []byte(checksTmpl)},
				{filepath.Join(paths.Var, ".keep"), []byte("")},
			}
			for _, f := range files {
				created, err := writeIfNotExists(fsys, f.path, f.data)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", f.path, err)
				}
				if created {
					fmt.Fprintf(c.OutOrStdout(), "created %s\n", f.path)
				}
			}

			fmt.Fprintf(c.OutOrStdout(), "initialized %s\n", paths.Home)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to initialize (default: current directory)")

	return cmd
}

// writeIfNotExists writes data to path unless the file already exists.
func writeIfNotExists(fsys afero.Fs, path string, data []byte) (bool, error) {
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return true, afero.WriteFile(fsys, path, data, 0644)
}
