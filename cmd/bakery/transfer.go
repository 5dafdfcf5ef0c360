package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fekuna/bakery-ledger/internal/export"
	"github.com/fekuna/bakery-ledger/internal/snapshot"
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const (
	fileFlag   = "file"
	formatFlag = "format"
)

// stdioPath reads from stdin or writes to stdout instead of a file.
const stdioPath = "-"

func transferFlags(a *app) map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		fileFlag: &cobraflags.StringFlag{
			Name:  fileFlag,
			Value: a.cfg.Export.Path,
			Usage: "Document path, or - for standard input/output",
		},
		formatFlag: &cobraflags.StringFlag{
			Name:  formatFlag,
			Value: "",
			Usage: "Document format (json, yaml). Defaults to the file extension, then EXPORT_FORMAT",
		},
	}
}

func newExportCommand(a *app) *cobra.Command {
	flags := transferFlags(a)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every product and sale to a JSON or YAML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags[fileFlag].GetString()
			format, err := a.resolveFormat(path, flags[formatFlag].GetString())
			if err != nil {
				return err
			}

			var doc *export.Document
			write := func(w io.Writer) error {
				var err error
				doc, err = a.exporter.Export(cmd.Context(), w, format)
				return err
			}
			if path == stdioPath {
				return write(cmd.OutOrStdout())
			}
			if err := writeFileAtomic(path, write); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products and %d sales to %s\n",
				len(doc.Tables[snapshot.TableProducts]), len(doc.Tables[snapshot.TableSales]), path)
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	flags := transferFlags(a)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load an exported document into an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags[fileFlag].GetString()
			format, err := a.resolveFormat(path, flags[formatFlag].GetString())
			if err != nil {
				return err
			}

			r, closeFn, err := openInput(cmd, path)
			if err != nil {
				return err
			}
			defer closeFn()

			doc, err := a.exporter.Import(cmd.Context(), r, format)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported document %s: %d products, %d sales\n",
				doc.ID, len(doc.Tables[snapshot.TableProducts]), len(doc.Tables[snapshot.TableSales]))
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newInspectCommand(a *app) *cobra.Command {
	flags := transferFlags(a)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the first table of an exported document",
		Args:  cobra.NoArgs,
		// Reads only the document; the store is never opened.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags[fileFlag].GetString()
			format, err := a.resolveFormat(path, flags[formatFlag].GetString())
			if err != nil {
				return err
			}

			r, closeFn, err := openInput(cmd, path)
			if err != nil {
				return err
			}
			defer closeFn()

			return export.Inspect(r, format, cmd.OutOrStdout())
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

// resolveFormat prefers the explicit flag, then the file extension, then configuration.
func (a *app) resolveFormat(path, flag string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return export.FormatYAML, nil
	case ".json":
		return export.FormatJSON, nil
	}
	return export.ParseFormat(a.cfg.Export.Format)
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func() error, error) {
	if path == stdioPath {
		return cmd.InOrStdin(), func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, f.Close, nil
}

// writeFileAtomic writes into a temporary file next to path and renames it over path
// once write and Close have both succeeded. On failure path is left as it was.
func writeFileAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp.Name(), err)
	}
	return nil
}
