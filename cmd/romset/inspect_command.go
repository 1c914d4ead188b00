package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/beano38/retro-manager/internal/archive"
	"github.com/beano38/retro-manager/internal/config"
)

type inspectedEntry struct {
	Container   string `json:"container"`
	Member      string `json:"member"`
	Size        uint64 `json:"size"`
	Fingerprint string `json:"fingerprint"`
	Encrypted   bool   `json:"encrypted,omitempty"`
	Error       string `json:"error,omitempty"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path...>",
		Short: "List the members and fingerprints of ROM files and archives",
		Long: `Inspect files the way a run sees them. Plain files are one member; zip, 7z
and rar archives list every stored file. Directories are expanded one level.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			inspector := archive.NewInspector(
				archive.WithSevenZip(cfg.Tools.SevenZip),
				archive.WithUnrar(cfg.Tools.Unrar),
				archive.WithPassword(cfg.Archive.Password),
				archive.WithLogger(logger),
			)

			paths, err := expandInspectPaths(args)
			if err != nil {
				return err
			}
			var results []inspectedEntry
			for _, p := range paths {
				results = append(results, inspectPath(cmd, inspector, p)...)
			}

			if ctx.JSONMode() {
				if results == nil {
					results = []inspectedEntry{}
				}
				return writeJSON(cmd, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				if r.Error != "" {
					rows = append(rows, []string{filepath.Base(r.Container), "-", "-", "-", r.Error})
					continue
				}
				note := ""
				if r.Encrypted {
					note = "encrypted"
				}
				rows = append(rows, []string{filepath.Base(r.Container), r.Member, strconv.FormatUint(r.Size, 10), r.Fingerprint, note})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{
				{"File", alignLeft},
				{"Member", alignLeft},
				{"Size", alignRight},
				{"CRC32", alignLeft},
				{"Note", alignLeft},
			}, rows, nil))
			return nil
		},
	}
}

func expandInspectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		p, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("inspect path %q: %w", p, err)
		}
		if !info.IsDir() {
			paths = append(paths, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read directory %q: %w", p, err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				paths = append(paths, filepath.Join(p, e.Name()))
			}
		}
	}
	return paths, nil
}

func inspectPath(cmd *cobra.Command, inspector *archive.Inspector, p string) []inspectedEntry {
	h, err := inspector.Open(cmd.Context(), p)
	if err != nil {
		return []inspectedEntry{{Container: p, Error: err.Error()}}
	}
	defer h.Close()

	entries, err := h.Entries(cmd.Context())
	if err != nil {
		return []inspectedEntry{{Container: p, Error: err.Error()}}
	}
	out := make([]inspectedEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, inspectedEntry{
			Container:   p,
			Member:      e.Name,
			Size:        e.Size,
			Fingerprint: e.Fingerprint.String(),
			Encrypted:   e.Encrypted,
		})
	}
	return out
}
