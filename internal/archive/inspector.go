package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/beano38/retro-manager/internal/fingerprint"
	"github.com/beano38/retro-manager/internal/logging"
)

// Format identifies how a candidate path is read.
type Format string

const (
	FormatPlain    Format = "plain"
	FormatZip      Format = "zip"
	FormatSevenZip Format = "7z"
	FormatRar      Format = "rar"
)

// IsArchiveExt reports whether ext (with or without the leading dot, any
// case) is a container extension materialized files keep as-is.
func IsArchiveExt(ext string) bool {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "zip", "7z", "rar":
		return true
	}
	return false
}

// Entry is one stored file of a candidate: the plain file itself or one
// member of a container.
type Entry struct {
	Name        string
	Fingerprint fingerprint.Fingerprint
	Size        uint64
	Encrypted   bool
}

// BaseName is the entry name without any in-archive directory.
func (e Entry) BaseName() string {
	return path.Base(filepath.ToSlash(e.Name))
}

// Opener is the read side of the inspector.
type Opener interface {
	Open(ctx context.Context, path string) (*Handle, error)
}

// Option configures the inspector.
type Option func(*Inspector)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(i *Inspector) {
		if exec != nil {
			i.exec = exec
		}
	}
}

// WithSevenZip sets the 7-Zip executable. Empty disables the tool and .7z
// containers are read in-process.
func WithSevenZip(binary string) Option {
	return func(i *Inspector) { i.sevenZip = strings.TrimSpace(binary) }
}

// WithUnrar sets the unrar executable. Empty disables .rar support.
func WithUnrar(binary string) Option {
	return func(i *Inspector) { i.unrar = strings.TrimSpace(binary) }
}

// WithPassword sets the credential used when listing encrypted containers.
func WithPassword(password string) Option {
	return func(i *Inspector) { i.password = password }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) { i.logger = logger }
}

// Inspector opens candidate paths and lists their content fingerprints.
type Inspector struct {
	exec     Executor
	sevenZip string
	unrar    string
	password string
	logger   *slog.Logger
}

// NewInspector constructs an inspector. With no options only zip, in-process
// 7z and plain files are readable.
func NewInspector(opts ...Option) *Inspector {
	i := &Inspector{exec: commandExecutor{}}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.NewComponentLogger(i.logger, "archive")
	return i
}

// Open classifies path and reads its metadata. Containers are parsed eagerly
// so a damaged archive fails here rather than during extraction.
func (i *Inspector) Open(ctx context.Context, p string) (*Handle, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, &UnsupportedFormatError{Path: p, Reason: err.Error()}
	}
	if !info.Mode().IsRegular() {
		return nil, &UnsupportedFormatError{Path: p, Reason: "not a regular file"}
	}

	var b backend
	format := FormatPlain
	switch strings.ToLower(filepath.Ext(p)) {
	case ".zip":
		format = FormatZip
		b, err = openZip(p, i)
	case ".7z":
		format = FormatSevenZip
		if i.sevenZip != "" {
			b, err = openSevenZipTool(ctx, p, i)
		} else {
			b, err = openSevenZipNative(p, i.password)
		}
	case ".rar":
		format = FormatRar
		if i.unrar == "" {
			return nil, &UnsupportedFormatError{Path: p, Reason: "rar archives require tools.unrar"}
		}
		b, err = openRar(ctx, p, i)
	default:
		b = &plainBackend{path: p, size: uint64(info.Size())}
	}
	if err != nil {
		return nil, err
	}
	i.logger.Debug("opened candidate",
		logging.String(logging.FieldSource, p),
		logging.String("format", string(format)),
	)
	return &Handle{path: p, format: format, backend: b}, nil
}

// Handle is an opened candidate.
type Handle struct {
	path    string
	format  Format
	backend backend
	entries []Entry
	listed  bool
}

func (h *Handle) Path() string   { return h.path }
func (h *Handle) Format() Format { return h.format }

// Entries lists the stored files. Container fingerprints come from archive
// metadata; plain files are hashed by streaming their content.
func (h *Handle) Entries(ctx context.Context) ([]Entry, error) {
	if h.listed {
		return h.entries, nil
	}
	entries, err := h.backend.entries(ctx)
	if err != nil {
		return nil, err
	}
	h.entries = entries
	h.listed = true
	return entries, nil
}

// Extract writes member into destDir as destDir/<base name of member> and
// returns that path. password may be empty.
func (h *Handle) Extract(ctx context.Context, member, destDir, password string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create extraction dir: %w", err)
	}
	entries, err := h.Entries(ctx)
	if err != nil {
		return "", err
	}
	var found *Entry
	for idx := range entries {
		if entries[idx].Name == member {
			found = &entries[idx]
			break
		}
	}
	if found == nil {
		return "", &MemberNotFoundError{Path: h.path, Member: member}
	}
	return h.backend.extract(ctx, *found, destDir, password)
}

// Close releases resources held by the container reader.
func (h *Handle) Close() error {
	return h.backend.close()
}

type backend interface {
	entries(ctx context.Context) ([]Entry, error)
	extract(ctx context.Context, entry Entry, destDir, password string) (string, error)
	close() error
}

// extractionTarget is where a member lands inside destDir.
func extractionTarget(destDir string, entry Entry) string {
	return filepath.Join(destDir, entry.BaseName())
}
