// Package archive writes a finished bundle to a tar archive, optionally
// passed through one compression operation.
package archive

import (
	"fmt"
	"io"
	"sort"
	"strings"

	cerrors "github.com/provide-io/condapp/pkg/errors"
)

// Operation identifiers. The bundle step is always TAR; a chain holds at
// most one compression after it.
const (
	OP_NONE  = 0x00
	OP_TAR   = 0x01
	OP_GZIP  = 0x10
	OP_BZIP2 = 0x13
	OP_XZ    = 0x16
)

// Compression is a streaming compression operation.
type Compression interface {
	// ID returns the operation identifier (e.g., OP_GZIP)
	ID() uint8

	// Name returns the file suffix used for the operation
	Name() string

	// NewWriter wraps w so that everything written is compressed
	NewWriter(w io.Writer) (io.WriteCloser, error)

	// NewReader wraps r so that everything read is decompressed
	NewReader(r io.Reader) (io.ReadCloser, error)
}

var registry = make(map[uint8]Compression)

// Register registers a compression implementation
func Register(c Compression) {
	registry[c.ID()] = c
}

// Get retrieves a compression by ID
func Get(id uint8) (Compression, error) {
	c, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: operation 0x%02x", cerrors.ErrUnsupportedArchive, id)
	}
	return c, nil
}

// namedChains maps accepted format names to operation chains.
var namedChains = map[string][]uint8{
	"tar":     {OP_TAR},
	"tar.gz":  {OP_TAR, OP_GZIP},
	"tgz":     {OP_TAR, OP_GZIP},
	"tar.bz2": {OP_TAR, OP_BZIP2},
	"tbz2":    {OP_TAR, OP_BZIP2},
	"tar.xz":  {OP_TAR, OP_XZ},
	"txz":     {OP_TAR, OP_XZ},
}

// Formats lists the accepted format names.
func Formats() []string {
	names := make([]string, 0, len(namedChains))
	for n := range namedChains {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseFormat turns a format name or a pipe separated chain such as
// "tar|xz" into operations.
func ParseFormat(format string) ([]uint8, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if ops, ok := namedChains[format]; ok {
		return ops, nil
	}

	if strings.Contains(format, "|") {
		var ops []uint8
		for _, part := range strings.Split(format, "|") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			op, ok := namedOperations[part]
			if !ok {
				return nil, fmt.Errorf("%w: %q", cerrors.ErrUnsupportedArchive, part)
			}
			ops = append(ops, op)
		}
		if err := validateChain(ops); err != nil {
			return nil, err
		}
		return ops, nil
	}

	return nil, fmt.Errorf("%w: %q (use one of %s)", cerrors.ErrUnsupportedArchive, format, strings.Join(Formats(), ", "))
}

var namedOperations = map[string]uint8{
	"tar":   OP_TAR,
	"gzip":  OP_GZIP,
	"gz":    OP_GZIP,
	"bzip2": OP_BZIP2,
	"bz2":   OP_BZIP2,
	"xz":    OP_XZ,
}

func validateChain(ops []uint8) error {
	if len(ops) == 0 || ops[0] != OP_TAR {
		return fmt.Errorf("%w: chain must start with tar", cerrors.ErrUnsupportedArchive)
	}
	if len(ops) > 2 {
		return fmt.Errorf("%w: at most one compression step", cerrors.ErrUnsupportedArchive)
	}
	if len(ops) == 2 {
		if _, err := Get(ops[1]); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file suffix for a chain, e.g. "tar.xz".
func Extension(ops []uint8) string {
	parts := []string{"tar"}
	for _, op := range ops[1:] {
		if c, err := Get(op); err == nil {
			parts = append(parts, c.Name())
		}
	}
	return strings.Join(parts, ".")
}
