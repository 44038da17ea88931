package archive

import (
	"compress/gzip"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

func init() {
	Register(gzipOp{})
	Register(bzip2Op{})
	Register(xzOp{})
}

type gzipOp struct{}

func (gzipOp) ID() uint8    { return OP_GZIP }
func (gzipOp) Name() string { return "gz" }

func (gzipOp) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.BestCompression)
}

func (gzipOp) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

type bzip2Op struct{}

func (bzip2Op) ID() uint8    { return OP_BZIP2 }
func (bzip2Op) Name() string { return "bz2" }

func (bzip2Op) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: 9})
}

func (bzip2Op) NewReader(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, nil)
}

type xzOp struct{}

func (xzOp) ID() uint8    { return OP_XZ }
func (xzOp) Name() string { return "xz" }

func (xzOp) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}

func (xzOp) NewReader(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}
