// Package icns converts raster images into Apple icon files.
//
// Each size is stored as an embedded PNG, which every macOS release since
// 10.7 reads directly.
package icns

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	"image/png"
	"io"

	_ "golang.org/x/image/bmp" // decoder registration
	"golang.org/x/image/draw"
)

// Element is one icon representation inside an icns container.
type Element struct {
	Type string // four character OSType
	Size int    // edge length in pixels
}

// Elements lists the representations Encode writes, smallest first.
var Elements = []Element{
	{"icp4", 16},
	{"icp5", 32},
	{"icp6", 64},
	{"ic07", 128},
	{"ic08", 256},
	{"ic09", 512},
	{"ic10", 1024},
}

const headerSize = 8

// Decode reads any registered raster format (png, jpeg, gif, bmp).
func Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

// Encode writes src as an icns file, scaling it to every size in Elements.
// Non-square sources are centred on a transparent square canvas.
func Encode(w io.Writer, src image.Image) error {
	square := squared(src)

	var body bytes.Buffer
	for _, el := range Elements {
		var buf bytes.Buffer
		if err := png.Encode(&buf, scale(square, el.Size)); err != nil {
			return fmt.Errorf("encode %s: %w", el.Type, err)
		}
		writeChunk(&body, el.Type, buf.Bytes())
	}

	header := make([]byte, headerSize)
	copy(header, "icns")
	binary.BigEndian.PutUint32(header[4:], uint32(headerSize+body.Len()))

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := body.WriteTo(w)
	return err
}

func writeChunk(buf *bytes.Buffer, osType string, data []byte) {
	var hdr [headerSize]byte
	copy(hdr[:4], osType)
	binary.BigEndian.PutUint32(hdr[4:], uint32(headerSize+len(data)))
	buf.Write(hdr[:])
	buf.Write(data)
}

func squared(src image.Image) image.Image {
	b := src.Bounds()
	if b.Dx() == b.Dy() {
		return src
	}
	edge := max(b.Dx(), b.Dy())
	dst := image.NewNRGBA(image.Rect(0, 0, edge, edge))
	offset := image.Pt((edge-b.Dx())/2, (edge-b.Dy())/2)
	draw.Draw(dst, b.Sub(b.Min).Add(offset), src, b.Min, draw.Src)
	return dst
}

func scale(src image.Image, size int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// Chunks parses an icns file and returns its element types in order.
func Chunks(data []byte) ([]string, error) {
	if len(data) < headerSize || string(data[:4]) != "icns" {
		return nil, fmt.Errorf("not an icns file")
	}
	total := int(binary.BigEndian.Uint32(data[4:8]))
	if total != len(data) {
		return nil, fmt.Errorf("icns length %d does not match data length %d", total, len(data))
	}

	var types []string
	for off := headerSize; off < total; {
		if off+headerSize > total {
			return nil, fmt.Errorf("truncated chunk at offset %d", off)
		}
		n := int(binary.BigEndian.Uint32(data[off+4 : off+8]))
		if n < headerSize || off+n > total {
			return nil, fmt.Errorf("bad chunk length %d at offset %d", n, off)
		}
		types = append(types, string(data[off:off+4]))
		off += n
	}
	return types, nil
}
