// Package ooxml opens members of Office Open XML zip packages with a
// ceiling on their decompressed size.
package ooxml

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

// ErrPartTooLarge indicates a package member that decompresses past
// MaxPartSize.
var ErrPartTooLarge = fmt.Errorf("%w: package part too large", domain.ErrInvalidInput)

// MaxPartSize bounds the decompressed bytes read from a single member.
var MaxPartSize int64 = 64 << 20

// OpenPart opens f for reading. Reads fail with ErrPartTooLarge once more
// than MaxPartSize bytes have been decompressed, whatever the header claims.
func OpenPart(f *zip.File) (io.ReadCloser, error) {
	limit := MaxPartSize
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrPartTooLarge, f.Name, f.UncompressedSize64)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	return &partReader{
		r:     io.LimitReader(rc, limit+1),
		c:     rc,
		name:  f.Name,
		limit: limit,
	}, nil
}

type partReader struct {
	r     io.Reader
	c     io.Closer
	name  string
	limit int64
	read  int64
}

func (p *partReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.read > p.limit {
		return 0, fmt.Errorf("%w: %s exceeds %d bytes", ErrPartTooLarge, p.name, p.limit)
	}
	return n, err
}

func (p *partReader) Close() error {
	return p.c.Close()
}
