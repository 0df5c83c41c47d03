package utils

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
)

// readCloser ties a Reader to a Closer (composite).
type readCloser struct {
	io.Reader
	io.Closer
}

// MaybeGunzip returns a reader that yields the decompressed stream if src is
// gzip, else src as-is. Close closes src.
func MaybeGunzip(src io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(src)
	hdr, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(hdr) >= 2 && hdr[0] == 0x1f && hdr[1] == 0x8b {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return readCloser{Reader: gr, Closer: src}, nil
	}
	return readCloser{Reader: br, Closer: src}, nil
}

func GzipBytes(src []byte) ([]byte, error) {
	var b bytes.Buffer
	zw := gzip.NewWriter(&b)

	if _, err := zw.Write(src); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
