package csv

import "io"

// CountingReader wraps an io.Reader to track bytes read and optionally stop
// once a size limit is passed.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Limit     int64 // 0 means unlimited
}

// NewCountingReader creates a counting reader with an optional byte limit.
func NewCountingReader(r io.Reader, limit int64) *CountingReader {
	return &CountingReader{
		reader: r,
		Limit:  limit,
	}
}

// Read implements io.Reader. Once more than Limit bytes have been read it
// reports io.EOF so the caller stops; check Exceeded afterwards.
func (r *CountingReader) Read(p []byte) (int, error) {
	if r.Exceeded() {
		return 0, io.EOF
	}
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Exceeded reports whether more than Limit bytes were read.
func (r *CountingReader) Exceeded() bool {
	return r.Limit > 0 && r.BytesRead > r.Limit
}
