package archive

import (
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// newArchiveWriter returns a zip writer that deflates at maximum compression.
func newArchiveWriter(w io.Writer) *zip.Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	return zw
}

// trackingWriter remembers the first write error so a failed io.Copy can be
// attributed to the writer rather than the reader. A short write without an
// error counts as io.ErrShortWrite.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil && t.err == nil {
		t.err = err
	}
	return n, err
}

// copyEntry streams src into dst. The returned writeErr is non-nil when dst
// failed; readErr when src did.
func copyEntry(dst io.Writer, src io.Reader) (readErr, writeErr error) {
	tw := &trackingWriter{w: dst}
	if _, err := io.Copy(tw, src); err != nil {
		if tw.err != nil {
			return nil, tw.err
		}
		return err, nil
	}
	return nil, nil
}
