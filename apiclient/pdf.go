package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

// ErrEmptyPDF is returned when a PDF endpoint answers 200 with no body.
var ErrEmptyPDF = errors.New("empty pdf body")

// PDFDocument is a downloaded PDF spooled to a temp file. Close releases the
// file; it is safe to call more than once.
type PDFDocument struct {
	path   string
	size   int64
	closed bool
}

// DownloadPDF fetches a PDF endpoint. A 401 clears the session cookie and
// returns ErrSessionExpired; an empty 200 body is ErrEmptyPDF. On any error
// no temp file is left behind.
func (c *Client) DownloadPDF(ctx context.Context, path string) (*PDFDocument, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.clearToken()
		return nil, ErrSessionExpired
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pdf request failed with status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "orderdesk-*.pdf")
	if err != nil {
		return nil, err
	}

	size, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil || size == 0 {
		os.Remove(tmp.Name())
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, closeErr
		}
		return nil, ErrEmptyPDF
	}

	return &PDFDocument{path: tmp.Name(), size: size}, nil
}

// Open returns a reader over the document. The caller closes the reader; the
// underlying file lives until Close.
func (d *PDFDocument) Open() (io.ReadCloser, error) {
	if d.closed {
		return nil, errors.New("pdf document already released")
	}
	return os.Open(d.path)
}

// Size reports the document length in bytes.
func (d *PDFDocument) Size() int64 {
	return d.size
}

// Close deletes the backing temp file. Idempotent.
func (d *PDFDocument) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	err := os.Remove(d.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
