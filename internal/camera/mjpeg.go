package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// MJPEG reads frames from a network camera serving an MJPEG multipart stream,
// the common wire format for IP webcams and motion daemons.
type MJPEG struct {
	resp   *http.Response
	reader *multipart.Reader
}

// OpenMJPEG connects to the camera stream URL and prepares to read frames.
func OpenMJPEG(ctx context.Context, url string) (*MJPEG, error) {
	if url == "" {
		return nil, errors.New("camera URL is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create camera request: %w", err)
	}

	client := &http.Client{Timeout: 0} // streaming, no overall timeout
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to camera: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("camera returned status %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		resp.Body.Close()
		return nil, fmt.Errorf("camera did not return a multipart stream (got %q)", resp.Header.Get("Content-Type"))
	}
	boundary := params["boundary"]
	if boundary == "" {
		resp.Body.Close()
		return nil, errors.New("camera stream has no multipart boundary")
	}

	return &MJPEG{
		resp:   resp,
		reader: multipart.NewReader(resp.Body, boundary),
	}, nil
}

// ReadFrame decodes the next JPEG part from the stream.
func (m *MJPEG) ReadFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	part, err := m.reader.NextPart()
	if err != nil {
		return nil, fmt.Errorf("reading camera stream part: %w", err)
	}
	defer part.Close()

	img, err := jpeg.Decode(part)
	if err != nil {
		return nil, fmt.Errorf("decoding camera frame: %w", err)
	}
	return img, nil
}

// Close terminates the stream connection.
func (m *MJPEG) Close() error {
	if m.resp != nil {
		return m.resp.Body.Close()
	}
	return nil
}

// MJPEGOpener returns an Opener for the given stream URL. The stream stays
// tied to ctx, so canceling the pipeline tears the connection down.
func MJPEGOpener(url string) Opener {
	return func(ctx context.Context) (Source, error) {
		return OpenMJPEG(ctx, url)
	}
}
