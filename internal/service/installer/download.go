package installer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/cloudageitC/Git-Credential-Manager/internal/logger"
	"github.com/cloudageitC/Git-Credential-Manager/internal/version"
)

// Download fetches rawURL into memory.
// Transport failures wrap ErrNetwork, non-2xx responses are *HTTPStatusError.
func (i *Installer) Download(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, configError(fmt.Errorf("build request: %w", err))
	}

	req.Header.Set("User-Agent", version.UserAgent())

	logger.DebugKV(ctx, "Sending request", "url", rawURL)

	response, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrNetwork, rawURL, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, &HTTPStatusError{
			URL:        rawURL,
			StatusCode: response.StatusCode,
			Status:     response.Status,
		}
	}

	var buffer bytes.Buffer
	if size := response.ContentLength; size > 0 && size <= maxPrealloc {
		buffer.Grow(int(size))
	}

	var sink io.Writer = &buffer

	if i.progress != nil && response.ContentLength > 0 {
		bar := newProgressBar(i.progress, response.ContentLength, path.Base(req.URL.Path))

		defer func() {
			_ = bar.Finish()
		}()

		sink = io.MultiWriter(&buffer, bar)
	}

	if _, err = io.Copy(sink, response.Body); err != nil {
		return nil, fmt.Errorf("%w: read body of %s: %w", ErrNetwork, rawURL, err)
	}

	logger.DebugKV(ctx, "Downloaded", "url", rawURL, "bytes", buffer.Len())

	return buffer.Bytes(), nil
}

// newProgressBar draws a byte counter for one download on w.
func newProgressBar(w io.Writer, size int64, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("downloading "+name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}
