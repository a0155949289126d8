package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// HTTPFetcher retrieves the server binary over HTTP, reporting download
// progress against Content-Length (0 while the server does not send one).
type HTTPFetcher struct {
	URL    string
	Client *http.Client // nil means http.DefaultClient
}

func (f *HTTPFetcher) Fetch(ctx context.Context, onProgress ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", f.URL, resp.Status)
	}

	var total uint64
	if resp.ContentLength > 0 {
		total = uint64(resp.ContentLength)
	}
	return readAll(resp.Body, total, onProgress)
}

// FileFetcher reads the server binary from local disk, the way a bundled
// deployment ships it.
type FileFetcher struct {
	Path string
}

func (f *FileFetcher) Fetch(ctx context.Context, onProgress ProgressFunc) ([]byte, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readAll(file, uint64(info.Size()), onProgress)
}

func readAll(r io.Reader, total uint64, onProgress ProgressFunc) ([]byte, error) {
	if onProgress != nil {
		onProgress(0, total)
	}
	var data []byte
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
			if onProgress != nil {
				onProgress(uint64(len(data)), total)
			}
		}
		if err == io.EOF {
			return data, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
