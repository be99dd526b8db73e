package tiles

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

type (
	// Loader fetches and decodes the image of a single tile. Load is called
	// from a goroutine of its own and must honor ctx cancellation.
	Loader interface {
		Load(ctx context.Context, name string) (image.Image, error)
	}

	// FSLoader loads tiles from a file system, typically os.DirFS of the
	// directory containing the manifest.
	FSLoader struct {
		FS fs.FS
	}

	// HTTPLoader loads tiles whose names are absolute http(s) URLs. A nil
	// Client means http.DefaultClient.
	HTTPLoader struct {
		Client *http.Client
	}
)

func (l FSLoader) Load(ctx context.Context, name string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = path.Clean(strings.TrimPrefix(name, "./"))
	f, err := l.FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, path.Ext(name))
}

func (l HTTPLoader) Load(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return Decode(resp.Body, path.Ext(req.URL.Path))
}

// IsURL reports whether a tile source prefix points to a web server rather
// than to a file.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// LoaderFor returns the loader matching the tile source prefix src: an
// HTTPLoader for http(s) URLs, otherwise an FSLoader reading from fsys.
func LoaderFor(src string, fsys fs.FS) Loader {
	if IsURL(src) {
		return HTTPLoader{}
	}
	return FSLoader{FS: fsys}
}
