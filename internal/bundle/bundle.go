// Package bundle refreshes the directory of server configurations from the
// provider's zip archive.
package bundle

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/briandowns/spinner"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zip"

	"github.com/PraveenPrabhuT/nvpn/internal/httpapi"
	"github.com/PraveenPrabhuT/nvpn/internal/logging"
)

// Updater downloads URL and unpacks it over Root.
type Updater struct {
	URL  string
	Root string
	// Progress receives a spinner while downloading. Nil disables it.
	Progress io.Writer

	http *resty.Client
	log  log.Interface
}

// New returns an Updater whose download is bounded by timeout.
func New(url, root string, timeout time.Duration, logger log.Interface) *Updater {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Updater{URL: url, Root: root, http: httpapi.NewClient(timeout, logger), log: logger}
}

// Update downloads the archive into a fresh temporary directory and extracts
// it into Root, overwriting existing files. It returns the number of files written.
// Nothing is extracted unless the download completed.
func (u *Updater) Update(ctx context.Context) (int, error) {
	tmp, err := os.MkdirTemp("", "nvpn-bundle-")
	if err != nil {
		return 0, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	archive := filepath.Join(tmp, "ovpn.zip")
	if err := u.download(ctx, archive); err != nil {
		return 0, err
	}

	n, err := Extract(archive, u.Root)
	if err != nil {
		return n, fmt.Errorf("extract %s: %w", u.URL, err)
	}
	u.log.WithField("files", n).Debugf("extracted bundle into %s", u.Root)
	return n, nil
}

func (u *Updater) download(ctx context.Context, dest string) error {
	if u.Progress != nil {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(u.Progress))
		s.Suffix = " Downloading " + u.URL
		s.Start()
		defer s.Stop()
	}
	u.log.WithField("url", u.URL).Debug("downloading bundle")

	resp, err := u.http.R().
		SetContext(ctx).
		SetHeader("Accept", "*/*").
		SetDoNotParseResponse(true).
		Get(u.URL)
	if err != nil {
		return &httpapi.Error{Op: "download", Kind: httpapi.KindNetwork, Err: err}
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return &httpapi.Error{Op: "download", Kind: httpapi.KindNetwork, Err: fmt.Errorf("unexpected status %s", resp.Status())}
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &httpapi.Error{Op: "download", Kind: httpapi.KindNetwork, Err: err}
	}
	u.log.WithField("bytes", n).Debug("bundle downloaded")
	return nil
}

// Extract unpacks archive into root, creating directories as needed and
// truncating files that already exist. Entries resolving outside root are rejected.
func Extract(archive, root string) (int, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return 0, err
	}
	defer zr.Close()

	if err := os.MkdirAll(root, 0755); err != nil {
		return 0, err
	}

	written := 0
	for _, f := range zr.File {
		target, err := entryPath(root, f.Name)
		if err != nil {
			return written, err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return written, err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return written, fmt.Errorf("%s: %w", f.Name, err)
		}
		written++
	}
	return written, nil
}

func entryPath(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, root)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
