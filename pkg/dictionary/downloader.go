package dictionary

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	repoOwner = "scriptin"
	repoName  = "jmdict-simplified"
)

// DefaultReleaseURL is the GitHub API endpoint of the latest jmdict-simplified release.
var DefaultReleaseURL = fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName)

// Downloader fetches the English common dictionary from the latest release.
type Downloader struct {
	Client     *http.Client
	ReleaseURL string
	Logger     *slog.Logger
}

// EnsureDictionary makes sure a dictionary exists at path, downloading it
// with default settings when missing.
func EnsureDictionary(ctx context.Context, path string) error {
	return (&Downloader{}).Ensure(ctx, path)
}

// Ensure checks if the dictionary exists at path. If not, it discovers the
// latest release, downloads it, and decompresses it.
func (d *Downloader) Ensure(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	logger := d.logger()
	logger.Info("dictionary not found, downloading", "path", path)

	assetURL, err := d.latestAssetURL(ctx)
	if err != nil {
		return fmt.Errorf("failed to find latest dictionary release: %w", err)
	}
	logger.Info("downloading dictionary", "url", assetURL)
	return d.downloadAndExtract(ctx, assetURL, path)
}

func (d *Downloader) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return &http.Client{Timeout: 5 * time.Minute}
}

func (d *Downloader) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d *Downloader) latestAssetURL(ctx context.Context) (string, error) {
	releaseURL := d.ReleaseURL
	if releaseURL == "" {
		releaseURL = DefaultReleaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseURL, nil)
	if err != nil {
		return "", err
	}
	// GitHub requires a User-Agent.
	req.Header.Set("User-Agent", "newsreader")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := d.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github api returned status: %s", resp.Status)
	}

	var release struct {
		Assets []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}

	// Pattern: jmdict-eng-common-*.json.tgz
	for _, asset := range release.Assets {
		if strings.Contains(asset.Name, "jmdict-eng-common") &&
			(strings.HasSuffix(asset.Name, ".json.tgz") || strings.HasSuffix(asset.Name, ".json.gz")) {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", errors.New("no suitable dictionary asset found in latest release")
}

// downloadAndExtract writes the first .json file of the .tgz at assetURL
// to destPath. The file only appears at destPath once fully written.
func (d *Downloader) downloadAndExtract(ctx context.Context, assetURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return err
	}
	resp, err := d.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	gzReader, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return errors.New("no json file found in downloaded archive")
		}
		if err != nil {
			return fmt.Errorf("error reading tar archive: %w", err)
		}
		if header.Typeflag == tar.TypeReg && strings.HasSuffix(header.Name, ".json") {
			return writeAtomic(destPath, tarReader)
		}
	}
}

func writeAtomic(destPath string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".jmdict-*.json")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), destPath)
}
