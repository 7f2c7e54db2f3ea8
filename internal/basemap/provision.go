package basemap

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoShapefile is returned when the downloaded archive holds no .shp file
var ErrNoShapefile = errors.New("archive contains no shapefile")

const userAgent = "geopulse-terminal/1.0"

// Provisioner downloads the coastline shapefile once and loads it into the
// store
type Provisioner struct {
	store      *Store
	sourceURL  string
	workDir    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewProvisioner creates a provisioner that unpacks downloads under workDir
func NewProvisioner(store *Store, sourceURL, workDir string, logger zerolog.Logger) *Provisioner {
	return &Provisioner{
		store:     store,
		sourceURL: sourceURL,
		workDir:   workDir,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger: logger,
	}
}

// Ensure provisions the basemap unless it is already present. It reports
// whether a download happened.
func (p *Provisioner) Ensure(ctx context.Context) (bool, error) {
	ok, err := p.store.Provisioned(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}

	p.logger.Info().Str("url", p.sourceURL).Msg("basemap not found, provisioning")

	if err := os.MkdirAll(p.workDir, 0755); err != nil {
		return false, fmt.Errorf("creating work directory: %w", err)
	}
	dir, err := os.MkdirTemp(p.workDir, "basemap-*")
	if err != nil {
		return false, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(dir)

	zipPath := filepath.Join(dir, "source.zip")
	if err := p.download(ctx, zipPath); err != nil {
		return false, fmt.Errorf("downloading shapefile: %w", err)
	}

	shpPath, err := unzipFile(zipPath, dir)
	if err != nil {
		return false, fmt.Errorf("extracting shapefile: %w", err)
	}

	lines, err := ReadLines(shpPath)
	if err != nil {
		return false, err
	}

	n, err := p.store.Replace(ctx, p.sourceURL, lines)
	if err != nil {
		return false, err
	}

	p.logger.Info().Int("lines", len(lines)).Int("segments", n).Msg("basemap provisioned")
	return true, nil
}

func (p *Provisioner) download(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.sourceURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// unzipFile extracts a zip file to dest and returns the path of the first
// .shp member
func unzipFile(src, dest string) (string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", err
	}
	defer r.Close()

	shpPath := ""
	for _, f := range r.File {
		fpath := filepath.Join(dest, f.Name)

		// ZipSlip
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return "", fmt.Errorf("illegal file path: %s", fpath)
		}

		if f.FileInfo().IsDir() {
			os.MkdirAll(fpath, 0755)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return "", err
		}
		if err := extract(f, fpath); err != nil {
			return "", err
		}

		if shpPath == "" && strings.EqualFold(filepath.Ext(fpath), ".shp") {
			shpPath = fpath
		}
	}

	if shpPath == "" {
		return "", ErrNoShapefile
	}
	return shpPath, nil
}

func extract(f *zip.File, path string) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(out, rc)
	return err
}
