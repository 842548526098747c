package jvm

import (
	"crafthost/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultAPIURL = "https://api.adoptium.net"

// Platform is the set of filters sent to the runtime index.
type Platform struct {
	OS           string
	Architecture string
	ImageType    string
	Vendor       string
}

// HostPlatform maps GOOS/GOARCH to the values the runtime index understands.
func HostPlatform() (Platform, error) {
	p := Platform{ImageType: "jdk", Vendor: "eclipse"}

	switch runtime.GOOS {
	case "windows":
		p.OS = "windows"
	case "darwin":
		p.OS = "mac"
	case "linux":
		p.OS = "linux"
	default:
		return p, fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	switch runtime.GOARCH {
	case "amd64":
		p.Architecture = "x64"
	case "arm64":
		p.Architecture = "aarch64"
	default:
		return p, fmt.Errorf("unsupported architecture: %s", runtime.GOARCH)
	}

	return p, nil
}

type Asset struct {
	Binary struct {
		Package struct {
			Link string `json:"link"`
			Name string `json:"name"`
		} `json:"package"`
	} `json:"binary"`
	ReleaseName string `json:"release_name"`
}

type Manager struct {
	APIURL   string
	Platform Platform
	HTTP     *http.Client
	Logger   *zap.Logger
}

func NewManager(apiURL string, platform Platform, logger *zap.Logger) *Manager {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		APIURL:   strings.TrimRight(apiURL, "/"),
		Platform: platform,
		HTTP:     &http.Client{Timeout: 15 * time.Minute},
		Logger:   logger,
	}
}

// InstallDir is where a runtime of the given major lives inside targetDir.
func InstallDir(targetDir string, major int) string {
	return filepath.Join(targetDir, fmt.Sprintf("java%d", major))
}

func BinaryName() string {
	if runtime.GOOS == "windows" {
		return "java.exe"
	}
	return "java"
}

// Ensure returns an already extracted runtime when one of at least the
// requested major is present and falls back to Download otherwise.
func (m *Manager) Ensure(major int, targetDir string) (string, error) {
	if found, err := m.Find(major, targetDir); err == nil {
		if ok, _ := ValidateJavaVersion(found, major); ok {
			return found, nil
		}
		m.Logger.Warn("existing runtime failed validation", zap.String("path", found), zap.Int("major", major))
	}
	return m.Download(major, targetDir)
}

// Find locates the executable of a previously extracted runtime without
// touching the network.
func (m *Manager) Find(major int, targetDir string) (string, error) {
	installDir := InstallDir(targetDir, major)
	if fi, err := os.Stat(installDir); err != nil || !fi.IsDir() {
		return "", domain.RuntimeFetchError(fmt.Sprintf("find java %d", major), fmt.Errorf("%s is not installed", installDir))
	}

	found, err := findJavaBin(installDir, BinaryName())
	if err != nil {
		return "", err
	}
	return filepath.Abs(found)
}

// Download resolves the first matching candidate from the runtime index,
// extracts it into targetDir/java<major> (replacing any previous contents)
// and returns the path to the runtime executable.
func (m *Manager) Download(major int, targetDir string) (string, error) {
	op := fmt.Sprintf("download java %d", major)

	asset, err := m.latestAsset(major)
	if err != nil {
		return "", err
	}

	link := asset.Binary.Package.Link
	m.Logger.Info("downloading runtime",
		zap.Int("major", major),
		zap.String("release", asset.ReleaseName),
		zap.String("url", link))

	ext := archiveExt(asset.Binary.Package.Name, link)
	tmpFile, err := os.CreateTemp("", fmt.Sprintf("java%d-*%s", major, ext))
	if err != nil {
		return "", domain.IOError("create temp archive", err)
	}
	tmpPath := tmpFile.Name()
	defer func(p string) { _ = os.Remove(p) }(tmpPath)

	if err := m.fetch(link, tmpFile); err != nil {
		_ = tmpFile.Close()
		return "", domain.RuntimeFetchError(op, err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", domain.IOError("close temp archive", err)
	}

	installDir := InstallDir(targetDir, major)
	if err := os.RemoveAll(installDir); err != nil {
		return "", domain.IOError("remove previous runtime", err)
	}
	if err := os.MkdirAll(installDir, 0755); err != nil {
		return "", domain.IOError("create runtime directory", err)
	}

	m.Logger.Info("unpacking runtime", zap.String("archive", tmpPath), zap.String("dest", installDir))
	if ext == ".zip" {
		err = Unzip(tmpPath, installDir)
	} else {
		err = Untar(tmpPath, installDir)
	}
	if err != nil {
		return "", domain.IOError("extract runtime", err)
	}

	finalBin, err := findJavaBin(installDir, BinaryName())
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(finalBin)
	if err != nil {
		return "", domain.IOError("resolve runtime path", err)
	}

	if runtime.GOOS != "windows" {
		_ = os.Chmod(absPath, 0755)
	}

	return absPath, nil
}

func (m *Manager) assetsURL(major int) string {
	q := url.Values{}
	q.Set("architecture", m.Platform.Architecture)
	q.Set("heap_size", "normal")
	q.Set("image_type", m.Platform.ImageType)
	q.Set("jvm_impl", "hotspot")
	q.Set("os", m.Platform.OS)
	q.Set("vendor", m.Platform.Vendor)
	return fmt.Sprintf("%s/v3/assets/latest/%d/hotspot?%s", m.APIURL, major, q.Encode())
}

func (m *Manager) latestAsset(major int) (*Asset, error) {
	op := fmt.Sprintf("query runtime index for java %d", major)

	resp, err := m.HTTP.Get(m.assetsURL(major))
	if err != nil {
		return nil, domain.RuntimeFetchError(op, fmt.Errorf("network error: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.RuntimeFetchError(op, fmt.Errorf("runtime index responded with status %d", resp.StatusCode))
	}

	var assets []Asset
	if err := json.NewDecoder(resp.Body).Decode(&assets); err != nil {
		return nil, domain.RuntimeFetchError(op, fmt.Errorf("malformed response: %w", err))
	}

	if len(assets) == 0 || assets[0].Binary.Package.Link == "" {
		return nil, domain.RuntimeFetchError(op, errors.New("no matching runtime candidates"))
	}

	return &assets[0], nil
}

func (m *Manager) fetch(link string, dest io.Writer) error {
	resp, err := m.HTTP.Get(link)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("archive download responded with status %d", resp.StatusCode)
	}

	_, err = io.Copy(dest, resp.Body)
	return err
}

func archiveExt(name, link string) string {
	for _, candidate := range []string{name, link} {
		lower := strings.ToLower(candidate)
		switch {
		case strings.HasSuffix(lower, ".zip"):
			return ".zip"
		case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
			return ".tar.gz"
		}
	}
	if runtime.GOOS == "windows" {
		return ".zip"
	}
	return ".tar.gz"
}

// findJavaBin walks root depth-first and returns the first file called
// binName. Archive layouts differ between vendors and releases, so no fixed
// nesting is assumed.
func findJavaBin(root, binName string) (string, error) {
	var foundPath string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == binName {
			foundPath = path
			return fs.SkipAll
		}
		return nil
	})

	if walkErr != nil {
		return "", domain.IOError(fmt.Sprintf("walk %s", root), walkErr)
	}

	if foundPath == "" {
		return "", domain.RuntimeFetchError("locate runtime executable", fmt.Errorf("binary %s not found under %s", binName, root))
	}
	return foundPath, nil
}
