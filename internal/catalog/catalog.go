package catalog

import (
	"crafthost/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.papermc.io/v2"
	DefaultProject = "paper"
	ArtifactName   = "server.jar"
)

type ProjectResponse struct {
	Versions []string `json:"versions"`
}

type BuildsResponse struct {
	Builds []int `json:"builds"`
}

// ListResult separates "the index answered with no versions" from "the index
// could not be read". Versions is always empty when Err is set.
type ListResult struct {
	Versions []string
	Err      error
}

func (r ListResult) Available() bool {
	return r.Err == nil
}

type Client struct {
	BaseURL string
	Project string
	HTTP    *http.Client
	Logger  *zap.Logger
}

func NewClient(baseURL, project string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if project == "" {
		project = DefaultProject
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Project: project,
		HTTP:    &http.Client{Timeout: 5 * time.Minute},
		Logger:  logger,
	}
}

func (c *Client) ProjectName() string {
	return c.Project
}

func (c *Client) projectURL() string {
	return fmt.Sprintf("%s/projects/%s", c.BaseURL, url.PathEscape(c.Project))
}

// ListVersions never fails from the caller's point of view: any network or
// decode problem yields an empty list with Err populated.
func (c *Client) ListVersions() ListResult {
	var response ProjectResponse
	if err := c.getJSON(c.projectURL(), &response); err != nil {
		c.Logger.Warn("release index unavailable", zap.String("project", c.Project), zap.Error(err))
		return ListResult{Versions: []string{}, Err: domain.CatalogError("list versions", err)}
	}

	versions := response.Versions
	if versions == nil {
		versions = []string{}
	}
	return ListResult{Versions: versions}
}

func (c *Client) ResolveLatestBuild(version string) (int, error) {
	if version == "" {
		return 0, domain.CatalogError("resolve build", errors.New("empty version"))
	}

	buildsURL := fmt.Sprintf("%s/versions/%s", c.projectURL(), url.PathEscape(version))
	var response BuildsResponse
	if err := c.getJSON(buildsURL, &response); err != nil {
		return 0, domain.CatalogError(fmt.Sprintf("resolve build for %s", version), err)
	}

	if len(response.Builds) == 0 {
		return 0, domain.CatalogError(fmt.Sprintf("resolve build for %s", version), errors.New("no builds found"))
	}

	return response.Builds[len(response.Builds)-1], nil
}

// ArtifactURL is a pure function of {project, version, build}.
func (c *Client) ArtifactURL(version string, build int) string {
	return fmt.Sprintf("%s/versions/%s/builds/%d/downloads/%s-%s-%d.jar",
		c.projectURL(), url.PathEscape(version), build, c.Project, version, build)
}

// Download fetches the newest build of version into targetDir/server.jar,
// replacing whatever is there. The artifact is not verified.
func (c *Client) Download(targetDir string, version string, progressChan chan<- domain.ProgressEvent) (string, error) {
	domain.Send(progressChan, domain.ProgressEvent{Message: fmt.Sprintf("Resolving latest build for %s...", version)})

	build, err := c.ResolveLatestBuild(version)
	if err != nil {
		return "", err
	}

	return c.DownloadBuild(targetDir, version, build, progressChan)
}

// DownloadBuild fetches one specific build into targetDir/server.jar.
func (c *Client) DownloadBuild(targetDir string, version string, build int, progressChan chan<- domain.ProgressEvent) (string, error) {
	downloadURL := c.ArtifactURL(version, build)

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", domain.IOError("create server directory", err)
	}

	finalPath := filepath.Join(targetDir, ArtifactName)
	c.Logger.Info("downloading server artifact",
		zap.String("version", version),
		zap.Int("build", build),
		zap.String("url", downloadURL),
		zap.String("dest", finalPath))
	domain.Send(progressChan, domain.ProgressEvent{Message: fmt.Sprintf("Downloading %s %s build %d...", c.Project, version, build)})

	if err := c.downloadFile(downloadURL, finalPath, progressChan); err != nil {
		return "", err
	}

	domain.Send(progressChan, domain.ProgressEvent{Message: "Download completed.", Progress: 100})
	return finalPath, nil
}

func (c *Client) getJSON(target string, v interface{}) error {
	resp, err := c.HTTP.Get(target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API responded with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

func (c *Client) downloadFile(source string, dest string, progressChan chan<- domain.ProgressEvent) error {
	resp, err := c.HTTP.Get(source)
	if err != nil {
		return domain.DownloadError("fetch artifact", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.DownloadError("fetch artifact", fmt.Errorf("status %d", resp.StatusCode))
	}

	out, err := os.Create(dest)
	if err != nil {
		return domain.IOError("create artifact file", err)
	}
	defer out.Close()

	progressReader := &ProgressReader{
		Reader:       resp.Body,
		Total:        resp.ContentLength,
		ProgressChan: progressChan,
		Message:      "Downloading server.jar",
	}

	if _, err := io.Copy(out, progressReader); err != nil {
		return domain.DownloadError("transfer artifact", err)
	}
	if err := out.Close(); err != nil {
		return domain.IOError("close artifact file", err)
	}
	return nil
}
