package updater

import (
	"crafthost/internal/catalog"
	"crafthost/internal/domain"
	"fmt"
	"strconv"
	"strings"
)

// Catalog is the part of the release catalog the update check needs.
type Catalog interface {
	ListVersions() catalog.ListResult
	ResolveLatestBuild(version string) (int, error)
	ArtifactURL(version string, build int) string
}

type UpdateInfo struct {
	Version         string `json:"version"`
	CurrentBuild    int    `json:"current_build"`
	LatestBuild     int    `json:"latest_build"`
	UpdateAvailable bool   `json:"update_available"`
	DownloadURL     string `json:"download_url"`
	NewestVersion   string `json:"newest_version,omitempty"`
	NewerVersion    bool   `json:"newer_version"`
}

// CheckForUpdates compares the installed build with the catalog's latest
// build of the same version. The newest version in the catalog is reported
// separately; moving to it is never automatic. An unreachable version list
// only leaves NewestVersion empty.
func CheckForUpdates(c Catalog, installed *domain.Installation) (*UpdateInfo, error) {
	if installed == nil {
		return nil, fmt.Errorf("installation has not been provisioned")
	}

	latest, err := c.ResolveLatestBuild(installed.Version)
	if err != nil {
		return nil, err
	}

	info := &UpdateInfo{
		Version:         installed.Version,
		CurrentBuild:    installed.Build,
		LatestBuild:     latest,
		UpdateAvailable: latest > installed.Build,
		DownloadURL:     c.ArtifactURL(installed.Version, latest),
	}

	if result := c.ListVersions(); result.Available() {
		newest, ok := catalog.NewestStable(result.Versions)
		if !ok {
			return info, nil
		}
		info.NewestVersion = newest
		info.NewerVersion = compareVersions(newest, installed.Version) > 0
	}

	return info, nil
}

func compareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	for i := 0; i < len(parts1) && i < len(parts2); i++ {
		n1, _ := strconv.Atoi(parts1[i])
		n2, _ := strconv.Atoi(parts2[i])
		if n1 > n2 {
			return 1
		}
		if n1 < n2 {
			return -1
		}
	}

	if len(parts1) > len(parts2) {
		return 1
	}
	if len(parts1) < len(parts2) {
		return -1
	}

	return 0
}
