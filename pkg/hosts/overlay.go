package hosts

import "github.com/matzehuels/pkgrepo/pkg/integrations"

// OverlayRepo merges explicit manifest fields over provider fields. Every
// non-empty field of override wins; empty fields fall back to base.
func OverlayRepo(base, override integrations.RepoInfo) integrations.RepoInfo {
	return integrations.RepoInfo{
		Name:        pick(override.Name, base.Name),
		Description: pick(override.Description, base.Description),
		Homepage:    pick(override.Homepage, base.Homepage),
		Author:      pick(override.Author, base.Author),
		Issues:      pick(override.Issues, base.Issues),
		Readme:      pick(override.Readme, base.Readme),
		Donate:      pick(override.Donate, base.Donate),
	}
}

// OverlayDownload merges explicit release fields over provider fields.
func OverlayDownload(base, override integrations.DownloadInfo) integrations.DownloadInfo {
	return integrations.DownloadInfo{
		Version: pick(override.Version, base.Version),
		URL:     pick(override.URL, base.URL),
		Date:    pick(override.Date, base.Date),

		Platforms:   pickList(override.Platforms, base.Platforms),
		HostVersion: pick(override.HostVersion, base.HostVersion),
	}
}

func pick(explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	return fallback
}

func pickList(explicit, fallback []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	return fallback
}
