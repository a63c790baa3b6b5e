// Package catalog lists the addons addonmgr knows how to manage: the
// built-in addons plus any GitHub-hosted addons declared under [sources]
// in the configuration document.
package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/go-github/v57/github"

	"github.com/addonmgr/addonmgr/internal/addon"
	"github.com/addonmgr/addonmgr/internal/install"
	"github.com/addonmgr/addonmgr/internal/release"
	"github.com/addonmgr/addonmgr/internal/store"
)

// Built-in addon identifiers.
const (
	LoaderID = store.HostLoaderID
	ArcDPSID = "arcdps"
)

const (
	loaderRepo = "gw2-addon-loader/loader-core"

	arcdpsURL          = "https://www.deltaconnected.com/arcdps/x64/d3d9.dll"
	arcdpsHashURL      = "https://www.deltaconnected.com/arcdps/x64/d3d9.dll.md5sum"
	arcdpsTemplatesURL = "https://www.deltaconnected.com/arcdps/x64/buildtemplates/d3d9_arcdps_buildtemplates.dll"
)

// ErrUnknownAddon is returned for identifiers not in the catalog.
var ErrUnknownAddon = errors.New("unknown addon")

// Catalog is an ordered set of addon definitions. The host loader always
// comes first so addons are never installed without it.
type Catalog struct {
	addons []addon.Addon
	byID   map[string]int
	files  map[string]string // lowercased file name -> owning addon
}

// Build assembles the catalog. gh serves GitHub-hosted addons and
// httpClient serves checksum lookups; nil selects the defaults.
func Build(doc *store.Document, gh *github.Client, httpClient *http.Client) (*Catalog, error) {
	if gh == nil {
		var err error
		if gh, err = release.NewGitHubClient(nil, ""); err != nil {
			return nil, err
		}
	}

	loaderResolver, err := release.NewGitHubResolver(gh, loaderRepo, "")
	if err != nil {
		return nil, err
	}

	c := &Catalog{byID: make(map[string]int), files: make(map[string]string)}
	c.add(addon.Addon{
		ID:         LoaderID,
		Name:       "Addon Loader",
		Resolver:   loaderResolver,
		Strategy:   install.ArchiveReplace{},
		FileName:   store.HostLoaderFile,
		HostLoader: true,
	})
	c.add(addon.Addon{
		ID:       ArcDPSID,
		Name:     "ArcDPS",
		Resolver: release.NewFingerprintResolver(httpClient, arcdpsHashURL, arcdpsURL),
		Strategy: install.SingleFileStamp{},
		FileName: "d3d9_chainload.dll",
		DataDir:  "addons/arcdps",
		Companions: []addon.Companion{
			{FileName: "d3d9_arcdps_buildtemplates.dll", URL: arcdpsTemplatesURL},
		},
	})

	if doc == nil {
		return c, nil
	}

	ids := make([]string, 0, len(doc.Sources))
	for id := range doc.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		a, err := fromSource(id, doc.Sources[id], gh)
		if err != nil {
			return nil, err
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("source %q conflicts with a built-in addon", id)
		}
		if owner, taken := c.owner(a); taken {
			return nil, fmt.Errorf("source %q: file %s already belongs to %s", id, a.FileName, owner)
		}
		c.add(a)
	}
	return c, nil
}

func fromSource(id string, src store.Source, gh *github.Client) (addon.Addon, error) {
	if src.File == "" {
		return addon.Addon{}, fmt.Errorf("source %q: file is required", id)
	}
	resolver, err := release.NewGitHubResolver(gh, src.Repo, src.Asset)
	if err != nil {
		return addon.Addon{}, fmt.Errorf("source %q: %w", id, err)
	}
	strategy, err := install.ByName(src.Strategy)
	if err != nil {
		return addon.Addon{}, fmt.Errorf("source %q: %w", id, err)
	}
	return addon.Addon{
		ID:       id,
		Name:     id,
		Resolver: resolver,
		Strategy: strategy,
		FileName: src.File,
		DataDir:  src.DataDir,
	}, nil
}

func (c *Catalog) add(a addon.Addon) {
	c.byID[a.ID] = len(c.addons)
	c.addons = append(c.addons, a)
	c.files[strings.ToLower(a.FileName)] = a.ID
	for _, comp := range a.Companions {
		c.files[strings.ToLower(comp.FileName)] = a.ID
	}
}

// owner reports which addon already installs a's file. Every addon shares
// the bin folder, and the host filesystem is case-insensitive.
func (c *Catalog) owner(a addon.Addon) (string, bool) {
	id, ok := c.files[strings.ToLower(a.FileName)]
	return id, ok
}

// All returns every addon in update order.
func (c *Catalog) All() []addon.Addon {
	out := make([]addon.Addon, len(c.addons))
	copy(out, c.addons)
	return out
}

// Get returns the addon with the given identifier.
func (c *Catalog) Get(id string) (addon.Addon, error) {
	i, ok := c.byID[id]
	if !ok {
		return addon.Addon{}, fmt.Errorf("%w: %s", ErrUnknownAddon, id)
	}
	return c.addons[i], nil
}

// Select returns the named addons in catalog order, or all of them when
// ids is empty.
func (c *Catalog) Select(ids []string) ([]addon.Addon, error) {
	if len(ids) == 0 {
		return c.All(), nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := c.byID[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAddon, id)
		}
		want[id] = true
	}
	var out []addon.Addon
	for _, a := range c.addons {
		if want[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}
