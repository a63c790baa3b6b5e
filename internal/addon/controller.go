package addon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/addonmgr/addonmgr/internal/config"
	"github.com/addonmgr/addonmgr/internal/install"
	"github.com/addonmgr/addonmgr/internal/log"
	"github.com/addonmgr/addonmgr/internal/progress"
	"github.com/addonmgr/addonmgr/internal/release"
	"github.com/addonmgr/addonmgr/internal/store"
)

// Controller runs lifecycle operations against the configuration store.
// Operations run sequentially; one Controller must not be used from
// several goroutines at once.
type Controller struct {
	cfg     *config.Config
	store   *store.Store
	fetcher Fetcher
	logger  log.Logger
	report  progress.Reporter
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithReporter sets the receiver of progress events.
func WithReporter(r progress.Reporter) Option {
	return func(c *Controller) {
		c.report = r
	}
}

// NewController creates a Controller.
func NewController(cfg *config.Config, st *store.Store, fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg,
		store:   st,
		fetcher: fetcher,
		logger:  log.Default(),
		report:  progress.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.report = progress.Or(c.report)
	return c
}

// Run updates each addon in order. A failing addon never stops the others;
// only cancellation of ctx does, in which case the remaining addons are
// reported as failed with the context error.
func (c *Controller) Run(ctx context.Context, addons []Addon) []Outcome {
	outcomes := make([]Outcome, 0, len(addons))
	for _, a := range addons {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{
				Addon:  a.ID,
				Status: StatusFailed,
				Phase:  progress.PhaseResolving,
				Err:    &CycleError{Addon: a.ID, Phase: progress.PhaseResolving, Err: err},
			})
			continue
		}
		out, _ := c.CheckAndUpdate(ctx, a)
		outcomes = append(outcomes, *out)
	}
	return outcomes
}

// CheckAndUpdate resolves the latest release of a and installs it when its
// fingerprint differs from the recorded one, then installs any missing
// companions. The returned Outcome is never nil; the error is the Outcome's
// Err.
//
// A disabled addon is updated in its disabled location and stays disabled.
func (c *Controller) CheckAndUpdate(ctx context.Context, a Addon) (*Outcome, error) {
	out := c.update(ctx, a)

	installed, err := c.ensureCompanions(ctx, a)
	out.Companions = installed
	if err != nil {
		c.logger.Warn("companion install failed", "addon", a.ID, "error", err)
		if out.Err == nil {
			out.Status = StatusFailed
			out.Phase = progress.PhaseInstalling
			out.Err = &CycleError{Addon: a.ID, Phase: progress.PhaseInstalling, Err: err}
		}
	}

	switch {
	case out.Err != nil:
		c.report(progress.Event{Subject: a.ID, Phase: progress.PhaseFailed, Err: out.Err})
	case out.Status == StatusUpToDate:
		c.report(progress.Event{Subject: a.ID, Phase: progress.PhaseSkipped})
	default:
		c.report(progress.Event{Subject: a.ID, Phase: progress.PhaseCompleted, Percent: 100,
			Message: fmt.Sprintf("updated to %s", out.To)})
	}
	return out, out.Err
}

func (c *Controller) update(ctx context.Context, a Addon) *Outcome {
	fail := func(out *Outcome, phase progress.Phase, err error) *Outcome {
		out.Status = StatusFailed
		out.Phase = phase
		out.Err = &CycleError{Addon: a.ID, Phase: phase, Err: err}
		return out
	}

	doc := c.store.LoadOrDefault()
	rec := doc.Record(a.ID)
	out := &Outcome{Addon: a.ID, From: rec.InstalledVersion, To: rec.InstalledVersion}

	c.report(progress.Event{Subject: a.ID, Phase: progress.PhaseResolving})
	info, err := a.Resolver.Latest(ctx)
	if err != nil {
		c.logger.Warn("release resolution failed, keeping installed state", "addon", a.ID, "error", err)
		return fail(out, progress.PhaseResolving, err)
	}

	// A record whose file another addon also claims (legacy configs put
	// arcdps at the loader's name) is reinstalled without removing that file.
	// The host loader always keeps its file.
	previous := rec.InstalledFile
	shared := !a.HostLoader && rec.Enabled() && claimedElsewhere(doc, a.ID, rec.InstalledFile)
	if shared {
		c.logger.Warn("installed file is claimed by another addon, reinstalling",
			"addon", a.ID, "file", rec.InstalledFile)
		previous = ""
	}

	if !shared && upToDate(rec, info) {
		c.logger.Debug("addon up to date", "addon", a.ID, "version", info.Version)
		out.Status = StatusUpToDate
		return out
	}

	targetDir, err := c.targetDir(doc, a.ID, rec)
	if err != nil {
		return fail(out, progress.PhaseInstalling, err)
	}

	downloadDir := c.cfg.AddonDownloadDir(a.ID)
	defer os.RemoveAll(downloadDir)
	artifact := filepath.Join(downloadDir, artifactName(a, info))

	c.report(progress.Event{Subject: a.ID, Phase: progress.PhaseDownloading})
	c.logger.Info("downloading addon", "addon", a.ID, "version", info.Version, "url", log.SanitizeURL(info.DownloadURL))
	if err := c.fetcher.Fetch(ctx, a.ID, info.DownloadURL, artifact, c.intermediate); err != nil {
		return fail(out, progress.PhaseDownloading, err)
	}

	c.report(progress.Event{Subject: a.ID, Phase: progress.PhaseInstalling})
	res, err := a.Strategy.Install(ctx, install.Request{
		Artifact:     artifact,
		AssetName:    info.AssetName,
		TargetDir:    targetDir,
		FileName:     a.FileName,
		PreviousFile: previous,
	})
	if err != nil {
		return fail(out, progress.PhaseInstalling, err)
	}

	err = c.store.Update(func(d *store.Document) error {
		r := d.Record(a.ID)
		r.InstalledVersion = info.Version
		r.VersionKind = info.Kind
		r.InstalledFile = res.FileName
		d.SetRecord(a.ID, r)
		if a.HostLoader {
			d.Settings.LoaderVersion = info.Version
		}
		return nil
	})
	if err != nil {
		return fail(out, progress.PhaseInstalling, err)
	}

	c.logger.Info("addon updated", "addon", a.ID, "from", out.From, "to", info.Version)
	out.Status = StatusUpdated
	out.To = info.Version
	return out
}

// intermediate forwards download progress but drops the downloader's
// terminal event; the cycle is not over until the install is recorded.
func (c *Controller) intermediate(ev progress.Event) {
	if ev.Phase.Terminal() {
		return
	}
	c.report(ev)
}

// upToDate compares fingerprints exactly. Tags and hashes never match each
// other; records without a kind predate kind tracking and compare by value.
func upToDate(rec store.AddonRecord, info *release.ReleaseInfo) bool {
	if !rec.Installed() || rec.InstalledVersion == "" {
		return false
	}
	if rec.VersionKind != "" && rec.VersionKind != info.Kind {
		return false
	}
	return rec.InstalledVersion == info.Version
}

// claimedElsewhere reports whether an enabled addon other than id has file
// in the bin folder, as its artifact or as a companion.
func claimedElsewhere(doc *store.Document, id, file string) bool {
	if file == "" {
		return false
	}
	for other, rec := range doc.Addons {
		if other == id {
			continue
		}
		if rec.Enabled() && strings.EqualFold(rec.InstalledFile, file) {
			return true
		}
		if slices.ContainsFunc(rec.Companions, func(c string) bool { return strings.EqualFold(c, file) }) {
			return true
		}
	}
	return false
}

// targetDir returns where the addon's artifact currently belongs.
func (c *Controller) targetDir(doc *store.Document, id string, rec store.AddonRecord) (string, error) {
	if rec.Installed() && rec.Disabled {
		return c.cfg.DisabledAddonDir(id), nil
	}
	return doc.BinDir()
}

func artifactName(a Addon, info *release.ReleaseInfo) string {
	name := info.AssetName
	if name == "" {
		name = path.Base(info.DownloadURL)
	}
	name = filepath.Base(name)
	if name == "" || name == "." || name == "/" || name == string(filepath.Separator) {
		name = a.ID
	}
	return name
}

// ensureCompanions installs missing companions of an enabled addon and
// records them on its AddonRecord.
func (c *Controller) ensureCompanions(ctx context.Context, a Addon) ([]string, error) {
	if len(a.Companions) == 0 {
		return nil, nil
	}
	doc := c.store.LoadOrDefault()
	rec := doc.Record(a.ID)
	if !rec.Enabled() {
		return nil, nil
	}
	bin, err := doc.BinDir()
	if err != nil {
		return nil, err
	}

	var installed []string
	var errs []error
	present := make([]string, 0, len(a.Companions))
	for _, comp := range a.Companions {
		dest := filepath.Join(bin, comp.FileName)
		if _, err := os.Stat(dest); err == nil {
			present = append(present, comp.FileName)
			continue
		}
		c.logger.Info("installing companion", "addon", a.ID, "file", comp.FileName)
		if err := c.fetcher.Fetch(ctx, a.ID, comp.URL, dest, c.intermediate); err != nil {
			errs = append(errs, fmt.Errorf("companion %s: %w", comp.FileName, err))
			continue
		}
		installed = append(installed, comp.FileName)
		present = append(present, comp.FileName)
	}

	if !containsAll(rec.Companions, present) {
		err := c.store.Update(func(d *store.Document) error {
			r := d.Record(a.ID)
			for _, name := range present {
				if !slices.Contains(r.Companions, name) {
					r.Companions = append(r.Companions, name)
				}
			}
			d.SetRecord(a.ID, r)
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return installed, errors.Join(errs...)
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}
