package addon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/addonmgr/addonmgr/internal/install"
	"github.com/addonmgr/addonmgr/internal/store"
)

// Enable moves a disabled addon's artifact back into the bin folder.
// It returns ErrNothingToEnable unless the addon is installed and disabled.
func (c *Controller) Enable(a Addon) error {
	err := c.store.Update(func(d *store.Document) error {
		rec := d.Record(a.ID)
		if !rec.Installed() || !rec.Disabled {
			return ErrNothingToEnable
		}
		bin, err := d.BinDir()
		if err != nil {
			return err
		}

		src := filepath.Join(c.cfg.DisabledAddonDir(a.ID), rec.InstalledFile)
		dst := filepath.Join(bin, rec.InstalledFile)
		if err := relocate(src, dst); err != nil {
			return err
		}
		removeEmptyDir(c.cfg.DisabledAddonDir(a.ID))

		rec.Disabled = false
		d.SetRecord(a.ID, rec)
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Info("addon enabled", "addon", a.ID)
	return nil
}

// Disable moves an enabled addon's artifact out of the bin folder into its
// disabled location. It returns ErrNothingToDisable unless the addon is
// installed and enabled. Companions stay in place.
func (c *Controller) Disable(a Addon) error {
	err := c.store.Update(func(d *store.Document) error {
		rec := d.Record(a.ID)
		if !rec.Enabled() {
			return ErrNothingToDisable
		}
		bin, err := d.BinDir()
		if err != nil {
			return err
		}

		src := filepath.Join(bin, rec.InstalledFile)
		dst := filepath.Join(c.cfg.DisabledAddonDir(a.ID), rec.InstalledFile)
		if err := relocate(src, dst); err != nil {
			return err
		}

		rec.Disabled = true
		d.SetRecord(a.ID, rec)
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Info("addon disabled", "addon", a.ID)
	return nil
}

// Delete removes the addon's data folder, its artifact from wherever it
// resides and its companions, then clears its record. Missing files are not
// errors, and files another addon also claims are left in place. An addon that is not installed only gets the best-effort data
// folder removal and its record is left alone.
func (c *Controller) Delete(a Addon) error {
	doc, err := c.store.Load()
	if err != nil && !errors.Is(err, store.ErrConfigCorrupt) {
		return err
	}
	if doc == nil {
		doc = store.NewDocument()
	}
	rec := doc.Record(a.ID)
	if !rec.Installed() && len(rec.Companions) == 0 {
		return c.removeDataDir(doc, a)
	}

	err = c.store.Update(func(d *store.Document) error {
		rec := d.Record(a.ID)
		var errs []error

		if err := c.removeDataDir(d, a); err != nil {
			errs = append(errs, err)
		}
		// Files in the bin folder cannot be found without the host path;
		// clearing the record anyway would orphan them.
		bin, binErr := d.BinDir()
		if binErr != nil && (rec.Enabled() || len(rec.Companions) > 0) {
			return binErr
		}
		if binErr == nil {
			if rec.Enabled() && (a.HostLoader || !claimedElsewhere(d, a.ID, rec.InstalledFile)) {
				errs = append(errs, removeFile(filepath.Join(bin, rec.InstalledFile)))
			}
			for _, name := range rec.Companions {
				if !claimedElsewhere(d, a.ID, name) {
					errs = append(errs, removeFile(filepath.Join(bin, name)))
				}
			}
		}
		if rec.InstalledFile != "" {
			errs = append(errs, removeFile(filepath.Join(c.cfg.DisabledAddonDir(a.ID), rec.InstalledFile)))
		}
		removeEmptyDir(c.cfg.DisabledAddonDir(a.ID))

		if err := errors.Join(errs...); err != nil {
			return err
		}
		rec.Clear()
		d.SetRecord(a.ID, rec)
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Info("addon deleted", "addon", a.ID)
	return nil
}

func (c *Controller) removeDataDir(d *store.Document, a Addon) error {
	if a.DataDir == "" || d.Settings.HostPath == "" {
		return nil
	}
	dir := filepath.Join(d.Settings.HostPath, filepath.FromSlash(a.DataDir))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	return nil
}

// removeFile removes path, treating a missing file as success.
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// removeEmptyDir removes dir if it is empty. Errors are ignored.
func removeEmptyDir(dir string) {
	_ = os.Remove(dir)
}

// relocate moves src to dst. When src is already gone but dst exists the
// move is treated as done. The bin folder and the disabled location may be
// on different volumes, so a failed rename falls back to copy and remove.
func relocate(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if _, dstErr := os.Stat(dst); dstErr == nil {
				return nil
			}
			return fmt.Errorf("%w: %s", ErrArtifactMissing, src)
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := install.CopyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove %s after copy: %w", src, err)
	}
	return nil
}
