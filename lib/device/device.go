// Package device stands in for the platform integrations of a mobile client:
// haptics, alternate icons, orientation and the image cache. Headless is the
// implementation used outside of one, it records what was asked of it.
package device

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

type Headless struct {
	// Pad reports a tablet form factor.
	Pad bool
	// ImageCacheDir is emptied by ClearImageCache, nothing happens when "".
	ImageCacheDir string

	lock              sync.Mutex
	alternateIcon     string
	haptics           []string
	orientationLocked bool
}

func (d *Headless) IsPad() bool {
	return d.Pad
}

func (d *Headless) GenerateHaptic(style string) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.haptics = append(d.haptics, style)
	slog.Debug("haptic feedback", "style", style)
}

func (d *Headless) SetAlternateIcon(name string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.alternateIcon = name
	return nil
}

func (d *Headless) AlternateIconName() string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.alternateIcon
}

func (d *Headless) SetPortraitOrientationMask() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.orientationLocked = true
}

func (d *Headless) OrientationLocked() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.orientationLocked
}

func (d *Headless) Haptics() []string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]string(nil), d.haptics...)
}

func (d *Headless) ClearImageCache() {
	if d.ImageCacheDir == "" {
		return
	}
	entries, err := os.ReadDir(d.ImageCacheDir)
	if err != nil {
		slog.Warn("failed to read image cache", "dir", d.ImageCacheDir, "err", err)
		return
	}
	for _, entry := range entries {
		err = os.RemoveAll(filepath.Join(d.ImageCacheDir, entry.Name()))
		if err != nil {
			slog.Warn("failed to clear image cache entry", "name", entry.Name(), "err", err)
		}
	}
}

// ImageCacheSize sums the size of every file in the image cache.
func (d *Headless) ImageCacheSize() (int64, error) {
	if d.ImageCacheDir == "" {
		return 0, nil
	}
	var size int64
	err := filepath.WalkDir(d.ImageCacheDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return size, err
}
