package setting

import (
	"context"
	"log/slog"

	"ehclient/lib/flow"
	"ehclient/lib/gallery"

	"github.com/dustin/go-humanize"
)

type GeneralState struct {
	ClearingImageCache bool
	// ImageCacheSize is the formatted size of the image cache on disk, "" until
	// it has been measured.
	ImageCacheSize string
}

type GeneralAction interface {
	generalAction()
}

// TranslationsImported replaces the tag translator with one read from a file.
type TranslationsImported struct{ Translator gallery.TagTranslator }

type RemoveCustomTranslations struct{}
type ClearImageCache struct{}
type ClearImageCacheDone struct{}

type CalculateImageCacheSize struct{}
type ImageCacheSizeCalculated struct{ Size string }

func (TranslationsImported) generalAction()     {}
func (RemoveCustomTranslations) generalAction() {}
func (ClearImageCache) generalAction()          {}
func (ClearImageCacheDone) generalAction()      {}
func (CalculateImageCacheSize) generalAction()  {}
func (ImageCacheSizeCalculated) generalAction() {}

type GeneralEnv struct {
	Device Device
}

func reduceGeneral(state *GeneralState, action GeneralAction, env GeneralEnv) []flow.Effect[GeneralAction] {
	switch action := action.(type) {
	case ClearImageCache:
		state.ClearingImageCache = true
		return []flow.Effect[GeneralAction]{
			flow.Task("setting/general/clear-image-cache", func(ctx context.Context) GeneralAction {
				env.Device.ClearImageCache()
				return ClearImageCacheDone{}
			}),
		}

	case ClearImageCacheDone:
		state.ClearingImageCache = false
		return []flow.Effect[GeneralAction]{flow.Send[GeneralAction](CalculateImageCacheSize{})}

	case CalculateImageCacheSize:
		return []flow.Effect[GeneralAction]{
			flow.Task("setting/general/image-cache-size", func(ctx context.Context) GeneralAction {
				size, err := env.Device.ImageCacheSize()
				if err != nil {
					slog.WarnContext(ctx, "failed to measure image cache", "err", err)
				}
				return ImageCacheSizeCalculated{Size: humanize.Bytes(uint64(size))}
			}),
		}

	case ImageCacheSizeCalculated:
		state.ImageCacheSize = action.Size
		return nil
	}
	return nil
}
