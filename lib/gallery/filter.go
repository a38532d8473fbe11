package gallery

import (
	"net/url"
	"strconv"
)

// category bits used by the f_cats query parameter, a set bit excludes the
// category from results.
var categoryBits = map[Category]int{
	CATEGORY_MISC:       1,
	CATEGORY_DOUJINSHI:  2,
	CATEGORY_MANGA:      4,
	CATEGORY_ARTIST_CG:  8,
	CATEGORY_GAME_CG:    16,
	CATEGORY_IMAGE_SET:  32,
	CATEGORY_COSPLAY:    64,
	CATEGORY_ASIAN_PORN: 128,
	CATEGORY_NON_H:      256,
	CATEGORY_WESTERN:    512,
}

// Filter narrows down search results.
type Filter struct {
	ExcludedCategories []Category `json:"excluded_categories"`

	Advanced              bool `json:"advanced"`
	SearchGalleryName     bool `json:"search_gallery_name"`
	SearchGalleryTags     bool `json:"search_gallery_tags"`
	SearchGalleryDesc     bool `json:"search_gallery_desc"`
	SearchTorrentFiles    bool `json:"search_torrent_files"`
	OnlyWithTorrents      bool `json:"only_with_torrents"`
	SearchLowPowerTags    bool `json:"search_low_power_tags"`
	SearchDownvotedTags   bool `json:"search_downvoted_tags"`
	ShowExpungedGalleries bool `json:"show_expunged_galleries"`

	MinimumRatingActivated bool `json:"minimum_rating_activated"`
	MinimumRating          int  `json:"minimum_rating"`
	PageRangeActivated     bool `json:"page_range_activated"`
	PageLowerBound         int  `json:"page_lower_bound"`
	PageUpperBound         int  `json:"page_upper_bound"`
}

func flag(v bool) string {
	if v {
		return "on"
	}
	return ""
}

// Encode adds the filter's query parameters to values.
func (f Filter) Encode(values url.Values) {
	cats := 0
	for _, c := range f.ExcludedCategories {
		cats |= categoryBits[c]
	}
	if cats > 0 {
		values.Set("f_cats", strconv.Itoa(cats))
	}
	if !f.Advanced {
		return
	}

	values.Set("advsearch", "1")
	set := func(key string, v bool) {
		if s := flag(v); s != "" {
			values.Set(key, s)
		}
	}
	set("f_sname", f.SearchGalleryName)
	set("f_stags", f.SearchGalleryTags)
	set("f_sdesc", f.SearchGalleryDesc)
	set("f_storr", f.SearchTorrentFiles)
	set("f_sto", f.OnlyWithTorrents)
	set("f_sdt1", f.SearchLowPowerTags)
	set("f_sdt2", f.SearchDownvotedTags)
	set("f_sh", f.ShowExpungedGalleries)

	if f.MinimumRatingActivated {
		values.Set("f_sr", "on")
		values.Set("f_srdd", strconv.Itoa(f.MinimumRating))
	}
	if f.PageRangeActivated {
		values.Set("f_sp", "on")
		if f.PageLowerBound > 0 {
			values.Set("f_spf", strconv.Itoa(f.PageLowerBound))
		}
		if f.PageUpperBound > 0 {
			values.Set("f_spt", strconv.Itoa(f.PageUpperBound))
		}
	}
}
