package gallery

import "strings"

// ArchiveResolution is the closed set of resolutions the hath archiver offers.
type ArchiveResolution string

const (
	RESOLUTION_780X     ArchiveResolution = "780x"
	RESOLUTION_980X     ArchiveResolution = "980x"
	RESOLUTION_1280X    ArchiveResolution = "1280x"
	RESOLUTION_1600X    ArchiveResolution = "1600x"
	RESOLUTION_2400X    ArchiveResolution = "2400x"
	RESOLUTION_ORIGINAL ArchiveResolution = "Original"
)

var Resolutions = []ArchiveResolution{
	RESOLUTION_780X,
	RESOLUTION_980X,
	RESOLUTION_1280X,
	RESOLUTION_1600X,
	RESOLUTION_2400X,
	RESOLUTION_ORIGINAL,
}

func ParseResolution(text string) (ArchiveResolution, bool) {
	text = strings.TrimSpace(text)
	for _, r := range Resolutions {
		if strings.EqualFold(string(r), text) {
			return r, true
		}
	}
	return "", false
}

// Parameter is the value of the hathdl_xres form field.
func (r ArchiveResolution) Parameter() string {
	if r == RESOLUTION_ORIGINAL {
		return "org"
	}
	return strings.TrimSuffix(string(r), "x")
}

const unavailable = "N/A"

type HathArchive struct {
	Resolution ArchiveResolution
	FileSize   string
	GPPrice    string
}

// IsValid is false when the archiver lists the resolution as "N/A", which
// means unavailable rather than free.
func (a HathArchive) IsValid() bool {
	return a.FileSize != unavailable && a.GPPrice != unavailable
}

type GalleryArchive struct {
	HathArchives []HathArchive
}

type DownloadCommandResponse int

const (
	DOWNLOAD_COMMAND_UNKNOWN DownloadCommandResponse = iota
	DOWNLOAD_COMMAND_SUCCESS
	DOWNLOAD_COMMAND_ALREADY_REQUESTED
	DOWNLOAD_COMMAND_INSUFFICIENT_FUNDS
)

func (r DownloadCommandResponse) String() string {
	switch r {
	case DOWNLOAD_COMMAND_SUCCESS:
		return "success"
	case DOWNLOAD_COMMAND_ALREADY_REQUESTED:
		return "already-requested"
	case DOWNLOAD_COMMAND_INSUFFICIENT_FUNDS:
		return "insufficient-funds"
	default:
		return "unknown"
	}
}
