// Package media classifies training video and slide links and derives the
// embeddable URL for each supported provider.
package media

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

type Kind string

const (
	KindDriveFile   Kind = "drive_file"
	KindDriveFolder Kind = "drive_folder"
	KindYouTube     Kind = "youtube"
	KindVimeo       Kind = "vimeo"
	KindDirectVideo Kind = "direct"

	KindGoogleSlides Kind = "google_slides"
	KindDrivePPT     Kind = "google_drive_ppt"
	KindDirectPPT    Kind = "direct_ppt"
	KindUnknown      Kind = "unknown"
)

// Info describes a classified link. Embeddable means EmbedURL can be framed
// directly; a Drive folder has an EmbedURL but is not playable.
type Info struct {
	Kind        Kind   `json:"kind"`
	URL         string `json:"url"`
	Embeddable  bool   `json:"embeddable"`
	EmbedURL    string `json:"embed_url,omitempty"`
	ResourceID  string `json:"resource_id,omitempty"`
	OriginalURL string `json:"original_url"`
}

var (
	driveFileRe   = regexp.MustCompile(`drive\.google\.com/file/d/([^/?]+)`)
	driveFolderRe = regexp.MustCompile(`drive\.google\.com/drive/folders/([^/?]+)`)
	youtubeRe     = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)
	vimeoRe       = regexp.MustCompile(`vimeo\.com/(\d+)`)
	directVideoRe = regexp.MustCompile(`(?i)\.(mp4|webm|ogg|mov|avi|mkv)(\?.*)?$`)

	slidesRe    = regexp.MustCompile(`docs\.google\.com/presentation/d/([a-zA-Z0-9_-]+)`)
	docsOpenRe  = regexp.MustCompile(`docs\.google\.com/open\?id=([^&]+)`)
	directPPTRe = regexp.MustCompile(`(?i)\.(ppt|pptx)(\?.*)?$`)
)

func ClassifyVideo(raw string) Info {
	u := strings.TrimSpace(raw)
	info := Info{Kind: KindUnknown, URL: u, OriginalURL: raw}
	if u == "" {
		return info
	}

	if m := driveFileRe.FindStringSubmatch(u); m != nil {
		info.Kind = KindDriveFile
		info.Embeddable = true
		info.ResourceID = m[1]
		info.EmbedURL = "https://drive.google.com/file/d/" + m[1] + "/preview"
		return info
	}
	if m := driveFolderRe.FindStringSubmatch(u); m != nil {
		info.Kind = KindDriveFolder
		info.ResourceID = m[1]
		info.EmbedURL = "https://drive.google.com/embeddedfolderview?id=" + m[1] + "#grid"
		return info
	}
	if m := youtubeRe.FindStringSubmatch(u); m != nil {
		info.Kind = KindYouTube
		info.Embeddable = true
		info.ResourceID = m[1]
		info.EmbedURL = "https://www.youtube.com/embed/" + m[1]
		return info
	}
	if m := vimeoRe.FindStringSubmatch(u); m != nil {
		info.Kind = KindVimeo
		info.Embeddable = true
		info.ResourceID = m[1]
		info.EmbedURL = "https://player.vimeo.com/video/" + m[1]
		return info
	}
	if directVideoRe.MatchString(u) {
		info.Kind = KindDirectVideo
		info.Embeddable = true
		info.EmbedURL = u
		return info
	}
	return info
}

func ClassifyPresentation(raw string) Info {
	u := strings.TrimSpace(raw)
	info := Info{Kind: KindUnknown, URL: u, OriginalURL: raw}
	if u == "" {
		return info
	}

	if m := slidesRe.FindStringSubmatch(u); m != nil {
		info.Kind = KindGoogleSlides
		info.Embeddable = true
		info.ResourceID = m[1]
		info.EmbedURL = SlidesEmbedURL(m[1], EmbedOptions{})
		return info
	}
	// Drive links only count as slides when the link itself says so.
	if m := driveFileRe.FindStringSubmatch(u); m != nil && looksLikePPT(u) {
		info.Kind = KindDrivePPT
		info.Embeddable = true
		info.ResourceID = m[1]
		info.EmbedURL = "https://drive.google.com/file/d/" + m[1] + "/preview"
		return info
	}
	if directPPTRe.MatchString(u) {
		info.Kind = KindDirectPPT
		return info
	}
	return info
}

func looksLikePPT(u string) bool {
	return strings.Contains(u, ".ppt") || strings.Contains(u, "powerpoint")
}

// PresentationID extracts a Slides or Drive file ID from the supported link shapes.
func PresentationID(raw string) (string, bool) {
	for _, re := range []*regexp.Regexp{slidesRe, driveFileRe, docsOpenRe} {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}

type EmbedOptions struct {
	AutoStart bool
	Loop      bool
	// DelayMs defaults to 5000 when zero.
	DelayMs int
}

func SlidesEmbedURL(presentationID string, opts EmbedOptions) string {
	delay := opts.DelayMs
	if delay <= 0 {
		delay = 5000
	}
	q := url.Values{}
	q.Set("start", strconv.FormatBool(opts.AutoStart))
	q.Set("loop", strconv.FormatBool(opts.Loop))
	q.Set("delayms", strconv.Itoa(delay))
	return "https://docs.google.com/presentation/d/" + presentationID + "/embed?" + q.Encode()
}

// SlidesViewLink returns the read-only view URL, or raw unchanged when no ID is found.
func SlidesViewLink(raw string) string {
	if id, ok := PresentationID(raw); ok {
		return "https://docs.google.com/presentation/d/" + id + "/view"
	}
	return raw
}

// SlidesPresentLink returns the slideshow URL, or raw unchanged when no ID is found.
func SlidesPresentLink(raw string) string {
	if id, ok := PresentationID(raw); ok {
		return "https://docs.google.com/presentation/d/" + id + "/present"
	}
	return raw
}
