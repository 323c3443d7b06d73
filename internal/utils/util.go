package utils

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

func PrettyTime(sec int) string {
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func ShuffleSlice[T any](a []T) {
	rand.Shuffle(len(a), func(i, j int) { a[i], a[j] = a[j], a[i] })
}

// Permutation returns a shuffled permutation of 0..n-1.
func Permutation(n int) []int {
	if n <= 0 {
		return nil
	}
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	ShuffleSlice(p)
	return p
}

var (
	reDashSuffix = regexp.MustCompile(`\s*-\s*.*$`)
	reParens     = regexp.MustCompile(`\s*\(.*?\)`)
	reBrackets   = regexp.MustCompile(`\s*\[.*?\]`)
	reVideoID    = regexp.MustCompile(`(?:v=|/)([a-zA-Z0-9_-]{11})`)
)

// CleanTitle strips artist and release decorations ("- Artist",
// "(Official Video)", "[4K]") for display. Stored titles stay raw.
func CleanTitle(title string) string {
	out := reDashSuffix.ReplaceAllString(title, "")
	out = reParens.ReplaceAllString(out, "")
	out = reBrackets.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// ExtractVideoID pulls the 11-char video identifier out of a watch URL.
func ExtractVideoID(url string) string {
	m := reVideoID.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func IsPlaylistURL(url string) bool {
	return strings.Contains(url, "list=")
}

func IsSpotifyURL(s string) bool {
	return strings.HasPrefix(s, "spotify:") || strings.Contains(s, "open.spotify.com")
}
