package enrich

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonesrussell/partner-finder/internal/domain"
)

// followerPattern matches follower counts as rendered in profile page
// metadata, e.g. "12,345 followers" or "1.2K Followers".
var followerPattern = regexp.MustCompile(`(?i)([\d,.]+)\s*([km])?\s*followers`)

// EstimateFollowers fetches each social profile page and tries to read a
// follower count from its metadata. Best-effort: profiles that cannot be
// read keep a zero count.
func (s *Scraper) EstimateFollowers(ctx context.Context, accounts []domain.SocialPresence) {
	for i := range accounts {
		if accounts[i].Followers > 0 || accounts[i].URL == "" {
			continue
		}

		doc := s.fetch(ctx, normalizeURL(accounts[i].URL))
		if doc == nil {
			continue
		}

		desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
		if desc == "" {
			desc, _ = doc.Find(`meta[property="og:description"]`).Attr("content")
		}

		accounts[i].Followers = parseFollowerCount(desc)
	}
}

// parseFollowerCount extracts a follower count from description text.
// Returns 0 when no count is present.
func parseFollowerCount(text string) int {
	m := followerPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}

	raw := strings.ReplaceAll(m[1], ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}

	switch strings.ToLower(m[2]) {
	case "k":
		value *= 1000
	case "m":
		value *= 1000000
	}
	return int(value)
}
