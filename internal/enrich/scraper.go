// Package enrich fills in organization profiles from their websites.
// Everything here is best-effort: failures leave fields unset and are never
// surfaced to callers.
package enrich

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/partner-finder/internal/domain"
	"github.com/jonesrussell/partner-finder/internal/httputil"
	"github.com/jonesrussell/partner-finder/internal/logger"
)

const (
	minMissionLength = 50
	maxMissionLength = 2000
	maxPrograms      = 10
	maxLeaders       = 20
)

var (
	emailPattern = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)
	phonePattern = regexp.MustCompile(`\(?\d{3}\)?[-\s]?\d{3}[-\s]?\d{4}`)

	socialPatterns = map[string]*regexp.Regexp{
		"facebook":  regexp.MustCompile(`(?i)facebook\.com/[\w.\-]+`),
		"twitter":   regexp.MustCompile(`(?i)twitter\.com/[\w.\-]+`),
		"linkedin":  regexp.MustCompile(`(?i)linkedin\.com/[\w.\-/]+`),
		"instagram": regexp.MustCompile(`(?i)instagram\.com/[\w.\-]+`),
		"youtube":   regexp.MustCompile(`(?i)youtube\.com/[\w.\-]+`),
	}
)

// Scraper extracts profile data from nonprofit websites.
type Scraper struct {
	http      *http.Client
	userAgent string
	log       logger.Logger
}

// NewScraper creates a website scraper.
func NewScraper(httpClient *http.Client, userAgent string, log logger.Logger) *Scraper {
	if httpClient == nil {
		httpClient = httputil.NewClient(0)
	}
	return &Scraper{http: httpClient, userAgent: userAgent, log: log}
}

// Enrich scrapes the organization's website and fills any missing profile
// fields in place. Scraped data never overwrites registry data.
func (s *Scraper) Enrich(ctx context.Context, org *domain.OrganizationDetail) {
	if org.Website == "" {
		return
	}

	doc := s.fetch(ctx, normalizeURL(org.Website))
	if doc == nil {
		return
	}

	if org.MissionStatement == "" {
		org.MissionStatement = extractMission(doc)
	}

	if programs := extractPrograms(doc); len(programs) > 0 {
		org.Programs = mergeStrings(org.Programs, programs)
	}

	if len(org.Leadership) == 0 {
		org.Leadership = extractLeadership(doc)
	}

	if org.ContactEmail == "" || org.ContactPhone == "" {
		email, phone := extractContact(doc)
		if org.ContactEmail == "" {
			org.ContactEmail = email
		}
		if org.ContactPhone == "" {
			org.ContactPhone = phone
		}
	}

	if len(org.SocialMedia) == 0 {
		org.SocialMedia = extractSocialLinks(doc)
	}

	// Follower counts feed the volunteer ROI estimate.
	s.EstimateFollowers(ctx, org.SocialMedia)
}

func (s *Scraper) fetch(ctx context.Context, url string) *goquery.Document {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Debug("website fetch failed", logger.String("url", url), logger.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		s.log.Debug("website parse failed", logger.String("url", url), logger.Error(err))
		return nil
	}
	return doc
}

func normalizeURL(url string) string {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return strings.TrimRight(url, "/")
}

// extractMission looks for mission-like sections, falling back to the meta
// description.
func extractMission(doc *goquery.Document) string {
	var mission string

	doc.Find(`div, section, p`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		haystack := strings.ToLower(class + " " + id)
		if !strings.Contains(haystack, "mission") && !strings.Contains(haystack, "about") {
			return true
		}

		text := strings.TrimSpace(sel.Text())
		if len(text) > minMissionLength && len(text) < maxMissionLength {
			mission = text
			return false
		}
		return true
	})

	if mission == "" {
		mission, _ = doc.Find(`meta[name="description"]`).Attr("content")
	}
	return strings.TrimSpace(mission)
}

// extractPrograms collects program names from program/service sections and
// navigation links.
func extractPrograms(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var programs []string

	add := func(text string) {
		text = strings.TrimSpace(text)
		if len(text) <= 10 || len(text) >= 100 {
			return
		}
		if _, dup := seen[text]; dup || len(programs) >= maxPrograms {
			return
		}
		seen[text] = struct{}{}
		programs = append(programs, text)
	}

	doc.Find("div, section").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		lower := strings.ToLower(class)
		if !strings.Contains(lower, "program") && !strings.Contains(lower, "service") {
			return
		}
		sel.Find("h3, h4, li").Each(func(_ int, item *goquery.Selection) {
			add(item.Text())
		})
	})

	doc.Find("nav a").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		lower := strings.ToLower(href)
		if strings.Contains(lower, "program") || strings.Contains(lower, "service") {
			add(link.Text())
		}
	})

	return programs
}

// extractLeadership collects names and titles from leadership sections.
func extractLeadership(doc *goquery.Document) []domain.Leader {
	var leaders []domain.Leader

	doc.Find("div, section").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		lower := strings.ToLower(class)
		if !containsAny(lower, "leader", "board", "staff", "team") {
			return
		}

		sel.Find("div, li").Each(func(_ int, person *goquery.Selection) {
			if len(leaders) >= maxLeaders {
				return
			}
			personClass, _ := person.Attr("class")
			if !containsAny(strings.ToLower(personClass), "person", "member", "staff") {
				return
			}

			name := strings.TrimSpace(person.Find("h3, h4, strong, b").First().Text())
			if name == "" {
				return
			}

			title := ""
			person.Find("p, span").EachWithBreak(func(_ int, el *goquery.Selection) bool {
				elClass, _ := el.Attr("class")
				if containsAny(strings.ToLower(elClass), "title", "position", "role") {
					title = strings.TrimSpace(el.Text())
					return false
				}
				return true
			})

			leaders = append(leaders, domain.Leader{Name: name, Title: title})
		})
	})

	return leaders
}

// extractContact pulls the first plausible email and phone from the page.
func extractContact(doc *goquery.Document) (email, phone string) {
	html, err := doc.Html()
	if err != nil {
		return "", ""
	}

	for _, match := range emailPattern.FindAllString(html, -1) {
		lower := strings.ToLower(match)
		if !containsAny(lower, "example", "domain", "email") {
			email = match
			break
		}
	}

	phone = phonePattern.FindString(html)
	return email, phone
}

// extractSocialLinks finds social profile links anywhere on the page.
func extractSocialLinks(doc *goquery.Document) []domain.SocialPresence {
	found := make(map[string]string)

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		for platform, pattern := range socialPatterns {
			if _, dup := found[platform]; !dup && pattern.MatchString(href) {
				found[platform] = href
			}
		}
	})

	// Deterministic platform order.
	var presence []domain.SocialPresence
	for _, platform := range []string{"facebook", "twitter", "linkedin", "instagram", "youtube"} {
		if url, ok := found[platform]; ok {
			presence = append(presence, domain.SocialPresence{Platform: platform, URL: url})
		}
	}
	return presence
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func mergeStrings(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		seen[s] = struct{}{}
	}
	out := existing
	for _, s := range extra {
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
