package service

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/apperr"
	"github.com/justjun/blog-api/internal/cache"
	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/render"
	"github.com/justjun/blog-api/internal/repository"
)

// ChangeFrequency is a sitemap changefreq value
type ChangeFrequency string

const (
	ChangeFreqDaily   ChangeFrequency = "daily"
	ChangeFreqWeekly  ChangeFrequency = "weekly"
	ChangeFreqMonthly ChangeFrequency = "monthly"
)

// URLSet is the sitemap root element
type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapURL is one sitemap entry
type SitemapURL struct {
	Location     string          `xml:"loc"`
	LastModified string          `xml:"lastmod,omitempty"`
	ChangeFreq   ChangeFrequency `xml:"changefreq,omitempty"`
	Priority     string          `xml:"priority,omitempty"`
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssChannel struct {
	Title         string      `xml:"title"`
	Link          string      `xml:"link"`
	Description   string      `xml:"description"`
	Language      string      `xml:"language,omitempty"`
	LastBuildDate string      `xml:"lastBuildDate"`
	AtomLink      rssAtomLink `xml:"atom:link"`
	Items         []rssItem   `xml:"item"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	Description string  `xml:"description"`
	Category    string  `xml:"category,omitempty"`
	PubDate     string  `xml:"pubDate"`
}

// Manifest is the web app manifest
type Manifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []ManifestIcon `json:"icons"`
}

// ManifestIcon is one manifest icon entry
type ManifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

type feedService struct {
	repos *repository.Repositories
	cache cache.Cache
	site  config.SiteConfig
	limit int
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

func newFeedService(repos *repository.Repositories, c cache.Cache, cfg *config.Config, log zerolog.Logger) *feedService {
	return &feedService{
		repos: repos,
		cache: c,
		site:  cfg.Site,
		limit: cfg.Content.ListingLimit,
		ttl:   cfg.Cache.ListingTTL,
		now:   time.Now,
		log:   log.With().Str("service", "feed").Logger(),
	}
}

// RSS renders the RSS 2.0 feed of non-deleted articles, newest first
func (s *feedService) RSS(ctx context.Context) (string, error) {
	if cached, err := s.cache.Get(ctx, cache.KeyRSS); err == nil && cached != "" {
		return cached, nil
	}

	articles, err := s.repos.Article.ListActive(ctx, s.limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load articles for rss")
		return "", apperr.NewPersistence("failed to build feed", err)
	}

	channel := rssChannel{
		Title:         s.site.Title,
		Link:          s.site.BaseURL,
		Description:   s.site.Description,
		Language:      s.site.Language,
		LastBuildDate: s.now().UTC().Format(time.RFC1123Z),
		AtomLink:      rssAtomLink{Href: s.site.BaseURL + "/rss.xml", Rel: "self", Type: "application/rss+xml"},
		Items:         make([]rssItem, 0, len(articles)),
	}
	for _, a := range articles {
		link := s.site.BaseURL + "/articles/" + a.Key()
		channel.Items = append(channel.Items, rssItem{
			Title:       a.Title,
			Link:        link,
			GUID:        rssGUID{Value: link, IsPermaLink: true},
			Description: render.Summary(a.Description, a.Content, descriptionLength),
			Category:    a.Category,
			PubDate:     a.CreatedAt.UTC().Format(time.RFC1123Z),
		})
	}

	out, err := encodeXML(rssDocument{Version: "2.0", Atom: "http://www.w3.org/2005/Atom", Channel: channel})
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, cache.KeyRSS, out, s.ttl); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache rss")
	}
	return out, nil
}

// Sitemap renders the sitemap: home, articles and projects
func (s *feedService) Sitemap(ctx context.Context) (string, error) {
	if cached, err := s.cache.Get(ctx, cache.KeySitemap); err == nil && cached != "" {
		return cached, nil
	}

	articles, err := s.repos.Article.ListActive(ctx, 0)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load articles for sitemap")
		return "", apperr.NewPersistence("failed to build sitemap", err)
	}
	projects, err := s.repos.Project.ListActive(ctx, 0, false)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load projects for sitemap")
		return "", apperr.NewPersistence("failed to build sitemap", err)
	}

	set := URLSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []SitemapURL{{
			Location:     s.site.BaseURL + "/",
			LastModified: s.now().UTC().Format(time.RFC3339),
			ChangeFreq:   ChangeFreqDaily,
			Priority:     "1.0",
		}},
	}
	for _, a := range articles {
		set.URLs = append(set.URLs, SitemapURL{
			Location:     s.site.BaseURL + "/articles/" + a.Key(),
			LastModified: lastMod(a.UpdatedAt, a.CreatedAt),
			ChangeFreq:   ChangeFreqWeekly,
			Priority:     "0.8",
		})
	}
	for _, p := range projects {
		set.URLs = append(set.URLs, SitemapURL{
			Location:     s.site.BaseURL + "/projects/" + p.Key(),
			LastModified: lastMod(p.UpdatedAt, p.CreatedAt),
			ChangeFreq:   ChangeFreqMonthly,
			Priority:     "0.6",
		})
	}

	out, err := encodeXML(set)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, cache.KeySitemap, out, s.ttl); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache sitemap")
	}
	return out, nil
}

func lastMod(updated, created time.Time) string {
	if updated.IsZero() {
		updated = created
	}
	if updated.IsZero() {
		return ""
	}
	return updated.UTC().Format(time.RFC3339)
}

func encodeXML(v interface{}) (string, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode xml: %w", err)
	}
	return xml.Header + string(body), nil
}

// Robots renders robots.txt. The admin surface is never indexed.
func (s *feedService) Robots() string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /admin/\n")
	b.WriteString("Disallow: /v1/admin/\n")
	fmt.Fprintf(&b, "\nSitemap: %s/sitemap.xml\n", s.site.BaseURL)
	return b.String()
}

// Manifest returns the web app manifest of the site
func (s *feedService) Manifest() *Manifest {
	return &Manifest{
		Name:            s.site.Title,
		ShortName:       s.site.ShortName,
		Description:     s.site.Description,
		StartURL:        "/",
		Display:         "standalone",
		BackgroundColor: "#ffffff",
		ThemeColor:      s.site.ThemeColor,
		Icons: []ManifestIcon{
			{Src: "/favicon.ico", Sizes: "any", Type: "image/x-icon"},
		},
	}
}
