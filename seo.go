package opinions

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/eringen/opinions/content"
	"github.com/eringen/opinions/views"
)

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a title to a URL-safe slug. Accented letters are folded
// to their base letter first, so "Café Crème" becomes "cafe-creme".
func Slugify(s string) string {
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// absoluteURL resolves site-relative asset paths against the site URL.
func absoluteURL(base, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// PageMeta builds the metadata of a plain page. An empty title yields the
// bare site name.
func (a *App) PageMeta(title, description, pagePath string) views.PageMeta {
	if description == "" {
		description = a.Config.Description
	}
	full := a.Config.Name
	if title != "" {
		full = title + " | " + a.Config.Name
	}
	return views.PageMeta{
		Title:       full,
		Description: description,
		URL:         BuildURL(a.Config.URL, pagePath),
		Image:       absoluteURL(a.Config.URL, a.Config.DefaultImageURL),
		OGType:      "website",
	}
}

// HomeMeta is the metadata of the landing page, carrying WebSite JSON-LD.
func (a *App) HomeMeta() views.PageMeta {
	m := a.PageMeta("", "", "")
	m.URL = BuildURL(a.Config.URL)
	m.JSONLD = WebsiteJSONLD(a.Config)
	return m
}

// PostMeta is the metadata of an article page.
func (a *App) PostMeta(p content.PostView) views.PageMeta {
	description := p.MetaDescription
	if description == "" {
		description = p.Excerpt
	}
	m := a.PageMeta(p.Title, description, path.Join("post", p.ID))
	m.Keywords = p.MetaKeywords
	m.Image = absoluteURL(a.Config.URL, p.Cover)
	m.OGType = "article"
	m.PublishedTime = p.CreatedAt.UTC().Format(time.RFC3339)
	m.Author = p.AuthorName
	m.Section = p.Category
	m.JSONLD = ArticleJSONLD(p, a.Config)
	return m
}

// BookMeta is the metadata of a book page.
func (a *App) BookMeta(b content.BookView) views.PageMeta {
	m := a.PageMeta(b.Title, b.Excerpt, path.Join("book", b.ID))
	if b.CoverURL != "" {
		m.Image = absoluteURL(a.Config.URL, b.CoverURL)
	}
	m.OGType = "book"
	m.Author = b.Author
	return m
}

// WebsiteJSONLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJSONLD(cfg SiteConfig) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	return marshalJSONLD(data)
}

// ArticleJSONLD returns a JSON-LD string for an Article schema.
func ArticleJSONLD(p content.PostView, cfg SiteConfig) string {
	postURL := BuildURL(cfg.URL, "post", p.ID)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "Article",
		"headline":      p.Title,
		"description":   p.Excerpt,
		"datePublished": p.CreatedAt.UTC().Format(time.RFC3339),
		"dateModified":  p.UpdatedAt.UTC().Format(time.RFC3339),
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if p.Cover != "" {
		data["image"] = absoluteURL(cfg.URL, p.Cover)
	}
	author := p.AuthorName
	if author == "" {
		author = cfg.Author
	}
	if author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  author,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if p.Category != "" {
		data["articleSection"] = p.Category
	}
	if p.MetaKeywords != "" {
		data["keywords"] = p.MetaKeywords
	}
	return marshalJSONLD(data)
}

func marshalJSONLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
