package views

import (
	"fmt"
	"net/url"
)

// PathEscape wraps url.PathEscape for use in templ expressions.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// CategoryClass returns CSS classes for a category pill, with active variant.
func CategoryClass(active bool) string {
	if active {
		return "pill pill-active"
	}
	return "pill"
}

// TabClass returns CSS classes for a dashboard tab.
func TabClass(tab, current string) string {
	if tab == current {
		return "tab tab-active"
	}
	return "tab"
}

func postPath(id string) string {
	return "/post/" + PathEscape(id) + "/"
}

func bookPath(id string) string {
	return "/book/" + PathEscape(id) + "/"
}

func categoryPath(name string) string {
	return "/articles/?category=" + url.QueryEscape(name)
}

// adminPath addresses one record in the admin area, e.g. /admin/books/{id}/.
func adminPath(kind, id string) string {
	return "/admin/" + kind + "/" + PathEscape(id) + "/"
}

func uploadPath(filename string) string {
	return "/uploads/" + PathEscape(filename)
}

func ratingLabel(avg float64) string {
	return fmt.Sprintf("%.1f", avg)
}

func twitterShareURL(pageURL, title string) string {
	return "https://twitter.com/intent/tweet?url=" + url.QueryEscape(pageURL) + "&text=" + url.QueryEscape(title)
}

func linkedInShareURL(pageURL string) string {
	return "https://www.linkedin.com/sharing/share-offsite/?url=" + url.QueryEscape(pageURL)
}
