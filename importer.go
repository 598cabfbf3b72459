package opinions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/store"
)

// frontMatter is the header accepted at the top of an imported markdown file.
type frontMatter struct {
	Title       string   `yaml:"title" toml:"title" json:"title"`
	Slug        string   `yaml:"slug" toml:"slug" json:"slug"`
	Category    string   `yaml:"category" toml:"category" json:"category"`
	Image       string   `yaml:"image" toml:"image" json:"image"`
	Description string   `yaml:"description" toml:"description" json:"description"`
	Keywords    []string `yaml:"keywords" toml:"keywords" json:"keywords"`
	Date        string   `yaml:"date" toml:"date" json:"date"`
}

// ImportResult lists what an import created and which files it skipped.
type ImportResult struct {
	Imported []model.Post
	Skipped  map[string]error
}

// ImportPosts reads every .md file in dir and stores it as a draft post.
// Categories named in front matter are created when missing. A file that
// cannot be parsed or stored is skipped and reported; store failures other
// than per-file ones abort the import.
func ImportPosts(ctx context.Context, s *store.Store, dir, authorID string) (ImportResult, error) {
	res := ImportResult{Skipped: map[string]error{}}

	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return res, err
	}
	sort.Strings(files)

	known, err := categoryNames(ctx, s)
	if err != nil {
		return res, err
	}

	for _, path := range files {
		post, err := readPostFile(path)
		if err != nil {
			res.Skipped[path] = err
			continue
		}
		post.AuthorID = authorID

		if post.Category != "" && !known[post.Category] {
			_, err := s.CreateCategory(ctx, model.Category{Name: post.Category})
			if err != nil && !errors.Is(err, model.ErrNameExists) {
				return res, fmt.Errorf("create category %q: %w", post.Category, err)
			}
			known[post.Category] = true
		}

		created, err := s.CreatePost(ctx, post)
		if err != nil {
			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				return res, err
			}
			res.Skipped[path] = err
			continue
		}
		res.Imported = append(res.Imported, created)
	}
	return res, nil
}

func categoryNames(ctx context.Context, s *store.Store) (map[string]bool, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(cats))
	for _, c := range cats {
		names[c.Name] = true
	}
	return names, nil
}

// readPostFile parses one markdown file. The title falls back to the file
// name and the slug to the slugified title.
func readPostFile(path string) (model.Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Post{}, err
	}
	defer f.Close()

	var fm frontMatter
	body, err := frontmatter.Parse(f, &fm)
	if err != nil {
		return model.Post{}, fmt.Errorf("parse front matter: %w", err)
	}

	content := strings.TrimSpace(string(body))
	if content == "" {
		return model.Post{}, errors.New("empty post body")
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	slug := fm.Slug
	if slug == "" {
		slug = Slugify(title)
	}

	var created time.Time
	if fm.Date != "" {
		created, err = parseImportDate(fm.Date)
		if err != nil {
			return model.Post{}, err
		}
	}

	return model.Post{
		Title:           title,
		Content:         content,
		Status:          model.StatusDraft,
		Category:        strings.TrimSpace(fm.Category),
		ImageURL:        fm.Image,
		Slug:            slug,
		MetaDescription: fm.Description,
		MetaKeywords:    strings.Join(fm.Keywords, ", "),
		CreatedAt:       created,
	}, nil
}

func parseImportDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
}
