package content

import (
	"github.com/eringen/opinions/format"
	"github.com/eringen/opinions/markdown"
	"github.com/eringen/opinions/model"
)

// PostView is a post prepared for display. Excerpt and ReadTime are computed
// from the same raw content that HTML is rendered from.
type PostView struct {
	model.Post
	HTML       string
	Excerpt    string
	ReadTime   string
	Date       string
	Cover      string
	AuthorName string
}

// BookView is a book prepared for display.
type BookView struct {
	model.Book
	DescriptionHTML string
	Excerpt         string
	Date            string
}

// ReviewView is a review prepared for display.
type ReviewView struct {
	model.Review
	Date string
}

// Stars renders the rating as five filled or empty stars.
func (r ReviewView) Stars() string {
	out := make([]rune, 0, 5)
	for i := 1; i <= 5; i++ {
		if i <= r.Rating {
			out = append(out, '★')
		} else {
			out = append(out, '☆')
		}
	}
	return string(out)
}

// Options tunes how records are mapped to views.
type Options struct {
	RelatedLimit    int
	ExcerptLength   int
	WordsPerMinute  int
	DefaultImageURL string
}

func (o *Options) setDefaults() {
	if o.RelatedLimit <= 0 {
		o.RelatedLimit = 3
	}
	if o.ExcerptLength <= 0 {
		o.ExcerptLength = format.DefaultExcerptLength
	}
	if o.WordsPerMinute <= 0 {
		o.WordsPerMinute = format.DefaultWordsPerMinute
	}
}

// NewPostView maps a post without rendering its body, for cards and lists.
func (o Options) NewPostView(p model.Post) PostView {
	cover := p.ImageURL
	if cover == "" {
		cover = o.DefaultImageURL
	}
	return PostView{
		Post:     p,
		Excerpt:  format.Excerpt(p.Content, o.ExcerptLength),
		ReadTime: format.ReadTime(p.Content, o.WordsPerMinute),
		Date:     format.LongDate(p.CreatedAt),
		Cover:    cover,
	}
}

// NewPostPage maps a post including its rendered body.
func (o Options) NewPostPage(p model.Post) PostView {
	v := o.NewPostView(p)
	v.HTML = markdown.Render(p.Content)
	return v
}

// NewBookView maps a book. The description is rendered as markdown only when
// the book says so; otherwise it is shown as escaped text.
func (o Options) NewBookView(b model.Book) BookView {
	v := BookView{
		Book:    b,
		Excerpt: format.Excerpt(b.Description, o.ExcerptLength),
		Date:    format.LongDate(b.CreatedAt),
	}
	if b.IsMarkdown {
		v.DescriptionHTML = markdown.Render(b.Description)
	} else {
		v.DescriptionHTML = markdown.Preformatted(b.Description)
	}
	return v
}

func (o Options) postViews(posts []model.Post) []PostView {
	views := make([]PostView, len(posts))
	for i, p := range posts {
		views[i] = o.NewPostView(p)
	}
	return views
}

func (o Options) bookViews(books []model.Book) []BookView {
	views := make([]BookView, len(books))
	for i, b := range books {
		views[i] = o.NewBookView(b)
	}
	return views
}
