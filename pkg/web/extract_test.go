package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyops/helloagents-tools/pkg/core/errors"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Go Concurrency Patterns | The Go Blog</title>
  <meta name="author" content="By Rob Pike">
  <meta name="description" content="Pipelines and cancellation">
  <meta property="og:site_name" content="go.dev">
  <meta property="article:published_time" content="2014-03-13">
  <script>var tracking = 1;</script>
</head>
<body>
  <nav><a href="/">Home</a> <a href="/blog">Blog</a></nav>
  <header><h1>Site header</h1></header>
  <article>
    <h1>Go Concurrency Patterns</h1>
    <p>Go's concurrency primitives make it easy to construct
       streaming data pipelines.</p>
    <p>Read the <a href="/ref/spec">language reference</a> and the
       <a href="#notes">notes</a>.</p>
    <p>Line one<br>Line two</p>
    <ul><li>First</li><li>Second</li></ul>
  </article>
  <footer>Copyright</footer>
</body>
</html>`

func extract(t *testing.T, html string, opts ...ExtractorOption) *Page {
	t.Helper()
	page, err := NewExtractor(opts...).Extract(&Document{URL: "https://go.dev/blog/pipelines", HTML: html})
	require.NoError(t, err)
	return page
}

func TestExtract_Article(t *testing.T) {
	page := extract(t, articleHTML)

	assert.Equal(t, "Go Concurrency Patterns", page.Title)
	assert.Equal(t, "Rob Pike", page.Author)
	assert.Equal(t, "go.dev", page.Hostname)
	assert.Equal(t, "Pipelines and cancellation", page.Description)
	assert.Equal(t, "go.dev", page.Sitename)
	assert.Equal(t, "2014-03-13", page.Date)

	want := "Go Concurrency Patterns\n" +
		"Go's concurrency primitives make it easy to construct streaming data pipelines.\n" +
		"Read the [language reference](https://go.dev/ref/spec) and the notes.\n" +
		"Line one\n" +
		"Line two\n" +
		"First\n" +
		"Second"
	assert.Equal(t, want, page.Text)
	assert.NotContains(t, page.Text, "tracking")
	assert.NotContains(t, page.Text, "Copyright")
	assert.NotContains(t, page.Text, "Site header")
}

func TestExtract_WithoutLinks(t *testing.T) {
	e := NewExtractor(WithLinks(false))
	assert.False(t, e.IncludeLinks())
	assert.True(t, NewExtractor().IncludeLinks())

	page := extract(t, articleHTML, WithLinks(false))
	assert.Contains(t, page.Text, "Read the language reference and the notes.")
	assert.NotContains(t, page.Text, "](")
}

func TestExtract_Title(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"og title wins", `<html><head><meta property="og:title" content="Open Graph"><title>Plain</title></head><body>x</body></html>`, "Open Graph"},
		{"site suffix stripped", `<html><head><title>Release Notes - Example Corp</title></head><body>x</body></html>`, "Release Notes"},
		{"hyphenated word kept", `<html><head><title>Well-known facts</title></head><body>x</body></html>`, "Well-known facts"},
		{"h1 fallback", `<html><body><h1> Only  Heading </h1></body></html>`, "Only Heading"},
		{"no title", `<html><body><p>just text</p></body></html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extract(t, tt.html).Title)
		})
	}
}

func TestExtract_Author(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			"json-ld person",
			`<html><head><script type="application/ld+json">{"@type":"Article","author":{"@type":"Person","name":"Jane Doe"}}</script></head><body>x</body></html>`,
			"Jane Doe",
		},
		{
			"json-ld multiple",
			`<html><head><script type="application/ld+json">{"author":[{"name":"A"},{"name":"B"}]}</script></head><body>x</body></html>`,
			"A; B",
		},
		{
			"json-ld graph",
			`<html><head><script type="application/ld+json">{"@graph":[{"@type":"WebSite"},{"author":"C"}]}</script></head><body>x</body></html>`,
			"C",
		},
		{
			"rel author",
			`<html><body><a rel="author" href="/u/d">Dana</a><p>x</p></body></html>`,
			"Dana",
		},
		{
			"itemprop name",
			`<html><body><span itemprop="author"><span itemprop="name">Eve</span></span><p>x</p></body></html>`,
			"Eve",
		},
		{
			"itemprop content",
			`<html><body><meta itemprop="author" content="Frank"><p>x</p></body></html>`,
			"Frank",
		},
		{"none", `<html><body><p>x</p></body></html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extract(t, tt.html).Author)
		})
	}
}

func TestExtract_BaseHref(t *testing.T) {
	html := `<html><head><base href="https://cdn.example.com/docs/"></head>
<body><p><a href="intro.html">Intro</a> <a href="javascript:void(0)">Menu</a></p></body></html>`
	page := extract(t, html)
	assert.Equal(t, "[Intro](https://cdn.example.com/docs/intro.html) Menu", page.Text)
}

func TestExtract_MainFallback(t *testing.T) {
	html := `<html><body><div>sidebar junk</div><main><p>Main content</p></main></body></html>`
	assert.Equal(t, "Main content", extract(t, html).Text)
}

func TestExtract_Table(t *testing.T) {
	html := `<html><body><table><tr><th>Name</th><th>Age</th></tr><tr><td>Ann</td><td>30</td></tr></table></body></html>`
	assert.Equal(t, "Name Age\nAnn 30", extract(t, html).Text)
}

func TestExtract_Failure(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract(nil)
	assert.True(t, errors.Is(err, errors.ErrExtractionFailed))

	_, err = e.Extract(&Document{URL: "https://example.com", HTML: ""})
	assert.True(t, errors.Is(err, errors.ErrExtractionFailed))

	_, err = e.Extract(&Document{URL: "https://example.com", HTML: `<html><body><script>x()</script><nav>menu</nav></body></html>`})
	assert.True(t, errors.Is(err, errors.ErrExtractionFailed))
}

func TestExtract_Preformatted(t *testing.T) {
	html := "<html><body><p>wrapped\nsource line</p><pre>line 1\nline 2</pre></body></html>"
	assert.Equal(t, "wrapped source line\nline 1\nline 2", extract(t, html).Text)
}
