package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/jonwraymond/queryops/query"
)

func TestWikipedia_Resolve(t *testing.T) {
	stub := newAPIStub(t)
	stub.handleFunc("/wiki/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "who was alan turing" {
			t.Errorf("q = %q, want %q", got, "who was alan turing")
		}
		_, _ = w.Write([]byte(`{"pages":[{"title":"Alan Turing"}]}`))
	})
	stub.handle("/wiki/summary/Alan_Turing", http.StatusOK, `{"extract":"Alan Mathison Turing was an English\nmathematician and computer scientist."}`)

	wiki := NewWikipedia(stub.options())
	for i := 0; i < 2; i++ {
		got, err := wiki.Resolve(context.Background(), query.New("Who was Alan Turing"))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := "Alan Turing: Alan Mathison Turing was an English mathematician and computer scientist."
		if got != want {
			t.Errorf("Resolve() = %q, want %q", got, want)
		}
	}

	if n := stub.count("/wiki/search"); n != 1 {
		t.Errorf("search calls = %d, want 1", n)
	}
	if n := stub.count("/wiki/summary/Alan_Turing"); n != 1 {
		t.Errorf("summary calls = %d, want 1", n)
	}
	sleeps := stub.clock.Sleeps()
	if len(sleeps) != 1 || sleeps[0] != WikipediaDelay {
		t.Errorf("pacing sleeps = %v, want [%v]", sleeps, WikipediaDelay)
	}
}

func TestWikipedia_TruncatesExtract(t *testing.T) {
	stub := newAPIStub(t)
	stub.handle("/wiki/search", http.StatusOK, `{"pages":[{"title":"Words"}]}`)
	stub.handle("/wiki/summary/Words", http.StatusOK, `{"extract":"`+strings.Repeat("word ", 100)+`"}`)

	got, err := NewWikipedia(stub.options()).Resolve(context.Background(), query.New("words"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := "Words: " + strings.TrimSpace(strings.Repeat("word ", 84)) + "..."
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestWikipedia_Misses(t *testing.T) {
	tests := []struct {
		name    string
		search  string
		summary string
	}{
		{name: "no pages", search: `{"pages":[]}`},
		{name: "empty extract", search: `{"pages":[{"title":"Nothing"}]}`, summary: `{"extract":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newAPIStub(t)
			stub.handle("/wiki/search", http.StatusOK, tt.search)
			stub.handle("/wiki/summary/Nothing", http.StatusOK, tt.summary)

			got, err := NewWikipedia(stub.options()).Resolve(context.Background(), query.New("nothing"))
			if got != "" || err != nil {
				t.Errorf("Resolve() = (%q, %v), want miss", got, err)
			}
		})
	}
}

func TestDuckDuckGo_Resolve(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "answer", body: `{"Answer":"  42 ","AbstractText":"ignored","Heading":"H"}`, want: "42"},
		{name: "abstract", body: `{"Answer":"","AbstractText":"Go is a  language.","Heading":"Go"}`, want: "Go: Go is a language."},
		{name: "widget answer", body: `{"Answer":{"from":"calculator"},"AbstractText":"Abstract.","Heading":""}`, want: "Abstract."},
		{name: "nothing", body: `{"Answer":"","AbstractText":"","Heading":"Go"}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newAPIStub(t)
			stub.handleFunc("/ddg", func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("format") != "json" || q.Get("no_html") != "1" || q.Get("skip_disambig") != "1" {
					t.Errorf("ddg params = %v", q)
				}
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := NewDuckDuckGo(stub.options()).Resolve(context.Background(), query.New("golang"))
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchProviders(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		param string
		body  string
		new   func(Options) Provider
		want  string
	}{
		{
			name:  "stackexchange",
			path:  "/stackexchange",
			param: "q",
			body:  `{"items":[{"title":"How do I reverse a slice in Go?","link":"https://stackoverflow.com/q/1"}]}`,
			new:   func(o Options) Provider { return NewStackExchange(o) },
			want:  "StackOverflow: How do I reverse a slice in Go? (https://stackoverflow.com/q/1)",
		},
		{
			name:  "stackexchange unescapes",
			path:  "/stackexchange",
			param: "q",
			body:  `{"items":[{"title":"What does &quot;&amp;&quot; mean?","link":"https://stackoverflow.com/q/2"}]}`,
			new:   func(o Options) Provider { return NewStackExchange(o) },
			want:  `StackOverflow: What does "&" mean? (https://stackoverflow.com/q/2)`,
		},
		{
			name:  "github",
			path:  "/github",
			param: "q",
			body:  `{"items":[{"full_name":"golang/go","description":"The Go programming language"}]}`,
			new:   func(o Options) Provider { return NewGitHub(o) },
			want:  "GitHub: golang/go — The Go programming language",
		},
		{
			name:  "github without description",
			path:  "/github",
			param: "q",
			body:  `{"items":[{"full_name":"golang/go","description":null}]}`,
			new:   func(o Options) Provider { return NewGitHub(o) },
			want:  "GitHub: golang/go",
		},
		{
			name:  "hackernews story",
			path:  "/hn",
			param: "query",
			body:  `{"hits":[{"title":"Go 1.24 is released","url":"https://go.dev/blog/go1.24"}]}`,
			new:   func(o Options) Provider { return NewHackerNews(o) },
			want:  "HN: Go 1.24 is released (https://go.dev/blog/go1.24)",
		},
		{
			name:  "hackernews comment",
			path:  "/hn",
			param: "query",
			body:  `{"hits":[{"title":null,"story_title":"Ask HN: Go or Rust?","url":null,"story_url":null}]}`,
			new:   func(o Options) Provider { return NewHackerNews(o) },
			want:  "HN: Ask HN: Go or Rust?",
		},
		{
			name:  "openlibrary",
			path:  "/openlibrary",
			param: "q",
			body:  `{"docs":[{"title":"Dune","author_name":["Frank Herbert"],"first_publish_year":1965}]}`,
			new:   func(o Options) Provider { return NewOpenLibrary(o) },
			want:  "OpenLibrary: Dune by Frank Herbert (1965)",
		},
		{
			name:  "openlibrary title only",
			path:  "/openlibrary",
			param: "q",
			body:  `{"docs":[{"title":"Anonymous Verses"}]}`,
			new:   func(o Options) Provider { return NewOpenLibrary(o) },
			want:  "OpenLibrary: Anonymous Verses",
		},
		{
			name:  "crossref",
			path:  "/crossref",
			param: "query",
			body:  `{"message":{"items":[{"title":["Attention Is All You Need"],"DOI":"10.5555/3295222.3295349"}]}}`,
			new:   func(o Options) Provider { return NewCrossref(o) },
			want:  "Crossref: Attention Is All You Need (DOI: 10.5555/3295222.3295349)",
		},
		{
			name:  "tvmaze",
			path:  "/tvmaze",
			param: "q",
			body:  `[{"score":0.9,"show":{"name":"Breaking Bad","premiered":"2008-01-20","rating":{"average":9.2}}}]`,
			new:   func(o Options) Provider { return NewTVMaze(o) },
			want:  "TVMaze: Breaking Bad — (premiered 2008-01-20) — rating 9.2",
		},
		{
			name:  "tvmaze unrated",
			path:  "/tvmaze",
			param: "q",
			body:  `[{"show":{"name":"Pilot Only","premiered":null,"rating":{"average":null}}}]`,
			new:   func(o Options) Provider { return NewTVMaze(o) },
			want:  "TVMaze: Pilot Only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newAPIStub(t)
			stub.handleFunc(tt.path, func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get(tt.param); got != "go question" {
					t.Errorf("%s = %q, want %q", tt.param, got, "go question")
				}
				_, _ = w.Write([]byte(tt.body))
			})

			p := tt.new(stub.options())
			got, err := p.Resolve(context.Background(), query.New("Go question"))
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
			if len(p.Tags()) != 0 {
				t.Errorf("Tags() = %v, want general", p.Tags())
			}
		})
	}
}

func TestSearchProviders_EmptyResults(t *testing.T) {
	stub := newAPIStub(t)
	stub.handle("/stackexchange", http.StatusOK, `{"items":[]}`)
	stub.handle("/github", http.StatusOK, `{"items":[]}`)
	stub.handle("/hn", http.StatusOK, `{"hits":[]}`)
	stub.handle("/openlibrary", http.StatusOK, `{"docs":[]}`)
	stub.handle("/crossref", http.StatusOK, `{"message":{"items":[]}}`)
	stub.handle("/arxiv", http.StatusOK, `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	stub.handle("/tvmaze", http.StatusOK, `[]`)

	opts := stub.options()
	providers := []Provider{
		NewStackExchange(opts), NewGitHub(opts), NewHackerNews(opts),
		NewOpenLibrary(opts), NewCrossref(opts), NewArxiv(opts), NewTVMaze(opts),
	}
	for _, p := range providers {
		got, err := p.Resolve(context.Background(), query.New("nothing here"))
		if got != "" || err != nil {
			t.Errorf("%s.Resolve() = (%q, %v), want miss", p.Name(), got, err)
		}
	}
}

func TestArxiv_Resolve(t *testing.T) {
	stub := newAPIStub(t)
	stub.handleFunc("/arxiv", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search_query"); got != "all:transformers" {
			t.Errorf("search_query = %q, want all:transformers", got)
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All
      You Need</title>
  </entry>
</feed>`))
	})

	got, err := NewArxiv(stub.options()).Resolve(context.Background(), query.New("transformers"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := "arXiv: Attention Is All You Need"; got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestArxiv_MalformedFeed(t *testing.T) {
	stub := newAPIStub(t)
	stub.handle("/arxiv", http.StatusOK, `<feed><entry>`)

	_, err := NewArxiv(stub.options()).Resolve(context.Background(), query.New("transformers"))
	if !errors.Is(err, ErrParse) {
		t.Errorf("Resolve() error = %v, want ErrParse", err)
	}
}
