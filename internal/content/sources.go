package content

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"genna-quiz-service/internal/domain"
)

const (
	userAgent = "Genna-Quiz/1.0 (+https://github.com/genna-quiz-service)"

	// maxTitleBody caps how much of a linked page is read.
	maxTitleBody = 512 << 10
	// maxTitleRunes caps a resolved title.
	maxTitleRunes = 200
	// maxCachedTitles bounds the resolver cache; a full cache evicts an
	// arbitrary entry.
	maxCachedTitles = 512
)

// MergeSources concatenates source lists, drops entries without a URI,
// keeps the first occurrence of each URI and truncates to limit (0 = no limit).
func MergeSources(limit int, lists ...[]domain.GroundingSource) []domain.GroundingSource {
	seen := map[string]struct{}{}
	out := []domain.GroundingSource{}
	for _, list := range lists {
		for _, s := range list {
			uri := strings.TrimSpace(s.URI)
			if uri == "" {
				continue
			}
			if _, ok := seen[uri]; ok {
				continue
			}
			seen[uri] = struct{}{}
			out = append(out, domain.GroundingSource{Title: strings.TrimSpace(s.Title), URI: uri})
			if limit > 0 && len(out) == limit {
				return out
			}
		}
	}
	return out
}

// TitleResolver fills in missing source titles from the linked page's <title>.
type TitleResolver struct {
	client *http.Client
	mu     sync.Mutex
	cache  map[string]string
}

func NewTitleResolver(client *http.Client) *TitleResolver {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &TitleResolver{client: client, cache: map[string]string{}}
}

// Fill returns sources with every empty title resolved. Lookups run with
// bounded parallelism; a failed lookup falls back to the host name.
func (r *TitleResolver) Fill(ctx context.Context, sources []domain.GroundingSource) []domain.GroundingSource {
	out := make([]domain.GroundingSource, len(sources))
	copy(out, sources)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range out {
		if out[i].Title != "" {
			continue
		}
		i := i
		g.Go(func() error {
			out[i].Title = r.Resolve(gctx, out[i].URI)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Resolve returns the page title of uri, or its host when the page cannot be read.
// A fallback caused by ctx ending is not cached.
func (r *TitleResolver) Resolve(ctx context.Context, uri string) string {
	r.mu.Lock()
	if title, ok := r.cache[uri]; ok {
		r.mu.Unlock()
		return title
	}
	r.mu.Unlock()

	title := r.fetchTitle(ctx, uri)
	if title == "" {
		title = hostOf(uri)
		if ctx.Err() != nil {
			return title
		}
	}

	r.mu.Lock()
	if len(r.cache) >= maxCachedTitles {
		for k := range r.cache {
			delete(r.cache, k)
			break
		}
	}
	r.cache[uri] = title
	r.mu.Unlock()
	return title
}

func (r *TitleResolver) fetchTitle(ctx context.Context, uri string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := r.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxTitleBody))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("head title").First().Text())
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	}
	return clip(strings.Join(strings.Fields(title), " "), maxTitleRunes)
}

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func hostOf(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return uri
	}
	return strings.TrimPrefix(u.Host, "www.")
}
