// internal/feed/scraper.go
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// The scrape target serves plain HTML per account; these class names
// are a structural dependency on an unversioned external page format.
const (
	classTimelineItem = "div.timeline-item"
	classPinned       = "div.pinned"
	classContent      = "div.tweet-content"
	classLink         = "a.tweet-link"
	classDate         = "span.tweet-date a"
)

var userAgent = strings.Join([]string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"AppleWebKit/537.36 (KHTML, like Gecko)",
	"Chrome/120.0.0.0 Safari/537.36",
}, " ")

// Message is one scraped timeline item.
type Message struct {
	ID        string
	Text      string
	Link      string
	CreatedAt string
}

// Scraper fetches one account's timeline page and extracts the latest
// non-pinned item.
type Scraper struct {
	httpClient *http.Client
	baseURL    string
	linkBase   string
	account    string
	logger     *zap.Logger
}

// ScraperConfig configures the timeline scraper.
type ScraperConfig struct {
	// BaseURL is the scrape mirror serving HTML timelines.
	BaseURL string
	// LinkBase is the canonical site used to build permalinks.
	LinkBase string
	Account  string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewScraper creates a timeline scraper for one fixed account.
func NewScraper(cfg *ScraperConfig) *Scraper {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Scraper{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		linkBase:   strings.TrimRight(cfg.LinkBase, "/"),
		account:    cfg.Account,
		logger:     cfg.Logger.Named("feed"),
	}
}

// Account returns the watched account handle.
func (s *Scraper) Account() string { return s.account }

// Latest fetches the account page and returns its newest non-pinned
// timeline item, or nil when the page has none.
func (s *Scraper) Latest(ctx context.Context) (*Message, error) {
	pageURL := fmt.Sprintf("%s/%s", s.baseURL, s.account)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build timeline request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timeline: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timeline fetch returned status %d", resp.StatusCode)
	}

	return s.parseTimeline(resp.Body)
}

// parseTimeline extracts the first non-pinned item from a timeline
// page. Items missing content or a permalink are skipped.
func (s *Scraper) parseTimeline(r io.Reader) (*Message, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse timeline HTML: %w", err)
	}

	var msg *Message
	doc.Find(classTimelineItem).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if item.Find(classPinned).Length() > 0 {
			return true
		}

		content := item.Find(classContent).First()
		if content.Length() == 0 {
			return true
		}
		text := strings.TrimSpace(content.Text())

		href, ok := item.Find(classLink).First().Attr("href")
		if !ok || href == "" {
			return true
		}
		segments := strings.Split(href, "/")
		id := segments[len(segments)-1]
		id = strings.TrimSuffix(id, "#m")

		createdAt := time.Now().UTC().Format(time.RFC3339)
		if title, ok := item.Find(classDate).First().Attr("title"); ok && title != "" {
			createdAt = title
		}

		msg = &Message{
			ID:        id,
			Text:      text,
			Link:      fmt.Sprintf("%s/%s/status/%s", s.linkBase, s.account, id),
			CreatedAt: createdAt,
		}
		return false
	})

	if msg == nil {
		s.logger.Debug("No usable timeline items found")
	}
	return msg, nil
}
