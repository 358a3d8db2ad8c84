// Package content turns webpages and PDF documents into raw study text
// and derives study aids (summary, key concepts, milestones, quiz questions...) from it.
package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/trezcool/examprep/core"
)

type SourceType string

const (
	SourceWebpage SourceType = "webpage"
	SourcePDF     SourceType = "pdf"

	defaultPDFTitle = "Uploaded PDF"
)

var (
	unwantedSelector = "script, style, nav, footer, header"
	// containers are tried in order; the first match holds the main content.
	containerSelectors = []string{
		"article",
		".article, .post-content, .entry-content",
		"main",
		"div.content, div.main-content",
	}
	pdfMagic = []byte("%PDF-")
)

type (
	// Raw is the text pulled out of a source before any processing.
	Raw struct {
		URL        string
		Title      string
		Content    string
		SourceType SourceType
	}

	// PDFExtractor pulls the plain text out of a PDF document.
	PDFExtractor interface {
		ExtractText(ctx context.Context, r io.ReaderAt, size int64) (string, error)
	}

	Scraper struct {
		conf   core.ScraperConfig
		client *http.Client
		pdf    PDFExtractor

		mu       sync.Mutex
		limiters map[string]*rate.Limiter // {host: limiter}
	}
)

func NewScraper(conf core.ScraperConfig, pdf PDFExtractor, client ...*http.Client) *Scraper {
	c := &http.Client{Timeout: conf.Timeout}
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	}
	return &Scraper{
		conf:     conf,
		client:   c,
		pdf:      pdf,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *Scraper) SupportedDomains() []string {
	return s.conf.SupportedDomains
}

// IsSupportedDomain reports whether the url host contains one of the supported domains.
func (s *Scraper) IsSupportedDomain(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, domain := range s.conf.SupportedDomains {
		if strings.Contains(host, domain) {
			return true
		}
	}
	return false
}

// ProcessURL scrapes a webpage from a supported domain and cleans its content.
func (s *Scraper) ProcessURL(ctx context.Context, rawURL string) (Raw, error) {
	if !s.IsSupportedDomain(rawURL) {
		return Raw{}, &Error{
			Kind: KindUnsupportedDomain,
			Msg:  "Unsupported domain. Please use one of: " + strings.Join(s.conf.SupportedDomains, ", "),
		}
	}
	raw, err := s.ScrapeWebpage(ctx, rawURL)
	if err != nil {
		return Raw{}, err
	}
	raw.Content = CleanContent(raw.Content)
	return raw, nil
}

// ProcessPDF extracts the text of an uploaded PDF and cleans it.
func (s *Scraper) ProcessPDF(ctx context.Context, r io.ReaderAt, size int64, filename string) (Raw, error) {
	raw, err := s.ExtractPDF(ctx, r, size, filename)
	if err != nil {
		return Raw{}, err
	}
	raw.Content = CleanContent(raw.Content)
	return raw, nil
}

func (s *Scraper) limiter(host string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	lim, ok := s.limiters[host]
	if !ok {
		rps := s.conf.RequestsPerSecond
		if rps <= 0 {
			rps = 1
		}
		lim = rate.NewLimiter(rate.Limit(rps), 1)
		s.limiters[host] = lim
	}
	return lim
}

func (s *Scraper) ScrapeWebpage(ctx context.Context, rawURL string) (Raw, error) {
	scrapeErr := func(err error) error {
		return &Error{Kind: KindScrape, Msg: "failed to scrape webpage", Err: err}
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Raw{}, scrapeErr(errors.Errorf("invalid url %q", rawURL))
	}

	if err = s.limiter(strings.ToLower(u.Host)).Wait(ctx); err != nil {
		return Raw{}, errors.Wrap(err, "waiting for rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Raw{}, scrapeErr(err)
	}
	req.Header.Set("User-Agent", "ExamPrep/1.0 (+study material importer)")

	res, err := s.client.Do(req)
	if err != nil {
		return Raw{}, scrapeErr(err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Raw{}, scrapeErr(errors.Errorf("%d %s for url: %s", res.StatusCode, http.StatusText(res.StatusCode), rawURL))
	}

	var body io.Reader = res.Body
	if s.conf.MaxBodyBytes > 0 {
		body = io.LimitReader(res.Body, s.conf.MaxBodyBytes)
	}
	// pages are decoded to UTF-8 from their declared or sniffed charset
	body, err = charset.NewReader(body, res.Header.Get("Content-Type"))
	if err != nil {
		return Raw{}, scrapeErr(err)
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return Raw{}, scrapeErr(err)
	}

	title, text := ParseDocument(doc)
	return Raw{URL: rawURL, Title: title, Content: text, SourceType: SourceWebpage}, nil
}

// ParseDocument returns the page title and the text of its main content container.
// Without a container the text of the whole document is returned.
func ParseDocument(doc *goquery.Document) (title, text string) {
	doc.Find(unwantedSelector).Remove()

	title = doc.Find("title").First().Text()

	for _, sel := range containerSelectors {
		if container := doc.Find(sel).First(); container.Length() > 0 {
			return title, strippedText(container.Nodes[0])
		}
	}
	return title, doc.Text()
}

// strippedText joins the trimmed, non-empty text nodes under n with newlines.
func strippedText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, "\n")
}

func (s *Scraper) ExtractPDF(ctx context.Context, r io.ReaderAt, size int64, filename string) (Raw, error) {
	pdfErr := func(err error) error {
		return &Error{Kind: KindPDF, Msg: "failed to extract PDF content", Err: err}
	}

	head := make([]byte, len(pdfMagic))
	if _, err := r.ReadAt(head, 0); err != nil || !bytes.Equal(head, pdfMagic) {
		return Raw{}, pdfErr(errors.New("not a PDF document"))
	}

	text, err := s.pdf.ExtractText(ctx, r, size)
	if err != nil {
		return Raw{}, pdfErr(err)
	}

	title := defaultPDFTitle
	if filename != "" {
		title = filename
		if i := strings.LastIndex(filename, "."); i >= 0 {
			title = filename[:i]
		}
	}
	return Raw{Title: title, Content: text, SourceType: SourcePDF}, nil
}

// CleanContent collapses whitespace runs into single spaces and drops non-printable characters.
func CleanContent(s string) string {
	cleaned := strings.Join(strings.Fields(s), " ")
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, cleaned)
}

// ErrorKind classifies content acquisition failures.
type ErrorKind int

const (
	KindUnsupportedDomain ErrorKind = iota + 1
	KindScrape
	KindPDF
)

// Error is a content acquisition failure caused by the submitted source.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

// IsSourceError reports whether err was caused by the submitted source.
func IsSourceError(err error) bool {
	_, ok := errors.Cause(err).(*Error)
	return ok
}
