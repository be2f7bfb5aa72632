// Package scraper downloads careers pages and reduces them to readable text.
package scraper

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	// DefaultUserAgent mimics a desktop browser; many careers sites reject bare clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	// MinContentLength is the text length below which a page is treated as script-rendered.
	MinContentLength = 500

	acceptEncoding = "gzip"
	defaultTimeout = 30 * time.Second
	maxBodySize    = 10 << 20
)

var noiseSelector = "nav, footer, header, script, style, noscript, svg, iframe, form, .cookie-banner, .cookie-consent, .popup, .ad, .ads, .sidebar"

var contentSelectors = []string{
	".job-description",
	"#job-description",
	".job-details",
	".posting-content",
	"[data-testid='job-description']",
	"main",
	"article",
	"[role='main']",
	"#content",
	".content",
}

// Renderer returns the HTML of a page after scripts ran.
type Renderer func(ctx context.Context, url string, timeout time.Duration) (string, error)

type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Browser enables headless rendering for pages whose static HTML is too thin.
	Browser bool
	Timeout time.Duration

	render Renderer
	logger *zap.Logger
}

func New(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		UserAgent: DefaultUserAgent,
		Timeout:   defaultTimeout,
		render:    RenderWithBrowser,
		logger:    logger,
	}
}

// Scrape fetches url and returns its main text.
func (c *Client) Scrape(ctx context.Context, url string) (string, error) {
	html, err := c.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	text, err := ExtractText(html)
	if !c.Browser {
		return text, err
	}
	if err == nil && len(text) >= MinContentLength {
		return text, nil
	}
	staticErr := err

	c.logger.Info("page text is short, rendering with headless browser",
		zap.String("url", url),
		zap.Int("text_length", len(text)),
	)

	rendered, err := c.render(ctx, url, c.Timeout)
	if err != nil {
		c.logger.Warn("browser rendering failed, using static text", zap.String("url", url), zap.Error(err))
		return text, staticErr
	}

	renderedText, err := ExtractText(rendered)
	if err != nil || len(renderedText) <= len(text) {
		return text, staticErr
	}

	return renderedText, nil
}

// Fetch downloads url and returns the decoded body.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req = c.setHeaders(req)

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: bad status: %s", url, resp.Status)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", url, err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", url, err)
	}

	return string(data), nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	userAgent := strings.TrimSpace(c.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Encoding", acceptEncoding)

	return req
}

// ExtractText removes page chrome and returns the text of the most specific
// content container, falling back to the body.
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find(noiseSelector).Remove()

	content := doc.Find("body")
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			content = selection.First()
			break
		}
	}

	// Block elements carry no separator in Text(), so break after each of them.
	content.Find("p, li, div, h1, h2, h3, h4, h5, h6, tr, section").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	text := cleanWhitespace(content.Text())
	if text == "" {
		return "", errors.New("page has no readable text")
	}

	return text, nil
}

func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
