package zoom

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"scribe/internal/services"
)

var mp4URLPattern = regexp.MustCompile(`"(?:viewMp4Url|downloadUrl)"\s*:\s*"([^"]+)"`)

// ResolveShareDownload scrapes a recording share page for a direct media
// URL. Used as a fallback when the recording is not visible through the API
// (shared from another account, or past the API retention window).
func (c *Client) ResolveShareDownload(ctx context.Context, shareURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shareURL, nil)
	if err != nil {
		return "", fmt.Errorf("zoom share: new request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "zoom", "share", "share page request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, nil, "share")
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("zoom share: parse page: %w", err)
	}

	if src, ok := doc.Find("video source").Attr("src"); ok && src != "" {
		return src, nil
	}
	if content, ok := doc.Find(`meta[property="og:video"]`).Attr("content"); ok && content != "" {
		return content, nil
	}

	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		match := mp4URLPattern.FindStringSubmatch(s.Text())
		if len(match) == 2 {
			found = unescapeJSONString(match[1])
			return false
		}
		return true
	})
	if found == "" {
		return "", services.Wrap(services.ErrNotFound, "zoom", "share",
			"share page carries no media url", nil)
	}
	return found, nil
}

func unescapeJSONString(s string) string {
	return strings.NewReplacer(`\/`, "/", `&`, "&").Replace(s)
}
