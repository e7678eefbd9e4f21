package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL  = "https://www.youtube.com"
	defaultLanguage = "en"
	maxPageSize     = 8 << 20
)

var (
	// ErrNoCaptions is returned when a video has no caption tracks
	ErrNoCaptions = errors.New("no captions available for this video")
	// ErrInvalidVideoID is returned for ids that cannot be a YouTube video id
	ErrInvalidVideoID = errors.New("invalid video id")
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)

// Client fetches titles and caption transcripts for YouTube videos.
type Client struct {
	httpClient *http.Client
	baseURL    string
	language   string
}

// NewClient creates a client. A nil httpClient gets a 30s timeout client.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		language:   defaultLanguage,
	}
}

// WithBaseURL points the client at a different host (used by tests)
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// WithLanguage sets the preferred caption language code
func (c *Client) WithLanguage(lang string) *Client {
	if lang != "" {
		c.language = lang
	}
	return c
}

// Title returns the video title from the oEmbed endpoint
func (c *Client) Title(ctx context.Context, videoID string) (string, error) {
	if !videoIDPattern.MatchString(videoID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVideoID, videoID)
	}

	q := url.Values{}
	q.Set("url", c.baseURL+"/watch?v="+videoID)
	q.Set("format", "json")

	body, err := c.get(ctx, c.baseURL+"/oembed?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("failed to fetch video title: %w", err)
	}
	title := gjson.GetBytes(body, "title")
	if !title.Exists() {
		return "", fmt.Errorf("failed to fetch video title: missing title in response")
	}
	return title.String(), nil
}

// Transcript returns the caption text of a video joined into one string
func (c *Client) Transcript(ctx context.Context, videoID string) (string, error) {
	if !videoIDPattern.MatchString(videoID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVideoID, videoID)
	}

	page, err := c.get(ctx, c.baseURL+"/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return "", fmt.Errorf("failed to fetch video page: %w", err)
	}

	trackURL, err := c.captionTrackURL(string(page))
	if err != nil {
		return "", err
	}

	captions, err := c.get(ctx, trackURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	return parseTimedText(captions)
}

// captionTrackURL picks the preferred-language track from the player response
// embedded in the watch page, falling back to the first track.
func (c *Client) captionTrackURL(page string) (string, error) {
	start := strings.Index(page, `"captions":`)
	if start < 0 {
		return "", ErrNoCaptions
	}
	rest := page[start+len(`"captions":`):]
	if end := strings.Index(rest, `,"videoDetails`); end >= 0 {
		rest = rest[:end]
	}

	tracks := gjson.Get(rest, "playerCaptionsTracklistRenderer.captionTracks")
	if !tracks.IsArray() || len(tracks.Array()) == 0 {
		return "", ErrNoCaptions
	}

	chosen := tracks.Array()[0]
	for _, track := range tracks.Array() {
		if track.Get("languageCode").String() == c.language {
			chosen = track
			break
		}
	}

	raw := chosen.Get("baseUrl").String()
	if raw == "" {
		return "", ErrNoCaptions
	}
	if strings.HasPrefix(raw, "/") {
		raw = c.baseURL + raw
	}
	return raw, nil
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

func parseTimedText(data []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", fmt.Errorf("failed to parse captions: %w", err)
	}
	if len(tt.Lines) == 0 {
		return "", ErrNoCaptions
	}

	parts := make([]string, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		// Caption text arrives entity-encoded a second time ("&amp;#39;").
		text := strings.TrimSpace(html.UnescapeString(line.Text))
		if text != "" {
			parts = append(parts, strings.Join(strings.Fields(text), " "))
		}
	}
	return strings.Join(parts, " "), nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", c.language)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
}
