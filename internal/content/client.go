package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cast"
)

var (
	ErrNotFound    = errors.New("content not found")
	ErrUnavailable = errors.New("content store unavailable")
)

// Page is a CMS-managed landing page.
type Page struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Body        string    `json:"body"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Post is a blog/resource-library entry.
type Post struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Body        string    `json:"body"`
	Author      string    `json:"author"`
	Tags        []string  `json:"tags"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Client fetches content from the headless CMS HTTP API.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

func NewClient(baseURL string, apiToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) fetch(ctx context.Context, path string) (map[string]any, error) {
	reqURL, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: cms responded %d", ErrUnavailable, resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return body, nil
}

// CMS field values arrive loosely typed; coerce instead of failing on a
// number-vs-string mismatch in an editor-managed document.
func pageFromMap(m map[string]any) Page {
	return Page{
		Slug:        cast.ToString(m["slug"]),
		Title:       cast.ToString(m["title"]),
		Description: cast.ToString(m["description"]),
		Body:        cast.ToString(m["body"]),
		UpdatedAt:   cast.ToTime(m["updatedAt"]),
	}
}

func postFromMap(m map[string]any) Post {
	return Post{
		Slug:        cast.ToString(m["slug"]),
		Title:       cast.ToString(m["title"]),
		Excerpt:     cast.ToString(m["excerpt"]),
		Body:        cast.ToString(m["body"]),
		Author:      cast.ToString(m["author"]),
		Tags:        cast.ToStringSlice(m["tags"]),
		PublishedAt: cast.ToTime(m["publishedAt"]),
	}
}

func (c *Client) GetPage(ctx context.Context, slug string) (*Page, error) {
	body, err := c.fetch(ctx, "/pages/"+url.PathEscape(slug))
	if err != nil {
		return nil, err
	}
	page := pageFromMap(cast.ToStringMap(body["data"]))
	if page.Slug == "" {
		page.Slug = slug
	}
	return &page, nil
}

func (c *Client) GetPost(ctx context.Context, slug string) (*Post, error) {
	body, err := c.fetch(ctx, "/posts/"+url.PathEscape(slug))
	if err != nil {
		return nil, err
	}
	post := postFromMap(cast.ToStringMap(body["data"]))
	if post.Slug == "" {
		post.Slug = slug
	}
	return &post, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	body, err := c.fetch(ctx, "/posts")
	if err != nil {
		return nil, err
	}
	items := cast.ToSlice(body["data"])
	posts := make([]Post, 0, len(items))
	for _, item := range items {
		posts = append(posts, postFromMap(cast.ToStringMap(item)))
	}
	return posts, nil
}
