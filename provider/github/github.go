// Package github fetches GitHub profiles for the access core. The OAuth
// redirect dance itself belongs to the framework layer; this client only
// turns an access credential into a normalized access.Profile.
package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/goliatone/go-access"
	"github.com/goliatone/go-errors"
)

const (
	defaultUserURL   = "https://api.github.com/user"
	defaultEmailsURL = "https://api.github.com/user/emails"
)

// Config holds the GitHub API endpoints.
type Config struct {
	UserURL   string
	EmailsURL string

	HTTPClient *http.Client
}

// Client fetches GitHub user profiles.
type Client struct {
	config     Config
	httpClient *http.Client
}

// New creates a new GitHub profile client.
func New(cfg Config) *Client {
	if cfg.UserURL == "" {
		cfg.UserURL = defaultUserURL
	}
	if cfg.EmailsURL == "" {
		cfg.EmailsURL = defaultEmailsURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		config:     cfg,
		httpClient: client,
	}
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchProfile loads the user behind the access credential and maps it into
// the core profile shape. The email endpoint is best-effort; a profile
// without email is still usable since the handle is the lookup key.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*access.Profile, error) {
	user, err := c.fetchUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	email, err := c.fetchPrimaryEmail(ctx, accessToken)
	if err != nil {
		email = user.Email
	}

	return &access.Profile{
		ExternalID:  user.ID,
		Login:       user.Login,
		DisplayName: user.Name,
		Email:       email,
		AvatarURL:   user.AvatarURL,
	}, nil
}

func (c *Client) fetchUser(ctx context.Context, accessToken string) (*githubUser, error) {
	body, status, err := c.get(ctx, c.config.UserURL, accessToken)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, providerError("user_info", status, nil)
	}

	var user githubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, providerError("user_info", status, err)
	}

	return &user, nil
}

func (c *Client) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	body, status, err := c.get(ctx, c.config.EmailsURL, accessToken)
	if err != nil {
		return "", err
	}

	if status != http.StatusOK {
		return "", providerError("emails", status, nil)
	}

	var emails []githubEmail
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", providerError("emails", status, err)
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}

	for _, e := range emails {
		if e.Verified {
			return e.Email, nil
		}
	}

	return "", providerError("emails", status, nil)
}

func (c *Client) get(ctx context.Context, url, accessToken string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CategoryExternal, "github request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, errors.CategoryExternal, "github response unreadable")
	}

	return body, resp.StatusCode, nil
}

func providerError(op string, status int, source error) error {
	err := errors.New("github "+op+" failed", errors.CategoryExternal).
		WithMetadata(map[string]any{
			"provider": "github",
			"op":       op,
			"status":   status,
		})
	if source != nil {
		return errors.Wrap(source, errors.CategoryExternal, err.Message).
			WithMetadata(map[string]any{
				"provider": "github",
				"op":       op,
				"status":   status,
			})
	}
	return err
}
