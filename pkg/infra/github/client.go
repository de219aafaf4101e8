package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

const (
	// DefaultGraphQLURL is the GraphQL endpoint of github.com
	DefaultGraphQLURL = "https://api.github.com/graphql"
	// DefaultTimeout bounds one page request
	DefaultTimeout = 30 * time.Second
)

const stargazerQuery = `query($owner: String!, $name: String!, $after: String) {
  repository(owner: $owner, name: $name) {
    stargazers(first: %d, after: $after, orderBy: {field: STARRED_AT, direction: %s}) {
      edges {
        starredAt
        node {
          login
          databaseId
        }
      }
      pageInfo {
        endCursor
        hasNextPage
      }
    }
  }
}`

type client struct {
	githubClient *github.Client
	graphqlURL   string
}

var _ interfaces.StargazerClient = (*client)(nil)

type clientConfig struct {
	graphqlURL string
	timeout    time.Duration
	transport  http.RoundTripper
}

// Option configures the GitHub client
type Option func(*clientConfig)

// WithGraphQLURL sets the GraphQL endpoint, e.g. for GitHub Enterprise Server
func WithGraphQLURL(url string) Option {
	return func(c *clientConfig) {
		if url != "" {
			c.graphqlURL = url
		}
	}
}

// WithTimeout sets the timeout of one page request
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport replaces the base HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

func newConfig(opts []Option) *clientConfig {
	cfg := &clientConfig{
		graphqlURL: DefaultGraphQLURL,
		timeout:    DefaultTimeout,
		transport:  http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// NewClient creates a stargazer client authenticated with a personal access token
func NewClient(token string, opts ...Option) (*client, error) {
	if token == "" {
		return nil, goerr.New("GitHub token is required", goerr.T(types.ErrTagConfig))
	}
	cfg := newConfig(opts)

	githubClient := github.NewClient(&http.Client{
		Transport: cfg.transport,
		Timeout:   cfg.timeout,
	}).WithAuthToken(token)

	return &client{
		githubClient: githubClient,
		graphqlURL:   cfg.graphqlURL,
	}, nil
}

// NewAppClient creates a stargazer client with GitHub App installation authentication
func NewAppClient(appID, installationID int64, privateKey []byte, opts ...Option) (*client, error) {
	cfg := newConfig(opts)

	itr, err := ghinstallation.New(cfg.transport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport",
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID),
			goerr.T(types.ErrTagConfig),
		)
	}

	githubClient := github.NewClient(&http.Client{
		Transport: itr,
		Timeout:   cfg.timeout,
	})

	return &client{
		githubClient: githubClient,
		graphqlURL:   cfg.graphqlURL,
	}, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type stargazerResponse struct {
	Data struct {
		Repository *struct {
			Stargazers struct {
				Edges []struct {
					StarredAt time.Time `json:"starredAt"`
					Node      struct {
						Login      string `json:"login"`
						DatabaseID int64  `json:"databaseId"`
					} `json:"node"`
				} `json:"edges"`
				PageInfo struct {
					EndCursor   *string `json:"endCursor"`
					HasNextPage bool    `json:"hasNextPage"`
				} `json:"pageInfo"`
			} `json:"stargazers"`
		} `json:"repository"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// FetchStargazers requests one page of stargazers ordered by starred time
func (c *client) FetchStargazers(ctx context.Context, query *model.StargazerQuery) (*model.StargazerPage, error) {
	var after any
	if query.After != "" {
		after = query.After
	}

	body := &graphqlRequest{
		Query: fmt.Sprintf(stargazerQuery, query.First, query.Direction),
		Variables: map[string]any{
			"owner": query.Source.Owner,
			"name":  query.Source.Name,
			"after": after,
		},
	}

	req, err := c.githubClient.NewRequest(http.MethodPost, c.graphqlURL, body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build GraphQL request", goerr.V("url", c.graphqlURL))
	}

	var resp stargazerResponse
	if _, err := c.githubClient.Do(ctx, req, &resp); err != nil {
		return nil, goerr.Wrap(err, "GraphQL request failed",
			goerr.V("source", query.Source.FullName()),
			goerr.V("after", query.After),
			goerr.T(types.ErrTagTransport),
		)
	}

	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return nil, goerr.New("GraphQL query returned errors",
			goerr.V("source", query.Source.FullName()),
			goerr.V("errors", strings.Join(messages, "; ")),
			goerr.T(types.ErrTagProtocol),
		)
	}

	repo := resp.Data.Repository
	if repo == nil {
		return &model.StargazerPage{Found: false}, nil
	}

	page := &model.StargazerPage{
		Found:       true,
		Edges:       make([]model.StargazerEdge, 0, len(repo.Stargazers.Edges)),
		HasNextPage: repo.Stargazers.PageInfo.HasNextPage,
	}
	if repo.Stargazers.PageInfo.EndCursor != nil {
		page.EndCursor = *repo.Stargazers.PageInfo.EndCursor
	}
	for _, e := range repo.Stargazers.Edges {
		page.Edges = append(page.Edges, model.StargazerEdge{
			StarredAt:  e.StarredAt.UTC(),
			Login:      e.Node.Login,
			DatabaseID: e.Node.DatabaseID,
		})
	}

	return page, nil
}
