package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"vkposter/internal/telemetry"
	"vkposter/lib/configutil"

	"dario.cat/mergo"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type AuthType string

const (
	// AuthCode exchanges an authorization code for a token.
	AuthCode AuthType = "CODE"
	// AuthToken uses a token (and user id) supplied directly.
	AuthToken AuthType = "TOKEN"
)

type Auth struct {
	Type         AuthType `json:"auth_type" yaml:"auth_type"`
	AppID        int64    `json:"app_id" yaml:"app_id"`
	ClientSecret string   `json:"client_secret" yaml:"client_secret"`
	RedirectURI  string   `json:"redirect_uri" yaml:"redirect_uri"`
	Code         string   `json:"code" yaml:"code"`
	UserID       int64    `json:"user_id" yaml:"user_id"`
	AccessToken  string   `json:"access_token" yaml:"access_token"`
}

type TopicExclusion struct {
	GroupID int64   `json:"group_id" yaml:"group_id"`
	Topics  []int64 `json:"topics" yaml:"topics"`
}

type Poster struct {
	Message string `json:"post_message" yaml:"post_message"`
	// Marker is the fragment that recognizes a post made by an earlier run.
	Marker string   `json:"post_message_query" yaml:"post_message_query"`
	Tags   []string `json:"tags" yaml:"tags"`

	PostToGroups       *bool `json:"post_to_groups" yaml:"post_to_groups"`
	PostToGroupsTopics *bool `json:"post_to_groups_topics" yaml:"post_to_groups_topics"`

	TagPagesQuerySize   int `json:"tag_pages_query_size" yaml:"tag_pages_query_size"`
	GroupPostQuerySize  int `json:"group_post_query_size" yaml:"group_post_query_size"`
	GroupTopicQuerySize int `json:"group_topic_query_size" yaml:"group_topic_query_size"`
	// QueryInterval is in milliseconds.
	QueryInterval int64 `json:"query_interval" yaml:"query_interval"`

	ExcludedGroups []int64          `json:"excluded_groups" yaml:"excluded_groups"`
	ExcludedTopics []TopicExclusion `json:"excluded_topics" yaml:"excluded_topics"`
}

func (p Poster) Interval() time.Duration {
	return time.Duration(p.QueryInterval) * time.Millisecond
}

// ExcludedGroupSet returns the excluded group ids as a set.
func (p Poster) ExcludedGroupSet() map[int64]struct{} {
	out := make(map[int64]struct{}, len(p.ExcludedGroups))
	for _, id := range p.ExcludedGroups {
		out[id] = struct{}{}
	}
	return out
}

// ExcludedTopicSets returns, for each group, the set of its excluded topic ids.
// repeated entries for a group are merged.
func (p Poster) ExcludedTopicSets() map[int64]map[int64]struct{} {
	out := make(map[int64]map[int64]struct{}, len(p.ExcludedTopics))
	for _, entry := range p.ExcludedTopics {
		set, ok := out[entry.GroupID]
		if !ok {
			set = make(map[int64]struct{}, len(entry.Topics))
			out[entry.GroupID] = set
		}
		for _, topic := range entry.Topics {
			set[topic] = struct{}{}
		}
	}
	return out
}

type API struct {
	BaseURL              string `json:"base_url" yaml:"base_url"`
	OAuthURL             string `json:"oauth_url" yaml:"oauth_url"`
	Version              string `json:"version" yaml:"version"`
	TimeoutSeconds       int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	ChallengeMaxAttempts int    `json:"challenge_max_attempts" yaml:"challenge_max_attempts"`
}

func (a API) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type Config struct {
	Auth      Auth             `json:"auth" yaml:"auth"`
	Poster    Poster           `json:"poster" yaml:"poster"`
	API       API              `json:"api" yaml:"api"`
	Telemetry telemetry.Config `json:"telemetry" yaml:"telemetry"`
}

func boolPtr(v bool) *bool {
	return &v
}

// Defaults returns the values used for every field a config file leaves out.
func Defaults() Config {
	return Config{
		Auth: Auth{
			Type:        AuthToken,
			RedirectURI: "https://oauth.vk.com/blank.html",
		},
		Poster: Poster{
			PostToGroups:        boolPtr(true),
			PostToGroupsTopics:  boolPtr(false),
			TagPagesQuerySize:   100,
			GroupPostQuerySize:  20,
			GroupTopicQuerySize: 10,
			QueryInterval:       1000,
		},
		API: API{
			BaseURL:              "https://api.vk.com/method",
			OAuthURL:             "https://oauth.vk.com",
			Version:              "5.131",
			TimeoutSeconds:       30,
			ChallengeMaxAttempts: 3,
		},
	}
}

// WithDefaults fills every unset field of c from Defaults. A flag set to false
// is not unset.
func (c Config) WithDefaults() (Config, error) {
	err := mergo.Merge(&c, Defaults(), mergo.WithoutDereference)
	if err != nil {
		return c, err
	}
	return c, nil
}

const (
	minQuerySize     = 1
	maxQuerySize     = 100
	minQueryInterval = 100
)

func checkQuerySize(field string, value int) error {
	if value < minQuerySize || value > maxQuerySize {
		return fmt.Errorf("%s must be within [%d, %d], got %d", field, minQuerySize, maxQuerySize, value)
	}
	return nil
}

func checkNotBlank(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be blank", field)
	}
	return nil
}

// Validate reports every violation at once, the result matches ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error

	switch c.Auth.Type {
	case AuthCode, AuthToken:
	default:
		errs = append(errs, fmt.Errorf("auth.auth_type must be %s or %s, got %q", AuthCode, AuthToken, c.Auth.Type))
	}

	errs = append(errs,
		checkNotBlank("auth.redirect_uri", c.Auth.RedirectURI),
		checkNotBlank("poster.post_message", c.Poster.Message),
		checkNotBlank("poster.post_message_query", c.Poster.Marker),
		checkQuerySize("poster.tag_pages_query_size", c.Poster.TagPagesQuerySize),
		checkQuerySize("poster.group_post_query_size", c.Poster.GroupPostQuerySize),
		checkQuerySize("poster.group_topic_query_size", c.Poster.GroupTopicQuerySize),
		checkNotBlank("api.base_url", c.API.BaseURL),
		checkNotBlank("api.oauth_url", c.API.OAuthURL),
		checkNotBlank("api.version", c.API.Version),
	)

	if len(c.Poster.Tags) == 0 {
		errs = append(errs, errors.New("poster.tags must not be empty"))
	}
	if c.Poster.QueryInterval < minQueryInterval {
		errs = append(errs, fmt.Errorf("poster.query_interval must be at least %d ms, got %d", minQueryInterval, c.Poster.QueryInterval))
	}
	if c.API.ChallengeMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("api.challenge_max_attempts must be at least 1, got %d", c.API.ChallengeMaxAttempts))
	}
	if c.API.TimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("api.timeout_seconds must be at least 1, got %d", c.API.TimeoutSeconds))
	}

	err := errors.Join(errs...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func read(path string) (Config, error) {
	if filepath.Base(path) == path {
		return configutil.ReadRecursively[Config](path)
	}
	return configutil.ReadConfig[Config](path)
}

// Load reads the config file at path (plus its `.local.` override), fills in
// defaults and validates the result. A bare file name is looked up in the
// working directory and then in each of its parents.
func Load(path string) (Config, error) {
	raw, err := read(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := raw.WithDefaults()
	if err != nil {
		return Config{}, err
	}
	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

// Masked returns a copy of c with its credentials hidden, for printing.
func (c Config) Masked() Config {
	c.Auth.ClientSecret = mask(c.Auth.ClientSecret)
	c.Auth.Code = mask(c.Auth.Code)
	c.Auth.AccessToken = mask(c.Auth.AccessToken)
	return c
}
