package vkapi

import (
	"context"
	"net/url"
	"strconv"
	"vkposter/internal/assert"
)

// Client exposes the API methods the poster needs.
type Client struct {
	exec *Executor
}

func NewClient(exec *Executor) Client {
	assert.NotNil(exec)
	return Client{exec: exec}
}

func userRequest(s Session, method string, params url.Values) Request {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", s.AccessToken)
	return Request{Endpoint: EndpointAPI, Method: method, Params: params}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// GetTags returns the user's bookmark tags.
func (c Client) GetTags(ctx context.Context, s Session) ([]Tag, error) {
	res, err := Execute[ItemsResponse[Tag]](ctx, c.exec, userRequest(s, "fave.getTags", nil))
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// GetFavePages returns up to count bookmarked groups carrying the tag.
func (c Client) GetFavePages(ctx context.Context, s Session, tagID int64, count int) ([]FavePage, error) {
	res, err := Execute[ItemsResponse[FavePage]](ctx, c.exec, userRequest(s, "fave.getPages", url.Values{
		"type":   {"groups"},
		"tag_id": {itoa(tagID)},
		"fields": {"id,name"},
		"count":  {strconv.Itoa(count)},
	}))
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// GetTopics returns the discussion topics of a group.
func (c Client) GetTopics(ctx context.Context, s Session, groupID int64) ([]Topic, error) {
	res, err := Execute[ItemsResponse[Topic]](ctx, c.exec, userRequest(s, "board.getTopics", url.Values{
		"group_id": {itoa(groupID)},
		"extended": {flag(false)},
	}))
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// GetComments returns a page of comments together with the topic's total comment count.
func (c Client) GetComments(ctx context.Context, s Session, groupID, topicID int64, offset, count int) (ItemsResponse[Comment], error) {
	return Execute[ItemsResponse[Comment]](ctx, c.exec, userRequest(s, "board.getComments", url.Values{
		"group_id": {itoa(groupID)},
		"topic_id": {itoa(topicID)},
		"offset":   {strconv.Itoa(offset)},
		"count":    {strconv.Itoa(count)},
	}))
}

type CommentRequest struct {
	GroupID int64
	TopicID int64
	Message string
	GUID    string
}

// CreateComment comments a topic as the user and returns the new comment id.
func (c Client) CreateComment(ctx context.Context, s Session, req CommentRequest) (int64, error) {
	id, err := Execute[CommentID](ctx, c.exec, userRequest(s, "board.createComment", url.Values{
		"group_id":   {itoa(req.GroupID)},
		"topic_id":   {itoa(req.TopicID)},
		"message":    {req.Message},
		"from_group": {flag(false)},
		"guid":       {req.GUID},
	}))
	return int64(id), err
}

// GetWallPosts returns up to count posts of a group's wall.
func (c Client) GetWallPosts(ctx context.Context, s Session, groupID int64, filter WallFilter, count int) ([]WallPost, error) {
	res, err := Execute[ItemsResponse[WallPost]](ctx, c.exec, userRequest(s, "wall.get", url.Values{
		"owner_id": {itoa(-groupID)},
		"filter":   {string(filter)},
		"count":    {strconv.Itoa(count)},
	}))
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

type WallPostRequest struct {
	GroupID int64
	Message string
	GUID    string
}

// CreateWallPost posts (or suggests) a signed message on a group's wall as the
// user and returns the new post id.
func (c Client) CreateWallPost(ctx context.Context, s Session, req WallPostRequest) (int64, error) {
	res, err := Execute[PostResponse](ctx, c.exec, userRequest(s, "wall.post", url.Values{
		"owner_id":     {itoa(-req.GroupID)},
		"from_group":   {flag(false)},
		"friends_only": {flag(false)},
		"signed":       {flag(true)},
		"mark_as_ads":  {flag(false)},
		"guid":         {req.GUID},
		"message":      {req.Message},
	}))
	if err != nil {
		return 0, err
	}
	return *res.PostID, nil
}

type CodeExchange struct {
	AppID        int64
	ClientSecret string
	RedirectURI  string
	Code         string
}

// ExchangeCode trades an authorization code for an access token.
func (c Client) ExchangeCode(ctx context.Context, req CodeExchange) (AuthResponse, error) {
	return Execute[AuthResponse](ctx, c.exec, Request{
		Endpoint: EndpointOAuth,
		Method:   "access_token",
		Params: url.Values{
			"client_id":     {itoa(req.AppID)},
			"client_secret": {req.ClientSecret},
			"redirect_uri":  {req.RedirectURI},
			"code":          {req.Code},
		},
	})
}
