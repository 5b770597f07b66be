package vkapi

// Session is the identity every user-scoped call is made on behalf of.
type Session struct {
	UserID      int64
	AccessToken string
}

// Result is implemented by the pointer of every shape Decode can produce.
type Result interface {
	// MissingFields lists the required fields that were absent in the response.
	MissingFields() []string
}

type resultPtr[T any] interface {
	*T
	Result
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Group struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

type FavePage struct {
	Type  string `json:"type"`
	Group *Group `json:"group"`
}

type Topic struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type Comment struct {
	ID     int64  `json:"id"`
	FromID int64  `json:"from_id"`
	Date   int64  `json:"date"`
	Text   string `json:"text"`
}

type WallPost struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"owner_id"`
	FromID  int64  `json:"from_id"`
	Date    int64  `json:"date"`
	Text    string `json:"text"`
}

// ItemsResponse is the paginated list shape shared by every list method.
type ItemsResponse[T any] struct {
	Count *int `json:"count"`
	Items []T  `json:"items"`
}

func (r *ItemsResponse[T]) MissingFields() []string {
	var missing []string
	if r.Count == nil {
		missing = append(missing, "count")
	}
	if r.Items == nil {
		missing = append(missing, "items")
	}
	return missing
}

// Total returns the total number of items on the server, not len(Items).
func (r ItemsResponse[T]) Total() int {
	if r.Count == nil {
		return 0
	}
	return *r.Count
}

type PostResponse struct {
	PostID *int64 `json:"post_id"`
}

func (r *PostResponse) MissingFields() []string {
	if r.PostID == nil {
		return []string{"post_id"}
	}
	return nil
}

// CommentID is the bare integer board.createComment responds with.
type CommentID int64

func (*CommentID) MissingFields() []string {
	return nil
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      *int64 `json:"user_id"`
}

func (r *AuthResponse) MissingFields() []string {
	var missing []string
	if r.AccessToken == "" {
		missing = append(missing, "access_token")
	}
	if r.UserID == nil {
		missing = append(missing, "user_id")
	}
	return missing
}

// WallFilter selects which wall posts wall.get returns.
type WallFilter string

const (
	WallFilterAll      WallFilter = "all"
	WallFilterSuggests WallFilter = "suggests"
)
