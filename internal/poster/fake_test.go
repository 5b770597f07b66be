package poster

import (
	"context"
	"fmt"
	"time"
	"vkposter/internal/vkapi"
)

type call struct {
	Method string
	Args   []any
}

// fakeAPI serves canned data and records every call in order.
type fakeAPI struct {
	tags     []vkapi.Tag
	pages    map[int64][]vkapi.FavePage
	topics   map[int64][]vkapi.Topic
	comments map[[2]int64][]vkapi.Comment
	wall     map[int64]map[vkapi.WallFilter][]vkapi.WallPost

	// failures maps a method name to the error it returns.
	failures map[string]error
	// onCall runs before every call, tests use it to cancel the run.
	onCall func(method string)

	nextID int64
	calls  []call
}

func (f *fakeAPI) record(method string, args ...any) error {
	f.calls = append(f.calls, call{Method: method, Args: args})
	if f.onCall != nil {
		f.onCall(method)
	}
	return f.failures[method]
}

func (f *fakeAPI) called(method string) []call {
	var out []call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) GetTags(_ context.Context, _ vkapi.Session) ([]vkapi.Tag, error) {
	if err := f.record("GetTags"); err != nil {
		return nil, err
	}
	return f.tags, nil
}

func (f *fakeAPI) GetFavePages(_ context.Context, _ vkapi.Session, tagID int64, count int) ([]vkapi.FavePage, error) {
	if err := f.record("GetFavePages", tagID, count); err != nil {
		return nil, err
	}
	return f.pages[tagID], nil
}

func (f *fakeAPI) GetTopics(_ context.Context, _ vkapi.Session, groupID int64) ([]vkapi.Topic, error) {
	if err := f.record("GetTopics", groupID); err != nil {
		return nil, err
	}
	return f.topics[groupID], nil
}

func (f *fakeAPI) GetComments(_ context.Context, _ vkapi.Session, groupID, topicID int64, offset, count int) (vkapi.ItemsResponse[vkapi.Comment], error) {
	if err := f.record("GetComments", groupID, topicID, offset, count); err != nil {
		return vkapi.ItemsResponse[vkapi.Comment]{}, err
	}
	all := f.comments[[2]int64{groupID, topicID}]
	total := len(all)

	var items []vkapi.Comment
	if offset < total {
		end := min(offset+count, total)
		items = all[offset:end]
	}
	return vkapi.ItemsResponse[vkapi.Comment]{Count: &total, Items: items}, nil
}

func (f *fakeAPI) CreateComment(_ context.Context, _ vkapi.Session, req vkapi.CommentRequest) (int64, error) {
	if err := f.record("CreateComment", req); err != nil {
		return 0, err
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeAPI) GetWallPosts(_ context.Context, _ vkapi.Session, groupID int64, filter vkapi.WallFilter, count int) ([]vkapi.WallPost, error) {
	if err := f.record("GetWallPosts", groupID, filter, count); err != nil {
		return nil, err
	}
	return f.wall[groupID][filter], nil
}

func (f *fakeAPI) CreateWallPost(_ context.Context, _ vkapi.Session, req vkapi.WallPostRequest) (int64, error) {
	if err := f.record("CreateWallPost", req); err != nil {
		return 0, err
	}
	f.nextID++
	return f.nextID, nil
}

// recordingSleeper returns immediately and remembers every requested delay.
type recordingSleeper struct {
	sleeps []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.sleeps = append(r.sleeps, d)
	return ctx.Err()
}

func (r *recordingSleeper) units(interval time.Duration) []int {
	out := make([]int, len(r.sleeps))
	for i, d := range r.sleeps {
		out[i] = int(d / interval)
	}
	return out
}

func group(id int64) *vkapi.Group {
	return &vkapi.Group{ID: id, Name: fmt.Sprintf("group %d", id)}
}
