package poster

import (
	"context"
	"fmt"
	"vkposter/internal/vkapi"
)

const (
	report_wall_find_post   = "wall.find-post"
	report_wall_create_post = "wall.create-post"
)

// findWallPost looks for the marker among the suggested posts first, then
// among all posts. A nil post with a nil error means there is none.
func (s Service) findWallPost(ctx context.Context, groupID int64) (*vkapi.WallPost, error) {
	for _, filter := range []vkapi.WallFilter{vkapi.WallFilterSuggests, vkapi.WallFilterAll} {
		posts, err := s.api.GetWallPosts(ctx, s.session, groupID, filter, s.opts.GroupPostQuerySize)
		if err != nil {
			return nil, fmt.Errorf("%s wall posts: %w", filter, err)
		}
		for i := range posts {
			if containsMarker(posts[i].Text, s.opts.Marker) {
				recordLookup(ctx, targetWall, true)
				return &posts[i], nil
			}
		}
	}
	recordLookup(ctx, targetWall, false)
	return nil, nil
}

func wallGUID(userID, groupID int64) string {
	return fmt.Sprintf("%d%d", userID, groupID)
}

// postToWall publishes the message on the group's wall unless an earlier post
// is found. It only returns an error when ctx is done.
func (s Service) postToWall(ctx context.Context, group vkapi.Group, report *Report) error {
	existing, err := s.findWallPost(ctx, group.ID)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.tel.ReportBroken(report_wall_find_post, group.ID, err)
		report.record(ctx, targetWall, outcomeFailed)
	case existing != nil:
		s.tel.ReportInfo("post already exists", "group_id", group.ID, "post_id", existing.ID)
		report.record(ctx, targetWall, outcomeExisting)
	default:
		err = s.createWallPost(ctx, group, report)
		if err != nil {
			return err
		}
	}

	return s.pacer.Cooldown(ctx)
}

func (s Service) createWallPost(ctx context.Context, group vkapi.Group, report *Report) error {
	postID, err := s.api.CreateWallPost(ctx, s.session, vkapi.WallPostRequest{
		GroupID: group.ID,
		Message: s.opts.Message,
		GUID:    wallGUID(s.session.UserID, group.ID),
	})
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.tel.ReportBroken(report_wall_create_post, group.ID, err)
		report.record(ctx, targetWall, outcomeFailed)
	case postID <= 0:
		s.tel.ReportBroken(report_wall_create_post, group.ID, "post was not created")
		report.record(ctx, targetWall, outcomeFailed)
	default:
		s.tel.ReportInfo("group message posted", "group_id", group.ID, "post_id", postID)
		report.record(ctx, targetWall, outcomePosted)
	}
	return nil
}
