package poster

import (
	"context"
	"fmt"
	"vkposter/internal/vkapi"
)

const (
	report_topics_get_topics     = "topics.get-topics"
	report_topics_find_comment   = "topics.find-comment"
	report_topics_create_comment = "topics.create-comment"
)

// commentWindow returns the page that straddles the last page of a topic
// holding total comments, so comments added between the count query and
// the fetch are still covered.
func commentWindow(total, pageSize int) (offset, count int) {
	if total > 0 {
		offset = ((total - 1) / pageSize) * pageSize
	}
	return offset, 2 * pageSize
}

func topicGUID(userID, groupID, topicID int64) string {
	return fmt.Sprintf("%d%d%d", userID, groupID, topicID)
}

func (s Service) findComment(ctx context.Context, groupID, topicID int64) (*vkapi.Comment, error) {
	head, err := s.api.GetComments(ctx, s.session, groupID, topicID, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	offset, count := commentWindow(head.Total(), s.opts.GroupTopicQuerySize)
	window, err := s.api.GetComments(ctx, s.session, groupID, topicID, offset, count)
	if err != nil {
		return nil, fmt.Errorf("comments at %d: %w", offset, err)
	}

	for i := range window.Items {
		if containsMarker(window.Items[i].Text, s.opts.Marker) {
			recordLookup(ctx, targetTopic, true)
			return &window.Items[i], nil
		}
	}
	recordLookup(ctx, targetTopic, false)
	return nil, nil
}

// commentTopics comments every topic of the group that isn't excluded. It
// only returns an error when ctx is done.
func (s Service) commentTopics(ctx context.Context, group vkapi.Group, report *Report) error {
	topics, err := s.api.GetTopics(ctx, s.session, group.ID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.tel.ReportBroken(report_topics_get_topics, group.ID, err)
		return nil
	}

	excluded := s.opts.ExcludedTopics[group.ID]
	for _, topic := range topics {
		if _, skip := excluded[topic.ID]; skip {
			s.tel.ReportInfo("processing topic excluded", "group_id", group.ID, "topic_id", topic.ID)
			report.record(ctx, targetTopic, outcomeExcluded)
		} else {
			err = s.commentTopic(ctx, group, topic, report)
			if err != nil {
				return err
			}
		}

		err = s.pacer.Pause(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s Service) commentTopic(ctx context.Context, group vkapi.Group, topic vkapi.Topic, report *Report) error {
	s.tel.ReportInfo("selected topic", "group_id", group.ID, "topic_id", topic.ID, "title", topic.Title)

	existing, err := s.findComment(ctx, group.ID, topic.ID)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.tel.ReportBroken(report_topics_find_comment, group.ID, topic.ID, err)
		report.record(ctx, targetTopic, outcomeFailed)
	case existing != nil:
		s.tel.ReportInfo("topic comment already exists", "group_id", group.ID, "topic_id", topic.ID, "comment_id", existing.ID)
		report.record(ctx, targetTopic, outcomeExisting)
	default:
		commentID, err := s.api.CreateComment(ctx, s.session, vkapi.CommentRequest{
			GroupID: group.ID,
			TopicID: topic.ID,
			Message: s.opts.Message,
			GUID:    topicGUID(s.session.UserID, group.ID, topic.ID),
		})
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.tel.ReportBroken(report_topics_create_comment, group.ID, topic.ID, err)
			report.record(ctx, targetTopic, outcomeFailed)
		case commentID <= 0:
			s.tel.ReportBroken(report_topics_create_comment, group.ID, topic.ID, "comment was not created")
			report.record(ctx, targetTopic, outcomeFailed)
		default:
			s.tel.ReportInfo("topic comment posted", "group_id", group.ID, "topic_id", topic.ID, "comment_id", commentID)
			report.record(ctx, targetTopic, outcomePosted)
		}
	}

	return s.pacer.Cooldown(ctx)
}
