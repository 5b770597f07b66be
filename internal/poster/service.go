package poster

import (
	"context"
	"strings"
	"vkposter/internal/assert"
	"vkposter/internal/config"
	"vkposter/internal/telemetry"
	"vkposter/internal/vkapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("vkposter/poster")

const (
	report_service_get_tags       = "service.get-tags"
	report_service_get_fave_pages = "service.get-fave-pages"
)

// API is the subset of the remote API the poster uses, vkapi.Client implements it.
//
// note: fault injection point
type API interface {
	GetTags(ctx context.Context, s vkapi.Session) ([]vkapi.Tag, error)
	GetFavePages(ctx context.Context, s vkapi.Session, tagID int64, count int) ([]vkapi.FavePage, error)
	GetTopics(ctx context.Context, s vkapi.Session, groupID int64) ([]vkapi.Topic, error)
	GetComments(ctx context.Context, s vkapi.Session, groupID, topicID int64, offset, count int) (vkapi.ItemsResponse[vkapi.Comment], error)
	CreateComment(ctx context.Context, s vkapi.Session, req vkapi.CommentRequest) (int64, error)
	GetWallPosts(ctx context.Context, s vkapi.Session, groupID int64, filter vkapi.WallFilter, count int) ([]vkapi.WallPost, error)
	CreateWallPost(ctx context.Context, s vkapi.Session, req vkapi.WallPostRequest) (int64, error)
}

type Options struct {
	Message string
	Marker  string
	Tags    []string

	PostToGroups       bool
	PostToGroupsTopics bool

	TagPagesQuerySize   int
	GroupPostQuerySize  int
	GroupTopicQuerySize int

	ExcludedGroups map[int64]struct{}
	ExcludedTopics map[int64]map[int64]struct{}
}

// OptionsFromConfig expects a config that went through config.Load.
func OptionsFromConfig(cfg config.Poster) Options {
	return Options{
		Message:             cfg.Message,
		Marker:              cfg.Marker,
		Tags:                cfg.Tags,
		PostToGroups:        cfg.PostToGroups != nil && *cfg.PostToGroups,
		PostToGroupsTopics:  cfg.PostToGroupsTopics != nil && *cfg.PostToGroupsTopics,
		TagPagesQuerySize:   cfg.TagPagesQuerySize,
		GroupPostQuerySize:  cfg.GroupPostQuerySize,
		GroupTopicQuerySize: cfg.GroupTopicQuerySize,
		ExcludedGroups:      cfg.ExcludedGroupSet(),
		ExcludedTopics:      cfg.ExcludedTopicSets(),
	}
}

// Service walks tags -> bookmarked groups -> topics and posts the message
// wherever it is not there yet.
type Service struct {
	api     API
	session vkapi.Session
	opts    Options
	pacer   Pacer
	tel     telemetry.API
}

func NewService(api API, session vkapi.Session, opts Options, pacer Pacer, tel telemetry.API) Service {
	assert.NotNil(api)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Marker)
	assert.Positive("tag pages query size", opts.TagPagesQuerySize)
	assert.Positive("group post query size", opts.GroupPostQuerySize)
	assert.Positive("group topic query size", opts.GroupTopicQuerySize)

	return Service{
		api:     api,
		session: session,
		opts:    opts,
		pacer:   pacer,
		tel:     telemetry.NewScopedAPI("poster", tel),
	}
}

func containsMarker(text, marker string) bool {
	return strings.Contains(text, marker)
}

// Run performs a single pass over every group found under the allowed tags.
//
// Remote failures are reported and skipped, the only error Run returns is
// the context's once it is done.
func (s Service) Run(ctx context.Context) (Report, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	var report Report

	groups, err := s.collectGroups(ctx, &report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "interrupted")
		return report, err
	}
	s.tel.ReportInfo("groups selected", "tags", report.Tags, "groups", len(groups))

	for _, group := range groups {
		err = s.processGroup(ctx, group, &report)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "interrupted")
			return report, err
		}
	}

	return report, nil
}

func (s Service) collectGroups(ctx context.Context, report *Report) ([]vkapi.Group, error) {
	tags, err := s.api.GetTags(ctx, s.session)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.tel.ReportBroken(report_service_get_tags, err)
		return nil, nil
	}

	allowed := make(map[string]struct{}, len(s.opts.Tags))
	for _, name := range s.opts.Tags {
		allowed[name] = struct{}{}
	}

	var groups []vkapi.Group
	seen := map[int64]struct{}{}
	for _, tag := range tags {
		if _, ok := allowed[tag.Name]; !ok {
			continue
		}
		report.Tags++
		s.tel.ReportInfo("selected tag", "id", tag.ID, "name", tag.Name)

		pages, err := s.api.GetFavePages(ctx, s.session, tag.ID, s.opts.TagPagesQuerySize)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.tel.ReportBroken(report_service_get_fave_pages, tag.ID, err)
			continue
		}

		for _, page := range pages {
			report.Pages++
			if page.Group == nil {
				s.tel.ReportWarning(report_service_get_fave_pages, "bookmarked page has no group", tag.ID, page.Type)
				continue
			}
			if _, dup := seen[page.Group.ID]; dup {
				s.tel.ReportDebug("group is under several tags", "group_id", page.Group.ID)
				continue
			}
			seen[page.Group.ID] = struct{}{}
			groups = append(groups, *page.Group)
		}
	}

	return groups, nil
}

func groupAttrs(group vkapi.Group) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.Int64("group.id", group.ID),
		attribute.String("group.name", group.Name),
	)
}

func (s Service) processGroup(ctx context.Context, group vkapi.Group, report *Report) error {
	ctx, span := tracer.Start(ctx, "processGroup", groupAttrs(group))
	defer span.End()

	if _, excluded := s.opts.ExcludedGroups[group.ID]; excluded {
		s.tel.ReportInfo("processing group excluded", "group_id", group.ID, "name", group.Name)
		report.record(ctx, targetGroup, outcomeExcluded)
	} else {
		s.tel.ReportInfo("selected group", "group_id", group.ID, "name", group.Name)

		if s.opts.PostToGroupsTopics {
			err := s.commentTopics(ctx, group, report)
			if err != nil {
				return err
			}
		}
		if s.opts.PostToGroups {
			err := s.postToWall(ctx, group, report)
			if err != nil {
				return err
			}
		}
	}

	return s.pacer.Pause(ctx)
}
