package poster

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("vkposter/poster")

var postCounter, _ = meter.Int64Counter(
	"vkposter.posts",
	metric.WithDescription("wall posts and topic comments by outcome"),
)

var lookupCounter, _ = meter.Int64Counter(
	"vkposter.lookups",
	metric.WithDescription("duplicate lookups by target and result"),
)

type target string

const (
	targetGroup target = "group"
	targetWall  target = "wall"
	targetTopic target = "topic"
)

type outcome string

const (
	outcomePosted   outcome = "posted"
	outcomeExisting outcome = "existing"
	outcomeExcluded outcome = "excluded"
	outcomeFailed   outcome = "failed"
)

// Tally counts what happened to a kind of target during a run.
type Tally struct {
	Posted   int
	Existing int
	Excluded int
	Failed   int
}

func (t *Tally) add(o outcome) {
	switch o {
	case outcomePosted:
		t.Posted++
	case outcomeExisting:
		t.Existing++
	case outcomeExcluded:
		t.Excluded++
	case outcomeFailed:
		t.Failed++
	}
}

// Report summarizes a run. Groups counts wall posts, Topics counts topic
// comments (and excluded topics). ExcludedGroups counts groups skipped whole.
type Report struct {
	Tags           int
	Pages          int
	ExcludedGroups int
	Groups         Tally
	Topics         Tally
}

func (r *Report) record(ctx context.Context, t target, o outcome) {
	switch t {
	case targetGroup:
		if o == outcomeExcluded {
			r.ExcludedGroups++
		}
	case targetWall:
		r.Groups.add(o)
	case targetTopic:
		r.Topics.add(o)
	}
	postCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", string(t)),
		attribute.String("outcome", string(o)),
	))
}

func recordLookup(ctx context.Context, t target, found bool) {
	lookupCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", string(t)),
		attribute.Bool("found", found),
	))
}
