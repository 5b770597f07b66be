package oauth

import (
	"context"
	"net/url"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("vkposter/lib/oauth")

const (
	// DefaultScope requests every user permission except the messages scope.
	DefaultScope = "268431359"
	// DisplayPage renders the authorization dialog as a full page.
	DisplayPage = "page"

	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

type AuthorizeRequest struct {
	ClientId    string
	RedirectUri string
	Scope       string
	Display     string
	// ResponseType defaults to ResponseTypeCode.
	ResponseType string
	// State is generated when empty.
	State string
}

// GetAuthorizeUrl builds the url of the authorization dialog at `<baseUrl>/authorize`,
// the operator opens it to obtain a code or a token.
func GetAuthorizeUrl(ctx context.Context, req AuthorizeRequest, baseUrl string) (string, error) {
	_, span := tracer.Start(ctx, "GetAuthorizeUrl")
	defer span.End()

	endpoint, err := url.Parse(baseUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse base authorize url")
		return "", err
	}
	endpoint = endpoint.JoinPath("authorize")

	if req.Scope == "" {
		req.Scope = DefaultScope
	}
	if req.Display == "" {
		req.Display = DisplayPage
	}
	if req.ResponseType == "" {
		req.ResponseType = ResponseTypeCode
	}
	if req.State == "" {
		req.State, err = random.String(8)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to generate state")
			return "", err
		}
	}

	values := endpoint.Query()
	values.Set("client_id", req.ClientId)
	values.Set("redirect_uri", req.RedirectUri)
	values.Set("display", req.Display)
	values.Set("scope", req.Scope)
	values.Set("response_type", req.ResponseType)
	values.Set("state", req.State)

	span.SetAttributes(
		attribute.String("client_id", req.ClientId),
		attribute.String("redirect_uri", req.RedirectUri),
		attribute.String("scope", req.Scope),
		attribute.String("response_type", req.ResponseType),
		attribute.String("state", req.State),
	)

	endpoint.RawQuery = values.Encode()

	return endpoint.String(), nil
}
