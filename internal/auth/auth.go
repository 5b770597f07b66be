package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"vkposter/internal/assert"
	"vkposter/internal/config"
	"vkposter/internal/prompt"
	"vkposter/internal/telemetry"
	"vkposter/internal/vkapi"
	"vkposter/lib/oauth"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("vkposter/auth")

var ErrAuthenticationFailed = errors.New("authentication failed")

const (
	report_authenticator_code_exchange = "authenticator.code-exchange"
	report_authenticator_authorize_url = "authenticator.authorize-url"
)

// CodeExchanger trades an authorization code for a token.
//
// note: fault injection point
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, req vkapi.CodeExchange) (vkapi.AuthResponse, error)
}

// Authenticator produces the session every other call is made with.
type Authenticator struct {
	exchanger    CodeExchanger
	prompter     prompt.Prompter
	oauthBaseURL string
	tel          telemetry.API
}

func NewAuthenticator(exchanger CodeExchanger, prompter prompt.Prompter, oauthBaseURL string, tel telemetry.API) Authenticator {
	assert.NotNil(exchanger)
	assert.NotNil(prompter)
	assert.NotNil(tel)
	assert.NotEmptyStr(oauthBaseURL)

	return Authenticator{
		exchanger:    exchanger,
		prompter:     prompter,
		oauthBaseURL: oauthBaseURL,
		tel:          telemetry.NewScopedAPI("auth", tel),
	}
}

// Authenticate runs the flow selected by cfg.Type, asking the operator for
// anything cfg leaves out.
//
// Every failure matches ErrAuthenticationFailed except an interruption, which
// is returned as the context's error.
func (a Authenticator) Authenticate(ctx context.Context, cfg config.Auth) (vkapi.Session, error) {
	ctx, span := tracer.Start(ctx, "Authenticate")
	defer span.End()
	span.SetAttributes(attribute.String("auth_type", string(cfg.Type)))

	var (
		session vkapi.Session
		err     error
	)
	switch cfg.Type {
	case config.AuthCode:
		session, err = a.exchangeCode(ctx, cfg)
	case config.AuthToken:
		session, err = a.directToken(ctx, cfg)
	default:
		err = fmt.Errorf("unknown auth type %q", cfg.Type)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to authenticate")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return vkapi.Session{}, ctxErr
		}
		return vkapi.Session{}, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	span.SetAttributes(attribute.Int64("user_id", session.UserID))
	a.tel.ReportInfo("authenticated", "user_id", session.UserID)
	return session, nil
}

func (a Authenticator) exchangeCode(ctx context.Context, cfg config.Auth) (vkapi.Session, error) {
	appID, err := a.askIntIfZero(ctx, cfg.AppID, "Enter app id")
	if err != nil {
		return vkapi.Session{}, err
	}
	secret, err := a.askIfBlank(ctx, cfg.ClientSecret, "Enter client secret")
	if err != nil {
		return vkapi.Session{}, err
	}

	code := cfg.Code
	if strings.TrimSpace(code) == "" {
		err = a.showAuthorizeURL(ctx, appID, cfg.RedirectURI, oauth.ResponseTypeCode)
		if err != nil {
			return vkapi.Session{}, err
		}
		code, err = a.ask(ctx, "Enter code")
		if err != nil {
			return vkapi.Session{}, err
		}
	}

	res, err := a.exchanger.ExchangeCode(ctx, vkapi.CodeExchange{
		AppID:        appID,
		ClientSecret: secret,
		RedirectURI:  cfg.RedirectURI,
		Code:         code,
	})
	if err != nil {
		var remote *vkapi.RemoteError
		if errors.As(err, &remote) && remote.IsRedirect() {
			a.tel.ReportBroken(report_authenticator_code_exchange, "validation required, continue in a browser", remote.RedirectURI)
		} else {
			a.tel.ReportBroken(report_authenticator_code_exchange, err)
		}
		return vkapi.Session{}, err
	}

	return vkapi.Session{UserID: *res.UserID, AccessToken: res.AccessToken}, nil
}

func (a Authenticator) directToken(ctx context.Context, cfg config.Auth) (vkapi.Session, error) {
	if cfg.UserID != 0 && strings.TrimSpace(cfg.AccessToken) != "" {
		return vkapi.Session{UserID: cfg.UserID, AccessToken: cfg.AccessToken}, nil
	}

	appID, err := a.askIntIfZero(ctx, cfg.AppID, "Enter app id")
	if err != nil {
		return vkapi.Session{}, err
	}
	err = a.showAuthorizeURL(ctx, appID, cfg.RedirectURI, oauth.ResponseTypeToken)
	if err != nil {
		return vkapi.Session{}, err
	}

	token, err := a.askIfBlank(ctx, cfg.AccessToken, "Enter access token")
	if err != nil {
		return vkapi.Session{}, err
	}
	userID, err := a.askIntIfZero(ctx, cfg.UserID, "Enter user id")
	if err != nil {
		return vkapi.Session{}, err
	}

	return vkapi.Session{UserID: userID, AccessToken: token}, nil
}

func (a Authenticator) showAuthorizeURL(ctx context.Context, appID int64, redirectURI, responseType string) error {
	authorizeURL, err := oauth.GetAuthorizeUrl(ctx, oauth.AuthorizeRequest{
		ClientId:     strconv.FormatInt(appID, 10),
		RedirectUri:  redirectURI,
		ResponseType: responseType,
	}, a.oauthBaseURL)
	if err != nil {
		a.tel.ReportBroken(report_authenticator_authorize_url, err)
		return err
	}
	a.tel.ReportInfo("open this url to authorize the app", "url", authorizeURL)
	return nil
}

func (a Authenticator) ask(ctx context.Context, label string) (string, error) {
	value, err := a.prompter.Prompt(ctx, label)
	if err != nil {
		return "", fmt.Errorf("prompt %q: %w", label, err)
	}
	return value, nil
}

func (a Authenticator) askIfBlank(ctx context.Context, current, label string) (string, error) {
	if strings.TrimSpace(current) != "" {
		return current, nil
	}
	return a.ask(ctx, label)
}

func (a Authenticator) askIntIfZero(ctx context.Context, current int64, label string) (int64, error) {
	if current != 0 {
		return current, nil
	}
	raw, err := a.ask(ctx, label)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", label, raw)
	}
	return value, nil
}
