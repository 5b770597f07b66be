package auth

import (
	"context"
	"errors"
	"testing"
	"vkposter/internal/config"
	"vkposter/internal/telemetry"
	"vkposter/internal/vkapi"

	"github.com/stretchr/testify/require"
)

type scriptedPrompter struct {
	answers map[string]string
	labels  []string
	err     error
}

func (p *scriptedPrompter) Prompt(_ context.Context, label string) (string, error) {
	p.labels = append(p.labels, label)
	if p.err != nil {
		return "", p.err
	}
	answer, ok := p.answers[label]
	if !ok {
		return "", errors.New("unexpected prompt " + label)
	}
	return answer, nil
}

type fakeExchanger struct {
	requests []vkapi.CodeExchange
	res      vkapi.AuthResponse
	err      error
}

func (f *fakeExchanger) ExchangeCode(_ context.Context, req vkapi.CodeExchange) (vkapi.AuthResponse, error) {
	f.requests = append(f.requests, req)
	return f.res, f.err
}

func userID(v int64) *int64 {
	return &v
}

func newTestAuthenticator(exchanger CodeExchanger, prompter *scriptedPrompter, tel telemetry.API) Authenticator {
	return NewAuthenticator(exchanger, prompter, "https://oauth.vk.com", tel)
}

func TestTokenFromConfig(t *testing.T) {
	prompter := &scriptedPrompter{}
	exchanger := &fakeExchanger{}
	a := newTestAuthenticator(exchanger, prompter, &telemetry.TestAPI{})

	session, err := a.Authenticate(context.Background(), config.Auth{
		Type:        config.AuthToken,
		UserID:      42,
		AccessToken: "token",
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, vkapi.Session{UserID: 42, AccessToken: "token"}, session)
	require.Empty(t, prompter.labels)
	require.Empty(t, exchanger.requests, "the token flow makes no remote call")
}

func TestTokenPromptsForMissingValues(t *testing.T) {
	prompter := &scriptedPrompter{answers: map[string]string{
		"Enter app id":       "7",
		"Enter access token": "typed-token",
		"Enter user id":      "42",
	}}
	tel := &telemetry.TestAPI{}
	a := newTestAuthenticator(&fakeExchanger{}, prompter, tel)

	session, err := a.Authenticate(context.Background(), config.Auth{
		Type:        config.AuthToken,
		RedirectURI: "https://oauth.vk.com/blank.html",
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, vkapi.Session{UserID: 42, AccessToken: "typed-token"}, session)
	require.Equal(t, []string{"Enter app id", "Enter access token", "Enter user id"}, prompter.labels)

	shown := tel.Find(telemetry.LevelInfo, "authorize the app")
	require.Len(t, shown, 1)
	require.Contains(t, shown[0].Params[1], "client_id=7")
}

func TestTokenRejectsNonNumericUserID(t *testing.T) {
	prompter := &scriptedPrompter{answers: map[string]string{
		"Enter user id": "durov",
	}}
	a := newTestAuthenticator(&fakeExchanger{}, prompter, &telemetry.TestAPI{})

	_, err := a.Authenticate(context.Background(), config.Auth{
		Type:        config.AuthToken,
		AppID:       7,
		AccessToken: "token",
	})
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	require.Contains(t, err.Error(), "durov")
}

func TestCodeExchange(t *testing.T) {
	prompter := &scriptedPrompter{answers: map[string]string{
		"Enter code": "one-time",
	}}
	exchanger := &fakeExchanger{res: vkapi.AuthResponse{AccessToken: "fresh", UserID: userID(42)}}
	a := newTestAuthenticator(exchanger, prompter, &telemetry.TestAPI{})

	session, err := a.Authenticate(context.Background(), config.Auth{
		Type:         config.AuthCode,
		AppID:        7,
		ClientSecret: "s3cr3t",
		RedirectURI:  "https://oauth.vk.com/blank.html",
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, vkapi.Session{UserID: 42, AccessToken: "fresh"}, session)
	require.Equal(t, []vkapi.CodeExchange{{
		AppID:        7,
		ClientSecret: "s3cr3t",
		RedirectURI:  "https://oauth.vk.com/blank.html",
		Code:         "one-time",
	}}, exchanger.requests)
}

func TestCodeExchangeRedirect(t *testing.T) {
	remote := vkapi.NewRemoteError(0, "need_validation", "open redirect_uri", nil)
	remote.RedirectURI = "https://m.vk.com/login?act=security_check"
	exchanger := &fakeExchanger{err: remote}
	tel := &telemetry.TestAPI{}
	a := newTestAuthenticator(exchanger, &scriptedPrompter{}, tel)

	_, err := a.Authenticate(context.Background(), config.Auth{
		Type:         config.AuthCode,
		AppID:        7,
		ClientSecret: "s3cr3t",
		Code:         "one-time",
	})
	require.ErrorIs(t, err, ErrAuthenticationFailed)

	var got *vkapi.RemoteError
	require.True(t, errors.As(err, &got))

	broken := tel.Find(telemetry.LevelBroken, report_authenticator_code_exchange)
	require.Len(t, broken, 1)
	require.Contains(t, broken[0].Params, remote.RedirectURI)
}

func TestInterruptedWhilePrompting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	prompter := &scriptedPrompter{err: context.Canceled}
	a := newTestAuthenticator(&fakeExchanger{}, prompter, &telemetry.TestAPI{})

	_, err := a.Authenticate(ctx, config.Auth{Type: config.AuthCode})
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrAuthenticationFailed)
}

func TestUnknownAuthType(t *testing.T) {
	a := newTestAuthenticator(&fakeExchanger{}, &scriptedPrompter{}, &telemetry.TestAPI{})
	_, err := a.Authenticate(context.Background(), config.Auth{Type: "PASSWORD"})
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}
