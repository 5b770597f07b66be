package vkapi

import (
	"context"
	"net/url"
	"strings"
	"time"
	"vkposter/internal/assert"
	"vkposter/internal/telemetry"
	"vkposter/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

type Endpoint int

const (
	// EndpointAPI addresses `<api base>/<method>` with the access token in the form body.
	EndpointAPI Endpoint = iota
	// EndpointOAuth addresses `<oauth base>/<method>` with plain query parameters.
	EndpointOAuth
)

// Request is a single remote call, it is never mutated once built.
type Request struct {
	Endpoint Endpoint
	Method   string
	Params   url.Values
}

// withParams returns a copy of the request with extra parameters set.
func (r Request) withParams(extra url.Values) Request {
	params := make(url.Values, len(r.Params)+len(extra))
	for k, v := range r.Params {
		params[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		params[k] = append([]string(nil), v...)
	}
	r.Params = params
	return r
}

// Transport returns the raw response text of a request.
//
// note: fault injection point
type Transport interface {
	Call(ctx context.Context, req Request) ([]byte, error)
}

type TransportOptions struct {
	APIBaseURL   string
	OAuthBaseURL string
	Version      string
	Timeout      time.Duration
	// MinInterval is the minimum delay between two consecutive requests, zero disables it.
	MinInterval time.Duration
	// Dump receives every exchange with secrets masked, nil disables it.
	Dump restyutil.Output
}

// HTTPTransport implements Transport over resty.
type HTTPTransport struct {
	http      *resty.Client
	apiBase   string
	oauthBase string
	version   string
}

func NewHTTPTransport(opts TransportOptions, tel telemetry.API) *HTTPTransport {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.APIBaseURL)
	assert.NotEmptyStr(opts.OAuthBaseURL)

	tel = telemetry.NewScopedAPI("vk_transport", tel)

	httpClient := resty.New()
	httpClient.SetHeader("user-agent", "vkposter/1.0")
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	if opts.MinInterval > 0 {
		// burst of 1 spaces out every request, including the first retry after a captcha
		rateLimiter := rate.NewLimiter(rate.Every(opts.MinInterval), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.DumpExchanges(httpClient, opts.Dump, telemetry.MaskSecrets)

	return &HTTPTransport{
		http:      httpClient,
		apiBase:   strings.TrimSuffix(opts.APIBaseURL, "/"),
		oauthBase: strings.TrimSuffix(opts.OAuthBaseURL, "/"),
		version:   opts.Version,
	}
}

func (t *HTTPTransport) Call(ctx context.Context, req Request) ([]byte, error) {
	var (
		res *resty.Response
		err error
	)

	switch req.Endpoint {
	case EndpointOAuth:
		res, err = t.http.R().
			SetContext(ctx).
			SetQueryParamsFromValues(req.Params).
			Get(t.oauthBase + "/" + req.Method)
	default:
		form := req.withParams(url.Values{"v": {t.version}}).Params
		res, err = t.http.R().
			SetContext(ctx).
			SetFormDataFromValues(form).
			Post(t.apiBase + "/" + req.Method)
	}
	if err != nil {
		return nil, &TransportError{Method: req.Method, Err: err}
	}

	return res.Body(), nil
}
