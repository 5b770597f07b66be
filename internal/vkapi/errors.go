package vkapi

import (
	"errors"
	"fmt"
	"strings"
)

// CaptchaCode is the error code the API answers with when a request must be
// repeated together with a solved captcha.
const CaptchaCode = 14

var (
	ErrMalformedResponse      = errors.New("malformed response")
	ErrIncompleteResult       = errors.New("incomplete result")
	ErrChallengeLimitExceeded = errors.New("captcha challenge limit exceeded")
)

// Challenge identifies a captcha the API wants solved.
type Challenge struct {
	SID   string
	Image string
}

// RemoteError is a structured error returned by the API.
type RemoteError struct {
	Code        int
	Description string
	Message     string
	// Challenge is set if and only if Code == CaptchaCode.
	Challenge *Challenge
	// RedirectURI is set when the user must finish validation in a browser.
	RedirectURI string
	// Params echoes the request parameters the API reported back.
	Params map[string]string
}

// NewRemoteError builds a RemoteError, the challenge is dropped for any code
// other than CaptchaCode.
func NewRemoteError(code int, description, message string, challenge *Challenge) *RemoteError {
	if description == "" {
		description = describeCode(code)
	}
	e := &RemoteError{
		Code:        code,
		Description: description,
		Message:     message,
	}
	if code == CaptchaCode && challenge != nil {
		c := *challenge
		e.Challenge = &c
	}
	return e
}

func (e *RemoteError) Error() string {
	if e.Message == "" || e.Message == e.Description {
		return fmt.Sprintf("api error %d: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("api error %d (%s): %s", e.Code, e.Description, e.Message)
}

// IsRedirect reports whether the error asks the user to continue in a browser.
func (e *RemoteError) IsRedirect() bool {
	return e.RedirectURI != ""
}

var codeDescriptions = map[int]string{
	1:   "Unknown error occurred",
	5:   "User authorization failed",
	6:   "Too many requests per second",
	7:   "Permission to perform this action is denied",
	9:   "Flood control",
	10:  "Internal server error",
	14:  "Captcha needed",
	15:  "Access denied",
	17:  "Validation required",
	18:  "User was deleted or banned",
	29:  "Rate limit reached",
	100: "One of the parameters specified was missing or invalid",
	203: "Access to group denied",
	214: "Access to adding post denied",
	219: "Advertisement post was recently added",
	220: "Too many recipients",
	222: "Hyperlinks are forbidden",
	224: "Too many ads posts",
}

func describeCode(code int) string {
	desc, ok := codeDescriptions[code]
	if !ok {
		return "Unknown error"
	}
	return desc
}

// IncompleteResultError is returned when a decoded result lacks required fields.
type IncompleteResultError struct {
	Fields []string
	Raw    string
}

func (e *IncompleteResultError) Error() string {
	return fmt.Sprintf(
		"incomplete result, missing %s: %s",
		strings.Join(e.Fields, ", "),
		e.Raw,
	)
}

func (e *IncompleteResultError) Is(target error) bool {
	return target == ErrIncompleteResult
}

// TransportError wraps a failure to get any response text at all.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %s", e.Method, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ChallengeLimitError is returned when a call keeps asking for captchas past
// the configured number of attempts.
type ChallengeLimitError struct {
	Method   string
	Attempts int
	Last     *RemoteError
}

func (e *ChallengeLimitError) Error() string {
	return fmt.Sprintf("%s: gave up after %d captcha challenges: %s", e.Method, e.Attempts, e.Last.Error())
}

func (e *ChallengeLimitError) Is(target error) bool {
	return target == ErrChallengeLimitExceeded
}

func (e *ChallengeLimitError) Unwrap() error {
	return e.Last
}
