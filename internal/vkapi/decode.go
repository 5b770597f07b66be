package vkapi

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"
)

// oauth error kinds that carry more than a message
const (
	oauthNeedCaptcha    = "need_captcha"
	oauthNeedValidation = "need_validation"
)

// Decode turns raw response text into T.
//
// An `error` section always wins over `response`: it is decoded into a
// *RemoteError and the result is never looked at. Without a `response`
// wrapper the whole document is decoded as T.
func Decode[T any, P resultPtr[T]](raw []byte) (T, error) {
	var out T

	slog.Debug("vk response", "body", string(raw))

	if !gjson.ValidBytes(raw) {
		return out, fmt.Errorf("%w: invalid json: %s", ErrMalformedResponse, raw)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return out, fmt.Errorf("%w: expected an object: %s", ErrMalformedResponse, raw)
	}

	if section := root.Get("error"); section.Exists() {
		remote, err := decodeRemoteError(root, section)
		if err != nil {
			return out, fmt.Errorf("%w: %s: %s", ErrMalformedResponse, err.Error(), raw)
		}
		return out, remote
	}

	payload := raw
	if response := root.Get("response"); response.Exists() {
		payload = []byte(response.Raw)
	}

	err := json.Unmarshal(payload, &out)
	if err != nil {
		return out, fmt.Errorf("%w: %s: %s", ErrMalformedResponse, err.Error(), raw)
	}

	missing := P(&out).MissingFields()
	if len(missing) > 0 {
		return out, &IncompleteResultError{Fields: missing, Raw: string(raw)}
	}

	return out, nil
}

func decodeRemoteError(root, section gjson.Result) (*RemoteError, error) {
	switch {
	case section.IsObject():
		return decodeAPIError(section)
	case section.Type == gjson.String:
		return decodeOAuthError(root, section.String())
	default:
		return nil, fmt.Errorf("unexpected error section %s", section.Raw)
	}
}

func decodeAPIError(section gjson.Result) (*RemoteError, error) {
	code := section.Get("error_code")
	if code.Type != gjson.Number {
		return nil, fmt.Errorf("error section without a numeric error_code")
	}

	var challenge *Challenge
	if int(code.Int()) == CaptchaCode {
		var err error
		challenge, err = decodeChallenge(section)
		if err != nil {
			return nil, err
		}
	}

	remote := NewRemoteError(
		int(code.Int()),
		section.Get("error_text").String(),
		section.Get("error_msg").String(),
		challenge,
	)
	remote.RedirectURI = section.Get("redirect_uri").String()

	params := section.Get("request_params").Array()
	if len(params) > 0 {
		remote.Params = make(map[string]string, len(params))
		for _, p := range params {
			remote.Params[p.Get("key").String()] = p.Get("value").String()
		}
	}

	return remote, nil
}

func decodeOAuthError(root gjson.Result, kind string) (*RemoteError, error) {
	description := root.Get("error_description").String()
	if description == "" {
		description = kind
	}

	code := 0
	var challenge *Challenge
	if kind == oauthNeedCaptcha {
		code = CaptchaCode
		var err error
		challenge, err = decodeChallenge(root)
		if err != nil {
			return nil, err
		}
	}

	remote := NewRemoteError(code, description, kind, challenge)
	remote.RedirectURI = root.Get("redirect_uri").String()
	if kind == oauthNeedValidation && remote.RedirectURI == "" {
		return nil, fmt.Errorf("%s without redirect_uri", oauthNeedValidation)
	}
	return remote, nil
}

func decodeChallenge(section gjson.Result) (*Challenge, error) {
	sid := section.Get("captcha_sid").String()
	if sid == "" {
		return nil, fmt.Errorf("captcha error without captcha_sid")
	}
	return &Challenge{
		SID:   sid,
		Image: section.Get("captcha_img").String(),
	}, nil
}
