package vkapi

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponseWrapper(t *testing.T) {
	res, err := Decode[ItemsResponse[Tag]]([]byte(`{"response":{"count":2,"items":[{"id":1,"name":"news"},{"id":2,"name":"sports"}]}}`))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, res.Total())
	if diff := cmp.Diff([]Tag{{ID: 1, Name: "news"}, {ID: 2, Name: "sports"}}, res.Items); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}

func TestDecodeWithoutWrapper(t *testing.T) {
	res, err := Decode[AuthResponse]([]byte(`{"access_token":"token","expires_in":0,"user_id":42}`))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "token", res.AccessToken)
	require.Equal(t, int64(42), *res.UserID)
}

func TestDecodeBareInteger(t *testing.T) {
	id, err := Decode[CommentID]([]byte(`{"response":1234}`))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, CommentID(1234), id)
}

func TestDecodeErrorTakesPrecedence(t *testing.T) {
	raw := `{"error":{"error_code":15,"error_msg":"Access denied: no access to call this method"},"response":{"post_id":5}}`

	res, err := Decode[PostResponse]([]byte(raw))

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	require.Equal(t, 15, remote.Code)
	require.Equal(t, "Access denied", remote.Description)
	require.Equal(t, "Access denied: no access to call this method", remote.Message)
	require.Nil(t, remote.Challenge)
	require.Nil(t, res.PostID, "the response section must not be decoded")
}

func TestDecodeCaptchaRoundTrip(t *testing.T) {
	raw := `{"error":{"error_code":14,"error_text":"captcha","error_msg":"Captcha needed","captcha_sid":"abc","captcha_img":"http://x",` +
		`"request_params":[{"key":"method","value":"wall.post"}]}}`

	_, err := Decode[PostResponse]([]byte(raw))

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	require.Equal(t, CaptchaCode, remote.Code)
	require.Equal(t, "captcha", remote.Description)
	require.Equal(t, "Captcha needed", remote.Message)
	require.Equal(t, &Challenge{SID: "abc", Image: "http://x"}, remote.Challenge)
	require.Equal(t, map[string]string{"method": "wall.post"}, remote.Params)

	constructed := NewRemoteError(14, "captcha", "Captcha needed", &Challenge{SID: "abc", Image: "http://x"})
	if diff := cmp.Diff(constructed.Challenge, remote.Challenge); diff != "" {
		t.Fatalf("challenge mismatch (-constructed +decoded):\n%s", diff)
	}
	require.Equal(t, 14, constructed.Code)
}

func TestNewRemoteErrorDropsChallengeForOtherCodes(t *testing.T) {
	remote := NewRemoteError(9, "", "Flood control", &Challenge{SID: "abc"})
	require.Nil(t, remote.Challenge)
	require.Equal(t, "Flood control", remote.Description)
}

func TestDecodeOAuthErrors(t *testing.T) {
	table := []struct {
		name      string
		raw       string
		code      int
		redirect  string
		challenge *Challenge
	}{
		{
			name: "invalid grant",
			raw:  `{"error":"invalid_grant","error_description":"Code is expired."}`,
			code: 0,
		},
		{
			name:     "need validation",
			raw:      `{"error":"need_validation","error_description":"open redirect_uri in browser","redirect_uri":"https://m.vk.com/login?act=security_check"}`,
			redirect: "https://m.vk.com/login?act=security_check",
		},
		{
			name:      "need captcha",
			raw:       `{"error":"need_captcha","captcha_sid":"555","captcha_img":"https://api.vk.com/captcha.php?sid=555"}`,
			code:      CaptchaCode,
			challenge: &Challenge{SID: "555", Image: "https://api.vk.com/captcha.php?sid=555"},
		},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			_, err := Decode[AuthResponse]([]byte(row.raw))
			var remote *RemoteError
			require.True(t, errors.As(err, &remote), "got %v", err)
			require.Equal(t, row.code, remote.Code)
			require.Equal(t, row.redirect, remote.RedirectURI)
			require.Equal(t, row.challenge, remote.Challenge)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	table := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `<html>502 Bad Gateway</html>`},
		{name: "not an object", raw: `[1,2,3]`},
		{name: "error without code", raw: `{"error":{"error_msg":"what"}}`},
		{name: "error of wrong type", raw: `{"error":42}`},
		{name: "captcha without sid", raw: `{"error":{"error_code":14,"error_msg":"Captcha needed"}}`},
		{name: "validation without redirect", raw: `{"error":"need_validation"}`},
		{name: "shape mismatch", raw: `{"response":{"count":"many","items":[]}}`},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			_, err := Decode[ItemsResponse[Tag]]([]byte(row.raw))
			require.ErrorIs(t, err, ErrMalformedResponse)

			var remote *RemoteError
			require.False(t, errors.As(err, &remote))
		})
	}
}

func TestDecodeIncomplete(t *testing.T) {
	raw := `{"response":{"items":[]}}`
	_, err := Decode[ItemsResponse[Topic]]([]byte(raw))
	require.ErrorIs(t, err, ErrIncompleteResult)

	var incomplete *IncompleteResultError
	require.True(t, errors.As(err, &incomplete))
	require.Equal(t, []string{"count"}, incomplete.Fields)
	require.Equal(t, raw, incomplete.Raw)

	_, err = Decode[PostResponse]([]byte(`{"response":{}}`))
	require.ErrorIs(t, err, ErrIncompleteResult)
	require.Contains(t, err.Error(), "post_id")
}
