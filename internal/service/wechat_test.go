package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/wristcheck/internal/config"
)

func TestCode2Session(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "app", q.Get("appid"))
		assert.Equal(t, "sec", q.Get("secret"))
		assert.Equal(t, "authorization_code", q.Get("grant_type"))
		switch q.Get("js_code") {
		case "good":
			w.Write([]byte(`{"openid":"o-1","session_key":"sk"}`))
		case "bad":
			w.Write([]byte(`{"errcode":40029,"errmsg":"invalid code"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client := NewWechatClient(config.WechatConfig{AppID: "app", Secret: "sec", SessionURL: srv.URL}, time.Second)

	session, err := client.Code2Session(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "o-1", session.OpenID)
	assert.Equal(t, "sk", session.SessionKey)

	_, err = client.Code2Session(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrOpenIDMissing)

	_, err = client.Code2Session(context.Background(), "boom")
	assert.ErrorIs(t, err, ErrWechatExchange)
}

func TestSignInUp(t *testing.T) {
	want := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/signinup" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "wechat", body["thirdPartyId"])
		assert.Equal(t, "mp", body["clientType"])
		tokens := body["oAuthTokens"].(map[string]interface{})
		if tokens["openId"] == "broken" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "sk", tokens["session_key"])
		assert.Equal(t, "mp", tokens["source"])
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "OK",
			"user":   map[string]interface{}{"id": want.String()},
		})
	}))
	defer srv.Close()

	client := NewIdentityClient(config.IdentityConfig{BaseURL: srv.URL}, time.Second)

	id, err := client.SignInUp(context.Background(), "o-1", "sk")
	require.NoError(t, err)
	assert.Equal(t, want, id)

	_, err = client.SignInUp(context.Background(), "broken", "sk")
	assert.ErrorIs(t, err, ErrIdentitySignInUp)
}
