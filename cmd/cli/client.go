package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/carlmjohnson/requests"
)

type apiError struct {
	Message string `json:"message"`
}

// client talks to a gophauth server.
type client struct {
	base string
	hc   *http.Client
}

func newClient(base string, hc *http.Client) *client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &client{base: strings.TrimRight(base, "/"), hc: hc}
}

// do runs b and turns a non-2xx reply into an error carrying the server message.
func (c *client) do(ctx context.Context, b *requests.Builder) error {
	var ae apiError
	err := b.
		Client(c.hc).
		AddValidator(requests.ValidatorHandler(requests.DefaultValidator, requests.ToJSON(&ae))).
		Fetch(ctx)
	if err == nil {
		return nil
	}
	var se *requests.ResponseError
	if errors.As(err, &se) && ae.Message != "" {
		return fmt.Errorf("%d: %s", se.StatusCode, ae.Message)
	}
	return err
}

type authorizeArgs struct {
	ClientID    int64
	RedirectURI string
	Scope       string
	State       string
	Login       string
	Password    string
}

// authorize submits credentials on the authorize form and returns the code.
func (c *client) authorize(ctx context.Context, a authorizeArgs) (string, error) {
	b := requests.URL(c.base).
		Path("/authorize").
		Param("client_id", strconv.FormatInt(a.ClientID, 10)).
		Param("redirect_uri", a.RedirectURI).
		Param("response_type", "code").
		BodyForm(url.Values{"login": {a.Login}, "password": {a.Password}})
	if a.Scope != "" {
		b = b.Param("scope", a.Scope)
	}
	if a.State != "" {
		b = b.Param("state", a.State)
	}
	var code string
	if err := c.do(ctx, b.ToString(&code)); err != nil {
		return "", err
	}
	return code, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// exchange redeems a code for an access token.
func (c *client) exchange(ctx context.Context, code string, clientID int64, redirectURI, secret string) (tokenResponse, error) {
	var tr tokenResponse
	b := requests.URL(c.base).
		Path("/token").
		BodyForm(url.Values{
			"grant_type":    {"authorization_code"},
			"code":          {code},
			"redirect_uri":  {redirectURI},
			"client_id":     {strconv.FormatInt(clientID, 10)},
			"client_secret": {secret},
		}).
		ToJSON(&tr)
	if err := c.do(ctx, b); err != nil {
		return tokenResponse{}, err
	}
	return tr, nil
}

// revoke deletes an access token on the server.
func (c *client) revoke(ctx context.Context, token string) error {
	b := requests.URL(c.base).
		Path("/token/revoke").
		Bearer(token).
		Post()
	return c.do(ctx, b)
}
