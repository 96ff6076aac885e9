package client

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/sakif/notes-api/internal/model"
)

// Credentials is the body of Register and Login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body, err := jsonBody(Credentials{Username: username, Password: password})
	if err != nil {
		return err
	}

	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/register",
		body:        body,
		contentType: "application/json",
	}, nil)
	if err != nil {
		return fmt.Errorf("register request failed: %w", err)
	}
	return nil
}

// Login exchanges credentials for an access token and keeps it for bearer
// routes.
func (c *Client) Login(ctx context.Context, username, password string) (*oauth2.Token, error) {
	body, err := jsonBody(Credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	var result model.AccessToken
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/token",
		body:        body,
		contentType: "application/json",
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	tok := &oauth2.Token{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
	}
	c.SetToken(tok)
	return tok, nil
}

// Me returns the username the current token was issued to.
func (c *Client) Me(ctx context.Context) (string, error) {
	var result struct {
		Username string `json:"username"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/me", bearer: true}, &result); err != nil {
		return "", err
	}
	return result.Username, nil
}
