package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

var ErrGoogleTokenInvalid = errors.New("google id token invalid")

// GoogleTokenInfo is the subset of the google ID token claims we care about.
type GoogleTokenInfo struct {
	Email string
	Name  string
}

type GoogleVerifier struct {
	clientID  string
	validator *idtoken.Validator
}

func NewGoogleVerifier(ctx context.Context, clientID string, httpClient *http.Client) (*GoogleVerifier, error) {
	validator, err := idtoken.NewValidator(ctx, option.WithHTTPClient(httpClient), option.WithoutAuthentication())
	if err != nil {
		return nil, fmt.Errorf("new id token validator: %w", err)
	}
	return &GoogleVerifier{
		clientID:  clientID,
		validator: validator,
	}, nil
}

func (gv *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleTokenInfo, error) {
	payload, err := gv.validator.Validate(ctx, idToken, gv.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrGoogleTokenInvalid, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: email claim missing", ErrGoogleTokenInvalid)
	}
	name, _ := payload.Claims["name"].(string)

	return &GoogleTokenInfo{
		Email: email,
		Name:  name,
	}, nil
}
