// Package service contains the OAuth2 authorization-code flow.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/gophauth/internal/codestore"
	pkgcrypto "github.com/and161185/gophauth/internal/crypto"
	"github.com/and161185/gophauth/internal/errs"
	"github.com/and161185/gophauth/internal/limiter"
	"github.com/and161185/gophauth/internal/metrics"
	"github.com/and161185/gophauth/internal/model"
	"github.com/and161185/gophauth/internal/repository"
	"github.com/and161185/gophauth/internal/scope"
	"go.uber.org/zap"
)

// Response and grant types.
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"

	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"

	TokenTypeBearer = "Bearer"

	// DefaultCodeTTL is how long an issued code may wait for its exchange.
	DefaultCodeTTL = 10 * time.Minute

	codeKeyPrefix = "auth_code:"
)

// Messages returned to callers.
const (
	MsgAppNotFound         = "Application not found in database"
	MsgBadRedirectURI      = "Bad redirect_uri passed"
	MsgTokenResponseType   = "response_type=token is not supported yet"
	MsgRefreshGrant        = "grant_type=refresh_token is not supported yet"
	MsgWrongOrExpiredCode  = "Wrong or expired authorization code passed"
	MsgBadCode             = "Bad authorization code passed"
	MsgUserDoesNotExist    = "User does not exist"
	MsgUnauthorized        = "Unauthorized"
	MsgTooManyLogins       = "Too many login attempts"
	MsgBadAccessToken      = "Bad access token"
	MsgInternal            = "500: Internal server error"
	msgBadRedirectFormat   = "redirect_uri: Bad format"
	msgBadResponseType     = "response_type: must be one of code, token"
	msgBadGrantType        = "grant_type: must be one of authorization_code, refresh_token"
	msgMalformedCodeRecord = "malformed code record"
)

// redirectURIRe is a full match of scheme "://" followed by a word character
// and anything up to a fragment.
var redirectURIRe = regexp.MustCompile(`(?i)^[a-z]+://[\p{L}\p{N}_][^#]*$`)

// ValidRedirectURI reports whether uri has the accepted shape.
func ValidRedirectURI(uri string) bool { return redirectURIRe.MatchString(uri) }

// AuthorizeRequest carries the /authorize query parameters.
type AuthorizeRequest struct {
	ClientID     int64
	Scope        string // space separated, empty means default
	RedirectURI  string
	State        string
	ResponseType string
}

// Credentials are the login form fields plus the caller address used for rate limiting.
type Credentials struct {
	Login    string
	Password string
	RemoteIP string
}

// LoginForm is the rendering context of the login page.
type LoginForm struct {
	ClientID     int64
	RedirectURI  string
	AppName      string
	Scope        string
	State        string
	ResponseType string
}

// TokenRequest carries the /token body fields.
type TokenRequest struct {
	GrantType    string
	Code         string
	RedirectURI  string
	ClientID     int64
	ClientSecret string // accepted, not checked
}

// TokenResponse is the successful /token reply.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// TokenIssuer issues, validates and revokes access tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, userID int64, passwordHash string, clientID int64, scopes []string) (model.Token, error)
	Validate(ctx context.Context, raw string) (model.Grant, error)
	Revoke(ctx context.Context, t model.Token) error
}

// Deps are the collaborators of OAuthService. Limiter and Metrics are optional.
type Deps struct {
	Clients repository.ClientRepository
	Users   repository.UserRepository
	Codes   codestore.Store
	Tokens  TokenIssuer
	Limiter limiter.Limiter
	Metrics *metrics.Metrics
	Log     *zap.Logger
	CodeTTL time.Duration
}

// OAuthService runs the authorization-code grant: it shows the login form,
// issues single-use codes, exchanges them for tokens and revokes tokens.
type OAuthService struct {
	clients repository.ClientRepository
	users   repository.UserRepository
	codes   codestore.Store
	tokens  TokenIssuer
	lim     limiter.Limiter
	signer  pkgcrypto.CodeSigner
	m       *metrics.Metrics
	log     *zap.Logger
	codeTTL time.Duration
}

// NewOAuthService constructs the flow controller.
func NewOAuthService(d Deps) *OAuthService {
	s := &OAuthService{
		clients: d.Clients,
		users:   d.Users,
		codes:   d.Codes,
		tokens:  d.Tokens,
		lim:     d.Limiter,
		m:       d.Metrics,
		log:     d.Log,
		codeTTL: d.CodeTTL,
	}
	if s.lim == nil {
		s.lim = limiter.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.codeTTL <= 0 {
		s.codeTTL = DefaultCodeTTL
	}
	return s
}

// checkAuthorize validates request shape and returns the parsed scope set.
func checkAuthorize(r AuthorizeRequest) ([]string, error) {
	if r.ResponseType != ResponseTypeCode && r.ResponseType != ResponseTypeToken {
		return nil, errs.BadRequest(msgBadResponseType)
	}
	if !ValidRedirectURI(r.RedirectURI) {
		return nil, errs.BadRequest(msgBadRedirectFormat)
	}
	scopes, err := scope.Parse(r.Scope)
	if err != nil {
		return nil, errs.BadRequest("scope: " + err.Error())
	}
	if r.ResponseType == ResponseTypeToken {
		return nil, errs.NotImplemented(MsgTokenResponseType)
	}
	return scopes, nil
}

// lookupClient resolves the client and checks the redirect URI matches verbatim.
func (s *OAuthService) lookupClient(ctx context.Context, clientID int64, redirectURI string) (*model.Application, error) {
	app, err := s.clients.GetByID(ctx, clientID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NotFound(MsgAppNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get application %d: %w", clientID, err)
	}
	if app.RedirectURI != redirectURI {
		return nil, errs.BadRequest(MsgBadRedirectURI)
	}
	return app, nil
}

// AuthorizeForm validates a GET /authorize request and returns what the login page shows.
func (s *OAuthService) AuthorizeForm(ctx context.Context, r AuthorizeRequest) (LoginForm, error) {
	scopes, err := checkAuthorize(r)
	if err != nil {
		return LoginForm{}, err
	}
	app, err := s.lookupClient(ctx, r.ClientID, r.RedirectURI)
	if err != nil {
		return LoginForm{}, err
	}
	return LoginForm{
		ClientID:     app.ID,
		RedirectURI:  app.RedirectURI,
		AppName:      app.Name,
		Scope:        scope.Join(scopes),
		State:        r.State,
		ResponseType: r.ResponseType,
	}, nil
}

// Authorize checks the submitted credentials and issues an authorization code.
// The client and redirect URI are checked against the registry again, since
// the form step may have been skipped.
func (s *OAuthService) Authorize(ctx context.Context, r AuthorizeRequest, c Credentials) (string, error) {
	scopes, err := checkAuthorize(r)
	if err != nil {
		return "", err
	}
	if _, err := s.lookupClient(ctx, r.ClientID, r.RedirectURI); err != nil {
		return "", err
	}

	userID, err := s.login(ctx, c)
	if err != nil {
		return "", err
	}

	code, key, err := s.signer.Issue(r.ClientID, r.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("issue code: %w", err)
	}
	rec := encodeCodeRecord(model.AuthCode{UserID: userID, SigningKey: key, Scopes: scopes})
	if err := s.codes.Set(ctx, codeKeyPrefix+code, rec, s.codeTTL); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}

	s.m.CodeIssued(strconv.FormatInt(r.ClientID, 10))
	s.log.Debug("authorization code issued",
		zap.Int64("client_id", r.ClientID),
		zap.Int64("user_id", userID),
		zap.Strings("scope", scopes),
	)
	return code, nil
}

// login authenticates c with rate limiting by (login, ip) and returns the user id.
func (s *OAuthService) login(ctx context.Context, c Credentials) (int64, error) {
	ipHash := limiter.HashIP(c.RemoteIP)

	allowed, _, err := s.lim.Allow(ctx, c.Login, ipHash)
	if err != nil {
		return 0, fmt.Errorf("limiter allow: %w", err)
	}
	if !allowed {
		s.m.LoginRejected("rate_limited")
		return 0, errs.E(errs.KindTooManyRequests, MsgTooManyLogins, errs.ErrRateLimited)
	}

	u, err := s.users.GetByLogin(ctx, c.Login)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return 0, fmt.Errorf("get user: %w", err)
	}
	if err != nil || !pkgcrypto.VerifyPassword(c.Password, u.PasswordHash) {
		s.m.LoginRejected("credentials")
		if blocked, _, ferr := s.lim.Failure(ctx, c.Login, ipHash); ferr != nil {
			s.log.Warn("limiter failure not recorded", zap.Error(ferr))
		} else if blocked {
			return 0, errs.E(errs.KindTooManyRequests, MsgTooManyLogins, errs.ErrRateLimited)
		}
		return 0, errs.Unauthorized(MsgUnauthorized)
	}

	if err := s.lim.Success(ctx, c.Login, ipHash); err != nil {
		s.log.Warn("limiter reset failed", zap.Error(err))
	}
	return u.ID, nil
}

// Exchange redeems an authorization code for an access token. The code record
// is removed before it is checked, so a code is never accepted twice.
func (s *OAuthService) Exchange(ctx context.Context, r TokenRequest) (TokenResponse, error) {
	switch r.GrantType {
	case GrantAuthorizationCode:
	case GrantRefreshToken:
		return TokenResponse{}, errs.NotImplemented(MsgRefreshGrant)
	default:
		return TokenResponse{}, errs.BadRequest(msgBadGrantType)
	}

	raw, err := s.codes.GetAndDelete(ctx, codeKeyPrefix+r.Code)
	if errors.Is(err, codestore.ErrMissing) {
		s.m.Exchange(metrics.OutcomeMissing)
		return TokenResponse{}, errs.Unauthorized(MsgWrongOrExpiredCode)
	}
	if err != nil {
		s.m.Exchange(metrics.OutcomeError)
		return TokenResponse{}, fmt.Errorf("take code: %w", err)
	}

	rec, err := decodeCodeRecord(raw)
	if err != nil {
		s.m.Exchange(metrics.OutcomeError)
		return TokenResponse{}, errs.E(errs.KindInternal, msgMalformedCodeRecord, err)
	}

	if !s.signer.Verify(r.ClientID, r.RedirectURI, rec.SigningKey, r.Code) {
		s.m.Exchange(metrics.OutcomeBadCode)
		s.log.Info("authorization code does not match client",
			zap.Int64("client_id", r.ClientID),
			zap.Int64("user_id", rec.UserID),
		)
		return TokenResponse{}, errs.Unauthorized(MsgBadCode)
	}

	hash, err := s.users.GetPasswordHash(ctx, rec.UserID)
	if errors.Is(err, errs.ErrNotFound) {
		s.m.Exchange(metrics.OutcomeUnknownUser)
		return TokenResponse{}, errs.BadRequest(MsgUserDoesNotExist)
	}
	if err != nil {
		s.m.Exchange(metrics.OutcomeError)
		return TokenResponse{}, fmt.Errorf("get password hash: %w", err)
	}

	tok, err := s.tokens.Issue(ctx, rec.UserID, hash, r.ClientID, rec.Scopes)
	if err != nil {
		s.m.Exchange(metrics.OutcomeError)
		return TokenResponse{}, fmt.Errorf("issue token: %w", err)
	}

	s.m.Exchange(metrics.OutcomeIssued)
	return TokenResponse{
		AccessToken: tok.Value,
		TokenType:   TokenTypeBearer,
		Scope:       scope.Join(rec.Scopes),
	}, nil
}

// ValidateToken resolves a presented bearer credential into a live token.
func (s *OAuthService) ValidateToken(ctx context.Context, raw string) (model.Token, model.Grant, error) {
	if raw == "" {
		return model.Token{}, model.Grant{}, errs.Unauthorized(MsgBadAccessToken)
	}
	g, err := s.tokens.Validate(ctx, raw)
	if errors.Is(err, errs.ErrUnauthorized) {
		return model.Token{}, model.Grant{}, errs.E(errs.KindUnauthorized, MsgBadAccessToken, err)
	}
	if err != nil {
		return model.Token{}, model.Grant{}, fmt.Errorf("validate token: %w", err)
	}
	tok := model.Token{Value: raw, UserID: g.UserID, ClientID: g.ClientID, Scopes: g.Scopes}
	return tok, g, nil
}

// Revoke deletes a token. Revoking a token that is already gone succeeds.
func (s *OAuthService) Revoke(ctx context.Context, t model.Token) error {
	if err := s.tokens.Revoke(ctx, t); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.m.Revoked()
	s.log.Debug("access token revoked", zap.Int64("client_id", t.ClientID), zap.Int64("user_id", t.UserID))
	return nil
}

// encodeCodeRecord renders "<user_id>:<base64 key>:<space joined scopes>".
func encodeCodeRecord(c model.AuthCode) string {
	return strconv.FormatInt(c.UserID, 10) + ":" +
		base64.StdEncoding.EncodeToString(c.SigningKey) + ":" +
		scope.Join(c.Scopes)
}

func decodeCodeRecord(v string) (model.AuthCode, error) {
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return model.AuthCode{}, fmt.Errorf("want 3 fields, got %d", len(parts))
	}
	uid, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return model.AuthCode{}, fmt.Errorf("user id: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return model.AuthCode{}, fmt.Errorf("signing key: %w", err)
	}
	return model.AuthCode{UserID: uid, SigningKey: key, Scopes: strings.Split(parts[2], " ")}, nil
}
