package httpserver

import (
	"net/http"
	"net/url"

	"github.com/and161185/gophauth/internal/errs"
	"github.com/and161185/gophauth/internal/service"
	"go.uber.org/zap"
)

func (p authorizeParams) request() service.AuthorizeRequest {
	return service.AuthorizeRequest{
		ClientID:     p.ClientID,
		Scope:        p.Scope,
		RedirectURI:  p.RedirectURI,
		State:        p.State,
		ResponseType: p.ResponseType,
	}
}

const msgRevoked = "Deleted access token"

type loginPage struct {
	service.LoginForm
	Action string
}

// authorizeForm renders the login page for GET /authorize.
func (s *Server) authorizeForm(w http.ResponseWriter, r *http.Request) error {
	p, err := decodeAuthorize(r)
	if err != nil {
		return err
	}
	form, err := s.flow.AuthorizeForm(r.Context(), p.request())
	if err != nil {
		return err
	}

	// the form posts back to the same query
	action := url.URL{Path: r.URL.Path, RawQuery: r.URL.RawQuery}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	return loginTmpl.Execute(w, loginPage{LoginForm: form, Action: action.String()})
}

// authorize checks the submitted credentials and answers with the raw code.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) error {
	p, err := decodeAuthorize(r)
	if err != nil {
		return err
	}
	var lp loginParams
	if err := bodyParams(r, &lp); err != nil {
		return err
	}
	code, err := s.flow.Authorize(r.Context(), p.request(), service.Credentials{
		Login:    lp.Login,
		Password: lp.Password,
		RemoteIP: clientIP(r),
	})
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, err = w.Write([]byte(code))
	return err
}

// token exchanges an authorization code.
func (s *Server) token(w http.ResponseWriter, r *http.Request) error {
	var p tokenParams
	if err := bodyParams(r, &p); err != nil {
		return err
	}
	resp, err := s.flow.Exchange(r.Context(), service.TokenRequest{
		GrantType:    p.GrantType,
		Code:         p.Code,
		RedirectURI:  p.RedirectURI,
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
	})
	if err != nil {
		return err
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	return writeJSON(w, http.StatusOK, resp)
}

// revoke deletes the token resolved by RequireBearer.
func (s *Server) revoke(w http.ResponseWriter, r *http.Request) error {
	tok, ok := TokenFromCtx(r.Context())
	if !ok {
		return errs.Unauthorized(msgNoToken)
	}
	if err := s.flow.Revoke(r.Context(), tok); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, message{msgRevoked})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) error {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			return writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
