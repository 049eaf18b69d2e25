package httpserver

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"sort"

	"github.com/and161185/gophauth/internal/errs"
	"github.com/gorilla/schema"
)

const (
	maxFormMemory = 1 << 20
	msgEmptyScope = "scope: must not be empty"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

type authorizeParams struct {
	ClientID     int64  `schema:"client_id,required"`
	Scope        string `schema:"scope"`
	RedirectURI  string `schema:"redirect_uri,required"`
	State        string `schema:"state"`
	ResponseType string `schema:"response_type,required"`
}

type loginParams struct {
	Login    string `schema:"login,required"`
	Password string `schema:"password,required"`
}

type tokenParams struct {
	GrantType    string `schema:"grant_type,required"`
	Code         string `schema:"code,required"`
	RedirectURI  string `schema:"redirect_uri,required"`
	ClientID     int64  `schema:"client_id,required"`
	ClientSecret string `schema:"client_secret"`
}

// decodeValues fills dst from values. A parameter passed more than once is rejected.
func decodeValues(dst any, values url.Values) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(values[k]) > 1 {
			return errs.BadRequest(k + ": passed more than once")
		}
	}
	if err := decoder.Decode(dst, values); err != nil {
		return paramError(err)
	}
	return nil
}

// paramError reports the first offending field in a stable order.
func paramError(err error) error {
	multi, ok := err.(schema.MultiError)
	if !ok || len(multi) == 0 {
		return errs.BadRequest(err.Error())
	}
	keys := make([]string, 0, len(multi))
	for k := range multi {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	k := keys[0]
	switch multi[k].(type) {
	case schema.EmptyFieldError:
		return errs.BadRequest(k + ": missing")
	case schema.ConversionError:
		return errs.BadRequest(k + ": bad value")
	default:
		return errs.BadRequest(fmt.Sprintf("%s: %v", k, multi[k]))
	}
}

// decodeAuthorize decodes the /authorize query. A scope passed with an empty
// value names no known scope and is rejected; only an absent scope defaults.
func decodeAuthorize(r *http.Request) (authorizeParams, error) {
	var p authorizeParams
	values, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		return p, errs.BadRequest("malformed query string")
	}
	if err := decodeValues(&p, values); err != nil {
		return p, err
	}
	if v, ok := values["scope"]; ok && v[0] == "" {
		return p, errs.BadRequest(msgEmptyScope)
	}
	return p, nil
}

// bodyParams decodes a urlencoded or multipart form body into dst.
func bodyParams(r *http.Request, dst any) error {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/x-www-form-urlencoded", "":
		if err := r.ParseForm(); err != nil {
			return errs.BadRequest("malformed form body")
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return errs.BadRequest("malformed form body")
		}
	default:
		return errs.BadRequest("unsupported media type: " + mt)
	}
	return decodeValues(dst, r.PostForm)
}
