// Package httpclient implements the engine's one HTTP operation (spec §4.1):
// GET/POST/PATCH/DELETE with redirects, basic-auth retry, conditional-GET
// and a process-wide lazily-built TLS context.
//
// Grounded on internal/messaging/feeds_processor.go:readFeedFromURL in the
// teacher repo (hand-rolled net/http client, manual If-None-Match /
// If-Modified-Since headers) and generalized to the full contract spec.md
// requires of C1.
package httpclient

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
)

// MaxRedirects caps redirect-following. spec.md leaves this an explicit open
// question (the reference carries a bare TODO); 10 is the cap this
// implementation chooses and documents, matching curl/browsers' convention.
const MaxRedirects = 10

// DefaultTimeout is the per-request timeout (spec §4.1).
const DefaultTimeout = 10 * time.Second

// Kind enumerates the failure taxonomy for C1.
type Kind string

const (
	KindUnknownScheme  Kind = "unknown_scheme"
	KindTimeout        Kind = "timeout"
	KindAuthRequired   Kind = "auth_required"
	KindAuthFailed     Kind = "auth_failed"
	KindHTTPStatus     Kind = "http_status"
	KindTooManyRedirect Kind = "too_many_redirects"
)

// Error is returned by Request on any non-2xx terminal outcome.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("status %d received", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Credentials is HTTP basic-auth.
type Credentials struct {
	Login    string
	Password string
}

// ConditionalGetInfo is the cache-validation state a caller persists and
// re-supplies on the next request (spec: "Conditional-GET").
type ConditionalGetInfo struct {
	ETag         string
	LastModified time.Time
}

var (
	tlsConfigOnce sync.Once
	tlsConfig     *tls.Config
)

// sharedTLSConfig is a process-wide, lazily constructed TLS context,
// defaulting to permissive verification per spec §4.1/§5.
func sharedTLSConfig() *tls.Config {
	tlsConfigOnce.Do(func() {
		tlsConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // spec-mandated permissive default
	})
	return tlsConfig
}

// RedirectLogger receives a record of a followed redirect, scoped to an
// optional associated feed id (spec §4.1 "logs the redirection against
// associated-feed-id").
type RedirectLogger interface {
	LogRedirect(associatedFeedID uuid.UUID, from, to string)
}

// Client performs the single `request` operation of spec §4.1.
type Client struct {
	UserAgent string
	Timeout   time.Duration
	Redirects RedirectLogger
}

// New returns a Client stamped with the engine's user agent (spec:
// "User-Agent: ZapFeedReader/<apiVersion>").
func New(apiVersion string, redirectLogger RedirectLogger) *Client {
	return &Client{
		UserAgent: "ZapFeedReader/" + apiVersion,
		Timeout:   DefaultTimeout,
		Redirects: redirectLogger,
	}
}

// FormParams are key/value pairs sent as a POST/PATCH body.
type FormParams map[string]string

// Request performs method against uri. creds, if non-nil, are tried only
// after a 401. form, if non-empty, is sent on POST/PATCH as
// multipart/form-data when multipartBody is set, URL-encoded otherwise.
func (c *Client) Request(
	uri, method string,
	creds *Credentials,
	form FormParams,
	multipartBody bool,
	associatedFeedID uuid.UUID,
	cond *ConditionalGetInfo,
) (body string, newCond ConditionalGetInfo, err error) {
	return c.do(uri, method, creds, form, multipartBody, associatedFeedID, cond, false, 0)
}

func (c *Client) do(
	uri, method string,
	creds *Credentials,
	form FormParams,
	multipartBody bool,
	associatedFeedID uuid.UUID,
	cond *ConditionalGetInfo,
	triedAuth bool,
	redirectCount int,
) (string, ConditionalGetInfo, error) {
	parsed, perr := url.Parse(uri)
	if perr != nil {
		return "", ConditionalGetInfo{}, &Error{Kind: KindUnknownScheme, Err: perr}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ConditionalGetInfo{}, &Error{Kind: KindUnknownScheme, Err: fmt.Errorf("scheme %q not supported", parsed.Scheme)}
	}

	var reqBody io.Reader
	contentType := ""
	if len(form) > 0 && (method == http.MethodPost || method == http.MethodPatch) {
		if multipartBody {
			buf := &bytes.Buffer{}
			w := multipart.NewWriter(buf)
			for k, v := range form {
				if werr := w.WriteField(k, v); werr != nil {
					return "", ConditionalGetInfo{}, werr
				}
			}
			w.Close()
			reqBody = buf
			contentType = w.FormDataContentType()
		} else {
			values := url.Values{}
			for k, v := range form {
				values.Set(k, v)
			}
			reqBody = strings.NewReader(values.Encode())
			contentType = "application/x-www-form-urlencoded"
		}
	}

	req, rerr := http.NewRequest(method, parsed.String(), reqBody)
	if rerr != nil {
		return "", ConditionalGetInfo{}, rerr
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if cond != nil {
		if cond.ETag != "" {
			req.Header.Set("If-None-Match", cond.ETag)
		}
		if !cond.LastModified.IsZero() {
			req.Header.Set("If-Modified-Since", cond.LastModified.UTC().Format(http.TimeFormat))
		}
	}
	if triedAuth && creds != nil {
		req.SetBasicAuth(creds.Login, creds.Password)
	}

	httpClient := &http.Client{
		Timeout: c.Timeout,
		Transport: &http.Transport{TLSClientConfig: sharedTLSConfig()},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, derr := httpClient.Do(req)
	if derr != nil {
		if urlErr, ok := derr.(*url.Error); ok && urlErr.Timeout() {
			return "", ConditionalGetInfo{}, &Error{Kind: KindTimeout, Err: derr}
		}
		return "", ConditionalGetInfo{}, &Error{Kind: KindUnknownScheme, Err: derr}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
		if redirectCount >= MaxRedirects {
			return "", ConditionalGetInfo{}, &Error{Kind: KindTooManyRedirect}
		}
		loc := resp.Header.Get("Location")
		target, lerr := parsed.Parse(loc)
		if lerr != nil {
			return "", ConditionalGetInfo{}, lerr
		}
		if c.Redirects != nil {
			c.Redirects.LogRedirect(associatedFeedID, uri, target.String())
		}
		return c.do(target.String(), method, creds, form, multipartBody, associatedFeedID, cond, triedAuth, redirectCount+1)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if creds != nil && !triedAuth {
			return c.do(uri, method, creds, form, multipartBody, associatedFeedID, cond, true, redirectCount)
		}
		if creds == nil {
			return "", ConditionalGetInfo{}, &Error{Kind: KindAuthRequired}
		}
		return "", ConditionalGetInfo{}, &Error{Kind: KindAuthFailed}
	}

	if resp.StatusCode == http.StatusNotModified {
		return "", extractConditional(resp), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", ConditionalGetInfo{}, &Error{Kind: KindHTTPStatus, StatusCode: resp.StatusCode}
	}

	raw, rerr2 := io.ReadAll(resp.Body)
	if rerr2 != nil {
		return "", ConditionalGetInfo{}, rerr2
	}
	return string(raw), extractConditional(resp), nil
}

func extractConditional(resp *http.Response) ConditionalGetInfo {
	out := ConditionalGetInfo{ETag: resp.Header.Get("ETag")}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			out.LastModified = t
		}
	}
	return out
}
