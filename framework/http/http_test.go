package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-shopping/framework/container"
	gohttp "github.com/km-arc/go-shopping/framework/http"
	"github.com/km-arc/go-shopping/framework/http/validation"
	"github.com/km-arc/go-shopping/framework/mainthread"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newJSONRequest(t *testing.T, body string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return gohttp.NewRequest(req)
}

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&m))
	return m
}

type line struct {
	Product  string `json:"product"`
	Quantity string `json:"quantity"`
}

// ── Request ──────────────────────────────────────────────────────────────────

func TestRequest_BindJSON(t *testing.T) {
	t.Parallel()

	var l line
	require.NoError(t, newJSONRequest(t, `{"product":"beans","quantity":"2"}`).Bind(&l))
	assert.Equal(t, line{Product: "beans", Quantity: "2"}, l)
}

func TestRequest_BindErrorsAreBadRequest(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{"empty": "", "invalid": "{bad json}"} {
		t.Run(name, func(t *testing.T) {
			var l line
			err := newJSONRequest(t, body).Bind(&l)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, gohttp.StatusOf(err))
		})
	}

	var l line
	err := newJSONRequest(t, "").Bind(&l)
	assert.ErrorIs(t, err, gohttp.ErrEmptyBody)
}

func TestRequest_BindForm(t *testing.T) {
	t.Parallel()

	values := url.Values{"product": {"tea"}, "quantity": {"3"}}
	raw := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	raw.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var l line
	require.NoError(t, gohttp.NewRequest(raw).Bind(&l))
	assert.Equal(t, line{Product: "tea", Quantity: "3"}, l)
}

func TestRequest_QueryAndParams(t *testing.T) {
	t.Parallel()

	var got struct {
		session string
		line    int
		err     error
		bad     error
		page    string
		missing string
	}
	r := chi.NewRouter()
	r.Get("/sessions/{session}/lines/{line}", func(w http.ResponseWriter, raw *http.Request) {
		req := gohttp.NewRequest(raw)
		got.session = req.RouteParam("session")
		got.line, got.err = req.IntParam("line")
		_, got.bad = req.IntParam("session")
		got.page = req.Query("page", "1")
		got.missing = req.Query("sort", "name")
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/abc/lines/7?page=3", nil))

	assert.Equal(t, "abc", got.session)
	require.NoError(t, got.err)
	assert.Equal(t, 7, got.line)
	assert.Equal(t, http.StatusBadRequest, gohttp.StatusOf(got.bad))
	assert.Equal(t, "3", got.page)
	assert.Equal(t, "name", got.missing)
}

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	req := newJSONRequest(t, "{}")
	err := req.Validate(map[string]string{"quantity": "0"}, validation.Rules{"quantity": "required|integer|gte:1"})
	var bag *validation.Errors
	require.ErrorAs(t, err, &bag)
	assert.NotEmpty(t, bag.First("quantity"))
}

// ── Response ─────────────────────────────────────────────────────────────────

func TestResponse_Envelopes(t *testing.T) {
	t.Parallel()

	res, rr := newResponse(t)
	res.Success(map[string]any{"id": 1})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"id": float64(1)}, decodeJSON(t, rr)["data"])

	res, rr = newResponse(t)
	res.Created("x")
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "x", decodeJSON(t, rr)["data"])

	res, rr = newResponse(t)
	res.NoContent()
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, rr.Body.Len())

	res, rr = newResponse(t)
	res.NotFound()
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Not found.", decodeJSON(t, rr)["message"])
}

func TestResponse_FailMapsStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err     error
		status  int
		message string
	}{
		{gohttp.WithStatus(http.StatusNotFound, errors.New("line 3 not found")), http.StatusNotFound, "line 3 not found"},
		{fmt.Errorf("resolve: %w", container.ErrModuleNotInitialized), http.StatusServiceUnavailable, "Service Unavailable"},
		{mainthread.ErrStopped, http.StatusServiceUnavailable, "Service Unavailable"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "Gateway Timeout"},
		{&container.UnsupportedHostContextError{HostID: "w", Reason: "worker"}, http.StatusBadRequest, ""},
		{errors.New("disk on fire"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range cases {
		res, rr := newResponse(t)
		res.Fail(tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
		if tc.message != "" {
			assert.Equal(t, tc.message, decodeJSON(t, rr)["message"])
		}
	}
}

func TestResponse_FailWithValidationBag(t *testing.T) {
	t.Parallel()

	v := validation.Make(map[string]string{}, validation.Rules{"product": "required"})
	res, rr := newResponse(t)
	res.Fail(v.Validate())

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	errs := decodeJSON(t, rr)["errors"].(map[string]any)
	assert.Equal(t, []any{"The product field is required."}, errs["product"])
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusOK, gohttp.StatusOf(nil))
	assert.Nil(t, gohttp.WithStatus(http.StatusTeapot, nil))
	wrapped := fmt.Errorf("outer: %w", gohttp.WithStatus(http.StatusTeapot, errors.New("inner")))
	assert.Equal(t, http.StatusTeapot, gohttp.StatusOf(wrapped))
}
