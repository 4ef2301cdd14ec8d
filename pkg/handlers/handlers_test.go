package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/bookswap/pkg/models"
)

func TestRespondError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "Validation Error",
			err:    &models.ValidationError{Field: "title", Reason: "must not be empty"},
			status: http.StatusBadRequest,
			body:   "invalid title",
		},
		{
			name:   "Not Found Error",
			err:    &models.NotFoundError{Kind: "book", Id: "b1"},
			status: http.StatusNotFound,
			body:   "book b1 not found",
		},
		{
			name:   "Conflict Error",
			err:    &models.ConflictError{Reason: "book b1 is RESERVED"},
			status: http.StatusConflict,
			body:   "RESERVED",
		},
		{
			name:   "Invalid State Error",
			err:    &models.InvalidStateError{Entity: "swap request", From: "DECLINED", Op: "accept"},
			status: http.StatusUnprocessableEntity,
			body:   "cannot accept",
		},
		{
			name:   "Wrapped Domain Error",
			err:    errors.Join(errors.New("context"), &models.NotFoundError{Kind: "user", Id: "u1"}),
			status: http.StatusNotFound,
			body:   "not found",
		},
		{
			name:   "Unknown Error Does Not Leak Detail",
			err:    errors.New("dynamodb endpoint secret detail"),
			status: http.StatusInternalServerError,
			body:   "internal server error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			RespondError(rr, tc.err)

			assert.Equal(t, tc.status, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.body)
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, rr.Body.String(), "secret")
			}
		})
	}
}

func TestUUIDParam(t *testing.T) {
	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("bookId", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	t.Run("Valid UUID", func(t *testing.T) {
		want := uuid.New().String()

		id, err := UUIDParam(withParam(want), "bookId")

		require.NoError(t, err)
		assert.Equal(t, want, id.String())
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := UUIDParam(withParam("not-a-uuid"), "bookId")

		var ve *models.ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Equal(t, "bookId", ve.Field)
	})
}

func TestDecodeJSON(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Leah"}`))

		var v struct {
			Name string `json:"name"`
		}
		require.NoError(t, DecodeJSON(req, &v))
		assert.Equal(t, "Leah", v.Name)
	})

	t.Run("Malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not-json"))

		var v map[string]any
		err := DecodeJSON(req, &v)

		var ve *models.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}
