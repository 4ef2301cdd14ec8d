package swaps

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/bookswap/pkg/api"
	"github.com/openshelf/bookswap/pkg/availability"
	"github.com/openshelf/bookswap/pkg/catalog"
	"github.com/openshelf/bookswap/pkg/models"
	"github.com/openshelf/bookswap/pkg/storage/memory"
)

type swapsFixture struct {
	handler *Handler
	store   *memory.Store
}

func newSwapsFixture() *swapsFixture {
	store := memory.New()
	tracker := availability.NewTracker(store, catalog.New(), nil)
	return &swapsFixture{handler: NewHandler(tracker, store), store: store}
}

func (f *swapsFixture) addBook(t *testing.T, owner string) string {
	t.Helper()
	bookID := uuid.New().String()
	_, err := f.store.CreateBook(context.Background(), &models.Book{
		Id: bookID, Title: "Title", Author: "Author", OwnerId: owner,
	})
	require.NoError(t, err)
	return bookID
}

func (f *swapsFixture) serve(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rr := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rr, req)
	return rr
}

func (f *swapsFixture) request(t *testing.T, bookID, requester string) api.SwapRequest {
	t.Helper()
	rr := f.serve(t, http.MethodPost, "/", api.NewSwapRequest{BookId: bookID, RequesterId: requester})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created api.SwapRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	return created
}

func TestRequestSwap(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newSwapsFixture()
		bookID := f.addBook(t, "owner")

		created := f.request(t, bookID, "alice")

		assert.Equal(t, api.SwapRequestState(models.PENDING), created.State)
		assert.Equal(t, "owner", created.OwnerId)
	})

	t.Run("Missing Book Id", func(t *testing.T) {
		f := newSwapsFixture()

		rr := f.serve(t, http.MethodPost, "/", api.NewSwapRequest{RequesterId: "alice"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Unknown Book", func(t *testing.T) {
		f := newSwapsFixture()

		rr := f.serve(t, http.MethodPost, "/", api.NewSwapRequest{BookId: uuid.New().String(), RequesterId: "alice"})

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Own Book", func(t *testing.T) {
		f := newSwapsFixture()
		bookID := f.addBook(t, "owner")

		rr := f.serve(t, http.MethodPost, "/", api.NewSwapRequest{BookId: bookID, RequesterId: "owner"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAcceptRequest(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newSwapsFixture()
		bookID := f.addBook(t, "owner")
		created := f.request(t, bookID, "alice")

		rr := f.serve(t, http.MethodPost, "/"+created.Id+"/accept", nil)

		assert.Equal(t, http.StatusOK, rr.Code)

		var accepted api.SwapRequest
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accepted))
		assert.Equal(t, api.SwapRequestState(models.ACCEPTED), accepted.State)
	})

	t.Run("Second Accept Conflicts", func(t *testing.T) {
		f := newSwapsFixture()
		bookID := f.addBook(t, "owner")
		first := f.request(t, bookID, "alice")
		second := f.request(t, bookID, "bob")

		rr := f.serve(t, http.MethodPost, "/"+first.Id+"/accept", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		rr = f.serve(t, http.MethodPost, "/"+second.Id+"/accept", nil)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Declined Request", func(t *testing.T) {
		f := newSwapsFixture()
		bookID := f.addBook(t, "owner")
		created := f.request(t, bookID, "alice")

		rr := f.serve(t, http.MethodPost, "/"+created.Id+"/decline", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		rr = f.serve(t, http.MethodPost, "/"+created.Id+"/accept", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestCancelRequest(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newSwapsFixture()
		bookID := f.addBook(t, "owner")
		created := f.request(t, bookID, "alice")

		rr := f.serve(t, http.MethodPost, "/"+created.Id+"/cancel", api.CancelSwapRequest{RequesterId: "alice"})

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Wrong Requester", func(t *testing.T) {
		f := newSwapsFixture()
		bookID := f.addBook(t, "owner")
		created := f.request(t, bookID, "alice")

		rr := f.serve(t, http.MethodPost, "/"+created.Id+"/cancel", api.CancelSwapRequest{RequesterId: "mallory"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Missing Requester", func(t *testing.T) {
		f := newSwapsFixture()
		bookID := f.addBook(t, "owner")
		created := f.request(t, bookID, "alice")

		rr := f.serve(t, http.MethodPost, "/"+created.Id+"/cancel", api.CancelSwapRequest{})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCompleteSwap(t *testing.T) {
	f := newSwapsFixture()
	bookID := f.addBook(t, "owner")
	created := f.request(t, bookID, "alice")

	rr := f.serve(t, http.MethodPost, "/"+created.Id+"/accept", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = f.serve(t, http.MethodPost, "/"+created.Id+"/complete", nil)

	assert.Equal(t, http.StatusOK, rr.Code)

	var completed api.SwapRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &completed))
	assert.Equal(t, api.SwapRequestState(models.COMPLETED), completed.State)
}

func TestGetSwapRequestById(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newSwapsFixture()
		bookID := f.addBook(t, "owner")
		created := f.request(t, bookID, "alice")

		rr := f.serve(t, http.MethodGet, "/"+created.Id, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Not Found", func(t *testing.T) {
		f := newSwapsFixture()

		rr := f.serve(t, http.MethodGet, "/"+uuid.New().String(), nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestListSwapRequests(t *testing.T) {
	f := newSwapsFixture()
	bookID := f.addBook(t, "owner")
	f.request(t, bookID, "alice")
	f.request(t, bookID, "bob")

	t.Run("By Book", func(t *testing.T) {
		rr := f.serve(t, http.MethodGet, "/book/"+bookID, nil)

		assert.Equal(t, http.StatusOK, rr.Code)

		var requests []api.SwapRequest
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &requests))
		assert.Len(t, requests, 2)
	})

	t.Run("By Requester", func(t *testing.T) {
		userID := uuid.New().String()
		bookID2 := f.addBook(t, "owner2")
		f.request(t, bookID2, userID)

		rr := f.serve(t, http.MethodGet, "/requester/"+userID, nil)

		assert.Equal(t, http.StatusOK, rr.Code)

		var requests []api.SwapRequest
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &requests))
		assert.Len(t, requests, 1)
	})
}
