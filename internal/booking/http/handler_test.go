package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/item-sharing-backend/internal/auth"
	"github.com/nekogravitycat/item-sharing-backend/internal/booking"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/item-sharing-backend/internal/user"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, req booking.CreateRequest) (*booking.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockService) Decide(ctx context.Context, userID, id string, approve bool) (*booking.Booking, error) {
	args := m.Called(ctx, userID, id, approve)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, userID, id string) (*booking.Booking, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockService) ListByBooker(ctx context.Context, req booking.ListRequest) ([]*booking.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockService) ListByOwner(ctx context.Context, req booking.ListRequest) ([]*booking.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockService) ListForItem(ctx context.Context, itemID string) ([]*booking.Booking, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockService) SummaryForItem(ctx context.Context, itemID string) (booking.Summary, bool, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(booking.Summary), args.Bool(1), args.Error(2)
}

func (m *MockService) SummariesForItems(ctx context.Context, itemIDs []string) (map[string]booking.Summary, error) {
	args := m.Called(ctx, itemIDs)
	return args.Get(0).(map[string]booking.Summary), args.Error(1)
}

// memoryStore is an in-process idempotency.Store. Like a network store it fails once ctx is done.
type memoryStore struct {
	mu   sync.Mutex
	keys map[string]idempotency.Entry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]idempotency.Entry{}}
}

func (s *memoryStore) Reserve(ctx context.Context, key, fingerprint string) (idempotency.Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return idempotency.Entry{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.keys[key]; ok {
		return e, false, nil
	}
	s.keys[key] = idempotency.Entry{Fingerprint: fingerprint, Value: idempotency.Pending}
	return idempotency.Entry{}, true, nil
}

func (s *memoryStore) Complete(ctx context.Context, key, fingerprint, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = idempotency.Entry{Fingerprint: fingerprint, Value: value}
	return nil
}

func (s *memoryStore) Release(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

var (
	bookerID = uuid.NewString()
	itemID   = uuid.NewString()
	start    = time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
)

func sampleBooking(id string) *booking.Booking {
	return &booking.Booking{
		ID:         id,
		ItemID:     itemID,
		BookerID:   bookerID,
		BookerName: "Boris",
		Item:       booking.ItemInfo{ID: itemID, Name: "Drill", Description: "Cordless", Available: true},
		StartTime:  start,
		EndTime:    start.Add(2 * time.Hour),
		Status:     booking.StatusWaiting,
	}
}

func setupRouter(svc booking.Service, store idempotency.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group(""), NewHandler(svc, store), auth.SharerRequired())
	return r
}

func do(r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.UserIDHeader, bookerID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createBody() map[string]any {
	return map[string]any{
		"item_id": itemID,
		"start":   start.Format(time.RFC3339),
		"end":     start.Add(2 * time.Hour).Format(time.RFC3339),
	}
}

func TestHandler_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(req booking.CreateRequest) bool {
			return req.UserID == bookerID && req.ItemID == itemID &&
				req.StartTime.Equal(start) && req.EndTime.Equal(start.Add(2*time.Hour))
		})).Return(sampleBooking("b1"), nil)

		w := do(setupRouter(svc, nil), http.MethodPost, "/bookings", createBody(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp BookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "b1", resp.ID)
		assert.Equal(t, "WAITING", resp.Status)
		assert.Equal(t, "Drill", resp.Item.Name)
		assert.Equal(t, bookerID, resp.Booker.ID)
	})

	t.Run("Missing header", func(t *testing.T) {
		svc := new(MockService)
		r := setupRouter(svc, nil)

		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Reversed range", func(t *testing.T) {
		svc := new(MockService)
		body := createBody()
		body["start"], body["end"] = body["end"], body["start"]

		w := do(setupRouter(svc, nil), http.MethodPost, "/bookings", body, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	errorCases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"Self booking", booking.ErrSelfBooking, http.StatusNotFound},
		{"Unknown user", user.ErrNotFound, http.StatusNotFound},
		{"Unavailable", booking.ErrItemUnavailable, http.StatusBadRequest},
		{"Past start", booking.ErrStartTimePast, http.StatusBadRequest},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Create", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := do(setupRouter(svc, nil), http.MethodPost, "/bookings", createBody(), nil)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestHandler_CreateIdempotent(t *testing.T) {
	svc := new(MockService)
	svc.On("Create", mock.Anything, mock.Anything).Return(sampleBooking("b1"), nil).Once()
	svc.On("Get", mock.Anything, bookerID, "b1").Return(sampleBooking("b1"), nil)

	store := newMemoryStore()
	r := setupRouter(svc, store)
	headers := map[string]string{idempotency.Header: "retry-me"}

	first := do(r, http.MethodPost, "/bookings", createBody(), headers)
	second := do(r, http.MethodPost, "/bookings", createBody(), headers)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	svc.AssertNumberOfCalls(t, "Create", 1)

	t.Run("In flight", func(t *testing.T) {
		body := CreateBookingRequest{ItemID: itemID, StartTime: start, EndTime: start.Add(2 * time.Hour)}
		store.keys["idem:booking:create:"+bookerID+":busy"] = idempotency.Entry{
			Fingerprint: body.Fingerprint(),
			Value:       idempotency.Pending,
		}

		w := do(r, http.MethodPost, "/bookings", createBody(), map[string]string{idempotency.Header: "busy"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "still in progress")
	})

	t.Run("Key reused for another booking", func(t *testing.T) {
		body := createBody()
		body["end"] = start.Add(3 * time.Hour).Format(time.RFC3339)

		w := do(r, http.MethodPost, "/bookings", body, headers)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "different request")
		svc.AssertNumberOfCalls(t, "Create", 1)
		svc.AssertNumberOfCalls(t, "Get", 1)
	})

	t.Run("Same instant in another zone replays", func(t *testing.T) {
		body := createBody()
		body["start"] = start.In(time.FixedZone("UTC+2", 2*60*60)).Format(time.RFC3339)

		w := do(r, http.MethodPost, "/bookings", body, headers)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("Failure releases the key", func(t *testing.T) {
		failing := new(MockService)
		failing.On("Create", mock.Anything, mock.Anything).Return(nil, booking.ErrItemUnavailable)
		store := newMemoryStore()

		w := do(setupRouter(failing, store), http.MethodPost, "/bookings", createBody(), map[string]string{idempotency.Header: "k"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, store.keys)
	})
}

// createWithContext builds an idempotent create request bound to ctx.
func createWithContext(ctx context.Context, key string) *http.Request {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(createBody())
	req := httptest.NewRequest(http.MethodPost, "/bookings", &buf).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.UserIDHeader, bookerID)
	req.Header.Set(idempotency.Header, key)
	return req
}

func TestHandler_CreateClientGone(t *testing.T) {
	t.Run("Failed create frees the key", func(t *testing.T) {
		store := newMemoryStore()
		svc := new(MockService)
		r := setupRouter(svc, store)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		// The client hangs up while the booking is being written.
		svc.On("Create", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).
			Return(nil, context.Canceled).Once()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, createWithContext(ctx, "gone"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, store.keys)

		svc.On("Create", mock.Anything, mock.Anything).Return(sampleBooking("b2"), nil).Once()
		retry := do(r, http.MethodPost, "/bookings", createBody(), map[string]string{idempotency.Header: "gone"})

		assert.Equal(t, http.StatusOK, retry.Code)
		svc.AssertNumberOfCalls(t, "Create", 2)
	})

	t.Run("Successful create is still recorded", func(t *testing.T) {
		store := newMemoryStore()
		svc := new(MockService)
		r := setupRouter(svc, store)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		svc.On("Create", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).
			Return(sampleBooking("b3"), nil).Once()
		svc.On("Get", mock.Anything, bookerID, "b3").Return(sampleBooking("b3"), nil)

		r.ServeHTTP(httptest.NewRecorder(), createWithContext(ctx, "late"))

		entry := store.keys["idem:booking:create:"+bookerID+":late"]
		assert.Equal(t, "b3", entry.Value)

		retry := do(r, http.MethodPost, "/bookings", createBody(), map[string]string{idempotency.Header: "late"})

		require.Equal(t, http.StatusOK, retry.Code)
		assert.Contains(t, retry.Body.String(), `"id":"b3"`)
		svc.AssertNumberOfCalls(t, "Create", 1)
	})
}

func TestHandler_Get(t *testing.T) {
	svc := new(MockService)
	id := uuid.NewString()
	svc.On("Get", mock.Anything, bookerID, id).Return(sampleBooking(id), nil)
	other := uuid.NewString()
	svc.On("Get", mock.Anything, bookerID, other).Return(nil, booking.ErrForbidden)
	r := setupRouter(svc, nil)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/bookings/"+id, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/bookings/"+other, nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/bookings/not-a-uuid", nil, nil).Code)
}

func TestHandler_List(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ListByBooker", mock.Anything, booking.ListRequest{UserID: bookerID, State: "ALL", From: 0, Size: 10}).
			Return([]*booking.Booking{}, nil)

		w := do(setupRouter(svc, nil), http.MethodGet, "/bookings", nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Owner route with query", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ListByOwner", mock.Anything, booking.ListRequest{UserID: bookerID, State: "FUTURE", From: 5, Size: 2}).
			Return([]*booking.Booking{sampleBooking("b1")}, nil)

		w := do(setupRouter(svc, nil), http.MethodGet, "/bookings/owner?state=FUTURE&from=5&size=2", nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp []BookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp, 1)
	})

	t.Run("Unknown state", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ListByBooker", mock.Anything, mock.Anything).Return(nil, booking.ErrUnknownState)

		w := do(setupRouter(svc, nil), http.MethodGet, "/bookings?state=PPS", nil, nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Unknown state: UNSUPPORTED_STATUS"}`, w.Body.String())
	})

	t.Run("Negative from", func(t *testing.T) {
		svc := new(MockService)

		w := do(setupRouter(svc, nil), http.MethodGet, "/bookings?from=-1", nil, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "ListByBooker", mock.Anything, mock.Anything)
	})
}

func TestHandler_Decide(t *testing.T) {
	id := uuid.NewString()

	t.Run("Approve", func(t *testing.T) {
		svc := new(MockService)
		approved := sampleBooking(id)
		approved.Status = booking.StatusApproved
		svc.On("Decide", mock.Anything, bookerID, id, true).Return(approved, nil)

		w := do(setupRouter(svc, nil), http.MethodPatch, "/bookings/"+id+"?approved=true", nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"APPROVED"`)
	})

	t.Run("Missing flag", func(t *testing.T) {
		svc := new(MockService)

		w := do(setupRouter(svc, nil), http.MethodPatch, "/bookings/"+id, nil, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Already decided", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Decide", mock.Anything, bookerID, id, false).Return(nil, booking.ErrAlreadyDecided)

		w := do(setupRouter(svc, nil), http.MethodPatch, "/bookings/"+id+"?approved=false", nil, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Not the owner", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Decide", mock.Anything, bookerID, id, true).Return(nil, booking.ErrNotItemOwner)

		w := do(setupRouter(svc, nil), http.MethodPatch, "/bookings/"+id+"?approved=true", nil, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_Delete(t *testing.T) {
	id := uuid.NewString()
	svc := new(MockService)
	svc.On("Delete", mock.Anything, bookerID, id).Return(nil).Once()
	svc.On("Delete", mock.Anything, bookerID, id).Return(booking.ErrNotFound)
	r := setupRouter(svc, nil)

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/bookings/"+id, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/bookings/"+id, nil, nil).Code)
}
