package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salonbooking/internal/domain/appointment"
	"salonbooking/internal/domain/realtime"
	"salonbooking/internal/domain/user"
	"salonbooking/internal/middleware"
	"salonbooking/internal/pkg/jwt"
	"salonbooking/internal/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type rosterDirectory struct{}

func (rosterDirectory) FindStaff(_ context.Context, id string) (appointment.Party, error) {
	switch id {
	case "A":
		return appointment.Party{ID: "A", Name: "Ahmet Makas"}, nil
	case "B":
		return appointment.Party{ID: "B", Name: "Mehmet Tarak"}, nil
	}
	return appointment.Party{}, appointment.ErrStaffNotFound
}

func (rosterDirectory) EnsureCustomer(context.Context, string, string) (appointment.Party, error) {
	return appointment.Party{}, appointment.ErrValidation
}

type fixture struct {
	store *appointment.MemoryStore
	cache *realtime.Cache
	svc   *Service
}

func newFixture(t *testing.T, guard appointment.GuardMode) *fixture {
	t.Helper()
	store := appointment.NewMemoryStore(zap.NewNop())
	cache := realtime.NewCache()
	unsubscribe, err := store.Subscribe(context.Background(), cache.Apply)
	require.NoError(t, err)
	t.Cleanup(unsubscribe)

	users := &MockUsers{}
	users.On("GetByID", mock.Anything, "cust-1").Return(&user.User{ID: "cust-1", Name: "Müşteri Can", Role: user.RoleCustomer}, nil).Maybe()
	users.On("GetByID", mock.Anything, "cust-2").Return(&user.User{ID: "cust-2", Name: "Ayşe Yılmaz", Role: user.RoleCustomer}, nil).Maybe()
	users.On("GetByID", mock.Anything, mock.Anything).Return(nil, user.ErrNotFound).Maybe()

	appts := appointment.NewService(store, rosterDirectory{}, nil, guard, time.Second, zap.NewNop())
	svc := NewService(appts, users, cache, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC) }

	return &fixture{store: store, cache: cache, svc: svc}
}

func TestBook_CreatesPendingAppointment(t *testing.T) {
	f := newFixture(t, appointment.GuardTransactional)

	a, err := f.svc.Book(context.Background(), "cust-1", BookRequest{ServiceID: "s1", StaffID: "A", Time: "14:00", Notes: "ilk ziyaret"})
	require.NoError(t, err)

	assert.Equal(t, appointment.StatusPending, a.Status)
	assert.Equal(t, "2025-06-10", a.Date, "date defaults to today")
	assert.Equal(t, "Müşteri Can", a.CustomerName)
	assert.Equal(t, "Ahmet Makas", a.StaffName)
	assert.Equal(t, "ilk ziyaret", a.Notes)

	assert.Len(t, f.cache.Snapshot(), 1)
}

func TestBook_OccupiedSlotRejectedButStoreCreateSucceeds(t *testing.T) {
	for _, guard := range []appointment.GuardMode{appointment.GuardTransactional, appointment.GuardOptimistic} {
		t.Run(string(guard), func(t *testing.T) {
			f := newFixture(t, guard)
			ctx := context.Background()

			require.NoError(t, f.store.Create(ctx, &appointment.Appointment{
				CustomerID: "cust-2", StaffID: "A", Date: "2025-06-10", Time: "14:00", Status: appointment.StatusConfirmed,
			}))

			_, err := f.svc.Book(ctx, "cust-1", BookRequest{ServiceID: "s1", StaffID: "A", Date: "2025-06-10", Time: "14:00"})
			assert.ErrorIs(t, err, ErrSlotTaken)

			av, err := f.svc.Availability("A", "2025-06-10")
			require.NoError(t, err)
			assert.True(t, av.Slots[8].Occupied)
			assert.Equal(t, "14:00", av.Slots[8].Time)

			// the store itself does not guard plain creates
			require.NoError(t, f.store.Create(ctx, &appointment.Appointment{
				CustomerID: "cust-1", StaffID: "A", Date: "2025-06-10", Time: "14:00", Status: appointment.StatusPending,
			}))
			list, err := f.store.FindBy(ctx, appointment.FieldStaffID, "A")
			require.NoError(t, err)
			assert.Len(t, list, 2)
		})
	}
}

func TestBook_StaleViewAtCommit(t *testing.T) {
	ctx := context.Background()

	// the wizard saw an empty grid; another session booked meanwhile
	stale := func(f *fixture) *Service {
		return NewService(f.svc.appointments, f.svc.users, staticView(nil), zap.NewNop())
	}

	t.Run("transactional guard closes the race", func(t *testing.T) {
		f := newFixture(t, appointment.GuardTransactional)
		_, err := f.svc.Book(ctx, "cust-2", BookRequest{ServiceID: "s1", StaffID: "A", Date: "2025-06-10", Time: "10:00"})
		require.NoError(t, err)

		_, err = stale(f).Book(ctx, "cust-1", BookRequest{ServiceID: "s1", StaffID: "A", Date: "2025-06-10", Time: "10:00"})
		assert.ErrorIs(t, err, appointment.ErrSlotOccupied)
	})

	t.Run("optimistic guard keeps both", func(t *testing.T) {
		f := newFixture(t, appointment.GuardOptimistic)
		_, err := f.svc.Book(ctx, "cust-2", BookRequest{ServiceID: "s1", StaffID: "A", Date: "2025-06-10", Time: "10:00"})
		require.NoError(t, err)

		_, err = stale(f).Book(ctx, "cust-1", BookRequest{ServiceID: "s1", StaffID: "A", Date: "2025-06-10", Time: "10:00"})
		require.NoError(t, err)
		assert.Len(t, f.cache.Snapshot(), 2)
	})
}

func TestBook_Validation(t *testing.T) {
	f := newFixture(t, appointment.GuardTransactional)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, "ghost", BookRequest{ServiceID: "s1", StaffID: "A", Time: "10:00"})
	assert.ErrorIs(t, err, ErrNotCustomer)

	_, err = f.svc.Book(ctx, "cust-1", BookRequest{ServiceID: "nope", StaffID: "A", Time: "10:00"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Book(ctx, "cust-1", BookRequest{ServiceID: "s1", StaffID: "A", Date: "10/06/2025", Time: "10:00"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Book(ctx, "cust-1", BookRequest{ServiceID: "s1", StaffID: "A", Date: "2020-01-01", Time: "10:00"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Book(ctx, "cust-1", BookRequest{ServiceID: "s1", StaffID: "Z", Time: "10:00"})
	assert.ErrorIs(t, err, appointment.ErrStaffNotFound)
}

func TestAvailability_DefaultsToToday(t *testing.T) {
	f := newFixture(t, appointment.GuardTransactional)

	av, err := f.svc.Availability("A", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10", av.Date)
	assert.Equal(t, 20, av.Free)

	_, err = f.svc.Availability("A", "tomorrow")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHandler_BookAndAvailability(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator.RegisterBindingTags()

	f := newFixture(t, appointment.GuardTransactional)
	tokens := jwt.New("test-secret", time.Hour)
	h := NewHandler(f.svc)

	r := gin.New()
	v1 := r.Group("/api/v1")
	h.RegisterPublicRoutes(v1)
	h.RegisterProtectedRoutes(v1.Group("", middleware.JWTAuth(tokens)))

	token, err := tokens.GenerateToken("cust-1", "CUSTOMER")
	require.NoError(t, err)

	post := func(body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(gin.H{"service_id": "s1", "staff_id": "A", "date": "2025-06-10", "time": "14:00"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = post(gin.H{"service_id": "s1", "staff_id": "A", "date": "2025-06-10", "time": "14:00"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "SLOT_OCCUPIED")

	w = post(gin.H{"service_id": "s1", "staff_id": "A", "time": "25:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?staff_id=A&date=2025-06-10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data Availability `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 19, body.Data.Free)
	assert.True(t, body.Data.Slots[8].Occupied)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/availability", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
