package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marco-erp/ledger-core/internal/accounting"
	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

type MockFiscalYearService struct {
	mock.Mock
}

func (m *MockFiscalYearService) CreateFiscalYear(ctx context.Context, year int) (*fiscal.Year, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Year), args.Error(1)
}

func (m *MockFiscalYearService) ActivateFiscalYear(ctx context.Context, id uuid.UUID) (*fiscal.Year, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Year), args.Error(1)
}

func (m *MockFiscalYearService) CloseFiscalYear(ctx context.Context, id uuid.UUID) (*fiscal.Year, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Year), args.Error(1)
}

func (m *MockFiscalYearService) LockPeriod(ctx context.Context, yearID uuid.UUID, periodNumber int) (*fiscal.Year, error) {
	args := m.Called(ctx, yearID, periodNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Year), args.Error(1)
}

func (m *MockFiscalYearService) UnlockPeriod(ctx context.Context, yearID uuid.UUID, periodNumber int, reason string) (*fiscal.Year, error) {
	args := m.Called(ctx, yearID, periodNumber, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Year), args.Error(1)
}

func (m *MockFiscalYearService) GetFiscalYear(ctx context.Context, id uuid.UUID) (*fiscal.Year, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Year), args.Error(1)
}

func (m *MockFiscalYearService) GetActiveFiscalYear(ctx context.Context) (*fiscal.Year, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Year), args.Error(1)
}

func (m *MockFiscalYearService) ListFiscalYears(ctx context.Context) ([]*fiscal.Year, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*fiscal.Year), args.Error(1)
}

var _ accounting.FiscalYearService = (*MockFiscalYearService)(nil)

func sampleFiscalYear(t *testing.T) *fiscal.Year {
	t.Helper()
	fy, err := fiscal.NewYear(2025, "tester", time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return fy
}

func TestFiscalYearHandler_CreateFiscalYear(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		h := NewFiscalYearHandler(testHandlerLogger(), mockService)

		fy := sampleFiscalYear(t)
		mockService.On("CreateFiscalYear", mock.Anything, 2025).Return(fy, nil)

		router := setupTestRouter()
		router.POST("/fiscal-years", h.CreateFiscalYear)

		jsonBody, _ := json.Marshal(CreateFiscalYearRequest{Year: 2025})
		req, _ := http.NewRequest(http.MethodPost, "/fiscal-years", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		body := decodeData[FiscalYearResponse](t, rr.Body.Bytes())
		assert.Equal(t, 2025, body.Year)
		assert.Equal(t, "SETUP", body.Status)
		assert.Len(t, body.Periods, 12)
		mockService.AssertExpectations(t)
	})

	t.Run("DuplicateYearMapsTo422", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		h := NewFiscalYearHandler(testHandlerLogger(), mockService)

		mockService.On("CreateFiscalYear", mock.Anything, 2025).
			Return(nil, shared.DomainViolation("fiscal year 2025 already exists"))

		router := setupTestRouter()
		router.POST("/fiscal-years", h.CreateFiscalYear)

		jsonBody, _ := json.Marshal(CreateFiscalYearRequest{Year: 2025})
		req, _ := http.NewRequest(http.MethodPost, "/fiscal-years", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestFiscalYearHandler_LockPeriod(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		h := NewFiscalYearHandler(testHandlerLogger(), mockService)

		fy := sampleFiscalYear(t)
		mockService.On("LockPeriod", mock.Anything, fy.ID, 1).Return(fy, nil)

		router := setupTestRouter()
		router.POST("/fiscal-years/:id/periods/:number/lock", h.LockPeriod)

		req, _ := http.NewRequest(http.MethodPost, "/fiscal-years/"+fy.ID.String()+"/periods/1/lock", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidPeriodNumber", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		h := NewFiscalYearHandler(testHandlerLogger(), mockService)

		router := setupTestRouter()
		router.POST("/fiscal-years/:id/periods/:number/lock", h.LockPeriod)

		req, _ := http.NewRequest(http.MethodPost, "/fiscal-years/"+uuid.NewString()+"/periods/abc/lock", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "LockPeriod")
	})
}

func TestFiscalYearHandler_UnlockPeriod(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		h := NewFiscalYearHandler(testHandlerLogger(), mockService)

		fy := sampleFiscalYear(t)
		mockService.On("UnlockPeriod", mock.Anything, fy.ID, 3, "Late supplier invoice").Return(fy, nil)

		router := setupTestRouter()
		router.POST("/fiscal-years/:id/periods/:number/unlock", h.UnlockPeriod)

		jsonBody, _ := json.Marshal(UnlockPeriodRequest{Reason: "Late supplier invoice"})
		req, _ := http.NewRequest(http.MethodPost, "/fiscal-years/"+fy.ID.String()+"/periods/3/unlock", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingReasonRejectedByBinding", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		h := NewFiscalYearHandler(testHandlerLogger(), mockService)

		router := setupTestRouter()
		router.POST("/fiscal-years/:id/periods/:number/unlock", h.UnlockPeriod)

		req, _ := http.NewRequest(http.MethodPost, "/fiscal-years/"+uuid.NewString()+"/periods/3/unlock", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "UnlockPeriod")
	})
}

func TestFiscalYearHandler_GetActiveFiscalYear(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		h := NewFiscalYearHandler(testHandlerLogger(), mockService)

		fy := sampleFiscalYear(t)
		require.NoError(t, fy.Activate())
		mockService.On("GetActiveFiscalYear", mock.Anything).Return(fy, nil)

		router := setupTestRouter()
		router.GET("/fiscal-years/active", h.GetActiveFiscalYear)

		req, _ := http.NewRequest(http.MethodGet, "/fiscal-years/active", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeData[FiscalYearResponse](t, rr.Body.Bytes())
		assert.Equal(t, "ACTIVE", body.Status)
		mockService.AssertExpectations(t)
	})

	t.Run("NoneActiveMapsTo404", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		h := NewFiscalYearHandler(testHandlerLogger(), mockService)

		mockService.On("GetActiveFiscalYear", mock.Anything).
			Return(nil, shared.NotFound("no active fiscal year"))

		router := setupTestRouter()
		router.GET("/fiscal-years/active", h.GetActiveFiscalYear)

		req, _ := http.NewRequest(http.MethodGet, "/fiscal-years/active", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
