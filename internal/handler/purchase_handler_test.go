package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"raffle-platform/internal/handler"
	"raffle-platform/internal/model"
	"raffle-platform/internal/service/mocks"
	apperrors "raffle-platform/pkg/app_errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupPurchaseRouter(mockService *mocks.PurchaseServiceMock, actor model.Actor) http.Handler {
	return setupRouter(actor, handler.NewPurchaseHandler(mockService).RegisterRoutes)
}

func TestReserve(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testUser)

		mockService.On("Reserve", mock.Anything, testUser.UserID, 3, []string{"7", "12"}, 0).Return(&model.ReservationResult{
			PurchaseID:      11,
			ReservedNumbers: []string{"007", "012"},
			ReservedUntil:   time.Now().Add(10 * time.Minute),
			Subtotal:        decimal.NewFromInt(200),
		}, nil).Once()

		req := createJSONHTTPRequest("POST", "/api/v1/purchases/reserve", model.ReserveRequest{
			CampaignID: 3,
			Numbers:    []string{"7", "12"},
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"purchase_id":11`)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - Conflict", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testUser)

		conflict := apperrors.NewConflictError(apperrors.ConflictDetail{
			Requested:   []string{"007", "012"},
			Unavailable: []string{"012"},
			Sold:        []string{"012"},
			Reserved:    []string{},
			NotFound:    []string{},
		})
		mockService.On("Reserve", mock.Anything, testUser.UserID, 3, mock.Anything, 0).Return(nil, conflict).Once()

		req := createJSONHTTPRequest("POST", "/api/v1/purchases/reserve", model.ReserveRequest{
			CampaignID: 3,
			Numbers:    []string{"7", "12"},
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		var body struct {
			Error  string                   `json:"error"`
			Detail apperrors.ConflictDetail `json:"detail"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, []string{"012"}, body.Detail.Sold)
		assert.Equal(t, []string{"007", "012"}, body.Detail.Requested)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - NoValidNumbers", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testUser)

		mockService.On("Reserve", mock.Anything, testUser.UserID, 3, []string{"abc"}, 0).Return(nil, apperrors.ErrNoValidNumbers).Once()

		req := createJSONHTTPRequest("POST", "/api/v1/purchases/reserve", model.ReserveRequest{
			CampaignID: 3,
			Numbers:    []string{"abc"},
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "No valid numbers")
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - BindingError", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testUser)

		req := createJSONHTTPRequest("POST", "/api/v1/purchases/reserve", InvalidJSON)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Reserve")
	})
}

func TestPurchaseImmediate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testUser)

		mockService.On("PurchaseImmediate", mock.Anything, testUser.UserID, 3, []string{"1"}).Return(&model.DirectPurchaseResult{
			PurchaseID:     4,
			Numbers:        []string{"001"},
			Total:          decimal.NewFromInt(100),
			UnitPrice:      decimal.NewFromInt(100),
			AvailableSpins: 0,
		}, nil).Once()

		req := createJSONHTTPRequest("POST", "/api/v1/purchases", model.DirectPurchaseRequest{
			CampaignID: 3,
			Numbers:    []string{"1"},
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - CampaignNotActive", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testUser)

		mockService.On("PurchaseImmediate", mock.Anything, testUser.UserID, 3, []string{"1"}).Return(nil, apperrors.ErrCampaignNotActive).Once()

		req := createJSONHTTPRequest("POST", "/api/v1/purchases", model.DirectPurchaseRequest{
			CampaignID: 3,
			Numbers:    []string{"1"},
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - MissingNumbers", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testUser)

		req := createJSONHTTPRequest("POST", "/api/v1/purchases", map[string]interface{}{"campaign_id": 3})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "PurchaseImmediate")
	})
}

func TestGetPurchase(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testUser)

		mockService.On("GetPurchase", mock.Anything, testUser, 9).Return(&model.Purchase{
			ID:     9,
			UserID: testUser.UserID,
			Status: model.PurchaseStatusPending,
		}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/purchases/9", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidID", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testUser)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/purchases/invalid", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "GetPurchase")
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testUser)

		mockService.On("GetPurchase", mock.Anything, testUser, 99999).Return(nil, apperrors.ErrPurchaseNotFound).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/purchases/99999", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestConfirmPurchase(t *testing.T) {
	t.Run("Forbidden for users", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testUser)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/admin/purchases/5/confirm", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockService.AssertNotCalled(t, "Confirm")
	})

	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testAdmin)

		mockService.On("Confirm", mock.Anything, 5).Return(&model.Purchase{
			ID:     5,
			Status: model.PurchaseStatusCompleted,
		}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/admin/purchases/5/confirm", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - InvalidStatus", func(t *testing.T) {
		mockService := mocks.NewPurchaseServiceMock()
		router := setupPurchaseRouter(mockService, testAdmin)

		mockService.On("Confirm", mock.Anything, 5).Return(nil, apperrors.ErrInvalidPurchaseStatus).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/admin/purchases/5/confirm", nil))

		assert.Equal(t, http.StatusConflict, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestMyTitles(t *testing.T) {
	mockService := mocks.NewPurchaseServiceMock()
	router := setupPurchaseRouter(mockService, testUser)

	mockService.On("MyTitles", mock.Anything, testUser.UserID, mock.MatchedBy(func(id *int) bool {
		return id != nil && *id == 3
	})).Return([]*model.CampaignTitles{
		{CampaignID: 3, CampaignTitle: "Car", Status: model.CampaignStatusActive, Numbers: []string{"001", "010"}},
	}, nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/me/titles?campaign_id=3", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"010"`)
	mockService.AssertExpectations(t)
}
