package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fuelstation-ledger/internal/api/service"
	"github.com/fuelstation-ledger/internal/domain/account"
	"github.com/fuelstation-ledger/internal/domain/shared"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, name string, kind shared.AccountKind, openingBalance int64, actor string) (*account.Account, error) {
	args := m.Called(ctx, name, kind, openingBalance, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.Default()
	return r
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		accountID := uuid.New()
		now := time.Now()
		expectedAccount := &account.Account{
			ID:        accountID,
			Name:      "Main Register",
			Kind:      shared.AccountKindCash,
			Balance:   int64(120000),
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		mockService.On("CreateAccount", mock.Anything, "Main Register", shared.AccountKindCash, int64(120000), "anonymous").Return(expectedAccount, nil)

		router := setupTestRouter()
		router.POST("/accounts", handler.CreateAccount)

		reqBody := CreateAccountRequest{
			Name:           "Main Register",
			Kind:           "CASH",
			OpeningBalance: int64(120000),
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var topLevelResponse Response
		err := json.Unmarshal(rr.Body.Bytes(), &topLevelResponse)
		assert.NoError(t, err, "Failed to unmarshal top-level response")

		require.NotNil(t, topLevelResponse.Data, "'data' field should not be nil")

		var responseBody AccountResponse
		dataBytes, marshalErr := json.Marshal(topLevelResponse.Data)
		require.NoError(t, marshalErr, "Failed to marshal topLevelResponse.Data")
		unmarshalErr := json.Unmarshal(dataBytes, &responseBody)
		require.NoError(t, unmarshalErr, "Failed to unmarshal data field into AccountResponse")

		assert.Equal(t, expectedAccount.ID.String(), responseBody.ID)
		assert.Equal(t, expectedAccount.Name, responseBody.Name)
		assert.Equal(t, string(expectedAccount.Kind), responseBody.Kind)
		assert.Equal(t, expectedAccount.Balance, responseBody.Balance)

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/accounts", handler.CreateAccount)

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString(`{"invalid`)) // Malformed JSON
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t) // Ensure no service methods were called
	})

	t.Run("InvalidKindRejectedByBinding", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/accounts", handler.CreateAccount)

		jsonBody, _ := json.Marshal(CreateAccountRequest{Name: "Wallet", Kind: "WALLET"})

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		mockService.On("CreateAccount", mock.Anything, "Main Register", shared.AccountKindCash, int64(0), "anonymous").
			Return(nil, account.ErrDuplicateName{Name: "Main Register"})

		router := setupTestRouter()
		router.POST("/accounts", handler.CreateAccount)

		jsonBody, _ := json.Marshal(CreateAccountRequest{Name: "Main Register", Kind: "CASH"})

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		var response Response
		err := json.Unmarshal(rr.Body.Bytes(), &response)
		assert.NoError(t, err)
		require.NotNil(t, response.Error, "Error field in response should not be nil")
		assert.Equal(t, "CONFLICT", response.Error.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		mockService.On("CreateAccount", mock.Anything, "Fuel Bank", shared.AccountKindBank, int64(5000), "anonymous").Return(nil, errors.New("service unavailable"))

		router := setupTestRouter()
		router.POST("/accounts", handler.CreateAccount)

		jsonBody, _ := json.Marshal(CreateAccountRequest{Name: "Fuel Bank", Kind: "BANK", OpeningBalance: int64(5000)})

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_GetAccount(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		accountID := uuid.New()
		now := time.Now()
		expectedAccount := &account.Account{
			ID:        accountID,
			Name:      "Fuel Bank",
			Kind:      shared.AccountKindBank,
			Balance:   int64(450000),
			Version:   3,
			CreatedAt: now,
			UpdatedAt: now,
		}
		mockService.On("GetAccountByID", mock.Anything, accountID).Return(expectedAccount, nil)

		router := setupTestRouter()
		router.GET("/accounts/:id", handler.GetAccount)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String(), nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var topLevelResponse Response
		err := json.Unmarshal(rr.Body.Bytes(), &topLevelResponse)
		assert.NoError(t, err)

		require.NotNil(t, topLevelResponse.Data)

		var responseBody AccountResponse
		dataBytes, marshalErr := json.Marshal(topLevelResponse.Data)
		require.NoError(t, marshalErr, "Failed to marshal topLevelResponse.Data")
		unmarshalErr := json.Unmarshal(dataBytes, &responseBody)
		require.NoError(t, unmarshalErr, "Failed to unmarshal data field into AccountResponse")

		assert.Equal(t, expectedAccount.ID.String(), responseBody.ID)
		assert.Equal(t, expectedAccount.Name, responseBody.Name)
		assert.Equal(t, expectedAccount.Balance, responseBody.Balance)

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id", handler.GetAccount)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/not-a-uuid", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t) // No service calls expected
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		accountID := uuid.New()
		mockService.On("GetAccountByID", mock.Anything, accountID).Return(nil, account.ErrAccountNotFound{AccountID: accountID})

		router := setupTestRouter()
		router.GET("/accounts/:id", handler.GetAccount)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String(), nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		accountID := uuid.New()
		mockService.On("GetAccountByID", mock.Anything, accountID).Return(nil, errors.New("database connection lost"))

		router := setupTestRouter()
		router.GET("/accounts/:id", handler.GetAccount)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String(), nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_ListAccounts(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		now := time.Now()
		accounts := []*account.Account{
			{ID: uuid.New(), Name: "Main Register", Kind: shared.AccountKindCash, Balance: 120000, CreatedAt: now, UpdatedAt: now},
			{ID: uuid.New(), Name: "Fuel Bank", Kind: shared.AccountKindBank, Balance: 450000, CreatedAt: now, UpdatedAt: now},
		}
		mockService.On("ListAccounts", mock.Anything).Return(accounts, nil)

		router := setupTestRouter()
		router.GET("/accounts", handler.ListAccounts)

		req, _ := http.NewRequest(http.MethodGet, "/accounts", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var topLevelResponse Response
		err := json.Unmarshal(rr.Body.Bytes(), &topLevelResponse)
		assert.NoError(t, err)
		require.NotNil(t, topLevelResponse.Data)

		var responseBody []AccountResponse
		dataBytes, _ := json.Marshal(topLevelResponse.Data)
		require.NoError(t, json.Unmarshal(dataBytes, &responseBody))
		assert.Len(t, responseBody, 2)
		assert.Equal(t, "Main Register", responseBody[0].Name)

		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		mockService.On("ListAccounts", mock.Anything).Return(nil, errors.New("db down"))

		router := setupTestRouter()
		router.GET("/accounts", handler.ListAccounts)

		req, _ := http.NewRequest(http.MethodGet, "/accounts", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

var _ service.AccountService = (*MockAccountService)(nil)
