package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fuelstation-ledger/internal/config"
	"github.com/fuelstation-ledger/internal/domain/audit"
	"github.com/fuelstation-ledger/internal/domain/shared"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *audit.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*audit.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) audit.Repository {
	return m
}

// MockAuditPublisher for testing
type MockAuditPublisher struct {
	mock.Mock
}

func (m *MockAuditPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockAuditPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestPoller_ProcessPendingMessages(t *testing.T) {
	mockOutboxRepo := &MockOutboxRepo{}
	mockPublisher := &MockAuditPublisher{}
	logger := slog.Default()

	cfg := &config.OutboxConfig{
		PollingInterval:  time.Second,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}

	poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

	message1, err := audit.NewMessage(audit.EventTransactionPosted, "transactions", uuid.New().String(), "cashier-1", map[string]int64{"amount": 5000})
	assert.NoError(t, err)
	message1.ID = 1

	message2, err := audit.NewMessage(audit.EventDayClosed, "daily_operations", "2025-03-14", "manager-1", map[string]int64{"variance": 0})
	assert.NoError(t, err)
	message2.ID = 2

	tests := []struct {
		name          string
		setupMocks    func()
		expectedError error
	}{
		{
			name: "successful publish deletes the staged copies",
			setupMocks: func() {
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*audit.Message{message1, message2}, nil).Once()

				mockPublisher.On("Publish", mock.Anything, message1.EventID.String(), message1.Envelope()).Return(nil).Once()
				mockPublisher.On("Publish", mock.Anything, message2.EventID.String(), message2.Envelope()).Return(nil).Once()

				mockOutboxRepo.On("Delete", mock.Anything, int64(1)).Return(nil).Once()
				mockOutboxRepo.On("Delete", mock.Anything, int64(2)).Return(nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "error getting pending messages",
			setupMocks: func() {
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db error")).Once()
			},
			expectedError: errors.New("failed to get pending audit messages"),
		},
		{
			name: "no pending messages",
			setupMocks: func() {
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*audit.Message{}, nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "publish failure increments attempts and moves on",
			setupMocks: func() {
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*audit.Message{message1, message2}, nil).Once()

				mockPublisher.On("Publish", mock.Anything, message1.EventID.String(), message1.Envelope()).Return(errors.New("publish error")).Once()

				mockOutboxRepo.On("IncrementAttempts", mock.Anything, int64(1)).Return(nil).Once()

				mockPublisher.On("Publish", mock.Anything, message2.EventID.String(), message2.Envelope()).Return(nil).Once()
				mockOutboxRepo.On("Delete", mock.Anything, int64(2)).Return(nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "max retry attempts parks the message",
			setupMocks: func() {
				exhausted, err := audit.NewMessage(audit.EventCardSettled, "card_payments", uuid.New().String(), "manager-1", nil)
				assert.NoError(t, err)
				exhausted.ID = 3
				exhausted.Attempts = 2

				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*audit.Message{exhausted}, nil).Once()

				mockPublisher.On("Publish", mock.Anything, exhausted.EventID.String(), exhausted.Envelope()).Return(errors.New("publish error")).Once()

				mockOutboxRepo.On("IncrementAttempts", mock.Anything, int64(3)).Return(nil).Once()

				mockOutboxRepo.On("UpdateStatus", mock.Anything, int64(3), shared.OutboxStatusFailedToPublish).Return(nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "delete failure leaves the staged copy for the next tick",
			setupMocks: func() {
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*audit.Message{message1}, nil).Once()

				mockPublisher.On("Publish", mock.Anything, message1.EventID.String(), message1.Envelope()).Return(nil).Once()

				mockOutboxRepo.On("Delete", mock.Anything, int64(1)).Return(errors.New("db error")).Once()
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockOutboxRepo = &MockOutboxRepo{}
			mockPublisher = &MockAuditPublisher{}
			poller = NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

			tt.setupMocks()
			ctx := context.Background()

			err := poller.processPendingMessages(ctx)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockOutboxRepo.AssertExpectations(t)
			mockPublisher.AssertExpectations(t)
		})
	}
}

func TestPoller_Start(t *testing.T) {
	mockOutboxRepo := &MockOutboxRepo{}
	mockPublisher := &MockAuditPublisher{}
	logger := slog.Default()

	cfg := &config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}

	poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

	mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*audit.Message{}, nil).Maybe()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	go poller.Start(ctx)

	<-ctx.Done()
}
