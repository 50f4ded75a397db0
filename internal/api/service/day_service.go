package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/fuelstation-ledger/internal/domain/audit"
	"github.com/fuelstation-ledger/internal/domain/dayops"
	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/fuelstation-ledger/internal/domain/transaction"
	"github.com/fuelstation-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const autoCloseNote = "auto-closed by backlog rollover"

// DayServiceImpl implements the DayService interface
type DayServiceImpl struct {
	pgDB         *persistence.PostgresDB
	opRepo       dayops.OperationRepository
	balanceRepo  dayops.BalanceRepository
	varianceRepo dayops.VarianceLogRepository
	txRepo       transaction.Repository
	outboxRepo   audit.Repository
	policy       dayops.TolerancePolicy
	logger       *slog.Logger
}

// NewDayService creates a new day lifecycle service
func NewDayService(
	pgDB *persistence.PostgresDB,
	opRepo dayops.OperationRepository,
	balanceRepo dayops.BalanceRepository,
	varianceRepo dayops.VarianceLogRepository,
	txRepo transaction.Repository,
	outboxRepo audit.Repository,
	policy dayops.TolerancePolicy,
	logger *slog.Logger,
) DayService {
	return &DayServiceImpl{
		pgDB:         pgDB,
		opRepo:       opRepo,
		balanceRepo:  balanceRepo,
		varianceRepo: varianceRepo,
		txRepo:       txRepo,
		outboxRepo:   outboxRepo,
		policy:       policy,
		logger:       logger,
	}
}

// StartDay opens the date with the physically counted cash. Any unclosed
// earlier days are rolled over first, each closed with its own figures, so
// the opening expectation always comes from a closed day.
func (s *DayServiceImpl) StartDay(ctx context.Context, date time.Time, actualCash int64, explanation, actor string) (*dayops.DailyOperation, error) {
	date = dayops.DateOf(date)

	var op *dayops.DailyOperation
	err := s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		op, err = s.startDayInTx(ctx, tx, date, actualCash, explanation, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Day started",
		"date", date.Format("2006-01-02"),
		"actual_cash", actualCash,
		"variance", op.OpeningCashVariance,
		"actor", actor,
	)
	return op, nil
}

func (s *DayServiceImpl) startDayInTx(ctx context.Context, tx pgx.Tx, date time.Time, actualCash int64, explanation, actor string) (*dayops.DailyOperation, error) {
	opRepoTx := s.opRepo.WithTx(tx)
	balanceRepoTx := s.balanceRepo.WithTx(tx)
	varianceRepoTx := s.varianceRepo.WithTx(tx)
	outboxRepoTx := s.outboxRepo.WithTx(tx)

	if err := s.rolloverBacklog(ctx, tx, date, actor); err != nil {
		return nil, err
	}

	var expected int64
	lastClosed, err := balanceRepoTx.LatestClosedBefore(ctx, date)
	if err != nil {
		return nil, err
	}
	if lastClosed != nil {
		expected = lastClosed.CashClosing
	}

	variance, err := s.policy.CheckVariance(expected, actualCash, explanation)
	if err != nil {
		return nil, err
	}

	op := dayops.NewDailyOperation(date, actualCash, variance, actor, explanation)
	if err := opRepoTx.Create(ctx, op); err != nil {
		return nil, err
	}

	existing, err := balanceRepoTx.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		var bankOpening int64
		if lastClosed != nil {
			bankOpening = lastClosed.BankClosing
		}
		if err := balanceRepoTx.Create(ctx, dayops.NewDailyBalance(date, expected, bankOpening)); err != nil {
			return nil, err
		}
	}

	if variance != 0 {
		entry := dayops.NewVarianceLogEntry(date, shared.VarianceTypeOpeningCash, expected, actualCash, explanation, actor)
		if err := varianceRepoTx.Create(ctx, entry); err != nil {
			return nil, err
		}
	}

	message, err := audit.NewMessage(audit.EventDayOpened, "daily_operations", date.Format("2006-01-02"), actor, op)
	if err != nil {
		return nil, err
	}
	if err := outboxRepoTx.Create(ctx, message); err != nil {
		return nil, err
	}

	return op, nil
}

// CloseDay closes an open date. The expectation is the opening count plus
// the day's cash income minus its cash expenses; transfers between own
// accounts do not enter the drawer expectation.
func (s *DayServiceImpl) CloseDay(ctx context.Context, date time.Time, actualCash int64, explanation, actor string) (*dayops.DailyOperation, error) {
	date = dayops.DateOf(date)

	var op *dayops.DailyOperation
	err := s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		op, err = s.closeDayInTx(ctx, tx, date, actualCash, explanation, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Day closed",
		"date", date.Format("2006-01-02"),
		"actual_cash", actualCash,
		"variance", derefInt64(op.ClosingCashVariance),
		"actor", actor,
	)
	return op, nil
}

func (s *DayServiceImpl) closeDayInTx(ctx context.Context, tx pgx.Tx, date time.Time, actualCash int64, explanation, actor string) (*dayops.DailyOperation, error) {
	opRepoTx := s.opRepo.WithTx(tx)
	balanceRepoTx := s.balanceRepo.WithTx(tx)
	varianceRepoTx := s.varianceRepo.WithTx(tx)
	txRepoTx := s.txRepo.WithTx(tx)
	outboxRepoTx := s.outboxRepo.WithTx(tx)

	op, err := opRepoTx.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if op == nil || op.Status != shared.DayStatusOpen {
		return nil, dayops.ErrDayNotOpen{Date: date}
	}

	cashIn, cashOut, err := txRepoTx.SumCashFlows(ctx, date)
	if err != nil {
		return nil, err
	}
	expected := op.OpeningCashActual + cashIn - cashOut

	variance, err := s.policy.CheckVariance(expected, actualCash, explanation)
	if err != nil {
		return nil, err
	}

	totalSales, totalExpenses, err := txRepoTx.SumByKind(ctx, date)
	if err != nil {
		return nil, err
	}

	op.Close(actualCash, variance, totalSales, totalExpenses, actor)
	if err := opRepoTx.Update(ctx, op); err != nil {
		return nil, err
	}

	if err := balanceRepoTx.Close(ctx, date, actor, explanation); err != nil {
		return nil, err
	}

	if variance != 0 {
		entry := dayops.NewVarianceLogEntry(date, shared.VarianceTypeClosingCash, expected, actualCash, explanation, actor)
		if err := varianceRepoTx.Create(ctx, entry); err != nil {
			return nil, err
		}
	}

	message, err := audit.NewMessage(audit.EventDayClosed, "daily_operations", date.Format("2006-01-02"), actor, op)
	if err != nil {
		return nil, err
	}
	if err := outboxRepoTx.Create(ctx, message); err != nil {
		return nil, err
	}

	return op, nil
}

// GetDay returns the workflow, balance and variance records for a date
func (s *DayServiceImpl) GetDay(ctx context.Context, date time.Time) (*DayView, error) {
	date = dayops.DateOf(date)

	op, err := s.opRepo.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, dayops.ErrOperationNotFound{Date: date}
	}

	balance, err := s.balanceRepo.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	variances, err := s.varianceRepo.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	return &DayView{
		Operation: op,
		Balance:   balance,
		Variances: variances,
	}, nil
}

// rolloverBacklog closes every stale open day strictly before the date, each
// with its own closing figure (the balance row's closing, else its opening
// count) and a zero variance. Days are closed independently; a gap of never-
// started dates stays unstarted. Balance rows created lazily by posting on a
// date whose day was never started have no workflow row, so they are swept
// separately: left open they would keep absorbing deltas and never feed the
// next opening expectation.
func (s *DayServiceImpl) rolloverBacklog(ctx context.Context, tx pgx.Tx, date time.Time, actor string) error {
	opRepoTx := s.opRepo.WithTx(tx)
	balanceRepoTx := s.balanceRepo.WithTx(tx)
	txRepoTx := s.txRepo.WithTx(tx)
	outboxRepoTx := s.outboxRepo.WithTx(tx)

	stale, err := opRepoTx.ListOpenBefore(ctx, date)
	if err != nil {
		return err
	}

	for _, staleOp := range stale {
		closing := staleOp.OpeningCashActual
		balance, err := balanceRepoTx.GetByDate(ctx, staleOp.OperationDate)
		if err != nil {
			return err
		}
		if balance != nil {
			closing = balance.CashClosing
		}

		totalSales, totalExpenses, err := txRepoTx.SumByKind(ctx, staleOp.OperationDate)
		if err != nil {
			return err
		}

		staleOp.Close(closing, 0, totalSales, totalExpenses, actor)
		staleOp.Notes = autoCloseNote
		if err := opRepoTx.Update(ctx, staleOp); err != nil {
			return err
		}

		if balance != nil && !balance.IsClosed {
			if err := balanceRepoTx.Close(ctx, staleOp.OperationDate, actor, autoCloseNote); err != nil {
				return err
			}
		}

		message, err := audit.NewMessage(audit.EventDayAutoClosed, "daily_operations", staleOp.OperationDate.Format("2006-01-02"), actor, staleOp)
		if err != nil {
			return err
		}
		if err := outboxRepoTx.Create(ctx, message); err != nil {
			return err
		}

		s.logger.Warn("Rolled over stale open day",
			"date", staleOp.OperationDate.Format("2006-01-02"),
			"closing_cash", closing,
		)
	}

	orphans, err := balanceRepoTx.ListUnclosedBefore(ctx, date)
	if err != nil {
		return err
	}

	for _, orphan := range orphans {
		if err := balanceRepoTx.Close(ctx, orphan.BalanceDate, actor, autoCloseNote); err != nil {
			return err
		}

		message, err := audit.NewMessage(audit.EventDayAutoClosed, "daily_balances", orphan.BalanceDate.Format("2006-01-02"), actor, orphan)
		if err != nil {
			return err
		}
		if err := outboxRepoTx.Create(ctx, message); err != nil {
			return err
		}

		s.logger.Warn("Closed orphan daily balance row",
			"date", orphan.BalanceDate.Format("2006-01-02"),
			"closing_cash", orphan.CashClosing,
		)
	}

	return nil
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
