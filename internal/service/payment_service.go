package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cicerp/internal/models"
	"cicerp/internal/repository"
)

var ErrPaymentNotFound = errors.New("service: planned payment not found")

type PaymentService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (s *PaymentService) Create(ctx context.Context, item *models.PlannedPayment) error {
	if s == nil || s.Repo == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Name) == "" || item.DueDate.IsZero() {
		return ErrInvalidInput
	}
	contract, err := s.Repo.GetContractByID(ctx, item.ContractID)
	if err != nil {
		return err
	}
	if contract == nil {
		return ErrContractNotFound
	}
	if item.Status == "" {
		item.Status = models.PaymentStatusScheduled
	}
	return s.Repo.InsertPlannedPayment(ctx, item)
}

// MarkPaid records a received payment. A nil amount means paid in full.
func (s *PaymentService) MarkPaid(ctx context.Context, id uint64, paidAmount *decimal.Decimal, paidAt time.Time) (*models.PlannedPayment, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	item, err := s.Repo.GetPlannedPaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrPaymentNotFound
	}
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	amount := item.Amount
	if paidAmount != nil && paidAmount.Sign() >= 0 {
		amount = *paidAmount
	}
	item.Status = models.PaymentStatusPaid
	item.PaidAt = &paidAt
	item.PaidAmount = &amount
	if err := s.Repo.SavePlannedPayment(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ScanOverdue flips scheduled payments past their due date to overdue.
// Invoked by cron; safe to run repeatedly.
func (s *PaymentService) ScanOverdue(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.Repo == nil {
		return 0, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	n, err := s.Repo.MarkPaymentsOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 && s.Logger != nil {
		s.Logger.Info("marked payments overdue", zap.Int64("count", n))
	}
	return n, nil
}
