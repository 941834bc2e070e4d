package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

// InvestmentService is a purely additive record keeper; value and gain/loss
// are derived on every read and never stored.
type InvestmentService struct {
	store ledger.Store
}

func NewInvestmentService(store ledger.Store) *InvestmentService {
	return &InvestmentService{store: store}
}

type InvestmentInput struct {
	Symbol        string
	Name          string
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	Broker        string
	PurchaseDate  time.Time
}

func (s *InvestmentService) Create(ctx context.Context, userID string, in InvestmentInput) (core.Investment, error) {
	inv := core.Investment{
		ID:            uuid.NewString(),
		UserID:        userID,
		Symbol:        in.Symbol,
		Name:          in.Name,
		Quantity:      in.Quantity,
		PurchasePrice: in.PurchasePrice,
		CurrentPrice:  in.CurrentPrice,
		Broker:        in.Broker,
		PurchaseDate:  in.PurchaseDate,
	}
	if inv.CurrentPrice.IsZero() {
		inv.CurrentPrice = inv.PurchasePrice
	}
	if err := inv.Validate(); err != nil {
		return core.Investment{}, core.Invalid(err.Error())
	}
	if err := s.store.SaveInvestment(ctx, inv); err != nil {
		return core.Investment{}, fmt.Errorf("save investment: %w", err)
	}
	return inv, nil
}

func (s *InvestmentService) Get(ctx context.Context, userID, id string) (core.Investment, error) {
	inv, err := s.store.GetInvestment(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return core.Investment{}, core.NotFound("investment not found")
		}
		return core.Investment{}, fmt.Errorf("load investment: %w", err)
	}
	return inv, nil
}

func (s *InvestmentService) List(ctx context.Context, userID string) ([]core.Investment, error) {
	items, err := s.store.ListInvestments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return items, nil
}

func (s *InvestmentService) Update(ctx context.Context, userID, id string, in InvestmentInput) (core.Investment, error) {
	var out core.Investment
	err := s.store.InTx(ctx, func(tx ledger.Store) error {
		inv, err := tx.GetInvestment(ctx, userID, id)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return core.NotFound("investment not found")
			}
			return fmt.Errorf("load investment: %w", err)
		}
		if in.Symbol != "" {
			inv.Symbol = in.Symbol
		}
		if in.Name != "" {
			inv.Name = in.Name
		}
		if in.Quantity.IsPositive() {
			inv.Quantity = in.Quantity
		}
		if in.PurchasePrice.IsPositive() {
			inv.PurchasePrice = in.PurchasePrice
		}
		if in.CurrentPrice.IsPositive() {
			inv.CurrentPrice = in.CurrentPrice
		}
		if in.Broker != "" {
			inv.Broker = in.Broker
		}
		if !in.PurchaseDate.IsZero() {
			inv.PurchaseDate = in.PurchaseDate
		}
		if err := inv.Validate(); err != nil {
			return core.Invalid(err.Error())
		}
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return fmt.Errorf("save investment: %w", err)
		}
		out = inv
		return nil
	})
	if err != nil {
		return core.Investment{}, err
	}
	return out, nil
}

func (s *InvestmentService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteInvestment(ctx, userID, id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return core.NotFound("investment not found")
		}
		return fmt.Errorf("delete investment: %w", err)
	}
	return nil
}
