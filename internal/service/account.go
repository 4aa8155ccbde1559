package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// AccountPage is the profile page's data. Profile is nil until one exists.
type AccountPage struct {
	Identity  domain.Identity  `json:"identity"`
	Profile   *domain.Profile  `json:"profile"`
	Addresses []domain.Address `json:"addresses"`
	Orders    []domain.Order   `json:"orders"`
}

// AccountService reads the profile page.
type AccountService struct {
	accounts repository.AccountRepository
	logger   *slog.Logger
}

// NewAccountService creates an account service.
func NewAccountService(accounts repository.AccountRepository, logger *slog.Logger) *AccountService {
	return &AccountService{accounts: accounts, logger: logger}
}

// Page fetches the profile, addresses and orders concurrently.
func (s *AccountService) Page(ctx context.Context, id domain.Identity) (*AccountPage, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	page := &AccountPage{Identity: id}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.accounts.GetProfile(gctx, id.UserID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return storeError("load profile", err)
		}
		page.Profile = p
		return nil
	})
	g.Go(func() error {
		addrs, err := s.accounts.ListAddresses(gctx, id.UserID)
		if err != nil {
			return storeError("load addresses", err)
		}
		page.Addresses = addrs
		return nil
	})
	g.Go(func() error {
		orders, err := s.accounts.ListOrders(gctx, id.UserID)
		if err != nil {
			return storeError("load orders", err)
		}
		page.Orders = orders
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "failed to load profile page",
			slog.String("user_id", id.UserID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return page, nil
}
