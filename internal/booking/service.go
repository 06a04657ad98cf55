package booking

import (
	"context"
	"time"

	"github.com/nekogravitycat/item-sharing-backend/internal/clock"
	"github.com/nekogravitycat/item-sharing-backend/internal/item"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/pagination"
	"github.com/nekogravitycat/item-sharing-backend/internal/user"
)

type CreateRequest struct {
	UserID    string
	ItemID    string
	StartTime time.Time
	EndTime   time.Time
}

type ListRequest struct {
	UserID string
	State  string
	From   int
	Size   int
}

// UserFinder resolves users by id.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// ItemFinder resolves items by id.
type ItemFinder interface {
	GetByID(ctx context.Context, id string) (*item.Item, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	Decide(ctx context.Context, userID, id string, approve bool) (*Booking, error)
	Get(ctx context.Context, userID, id string) (*Booking, error)
	Delete(ctx context.Context, userID, id string) error
	ListByBooker(ctx context.Context, req ListRequest) ([]*Booking, error)
	ListByOwner(ctx context.Context, req ListRequest) ([]*Booking, error)

	// ListForItem returns every booking of the item, newest start first.
	ListForItem(ctx context.Context, itemID string) ([]*Booking, error)
	SummaryForItem(ctx context.Context, itemID string) (Summary, bool, error)
	SummariesForItems(ctx context.Context, itemIDs []string) (map[string]Summary, error)
}

type service struct {
	repo      Repository
	users     UserFinder
	items     ItemFinder
	publisher EventPublisher
	clock     clock.Clock
}

func NewService(repo Repository, users UserFinder, items ItemFinder, publisher EventPublisher, clk clock.Clock) Service {
	return &service{
		repo:      repo,
		users:     users,
		items:     items,
		publisher: publisher,
		clock:     clk,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	// 1. Validate Time Range
	if !req.StartTime.Before(req.EndTime) {
		return nil, ErrInvalidTimeRange
	}
	if req.StartTime.Before(s.clock.Now()) {
		return nil, ErrStartTimePast
	}

	// 2. Resolve Booker and Item
	booker, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	it, err := s.items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	// 3. Owner cannot book own item, item must accept bookings
	if it.OwnerID == booker.ID {
		return nil, ErrSelfBooking
	}
	if !CanBook(it) {
		return nil, ErrItemUnavailable
	}

	// 4. Create Booking
	b := &Booking{
		ItemID:     it.ID,
		BookerID:   booker.ID,
		BookerName: booker.Name,
		Item: ItemInfo{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Available:   it.Available,
			OwnerID:     it.OwnerID,
		},
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    StatusWaiting,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.publish(EventCreated, b)
	return b, nil
}

func (s *service) Decide(ctx context.Context, userID, id string, approve bool) (*Booking, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	it, err := s.items.GetByID(ctx, b.ItemID)
	if err != nil {
		return nil, err
	}
	if it.OwnerID != userID {
		return nil, ErrNotItemOwner
	}
	if b.Status.IsTerminal() {
		return nil, ErrAlreadyDecided
	}

	next := StatusRejected
	if approve {
		next = StatusApproved
	}

	// The store re-checks WAITING, so concurrent decisions cannot both win.
	decided, err := s.repo.Decide(ctx, id, next)
	if err != nil {
		return nil, err
	}

	if next == StatusApproved {
		s.publish(EventApproved, decided)
	} else {
		s.publish(EventRejected, decided)
	}
	return decided, nil
}

// loadAsParty fetches the booking if userID exists and is its booker or item owner.
func (s *service) loadAsParty(ctx context.Context, userID, id string) (*Booking, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsParty(userID, b) {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *service) Get(ctx context.Context, userID, id string) (*Booking, error) {
	return s.loadAsParty(ctx, userID, id)
}

func (s *service) Delete(ctx context.Context, userID, id string) error {
	b, err := s.loadAsParty(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(EventDeleted, b)
	return nil
}

func (s *service) ListByBooker(ctx context.Context, req ListRequest) ([]*Booking, error) {
	return s.list(ctx, ScopeBooker, req)
}

func (s *service) ListByOwner(ctx context.Context, req ListRequest) ([]*Booking, error) {
	return s.list(ctx, ScopeOwner, req)
}

func (s *service) list(ctx context.Context, scope Scope, req ListRequest) ([]*Booking, error) {
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}
	category, err := ParseCategory(req.State)
	if err != nil {
		return nil, err
	}
	page, err := pagination.New(req.From, req.Size, ListOrder...)
	if err != nil {
		return nil, err
	}

	return s.repo.List(ctx, Filter{
		Scope:    scope,
		UserID:   req.UserID,
		Category: category,
		Now:      s.clock.Now(),
		Page:     page,
	})
}

func (s *service) ListForItem(ctx context.Context, itemID string) ([]*Booking, error) {
	return s.repo.ListByItems(ctx, []string{itemID})
}

func (s *service) SummaryForItem(ctx context.Context, itemID string) (Summary, bool, error) {
	bookings, err := s.ListForItem(ctx, itemID)
	if err != nil {
		return Summary{}, false, err
	}
	sum, ok := Summarize(bookings, s.clock.Now())
	return sum, ok, nil
}

// SummariesForItems loads the bookings of all items in one query.
// Items without both a last and a next booking are absent from the result.
func (s *service) SummariesForItems(ctx context.Context, itemIDs []string) (map[string]Summary, error) {
	bookings, err := s.repo.ListByItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	byItem := make(map[string][]*Booking, len(itemIDs))
	for _, b := range bookings {
		byItem[b.ItemID] = append(byItem[b.ItemID], b)
	}

	now := s.clock.Now()
	result := make(map[string]Summary, len(byItem))
	for itemID, list := range byItem {
		if sum, ok := Summarize(list, now); ok {
			result[itemID] = sum
		}
	}
	return result, nil
}
