package item

import (
	"context"
	"strings"
	"time"

	"github.com/nekogravitycat/item-sharing-backend/internal/clock"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/pagination"
	"github.com/nekogravitycat/item-sharing-backend/internal/user"
)

type CreateRequest struct {
	Name        string
	Description string
	Available   bool
}

type UpdateRequest struct {
	Name        *string
	Description *string
	Available   *bool
}

// UserFinder resolves users by id.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// BookingHistory answers whether a user has already borrowed an item.
type BookingHistory interface {
	HasFinishedBooking(ctx context.Context, userID, itemID string, now time.Time) (bool, error)
}

type Service interface {
	Create(ctx context.Context, ownerID string, req CreateRequest) (*Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	// Get returns the item as seen by callerID, who must be a known user.
	Get(ctx context.Context, callerID, id string) (*Item, error)
	ListByOwner(ctx context.Context, ownerID string, page pagination.Page) ([]*Item, int, error)
	Update(ctx context.Context, callerID, id string, req UpdateRequest) (*Item, error)
	Delete(ctx context.Context, callerID, id string) error

	AddComment(ctx context.Context, authorID, itemID, text string) (*Comment, error)
	ListComments(ctx context.Context, itemID string) ([]*Comment, error)
}

type service struct {
	repo    Repository
	users   UserFinder
	history BookingHistory
	clock   clock.Clock
}

func NewService(repo Repository, users UserFinder, history BookingHistory, clk clock.Clock) Service {
	return &service{
		repo:    repo,
		users:   users,
		history: history,
		clock:   clk,
	}
}

func (s *service) Create(ctx context.Context, ownerID string, req CreateRequest) (*Item, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, ErrEmptyDescription
	}

	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}

	it := &Item{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Available:   req.Available,
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Get(ctx context.Context, callerID, id string) (*Item, error) {
	if _, err := s.users.GetByID(ctx, callerID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByOwner(ctx context.Context, ownerID string, page pagination.Page) ([]*Item, int, error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByOwner(ctx, ownerID, page)
}

// loadOwned returns the item if callerID owns it.
func (s *service) loadOwned(ctx context.Context, callerID, id string) (*Item, error) {
	if _, err := s.users.GetByID(ctx, callerID); err != nil {
		return nil, err
	}
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.OwnerID != callerID {
		return nil, ErrNotOwner
	}
	return it, nil
}

func (s *service) Update(ctx context.Context, callerID, id string, req UpdateRequest) (*Item, error) {
	it, err := s.loadOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrEmptyName
		}
		it.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, ErrEmptyDescription
		}
		it.Description = strings.TrimSpace(*req.Description)
	}
	if req.Available != nil {
		it.Available = *req.Available
	}

	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.loadOwned(ctx, callerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AddComment stores a comment from a user who has an approved booking of the item that already ended.
func (s *service) AddComment(ctx context.Context, authorID, itemID, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, itemID); err != nil {
		return nil, err
	}

	ok, err := s.history.HasFinishedBooking(ctx, authorID, itemID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoFinishedBooking
	}

	cm := &Comment{
		ItemID:     itemID,
		AuthorID:   authorID,
		AuthorName: author.Name,
		Text:       text,
	}
	if err := s.repo.CreateComment(ctx, cm); err != nil {
		return nil, err
	}
	return cm, nil
}

func (s *service) ListComments(ctx context.Context, itemID string) ([]*Comment, error) {
	return s.repo.ListComments(ctx, itemID)
}
