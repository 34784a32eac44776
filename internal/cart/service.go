package cart

import (
	"context"
	"time"

	"mebelin-be/internal/product"

	"github.com/google/uuid"
)

// Service defines the business logic for carts.
type Service interface {
	GetCart(ctx context.Context, actor Actor) (*Cart, error)
	FindOrCreateCart(ctx context.Context, actor Actor) (*Cart, error)
	AddToCart(ctx context.Context, actor Actor, productID uint, quantity int) (*CartItem, error)
	UpdateQuantity(ctx context.Context, actor Actor, productID uint, quantity int) error
	RemoveFromCart(ctx context.Context, actor Actor, productID uint) error
	ClearCart(ctx context.Context, actor Actor) error
	MergeGuestIntoUser(ctx context.Context, userID uint, sessionID uuid.UUID) error
}

type service struct {
	repo        Repository
	productRepo product.Repository
}

func NewService(repo Repository, productRepo product.Repository) Service {
	return &service{repo: repo, productRepo: productRepo}
}

// GetCart returns the actor's cart with items and live product data.
// A missing cart is returned as an empty one rather than an error.
func (s *service) GetCart(ctx context.Context, actor Actor) (*Cart, error) {
	c, err := s.repo.FindCart(ctx, actor)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &Cart{}, nil
	}

	items, err := s.repo.GetItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items

	return c, nil
}

// FindOrCreateCart resolves the actor's single cart, creating it on
// first use.
func (s *service) FindOrCreateCart(ctx context.Context, actor Actor) (*Cart, error) {
	c, err := s.repo.FindCart(ctx, actor)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	return s.repo.CreateCart(ctx, actor)
}

func (s *service) AddToCart(ctx context.Context, actor Actor, productID uint, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.productRepo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.FindOrCreateCart(ctx, actor)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetItem(ctx, c.ID, productID)
	if err != nil {
		return nil, err
	}

	finalQty := quantity
	if existing != nil {
		finalQty += existing.Quantity
	}

	// Clamp to available stock for guarded products.
	if available, limited := p.Available(); limited {
		if available == 0 {
			return nil, ErrInsufficientStock
		}
		if finalQty > available {
			finalQty = available
		}
	}

	if existing == nil {
		return s.repo.InsertItem(ctx, CreateItemParams{
			CartID:    c.ID,
			ProductID: productID,
			Quantity:  finalQty,
			UnitPrice: product.EffectivePrice(p, time.Now()),
		})
	}

	if err := s.repo.UpdateItemQuantity(ctx, existing.ID, finalQty); err != nil {
		return nil, err
	}
	existing.Quantity = finalQty

	return existing, nil
}

func (s *service) UpdateQuantity(ctx context.Context, actor Actor, productID uint, quantity int) error {
	c, err := s.repo.FindCart(ctx, actor)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCartNotFound
	}

	// Zero or negative quantity removes the line.
	if quantity <= 0 {
		return s.repo.RemoveItem(ctx, c.ID, productID)
	}

	item, err := s.repo.GetItem(ctx, c.ID, productID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrCartItemNotFound
	}

	return s.repo.UpdateItemQuantity(ctx, item.ID, quantity)
}

func (s *service) RemoveFromCart(ctx context.Context, actor Actor, productID uint) error {
	c, err := s.repo.FindCart(ctx, actor)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCartNotFound
	}

	return s.repo.RemoveItem(ctx, c.ID, productID)
}

func (s *service) ClearCart(ctx context.Context, actor Actor) error {
	c, err := s.repo.FindCart(ctx, actor)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCartNotFound
	}

	return s.repo.Clear(ctx, c.ID)
}

func (s *service) MergeGuestIntoUser(ctx context.Context, userID uint, sessionID uuid.UUID) error {
	if userID == 0 {
		return ErrInvalidActor
	}

	return s.repo.MergeGuestIntoUser(ctx, userID, sessionID)
}
