package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"canteen-connect/internal/cache"
	"canteen-connect/internal/domain"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/repository"

	"golang.org/x/sync/singleflight"
)

var ErrItemUnavailable = errors.New("menu item is not available")

// AddResult reports what happened on an add. CanteenReset is true when the
// cart held items from another canteen and was replaced wholesale; the API
// layer surfaces that as a notice to the customer.
type AddResult struct {
	Cart         *domain.Cart
	CanteenReset bool
}

// Service owns the cart rules: one canteen per cart, quantities merge on
// repeated adds, quantity <= 0 removes the line. Persistence is delegated to
// the repository with a cache in front.
type Service struct {
	repo  repository.CartRepository
	cache cache.CartCache
	log   *logger.Logger
	sfg   singleflight.Group // Prevents cache stampede
}

func NewService(repo repository.CartRepository, cartCache cache.CartCache, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cartCache,
		log:   log,
	}
}

// Get returns the cart for the session, or an empty cart when none exists.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	// Use singleflight so concurrent misses for the same session hit the
	// repository once.
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Error("cart_cache_get_failed", "", "cart cache read failed, falling back to repository", err)
		}

		cart, errGet := s.repo.GetCart(ctx, sessionID)
		if errGet != nil {
			if errors.Is(errGet, repository.ErrCartNotFound) {
				return emptyCart(sessionID), nil
			}
			return nil, errGet
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(setCtx, sessionID, cart); errSet != nil {
				s.log.Error("cart_cache_set_failed", "", "cart cache write failed", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem adds one unit of the menu item. A cart never mixes canteens:
// adding from a different canteen replaces the whole cart with a single line
// of quantity 1.
func (s *Service) AddItem(ctx context.Context, sessionID string, item *domain.MenuItem) (*AddResult, error) {
	if !item.IsAvailable {
		return nil, ErrItemUnavailable
	}

	cart, err := s.loadForWrite(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	reset := false
	if !cart.IsEmpty() && cart.CanteenID() != item.CanteenID {
		cart.Lines = nil
		reset = true
	}

	merged := false
	for i := range cart.Lines {
		if cart.Lines[i].ItemID == item.ID {
			cart.Lines[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ItemID:    item.ID,
			Name:      item.Name,
			Price:     item.Price,
			CanteenID: item.CanteenID,
			Quantity:  1,
			AddedAt:   time.Now(),
		})
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	return &AddResult{Cart: cart, CanteenReset: reset}, nil
}

// UpdateQuantity sets the line quantity. Zero or negative removes the line.
// The store enforces no upper bound; that belongs to checkout validation.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error) {
	cart, err := s.loadForWrite(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Lines {
		if cart.Lines[i].ItemID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return cart, nil
	}

	if quantity <= 0 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	} else {
		cart.Lines[idx].Quantity = quantity
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem removes the line unconditionally; absent lines are a no-op.
func (s *Service) RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	return s.UpdateQuantity(ctx, sessionID, itemID, 0)
}

// Clear empties the cart. Sign-out handling calls this so a shared device
// never leaks the previous user's cart into the next session.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.repo.DeleteCart(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.invalidate(sessionID)
	return nil
}

func (s *Service) loadForWrite(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return emptyCart(sessionID), nil
		}
		return nil, err
	}
	return cart, nil
}

func (s *Service) save(ctx context.Context, cart *domain.Cart) error {
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.invalidate(cart.SessionID)
	return nil
}

func (s *Service) invalidate(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.log.Error("cart_cache_invalidate_failed", "", "cart cache invalidation failed", err)
	}
}

func emptyCart(sessionID string) *domain.Cart {
	now := time.Now()
	return &domain.Cart{
		SessionID: sessionID,
		Lines:     nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
