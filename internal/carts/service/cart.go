package service

import (
	"context"
	"errors"
	auditservice "shelfkeeper/internal/audit/service"
	cartserrors "shelfkeeper/internal/carts/errors"
	"shelfkeeper/internal/carts/repository"
	catalogerrors "shelfkeeper/internal/catalog/errors"
	catalogrepository "shelfkeeper/internal/catalog/repository"
	"shelfkeeper/pkg/config"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/model"
	"time"
)

// CartService keeps each member's wishlist. Cart entries do not reserve
// copies.
type CartService interface {
	Add(ctx context.Context, memberID int64, req *model.CartRequest) (*model.CartEntry, error)
	Remove(ctx context.Context, memberID, bookID int64) error
	List(ctx context.Context, memberID int64) ([]*model.CartEntry, error)
}

type cartService struct {
	repo     repository.CartRepository
	catalog  *catalogrepository.Repositories
	recorder auditservice.Recorder
	cfg      *config.Config
}

func NewCartService(
	repo repository.CartRepository,
	catalog *catalogrepository.Repositories,
	recorder auditservice.Recorder,
	cfg *config.Config,
) CartService {
	return &cartService{
		repo:     repo,
		catalog:  catalog,
		recorder: recorder,
		cfg:      cfg,
	}
}

func (s *cartService) Add(ctx context.Context, memberID int64, req *model.CartRequest) (*model.CartEntry, error) {
	if req == nil || req.BookID <= 0 {
		return nil, apperrors.Validation("Cart validation failed", map[string]any{
			"fields": map[string]any{"book_id": "book_id must be greater than 0"},
		})
	}
	if err := s.checkMember(ctx, memberID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.Books.FindByID(ctx, req.BookID); err != nil {
		if errors.Is(err, catalogerrors.ErrBookNotFound) {
			return nil, apperrors.NotFoundWithID("Book", req.BookID)
		}
		return nil, apperrors.Internal("Failed to retrieve book", err)
	}

	entry, err := s.repo.Add(ctx, &model.CartEntry{
		MemberID: memberID,
		BookID:   req.BookID,
		AddedAt:  time.Now().UTC().Truncate(time.Millisecond),
	})
	if err != nil {
		s.cfg.Log.Error("Failed to add cart entry", "member_id", memberID, "book_id", req.BookID, "error", err)
		return nil, apperrors.Internal("Failed to add cart entry", err)
	}

	s.cfg.Log.Info("Cart entry added", "member_id", memberID, "book_id", req.BookID)
	s.recorder.Record(ctx, model.AuditTableCarts, model.AuditActionCreate, memberID, entry)
	return entry, nil
}

func (s *cartService) Remove(ctx context.Context, memberID, bookID int64) error {
	if memberID <= 0 || bookID <= 0 {
		return apperrors.InvalidInput("Member and book IDs must be positive")
	}

	if err := s.repo.Remove(ctx, memberID, bookID); err != nil {
		if errors.Is(err, cartserrors.ErrNotFound) {
			return apperrors.NotFound("Cart entry").WithDetails(map[string]any{
				"member_id": memberID,
				"book_id":   bookID,
			})
		}
		return apperrors.Internal("Failed to remove cart entry", err)
	}

	s.cfg.Log.Info("Cart entry removed", "member_id", memberID, "book_id", bookID)
	s.recorder.Record(ctx, model.AuditTableCarts, model.AuditActionDelete, memberID, map[string]any{"book_id": bookID})
	return nil
}

func (s *cartService) List(ctx context.Context, memberID int64) ([]*model.CartEntry, error) {
	if err := s.checkMember(ctx, memberID); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve cart", err)
	}
	return entries, nil
}

func (s *cartService) checkMember(ctx context.Context, memberID int64) error {
	if memberID <= 0 {
		return apperrors.InvalidInput("Member ID must be positive")
	}
	if _, err := s.catalog.Members.FindByID(ctx, memberID); err != nil {
		if errors.Is(err, catalogerrors.ErrMemberNotFound) {
			return apperrors.NotFoundWithID("Member", memberID)
		}
		return apperrors.Internal("Failed to retrieve member", err)
	}
	return nil
}
