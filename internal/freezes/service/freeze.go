package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tripfare/internal/events"
	freezeserrors "tripfare/internal/freezes/errors"
	"tripfare/internal/freezes/repository"
	"tripfare/pkg/clock"
	"tripfare/pkg/config"
	mongodb "tripfare/pkg/db/mongo"
	apperrors "tripfare/pkg/errors"
	"tripfare/pkg/model"
	"tripfare/pkg/sanitizer"
)

const storeRetryBackoff = 50 * time.Millisecond

// TokenSealer turns (freezeID, userID) into an opaque redemption token and back.
type TokenSealer interface {
	Seal(first, second string) (string, error)
	Open(token string) (string, string, error)
}

type FreezeService interface {
	Create(ctx context.Context, req *model.FreezeRequest) (*model.PriceFreeze, error)
	Redeem(ctx context.Context, freezeID, userID string) (*model.PriceFreeze, error)
	RedeemByToken(ctx context.Context, token string) (*model.PriceFreeze, error)
	Get(ctx context.Context, freezeID, userID string) (*model.PriceFreeze, error)
	List(ctx context.Context, userID string) (*model.FreezeList, error)
}

type freezeService struct {
	repo      repository.FreezeRepository
	pricer    ReferencePricer
	sealer    TokenSealer
	publisher events.Publisher
	clock     clock.Clock
	validate  *validator.Validate
	newID     func() string
	cfg       *config.Config
}

func NewFreezeService(
	repo repository.FreezeRepository,
	pricer ReferencePricer,
	sealer TokenSealer,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) FreezeService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &freezeService{
		repo:      repo,
		pricer:    pricer,
		sealer:    sealer,
		publisher: publisher,
		clock:     clk,
		validate:  model.NewValidator(),
		newID:     uuid.NewString,
		cfg:       cfg,
	}
}

// Create locks req.CurrentPrice for the user and item. Only the active freeze is ever
// stored; a competing active freeze yields a conflict and nothing is written.
func (s *freezeService) Create(ctx context.Context, req *model.FreezeRequest) (*model.PriceFreeze, error) {
	req.UserID = sanitizer.UserID(req.UserID)
	req.ItemKind = model.ItemKind(sanitizer.ItemKind(string(req.ItemKind)))
	req.ItemID = sanitizer.ItemID(req.ItemID)

	if err := s.validate.Struct(req); err != nil {
		err = model.TranslateValidationErrors(err)
		s.cfg.Log.Warn("Freeze request validation failed",
			"user_id", req.UserID,
			"item_id", req.ItemID,
			"error", err,
		)
		return nil, validationError("Freeze request validation failed", err)
	}

	now := s.clock.Now()
	if err := s.releaseLapsed(ctx, req, now); err != nil {
		return nil, err
	}

	reference, err := s.pricer.ReferencePrice(ctx, req.ItemKind, req.ItemID, req.CurrentPrice)
	if err != nil {
		s.cfg.Log.Error("Failed to determine reference price", "item_id", req.ItemID, "error", err)
		return nil, apperrors.Internal("Failed to determine reference price", err)
	}
	if reference < req.CurrentPrice {
		reference = req.CurrentPrice
	}

	f := model.NewPriceFreeze(s.newID(), req.UserID, req.ItemKind, req.ItemID, req.CurrentPrice, reference, now, s.cfg.FreezeWindow)
	if err := f.Activate(); err != nil {
		return nil, apperrors.Internal("Failed to activate price freeze", err)
	}

	if err := s.repo.Insert(ctx, f); err != nil {
		if errors.Is(err, freezeserrors.ErrAlreadyFrozen) {
			s.cfg.Log.Info("Freeze rejected, active freeze exists",
				"user_id", req.UserID,
				"item_kind", req.ItemKind,
				"item_id", req.ItemID,
			)
			return nil, alreadyFrozen(req, "")
		}
		return nil, s.storeError("Failed to create price freeze", f.ID, err)
	}

	if err := s.attachToken(f); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Freeze created",
		"freeze_id", f.ID,
		"user_id", f.UserID,
		"item_kind", f.ItemKind,
		"item_id", f.ItemID,
		"frozen_price", f.FrozenPrice,
		"savings", f.Savings,
		"window_end", f.WindowEnd,
	)
	s.publisher.FreezeChanged(ctx, events.TypeFreezeCreated, f, now)
	return f, nil
}

// releaseLapsed expires a stored active freeze for the same tuple whose window has passed,
// so it cannot block the new one. A live active freeze is reported as a conflict.
func (s *freezeService) releaseLapsed(ctx context.Context, req *model.FreezeRequest, now time.Time) error {
	var existing *model.PriceFreeze
	err := s.retry(ctx, func(ctx context.Context) error {
		var findErr error
		existing, findErr = s.repo.FindActive(ctx, req.UserID, req.ItemKind, req.ItemID)
		return findErr
	})
	if errors.Is(err, freezeserrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return s.storeError("Failed to check existing freezes", req.UserID, err)
	}

	if !existing.Lapsed(now) {
		return alreadyFrozen(req, existing.ID)
	}
	if _, err := s.expire(ctx, existing, now); err != nil {
		return err
	}
	return nil
}

func (s *freezeService) Redeem(ctx context.Context, freezeID, userID string) (*model.PriceFreeze, error) {
	f, err := s.load(ctx, freezeID, userID)
	if err != nil {
		return nil, err
	}
	return s.redeem(ctx, f)
}

// RedeemByToken redeems the freeze sealed into token on its owner's behalf.
func (s *freezeService) RedeemByToken(ctx context.Context, token string) (*model.PriceFreeze, error) {
	freezeID, userID, err := s.sealer.Open(token)
	if err != nil {
		s.cfg.Log.Warn("Rejected freeze token", "error", err)
		return nil, apperrors.InvalidInput("invalid freeze token").WithCause(err)
	}
	return s.Redeem(ctx, freezeID, userID)
}

func (s *freezeService) redeem(ctx context.Context, f *model.PriceFreeze) (*model.PriceFreeze, error) {
	switch f.State {
	case model.FreezeUsed:
		return nil, alreadyUsed(f.ID)
	case model.FreezeExpired:
		return nil, freezeExpired(f.ID)
	}

	now := s.clock.Now()
	redeemed := *f
	if err := redeemed.Redeem(now); err != nil {
		if !errors.Is(err, model.ErrWindowElapsed) {
			return nil, apperrors.Internal("Failed to redeem price freeze", err)
		}
		stored, expireErr := s.expire(ctx, f, now)
		if expireErr != nil {
			return nil, expireErr
		}
		if stored.State == model.FreezeUsed {
			return nil, alreadyUsed(f.ID)
		}
		s.cfg.Log.Info("Freeze redemption rejected, window elapsed", "freeze_id", f.ID, "window_end", f.WindowEnd)
		return nil, freezeExpired(f.ID)
	}

	if err := s.repo.Transition(ctx, &redeemed, model.FreezeActive); err != nil {
		if !errors.Is(err, freezeserrors.ErrStateChanged) {
			return nil, s.storeError("Failed to redeem price freeze", f.ID, err)
		}
		current, loadErr := s.find(ctx, f.ID)
		if loadErr != nil {
			return nil, s.storeError("Failed to reload price freeze", f.ID, loadErr)
		}
		if current.State == model.FreezeExpired {
			return nil, freezeExpired(f.ID)
		}
		return nil, alreadyUsed(f.ID)
	}

	s.cfg.Log.Info("Freeze redeemed",
		"freeze_id", redeemed.ID,
		"user_id", redeemed.UserID,
		"frozen_price", redeemed.FrozenPrice,
		"savings", redeemed.Savings,
	)
	s.publisher.FreezeChanged(ctx, events.TypeFreezeRedeemed, &redeemed, now)
	return &redeemed, nil
}

// Get returns the freeze as of now, persisting a lapsed window as expired first.
func (s *freezeService) Get(ctx context.Context, freezeID, userID string) (*model.PriceFreeze, error) {
	f, err := s.load(ctx, freezeID, userID)
	if err != nil {
		return nil, err
	}
	f, err = s.present(ctx, f, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if f.State == model.FreezeActive {
		if err := s.attachToken(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (s *freezeService) List(ctx context.Context, userID string) (*model.FreezeList, error) {
	userID = sanitizer.UserID(userID)
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}

	var freezes []*model.PriceFreeze
	err := s.retry(ctx, func(ctx context.Context) error {
		var findErr error
		freezes, findErr = s.repo.FindByUser(ctx, userID)
		return findErr
	})
	if err != nil {
		return nil, s.storeError("Failed to list price freezes", userID, err)
	}

	now := s.clock.Now()
	list := &model.FreezeList{
		Active:  make([]*model.PriceFreeze, 0),
		Used:    make([]*model.PriceFreeze, 0),
		Expired: make([]*model.PriceFreeze, 0),
	}
	for _, f := range freezes {
		f, err := s.present(ctx, f, now)
		if err != nil {
			return nil, err
		}
		switch f.State {
		case model.FreezeActive:
			if err := s.attachToken(f); err != nil {
				return nil, err
			}
			list.Active = append(list.Active, f)
		case model.FreezeUsed:
			list.Used = append(list.Used, f)
		case model.FreezeExpired:
			list.Expired = append(list.Expired, f)
		}
	}
	return list, nil
}

// present returns f as a reader at now should see it. A lapsed active freeze is expired
// in the store before it is returned.
func (s *freezeService) present(ctx context.Context, f *model.PriceFreeze, now time.Time) (*model.PriceFreeze, error) {
	if !f.Lapsed(now) {
		return f, nil
	}
	return s.expire(ctx, f, now)
}

// expire moves an active freeze to expired and returns the stored result. If another
// writer moved it first, the freeze is reloaded.
func (s *freezeService) expire(ctx context.Context, f *model.PriceFreeze, now time.Time) (*model.PriceFreeze, error) {
	expired := *f
	if err := expired.Expire(now); err != nil {
		return nil, apperrors.Internal("Failed to expire price freeze", err)
	}

	if err := s.repo.Transition(ctx, &expired, model.FreezeActive); err != nil {
		if !errors.Is(err, freezeserrors.ErrStateChanged) {
			return nil, s.storeError("Failed to expire price freeze", f.ID, err)
		}
		current, loadErr := s.find(ctx, f.ID)
		if loadErr != nil {
			return nil, s.storeError("Failed to reload price freeze", f.ID, loadErr)
		}
		return current, nil
	}

	s.cfg.Log.Info("Freeze expired",
		"freeze_id", expired.ID,
		"user_id", expired.UserID,
		"window_end", expired.WindowEnd,
	)
	s.publisher.FreezeChanged(ctx, events.TypeFreezeExpired, &expired, now)
	return &expired, nil
}

// load fetches a freeze owned by userID. Malformed ids and other users' freezes are
// reported as not found.
func (s *freezeService) load(ctx context.Context, freezeID, userID string) (*model.PriceFreeze, error) {
	userID = sanitizer.UserID(userID)
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if _, err := uuid.Parse(freezeID); err != nil {
		return nil, apperrors.NotFoundWithID("Price freeze", freezeID).WithCause(freezeserrors.ErrNotFound)
	}

	f, err := s.find(ctx, freezeID)
	if err != nil {
		if errors.Is(err, freezeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Price freeze", freezeID).WithCause(err)
		}
		return nil, s.storeError("Failed to load price freeze", freezeID, err)
	}
	if f.UserID != userID {
		s.cfg.Log.Warn("Freeze requested by non-owner", "freeze_id", freezeID, "user_id", userID)
		return nil, apperrors.NotFoundWithID("Price freeze", freezeID).WithCause(freezeserrors.ErrNotFound)
	}
	return f, nil
}

func (s *freezeService) find(ctx context.Context, id string) (*model.PriceFreeze, error) {
	var f *model.PriceFreeze
	err := s.retry(ctx, func(ctx context.Context) error {
		var findErr error
		f, findErr = s.repo.FindByID(ctx, id)
		return findErr
	})
	return f, err
}

func (s *freezeService) attachToken(f *model.PriceFreeze) error {
	token, err := s.sealer.Seal(f.ID, f.UserID)
	if err != nil {
		s.cfg.Log.Error("Failed to seal freeze token", "freeze_id", f.ID, "error", err)
		return apperrors.Internal("Failed to issue freeze token", err)
	}
	f.Token = token
	return nil
}

func (s *freezeService) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	return mongodb.WithRetry(ctx, mongodb.RetryPolicy{
		MaxRetries: s.cfg.StoreMaxRetries,
		Backoff:    storeRetryBackoff,
	}, fn)
}

func (s *freezeService) storeError(message, id string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(message).WithCause(err)
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	if mongodb.IsTransient(err) {
		return apperrors.Unavailable("freeze store", err)
	}
	return apperrors.Internal(message, err)
}

func alreadyFrozen(req *model.FreezeRequest, existingID string) error {
	details := map[string]any{
		"user_id":   req.UserID,
		"item_kind": req.ItemKind,
		"item_id":   req.ItemID,
	}
	if existingID != "" {
		details["freeze_id"] = existingID
	}
	return apperrors.Conflict("An active price freeze already exists for this item").
		WithDetails(details).
		WithCause(freezeserrors.ErrAlreadyFrozen)
}

func alreadyUsed(freezeID string) error {
	return apperrors.Conflict("Price freeze has already been used").
		WithDetails(map[string]any{"freeze_id": freezeID}).
		WithCause(freezeserrors.ErrAlreadyUsed)
}

func freezeExpired(freezeID string) error {
	return apperrors.FreezeExpired(freezeID).WithCause(freezeserrors.ErrFreezeExpired)
}

func validationError(message string, err error) error {
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
