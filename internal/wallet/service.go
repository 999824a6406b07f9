package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/placemaking/walletpass/internal/config"
	"github.com/placemaking/walletpass/internal/googlewallet"
	"github.com/placemaking/walletpass/internal/logging"
	"github.com/placemaking/walletpass/internal/metrics"
	"github.com/placemaking/walletpass/internal/notification"
)

var (
	// ErrMissingIssuerClass is returned when the issuer id or class suffix is unset.
	ErrMissingIssuerClass = fmt.Errorf("%w: missing issuer/class", config.ErrNotConfigured)

	// ErrPassNotFound is returned for pass ids this service has no record of.
	ErrPassNotFound = errors.New("wallet pass not found")
)

// Provider is the subset of the Google Wallet API the workflow calls.
type Provider interface {
	GetClass(ctx context.Context, token, id string) (googlewallet.GenericClass, error)
	CreateClass(ctx context.Context, token string, class googlewallet.GenericClass) (googlewallet.GenericClass, error)
	CreateObject(ctx context.Context, token string, obj googlewallet.GenericObject) (googlewallet.GenericObject, error)
	GetObject(ctx context.Context, token, id string) (googlewallet.GenericObject, error)
}

// TokenSource hands out bearer tokens for the Wallet API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

// SaveURLMinter produces the deep link that adds an object to Google Wallet.
type SaveURLMinter interface {
	SaveURL(objectID string) (string, error)
}

// Deps aggregates what the service needs. Tokens and Minter are nil when the
// service account could not be loaded; SetupErr then explains why.
type Deps struct {
	Config   config.Wallet
	Tokens   TokenSource
	Provider Provider
	Minter   SaveURLMinter
	Repo     Repository
	Notifier notification.Notifier
	Logger   *slog.Logger
	SetupErr error
}

// Service runs the add-pass workflow: token, class, object, save token.
type Service struct {
	cfg      config.Wallet
	tokens   TokenSource
	provider Provider
	minter   SaveURLMinter
	repo     Repository
	notifier notification.Notifier
	logger   *slog.Logger
	setupErr error
	now      func() time.Time
}

// NewService builds a wallet pass service.
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	repo := d.Repo
	if repo == nil {
		repo = NewMemoryRepository()
	}
	setupErr := d.SetupErr
	if setupErr == nil && (d.Tokens == nil || d.Minter == nil) {
		setupErr = fmt.Errorf("%w: missing Google service account credentials", config.ErrNotConfigured)
	}
	return &Service{
		cfg:      d.Config,
		tokens:   d.Tokens,
		provider: d.Provider,
		minter:   d.Minter,
		repo:     repo,
		notifier: d.Notifier,
		logger:   logger,
		setupErr: setupErr,
		now:      time.Now,
	}
}

// Issue creates a wallet object for the coupon and returns its save URL.
// Configuration and required fields are checked before any network call. When
// the object was created but a later step failed, the returned Result still
// carries its PassID alongside the error.
func (s *Service) Issue(ctx context.Context, coupon CouponData) (res Result, err error) {
	defer func() { metrics.RecordIssue(outcome(err)) }()

	if s.cfg.IssuerID == "" || s.cfg.ClassSuffix == "" {
		return Result{}, ErrMissingIssuerClass
	}
	if err := coupon.Validate(); err != nil {
		return Result{}, err
	}
	if s.setupErr != nil {
		return Result{}, s.setupErr
	}

	s.logger.Info("creating wallet pass for coupon", slog.String("title", string(coupon.Title)))

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return Result{}, err
	}

	classID, err := s.EnsureClass(ctx, token)
	if err != nil {
		s.dropTokenOnAuthFailure(ctx, err)
		return Result{}, err
	}

	obj := BuildObject(s.cfg, classID, coupon, s.now())
	created, err := s.SubmitObject(ctx, token, obj)
	if err != nil {
		s.dropTokenOnAuthFailure(ctx, err)
		return Result{}, err
	}
	passID := created.ID
	if passID == "" {
		passID = obj.ID
	}

	record := PassRecord{
		ID:        passID,
		ClassID:   classID,
		CouponID:  string(coupon.ID),
		Title:     string(coupon.Title),
		Code:      string(coupon.Code),
		Status:    StatusObjectCreated,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Warn("record wallet pass", slog.String("pass_id", passID), slog.Any("error", err))
	}

	saveURL, err := s.minter.SaveURL(passID)
	if err != nil {
		s.notify(ctx, notification.KindPassIncomplete, passID, err.Error())
		return Result{PassID: passID}, fmt.Errorf("mint save token for %s: %w", passID, err)
	}
	s.markSaveIssued(ctx, passID)

	s.logger.Info("wallet pass created", slog.String("pass_id", passID))
	s.notify(ctx, notification.KindPassIssued, passID, string(coupon.Title))

	return Result{PassID: passID, SaveURL: saveURL, Message: readyMessage(string(coupon.Title))}, nil
}

// EnsureClass makes sure the shared generic class exists and returns its id.
// Only a 404 on the probe leads to creation; other failures are returned.
func (s *Service) EnsureClass(ctx context.Context, token string) (string, error) {
	classID := s.cfg.ClassID()

	_, err := s.provider.GetClass(ctx, token, classID)
	switch {
	case err == nil:
		s.logger.Debug("wallet class already exists", slog.String("class_id", classID))
		return classID, nil
	case !googlewallet.IsNotFound(err):
		return "", err
	}

	s.logger.Info("creating new wallet class", slog.String("class_id", classID))
	if _, err := s.provider.CreateClass(ctx, token, ClassTemplate(s.cfg)); err != nil {
		// Another request created it between our probe and insert.
		if googlewallet.IsConflict(err) {
			return classID, nil
		}
		return "", err
	}
	s.logger.Info("wallet class created", slog.String("class_id", classID))
	return classID, nil
}

// SubmitObject inserts the object. A 409 is resolved by reading the existing
// object; any other rejection, or a failed read, is returned unchanged.
func (s *Service) SubmitObject(ctx context.Context, token string, obj googlewallet.GenericObject) (googlewallet.GenericObject, error) {
	created, err := s.provider.CreateObject(ctx, token, obj)
	if err == nil {
		return created, nil
	}
	if !googlewallet.IsConflict(err) {
		return googlewallet.GenericObject{}, err
	}

	s.logger.Info("wallet object already exists, retrieving", slog.String("object_id", obj.ID))
	existing, err := s.provider.GetObject(ctx, token, obj.ID)
	if err != nil {
		return googlewallet.GenericObject{}, err
	}
	return existing, nil
}

// RenewSaveURL mints a fresh save URL for a pass issued earlier.
func (s *Service) RenewSaveURL(ctx context.Context, passID string) (Result, error) {
	rec, err := s.repo.Get(ctx, passID)
	if err != nil {
		return Result{}, err
	}
	if s.setupErr != nil {
		return Result{PassID: rec.ID}, s.setupErr
	}
	saveURL, err := s.minter.SaveURL(rec.ID)
	if err != nil {
		return Result{PassID: rec.ID}, fmt.Errorf("mint save token for %s: %w", rec.ID, err)
	}
	s.markSaveIssued(ctx, rec.ID)
	return Result{PassID: rec.ID, SaveURL: saveURL, Message: readyMessage(rec.Title)}, nil
}

// Get returns the stored record for a pass.
func (s *Service) Get(ctx context.Context, passID string) (PassRecord, error) {
	return s.repo.Get(ctx, passID)
}

func (s *Service) markSaveIssued(ctx context.Context, passID string) {
	if err := s.repo.MarkSaveIssued(ctx, passID, s.now().UTC()); err != nil && !errors.Is(err, ErrPassNotFound) {
		s.logger.Warn("mark save token issued", slog.String("pass_id", passID), slog.Any("error", err))
	}
}

func (s *Service) dropTokenOnAuthFailure(ctx context.Context, err error) {
	if googlewallet.IsUnauthorized(err) {
		s.tokens.Invalidate(ctx)
	}
}

func (s *Service) notify(ctx context.Context, kind, passID, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: passID, Body: body}); err != nil {
		s.logger.Warn("notify", slog.String("kind", kind), slog.Any("error", err))
	}
}

func readyMessage(title string) string {
	return fmt.Sprintf("\"%s\" is ready to save to Google Wallet.", title)
}

func outcome(err error) string {
	var vErr *ValidationError
	var upErr *googlewallet.UpstreamError
	switch {
	case err == nil:
		return "issued"
	case errors.As(err, &vErr):
		return "invalid"
	case errors.Is(err, config.ErrNotConfigured):
		return "not_configured"
	case errors.As(err, &upErr):
		return "upstream_error"
	default:
		return "error"
	}
}
