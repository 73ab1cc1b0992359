package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"smartparking/backend/services/parking-service/internal/metrics"
	"smartparking/backend/services/parking-service/internal/models"
	"smartparking/backend/services/parking-service/internal/parking"
	"smartparking/backend/services/parking-service/internal/repository"
)

const lapsedBatch = 100

// SessionStore persists sessions and their history.
type SessionStore interface {
	LoadActiveSession(ctx context.Context, plate string) (*parking.Session, error)
	GetSession(ctx context.Context, id string) (*parking.Session, error)
	Save(ctx context.Context, s *parking.Session) error
	AppendHistory(ctx context.Context, e *models.HistoryEntry) error
	ListHistory(ctx context.Context, userID int64, filter models.HistoryFilter) ([]models.HistoryEntry, error)
	ListLapsed(ctx context.Context, before time.Time, limit int) ([]parking.Session, error)
}

// VehicleStore persists user vehicles.
type VehicleStore interface {
	Create(ctx context.Context, v *models.Vehicle) error
	Exists(ctx context.Context, userID int64, plate string) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Vehicle, error)
}

// ActiveCache is a read-through cache of active sessions keyed by plate.
type ActiveCache interface {
	Save(ctx context.Context, s parking.Session) error
	Get(ctx context.Context, plate string) (*parking.Session, error)
	Delete(ctx context.Context, plate string) error
}

// Notifier schedules user notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, r models.Reminder) error
	Cancel(ctx context.Context, id string) error
}

// PaymentGateway charges the user. An error means nothing was charged.
type PaymentGateway interface {
	Charge(ctx context.Context, req models.ChargeRequest) error
}

// Dependencies are the collaborators of ParkingService. Cache and Notifier are optional.
type Dependencies struct {
	Engine   *parking.Engine
	Sessions SessionStore
	Vehicles VehicleStore
	Cache    ActiveCache
	Notifier Notifier
	Payments PaymentGateway
	Clock    parking.Clock
	Currency string
	Logger   *zap.Logger
}

// ParkingService is the session manager: it validates, charges, persists
// and notifies for every session transition.
type ParkingService struct {
	engine   *parking.Engine
	sessions SessionStore
	vehicles VehicleStore
	cache    ActiveCache
	notifier Notifier
	payments PaymentGateway
	clock    parking.Clock
	currency string
	locks    *plateLocks
	logger   *zap.Logger
}

// NewParkingService builds service.
func NewParkingService(deps Dependencies) *ParkingService {
	clock := deps.Clock
	if clock == nil {
		clock = parking.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	currency := deps.Currency
	if currency == "" {
		currency = "EUR"
	}
	return &ParkingService{
		engine:   deps.Engine,
		sessions: deps.Sessions,
		vehicles: deps.Vehicles,
		cache:    deps.Cache,
		notifier: deps.Notifier,
		payments: deps.Payments,
		clock:    clock,
		currency: currency,
		locks:    newPlateLocks(),
		logger:   logger,
	}
}

// StartInput is the request to park a vehicle.
type StartInput struct {
	UserID int64
	Plate  string
	Zone   parking.ZoneID
	Hours  int
}

// ExtendInput is the request to add time to a running session.
type ExtendInput struct {
	UserID     int64
	Plate      string
	AddedHours int
}

// ExtendResult is the committed session and the quote it was charged at.
type ExtendResult struct {
	Session parking.Session        `json:"session"`
	Quote   parking.ExtensionQuote `json:"quote"`
}

// ActiveView is a session with its expiry state at read time.
type ActiveView struct {
	Session parking.Session `json:"session"`
	Expiry  parking.Expiry  `json:"expiry"`
}

// Engine exposes the core engine.
func (s *ParkingService) Engine() *parking.Engine { return s.engine }

// OperatingHours returns the daily window sessions must fit in.
func (s *ParkingService) OperatingHours() parking.OperatingHours { return s.engine.Hours() }

// Zones lists the pricing table.
func (s *ParkingService) Zones() []parking.Zone {
	return s.engine.Pricing().Zones()
}

// StartParking charges for and opens a new session.
func (s *ParkingService) StartParking(ctx context.Context, in StartInput) (*parking.Session, error) {
	plate, err := s.ownedPlate(ctx, in.UserID, in.Plate)
	if err != nil {
		return nil, s.fail("start", err)
	}

	unlock := s.locks.Lock(plate)
	defer unlock()

	now := s.clock.Now()
	current, err := s.sessions.LoadActiveSession(ctx, plate)
	if err != nil {
		return nil, s.fail("start", fmt.Errorf("load active session: %w", err))
	}

	started, err := s.engine.Start(parking.StartRequest{
		UserID: in.UserID,
		Plate:  plate,
		Zone:   in.Zone,
		Hours:  in.Hours,
	}, current, now)
	if err != nil {
		return nil, s.fail("start", err)
	}

	if err := s.charge(ctx, started, "start", started.Price); err != nil {
		return nil, s.fail("start", err)
	}

	if current != nil {
		if err := s.expire(ctx, *current, now); err != nil {
			s.logger.Error("session charged but predecessor not expired",
				zap.String("session_id", started.ID),
				zap.String("predecessor_id", current.ID),
				zap.String("plate", plate),
				zap.Error(err),
			)
			return nil, s.fail("start", err)
		}
	}

	if err := s.sessions.Save(ctx, &started); err != nil {
		s.logger.Error("session charged but not saved",
			zap.String("session_id", started.ID),
			zap.String("plate", plate),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrActiveSessionExists) {
			err = fmt.Errorf("%w: %v", parking.ErrSessionAlreadyActive, err)
		}
		return nil, s.fail("start", err)
	}
	s.appendHistory(ctx, started, models.EventStarted, started.Price, now)
	s.cacheActive(ctx, started)
	s.scheduleStarted(ctx, started, now)
	s.scheduleExpiring(ctx, started, now)

	metrics.SessionsStarted.WithLabelValues(string(started.Zone)).Inc()
	metrics.RevenueTotal.WithLabelValues(string(started.Zone)).Add(started.Price.InexactFloat64())
	s.logger.Info("parking started",
		zap.String("session_id", started.ID),
		zap.String("plate", plate),
		zap.String("zone", string(started.Zone)),
		zap.Int("hours", started.DurationHours),
		zap.String("price", started.Price.StringFixed(2)),
	)
	return &started, nil
}

// ExtendParking charges for and adds hours to the vehicle's active session.
func (s *ParkingService) ExtendParking(ctx context.Context, in ExtendInput) (*ExtendResult, error) {
	plate, err := s.ownedPlate(ctx, in.UserID, in.Plate)
	if err != nil {
		return nil, s.fail("extend", err)
	}

	unlock := s.locks.Lock(plate)
	defer unlock()

	now := s.clock.Now()
	current, err := s.sessions.LoadActiveSession(ctx, plate)
	if err != nil {
		return nil, s.fail("extend", fmt.Errorf("load active session: %w", err))
	}
	if current == nil || current.UserID != in.UserID {
		return nil, s.fail("extend", fmt.Errorf("%w: no session for %s", parking.ErrSessionNotActive, plate))
	}

	extended, quote, err := s.engine.Extend(*current, in.AddedHours, now)
	if err != nil {
		return nil, s.fail("extend", err)
	}

	if err := s.charge(ctx, extended, fmt.Sprintf("extend-%d", quote.NewDurationHours), quote.AddedPrice); err != nil {
		return nil, s.fail("extend", err)
	}
	if err := s.sessions.Save(ctx, &extended); err != nil {
		s.logger.Error("extension charged but not saved",
			zap.String("session_id", extended.ID),
			zap.String("plate", plate),
			zap.Error(err),
		)
		return nil, s.fail("extend", err)
	}
	s.appendHistory(ctx, extended, models.EventExtended, quote.AddedPrice, now)
	s.cacheActive(ctx, extended)
	s.scheduleExpiring(ctx, extended, now)

	metrics.SessionsExtended.WithLabelValues(string(extended.Zone)).Inc()
	metrics.RevenueTotal.WithLabelValues(string(extended.Zone)).Add(quote.AddedPrice.InexactFloat64())
	s.logger.Info("parking extended",
		zap.String("session_id", extended.ID),
		zap.String("plate", plate),
		zap.Int("added_hours", quote.AddedHours),
		zap.String("added_price", quote.AddedPrice.StringFixed(2)),
	)
	return &ExtendResult{Session: extended, Quote: quote}, nil
}

// QuoteStart prices a new session starting now.
func (s *ParkingService) QuoteStart(zone parking.ZoneID, hours int) (parking.StartQuote, error) {
	quote, err := s.engine.QuoteStart(zone, hours)
	if err != nil {
		return parking.StartQuote{}, err
	}
	if max := s.engine.Hours().MaxHours(); hours > max {
		return parking.StartQuote{}, fmt.Errorf("%w: %dh exceeds the %dh window", parking.ErrDurationExceedsOperatingWindow, hours, max)
	}
	end := s.clock.Now().Add(time.Duration(hours) * time.Hour)
	quote.EndTime = &end
	return quote, nil
}

// QuoteExtend previews an extension of the user's session without charging.
// It applies the same checks as ExtendParking.
func (s *ParkingService) QuoteExtend(ctx context.Context, userID int64, plate string, hours int) (parking.ExtensionQuote, error) {
	view, err := s.ActiveSession(ctx, userID, plate)
	if err != nil {
		return parking.ExtensionQuote{}, err
	}
	_, quote, err := s.engine.Extend(view.Session, hours, s.clock.Now())
	if err != nil {
		return parking.ExtensionQuote{}, err
	}
	return quote, nil
}

// ActiveSession returns the user's active session for plate with its expiry state.
func (s *ParkingService) ActiveSession(ctx context.Context, userID int64, plate string) (*ActiveView, error) {
	plate, err := NormalizePlate(plate)
	if err != nil {
		return nil, err
	}

	session := s.cachedActive(ctx, plate)
	if session == nil {
		session, err = s.sessions.LoadActiveSession(ctx, plate)
		if err != nil {
			return nil, fmt.Errorf("load active session: %w", err)
		}
		if session != nil {
			s.cacheActive(ctx, *session)
		}
	}
	if session == nil || session.UserID != userID {
		return nil, fmt.Errorf("%w: no session for %s", parking.ErrSessionNotActive, plate)
	}
	return &ActiveView{
		Session: *session,
		Expiry:  s.engine.CheckExpiry(*session, s.clock.Now()),
	}, nil
}

// CancelSession administratively cancels a session. No refund is issued.
func (s *ParkingService) CancelSession(ctx context.Context, sessionID string) (*parking.Session, error) {
	found, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, s.fail("cancel", err)
	}

	unlock := s.locks.Lock(found.Plate)
	defer unlock()

	// Re-read under the lock; the session may have changed meanwhile.
	found, err = s.getSession(ctx, sessionID)
	if err != nil {
		return nil, s.fail("cancel", err)
	}
	now := s.clock.Now()
	cancelled, err := s.engine.Cancel(*found, now)
	if err != nil {
		return nil, s.fail("cancel", err)
	}
	if err := s.sessions.Save(ctx, &cancelled); err != nil {
		return nil, s.fail("cancel", err)
	}
	s.appendHistory(ctx, cancelled, models.EventCancelled, decimal.Zero, now)
	s.clearActive(ctx, cancelled)

	metrics.SessionsFinished.WithLabelValues(string(parking.StatusCancelled)).Inc()
	s.logger.Info("parking cancelled", zap.String("session_id", cancelled.ID), zap.String("plate", cancelled.Plate))
	return &cancelled, nil
}

// ExpireLapsed marks lapsed sessions that can no longer be extended as expired
// and returns how many were finalised.
func (s *ParkingService) ExpireLapsed(ctx context.Context) (int, error) {
	now := s.clock.Now()
	lapsed, err := s.sessions.ListLapsed(ctx, now, lapsedBatch)
	if err != nil {
		return 0, fmt.Errorf("list lapsed sessions: %w", err)
	}

	expired := 0
	for _, candidate := range lapsed {
		if !s.engine.Finalizable(candidate, now) {
			continue
		}
		ok, err := s.expireByID(ctx, candidate, now)
		if err != nil {
			s.logger.Warn("failed to expire session", zap.String("session_id", candidate.ID), zap.Error(err))
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (s *ParkingService) expireByID(ctx context.Context, candidate parking.Session, now time.Time) (bool, error) {
	unlock := s.locks.Lock(candidate.Plate)
	defer unlock()

	current, err := s.sessions.GetSession(ctx, candidate.ID)
	if err != nil {
		return false, err
	}
	if !s.engine.Finalizable(*current, now) {
		return false, nil
	}
	return true, s.expire(ctx, *current, now)
}

// expire commits the Expired transition; the caller holds the plate lock.
func (s *ParkingService) expire(ctx context.Context, session parking.Session, now time.Time) error {
	expired, err := s.engine.Expire(session, now)
	if err != nil {
		return err
	}
	if err := s.sessions.Save(ctx, &expired); err != nil {
		return fmt.Errorf("save expired session: %w", err)
	}
	s.appendHistory(ctx, expired, models.EventExpired, decimal.Zero, now)
	s.clearActive(ctx, expired)
	metrics.SessionsFinished.WithLabelValues(string(parking.StatusExpired)).Inc()
	s.logger.Info("parking expired", zap.String("session_id", expired.ID), zap.String("plate", expired.Plate))
	return nil
}

// RegisterVehicle adds a plate to the user's vehicles.
func (s *ParkingService) RegisterVehicle(ctx context.Context, userID int64, plate string) (*models.Vehicle, error) {
	plate, err := NormalizePlate(plate)
	if err != nil {
		return nil, s.fail("register_vehicle", err)
	}
	v := &models.Vehicle{UserID: userID, Plate: plate}
	if err := s.vehicles.Create(ctx, v); err != nil {
		if errors.Is(err, repository.ErrVehicleExists) {
			err = fmt.Errorf("%w: %s", ErrVehicleExists, plate)
		}
		return nil, s.fail("register_vehicle", err)
	}
	return v, nil
}

// ListVehicles returns the user's vehicles.
func (s *ParkingService) ListVehicles(ctx context.Context, userID int64) ([]models.Vehicle, error) {
	vehicles, err := s.vehicles.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, nil
}

// History returns the user's history and the total charged across it.
func (s *ParkingService) History(ctx context.Context, userID int64, filter models.HistoryFilter) (*models.History, error) {
	if filter.Plate != "" {
		plate, err := NormalizePlate(filter.Plate)
		if err != nil {
			return nil, err
		}
		filter.Plate = plate
	}
	if filter.Zone != "" {
		if _, err := s.engine.Pricing().RateFor(filter.Zone); err != nil {
			return nil, err
		}
	}

	entries, err := s.sessions.ListHistory(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return &models.History{Entries: entries, TotalSpent: total}, nil
}

func (s *ParkingService) ownedPlate(ctx context.Context, userID int64, plate string) (string, error) {
	plate, err := NormalizePlate(plate)
	if err != nil {
		return "", err
	}
	owned, err := s.vehicles.Exists(ctx, userID, plate)
	if err != nil {
		return "", fmt.Errorf("check vehicle: %w", err)
	}
	if !owned {
		return "", fmt.Errorf("%w: %s", ErrVehicleNotRegistered, plate)
	}
	return plate, nil
}

func (s *ParkingService) getSession(ctx context.Context, id string) (*parking.Session, error) {
	found, err := s.sessions.GetSession(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return found, err
}

func (s *ParkingService) charge(ctx context.Context, session parking.Session, event string, amount decimal.Decimal) error {
	err := s.payments.Charge(ctx, models.ChargeRequest{
		Reference:   session.ID + ":" + event,
		UserID:      session.UserID,
		Plate:       session.Plate,
		Amount:      amount,
		Currency:    s.currency,
		Description: fmt.Sprintf("Parking %s, %s", session.Plate, session.Zone),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", parking.ErrPaymentFailed, err)
	}
	return nil
}

func (s *ParkingService) appendHistory(ctx context.Context, session parking.Session, event models.HistoryEvent, amount decimal.Decimal, now time.Time) {
	if err := s.sessions.AppendHistory(ctx, models.NewHistoryEntry(session, event, amount, now)); err != nil {
		s.logger.Error("failed to append history",
			zap.String("session_id", session.ID),
			zap.String("event", string(event)),
			zap.Error(err),
		)
	}
}

func (s *ParkingService) cachedActive(ctx context.Context, plate string) *parking.Session {
	if s.cache == nil {
		return nil
	}
	session, err := s.cache.Get(ctx, plate)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("active session cache read failed", zap.String("plate", plate), zap.Error(err))
		}
		return nil
	}
	if session.Status != parking.StatusActive {
		return nil
	}
	return session
}

func (s *ParkingService) cacheActive(ctx context.Context, session parking.Session) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(ctx, session); err != nil {
		s.logger.Warn("failed to cache active session", zap.String("plate", session.Plate), zap.Error(err))
	}
}

func (s *ParkingService) clearActive(ctx context.Context, session parking.Session) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, session.Plate); err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn("failed to delete active session cache", zap.String("plate", session.Plate), zap.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Cancel(ctx, expiringReminderID(session.ID)); err != nil {
			s.logger.Warn("failed to cancel reminder", zap.String("session_id", session.ID), zap.Error(err))
		}
	}
}

func (s *ParkingService) scheduleStarted(ctx context.Context, session parking.Session, now time.Time) {
	end := s.engine.Hours().In(session.EndTime()).Format("15:04")
	s.notify(ctx, models.Reminder{
		ID:        "started:" + session.ID,
		Kind:      models.ReminderStarted,
		SessionID: session.ID,
		UserID:    session.UserID,
		Plate:     session.Plate,
		Zone:      session.Zone,
		Message:   fmt.Sprintf("Parking for %s in %s started, active until %s", session.Plate, session.Zone, end),
		At:        now,
	})
}

func (s *ParkingService) scheduleExpiring(ctx context.Context, session parking.Session, now time.Time) {
	end := s.engine.Hours().In(session.EndTime()).Format("15:04")
	s.notify(ctx, models.Reminder{
		ID:        expiringReminderID(session.ID),
		Kind:      models.ReminderExpiring,
		SessionID: session.ID,
		UserID:    session.UserID,
		Plate:     session.Plate,
		Zone:      session.Zone,
		Message:   fmt.Sprintf("Parking for %s in %s expires at %s", session.Plate, session.Zone, end),
		At:        s.engine.ReminderTime(session, now),
	})
}

func (s *ParkingService) notify(ctx context.Context, r models.Reminder) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, r); err != nil {
		s.logger.Warn("failed to schedule notification",
			zap.String("reminder_id", r.ID),
			zap.String("plate", r.Plate),
			zap.Error(err),
		)
	}
}

// fail records a rejected or failed operation and returns err unchanged.
func (s *ParkingService) fail(op string, err error) error {
	kind := ErrorKind(err)
	metrics.OperationErrors.WithLabelValues(op, kind).Inc()
	if kind == "internal" || kind == "payment_failed" {
		s.logger.Warn("parking operation failed", zap.String("operation", op), zap.Error(err))
	}
	return err
}

func expiringReminderID(sessionID string) string {
	return "reminder:" + sessionID
}
