package parking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultReminderLead is how long before the end a reminder fires.
const DefaultReminderLead = 5 * time.Minute

// currencyPlaces is the precision prices are kept at.
const currencyPlaces = 2

var idGenerator = uuid.NewString

// Engine implements the session state machine and the quote calculator.
// It holds no mutable state; every method is a pure function of its arguments.
type Engine struct {
	pricing      *PricingTable
	hours        OperatingHours
	reminderLead time.Duration
}

// NewEngine builds an engine. A non-positive reminderLead selects DefaultReminderLead.
func NewEngine(pricing *PricingTable, hours OperatingHours, reminderLead time.Duration) *Engine {
	if reminderLead <= 0 {
		reminderLead = DefaultReminderLead
	}
	return &Engine{
		pricing:      pricing,
		hours:        hours,
		reminderLead: reminderLead,
	}
}

// Pricing returns the pricing table.
func (e *Engine) Pricing() *PricingTable { return e.pricing }

// Hours returns the operating window.
func (e *Engine) Hours() OperatingHours { return e.hours }

// StartRequest carries the caller's input for Start.
type StartRequest struct {
	UserID int64
	Plate  string
	Zone   ZoneID
	Hours  int
}

// QuoteStart prices hours of parking in zone.
func (e *Engine) QuoteStart(zone ZoneID, hours int) (StartQuote, error) {
	if hours <= 0 {
		return StartQuote{}, fmt.Errorf("%w: got %d", ErrInvalidDuration, hours)
	}
	rate, err := e.pricing.RateFor(zone)
	if err != nil {
		return StartQuote{}, err
	}
	return StartQuote{
		Zone:  zone,
		Hours: hours,
		Rate:  rate,
		Price: price(hours, rate),
	}, nil
}

// QuoteExtend prices adding hours to s without checking the clock.
func (e *Engine) QuoteExtend(s Session, added int) (ExtensionQuote, error) {
	if added <= 0 {
		return ExtensionQuote{}, fmt.Errorf("%w: got %d", ErrInvalidDuration, added)
	}
	rate, err := e.pricing.RateFor(s.Zone)
	if err != nil {
		return ExtensionQuote{}, err
	}
	if max := e.hours.MaxHours(); added > max || s.DurationHours+added > max {
		return ExtensionQuote{}, fmt.Errorf("%w: %dh exceeds the %dh window", ErrMaxDurationExceeded, s.DurationHours+added, max)
	}
	addedPrice := price(added, rate)
	newDuration := s.DurationHours + added
	return ExtensionQuote{
		AddedHours:       added,
		AddedPrice:       addedPrice,
		NewTotal:         s.Price.Add(addedPrice).Round(currencyPlaces),
		NewDurationHours: newDuration,
		NewEndTime:       s.StartTime.Add(hours(newDuration)),
	}, nil
}

// Start opens a session at now. current is the vehicle's last non-terminal
// session, or nil. A current session that has already lapsed does not block
// the start; the caller is expected to expire it.
func (e *Engine) Start(req StartRequest, current *Session, now time.Time) (Session, error) {
	quote, err := e.QuoteStart(req.Zone, req.Hours)
	if err != nil {
		return Session{}, err
	}
	if current != nil && current.Status == StatusActive && now.Before(current.EndTime()) {
		return Session{}, fmt.Errorf("%w: %s until %s", ErrSessionAlreadyActive, current.Plate, current.EndTime().Format(time.RFC3339))
	}
	if !e.hours.Contains(now) {
		return Session{}, fmt.Errorf("%w: %s is outside %s", ErrOutsideOperatingHours, e.clock(now), e.hours)
	}
	if max := e.hours.MaxHours(); req.Hours > max {
		return Session{}, fmt.Errorf("%w: %dh exceeds the %dh window", ErrDurationExceedsOperatingWindow, req.Hours, max)
	}
	end := now.Add(hours(req.Hours))
	if closing := e.hours.ClosingTime(now); end.After(closing) {
		return Session{}, fmt.Errorf("%w: would end at %s, closing at %s", ErrDurationExceedsOperatingWindow, e.clock(end), e.clock(closing))
	}

	return Session{
		ID:            idGenerator(),
		UserID:        req.UserID,
		Plate:         req.Plate,
		Zone:          req.Zone,
		StartTime:     now,
		DurationHours: req.Hours,
		Price:         quote.Price,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Extend adds hours to an active session. The extension is measured from the
// current end when it is still in the future, otherwise from now, and must
// finish by closing time. A session that lapsed on an earlier day cannot be
// extended.
func (e *Engine) Extend(s Session, added int, now time.Time) (Session, ExtensionQuote, error) {
	if added <= 0 {
		return Session{}, ExtensionQuote{}, fmt.Errorf("%w: got %d", ErrInvalidDuration, added)
	}
	if s.Status != StatusActive {
		return Session{}, ExtensionQuote{}, fmt.Errorf("%w: status %s", ErrSessionNotActive, s.Status)
	}
	if !e.hours.Contains(now) {
		return Session{}, ExtensionQuote{}, fmt.Errorf("%w: %s is outside %s", ErrOutsideOperatingHours, e.clock(now), e.hours)
	}

	if max := e.hours.MaxHours(); added > max {
		return Session{}, ExtensionQuote{}, fmt.Errorf("%w: %dh exceeds the %dh window", ErrMaxDurationExceeded, added, max)
	}

	end := s.EndTime()
	base := now
	if end.After(now) {
		base = end
	} else if end.Before(e.hours.OpeningTime(now)) {
		return Session{}, ExtensionQuote{}, fmt.Errorf("%w: lapsed at %s", ErrSessionNotActive, end.Format(time.RFC3339))
	}
	if closing := e.hours.ClosingTime(now); base.Add(hours(added)).After(closing) {
		return Session{}, ExtensionQuote{}, fmt.Errorf("%w: would end at %s, closing at %s", ErrMaxDurationExceeded, e.clock(base.Add(hours(added))), e.clock(closing))
	}

	quote, err := e.QuoteExtend(s, added)
	if err != nil {
		return Session{}, ExtensionQuote{}, err
	}
	s.DurationHours = quote.NewDurationHours
	s.Price = quote.NewTotal
	s.UpdatedAt = now
	return s, quote, nil
}

// CheckExpiry reports whether s is still running at now. It has no side effects.
func (e *Engine) CheckExpiry(s Session, now time.Time) Expiry {
	end := s.EndTime()
	switch {
	case s.Status == StatusCancelled:
		return Expiry{Status: StatusCancelled, EndTime: end}
	case s.Status == StatusExpired || !now.Before(end):
		return Expiry{Status: StatusExpired, EndTime: end}
	default:
		return Expiry{Status: StatusActive, EndTime: end, Remaining: end.Sub(now)}
	}
}

// Cancel moves an active session to Cancelled.
func (e *Engine) Cancel(s Session, now time.Time) (Session, error) {
	if s.Status != StatusActive {
		return Session{}, fmt.Errorf("%w: status %s", ErrSessionNotActive, s.Status)
	}
	s.Status = StatusCancelled
	s.UpdatedAt = now
	return s, nil
}

// Expire moves a lapsed active session to Expired.
func (e *Engine) Expire(s Session, now time.Time) (Session, error) {
	if s.Status != StatusActive {
		return Session{}, fmt.Errorf("%w: status %s", ErrSessionNotActive, s.Status)
	}
	if now.Before(s.EndTime()) {
		return Session{}, fmt.Errorf("%w: ends at %s", ErrSessionNotLapsed, s.EndTime().Format(time.RFC3339))
	}
	s.Status = StatusExpired
	s.UpdatedAt = now
	return s, nil
}

// Finalizable reports whether a lapsed session can no longer be extended and
// should be expired: it ended on an earlier day or the window has closed.
func (e *Engine) Finalizable(s Session, now time.Time) bool {
	if s.Status != StatusActive || now.Before(s.EndTime()) {
		return false
	}
	return !e.hours.Contains(now) || s.EndTime().Before(e.hours.OpeningTime(now))
}

// ReminderTime is when the "about to expire" reminder should fire, never earlier than now.
func (e *Engine) ReminderTime(s Session, now time.Time) time.Time {
	at := s.EndTime().Add(-e.reminderLead)
	if at.Before(now) {
		return now
	}
	return at
}

// ReminderLead returns the configured lead time.
func (e *Engine) ReminderLead() time.Duration { return e.reminderLead }

func (e *Engine) clock(t time.Time) string {
	return t.In(e.hours.location()).Format("15:04:05")
}

func price(hours int, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(hours)).Mul(rate).Round(currencyPlaces)
}
