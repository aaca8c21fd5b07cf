package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type State string

const (
	PlayerDrawing    State = "playerDrawing"    // Player may draw or stand
	DealerDrawing    State = "dealerDrawing"    // Dealer decides whether to draw
	WaitingForDealer State = "waitingForDealer" // A dealer draw is scheduled
	Done             State = "done"             // Round is over, result is final
)

// DealerStandsOn is the total at which the dealer stops drawing.
const DealerStandsOn = 17

// DefaultDealerDelay paces dealer draws for the UI.
const DefaultDealerDelay = time.Second

// reportTimeout bounds a single Reporter call.
const reportTimeout = 10 * time.Second

// Reporter receives the final totals of every finished round.
type Reporter interface {
	Report(ctx context.Context, playerTotal, dealerTotal int, won bool) error
}

type Command string

const (
	CommandDraw     Command = "draw"
	CommandStand    Command = "stand"
	CommandNewRound Command = "newRound"
)

// SessionConfig holds the collaborators of a Session. Every field is optional.
type SessionConfig struct {
	ID          string
	Clock       quartz.Clock
	DealerDelay time.Duration
	Rand        *rand.Rand
	Reporter    Reporter
	Logger      logrus.FieldLogger
	OnChange    func(Snapshot)
}

// Snapshot is the presentation view of a session. While the player is still
// drawing only the dealer's first card is included. Version grows with every
// change, so a consumer can drop a snapshot older than one it already has.
type Snapshot struct {
	ID           string  `json:"id"`
	Version      uint64  `json:"version"`
	Round        int     `json:"round"`
	State        State   `json:"state"`
	Player       []Card  `json:"player"`
	PlayerTotal  int     `json:"playerTotal"`
	Dealer       []Card  `json:"dealer"`
	DealerHidden int     `json:"dealerHidden"`
	DealerTotal  int     `json:"dealerTotal"`
	Remaining    int     `json:"remaining"`
	Result       *Result `json:"result,omitempty"`
}

// Session is one player's game against the dealer. All mutation goes
// through the request methods and the dealer timer, serialized by mu.
type Session struct {
	ID string

	clock       quartz.Clock
	dealerDelay time.Duration
	rng         *rand.Rand
	reporter    Reporter
	logger      logrus.FieldLogger
	onChange    func(Snapshot)

	mu      sync.Mutex
	deck    *Deck
	player  Hand
	dealer  Hand
	state   State
	result  *Result
	round   int
	version uint64
	pending *quartz.Timer
	closed  bool
}

// NewSession creates a session and deals its first round.
func NewSession(cfg SessionConfig) *Session {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	s := &Session{
		ID:          cfg.ID,
		clock:       cfg.Clock,
		dealerDelay: cfg.DealerDelay,
		rng:         cfg.Rand,
		reporter:    cfg.Reporter,
		logger:      cfg.Logger.WithField("session", cfg.ID),
		onChange:    cfg.OnChange,
	}

	s.mu.Lock()
	s.resetRound()
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PlayerHand returns a copy of the player's cards.
func (s *Session) PlayerHand() Hand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(Hand(nil), s.player...)
}

// DealerHand returns a copy of all the dealer's cards, hidden or not.
func (s *Session) DealerHand() Hand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(Hand(nil), s.dealer...)
}

// VisibleDealerHand returns the dealer cards the player may see.
func (s *Session) VisibleDealerHand() Hand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleDealerLocked()
}

// Result returns the round result. ok is false until the round is Done.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// RemainingCards returns the size of the deck.
func (s *Session) RemainingCards() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck.RemainingCards()
}

// Snapshot returns the presentation view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// RequestPlayerDraw gives the player another card. It reports false, and
// changes nothing, unless the player is drawing and the deck has cards.
func (s *Session) RequestPlayerDraw() bool {
	return s.request(s.playerDraw)
}

// RequestEndPlayerTurn hands the turn to the dealer. It reports false unless
// the player is drawing.
func (s *Session) RequestEndPlayerTurn() bool {
	return s.request(s.stand)
}

// RequestNewRound throws away the current round and deals a new one. A
// dealer draw still pending from the old round is cancelled. A closed
// session ignores it.
func (s *Session) RequestNewRound() {
	s.newRound()
}

func (s *Session) newRound() bool {
	return s.request(func() bool {
		s.resetRound()
		return true
	})
}

// request runs step under the lock and notifies if it changed anything.
// Nothing runs once the session is closed.
func (s *Session) request(step func() bool) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	ok := step()
	if ok {
		s.version++
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if ok {
		s.notify(snap)
	}
	return ok
}

// Apply runs cmd against the session and returns the resulting view.
// Commands the current state does not allow return ErrInvalidTransition.
func (s *Session) Apply(cmd Command) (Snapshot, error) {
	var ok bool
	switch cmd {
	case CommandDraw:
		ok = s.RequestPlayerDraw()
	case CommandStand:
		ok = s.RequestEndPlayerTurn()
	case CommandNewRound:
		ok = s.newRound()
	default:
		return s.Snapshot(), fmt.Errorf("unknown command %q", cmd)
	}

	snap := s.Snapshot()
	if !ok {
		return snap, fmt.Errorf("%s in state %s: %w", cmd, snap.State, ErrInvalidTransition)
	}
	return snap, nil
}

// Close stops any pending dealer draw. The session stays readable but its
// timers never fire again.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelPending()
}

func (s *Session) resetRound() {
	s.cancelPending()
	s.round++
	s.deck = NewDeck(s.rng)
	s.player = Hand{}
	s.dealer = Hand{}
	s.result = nil

	// player, player, dealer, dealer
	for _, h := range []*Hand{&s.player, &s.player, &s.dealer, &s.dealer} {
		card, err := s.deck.Draw()
		if err != nil {
			// a fresh deck always has four cards
			panic(err)
		}
		*h = append(*h, card)
	}

	s.state = PlayerDrawing
	s.logger.WithFields(logrus.Fields{
		"round":  s.round,
		"player": s.player.Value(),
	}).Debug("Round dealt")

	if s.player.IsBlackjack() || s.dealer.IsBlackjack() {
		s.finish()
	}
}

func (s *Session) playerDraw() bool {
	if s.state != PlayerDrawing || s.deck.RemainingCards() == 0 {
		return false
	}

	card, err := s.deck.Draw()
	if err != nil {
		return false
	}
	s.player = append(s.player, card)

	switch {
	case s.player.IsBust():
		s.finish()
	case s.player.Value() == 21:
		s.enterDealer()
	}
	return true
}

func (s *Session) stand() bool {
	if s.state != PlayerDrawing {
		return false
	}
	s.enterDealer()
	return true
}

func (s *Session) enterDealer() {
	s.state = DealerDrawing
	s.advanceDealer()
}

// advanceDealer runs the DealerDrawing step: stand on 17 or an empty deck,
// otherwise draw one card, paced by dealerDelay.
func (s *Session) advanceDealer() {
	for s.state == DealerDrawing {
		if s.deck.RemainingCards() == 0 || s.dealer.Value() >= DealerStandsOn {
			s.finish()
			return
		}

		if s.dealerDelay > 0 {
			s.scheduleDealerDraw()
			return
		}

		if err := s.drawDealerCard(); err != nil {
			s.finish()
			return
		}
	}
}

func (s *Session) scheduleDealerDraw() {
	round := s.round
	s.state = WaitingForDealer
	s.pending = s.clock.AfterFunc(s.dealerDelay, func() {
		s.dealerTimerFired(round)
	}, "session", "dealer")
}

func (s *Session) dealerTimerFired(round int) {
	s.mu.Lock()
	if s.closed || round != s.round || s.state != WaitingForDealer {
		s.mu.Unlock()
		s.logger.WithField("round", round).Debug("Dropping stale dealer draw")
		return
	}

	s.pending = nil
	if err := s.drawDealerCard(); err != nil {
		s.finish()
	} else {
		s.state = DealerDrawing
		s.advanceDealer()
	}
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Session) drawDealerCard() error {
	card, err := s.deck.Draw()
	if err != nil {
		return err
	}
	s.dealer = append(s.dealer, card)
	return nil
}

func (s *Session) cancelPending() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// finish moves to Done, fixes the result and hands it to the reporter.
func (s *Session) finish() {
	playerTotal := s.player.Value()
	dealerTotal := s.dealer.Value()
	result := Result{
		PlayerTotal: playerTotal,
		DealerTotal: dealerTotal,
		Outcome:     Determine(playerTotal, dealerTotal),
	}

	s.state = Done
	s.result = &result

	logger := s.logger.WithFields(logrus.Fields{
		"round":   s.round,
		"player":  result.PlayerTotal,
		"dealer":  result.DealerTotal,
		"outcome": result.Outcome,
	})
	logger.Info("Round finished")

	if s.reporter == nil {
		return
	}
	go func(r Reporter) {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()
		if err := r.Report(ctx, result.PlayerTotal, result.DealerTotal, result.Won()); err != nil {
			logger.WithError(err).Warn("Failed to report round result")
		}
	}(s.reporter)
}

func (s *Session) visibleDealerLocked() Hand {
	if s.state == PlayerDrawing && len(s.dealer) > 0 {
		return Hand{s.dealer[0]}
	}
	return append(Hand(nil), s.dealer...)
}

func (s *Session) snapshotLocked() Snapshot {
	visible := s.visibleDealerLocked()
	snap := Snapshot{
		ID:           s.ID,
		Version:      s.version,
		Round:        s.round,
		State:        s.state,
		Player:       append([]Card(nil), s.player...),
		PlayerTotal:  s.player.Value(),
		Dealer:       visible,
		DealerHidden: len(s.dealer) - len(visible),
		DealerTotal:  visible.Value(),
		Remaining:    s.deck.RemainingCards(),
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

func (s *Session) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
