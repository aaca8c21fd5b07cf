package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/calvinwijaya/blackjack/internal/report"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

var CLI struct {
	Endpoint    string        `default:"http://localhost:8080/api/game" env:"BLACKJACK_ENDPOINT" help:"Where finished rounds are posted (empty to disable)"`
	DealerDelay time.Duration `default:"500ms" env:"DEALER_DELAY" help:"Pause before each dealer draw"`
	Seed        int64         `help:"Seed for card draws (0 picks one from the clock)"`
	LogLevel    string        `default:"warn" env:"LOG_LEVEL" help:"Log level"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("blackjack"),
		kong.Description("Play blackjack against the dealer in your terminal"),
		kong.UsageOnError(),
	)

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(CLI.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	seed := CLI.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	t := &table{out: os.Stdout}
	cfg := game.SessionConfig{
		DealerDelay: CLI.DealerDelay,
		Rand:        rand.New(rand.NewSource(seed)),
		Logger:      logger,
		OnChange:    t.render,
	}
	if CLI.Endpoint != "" {
		cfg.Reporter = report.NewHTTPReporter(CLI.Endpoint)
	}

	s := game.NewSession(cfg)
	defer s.Close()

	if err := play(s, os.Stdin, t); err != nil {
		logger.WithError(err).Error("Input failed")
		kctx.Exit(1)
	}
}

// play reads one command per line until quit or end of input.
func play(s *game.Session, in io.Reader, t *table) error {
	t.help()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		var cmd game.Command
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "h", "hit", "d", "draw":
			cmd = game.CommandDraw
		case "s", "stand":
			cmd = game.CommandStand
		case "n", "new":
			cmd = game.CommandNewRound
		case "q", "quit", "exit":
			return nil
		case "":
			continue
		default:
			t.help()
			continue
		}

		if _, err := s.Apply(cmd); err != nil {
			t.printf("Can't %s right now.\n", cmd)
		}
	}
	return scanner.Err()
}

// table prints session snapshots. Dealer draws arrive from timer
// goroutines, so output is serialized.
type table struct {
	mu  sync.Mutex
	out io.Writer
}

func (t *table) printf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *table) help() {
	t.printf("Commands: (h)it, (s)tand, (n)ew round, (q)uit\n")
}

func (t *table) render(snap game.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	dealer := cardList(snap.Dealer) + strings.Repeat(" ??", snap.DealerHidden)
	fmt.Fprintf(t.out, "\nRound %d\n", snap.Round)
	fmt.Fprintf(t.out, "  Dealer:%s (%d)\n", dealer, snap.DealerTotal)
	fmt.Fprintf(t.out, "  You:   %s (%d)\n", cardList(snap.Player), snap.PlayerTotal)

	switch snap.State {
	case game.WaitingForDealer, game.DealerDrawing:
		fmt.Fprintln(t.out, "  Dealer is drawing...")
	case game.Done:
		if snap.Result != nil {
			fmt.Fprintf(t.out, "  Your card total: %d, Dealer card total: %d\n", snap.Result.PlayerTotal, snap.Result.DealerTotal)
			fmt.Fprintf(t.out, "  Result: %s  (n for a new round)\n", snap.Result.Outcome.Message())
		}
	}
}

func cardList(cards []game.Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteByte(' ')
		b.WriteString(c.String())
	}
	return b.String()
}
