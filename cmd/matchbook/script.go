package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/efreitasn/matchbook/internal/domain"
	"github.com/efreitasn/matchbook/internal/engine"
	"github.com/efreitasn/matchbook/internal/service"
)

// session routes script commands to one trading client per participant.
type session struct {
	eng     *engine.Engine
	clients map[string]*service.TradingService
	out     io.Writer
	logger  *slog.Logger
}

func newSession(eng *engine.Engine, out io.Writer, logger *slog.Logger) *session {
	return &session{
		eng:     eng,
		clients: make(map[string]*service.TradingService),
		out:     out,
		logger:  logger,
	}
}

// client returns the trading client for code, creating it on first use.
// A new client continues after the highest id the engine already holds
// for code, so ids replayed from an earlier run are not issued again.
func (s *session) client(code string) (*service.TradingService, error) {
	if c, ok := s.clients[code]; ok {
		return c, nil
	}
	c, err := service.NewTradingService(code, s.eng, service.WithNextID(s.nextOrderNumber(code)))
	if err != nil {
		return nil, err
	}
	s.clients[code] = c
	return c, nil
}

func (s *session) nextOrderNumber(code string) int {
	next := 0
	for _, rec := range s.eng.ParticipantArrivals(code) {
		n, err := strconv.Atoi(rec.OrderID[2:])
		if err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

// logIssued reports how many ids each participant's client has assigned.
func (s *session) logIssued() {
	for code, c := range s.clients {
		s.logger.Info("participant ids issued", slog.String("participant", code), slog.Int("issued", c.Issued()))
	}
}

// runScript executes one command per line:
//
//	<code> <b|o> <price> <qty>
//	cancel <order_id>
//	book
//
// Blank lines and lines starting with '#' are ignored. A rejected command
// is reported and the script continues; an engine failure stops it.
func (s *session) runScript(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		err := s.exec(strings.Fields(line))
		if err == nil {
			continue
		}
		if fatal(err) {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		s.logger.Warn("command rejected", slog.Int("line", lineNo), slog.String("error", err.Error()))
		fmt.Fprintf(s.out, "reject line %d: %v\n", lineNo, err)
	}
	return sc.Err()
}

func (s *session) exec(f []string) error {
	switch {
	case len(f) == 1 && f[0] == "book":
		return s.eng.Snapshot().WriteTable(s.out)

	case len(f) == 2 && f[0] == "cancel":
		id := f[1]
		if err := domain.ValidateOrderID(id); err != nil {
			return err
		}
		c, err := s.client(domain.ParticipantCode(id))
		if err != nil {
			return err
		}
		if err := c.Cancel(id); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "cancelled %s\n", id)
		return nil

	case len(f) == 4:
		qty, err := strconv.ParseInt(f[3], 10, 64)
		if err != nil {
			return &domain.ValidationError{Field: "quantity", Message: fmt.Sprintf("quantity %q is not an integer", f[3])}
		}
		c, err := s.client(f[0])
		if err != nil {
			return err
		}
		id, err := c.Order(f[1], f[2], qty)
		if err != nil {
			return err
		}
		s.report(id)
		return nil
	}
	return &domain.ValidationError{Field: "command", Message: fmt.Sprintf("unrecognised command %q", strings.Join(f, " "))}
}

func (s *session) report(id string) {
	for _, ex := range s.eng.ExecutionsFor(id) {
		fmt.Fprintf(s.out, "%s %s %s@%s bid=%s offer=%s\n",
			ex.ExecID, id, strconv.FormatInt(ex.Quantity, 10), ex.Price, ex.BidOrderID, ex.OfferOrderID)
	}
	if o, ok := s.eng.Resting(id); ok {
		fmt.Fprintf(s.out, "%s resting %d@%s filled %d\n", id, o.Quantity, o.Price, s.eng.Filled(id))
	}
}

// fatal reports whether err means the engine can no longer accept commands.
func fatal(err error) bool {
	return errors.Is(err, domain.ErrEngineHalted) ||
		errors.Is(err, domain.ErrLedgerWrite) ||
		errors.Is(err, domain.ErrCorruptBook)
}
