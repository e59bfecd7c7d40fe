package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"catnipgarden/internal/game"
	"catnipgarden/internal/play"
)

var errQuit = errors.New("left the game")

// playPlain drives sess with numbered prompts. Paced actions wait delay
// before the result is shown.
func playPlain(ctx context.Context, c *console, title string, sess *play.Session, delay time.Duration) error {
	for {
		g := sess.Game()
		renderTurn(c, title, g)
		if g.Done() {
			return nil
		}

		opts := g.Options()
		fmt.Fprintf(c.out, "Choose 1-%d (q to leave): ", len(opts))
		text, err := c.readLine()
		if err != nil {
			sess.Discard()
			return err
		}
		if strings.EqualFold(text, "q") {
			sess.Discard()
			return errQuit
		}
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > len(opts) {
			c.printWarn("Pick one of the numbered options.")
			continue
		}
		opt := opts[n-1]
		if !opt.Enabled {
			c.printWarn(opt.Label + " is not available right now.")
			continue
		}
		a := opt.Action
		if a.Kind == game.ActInvest {
			amount, err := c.promptInt("Amount to plant", 1, a.Amount, a.Amount)
			if err != nil {
				sess.Discard()
				return err
			}
			a.Amount = amount
		}

		out, err := actPaced(ctx, c, sess, a, delay)
		if err != nil {
			if errors.Is(err, game.ErrInvalidMove) {
				c.printWarn(err.Error())
				continue
			}
			return err
		}
		renderOutcome(c, out)
	}
}

func actPaced(ctx context.Context, c *console, sess *play.Session, a game.Action, delay time.Duration) (game.Outcome, error) {
	if delay <= 0 || !play.Paced(a) {
		return sess.Act(a)
	}
	type result struct {
		out game.Outcome
		err error
	}
	done := make(chan result, 1)
	if err := sess.ActAfter(delay, a, func(out game.Outcome, err error) { done <- result{out, err} }); err != nil {
		return game.Outcome{}, err
	}
	faint.Fprintln(c.out, "...")
	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		sess.Discard()
		return game.Outcome{}, ctx.Err()
	}
}

func renderTurn(c *console, title string, g game.Game) {
	accent.Fprintf(c.out, "\n== %s ==\n", strings.ToUpper(title))
	fmt.Fprintf(c.out, "%s %3.0f%%\n", textBar(g.Progress(), 30), g.Progress()*100)
	for _, f := range g.Facts() {
		fmt.Fprintf(c.out, "%-14s %s\n", f.Label+":", f.Value)
	}
	if g.Done() {
		success.Fprintf(c.out, "\nGame complete! You earned %d points.\n", g.Points())
		return
	}
	fmt.Fprintln(c.out)
	for i, o := range g.Options() {
		line := fmt.Sprintf("%2d) %s", i+1, truncate(o.Label, 48))
		if o.Detail != "" {
			line += "  " + o.Detail
		}
		if o.Enabled {
			fmt.Fprintln(c.out, line)
		} else {
			faint.Fprintln(c.out, line+" (unavailable)")
		}
	}
}

func renderOutcome(c *console, out game.Outcome) {
	switch {
	case out.Correct != nil && *out.Correct:
		c.printSuccess(out.Message)
	case out.Correct != nil:
		c.printError(out.Message)
	case out.Message != "":
		c.printInfo(out.Message)
	}
	if out.Event != "" {
		c.printWarn(out.Event)
	}
}
