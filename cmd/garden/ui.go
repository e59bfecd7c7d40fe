package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"catnipgarden/internal/auth"
	"catnipgarden/internal/game"
	"catnipgarden/internal/progress"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
	faint   = color.New(color.Faint)
)

// console is the line-mode terminal: prompts read from in, output goes to out.
type console struct {
	in  *bufio.Reader
	out io.Writer
}

func newConsole(in io.Reader, out io.Writer) *console {
	return &console{in: bufio.NewReader(in), out: out}
}

func (c *console) printSuccess(msg string) { success.Fprintln(c.out, msg) }
func (c *console) printWarn(msg string)    { warn.Fprintln(c.out, msg) }
func (c *console) printError(msg string)   { danger.Fprintln(c.out, msg) }
func (c *console) printInfo(msg string)    { neutral.Fprintln(c.out, msg) }

func (c *console) readLine() (string, error) {
	text, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *console) promptRequired(label string) (string, error) {
	for {
		fmt.Fprintf(c.out, "%s: ", label)
		text, err := c.readLine()
		if err != nil {
			return "", err
		}
		if text != "" {
			return text, nil
		}
		c.printWarn(label + " is required.")
	}
}

func (c *console) promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Fprintf(c.out, "%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := c.readLine()
		if err != nil {
			return "", err
		}
		text = strings.ToLower(text)
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		c.printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func (c *console) promptInt(label string, min, max, defaultValue int) (int, error) {
	for {
		fmt.Fprintf(c.out, "%s (%d-%d) [%d]: ", label, min, max, defaultValue)
		text, err := c.readLine()
		if err != nil {
			return 0, err
		}
		if text == "" {
			return defaultValue, nil
		}
		v, err := strconv.Atoi(strings.TrimPrefix(text, "$"))
		if err != nil {
			c.printWarn("Enter a whole number.")
			continue
		}
		if v < min || v > max {
			c.printWarn(fmt.Sprintf("Value must be between %d and %d", min, max))
			continue
		}
		return v, nil
	}
}

func textBar(fraction float64, width int) string {
	fraction = max(0, min(1, fraction))
	filled := int(fraction * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func renderGames(w io.Writer, p progress.UserProgress) {
	accent.Fprintln(w, "\n== CATNIP GARDEN GAMES ==")
	fmt.Fprintf(w, "%-12s %-24s %-18s %6s\n", "ID", "TITLE", "BADGE", "PLAYED")
	for _, info := range game.Catalog() {
		badge := info.Badge
		if p.HasBadge(info.Badge) {
			badge = success.Sprint(fmt.Sprintf("%-18s", badge))
		} else {
			badge = faint.Sprint(fmt.Sprintf("%-18s", badge))
		}
		fmt.Fprintf(w, "%-12s %-24s %s %6d\n", info.ID, info.Title, badge, p.GamesCompleted[info.ID])
	}
	fmt.Fprintln(w)
}

type dashboard struct {
	Identity auth.Identity
	Progress progress.UserProgress
	Source   string
}

func renderDashboard(w io.Writer, d dashboard) {
	accent.Fprintf(w, "\n== WELCOME, %s ==\n", strings.ToUpper(d.Identity.DisplayName))
	if d.Source != "" {
		faint.Fprintf(w, "(from %s)\n", d.Source)
	}
	fmt.Fprintf(w, "Total points:     %s\n", success.Sprint(d.Progress.TotalPoints))
	fmt.Fprintf(w, "Badges earned:    %d of %d\n", len(d.Progress.Badges), len(game.IDs()))
	played := 0
	for _, n := range d.Progress.GamesCompleted {
		played += n
	}
	fmt.Fprintf(w, "Games played:     %d\n", played)
	fmt.Fprintf(w, "Collection:       %s\n", textBar(float64(len(d.Progress.Badges))/float64(len(game.IDs())), 21))
	if len(d.Progress.Badges) > 0 {
		fmt.Fprintln(w)
		accent.Fprintln(w, "Badges")
		for _, b := range d.Progress.Badges {
			fmt.Fprintf(w, "  * %s\n", b)
		}
	}
	renderGames(w, d.Progress)
}

func renderHistory(w io.Writer, p progress.UserProgress, limit int) {
	accent.Fprintln(w, "\n== POINTS HISTORY ==")
	if len(p.History) == 0 {
		neutral.Fprintln(w, "No games completed yet.")
		return
	}
	fmt.Fprintf(w, "%-17s %7s  %s\n", "WHEN", "POINTS", "REASON")
	shown := 0
	for i := len(p.History) - 1; i >= 0 && (limit <= 0 || shown < limit); i-- {
		h := p.History[i]
		fmt.Fprintf(w, "%-17s %7s  %s\n", h.Date.Local().Format("2006-01-02 15:04"), success.Sprintf("+%d", h.Points), h.Reason)
		shown++
	}
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "~"
}
