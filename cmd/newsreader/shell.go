package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/japaniel/newsreader/pkg/highlight"
	"github.com/japaniel/newsreader/pkg/model"
	"github.com/japaniel/newsreader/pkg/reader"
	"github.com/japaniel/newsreader/pkg/request"
	"github.com/japaniel/newsreader/pkg/selection"
)

const helpText = `commands:
  list           load the news list
  retry          reload the news list after an error
  open N         open article N from the list
  select TEXT    select text in the open article
  lookup         analyze the selected text
  show           print the open article with highlights
  vocab          toggle and print the vocabulary list
  delete ID      delete a vocabulary entry
  back           return to the list
  quit           exit`

// terminal shows highlight markers as brackets.
var terminal = strings.NewReplacer(highlight.OpenMarker, "[", highlight.CloseMarker, "]")

// shell is a line-oriented host for the reader.
type shell struct {
	r   *reader.Reader
	out io.Writer
}

func newShell(r *reader.Reader, out io.Writer) *shell {
	return &shell{r: r, out: out}
}

// run reads commands from in until quit, EOF or ctx is done.
func (s *shell) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "newsreader: type 'help' for commands")
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if quit := s.exec(ctx, strings.TrimSpace(sc.Text())); quit {
			return nil
		}
	}
}

func (s *shell) exec(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "list":
		s.list(ctx, s.r.LoadNews)
	case "retry":
		s.list(ctx, s.r.Retry)
	case "open":
		s.open(ctx, arg)
	case "select":
		if sel, ok := s.r.Select(selection.Event{Text: arg}); ok {
			fmt.Fprintf(s.out, "selected %q, type 'lookup' to analyze\n", sel.Text)
		} else {
			fmt.Fprintln(s.out, "selection cleared")
		}
	case "lookup":
		s.lookup(ctx)
	case "show":
		s.show()
	case "vocab":
		s.vocab()
	case "delete":
		s.delete(arg)
	case "back":
		s.r.BackToList()
		s.printList(s.r.Snapshot())
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(s.out, "unknown command %q, type 'help'\n", cmd)
	}
	return false
}

func (s *shell) list(ctx context.Context, load func(context.Context) error) {
	if err := load(ctx); request.IsCancelled(err) {
		return
	}
	s.printList(s.r.Snapshot())
}

func (s *shell) printList(st reader.State) {
	if st.ListError != "" {
		fmt.Fprintf(s.out, "error: %s (type 'retry' to try again)\n", st.ListError)
		return
	}
	if len(st.News) == 0 {
		fmt.Fprintln(s.out, "no articles")
		return
	}
	for i, a := range st.News {
		fmt.Fprintf(s.out, "%d. %s\n", i+1, a.DisplayTitle())
		if a.TitleCN != "" && a.Title != "" {
			fmt.Fprintf(s.out, "   %s\n", a.Title)
		}
	}
}

func (s *shell) open(ctx context.Context, arg string) {
	news := s.r.Snapshot().News
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(news) {
		fmt.Fprintf(s.out, "usage: open N (1-%d)\n", len(news))
		return
	}
	if _, err := s.r.OpenArticle(ctx, news[n-1]); request.IsCancelled(err) {
		return
	}
	s.show()
}

func (s *shell) show() {
	st := s.r.Snapshot()
	if st.Article == nil {
		fmt.Fprintln(s.out, "no article open")
		return
	}
	fmt.Fprintf(s.out, "# %s\n", st.Article.DisplayTitle())
	for _, b := range s.r.RenderArticle() {
		if b.Kind == model.BlockImage {
			fmt.Fprintf(s.out, "[image] %s\n", b.URL)
			continue
		}
		fmt.Fprintln(s.out, terminal.Replace(b.Markup))
		if b.CN != "" {
			fmt.Fprintf(s.out, "  %s\n", b.CN)
		}
	}
}

func (s *shell) lookup(ctx context.Context) {
	res, err := s.r.Lookup(ctx)
	switch {
	case errors.Is(err, reader.ErrNoSelection):
		fmt.Fprintln(s.out, "nothing selected, use 'select TEXT' first")
		return
	case err != nil:
		return
	}
	fmt.Fprintf(s.out, "%s: %s\n", res.Word, res.MeaningCN)
	fmt.Fprintf(s.out, "  root: %s  pos: %s\n", res.RootWord, res.POS)
	if res.VibeCheck != "" {
		fmt.Fprintf(s.out, "  usage: %s\n", res.VibeCheck)
	}
	if res.ContextSentenceID != "" {
		fmt.Fprintf(s.out, "  context: %s\n", terminal.Replace(s.r.RenderParagraph(res.ContextSentenceID)))
	}
}

func (s *shell) vocab() {
	if !s.r.ToggleVocabulary() {
		fmt.Fprintln(s.out, "vocabulary hidden")
		return
	}
	entries := s.r.Vocabulary()
	fmt.Fprintf(s.out, "vocabulary (%d):\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(s.out, "  %d  %s  %s  (%s)\n", e.ID, e.Word, e.MeaningCN, e.ArticleTitle)
	}
}

func (s *shell) delete(arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		fmt.Fprintln(s.out, "usage: delete ID")
		return
	}
	if s.r.DeleteVocabulary(id) {
		fmt.Fprintf(s.out, "deleted %d\n", id)
	} else {
		fmt.Fprintf(s.out, "no entry %d\n", id)
	}
}
