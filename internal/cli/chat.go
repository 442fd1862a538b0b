package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/rcliao/ragwire/internal/model"
	"github.com/rcliao/ragwire/internal/pipeline"
)

const chatHelp = `commands:
  /connect A B      wire node A to node B
  /disconnect A B   remove the edges between A and B
  /edges            list edges
  /caps             show which stages chat can use
  /status           show trigger and send progress
  /upload FILE...   upload documents to the ingest stage
  /quit             leave
anything else is sent as a chat message`

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive pipeline session",
		Long: "Start a session with the pdf, vectorDB and llm nodes. Connecting pdf to vectorDB " +
			"builds the index; connecting vectorDB to llm enables chat.\n\n" + chatHelp,
		Run: runChat,
	}

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	s, err := newSession(newRemote(), os.Stdout)
	if err != nil {
		exitErr("chat", err)
	}
	fmt.Fprintln(os.Stdout, "nodes: pdf (ingest), vectorDB (index), llm (query). /help for commands.")
	if err := s.run(cmd.Context(), os.Stdin); err != nil {
		exitErr("chat", err)
	}
}

// session is one interactive chat around an engine. Chat sends run in the
// background so the prompt keeps taking commands while a reply is pending.
// Output from the prompt loop, sends and triggers is serialized by mu.
type session struct {
	engine *pipeline.Engine
	out    io.Writer
	sends  sync.WaitGroup

	mu   sync.Mutex
	seen int // transcript entries already considered for printing
}

func newSession(r pipeline.Remote, out io.Writer) (*session, error) {
	s := &session{out: out}
	notify := pipeline.NotifierFunc(func(ctx context.Context, n pipeline.Notice) {
		s.printf("! %s\n", n.Message)
	})
	engine, err := pipeline.NewEngine(r, notify, model.DefaultNodes())
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

func (s *session) printf(format string, a ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, a...)
}

// run reads lines from in until EOF or /quit, then waits for outstanding
// sends and triggers so their replies and notices are printed.
func (s *session) run(ctx context.Context, in io.Reader) error {
	defer s.engine.Wait()
	defer s.sends.Wait()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if quit := s.handle(ctx, scanner.Text()); quit {
			return nil
		}
	}
	return scanner.Err()
}

func (s *session) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		s.sends.Add(1)
		go func() {
			defer s.sends.Done()
			s.send(ctx, line)
		}()
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		s.printf("%s\n", chatHelp)
	case "/connect":
		if len(fields) != 3 {
			s.printf("usage: /connect A B\n")
			return false
		}
		edge, rel, err := s.engine.Connect(ctx, fields[1], fields[2])
		if err != nil {
			s.printf("error: %v\n", err)
			return false
		}
		s.printf("connected %s -> %s (%s)\n", edge.Source, edge.Target, rel)
	case "/disconnect":
		if len(fields) != 3 {
			s.printf("usage: /disconnect A B\n")
			return false
		}
		n := s.engine.Disconnect(fields[1], fields[2])
		s.printf("removed %d edge(s)\n", n)
	case "/edges":
		snap := s.engine.Snapshot()
		if len(snap.Edges) == 0 {
			s.printf("no edges\n")
		}
		for _, e := range snap.Edges {
			s.printf("%s -> %s (%s)\n", e.Source, e.Target, pipeline.Classify(snap, e))
		}
	case "/caps":
		caps := s.engine.Capabilities()
		s.printf("indexing: %v, querying: %v\n", caps.IndexingWired, caps.QueryingWired)
	case "/status":
		s.printf("index build: %s, pending sends: %d\n",
			s.engine.TriggerState(pipeline.RelationIngestToIndex), s.engine.PendingSends())
	case "/upload":
		if len(fields) < 2 {
			s.printf("usage: /upload FILE...\n")
			return false
		}
		files, err := readFiles(fields[1:])
		if err != nil {
			s.printf("error: %v\n", err)
			return false
		}
		// The outcome is reported through the notifier.
		s.engine.Upload(ctx, files)
	default:
		s.printf("unknown command %s, try /help\n", fields[0])
	}
	return false
}

func (s *session) send(ctx context.Context, text string) {
	err := s.engine.Send(ctx, text)
	if errors.Is(err, pipeline.ErrEmptyUtterance) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.engine.Transcript()
	for _, m := range msgs[s.seen:] {
		if m.Sender == model.SenderBot {
			fmt.Fprintf(s.out, "%s\n", m.Text)
		}
	}
	s.seen = len(msgs)
}
