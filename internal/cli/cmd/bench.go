package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	vegeta "github.com/tsenart/vegeta/lib"

	"parley/pkg/store/keys"
)

const (
	patternSend   = "send"
	patternRead   = "read"
	patternSearch = "search"
	patternMixed  = "mixed"
)

type benchConfig struct {
	Host         string
	Conversation string
	Users        int
	Rate         int
	Duration     time.Duration
	PayloadSize  int
	Pattern      string
	Query        string
}

func (c benchConfig) validate() error {
	switch c.Pattern {
	case patternSend, patternRead, patternSearch, patternMixed:
	default:
		return fmt.Errorf("unknown pattern %q: want send, read, search or mixed", c.Pattern)
	}
	if c.Rate <= 0 || c.Duration <= 0 {
		return fmt.Errorf("rate and duration must be positive")
	}
	if c.Users <= 0 {
		return fmt.Errorf("users must be positive")
	}
	if _, err := url.ParseRequestURI(c.Host); err != nil {
		return fmt.Errorf("invalid host: %w", err)
	}
	return keys.ValidateConversationID(c.Conversation)
}

// targeter cycles callers so the server's per-caller limiter spreads the
// load. It is called concurrently by the attacker's workers.
func (c benchConfig) targeter() vegeta.Targeter {
	var n atomic.Uint64
	host := strings.TrimRight(c.Host, "/")
	base := fmt.Sprintf("%s/v1/conversations/%s/messages", host, c.Conversation)
	searchURL := host + "/v1/search?q=" + url.QueryEscape(c.Query)
	content := strings.Repeat("x", c.PayloadSize)

	return func(t *vegeta.Target) error {
		if t == nil {
			return vegeta.ErrNilTarget
		}
		i := n.Add(1) - 1
		t.Header = http.Header{
			"X-User-ID":    {fmt.Sprintf("bench-%d", i%uint64(c.Users))},
			"Content-Type": {"application/json"},
		}
		t.Body = nil

		pattern := c.Pattern
		if pattern == patternMixed {
			pattern = []string{patternSend, patternRead, patternSearch}[i%3]
		}
		switch pattern {
		case patternSend:
			body, err := json.Marshal(map[string]string{"content": fmt.Sprintf("bench %d %s", i, content)})
			if err != nil {
				return err
			}
			t.Method, t.URL, t.Body = http.MethodPost, base, body
		case patternRead:
			t.Method, t.URL = http.MethodGet, base
		case patternSearch:
			t.Method, t.URL = http.MethodGet, searchURL
		}
		return nil
	}
}

func runBench(c benchConfig) *vegeta.Metrics {
	attacker := vegeta.NewAttacker(vegeta.Workers(uint64(runtime.NumCPU())))
	rate := vegeta.Rate{Freq: c.Rate, Per: time.Second}

	var m vegeta.Metrics
	for res := range attacker.Attack(c.targeter(), rate, c.Duration, "parley-"+c.Pattern) {
		m.Add(res)
	}
	m.Close()
	return &m
}

func newBenchCmd(o *options) *cobra.Command {
	c := benchConfig{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load test a running parley server",
		Long: `Drive a running server at a constant request rate and report latency
percentiles, throughput and status codes.

Patterns: send (post messages), read (list a conversation), search, and
mixed (all three in turn).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.validate(); err != nil {
				return err
			}
			m := runBench(c)

			w := cmd.OutOrStdout()
			if o.json(w) {
				return vegeta.NewJSONReporter(m).Report(w)
			}
			fmt.Fprintf(w, "%s against %s/%s for %s at %d/s\n", c.Pattern, c.Host, c.Conversation, c.Duration, c.Rate)
			return vegeta.NewTextReporter(m).Report(w)
		},
	}
	f := cmd.Flags()
	f.StringVar(&c.Host, "host", "http://localhost:8080", "server base URL")
	f.StringVar(&c.Conversation, "conversation", "bench", "conversation to write to and read from")
	f.IntVar(&c.Users, "users", 10, "distinct callers to rotate through")
	f.IntVar(&c.Rate, "rate", 100, "requests per second")
	f.DurationVar(&c.Duration, "duration", 10*time.Second, "test duration")
	f.IntVar(&c.PayloadSize, "payload-size", 64, "extra bytes of content per sent message")
	f.StringVar(&c.Pattern, "pattern", patternSend, "send, read, search or mixed")
	f.StringVar(&c.Query, "query", "bench", "query for the search pattern")
	return cmd
}
