package search

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/galleryexplorer/internal/logging"
)

// NewProvider returns the adapter for engine. Unknown engines get Google.
func NewProvider(engine Engine, client *Client) Provider {
	switch engine {
	case Bing:
		return NewBingProvider(client)
	case DuckDuckGo:
		return NewDuckDuckGoProvider(client)
	default:
		return NewGoogleProvider(client)
	}
}

// Outcome is the completion signal of a dispatched search. Exactly one of
// URLs (possibly empty) or Err is meaningful.
type Outcome struct {
	Query    Query
	URLs     []string
	Err      error
	Duration time.Duration
}

// Failed reports whether the search failed
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Message returns the user-facing error text of a failed search
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Orchestrator runs one provider call per search off the caller's
// goroutine. At most one dispatched search is outstanding at a time.
type Orchestrator struct {
	providers map[Engine]Provider
	log       logrus.FieldLogger
	busy      atomic.Bool
}

// NewOrchestrator creates an orchestrator with one adapter per engine
func NewOrchestrator(client *Client, log logrus.FieldLogger) *Orchestrator {
	providers := make(map[Engine]Provider, len(Engines))
	for _, e := range Engines {
		providers[e] = NewProvider(e, client)
	}
	return NewOrchestratorWithProviders(providers, log)
}

// NewOrchestratorWithProviders creates an orchestrator over the given adapters
func NewOrchestratorWithProviders(providers map[Engine]Provider, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{providers: providers, log: logging.OrDiscard(log)}
}

// Provider returns the adapter registered for engine
func (o *Orchestrator) Provider(engine Engine) (Provider, bool) {
	p, ok := o.providers[engine]
	return p, ok
}

// Busy reports whether a dispatched search is still outstanding
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Search runs the query synchronously. Provider failures are returned as
// *ScrapeError; no retry is attempted.
func (o *Orchestrator) Search(ctx context.Context, q Query) (urls []string, err error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}

	provider, ok := o.providers[q.Engine]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, q.Engine)
	}

	defer func() {
		if r := recover(); r != nil {
			urls = nil
			err = scrapeErr(provider.Name(), "panic during search: %v", r)
		}
	}()

	urls, err = provider.Search(ctx, strings.TrimSpace(q.Text), q.Filters)
	if err != nil {
		if _, ok := err.(*ScrapeError); !ok {
			err = &ScrapeError{Engine: provider.Name(), Cause: err}
		}
		return nil, err
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

// Dispatch starts the query in the background and returns a channel that
// receives exactly one Outcome and is then closed. It fails with
// ErrSearchInProgress while a previous dispatch has not completed.
func (o *Orchestrator) Dispatch(ctx context.Context, q Query) (<-chan Outcome, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}
	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrSearchInProgress
	}

	out := make(chan Outcome, 1)
	go func() {
		log := o.log.WithFields(logrus.Fields{"engine": q.Engine.String(), "query": q.Text})
		log.Info("search started")

		start := time.Now()
		urls, err := o.Search(ctx, q)
		outcome := Outcome{Query: q, URLs: urls, Err: err, Duration: time.Since(start)}

		if err != nil {
			log.WithError(err).Error("search failed")
		} else {
			log.WithField("results", len(urls)).Info("search completed")
		}

		// Released before signalling so the consumer can dispatch again
		// as soon as it sees the outcome.
		o.busy.Store(false)
		out <- outcome
		close(out)
	}()

	return out, nil
}
