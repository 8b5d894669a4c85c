package object

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
)

// Stats summarizes a batch demangle run.
type Stats struct {
	Total     int
	Rust      int
	Demangled int
	Failed    int
	// Errors counts failures by error message.
	Errors map[string]int
}

func (s *Stats) merge(o Stats) {
	s.Total += o.Total
	s.Rust += o.Rust
	s.Demangled += o.Demangled
	s.Failed += o.Failed
	for msg, n := range o.Errors {
		if s.Errors == nil {
			s.Errors = make(map[string]int)
		}
		s.Errors[msg] += n
	}
}

// DemangleAll demangles every Rust symbol in syms using a pool of workers,
// filling each symbol's cached demangled name. A workers value below one
// means GOMAXPROCS. Failures are logged at debug level.
func DemangleAll(ctx context.Context, syms []*Symbol, workers int, logger *slog.Logger) (Stats, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	jobs := make(chan *Symbol)
	results := make(chan Stats, workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var local Stats
			for sym := range jobs {
				local.Total++
				if !sym.IsRust() {
					continue
				}
				local.Rust++
				if _, err := sym.Demangle(); err != nil {
					local.Failed++
					if local.Errors == nil {
						local.Errors = make(map[string]int)
					}
					local.Errors[err.Error()]++
					logger.Debug("demangle failed", "symbol", sym.Name(), "error", err)
					continue
				}
				local.Demangled++
			}
			results <- local
		}()
	}

	var err error
feed:
	for _, sym := range syms {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- sym:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	var stats Stats
	for r := range results {
		stats.merge(r)
	}
	return stats, err
}
