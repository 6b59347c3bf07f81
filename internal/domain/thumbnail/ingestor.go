package thumbnail

import (
	"errors"
	"sync"
	"time"

	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/monitoring"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
	"golang.org/x/time/rate"
)

// Result is the outcome of handling one inbound message
type Result string

const (
	ResultApplied   Result = "applied"
	ResultMalformed Result = "malformed"
	ResultTooLarge  Result = "too_large"
	ResultNotImage  Result = "not_image"
	ResultThrottled Result = "throttled"
	ResultStale     Result = "stale"
)

// Target is the registry surface the ingestor writes to
type Target interface {
	FindByVM(vmID string) (types.ConsoleSession, bool)
	UpdateThumbnail(vmID string, thumb types.Thumbnail) bool
}

// Ingestor validates thumbnail messages and applies them to a registry.
// Applied updates are throttled per VM.
type Ingestor struct {
	target   Target
	maxBytes int
	interval time.Duration
	now      func() time.Time
	metrics  *monitoring.Metrics

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // Protected by mu
}

// Option configures an Ingestor
type Option func(*Ingestor)

// WithMaxBytes bounds the encoded payload size. Zero disables the check.
func WithMaxBytes(n int) Option {
	return func(in *Ingestor) { in.maxBytes = n }
}

// WithInterval sets the minimum interval between applied updates of one VM.
// Zero disables throttling.
func WithInterval(d time.Duration) Option {
	return func(in *Ingestor) { in.interval = d }
}

// WithClock overrides the time source used by the throttle
func WithClock(now func() time.Time) Option {
	return func(in *Ingestor) { in.now = now }
}

// NewIngestor creates an ingestor writing to target
func NewIngestor(target Target, opts ...Option) *Ingestor {
	in := &Ingestor{
		target:   target,
		maxBytes: DefaultMaxBytes,
		interval: time.Second,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// WithMetrics adds metrics tracking to the ingestor
func (in *Ingestor) WithMetrics(metrics *monitoring.Metrics) *Ingestor {
	in.metrics = metrics
	return in
}

// Handle processes one untyped message. Every failure is absorbed and
// reported as a Result.
func (in *Ingestor) Handle(raw []byte) Result {
	return in.record(in.handle(raw))
}

func (in *Ingestor) handle(raw []byte) Result {
	msg, err := Parse(raw)
	if err != nil {
		return ResultMalformed
	}

	if err := Validate(msg, in.maxBytes); err != nil {
		switch {
		case errors.Is(err, ErrTooLarge):
			return ResultTooLarge
		case errors.Is(err, ErrNotImage):
			return ResultNotImage
		default:
			return ResultMalformed
		}
	}

	// Checked before the throttle so unknown VM ids never allocate a limiter
	if _, ok := in.target.FindByVM(msg.VMID); !ok {
		return ResultStale
	}

	if !in.allow(msg.VMID) {
		return ResultThrottled
	}

	thumb := msg.ToThumbnail()
	thumb.UpdatedAt = in.now()
	if !in.target.UpdateThumbnail(msg.VMID, thumb) {
		// Closed between the lookup and the update
		in.Forget(msg.VMID)
		return ResultStale
	}
	return ResultApplied
}

// Observe is a registry observer that drops throttle state of closed
// sessions.
func (in *Ingestor) Observe(ev types.ChangeEvent) {
	if ev.Type == types.ChangeClosed && ev.VMID != "" {
		in.Forget(ev.VMID)
	}
}

// Forget drops the throttle state of a VM
func (in *Ingestor) Forget(vmID string) {
	in.mu.Lock()
	delete(in.limiters, vmID)
	in.mu.Unlock()
}

// Tracked returns the number of VMs with throttle state
func (in *Ingestor) Tracked() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.limiters)
}

func (in *Ingestor) allow(vmID string) bool {
	if in.interval <= 0 {
		return true
	}

	in.mu.Lock()
	limiter, ok := in.limiters[vmID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(in.interval), 1)
		in.limiters[vmID] = limiter
	}
	in.mu.Unlock()

	return limiter.AllowN(in.now(), 1)
}

func (in *Ingestor) record(r Result) Result {
	if in.metrics != nil {
		in.metrics.RecordThumbnail(string(r))
	}
	return r
}
