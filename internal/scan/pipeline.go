package scan

import (
	"context"
	"encoding/json"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"sync"
	"time"

	"qrattend/internal/assets"
	"qrattend/internal/ledger"
	"qrattend/internal/overlay"
	"qrattend/internal/queue"
)

// publishBudget bounds how long a frame may wait on the outcome sink. Frames
// arrive at camera rate; a slow sink must not back them up.
const publishBudget = 250 * time.Millisecond

// OutcomeEvent is the discrete notification pushed to the UI shell whenever
// the gate forwards a scan. The UI re-reads Feedback as the source of truth,
// so delivery is best-effort.
type OutcomeEvent struct {
	Station   string    `json:"station"`
	UserID    string    `json:"user_id,omitempty"`
	Outcome   string    `json:"outcome"`
	Day       string    `json:"date"`
	TimeOfDay string    `json:"timestamp"`
	At        time.Time `json:"at"`
}

// Options configure a pipeline instance.
type Options struct {
	Station        string
	DebounceWindow time.Duration
	FeedbackTTL    time.Duration
}

// Pipeline drives one frame stream: decode, gate, ledger, feedback, overlay.
// The mutex serializes frame processing against feedback reads from the UI
// context; gate and feedback state are only touched under it.
type Pipeline struct {
	mu       sync.Mutex
	station  string
	decoder  *Decoder
	gate     *Gate
	feedback *FeedbackState
	ledger   *ledger.Service
	assets   assets.Store
	sink     queue.Queue

	// face thumbnails, loaded once per asset ref
	thumbs map[string]image.Image
}

// Result is what one processed frame yields: the annotated frame always, and
// the ledger outcome only when the gate forwarded an event this frame.
type Result struct {
	Frame     image.Image
	Detection *Detection
	Outcome   *ledger.Outcome
}

// NewPipeline creates a pipeline over the given collaborators. sink and
// store may be nil (no events published, no thumbnails drawn).
func NewPipeline(opts Options, svc *ledger.Service, store assets.Store, sink queue.Queue) *Pipeline {
	return &Pipeline{
		station:  opts.Station,
		decoder:  NewDecoder(),
		gate:     NewGate(opts.DebounceWindow),
		feedback: NewFeedbackState(opts.FeedbackTTL),
		ledger:   svc,
		assets:   store,
		sink:     sink,
		thumbs:   make(map[string]image.Image),
	}
}

// Process runs one frame through the pipeline and returns the annotated
// frame. Decode misses and ledger failures never abort the stream; a failed
// write resets the gate so the same code can be retried immediately.
func (p *Pipeline) Process(ctx context.Context, frame image.Image, now time.Time) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	framesTotal.Inc()
	var res Result
	if frame == nil {
		// unreadable input frame, same as a decode miss
		return res
	}

	if det, ok := p.decoder.Decode(frame); ok {
		decodeHitsTotal.Inc()
		res.Detection = &det

		if p.gate.Admit(det.Payload, now) {
			outcome := p.ledger.RecordIfAbsent(ctx, det.Payload, now)
			if outcome.Kind == ledger.OutcomeWriteFailed {
				p.gate.Reset()
			}
			p.feedback.Set(outcome, now)
			outcomesTotal.WithLabelValues(outcome.Kind.String()).Inc()
			p.publish(ctx, det.Payload, outcome, now)
			res.Outcome = &outcome
		}
	}

	var region []image.Point
	if res.Detection != nil {
		region = res.Detection.Region
	}
	var badge *overlay.Badge
	if fb, ok := p.feedback.Current(now); ok {
		badge = p.badgeFor(fb)
	}
	res.Frame = overlay.Render(frame, region, badge)
	return res
}

// Feedback returns the current feedback snapshot for UI polling.
func (p *Pipeline) Feedback(now time.Time) (Feedback, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feedback.Current(now)
}

func (p *Pipeline) badgeFor(fb Feedback) *overlay.Badge {
	badge := &overlay.Badge{Kind: fb.Outcome.Kind}
	if rec := fb.Outcome.Record; rec != nil {
		badge.Name = rec.Name
		badge.RollNumber = rec.RollNumber
		badge.Branch = rec.Branch
		if rec.ImagePath != "" {
			badge.Thumbnail = p.thumbnail(rec.ImagePath)
		}
	}
	return badge
}

// thumbnail loads a face image once and caches it; a missing or unreadable
// asset just means no thumbnail.
func (p *Pipeline) thumbnail(ref string) image.Image {
	if img, ok := p.thumbs[ref]; ok {
		return img
	}
	if p.assets == nil {
		return nil
	}
	rc, err := p.assets.Open(ref)
	if err != nil {
		p.thumbs[ref] = nil
		return nil
	}
	defer rc.Close()
	img, _, err := image.Decode(io.LimitReader(rc, 8<<20))
	if err != nil {
		img = nil
	}
	p.thumbs[ref] = img
	return img
}

func (p *Pipeline) publish(ctx context.Context, payload string, outcome ledger.Outcome, now time.Time) {
	if p.sink == nil {
		return
	}
	evt := OutcomeEvent{
		Station:   p.station,
		Outcome:   outcome.Kind.String(),
		Day:       ledger.DayOf(now),
		TimeOfDay: now.Local().Format(ledger.TimeLayout),
		At:        now,
	}
	if outcome.Record != nil {
		evt.UserID = outcome.Record.UserID
	} else if outcome.Kind == ledger.OutcomeNotFound {
		evt.UserID = payload
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishBudget)
	defer cancel()
	if err := p.sink.Publish(pubCtx, queue.Message{Type: "outcome", Body: body}); err != nil {
		log.Printf("outcome publish failed: %v", err)
	}
}
