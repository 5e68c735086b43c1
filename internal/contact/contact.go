// Package contact composes the contact form into a mail client handoff.
//
// A Composer moves Idle -> Submitting -> Submitted -> Idle. Submitting builds the mailto URI and
// hands it to an Opener; on success the draft stays frozen in Submitted until the reset delay
// elapses, then it is cleared. Any failure goes straight back to Idle with the draft intact.
package contact

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
)

// DefaultResetDelay is how long the submitted state is shown.
const DefaultResetDelay = 3000 * time.Millisecond

var (
	// ErrBusy is returned by Submit outside the Idle state. Nothing is handed off.
	ErrBusy = errors.New("contact: submission in progress")
	// ErrClosed is returned once the composer has been torn down.
	ErrClosed = errors.New("contact: composer closed")
	// ErrInvalidDraft wraps every draft validation failure.
	ErrInvalidDraft = errors.New("contact: invalid draft")
)

type State int

const (
	Idle State = iota
	Submitting
	Submitted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Draft is the four contact form fields.
type Draft struct {
	Name    string `validate:"required,max=100"`
	Email   string `validate:"required,email"`
	Subject string `validate:"required,max=200"`
	Message string `validate:"required,max=5000"`
}

// Opener hands a URI to the user agent.
type Opener interface {
	Open(uri string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(uri string) error

func (f OpenerFunc) Open(uri string) error { return f(uri) }

type Option func(*Composer)

// WithClock sets the clock the reset is scheduled on.
func WithClock(c clock.Clock) Option {
	return func(cm *Composer) { cm.clock = c }
}

func WithResetDelay(d time.Duration) Option {
	return func(cm *Composer) {
		if d > 0 {
			cm.delay = d
		}
	}
}

// Composer owns one contact form's draft and state.
type Composer struct {
	mu        sync.Mutex
	clock     clock.Clock
	validate  *validator.Validate
	recipient string
	delay     time.Duration

	state  State
	draft  Draft
	reset  *clock.Timer
	closed bool
}

func New(recipient string, opts ...Option) *Composer {
	c := &Composer{
		clock:     clock.New(),
		validate:  validator.New(),
		recipient: recipient,
		delay:     DefaultResetDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Composer) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// ResetDelay returns how long Submitted lasts.
func (c *Composer) ResetDelay() time.Duration { return c.delay }

// Edit replaces the draft. Input is ignored unless the composer is idle; the result reports
// whether the draft was taken.
func (c *Composer) Edit(d Draft) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != Idle {
		return false
	}
	c.draft = d
	return true
}

// Submit hands the current draft to opener as a mailto URI and returns that URI. Outside Idle it
// returns ErrBusy without calling opener.
func (c *Composer) Submit(opener Opener) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	if c.state != Idle {
		c.mu.Unlock()
		return "", ErrBusy
	}
	c.state = Submitting
	draft := c.draft
	c.mu.Unlock()

	uri, err := c.handoff(draft, opener)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = Idle
		return "", err
	}
	c.state = Submitted
	if !c.closed {
		c.reset = c.clock.AfterFunc(c.delay, c.clear)
	}
	return uri, nil
}

// SubmitDraft edits then submits in one step.
func (c *Composer) SubmitDraft(d Draft, opener Opener) (string, error) {
	if !c.Edit(d) {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return "", ErrClosed
		}
		return "", ErrBusy
	}
	return c.Submit(opener)
}

// Close cancels a pending reset. A reset that fires afterwards does nothing.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.reset != nil {
		c.reset.Stop()
		c.reset = nil
	}
}

func (c *Composer) handoff(d Draft, opener Opener) (string, error) {
	if err := c.validate.Struct(d); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidDraft, describe(err))
	}
	uri, err := MailtoURI(c.recipient, d)
	if err != nil {
		return "", err
	}
	if opener == nil {
		return "", errors.New("contact: no opener")
	}
	if err := opener.Open(uri); err != nil {
		return "", fmt.Errorf("contact: opening mail client: %w", err)
	}
	return uri, nil
}

func (c *Composer) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != Submitted {
		return
	}
	c.draft = Draft{}
	c.state = Idle
	c.reset = nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, ", ")
}
