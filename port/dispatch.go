package port

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/etf"
	"github.com/arloliu/erlport/internal/observability"
	"github.com/arloliu/erlport/internal/options"
	"github.com/arloliu/erlport/trace"
	"github.com/rs/zerolog"
)

// Request is a decoded {Command, Ref, Args...} tuple.
type Request struct {
	Command int32
	Ref     etf.Reference
	// Arity is the size of the request tuple, command and reference included.
	Arity uint32
	// Args is positioned at the first argument.
	Args *etf.Decoder
}

// NumArgs returns the number of arguments after the command and reference.
func (r *Request) NumArgs() int {
	return int(r.Arity) - 2
}

// ParseRequest decodes the command and reference of msg and leaves the
// arguments to the handler.
func ParseRequest(msg []byte) (*Request, error) {
	d, err := etf.NewDecoder(msg)
	if err != nil {
		return nil, err
	}

	arity, err := d.ReadTupleHeader()
	if err != nil {
		return nil, fmt.Errorf("request tuple: %w", err)
	}
	if arity < 2 {
		return nil, fmt.Errorf("%w: request tuple of arity %d", errs.ErrInvalidInput, arity)
	}

	cmd, err := etf.ReadNumber[int32](d)
	if err != nil {
		return nil, fmt.Errorf("request command: %w", err)
	}

	ref, err := d.ReadReference()
	if err != nil {
		return nil, fmt.Errorf("request reference: %w", err)
	}

	return &Request{Command: cmd, Ref: ref, Arity: arity, Args: d}, nil
}

// Handler serves one command. Anything written to reply beyond the version
// byte is sent back once the handler returns nil or errs.ErrStop.
type Handler func(ctx context.Context, req *Request, reply *etf.Encoder) error

// Mux routes requests to handlers by command number. It is safe for concurrent use.
type Mux struct {
	mu       sync.RWMutex
	handlers map[int32]Handler
}

// NewMux creates a Mux with no handlers.
func NewMux() *Mux {
	return &Mux{handlers: make(map[int32]Handler)}
}

// Handle registers h for cmd. It panics if h is nil or cmd already has a handler.
func (m *Mux) Handle(cmd int32, h Handler) {
	if h == nil {
		panic(fmt.Sprintf("port: nil handler for command %d", cmd))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.handlers[cmd]; exists {
		panic(fmt.Sprintf("port: multiple handlers for command %d", cmd))
	}
	m.handlers[cmd] = h
}

// Lookup returns the handler registered for cmd.
func (m *Mux) Lookup(cmd int32) (Handler, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.handlers[cmd]

	return h, ok
}

// ServeConfig holds the settings of a Serve loop.
type ServeConfig struct {
	logger      zerolog.Logger
	tracer      *trace.Writer
	encoderOpts []etf.EncoderOption
}

// ServeOption represents a functional option for configuring Serve.
type ServeOption = options.Option[*ServeConfig]

// WithLogger sets the logger of the serve loop. The default discards everything.
func WithLogger(logger zerolog.Logger) ServeOption {
	return options.NoError(func(c *ServeConfig) {
		c.logger = logger
	})
}

// WithTracer records every inbound, outbound and rejected message to w.
func WithTracer(w *trace.Writer) ServeOption {
	return options.NoError(func(c *ServeConfig) {
		c.tracer = w
	})
}

// WithEncoderOptions sets the options of the reply encoders.
func WithEncoderOptions(opts ...etf.EncoderOption) ServeOption {
	return options.NoError(func(c *ServeConfig) {
		c.encoderOpts = append(c.encoderOpts, opts...)
	})
}

type server struct {
	port *Port
	mux  *Mux
	cfg  *ServeConfig
}

// Serve reads requests from p and dispatches them through mux until the port
// is closed, a handler returns errs.ErrStop, or a request fails.
//
// A closed port and errs.ErrStop end the loop with a nil error. A request that
// cannot be decoded, names an unknown command or fails in its handler is
// logged, traced as rejected and returned. ctx is checked between messages;
// a read already in progress is not interrupted.
func Serve(ctx context.Context, p *Port, mux *Mux, opts ...ServeOption) error {
	cfg := &ServeConfig{logger: zerolog.Nop()}
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}

	s := &server{port: p, mux: mux, cfg: cfg}
	log := cfg.logger

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.ReadMessage()
		if errors.Is(err, io.EOF) {
			log.Info().Msg("port closed")
			return nil
		}
		if err != nil {
			observability.RecordFailure(observability.FailureRead)
			log.Error().Err(err).Msg("read message")

			return fmt.Errorf("port: read: %w", err)
		}

		observability.RecordMessage(trace.DirectionIn.String(), len(msg))
		s.trace(trace.DirectionIn, msg)

		stop, err := s.handle(ctx, msg)
		if err != nil {
			return err
		}
		if stop {
			log.Info().Msg("stop requested")
			return nil
		}
	}
}

func (s *server) handle(ctx context.Context, msg []byte) (bool, error) {
	req, err := ParseRequest(msg)
	if err != nil {
		return false, s.reject(msg, nil, observability.FailureDecode, err)
	}

	h, ok := s.mux.Lookup(req.Command)
	if !ok {
		return false, s.reject(msg, req, observability.FailureUnknownCommand,
			fmt.Errorf("%w: %d", errs.ErrUnknownCommand, req.Command))
	}

	reply := etf.NewEncoder(s.cfg.encoderOpts...)
	defer reply.Release()

	start := time.Now()
	err = h(ctx, req, reply)
	observability.RecordCommand(req.Command, time.Since(start))

	stop := errors.Is(err, errs.ErrStop)
	if err != nil && !stop {
		return false, s.reject(msg, req, observability.FailureHandler, err)
	}
	if encErr := reply.Err(); encErr != nil {
		return false, s.reject(msg, req, observability.FailureEncode, encErr)
	}

	if reply.Len() > 1 {
		out := reply.Bytes()
		if err := s.port.WriteMessage(out); err != nil {
			observability.RecordFailure(observability.FailureWrite)
			s.cfg.logger.Error().Err(err).Int32("command", req.Command).Msg("write reply")

			return false, fmt.Errorf("port: write reply to command %d: %w", req.Command, err)
		}
		observability.RecordMessage(trace.DirectionOut.String(), len(out))
		s.trace(trace.DirectionOut, out)
	}

	s.cfg.logger.Debug().
		Int32("command", req.Command).
		Stringer("ref", req.Ref).
		Int("reply_bytes", reply.Len()).
		Msg("handled")

	return stop, nil
}

func (s *server) reject(msg []byte, req *Request, kind string, err error) error {
	observability.RecordFailure(kind)
	s.trace(trace.DirectionRejected, msg)

	ev := s.cfg.logger.Error().Err(err).Str("kind", kind).Int("size", len(msg))
	if req != nil {
		ev = ev.Int32("command", req.Command).Int("offset", req.Args.Consumed())
	}
	ev.Msg("request rejected")

	return fmt.Errorf("port: %s: %w", kind, err)
}

func (s *server) trace(dir trace.Direction, msg []byte) {
	if s.cfg.tracer == nil {
		return
	}
	if err := s.cfg.tracer.Write(dir, msg); err != nil {
		observability.RecordFailure(observability.FailureTrace)
		s.cfg.logger.Warn().Err(err).Stringer("direction", dir).Msg("trace message")
	}
}
