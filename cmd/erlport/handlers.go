package main

import (
	"context"
	"fmt"
	"unicode/utf16"

	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/etf"
	"github.com/arloliu/erlport/port"
	"github.com/rs/zerolog"
)

// Commands understood by the demo host.
const (
	CmdInspect int32 = 1
	CmdPing    int32 = 2
	CmdClose   int32 = 3
)

func newMux(logger zerolog.Logger) *port.Mux {
	mux := port.NewMux()
	mux.Handle(CmdInspect, inspectHandler(logger))
	mux.Handle(CmdPing, pingHandler(logger))
	mux.Handle(CmdClose, func(context.Context, *port.Request, *etf.Encoder) error {
		logger.Info().Msg("close command")
		return errs.ErrStop
	})

	return mux
}

func checkArgs(req *port.Request, want int) error {
	if req.NumArgs() != want {
		return fmt.Errorf("%w: command %d takes %d arguments, got %d",
			errs.ErrInvalidInput, req.Command, want, req.NumArgs())
	}

	return nil
}

// inspectHandler reads {1, Ref, Ascii, Atom, [], "", Binary, Unicode}, logs every
// field and replies {command1, 1, Ref, {0, "Unicode String"}}.
func inspectHandler(logger zerolog.Logger) port.Handler {
	return func(_ context.Context, req *port.Request, reply *etf.Encoder) error {
		if err := checkArgs(req, 6); err != nil {
			return err
		}
		args := req.Args

		ascii, err := args.ReadASCII()
		if err != nil {
			return fmt.Errorf("ascii string: %w", err)
		}
		atom, err := args.ReadAtom()
		if err != nil {
			return fmt.Errorf("atom: %w", err)
		}
		if err := args.ReadNil(); err != nil {
			return fmt.Errorf("empty list: %w", err)
		}
		if err := args.ReadNil(); err != nil {
			return fmt.Errorf("empty string: %w", err)
		}
		bin, err := args.ReadBinary()
		if err != nil {
			return fmt.Errorf("binary: %w", err)
		}
		units, err := args.ReadUnicode()
		if err != nil {
			return fmt.Errorf("unicode string: %w", err)
		}

		logger.Info().
			Stringer("ref", req.Ref).
			Bytes("ascii", ascii).
			Str("atom", atom).
			Int("binary_size", bin.Len()-etf.BinaryHeaderSize).
			Str("unicode", string(utf16.Decode(units))).
			Msg("command 1")

		reply.WriteTupleHeader(4).
			WriteAtom("command1").
			WriteInt(req.Command).
			WriteReference(req.Ref).
			WriteTupleHeader(2).
			WriteInt(0).
			WriteUnicode("Unicode String")

		return nil
	}
}

// pingHandler reads {2, Ref, [Float, Utf8Binary], BigInt} and replies
// {'pi.ng', [{value, "ASCII string", "", <<>>, []}, -123.456], 2, Ref, pong}.
func pingHandler(logger zerolog.Logger) port.Handler {
	return func(_ context.Context, req *port.Request, reply *etf.Encoder) error {
		if err := checkArgs(req, 2); err != nil {
			return err
		}
		args := req.Args

		n, err := args.ReadListHeader()
		if err != nil {
			return fmt.Errorf("argument list: %w", err)
		}
		if n != 2 {
			return fmt.Errorf("%w: argument list of %d elements", errs.ErrInvalidInput, n)
		}
		value, err := etf.ReadNumber[float64](args)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		bin, err := args.ReadBinary()
		if err != nil {
			return fmt.Errorf("utf8 binary: %w", err)
		}
		if err := args.ReadNil(); err != nil {
			return fmt.Errorf("argument list tail: %w", err)
		}
		big, err := etf.ReadNumber[int64](args)
		if err != nil {
			return fmt.Errorf("big value: %w", err)
		}

		logger.Info().
			Stringer("ref", req.Ref).
			Float64("value", value).
			Str("text", string(bin.Bytes()[etf.BinaryHeaderSize:])).
			Int64("big", big).
			Msg("command 2")

		reply.WriteTupleHeader(5).
			WriteAtom("pi.ng").
			WriteListHeader(2).
			WriteTupleHeader(5).
			WriteAtom("value").
			WriteString("ASCII string").
			WriteString("").
			WriteBinaryBytes(nil).
			WriteListHeader(0).WriteNil().
			WriteFloat(-123.456).
			WriteNil().
			WriteInt(req.Command).
			WriteReference(req.Ref).
			WriteAtom("pong")

		return nil
	}
}
