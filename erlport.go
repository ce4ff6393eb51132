// Package erlport decodes and encodes Erlang external term format messages for
// Go programs that run as Erlang ports.
//
// An Erlang node talks to a port over the port's standard input and output.
// Every message is a length-prefixed frame ({packet, N} with N of 1, 2 or 4)
// holding one term that starts with the version byte 131.
//
// # Core Features
//
//   - Pull decoder with typed reads for tuples, lists, strings, atoms,
//     numbers, references and binaries
//   - Failed reads leave the decoder position unchanged
//   - Generic number reads with range checks, bignums included
//   - Fluent encoder with pooled buffers and a configurable size limit
//   - Opaque references and binaries that round-trip byte for byte
//   - {packet, N} framing, command dispatch and an optional traffic trace
//
// # Basic Usage
//
// Serving commands over standard input and output:
//
//	mux := port.NewMux()
//	mux.Handle(1, func(ctx context.Context, req *port.Request, reply *etf.Encoder) error {
//	    name, err := req.Args.ReadText()
//	    if err != nil {
//	        return err
//	    }
//	    reply.WriteTupleHeader(2).WriteReference(req.Ref).WriteUnicode("hello " + name)
//
//	    return nil
//	})
//
//	if err := erlport.ServeStdio(ctx, mux); err != nil {
//	    log.Fatal(err)
//	}
//
// Decoding a single message:
//
//	d, _ := erlport.NewDecoder(msg)
//	arity, _ := d.ReadTupleHeader()
//	cmd, _ := etf.ReadNumber[int32](d)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the etf, port and
// trace packages. For fine-grained control, use those packages directly.
package erlport

import (
	"context"
	"io"
	"os"

	"github.com/arloliu/erlport/etf"
	"github.com/arloliu/erlport/format"
	"github.com/arloliu/erlport/port"
	"github.com/arloliu/erlport/trace"
)

// Version is the leading byte of every external term format message.
const Version = format.Version

// NewDecoder creates a decoder over a private copy of msg.
//
// msg must be a whole message without its length prefix, starting with
// Version. An empty message or a wrong version byte is errs.ErrInvalidInput.
func NewDecoder(msg []byte) (*etf.Decoder, error) {
	return etf.NewDecoder(msg)
}

// NewEncoder creates an encoder whose buffer already holds Version.
//
// Available options:
//   - etf.WithInitialCapacity(n)
//   - etf.WithMaxSize(n)
//
// Call Release on the encoder once its bytes are no longer needed.
//
// Example:
//
//	enc := erlport.NewEncoder(etf.WithMaxSize(65535))
//	defer enc.Release()
//	msg, err := enc.WriteTupleHeader(2).WriteAtom("ok").WriteInt(42).Finish()
func NewEncoder(opts ...etf.EncoderOption) *etf.Encoder {
	return etf.NewEncoder(opts...)
}

// NewStdioPort creates a port over the standard input and output of the process.
//
// Nothing else may write to standard output while the port is in use.
func NewStdioPort(opts ...port.Option) (*port.Port, error) {
	return port.New(os.Stdin, os.Stdout, opts...)
}

// ServeStdio serves mux over standard input and output with the default
// {packet, 2} framing until the node closes the port, a handler returns
// errs.ErrStop, ctx is done or a request fails.
//
// Use NewStdioPort and port.Serve for other packet sizes.
func ServeStdio(ctx context.Context, mux *port.Mux, opts ...port.ServeOption) error {
	p, err := NewStdioPort()
	if err != nil {
		return err
	}

	return port.Serve(ctx, p, mux, opts...)
}

// NewTraceWriter creates a trace writer that appends records to w.
//
// Example:
//
//	tw, err := erlport.NewTraceWriter(f, trace.WithCompression(format.CompressionZstd))
//	if err != nil {
//	    return err
//	}
//	err = port.Serve(ctx, p, mux, port.WithTracer(tw))
func NewTraceWriter(w io.Writer, opts ...trace.WriterOption) (*trace.Writer, error) {
	return trace.NewWriter(w, opts...)
}

// ReadTrace reads every record of a trace stream.
func ReadTrace(r io.Reader) ([]trace.Record, error) {
	return trace.ReadAll(r)
}
