// Package port runs a Go program as an Erlang port.
//
// The Erlang side opens the port with open_port({spawn, Cmd}, [{packet, N}, binary])
// and exchanges messages encoded with term_to_binary. A Port frames those messages
// on an io.Reader and io.Writer pair; Serve decodes each request as a
// {Command, Ref, Args...} tuple and hands it to the Handler registered for the
// command in a Mux.
//
// # Example
//
//	mux := port.NewMux()
//	mux.Handle(1, func(ctx context.Context, req *port.Request, reply *etf.Encoder) error {
//	    text, err := req.Args.ReadText()
//	    if err != nil {
//	        return err
//	    }
//	    reply.WriteTupleHeader(2).WriteReference(req.Ref).WriteUnicode(strings.ToUpper(text))
//	    return nil
//	})
//
//	p, err := port.New(os.Stdin, os.Stdout, port.WithPacketSize(2))
//	...
//	err = port.Serve(ctx, p, mux, port.WithLogger(logger))
//
// Standard output belongs to the protocol: nothing else may write to it.
package port
