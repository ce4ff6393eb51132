package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/arloliu/erlport/port"
	"github.com/arloliu/erlport/trace"
)

// dumpTrace prints one line per record of the trace file at path.
func dumpTrace(path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	r := trace.NewReader(f)
	for n := 0; ; n++ {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}

		if _, err := fmt.Fprintln(out, describe(rec)); err != nil {
			return err
		}
	}
}

func describe(rec trace.Record) string {
	line := fmt.Sprintf("%s %-8s %-4s raw=%d stored=%d",
		rec.Time.UTC().Format(time.RFC3339Nano), rec.Direction, rec.Compression,
		len(rec.Message), rec.StoredSize)

	d, err := rec.Decoder()
	if err != nil {
		return line + " invalid"
	}

	summary := line + " " + d.PeekTag().String()
	if req, err := port.ParseRequest(rec.Message); err == nil {
		summary += fmt.Sprintf(" command=%d args=%d", req.Command, req.NumArgs())
	}

	return summary
}
