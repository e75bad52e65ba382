// cmd/bridge-trace/main.go
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/tamzrod/cockpit-bridge/internal/trace"
)

func main() {
	kind := flag.String("kind", "", "only print events of this kind (WRITE, BROADCAST, INPUT, POLL_FAIL, RELAY)")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: bridge-trace [-kind KIND] <trace-file>")
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("open trace: %v", err)
	}
	defer f.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	if err := dump(f, out, *kind); err != nil {
		out.Flush()
		log.Fatalf("read trace: %v", err)
	}
}

// dump prints one line per event, optionally filtered by kind name.
func dump(r io.Reader, w io.Writer, kind string) error {
	return trace.ReadAll(r, func(ev trace.Event) error {
		if kind != "" && ev.Kind.String() != kind {
			return nil
		}
		_, err := fmt.Fprintln(w, format(ev))
		return err
	})
}

func format(ev trace.Event) string {
	head := fmt.Sprintf("%s %s %-9s", ev.Timestamp.Format(time.RFC3339Nano), shortSession(ev.Session), ev.Kind)
	switch ev.Kind {
	case trace.KindWrite:
		return fmt.Sprintf("%s addr=0x%04X value=%d", head, ev.Address, ev.Value)
	case trace.KindBroadcast:
		return fmt.Sprintf("%s entries=%d", head, ev.Count)
	case trace.KindInput:
		return fmt.Sprintf("%s slave=%d %s=%s", head, ev.Slave, ev.Control, ev.Input)
	case trace.KindPollFail:
		return fmt.Sprintf("%s slave=%d err=%s", head, ev.Slave, ev.Error)
	case trace.KindRelay:
		return fmt.Sprintf("%s bytes=%d err=%s", head, ev.Count, ev.Error)
	default:
		return head
	}
}

func shortSession(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
