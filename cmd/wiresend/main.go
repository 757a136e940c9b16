package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/edgewire/internal/protocol/builder"
	"github.com/danmuck/edgewire/internal/protocol/messages"
)

type options struct {
	addr      string
	kind      string
	requester string
	doorID    uint
	command   string
	lightID   uint
	dimmer    uint
	repeat    int
	dryRun    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.addr, "addr", "127.0.0.1:9999", "ingest server address")
	flag.StringVar(&opts.kind, "kind", "door", "message kind: door|lights")
	flag.StringVar(&opts.requester, "requester", "0.0.0.1", "requester id as four dotted bytes")
	flag.UintVar(&opts.doorID, "door", 1, "door id")
	flag.StringVar(&opts.command, "command", "open", "door command: open|close|lock|unlock or a number")
	flag.UintVar(&opts.lightID, "light", 1, "light id")
	flag.UintVar(&opts.dimmer, "dimmer", 0, "dimmer value 0..65535")
	flag.IntVar(&opts.repeat, "repeat", 1, "number of times to send the frame")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "print the frame without sending it")
	flag.Parse()

	frame, err := buildFrame(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wiresend: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(builder.FormatHex(frame))
	if opts.dryRun {
		return
	}
	if err := send(opts.addr, frame, opts.repeat); err != nil {
		fmt.Fprintf(os.Stderr, "wiresend: %v\n", err)
		os.Exit(1)
	}
}

func buildFrame(opts options) ([]byte, error) {
	requester, err := parseRequester(opts.requester)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(opts.kind)) {
	case "door":
		if opts.doorID > 0xFF {
			return nil, fmt.Errorf("door id %d exceeds one byte", opts.doorID)
		}
		cmd, err := parseCommand(opts.command)
		if err != nil {
			return nil, err
		}
		return builder.Door(requester, uint8(opts.doorID), cmd)
	case "lights":
		if opts.lightID > 0xFF {
			return nil, fmt.Errorf("light id %d exceeds one byte", opts.lightID)
		}
		if opts.dimmer > 0xFFFF {
			return nil, fmt.Errorf("dimmer %d exceeds two bytes", opts.dimmer)
		}
		return builder.Lights(requester, uint8(opts.lightID), uint16(opts.dimmer))
	default:
		return nil, fmt.Errorf("unknown kind: %s", opts.kind)
	}
}

func parseRequester(raw string) ([4]byte, error) {
	var out [4]byte
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != len(out) {
		return out, fmt.Errorf("requester %q: want four dotted bytes", raw)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 0, 8)
		if err != nil {
			return out, fmt.Errorf("requester %q: %w", raw, err)
		}
		out[i] = byte(v)
	}
	return out, nil
}

func parseCommand(raw string) (uint8, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open":
		return messages.DoorOpen, nil
	case "close":
		return messages.DoorClose, nil
	case "lock":
		return messages.DoorLock, nil
	case "unlock":
		return messages.DoorUnlock, nil
	}
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("door command %q: %w", raw, err)
	}
	return uint8(v), nil
}

func send(addr string, frame []byte, repeat int) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()
	if repeat < 1 {
		repeat = 1
	}
	for i := 0; i < repeat; i++ {
		if _, err := conn.Write(frame); err != nil {
			return err
		}
	}
	return nil
}
