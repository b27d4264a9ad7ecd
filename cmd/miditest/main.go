package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"go-looper/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "cards":
		listCards()
	case "monitor":
		if len(os.Args) < 3 {
			usage()
			return
		}
		monitor(os.Args[2])
	case "decode":
		if len(os.Args) < 3 {
			usage()
			return
		}
		decode(strings.Join(os.Args[2:], ""))
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list               - List all MIDI ports")
	fmt.Println("  cards              - List ALSA sound cards and their raw MIDI devices")
	fmt.Println("  monitor <endpoint> - Print decoded frames, e.g. monitor card:mio")
	fmt.Println("  decode <hex>       - Frame and decode a hex byte stream, e.g. decode 90 3c 64 f8")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ins, outs, err := midi.ListPorts(3 * time.Second)
	if err != nil {
		fmt.Printf("\n%v\n", err)
		fmt.Println("CoreMIDI is hung. Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, name := range ins {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range outs {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func listCards() {
	data, err := os.ReadFile(midi.CardsPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasPrefix(fields[1], "[") {
			continue
		}
		name := strings.Trim(fields[1], "[]")
		path, err := midi.ResolveCard(strings.NewReader(line), name)
		if err != nil {
			continue
		}
		fmt.Printf("  card:%-16s %s\n", name, path)
	}
}

func monitor(endpoint string) {
	src, err := midi.NewOpener().OpenSource(endpoint)
	if err != nil {
		fmt.Printf("Error opening %s: %v\n", endpoint, err)
		return
	}
	defer src.Close()

	fmt.Printf("Monitoring %s. Ctrl+C to exit.\n", src.ID())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// Clock pulses are counted, not printed
	var clocks uint64
	for {
		select {
		case <-interrupt:
			fmt.Printf("\n%d clock pulses\n", clocks)
			return
		case raw, ok := <-src.Frames():
			if !ok {
				fmt.Println("Source closed")
				return
			}
			msg, err := midi.Decode(clocks, raw)
			if err != nil {
				fmt.Printf("  % x: %v\n", raw, err)
				continue
			}
			if msg.Kind() == midi.KindClock {
				clocks++
				continue
			}
			fmt.Printf("[%s] %-14s %s\n", time.Now().Format("15:04:05.000"), msg.Kind(), msg)
		}
	}
}

func decode(hexStream string) {
	data, err := hex.DecodeString(strings.ReplaceAll(hexStream, " ", ""))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	var frames [][]byte
	midi.NewFrameReader(func(frame []byte) {
		frames = append(frames, frame)
	}).EachMessage(data, 0)

	for _, frame := range frames {
		msg, err := midi.Decode(0, frame)
		if err != nil {
			fmt.Printf("  % x: %v\n", frame, err)
			continue
		}
		encoded := "-"
		if raw, err := msg.Encode(); err == nil {
			encoded = fmt.Sprintf("% x", raw)
		}
		fmt.Printf("  %-10s %-14s %s  re-encoded: %s\n", fmt.Sprintf("% x", frame), msg.Kind(), msg, encoded)
	}
}
