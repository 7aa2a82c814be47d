// parkwatch polls a parking sensor endpoint and prints the classified state
// of every slot after each poll.
//
// Usage example: parkwatch -address 192.168.4.1 -interval 2s -danger
//
// Required flags:
//
//	-address: sensor address; a bare IPv4 address is polled over http, anything else over https
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"parking-status-backend/config"
	"parking-status-backend/internal/model"
	"parking-status-backend/internal/poller"
)

var errAddressRequired = errors.New("-address is required")

func endWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
	flag.Usage()
	os.Exit(1)
}

func main() {
	ctx, finish := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer finish()

	address := flag.String("address", "", "sensor address, e.g. 192.168.4.1 or sensor.example.com")
	interval := flag.Duration("interval", 2*time.Second, "polling period")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	danger := flag.Bool("danger", false, "classify distances between 1 and 5 cm as danger")
	proxy := flag.String("proxy", "", "optional HTTP proxy URL")
	flag.Parse()

	if strings.TrimSpace(*address) == "" {
		endWithError(errAddressRequired)
	}

	snapshots := make(chan struct{}, 1)
	engine := poller.NewEngine(config.PollerConfig{
		Interval:   *interval,
		Timeout:    *timeout,
		DangerZone: *danger,
		HTTPProxy:  *proxy,
	}, poller.WithSnapshotHook(func([]model.SlotReading) {
		select {
		case snapshots <- struct{}{}:
		default:
		}
	}))

	engine.Start(*address)
	defer engine.Stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-snapshots:
			printSlots(os.Stdout, time.Now(), engine.Classified(time.Now()))
		case <-ticker.C:
			if msg := engine.LastError(); msg != "" {
				fmt.Fprintf(os.Stderr, "%s  error: %s\n", time.Now().Format(time.TimeOnly), msg)
			}
		}
	}
}

func printSlots(w io.Writer, at time.Time, slots []poller.ClassifiedReading) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", at.Format(time.TimeOnly))
	fmt.Fprintln(tw, "SLOT\tSTATUS\tDISTANCE")
	for _, s := range slots {
		distance := "-"
		if s.Distance != nil {
			distance = fmt.Sprintf("%.1f cm", *s.Distance)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.SlotID, s.Status, distance)
	}
	tw.Flush()
}
