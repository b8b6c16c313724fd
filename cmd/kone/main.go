package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/henrykey/kone-elevator-sub000/internal/auth"
	"github.com/henrykey/kone-elevator-sub000/internal/building"
	"github.com/henrykey/kone-elevator-sub000/internal/config"
	"github.com/henrykey/kone-elevator-sub000/internal/constants"
	"github.com/henrykey/kone-elevator-sub000/internal/driver"
	"github.com/henrykey/kone-elevator-sub000/internal/protocol"
)

const (
	colorReset  = constants.ColorReset
	colorBold   = constants.ColorBold
	colorDim    = constants.ColorDim
	colorCyan   = constants.ColorCyan
	colorGreen  = constants.ColorGreen
	colorYellow = constants.ColorYellow
	colorRed    = constants.ColorRed
)

func printBanner() {
	fmt.Println()
	fmt.Printf("  %s%skone%s %sv%s%s\n", colorBold, colorCyan, colorReset, colorBold, constants.Version, colorReset)
	fmt.Printf("  %sKONE SR-API v2 elevator driver%s\n", colorDim, colorReset)
	fmt.Println()
}

func usage(flags *pflag.FlagSet) {
	printBanner()
	fmt.Printf("  %sUsage:%s\n", colorBold, colorReset)
	fmt.Println("    kone ping                      # connectivity check")
	fmt.Println("    kone config                    # building configuration")
	fmt.Println("    kone actions                   # enabled call actions")
	fmt.Println("    kone call <src> <dst>          # destination call by floor")
	fmt.Println("    kone cancel <requestId>        # cancel a placed call")
	fmt.Println("    kone hold <deck> <area>        # hold doors open")
	fmt.Println("    kone mode <lift>               # lift operational mode")
	fmt.Println("    kone monitor <subtopic>...     # subscribe and stream events")
	fmt.Println()
	fmt.Printf("  %sFlags:%s\n", colorBold, colorReset)
	flags.PrintDefaults()
	fmt.Println()
}

func main() {
	flags := pflag.NewFlagSet("kone", pflag.ExitOnError)
	delay := flags.Int("delay", 0, "call delay in seconds (0-30)")
	areas := flags.Bool("areas", false, "treat call arguments as area ids instead of floors")
	duration := flags.Int("duration", constants.DefaultMonitorWindow, "monitoring subscription duration in seconds")
	hardTime := flags.Int("hard", 5, "hold-open hard time in seconds")
	softTime := flags.Int("soft", 10, "hold-open soft time in seconds")
	flags.Usage = func() { usage(flags) }
	flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) == 0 {
		usage(flags)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err.Error())
	}

	var mapping *building.Mapping
	if cfg.BuildingFile != "" {
		mapping, err = building.LoadFile(cfg.BuildingFile)
		if err != nil {
			fail(err.Error())
		}
	}

	store, err := auth.NewStore()
	if err != nil {
		fail(err.Error())
	}
	defer store.Close()

	d, err := driver.New(cfg, mapping, store)
	if err != nil {
		fail(err.Error())
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Printf("\n  %s● shutting down...%s\n", colorYellow, colorReset)
		cancel()
		d.Close()
		os.Exit(130)
	}()

	printBanner()
	fmt.Printf("  %sbuilding%s    %s\n", colorDim, colorReset, protocol.NormalizeBuildingID(cfg.BuildingID))
	fmt.Printf("  %sendpoint%s    %s\n", colorDim, colorReset, cfg.WSEndpoint)
	fmt.Println()

	if res := d.Initialize(ctx); !res.Success {
		fail("initialize failed: " + res.Error)
	}
	fmt.Printf("  %s● session established%s %s%s%s\n\n", colorGreen, colorReset, colorDim, d.SessionID(), colorReset)

	switch args[0] {
	case "ping":
		report(d.Ping(ctx))

	case "config":
		report(d.GetConfig(ctx))

	case "actions":
		report(d.GetActions(ctx))

	case "call":
		if len(args) != 3 {
			fail("usage: kone call <src> <dst>")
		}
		src := mustAtoi(args[1])
		dst := mustAtoi(args[2])
		if *areas {
			report(d.Call(ctx, &protocol.CallRequest{
				SourceArea:      src,
				DestinationArea: dst,
				Delay:           *delay,
			}))
		} else {
			report(d.CallFloors(ctx, src, dst, *delay))
		}

	case "cancel":
		if len(args) != 2 {
			fail("usage: kone cancel <requestId>")
		}
		report(d.Cancel(ctx, args[1]))

	case "hold":
		if len(args) != 3 {
			fail("usage: kone hold <deck> <area>")
		}
		report(d.HoldOpen(ctx, mustAtoi(args[1]), mustAtoi(args[2]), *hardTime, *softTime))

	case "mode":
		if len(args) != 2 {
			fail("usage: kone mode <lift>")
		}
		report(d.GetMode(ctx, mustAtoi(args[1])))

	case "monitor":
		if len(args) < 2 {
			fail("usage: kone monitor <subtopic>...")
		}
		subtopics := args[1:]
		res := d.Monitor(ctx, subtopics, *duration)
		if !res.Success {
			report(res)
			return
		}
		fmt.Printf("  %s● subscribed%s %s\n\n", colorGreen, colorReset, strings.Join(subtopics, ", "))
		deadline := time.Now().Add(time.Duration(*duration) * time.Second)
		for time.Now().Before(deadline) {
			for _, ev := range d.WaitForEvents(time.Second) {
				fmt.Printf("  %s%s%s %s\n", colorCyan, ev.ReceivedAt.Format("15:04:05.000"), colorReset, string(ev.Raw))
			}
			if ctx.Err() != nil {
				return
			}
		}

	default:
		usage(flags)
		os.Exit(1)
	}
}

func report(res protocol.Result) {
	out, _ := json.MarshalIndent(res, "  ", "  ")
	if res.Success {
		marker := "✓"
		if res.Ambiguous {
			marker = "~"
		}
		fmt.Printf("  %s%s ok%s (%.1f ms)\n", colorGreen, marker, colorReset, res.DurationMS)
	} else {
		fmt.Printf("  %s✗ failed%s\n", colorRed, colorReset)
	}
	fmt.Printf("  %s\n", string(out))
	if !res.Success {
		os.Exit(1)
	}
}

func fail(msg string) {
	fmt.Printf("\n  %s✗ %s%s\n\n", colorRed, msg, colorReset)
	os.Exit(1)
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		fail("not a number: " + s)
	}
	return n
}
