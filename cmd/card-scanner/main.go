package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/idkit/card-scanner/internal/frame"
	"github.com/idkit/card-scanner/internal/session"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("card-scanner %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	captureOut := flag.String("capture", "", "write the rectified card image of the last valid frame to this PNG path")
	mode := flag.String("mode", string(session.ModeAuto), "capture mode: auto or manual")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	manager := session.NewManager(session.DefaultConfig(), logger)
	id, sess := manager.Create()
	defer manager.Remove(id)

	cache := frame.NewCache()
	encoder := json.NewEncoder(os.Stdout)

	var lastCapture *session.CaptureResult
	for _, path := range flag.Args() {
		img, err := cache.Load(path)
		if err != nil {
			logger.Error("failed to load frame", "path", path, "error", err)
			continue
		}

		guidance := sess.ProcessFrame(img, session.Mode(*mode))
		if err := encoder.Encode(guidance); err != nil {
			logger.Error("failed to encode guidance", "error", err)
		}

		if guidance.ShouldAutoCapture || (session.Mode(*mode) == session.ModeManual && guidance.ReadyToCapture) {
			result := sess.Capture(img)
			if err := encoder.Encode(result); err != nil {
				logger.Error("failed to encode capture result", "error", err)
			}
			if result.Success {
				lastCapture = result
			}
		}
	}

	if *captureOut != "" {
		if lastCapture == nil {
			logger.Error("no valid frame captured; nothing to write", "path", *captureOut)
			os.Exit(1)
		}
		img, err := frame.Decode(lastCapture.ImageBase64)
		if err != nil {
			logger.Error("failed to decode captured image", "error", err)
			os.Exit(1)
		}
		data, err := frame.EncodePNG(img)
		if err != nil {
			logger.Error("failed to encode PNG", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*captureOut, data, 0o644); err != nil {
			logger.Error("failed to write capture", "path", *captureOut, "error", err)
			os.Exit(1)
		}
		logger.Info("capture written", "path", *captureOut)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "card-scanner - frame-by-frame ID card capture guidance")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage: card-scanner [options] frame1.jpg [frame2.jpg ...]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Frames are analyzed in order as one scanning session; per-frame")
	fmt.Fprintln(os.Stderr, "guidance is printed to stdout as JSON lines.")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Options:")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "  --version, -v    Print version information")
}
