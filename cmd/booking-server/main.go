// Command booking-server runs the facility-booking UDP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	booking "github.com/arjunpatel/facilitybook"
	"github.com/arjunpatel/facilitybook/internal/constants"
	"github.com/arjunpatel/facilitybook/internal/logging"
)

func main() {
	var (
		port            = flag.Int("port", constants.DefaultPort, "UDP port to listen on")
		semanticStr     = flag.String("semantic", "AT_MOST_ONCE", "invocation semantic: AT_MOST_ONCE or AT_LEAST_ONCE")
		lossRate        = flag.Float64("lossRate", constants.DefaultLossRate, "probability of dropping an incoming datagram")
		replyLossRate   = flag.Float64("replyLossRate", constants.DefaultReplyLossRate, "probability of dropping a reply or callback")
		delayMs         = flag.Int("delayMs", constants.DefaultDelayMs, "synthetic reply delay in milliseconds")
		cacheTTLSeconds = flag.Int("cacheTtlSeconds", constants.DefaultCacheTTLSeconds, "duplicate-cache TTL in seconds")
		logLevel        = flag.String("logLevel", "info", "log level: debug, info, warn, or error")
		bindAddr        = flag.String("bindAddr", "0.0.0.0", "interface to bind on")
	)
	flag.Parse()

	logger := logging.NewLogger(&logging.Config{Level: logging.ParseLevel(*logLevel)})
	logging.SetDefault(logger)

	semantic, err := parseSemantic(*semanticStr)
	if err != nil {
		logger.Error("invalid --semantic", "value", *semanticStr, "error", err)
		os.Exit(1)
	}

	opts := booking.ServerOptions{
		Addr:     fmt.Sprintf("%s:%d", *bindAddr, clampPort(*port)),
		Semantic: semantic,
		CacheTTL: time.Duration(clampNonNegative(*cacheTTLSeconds)) * time.Second,
		Fault: booking.FaultProfile{
			InboundLossRate:  clampProbability(*lossRate),
			OutboundLossRate: clampProbability(*replyLossRate),
			OutboundDelay:    time.Duration(clampNonNegative(*delayMs)) * time.Millisecond,
			Seed:             time.Now().UnixNano(),
		},
		Logger: logger,
	}

	srv, err := booking.NewServer(opts)
	if err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	logger.Info("facility-booking server listening",
		"addr", srv.LocalAddr().String(),
		"semantic", *semanticStr,
		"lossRate", opts.Fault.InboundLossRate,
		"replyLossRate", opts.Fault.OutboundLossRate,
		"delayMs", *delayMs,
		"cacheTtlSeconds", *cacheTTLSeconds,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logger.Error("server loop exited", "error", err)
			os.Exit(1)
		}
	}
}

func parseSemantic(s string) (booking.Semantic, error) {
	switch strings.ToUpper(s) {
	case "AT_MOST_ONCE":
		return booking.AtMostOnce, nil
	case "AT_LEAST_ONCE":
		return booking.AtLeastOnce, nil
	default:
		return 0, fmt.Errorf("unrecognized semantic %q", s)
	}
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clampPort(p int) int {
	if p < 0 {
		return 0
	}
	if p > 65535 {
		return 65535
	}
	return p
}
