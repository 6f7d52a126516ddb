package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shrinker/internal/config"
	"shrinker/internal/trace"
)

// setupTracing applies the --trace* flags over the config file's [trace]
// section and attaches the tracer to the command context. It returns a
// cleanup function.
func setupTracing(cmd *cobra.Command, tc *config.TraceConfig) (func(), error) {
	flags := cmd.Root().PersistentFlags()

	for flag, dst := range map[string]*string{
		"trace":        &tc.Output,
		"trace-level":  &tc.Level,
		"trace-mode":   &tc.Mode,
		"trace-format": &tc.Format,
	} {
		if !flags.Changed(flag) {
			continue
		}
		v, err := flags.GetString(flag)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		*dst = v
	}
	if flags.Changed("trace-ring-size") {
		n, err := flags.GetInt("trace-ring-size")
		if err != nil {
			return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
		}
		tc.RingSize = n
	}
	if flags.Changed("trace-heartbeat") {
		d, err := flags.GetDuration("trace-heartbeat")
		if err != nil {
			return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
		}
		tc.Heartbeat = d.String()
	}
	// An output file without an explicit level traces pass boundaries.
	if tc.Output != "" && !flags.Changed("trace-level") && (tc.Level == "" || tc.Level == "off") {
		tc.Level = "phase"
		if !flags.Changed("trace-mode") {
			tc.Mode = "stream"
		}
	}

	cfg, err := tc.Tracer()
	if err != nil {
		return nil, fmt.Errorf("invalid trace settings: %w", err)
	}
	if cfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	var heartbeat *trace.Heartbeat
	if cfg.Heartbeat > 0 {
		heartbeat = trace.StartHeartbeat(tracer, cfg.Heartbeat)
	}

	cleanup := func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
