package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iceisfun/goeip/internal"
	"github.com/iceisfun/goeip/internal/config"
	"github.com/iceisfun/goeip/internal/log"
	"github.com/iceisfun/goeip/pkg/plc"
)

// openDriver opens a Driver from the persistent --config/--addr/--timeout/
// --instance-ids/--program-tags/--log-level flags shared by every
// subcommand. --config, when set, supplies the connection defaults;
// --addr/--timeout/--program-tags on the command line still override it.
func openDriver(cmd *cobra.Command) (*plc.Driver, error) {
	addr, _ := cmd.Flags().GetString("addr")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	instanceIDs, _ := cmd.Flags().GetBool("instance-ids")
	programTags, _ := cmd.Flags().GetBool("program-tags")
	logLevel, _ := cmd.Flags().GetString("log-level")

	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if addr == "" {
			addr = cfg.Path
		}
		if timeout == 0 {
			timeout = cfg.Timeout()
		}
		if !cmd.Flags().Changed("program-tags") {
			programTags = cfg.InitProgramTags
		}
		if !cmd.Flags().Changed("log-level") {
			logLevel = cfg.LogLevel
		}
	}

	if addr == "" {
		return nil, fmt.Errorf("--addr is required unless --config sets one")
	}

	opts := plc.Options{
		Timeout:           timeout,
		UseInstanceIDs:    instanceIDs,
		UploadProgramTags: programTags,
		Logger:            newLogger(logLevel),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return plc.Open(ctx, addr, opts)
}

// newLogger selects a structured logrus backend for any recognized level
// name, falling back to the teacher's plain stdlib console logger for an
// empty or unrecognized one.
func newLogger(level string) internal.Logger {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return internal.NewConsoleLogger()
	}
	return log.NewLogrusLogger(lvl).With(map[string]any{"component": "plcctl"})
}
