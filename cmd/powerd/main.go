// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Command powerd is the daemon entrypoint: it wires config, logging,
// the pidfile guard, every Linux adapter, the D-Bus IPC server and the
// event loop together, generalizing the teacher's `Run(ps, logger,
// log) int` per-agent convention (cmd/ledmanager/ledmanager.go) into a
// single cobra-based main for this one daemon.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
)

// version is set at build time via -ldflags.
var version = "No version specified"

const agentName = "powerd"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		debug      bool
		configPath string
		runDir     string
	)

	root := &cobra.Command{
		Use:   agentName,
		Short: "Event-driven power-management daemon",
	}
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable trace-level logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/powerd/powerd.yaml", "path to config file")
	root.PersistentFlags().StringVar(&runDir, "run-dir", "/var/run", "directory for the pidfile")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the daemon version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%s: %s\n", agentName, version)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := base.NewLogObject(agentName)
			if debug {
				log.SetLevel(logrus.TraceLevel)
			} else {
				log.SetLevel(logrus.InfoLevel)
			}
			return runDaemon(log, configPath, runDir)
		},
	})

	return root
}
