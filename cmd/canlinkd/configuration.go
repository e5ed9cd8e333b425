// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/canlink/canlink-go/agent"
	"github.com/canlink/canlink-go/bus"
	"github.com/canlink/canlink-go/discover"
	"github.com/canlink/canlink-go/journal"
	"github.com/canlink/canlink-go/transport"
	"github.com/canlink/canlink-go/transport/serialcan"
	"github.com/canlink/canlink-go/transport/socketcan"
)

// tomlConfig describes the TOML-configuration.
type tomlConfig struct {
	Logging   logConf
	Bus       []busConf
	Journal   journalConf
	Agent     agentConf
	Discovery discoverConf
}

// logConf describes the Logging-configuration block.
type logConf struct {
	Level        string
	ReportCaller bool `toml:"report-caller"`
	Format       string
}

// busConf describes one Bus-configuration block.
type busConf struct {
	Descriptor string
	QueueSize  int `toml:"queue-size"`
}

// journalConf describes the Journal-configuration block.
type journalConf struct {
	Directory string
}

// agentConf describes the Agent-configuration block.
type agentConf struct {
	Listen string
}

// discoverConf describes the Discovery-configuration block.
type discoverConf struct {
	Enabled bool
}

// daemon is everything parseConfig wired up, ready for teardown.
type daemon struct {
	buses     []*bus.Bus
	journal   *journal.Journal
	detaches  []func()
	agent     *agent.MonitorAgent
	stopWatch context.CancelFunc
}

func configureLogging(conf logConf) {
	if conf.Level != "" {
		if lvl, err := log.ParseLevel(conf.Level); err != nil {
			log.WithFields(log.Fields{
				"level":    conf.Level,
				"error":    err,
				"provided": "panic,fatal,error,warn,info,debug,trace",
			}).Warn("Failed to set log level. Please select one of the provided ones")
		} else {
			log.SetLevel(lvl)
		}
	}

	log.SetReportCaller(conf.ReportCaller)

	switch conf.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})

	case "json":
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})

	default:
		log.Warn("Unknown logging format")
	}
}

// dialTransport creates the Transport backend a Descriptor names.
func dialTransport(d transport.Descriptor) (transport.Transport, error) {
	switch d.Kind {
	case transport.Native:
		return socketcan.New(d), nil

	case transport.Serial:
		return serialcan.New(d), nil

	default:
		return nil, fmt.Errorf("unknown transport kind %q", d.Kind)
	}
}

// parseConfig builds the daemon from the given TOML configuration.
func parseConfig(filename string) (d *daemon, err error) {
	var conf tomlConfig
	if _, err = toml.DecodeFile(filename, &conf); err != nil {
		return
	}

	configureLogging(conf.Logging)

	d = &daemon{}
	defer func() {
		if err != nil {
			d.close()
			d = nil
		}
	}()

	if len(conf.Bus) == 0 {
		err = fmt.Errorf("configuration names no bus")
		return
	}

	if conf.Journal.Directory != "" {
		if d.journal, err = journal.Open(conf.Journal.Directory); err != nil {
			return
		}
	}

	for _, bc := range conf.Bus {
		descriptor, dErr := transport.ParseDescriptor(bc.Descriptor)
		if dErr != nil {
			err = dErr
			return
		}

		t, tErr := dialTransport(descriptor)
		if tErr != nil {
			err = tErr
			return
		}

		var opts []bus.Option
		if bc.QueueSize > 0 {
			opts = append(opts, bus.WithQueueCapacity(bc.QueueSize))
		}

		b := bus.New(t, opts...)
		if err = b.Open(); err != nil {
			err = fmt.Errorf("opening bus %q: %w", bc.Descriptor, err)
			return
		}
		d.buses = append(d.buses, b)

		if d.journal != nil {
			d.detaches = append(d.detaches, d.journal.Attach(b))
		}
	}

	if conf.Agent.Listen != "" {
		// The monitor agent observes the first bus.
		if d.agent, err = agent.New(conf.Agent.Listen, d.buses[0]); err != nil {
			return
		}
	}

	if conf.Discovery.Enabled {
		startDiscovery(d)
	}

	return
}

// startDiscovery logs the attached CAN adapters and keeps reporting serial
// bridge hotplug events until teardown. Discovery failures are logged, not
// fatal; the configured buses do not depend on it.
func startDiscovery(d *daemon) {
	if adapters, err := discover.Interfaces(); err != nil {
		log.WithError(err).Warn("Enumerating CAN adapters errored")
	} else {
		for _, a := range adapters {
			log.WithField("adapter", a.String()).Info("Discovered CAN adapter")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := discover.Watch(ctx)
	if err != nil {
		cancel()
		log.WithError(err).Warn("Watching for CAN adapters errored")
		return
	}

	d.stopWatch = cancel
	go func() {
		for ev := range events {
			log.WithFields(log.Fields{
				"adapter": ev.Adapter.String(),
				"added":   ev.Added,
			}).Info("CAN adapter hotplug")
		}
	}()
}
