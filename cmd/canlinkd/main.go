// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// canlinkd attaches to the CAN links named in its configuration file and
// keeps them up: frames are journaled when a journal is configured and a
// monitor agent serves statistics and a live frame stream.
package main

import (
	"os"
	"os/signal"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

// waitSigint blocks the current thread until a SIGINT appears.
func waitSigint() {
	signalSyn := make(chan os.Signal, 1)
	signalAck := make(chan struct{})

	signal.Notify(signalSyn, os.Interrupt)

	go func() {
		<-signalSyn
		close(signalAck)
	}()

	<-signalAck
}

// close tears the daemon down in reverse construction order.
func (d *daemon) close() {
	var errs *multierror.Error

	if d.stopWatch != nil {
		d.stopWatch()
	}

	if d.agent != nil {
		errs = multierror.Append(errs, d.agent.Close())
	}

	for _, detach := range d.detaches {
		detach()
	}

	for _, b := range d.buses {
		errs = multierror.Append(errs, b.Close())
	}

	if d.journal != nil {
		errs = multierror.Append(errs, d.journal.Close())
	}

	if err := errs.ErrorOrNil(); err != nil {
		log.WithError(err).Warn("Teardown errored")
	}
}

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Usage: %s configuration.toml", os.Args[0])
	}

	d, err := parseConfig(os.Args[1])
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Fatal("Failed to parse config")
	}

	waitSigint()
	log.Info("Shutting down..")

	d.close()
}
