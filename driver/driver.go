// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package driver is the module's top-level entry point: New(config) builds
// a Driver, and Driver.Connect(endpoint) hands back a topology.Supervisor
// for that endpoint's connection pool. Everything above this (a
// Client/Database/Collection façade, query builders) lives outside this
// repo.
package driver

import (
	"time"

	"github.com/driftmongo/corewire/connection"
	"github.com/driftmongo/corewire/internal/logger"
	"github.com/driftmongo/corewire/topology"
	"github.com/driftmongo/corewire/wiremessage"
)

// Config holds the driver-wide options, applied to every Supervisor and
// Connection the Driver creates.
type Config struct {
	// MaxConnectionsPerEndpoint caps how many Connections a Supervisor
	// keeps open to a single endpoint. Default 10.
	MaxConnectionsPerEndpoint int
	// MaxFrameBytes bounds any single encoded or decoded frame. Default
	// 48 MiB.
	MaxFrameBytes int
	// ConnectTimeout bounds a single dial attempt. Default 5000ms.
	ConnectTimeout time.Duration
	// RequestTimeout bounds how long Supervisor.Send/Query wait for a
	// reply before failing with a Timing error. Default 30000ms.
	RequestTimeout time.Duration
	// ShutdownTimeout bounds how long Supervisor.Shutdown waits for
	// in-flight requests to drain. Default 5000ms.
	ShutdownTimeout time.Duration
	// ReconnectBase, ReconnectCap, ReconnectJitter configure the backoff
	// between reconnect attempts. Defaults 100ms, 30000ms, 0.2.
	ReconnectBase   time.Duration
	ReconnectCap    time.Duration
	ReconnectJitter float64
	// MaxConsecutiveFailures marks an endpoint Unreachable after this
	// many back-to-back dial failures. Default 5.
	MaxConsecutiveFailures int
	// CursorBatchSize is the batch size GET_MORE requests for when a
	// caller doesn't specify one. 0 means "let the server decide".
	CursorBatchSize int32
	// Log receives structured lifecycle events from every Supervisor and
	// Connection this Driver creates. Nil disables logging.
	Log *logger.Logger

	// Dialer overrides the network dialer used for every Connect call,
	// primarily for tests.
	Dialer connection.Dialer
}

func (c Config) withDefaults() Config {
	if c.MaxConnectionsPerEndpoint <= 0 {
		c.MaxConnectionsPerEndpoint = 10
	}
	if c.MaxFrameBytes <= 0 {
		c.MaxFrameBytes = wiremessage.DefaultMaxFrameBytes
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5000 * time.Millisecond
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30000 * time.Millisecond
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5000 * time.Millisecond
	}
	if c.ReconnectBase <= 0 {
		c.ReconnectBase = 100 * time.Millisecond
	}
	if c.ReconnectCap <= 0 {
		c.ReconnectCap = 30000 * time.Millisecond
	}
	if c.ReconnectJitter <= 0 {
		c.ReconnectJitter = 0.2
	}
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = 5
	}
	return c
}

// Driver is the process-wide entry point: it holds the resolved Config and
// mints a Supervisor per endpoint on Connect. A Driver has no state of its
// own beyond Config, so it is safe to share across goroutines.
type Driver struct {
	cfg Config
}

// New builds a Driver from cfg, filling in defaults for any unset field.
func New(cfg Config) *Driver {
	return &Driver{cfg: cfg.withDefaults()}
}

// Connect returns a Supervisor for endpoint (host:port, default port
// 27017 is the caller's responsibility to supply). No connection is dialed
// until the Supervisor's first Acquire/Send/Query call.
func (d *Driver) Connect(endpoint string) *topology.Supervisor {
	connOpts := []connection.Option{
		connection.WithMaxFrameBytes(d.cfg.MaxFrameBytes),
	}
	if d.cfg.Dialer != nil {
		connOpts = append(connOpts, connection.WithDialer(d.cfg.Dialer))
	}
	if d.cfg.Log != nil {
		connOpts = append(connOpts, connection.WithLogger(d.cfg.Log))
	}

	supCfg := topology.Config{
		MaxConnections:         d.cfg.MaxConnectionsPerEndpoint,
		MaxConsecutiveFailures: d.cfg.MaxConsecutiveFailures,
		ReconnectBase:          d.cfg.ReconnectBase,
		ReconnectCap:           d.cfg.ReconnectCap,
		ReconnectJitter:        d.cfg.ReconnectJitter,
		ConnectTimeout:         d.cfg.ConnectTimeout,
		ShutdownTimeout:        d.cfg.ShutdownTimeout,
		RequestTimeout:         d.cfg.RequestTimeout,
		CursorBatchSize:        d.cfg.CursorBatchSize,
	}

	supOpts := []topology.SupervisorOption{topology.WithConnectionOptions(connOpts...)}
	if d.cfg.Log != nil {
		supOpts = append(supOpts, topology.WithLogger(d.cfg.Log))
	}

	return topology.New(endpoint, supCfg, supOpts...)
}
