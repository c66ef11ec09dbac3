// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics exposes Prometheus collectors over the introspection
// surface of the guard primitives. Collectors read the live state at
// scrape time; nothing is sampled or buffered.
//
//	sem, _ := guard.NewSemaphore(8)
//	prometheus.MustRegister(metrics.NewSemaphoreCollector("db_conns", sem))
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kolkov/syncguard/guard"
)

// Metric names and help strings.
const (
	SemaphoreHeldN = "syncguard_semaphore_held_permits"
	SemaphoreHeldH = "Permits currently held through the semaphore."

	SemaphoreQueuedN = "syncguard_semaphore_queue_depth"
	SemaphoreQueuedH = "Goroutines currently blocked waiting to acquire."

	SemaphoreMaxN = "syncguard_semaphore_max_permits"
	SemaphoreMaxH = "Fixed maximum number of permits."

	RWMutexReadersN = "syncguard_rwmutex_readers"
	RWMutexReadersH = "Goroutines currently holding the lock in shared mode."

	RWMutexWriterN = "syncguard_rwmutex_writer_held"
	RWMutexWriterH = "Whether the lock is held in exclusive mode (0 or 1)."

	CondWaitersN = "syncguard_cond_waiters"
	CondWaitersH = "Goroutines currently blocked in Wait or TimedWait."
)

type semaphoreCollector struct {
	sem    *guard.Semaphore
	held   *prometheus.Desc
	queued *prometheus.Desc
	max    *prometheus.Desc
}

// NewSemaphoreCollector returns a collector exporting held permits,
// queue depth, and the permit maximum of s, labeled with name.
func NewSemaphoreCollector(name string, s *guard.Semaphore) prometheus.Collector {
	labels := prometheus.Labels{"name": name}
	return &semaphoreCollector{
		sem:    s,
		held:   prometheus.NewDesc(SemaphoreHeldN, SemaphoreHeldH, nil, labels),
		queued: prometheus.NewDesc(SemaphoreQueuedN, SemaphoreQueuedH, nil, labels),
		max:    prometheus.NewDesc(SemaphoreMaxN, SemaphoreMaxH, nil, labels),
	}
}

func (c *semaphoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.held
	ch <- c.queued
	ch <- c.max
}

func (c *semaphoreCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.held, prometheus.GaugeValue, float64(c.sem.Held()))
	ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(c.sem.QueueDepth()))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(c.sem.Max()))
}

type rwMutexCollector struct {
	lock    *guard.RWMutex
	readers *prometheus.Desc
	writer  *prometheus.Desc
}

// NewRWMutexCollector returns a collector exporting the reader count and
// writer flag of l, labeled with name.
func NewRWMutexCollector(name string, l *guard.RWMutex) prometheus.Collector {
	labels := prometheus.Labels{"name": name}
	return &rwMutexCollector{
		lock:    l,
		readers: prometheus.NewDesc(RWMutexReadersN, RWMutexReadersH, nil, labels),
		writer:  prometheus.NewDesc(RWMutexWriterN, RWMutexWriterH, nil, labels),
	}
}

func (c *rwMutexCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.readers
	ch <- c.writer
}

func (c *rwMutexCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.readers, prometheus.GaugeValue, float64(c.lock.Readers()))
	var w float64
	if c.lock.WriterHeld() {
		w = 1
	}
	ch <- prometheus.MustNewConstMetric(c.writer, prometheus.GaugeValue, w)
}

type condCollector struct {
	cond    *guard.Cond
	waiters *prometheus.Desc
}

// NewCondCollector returns a collector exporting the waiter count of c,
// labeled with name.
func NewCondCollector(name string, c *guard.Cond) prometheus.Collector {
	return &condCollector{
		cond:    c,
		waiters: prometheus.NewDesc(CondWaitersN, CondWaitersH, nil, prometheus.Labels{"name": name}),
	}
}

func (c *condCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.waiters
}

func (c *condCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.waiters, prometheus.GaugeValue, float64(c.cond.Waiters()))
}
