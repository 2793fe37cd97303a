package controllers

import (
	"shule_tracker/internal/ledger"
	"shule_tracker/internal/proximity"
	"shule_tracker/internal/scheduler"
	"shule_tracker/internal/store"
	"shule_tracker/internal/tracking"
	"shule_tracker/internal/verification"
)

// Shared service handles, wired once at startup.
var (
	db          store.Store
	gateway     *verification.Gateway
	broadcaster *tracking.Broadcaster
	hub         *tracking.Hub
	monitor     *proximity.Monitor
	audit       *ledger.Ledger
	resetJob    *scheduler.DailyReset
)

// Init wires the controller layer; must run before SetupRouter.
func Init(
	s store.Store,
	g *verification.Gateway,
	b *tracking.Broadcaster,
	h *tracking.Hub,
	m *proximity.Monitor,
	r *scheduler.DailyReset,
) {
	db = s
	gateway = g
	broadcaster = b
	hub = h
	monitor = m
	audit = ledger.New(s)
	resetJob = r
}
