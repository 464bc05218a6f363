// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the signed-in identity and enforces the sliding
// idle timeout.
//
// # States
//
//	Anonymous ──login──▶ AwaitingSecondFactor ──verify──▶ Authenticated
//	    ▲                                                   │  ▲
//	    │                                         warning   │  │ activity
//	    │                                          timer    ▼  │
//	    └──────── logout / idle timeout ──────── AuthenticatedIdleWarning
//
// Every qualifying activity event re-arms both the warning timer and
// the logout timer from "now". The warning fires WarningLead before the
// deadline; the logout timer fires at IdleTimeout.
//
// # Key Types
//
//   - Manager: the lifecycle state machine
//   - Snapshot: an immutable view delivered to subscribers
//   - Authenticator, Store, Navigator: injected collaborators
//
// # Usage
//
//	mgr, err := session.New(session.DefaultConfig(), session.Deps{
//	    Auth:      client,
//	    Store:     storage.NewSessionStore(kv, logger),
//	    Navigator: router,
//	    Activity:  hub,
//	    Logger:    logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer mgr.Close()
//
//	outcome, err := mgr.Login(ctx, email, password)
//
// # Stale Responses
//
// Logout and every completed authentication bump a generation counter.
// A network response is applied only if the generation it started
// under is still current, so a slow login answer can never revive a
// session the user has already left.
package session
