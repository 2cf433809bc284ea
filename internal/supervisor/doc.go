// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

// Package supervisor provides process supervision using suture v4.
//
// The tree has two layers: storage (BadgerDB maintenance) and api (the
// HTTP server). A crash in one layer restarts only that layer's services;
// supervisor events are logged through the sutureslog bridge so they land
// in the same structured stream as the rest of the application.
package supervisor
