// Package dev provides live reload for development servers.
//
// This package implements:
//   - Polling file watcher for data files, manifests and config
//   - WebSocket-based browser refresh
//   - Error overlay in browser
//
// Static path generators are cached for the life of the process, so a
// change to the data they read is only picked up after the cache is
// cleared. The serve command wires a Watcher to App.Reload, which clears
// the cache and notifies browsers through a ReloadServer.
//
// # Reload Protocol
//
// The browser connects to /_meridian/reload via WebSocket.
// Messages are JSON-encoded:
//
//	{"type": "reload", "reason": "data/posts.json"}
//	{"type": "error", "code": "M003", "error": "..."}
//	{"type": "clear"}
//
// An error stays on screen until the next reload or clear, and is sent
// to browsers that connect while it is shown.
package dev
