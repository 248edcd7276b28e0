// Package events provides types and interfaces for an event-driven architecture.
//
// Services emit events without knowing which handlers will process them.
// The primary components are:
//   - Event: an immutable record of something that happened, with a JSON payload
//   - EventHandler: interface for components that can handle events
//   - EventEmitter: interface for components that can emit events
package events
