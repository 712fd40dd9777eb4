// Package relay is the event router: it classifies inbound gateway events
// (DMs, threaded replies, reactions) and drives the pending-forward,
// invitation, and management-session state machines, issuing outbound
// sends back through the gateway.
package relay
