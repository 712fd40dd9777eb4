// Package platform defines the boundary to the chat platform: identifiers,
// inbound event payloads, the reaction affordance enumeration with its
// display-symbol mapping, the delivery error taxonomy, and the Gateway
// interface the relay core calls for all outbound operations.
package platform
