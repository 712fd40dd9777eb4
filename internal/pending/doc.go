// Package pending tracks forwarded messages awaiting a reaction-driven
// decision. Each delivered copy gets its own artifact, keyed by the
// platform id of that copy. The table guarantees that a concurrent
// reject and reply on the same artifact resolve exactly once.
package pending
