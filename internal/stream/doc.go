// Package stream defines the push-source contract consumed by the join engine.
//
// A source is an Observable: subscribing hands it an Observer and returns a
// Subscription that cancels delivery. Sources push at their own pace from any
// goroutine; the only ordering guarantee a consumer may rely on is the one the
// source itself provides.
//
// The package also carries a handful of small sources used by the CLI and by
// tests: Subject (hot, multicast), FromSlice (cold, scripted), FromChannel
// (bridges a Go channel) and the trivial Empty, Never and Fail.
package stream
