// Package join implements join patterns over asynchronous push sources.
//
// A Pattern names 1..N sources. A Plan pairs a pattern with a reaction. When
// every source of a plan has a value pending, one value is consumed from each,
// atomically, and the reaction fires with them in pattern order. Several plans
// may share a source; within one coordinator every distinct source is
// subscribed exactly once and its buffered values are shared by every plan
// that names it.
//
// ARCHITECTURE:
//
// Each coordinator owns a single gate (see internal/gate). Every source
// callback, every queue mutation and every match runs inside that gate, so
// "check all N queues, then take one from each" is atomic even when sources
// push concurrently. Synchronous reactions run inside the gate as well, which
// keeps per-plan delivery in match order. Asynchronous reactions are started
// after the gate is released and deliver their result under the gate once
// they resolve.
//
// LIFECYCLE:
//
//   - A source error is global: the coordinator fails, the downstream observer
//     sees exactly one OnError and every source subscription is cancelled.
//   - A completion is per plan: once a Completed marker sits at the head of
//     any queue a plan depends on, the plan retires and unregisters from all of
//     its sources. A source is unsubscribed when its last plan retires.
//   - When the last plan retires the downstream observer completes, unless the
//     coordinator was built WithKeepAlive.
//   - Disposing the coordinator cancels everything and delivers nothing.
package join
