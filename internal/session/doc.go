// Package session orchestrates the per-connection scanning state machine.
//
// A Session moves between no-card, tentative and stable detection using a
// bounded FIFO of per-frame detection booleans, layered on top of the
// tracker's own grace-period retention. It counts consecutive fully valid
// frames toward the auto-capture trigger and owns every piece of mutable
// per-connection state, so independent sessions can be processed
// concurrently without shared locking.
package session
