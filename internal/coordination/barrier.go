package coordination

import (
	"context"
	"time"
)

type hostState int

const (
	hostPending hostState = iota
	hostPrepared
	hostFailed
)

type hostStatus struct {
	state   hostState
	message string
}

// prepareBarrier tracks per-host preparation status and lets a waiter
// block until every expected host reaches a terminal state. Statuses are
// terminal: once a host is prepared or failed it never changes.
//
// Waiters are woken by closing the current notification channel; each
// signal installs a fresh one. This keeps the wait loop free of lock
// ordering against the backend mutex.
type prepareBarrier struct {
	status  map[string]hostStatus
	changed chan struct{}
}

func newPrepareBarrier() *prepareBarrier {
	return &prepareBarrier{
		status:  make(map[string]hostStatus),
		changed: make(chan struct{}),
	}
}

// signal records a terminal status for hostID. Repeated signals for the
// same host are ignored. Returns true if the status transitioned.
func (b *prepareBarrier) signal(hostID, errorMessage string) bool {
	if st, ok := b.status[hostID]; ok && st.state != hostPending {
		return false
	}
	st := hostStatus{state: hostPrepared}
	if errorMessage != "" {
		st = hostStatus{state: hostFailed, message: errorMessage}
	}
	b.status[hostID] = st
	close(b.changed)
	b.changed = make(chan struct{})
	return true
}

// check inspects the statuses of the listed hosts. done is true when all
// are terminal; a non-nil error reports the first failed host.
func (b *prepareBarrier) check(hostIDs []string) (done bool, err error) {
	done = true
	for _, id := range hostIDs {
		st, ok := b.status[id]
		if !ok || st.state == hostPending {
			done = false
			continue
		}
		if st.state == hostFailed {
			return true, &HostFailedError{HostID: id, Message: st.message}
		}
	}
	return done, nil
}

// preparedCount reports how many of the listed hosts finished
// successfully.
func (b *prepareBarrier) preparedCount(hostIDs []string) int {
	n := 0
	for _, id := range hostIDs {
		if st, ok := b.status[id]; ok && st.state == hostPrepared {
			n++
		}
	}
	return n
}

// wait blocks until check(hostIDs) is done, the timeout elapses, or ctx
// is cancelled. lock and unlock bracket access to the barrier's state
// (the owning backend's mutex). A failed host short-circuits the wait
// ahead of the timeout.
func (b *prepareBarrier) wait(ctx context.Context, hostIDs []string, timeout time.Duration, lock, unlock func()) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		lock()
		done, err := b.check(hostIDs)
		ch := b.changed
		unlock()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ch:
		case <-timer.C:
			return ErrWaitTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
