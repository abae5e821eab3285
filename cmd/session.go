package cmd

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/worker"
	"github.com/pkg/errors"
)

const replyTimeout = 5 * time.Second

var ErrNoSession = errors.New("no such session")

// session is one live performance. Requests on a session are serialized so
// each reply is read by the request that asked for it.
type session struct {
	mu     sync.Mutex
	snap   model.Snapshot
	worker *worker.Worker
	cancel context.CancelFunc
}

type sessions struct {
	mu   sync.Mutex
	byID map[string]*session
}

func newSessions() *sessions {
	return &sessions{byID: map[string]*session{}}
}

func (s *sessions) create(doc model.Document) (string, *session, error) {
	snap, err := snapshotFromDocument(doc)
	if err != nil {
		return "", nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		snap:   snap,
		worker: worker.New(worker.Options{Lookahead: constants.GetLookahead(), Snapshot: &snap}),
		cancel: cancel,
	}
	go sess.worker.Run(ctx)

	id := uuid.New().String()
	s.mu.Lock()
	s.byID[id] = sess
	s.mu.Unlock()
	return id, sess, nil
}

func (s *sessions) get(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (s *sessions) remove(id string) error {
	s.mu.Lock()
	sess, ok := s.byID[id]
	delete(s.byID, id)
	s.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	sess.worker.Client().Close()
	sess.cancel()
	return nil
}

// sync keeps the session's arrangement and applies everything else. Bursts
// are coalesced by the client.
func (sess *session) sync(snap model.Snapshot) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	snap.Arrangement = sess.snap.Arrangement
	if snap.Enabled == nil {
		snap.Enabled = sess.snap.Enabled
	}
	sess.snap = snap.Clone()
	sess.worker.Client().SyncDebounced(sess.snap)
}

// request sends cmd and waits for the first event accepted by match.
// Events that do not match, such as replies to an abandoned request, are
// discarded.
func (sess *session) request(cmd worker.Command, match func(worker.Event) bool) (worker.Event, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.worker.Client().Send(cmd); err != nil {
		return nil, err
	}
	if match == nil {
		return nil, nil
	}
	timeout := time.NewTimer(replyTimeout)
	defer timeout.Stop()
	for {
		select {
		case e, ok := <-sess.worker.Events():
			if !ok {
				return nil, worker.ErrClosed
			}
			done, err := reply(cmd, e, match)
			if err != nil {
				return nil, err
			}
			if done {
				return e, nil
			}
		case <-timeout.C:
			return nil, errors.New("worker did not reply in time")
		}
	}
}

// reply decides whether e answers cmd. Errors from other commands, such
// as a debounced sync nobody waited for, are logged and skipped.
func reply(cmd worker.Command, e worker.Event, match func(worker.Event) bool) (bool, error) {
	failed, isErr := e.(worker.EventError)
	if !isErr {
		return match(e), nil
	}
	if failed.Command != worker.CommandName(cmd) {
		log.Printf("WARN session skipped %s error while waiting on %s: %v",
			failed.Command, worker.CommandName(cmd), failed.Err)
		return false, nil
	}
	return true, failed.Err
}
