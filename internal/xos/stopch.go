package xos

import "sync"

// StopCh is a close-once signal channel for shutting a loop down
// cleanly. Ported from the teacher's
// cos.StopCh, whose actual source wasn't retained in the reference pack;
// the shape (Init/Listen/Close, safe to call Close more than once) is
// reconstructed from its call sites in transport/collect.go.
type StopCh struct {
	once sync.Once
	ch   chan struct{}
}

func (s *StopCh) Init() { s.ch = make(chan struct{}) }

func (s *StopCh) Listen() <-chan struct{} { return s.ch }

func (s *StopCh) Close() { s.once.Do(func() { close(s.ch) }) }
