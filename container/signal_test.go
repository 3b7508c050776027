package container_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/relaykit/delegates/container"
	"github.com/relaykit/delegates/delegate"
)

var _ = Describe("Signal", func() {
	It("rejects Connect on a signal not built via NewSignal", func() {
		var s container.Signal
		_, err := s.Connect(delegate.Free(func() {}))
		Expect(err).To(MatchError(container.ErrSignalNotShared))
	})

	It("leaves the same subscriber set after connect+disconnect", func() {
		s := container.NewSignal()
		before := s.Size()

		sub, err := s.Connect(delegate.Free(func() {}))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Size()).To(Equal(before + 1))

		sub.Disconnect()
		Expect(s.Size()).To(Equal(before))
	})

	It("idempotently no-ops a double Disconnect", func() {
		s := container.NewSignal()
		sub, err := s.Connect(delegate.Free(func() {}))
		Expect(err).NotTo(HaveOccurred())

		sub.Disconnect()
		Expect(func() { sub.Disconnect() }).NotTo(Panic())
		Expect(s.Size()).To(Equal(0))
	})

	It("is a safe no-op to disconnect after the signal closes", func() {
		s := container.NewSignal()
		sub, err := s.Connect(delegate.Free(func() {}))
		Expect(err).NotTo(HaveOccurred())

		s.Close()
		Expect(func() { sub.Disconnect() }).NotTo(Panic())
	})

	It("disconnects via its scoped wrapper on a deferred call", func() {
		s := container.NewSignal()
		func() {
			sub, err := s.Connect(delegate.Free(func() {}))
			Expect(err).NotTo(HaveOccurred())
			defer sub.Scoped()()
			Expect(s.Size()).To(Equal(1))
		}()
		Expect(s.Size()).To(Equal(0))
	})

	It("disconnects via its scoped wrapper even when the caller panics", func() {
		s := container.NewSignal()
		func() {
			defer func() { recover() }()
			sub, err := s.Connect(delegate.Free(func() {}))
			Expect(err).NotTo(HaveOccurred())
			defer sub.Scoped()()
			panic("boom")
		}()
		Expect(s.Size()).To(Equal(0))
	})

	It("broadcasts to subscribers in connect order", func() {
		s := container.NewSignal()
		var buf string
		mk := func(c string) delegate.Delegate {
			return delegate.Opaque(func(...any) (any, error) { buf += c; return nil, nil })
		}
		_, _ = s.Connect(mk("a"))
		_, _ = s.Connect(mk("b"))
		_, _ = s.Connect(mk("c"))

		s.Broadcast()
		Expect(buf).To(Equal("abc"))
	})
})
