// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fsm_test

import (
	"context"
	"errors"
	"time"

	loopfsm "github.com/looplab/fsm"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internalfsm "github.com/united-manufacturing-hub/ran-console-core/internal/fsm"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/backoff"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
)

func newTestMachine() *internalfsm.Machine {
	return internalfsm.NewMachine(internalfsm.Config{
		ID:           "test-machine",
		InitialState: "idle",
		Transitions: []loopfsm.EventDesc{
			{Name: "start", Src: []string{"idle"}, Dst: "running"},
			{Name: "finish", Src: []string{"running"}, Dst: "done"},
			{Name: "reset", Src: []string{"done"}, Dst: "idle"},
		},
		Backoff: &backoff.Config{
			Name:            "test-machine",
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			MaxRetries:      2,
		},
	}, logger.For("FsmTest"))
}

var _ = Describe("Machine", func() {
	var machine *internalfsm.Machine

	BeforeEach(func() {
		machine = newTestMachine()
	})

	It("starts in the initial state", func() {
		Expect(machine.Current()).To(Equal("idle"))
	})

	It("follows the transition table", func() {
		Expect(machine.SendEvent(context.Background(), "start")).To(Succeed())
		Expect(machine.Current()).To(Equal("running"))
		Expect(machine.SendEvent(context.Background(), "finish")).To(Succeed())
		Expect(machine.Current()).To(Equal("done"))
	})

	It("rejects events with no transition from the current state", func() {
		Expect(machine.SendEvent(context.Background(), "finish")).ToNot(Succeed())
		Expect(machine.Current()).To(Equal("idle"))
	})

	It("fires the enter callback for the destination state", func() {
		entered := ""
		machine.AddCallback("enter_running", func(_ context.Context, e *loopfsm.Event) {
			entered = e.Dst
		})
		Expect(machine.SendEvent(context.Background(), "start")).To(Succeed())
		Expect(entered).To(Equal("running"))
	})

	It("refuses events on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(machine.SendEvent(ctx, "start")).ToNot(Succeed())
		Expect(machine.Current()).To(Equal("idle"))
	})

	It("refuses events when the deadline is too close", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()
		err := machine.SendEvent(ctx, "start")
		Expect(err).To(HaveOccurred())
		Expect(machine.Current()).To(Equal("idle"))
	})

	Describe("error tracking", func() {
		It("opens a backoff window after a failure", func() {
			now := time.Now()
			Expect(machine.SetError(errors.New("remote down"), now)).To(BeFalse())
			Expect(machine.ShouldSkipOperation(now)).To(BeTrue())
			Expect(machine.ShouldSkipOperation(now.Add(time.Second))).To(BeFalse())
		})

		It("turns permanent once the retry budget is spent", func() {
			now := time.Now()
			machine.SetError(errors.New("one"), now)
			machine.SetError(errors.New("two"), now)
			Expect(machine.SetError(errors.New("three"), now)).To(BeTrue())
			Expect(machine.IsPermanentlyFailed()).To(BeTrue())
		})

		It("recovers after ClearError", func() {
			now := time.Now()
			machine.SetError(errors.New("one"), now)
			machine.ClearError()
			Expect(machine.ShouldSkipOperation(now)).To(BeFalse())
			Expect(machine.LastError()).To(BeNil())
			Expect(machine.RetryCount()).To(BeZero())
		})
	})
})
