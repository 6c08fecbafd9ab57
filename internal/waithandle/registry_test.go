// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package waithandle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/model"
)

func TestRegisterStartsPending(t *testing.T) {
	r := New()
	h := r.Register(model.WaitKindAgent, nil, nil, false)
	assert.Equal(t, model.WaitPending, h.Status)
	assert.NotEmpty(t, h.ID)
}

// TestStatusTransitionsAreTerminal grounds invariant H1: once completed,
// a later Fail must not flip the handle back to failed.
func TestStatusTransitionsAreTerminal(t *testing.T) {
	r := New()
	h := r.Register(model.WaitKindAgent, nil, nil, false)

	require.NoError(t, r.Complete(h.ID, "ok"))
	require.NoError(t, r.Fail(h.ID, "too late"))

	got, err := r.Lookup(h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitCompleted, got.Status)
	assert.Equal(t, "ok", got.Result)
	assert.Empty(t, got.Error)
}

// TestResultPresentIffCompleted grounds H2/H3.
func TestResultPresentIffCompleted(t *testing.T) {
	r := New()
	completed := r.Register(model.WaitKindAgent, nil, nil, false)
	require.NoError(t, r.Complete(completed.ID, map[string]any{"x": 1}))
	got, _ := r.Lookup(completed.ID)
	assert.NotNil(t, got.Result)
	assert.Empty(t, got.Error)

	failed := r.Register(model.WaitKindAgent, nil, nil, false)
	require.NoError(t, r.Fail(failed.ID, "boom"))
	got, _ = r.Lookup(failed.ID)
	assert.Nil(t, got.Result)
	assert.Equal(t, "boom", got.Error)
}

func TestWaitBlocksUntilCompletion(t *testing.T) {
	r := New()
	h := r.Register(model.WaitKindAgent, nil, nil, false)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = r.Complete(h.ID, "done")
	}()

	got, err := r.Wait(h.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.WaitCompleted, got.Status)
}

func TestWaitTimesOutWithoutFailingHandle(t *testing.T) {
	r := New()
	h := r.Register(model.WaitKindAgent, nil, nil, false)

	timeout := int64(10)
	got, err := r.Wait(h.ID, &timeout)
	require.NoError(t, err)
	assert.Equal(t, model.WaitPending, got.Status, "wait_for timeout must not fail the handle")
}

// TestContinuableDeadlineSetsTimedOutFlag grounds the continuable timeout
// path: the timer marks timedOut rather than force-failing, so background
// work can finish up and call Complete with interrupted=true itself.
func TestContinuableDeadlineSetsTimedOutFlag(t *testing.T) {
	r := New()
	timeoutMs := int64(10)
	h := r.Register(model.WaitKindTeam, nil, &timeoutMs, true)

	time.Sleep(30 * time.Millisecond)
	assert.True(t, r.TimedOut(h.ID))

	got, err := r.Lookup(h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitPending, got.Status, "continuable timeout must not auto-fail")

	require.NoError(t, r.Complete(h.ID, map[string]any{"interrupted": true}))
}

func TestNonContinuableDeadlineFailsHandle(t *testing.T) {
	r := New()
	timeoutMs := int64(10)
	h := r.Register(model.WaitKindAgent, nil, &timeoutMs, false)

	time.Sleep(30 * time.Millisecond)
	got, err := r.Lookup(h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitFailed, got.Status)
}

func TestLookupUnknownHandle(t *testing.T) {
	r := New()
	_, err := r.Lookup("missing")
	require.Error(t, err)
}
