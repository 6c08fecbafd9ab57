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

package model

import "time"

// WaitStatus is a wait handle's lifecycle state (spec §3 "WaitHandle").
type WaitStatus string

const (
	WaitPending   WaitStatus = "pending"
	WaitCompleted WaitStatus = "completed"
	WaitFailed    WaitStatus = "failed"
)

// WaitKind distinguishes the async operation a handle tracks.
type WaitKind string

const (
	WaitKindAgent  WaitKind = "agent"
	WaitKindTeam   WaitKind = "team"
	WaitKindCustom WaitKind = "custom"
)

// WaitHandle tracks one in-flight asynchronous operation (H1-H4).
type WaitHandle struct {
	ID        string            `json:"id"`
	Kind      WaitKind          `json:"kind"`
	Status    WaitStatus        `json:"status"`
	StartTime time.Time         `json:"startTime"`
	TimeoutMs *int64            `json:"timeoutMs,omitempty"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
	Result    any               `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
}
