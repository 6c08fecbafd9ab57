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

// Package errs defines the error kinds the tool protocol frontend
// recognizes (spec §7): validation failures, not-found lookups,
// conflicts, budget/rate-limit refusals, missing dependencies, sampler
// failures, and timeouts. Every kind wraps a sentinel so callers can test
// with errors.Is/As while handlers still get a human-readable message.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Sentinels for errors.Is checks.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrBudgetExceeded    = errors.New("budget exceeded")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrMissingDependency = errors.New("missing dependency")
	ErrSampler           = errors.New("sampler error")
	ErrTimeout           = errors.New("timeout")
)

// ValidationError reports an argument that failed schema validation.
type ValidationError struct {
	Tool  string
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: tool %q field %q: %s", e.Tool, e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a registry lookup miss (agent, skill, wait handle).
type NotFoundError struct {
	Kind string // "agent", "skill", "wait handle", "toolkit", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports a duplicate create, delete-while-attached,
// unload-while-required, or requiredSkills cycle.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return fmt.Sprintf("conflict: %s", e.Reason) }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// BudgetError names the exceeded dimension and the store's reason.
type BudgetError struct {
	Dimension string // "tokens", "cost", "calls" (model.BudgetDimension values)
	Reason    string
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%s budget exceeded: %s", e.Dimension, e.Reason)
}

func (e *BudgetError) Unwrap() error { return ErrBudgetExceeded }

// RateLimitError carries a retry-after hint in seconds.
type RateLimitError struct {
	RetryAfter time.Duration
	Reason     string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s (retry after %.0fs)", e.Reason, e.RetryAfter.Seconds())
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimitExceeded }

// MissingDependencyError reports a skill referencing an unresolvable
// toolkit or required skill at load time.
type MissingDependencyError struct {
	SkillID string
	Kind    string // "toolkit", "requiredSkill"
	Ref     string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("skill %q references unknown %s %q", e.SkillID, e.Kind, e.Ref)
}

func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }

// SamplerError wraps any failure surfaced by the sampling facility,
// propagated verbatim per spec §7.
type SamplerError struct {
	Cause error
}

func (e *SamplerError) Error() string { return fmt.Sprintf("sampler error: %v", e.Cause) }

func (e *SamplerError) Unwrap() error { return e.Cause }

func (e *SamplerError) Is(target error) bool { return target == ErrSampler }

// TimeoutError reports a synchronous wait, or a non-continuable async
// operation, that exceeded its deadline.
type TimeoutError struct {
	Operation string
	After     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.After)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }
