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

package team

import (
	"strings"

	"github.com/agentcore/core/internal/model"
)

// evaluate checks one condition against the running context and the
// latest contribution (spec §4.8 "Condition evaluation"). Matching is
// text-based and case-insensitive by design — the spec explicitly warns
// against extending this into a structured expression language (§9).
func evaluate(cond model.Condition, runningContext string, latest model.ContributionResult) bool {
	check := strings.ToLower(cond.Check)
	haystack := strings.ToLower(runningContext + " " + latest.Contribution)

	switch {
	case strings.Contains(check, "error"):
		return strings.Contains(haystack, "error")
	case strings.Contains(check, "threshold"):
		return latest.Usage.TotalTokens > 2000
	case strings.Contains(check, "empty") || strings.Contains(check, "no response"):
		return strings.TrimSpace(latest.Contribution) == ""
	case strings.Contains(check, "success"):
		return !strings.Contains(haystack, "error") && !strings.Contains(haystack, "fail")
	default:
		return strings.Contains(haystack, check)
	}
}
