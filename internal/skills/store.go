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

package skills

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentcore/core/internal/logger"
	"github.com/agentcore/core/internal/model"
)

// persister is the write-then-rename JSON file layout the teacher repo
// uses for its on-disk state (spec §4.3 "Persistence layout"): one file
// per skill plus a usage-stats sidecar, with malformed files quarantined
// rather than dropped so an operator can recover them (a supplemented
// feature — see SPEC_FULL.md).
type persister struct {
	dir string
}

func newPersister(dir string) (*persister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("skills: creating storage dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(filepath.Join(dir, ".quarantine"), 0o755); err != nil {
		return nil, fmt.Errorf("skills: creating quarantine dir: %w", err)
	}
	return &persister{dir: dir}, nil
}

func (p *persister) skillPath(id string) string {
	return filepath.Join(p.dir, id+".json")
}

func (p *persister) usageStatsPath() string {
	return filepath.Join(p.dir, "usage-stats.json")
}

// save writes a skill via write-then-rename: a temp file is written,
// then renamed over the target so a crash mid-write never
// leaves a truncated skill file (spec §4.3 "write-then-flip pattern").
func (p *persister) save(s model.Skill) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("skills: marshal %q: %w", s.ID, err)
	}
	return writeThenRename(p.skillPath(s.ID), data)
}

func (p *persister) delete(id string) error {
	err := os.Remove(p.skillPath(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("skills: delete %q: %w", id, err)
	}
	return nil
}

// loadAll scans the storage directory for *.json skill files (excluding
// the usage-stats sidecar), moving anything that fails to parse into the
// quarantine subdirectory instead of aborting startup.
func (p *persister) loadAll() ([]model.Skill, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("skills: reading storage dir: %w", err)
	}

	var out []model.Skill
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if entry.Name() == "usage-stats.json" {
			continue
		}

		path := filepath.Join(p.dir, entry.Name())
		sk, ok, err := p.loadOne(path)
		if err != nil {
			logger.Get().Warn("skills: failed reading skill file, skipping", "path", path, "error", err)
			continue
		}
		if !ok {
			continue
		}
		out = append(out, sk)
	}
	return out, nil
}

// loadOne reads and parses a single skill file, quarantining it instead
// of returning an error if it fails to parse. ok is false when the file
// was skipped (quarantined) rather than genuinely loaded.
func (p *persister) loadOne(path string) (model.Skill, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Skill{}, false, fmt.Errorf("skills: reading %q: %w", path, err)
	}

	var s model.Skill
	if err := json.Unmarshal(data, &s); err != nil {
		p.quarantine(path, filepath.Base(path))
		return model.Skill{}, false, nil
	}
	return s, true, nil
}

func (p *persister) quarantine(path, name string) {
	dst := filepath.Join(p.dir, ".quarantine", name)
	if err := os.Rename(path, dst); err != nil {
		logger.Get().Warn("skills: failed to quarantine unparseable skill file", "path", path, "error", err)
		return
	}
	logger.Get().Warn("skills: quarantined unparseable skill file", "path", path, "quarantined_to", dst)
}

func (p *persister) saveUsageStats(stats map[string]model.SkillUsageStats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("skills: marshal usage stats: %w", err)
	}
	return writeThenRename(p.usageStatsPath(), data)
}

func (p *persister) loadUsageStats() (map[string]model.SkillUsageStats, error) {
	data, err := os.ReadFile(p.usageStatsPath())
	if os.IsNotExist(err) {
		return map[string]model.SkillUsageStats{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("skills: reading usage stats: %w", err)
	}
	var stats map[string]model.SkillUsageStats
	if err := json.Unmarshal(data, &stats); err != nil {
		logger.Get().Warn("skills: usage stats file corrupt, starting fresh", "error", err)
		return map[string]model.SkillUsageStats{}, nil
	}
	return stats, nil
}

func writeThenRename(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("skills: writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("skills: renaming into place: %w", err)
	}
	return nil
}
