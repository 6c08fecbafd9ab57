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
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/model"
	"github.com/agentcore/core/internal/toolkit"
)

func newTestService(t *testing.T, toolkits map[string][]string) *Service {
	t.Helper()
	svc, err := New(t.TempDir(), toolkit.NewStaticRegistry(toolkits))
	require.NoError(t, err)
	return svc
}

func TestCreateValidatesToolkitReference(t *testing.T) {
	svc := newTestService(t, map[string][]string{"search": {"web_search"}})
	ctx := context.Background()

	_, err := svc.Create(ctx, "s1", "Search Skill", "", model.SkillConfig{
		Toolkits: []string{"search"},
	}, model.SkillMetadata{})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "s2", "Bad Skill", "", model.SkillConfig{
		Toolkits: []string{"nonexistent"},
	}, model.SkillMetadata{})
	require.Error(t, err)
}

func TestCreateDuplicateIDConflicts(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, "s1", "One", "", model.SkillConfig{}, model.SkillMetadata{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "s1", "Two", "", model.SkillConfig{}, model.SkillMetadata{})
	require.Error(t, err)
}

// TestRequiredSkillsCycleRejected grounds invariant I3.
func TestRequiredSkillsCycleRejected(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "a", "A", "", model.SkillConfig{}, model.SkillMetadata{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "b", "B", "", model.SkillConfig{RequiredSkills: []string{"a"}}, model.SkillMetadata{})
	require.NoError(t, err)

	// Manually introduce a cycle a -> b -> a behind Create's own check by
	// going through the registry directly isn't exposed; instead verify
	// that creating c -> c (self-reference) is rejected.
	_, err = svc.Create(ctx, "c", "C", "", model.SkillConfig{RequiredSkills: []string{"c"}}, model.SkillMetadata{})
	require.Error(t, err)
}

func TestLoadRecursivelyLoadsRequiredSkills(t *testing.T) {
	svc := newTestService(t, map[string][]string{"tk": {"tool_a"}})
	ctx := context.Background()

	_, err := svc.Create(ctx, "base", "Base", "", model.SkillConfig{Toolkits: []string{"tk"}}, model.SkillMetadata{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "top", "Top", "", model.SkillConfig{RequiredSkills: []string{"base"}}, model.SkillMetadata{})
	require.NoError(t, err)

	loaded, err := svc.Load(ctx, "top")
	require.NoError(t, err)
	assert.True(t, loaded.Loaded)

	base, err := svc.Get("base")
	require.NoError(t, err)
	assert.True(t, base.Loaded)
	assert.Contains(t, base.LoadedTools, "tool_a")
}

func TestLoadIsIdempotent(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, "s1", "S1", "", model.SkillConfig{}, model.SkillMetadata{})
	require.NoError(t, err)

	_, err = svc.Load(ctx, "s1")
	require.NoError(t, err)
	_, err = svc.Load(ctx, "s1")
	require.NoError(t, err)
}

// TestUnloadRefusesWhileRequired grounds invariant I5.
func TestUnloadRefusesWhileRequired(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, "base", "Base", "", model.SkillConfig{}, model.SkillMetadata{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "top", "Top", "", model.SkillConfig{RequiredSkills: []string{"base"}}, model.SkillMetadata{})
	require.NoError(t, err)

	_, err = svc.Load(ctx, "top")
	require.NoError(t, err)

	_, err = svc.Unload("base")
	require.Error(t, err)

	_, err = svc.Unload("top")
	require.NoError(t, err)
	_, err = svc.Unload("base")
	require.NoError(t, err)
}

// TestDeleteRefusesWhileAttached grounds invariant I4.
func TestDeleteRefusesWhileAttached(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, "s1", "S1", "", model.SkillConfig{}, model.SkillMetadata{})
	require.NoError(t, err)

	target := model.AttachmentTarget{Type: "agent", ID: "agent1"}
	_, err = svc.Attach(ctx, "s1", target, "tester", nil)
	require.NoError(t, err)

	err = svc.Delete("s1")
	require.Error(t, err)

	require.NoError(t, svc.Detach("s1", target))
	require.NoError(t, svc.Delete("s1"))
}

func TestComposeUnionsToolkitsAndResolvesRuleConflicts(t *testing.T) {
	svc := newTestService(t, map[string][]string{"tk1": nil, "tk2": nil})
	ctx := context.Background()

	_, err := svc.Create(ctx, "s1", "S1", "", model.SkillConfig{
		Toolkits: []string{"tk1"},
		Rules:    []model.Rule{{ID: "r1", Description: "low priority", Priority: 1, Enabled: true}},
	}, model.SkillMetadata{})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "s2", "S2", "", model.SkillConfig{
		Toolkits: []string{"tk2"},
		Rules:    []model.Rule{{ID: "r1", Description: "high priority", Priority: 5, Enabled: true}},
	}, model.SkillMetadata{})
	require.NoError(t, err)

	comp, err := svc.Compose([]string{"s1", "s2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tk1", "tk2"}, comp.Toolkits)
	require.Len(t, comp.Rules, 1)
	assert.Equal(t, "high priority", comp.Rules[0].Description)
	require.Len(t, comp.Conflicts, 1)
	assert.Equal(t, "s2", comp.Conflicts[0].Winner)
	assert.Equal(t, []string{"r1"}, comp.Conflicts[0].Affected)
}

func TestComposeEqualPriorityFavorsEarlier(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, "s1", "S1", "", model.SkillConfig{
		Rules: []model.Rule{{ID: "r1", Description: "first", Priority: 1, Enabled: true}},
	}, model.SkillMetadata{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "s2", "S2", "", model.SkillConfig{
		Rules: []model.Rule{{ID: "r1", Description: "second", Priority: 1, Enabled: true}},
	}, model.SkillMetadata{})
	require.NoError(t, err)

	comp, err := svc.Compose([]string{"s1", "s2"})
	require.NoError(t, err)
	require.Len(t, comp.Rules, 1)
	assert.Equal(t, "first", comp.Rules[0].Description)
}

func TestExportImportSkipsDuplicate(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, "s1", "S1", "", model.SkillConfig{}, model.SkillMetadata{})
	require.NoError(t, err)

	bundle, err := svc.Export("s1", false, false)
	require.NoError(t, err)

	result, err := svc.Import(bundle)
	require.NoError(t, err)
	assert.Contains(t, result.Skipped, "s1")
	assert.Empty(t, result.Imported)
}

// TestUpdateIntoCycleRejected grounds invariant I3 at the mutation
// boundary Create alone can't exercise: Update is the only way a
// multi-hop requiredSkills cycle can be introduced, since Create can
// never reference a not-yet-created skill.
func TestUpdateIntoCycleRejected(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "s1", "S1", "", model.SkillConfig{}, model.SkillMetadata{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "s2", "S2", "", model.SkillConfig{RequiredSkills: []string{"s1"}}, model.SkillMetadata{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "s3", "S3", "", model.SkillConfig{RequiredSkills: []string{"s2"}}, model.SkillMetadata{})
	require.NoError(t, err)

	cfg := model.SkillConfig{RequiredSkills: []string{"s3"}}
	_, err = svc.Update(ctx, "s1", nil, nil, nil, &cfg, nil)
	require.Error(t, err)
}

func TestExportImportYAMLRoundTrips(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, "s1", "S1", "", model.SkillConfig{}, model.SkillMetadata{})
	require.NoError(t, err)

	data, err := svc.ExportYAML("s1", false, false)
	require.NoError(t, err)
	assert.Contains(t, string(data), "s1")

	other := newTestService(t, nil)
	result, err := other.ImportYAML(data)
	require.NoError(t, err)
	assert.Contains(t, result.Imported, "s1")
}

// TestWatchRehydratesExternallyWrittenSkill grounds the fsnotify hot
// reload: a skill file dropped into the storage dir by something other
// than this Service must show up in the in-memory cache without a
// restart.
func TestWatchRehydratesExternallyWrittenSkill(t *testing.T) {
	dir := t.TempDir()
	svc, err := New(dir, toolkit.NewStaticRegistry(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Watch(ctx))

	sk := model.Skill{ID: "external", Name: "External", Enabled: true}
	data, err := json.Marshal(sk)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "external.json"), data, 0o644))

	require.Eventually(t, func() bool {
		_, err := svc.Get("external")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestExportImportIntoFreshService(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, "s1", "S1", "", model.SkillConfig{}, model.SkillMetadata{})
	require.NoError(t, err)

	bundle, err := svc.Export("s1", false, false)
	require.NoError(t, err)

	other := newTestService(t, nil)
	result, err := other.Import(bundle)
	require.NoError(t, err)
	assert.Contains(t, result.Imported, "s1")

	got, err := other.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "S1", got.Name)
}
