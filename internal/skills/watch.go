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
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/agentcore/core/internal/logger"
)

const watchDebounce = 200 * time.Millisecond

// Watch starts watching the storage directory for externally-dropped or
// edited skill JSON files and rehydrates the in-memory cache on change,
// generalizing the teacher's config.FileProvider.Watch from a single
// config file to a directory of skill files. It returns once the watch
// is established; events are handled in a background goroutine until ctx
// is canceled.
func (s *Service) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("skills: creating watcher: %w", err)
	}
	if err := watcher.Add(s.store.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("skills: watching %q: %w", s.store.dir, err)
	}

	go s.watchLoop(ctx, watcher)
	logger.Get().Info("skills: watching storage dir for external changes", "dir", s.store.dir)
	return nil
}

func (s *Service) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == "usage-stats.json" || !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			path := event.Name
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(watchDebounce, func() { s.rehydrateOne(path) })

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Get().Warn("skills: watcher error", "error", err)
		}
	}
}

// rehydrateOne reloads a single skill file changed on disk and merges it
// into the in-memory cache, the same way New's startup rehydration does
// for the whole directory.
func (s *Service) rehydrateOne(path string) {
	sk, ok, err := s.store.loadOne(path)
	if err != nil {
		logger.Get().Warn("skills: failed to rehydrate skill file", "path", path, "error", err)
		return
	}
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.skills.Set(sk.ID, sk)
	logger.Get().Info("skills: rehydrated skill from external change", "id", sk.ID, "path", path)
}
