/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
)

// ExportLegacyText writes the document in the legacy tagged-text form
// (<format>text</format> per line), which older installs can re-import. A
// relative outPath lands in the project's exports folder.
func ExportLegacyText(ph *storage.ProjectHandle, outPath string) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(script.SerializeLegacy(ph.Doc)), 0o644); err != nil {
		return fmt.Errorf("write legacy text: %w", err)
	}
	return nil
}
