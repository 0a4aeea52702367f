// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"fmt"
	"path/filepath"
)

// canonicalizeAppRoot resolves documentRoot+"/.." the way
// ext/common/Utils.cpp's canonicalizePath resolves it via realpath(3):
// symlinks followed, "." and ".." collapsed. §4.5 step 4 uses the result
// to identify which application a request belongs to.
func canonicalizeAppRoot(documentRoot string) (string, error) {
	joined := filepath.Join(documentRoot, "..")
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", fmt.Errorf("helperserver: cannot resolve app root %q: %w", joined, err)
	}
	return resolved, nil
}
