// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package capture // import "github.com/scriptprof/hookprof/capture"

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	sha256 "github.com/minio/sha256-simd"
)

// Digest computes the sha256 of the capture file at path. Reports embed it
// so a profile can be tied back to the exact capture it was produced from.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
