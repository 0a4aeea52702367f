// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadSharedSecretExactly64Bytes(t *testing.T) {
	raw := strings.Repeat("x", secretSize)
	secret, err := ReadSharedSecret(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadSharedSecret: %v", err)
	}
	if !bytes.Equal(secret[:], []byte(raw)) {
		t.Fatalf("secret bytes mismatch")
	}
}

func TestReadSharedSecretShortFails(t *testing.T) {
	if _, err := ReadSharedSecret(strings.NewReader("short")); err == nil {
		t.Fatal("expected error on short admin channel read")
	}
}

func TestSharedSecretMatches(t *testing.T) {
	var secret SharedSecret
	for i := range secret {
		secret[i] = byte(i)
	}

	if !secret.matches(secret[:]) {
		t.Fatal("secret should match itself")
	}

	other := secret
	other[0] ^= 0xFF
	if secret.matches(other[:]) {
		t.Fatal("differing secret should not match")
	}

	if secret.matches(secret[:secretSize-1]) {
		t.Fatal("short buffer should never match")
	}
}
