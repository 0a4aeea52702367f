// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import "testing"

type countingCloser struct {
	closes int
}

func (c *countingCloser) Close() error {
	c.closes++
	return nil
}

func TestOwnedFDClosesOnceAtZero(t *testing.T) {
	cc := &countingCloser{}
	fd := newOwnedFD(cc)

	if err := fd.release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if cc.closes != 1 {
		t.Fatalf("expected 1 close, got %d", cc.closes)
	}
}

func TestOwnedFDRetainDefersClose(t *testing.T) {
	cc := &countingCloser{}
	fd := newOwnedFD(cc)
	second := fd.retain()

	if err := fd.release(); err != nil {
		t.Fatalf("release 1: %v", err)
	}
	if cc.closes != 0 {
		t.Fatalf("expected 0 closes after first release, got %d", cc.closes)
	}

	if err := second.release(); err != nil {
		t.Fatalf("release 2: %v", err)
	}
	if cc.closes != 1 {
		t.Fatalf("expected 1 close after both released, got %d", cc.closes)
	}
}

func TestOwnedFDDoubleReleaseErrors(t *testing.T) {
	cc := &countingCloser{}
	fd := newOwnedFD(cc)

	if err := fd.release(); err != nil {
		t.Fatalf("release 1: %v", err)
	}
	if err := fd.release(); err != errDoubleRelease {
		t.Fatalf("expected errDoubleRelease, got %v", err)
	}
}
