// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Package helperserver implements the authenticated local-socket front
// standing between a web server and a pool of application backend
// processes: it accepts local connections, checks a shared password,
// parses the framed request headers, leases a backend session from a
// Pool, streams the request through, and rewrites the backend's
// CGI-style response into an HTTP/1.1 response.
//
// It is deliberately decoupled from the rest of hemi, the way procman
// sits next to it: a leader process spawns this as a child, hands it
// a root directory, an interpreter path, an inherited admin pipe fd,
// and a handful of pool-sizing knobs (see Config), and reads nothing
// back except its exit code.
package helperserver
