// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handler

import "errors"

// errNoHandlersAreCreated is returned by NewHandlers when no hook address is
// configured. The client cannot receive lifecycle events without it, so
// startup fails.
var errNoHandlersAreCreated = errors.New("no handlers are created")
