// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(&buf)
	helper := NewHelper(logger)

	helper.Infof("opened %s", "product.rnx")
	if !strings.Contains(buf.String(), "INFO") {
		t.Errorf("output %q does not contain level", buf.String())
	}
	if !strings.Contains(buf.String(), "opened product.rnx") {
		t.Errorf("output %q does not contain message", buf.String())
	}
}

func TestFilterLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFilter(NewStdLogger(&buf), FilterLevel(LevelError))
	helper := NewHelper(logger)

	helper.Debug("dropped")
	helper.Warnf("dropped %d", 1)
	if buf.Len() != 0 {
		t.Errorf("filtered entries were written: %q", buf.String())
	}

	helper.Errorf("kept %d", 2)
	if !strings.Contains(buf.String(), "kept 2") {
		t.Errorf("error entry missing: %q", buf.String())
	}
}
