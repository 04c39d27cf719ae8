// Copyright 2019 Ellis & Grant, Inc. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ir

import "github.com/ellisgrant/pmw/internal/pmwstring"

// PmwString aliases pmwstring.String so that IR fields can name the type
// directly without every caller importing the pmwstring package too.
type PmwString = pmwstring.String
