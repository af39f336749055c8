// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package volume_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/volnet/volume"
)

func TestPublicConstructors(t *testing.T) {
	v := volume.New(2, 2, 1, 3)
	assert.Equal(t, []float64{3, 3, 3, 3}, v.Weights())

	s := volume.FromSlice(1, 1, 2, []float64{1, 2})
	assert.Equal(t, 2.0, s.Get(0, 0, 1))

	r := volume.NewRandom(2, 2, 2, rand.New(rand.NewSource(1)))
	assert.Equal(t, 8, r.Len())
}

func TestIndexErrorIsExported(t *testing.T) {
	v := volume.New(2, 2, 2, 0)

	r := func() (r any) {
		defer func() { r = recover() }()
		v.Get(0, 0, 2)
		return nil
	}()
	if r == nil {
		t.Skip("built with volnet_nobounds")
	}

	idxErr, ok := r.(*volume.IndexError)
	if assert.True(t, ok, "panic value %v", r) {
		assert.Equal(t, "d", idxErr.Axis)
		assert.Equal(t, 2, idxErr.Size)
	}
}
