//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package bitvec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func fromBits(s string) *BitVector {
	bv := New(len(s))
	for i, c := range s {
		if c == '1' {
			bv.SetBit(i, 1)
		}
	}
	return bv
}

func TestXor(t *testing.T) {
	a := fromBits("1010")
	b := fromBits("0110")
	r, err := a.Xor(b)
	require.NoError(t, err)
	require.Equal(t, "1100", r.String())
}

func TestAnd(t *testing.T) {
	a := fromBits("1101")
	b := fromBits("1011")
	r, err := a.And(b)
	require.NoError(t, err)
	require.Equal(t, "1001", r.String())
}

func TestNot(t *testing.T) {
	a := fromBits("0011")
	require.Equal(t, "1100", a.Not().String())
}

func TestSizeMismatch(t *testing.T) {
	a := New(4)
	b := New(5)

	_, err := a.Xor(b)
	require.ErrorIs(t, err, ErrSizeMismatch)

	_, err = a.And(b)
	require.ErrorIs(t, err, ErrSizeMismatch)

	err = a.XorInto(b)
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestFromBytesWrongLengthIsSizeMismatch(t *testing.T) {
	_, err := FromBytes([]byte{0x01}, 9)
	require.True(t, errors.Is(err, ErrSizeMismatch))
}

func TestSubsetOutOfRangeIsSizeMismatch(t *testing.T) {
	a := fromBits("1010")
	_, err := a.Subset(2, 5)
	require.True(t, errors.Is(err, ErrSizeMismatch))
}

func TestAppendSubset(t *testing.T) {
	a := fromBits("101")
	b := fromBits("01")
	r := a.Append(b)
	require.Equal(t, "10101", r.String())

	sub, err := r.Subset(1, 4)
	require.NoError(t, err)
	require.Equal(t, "010", sub.String())
}

func TestBytesRoundtrip(t *testing.T) {
	a := fromBits("101")
	data := a.Bytes()
	require.Len(t, data, 1)
	require.Equal(t, byte(0b101), data[0])

	b, err := FromBytes(data, 3)
	require.NoError(t, err)
	require.Equal(t, "101", b.String())
}

func TestRandomFillSize(t *testing.T) {
	bv, err := Random(13)
	require.NoError(t, err)
	require.Equal(t, 13, bv.Size())
	require.Len(t, bv.Bytes(), 2)
}
