package io

import (
	"errors"

	"github.com/ezrec/ulang/translate"
)

var f = translate.From

var (
	// Device errors
	ErrStringUnterminated = errors.New(f("string not terminated"))
	ErrFrameMissing       = errors.New(f("no frame presented"))
)
