package entity

import "errors"

var (
	ErrEmptyImage      = errors.New("empty image")
	ErrInvalidImage    = errors.New("invalid image")
	ErrEmptyCaption    = errors.New("captioner returned an empty caption")
	ErrInvalidTaxonomy = errors.New("invalid taxonomy")
)
