package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures surfaced by the provisioning and backup components.
type Kind string

const (
	KindCatalog      Kind = "catalog"
	KindDownload     Kind = "download"
	KindRuntimeFetch Kind = "runtime_fetch"
	KindIO           Kind = "io"
)

// Sentinels for errors.Is matching on a Kind.
var (
	ErrCatalog      = &Error{Kind: KindCatalog}
	ErrDownload     = &Error{Kind: KindDownload}
	ErrRuntimeFetch = &Error{Kind: KindRuntimeFetch}
	ErrIO           = &Error{Kind: KindIO}
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" && e.Err == nil {
		return fmt.Sprintf("%s error", e.Kind)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func CatalogError(op string, err error) error {
	return &Error{Kind: KindCatalog, Op: op, Err: err}
}

func DownloadError(op string, err error) error {
	return &Error{Kind: KindDownload, Op: op, Err: err}
}

func RuntimeFetchError(op string, err error) error {
	return &Error{Kind: KindRuntimeFetch, Op: op, Err: err}
}

func IOError(op string, err error) error {
	return &Error{Kind: KindIO, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
