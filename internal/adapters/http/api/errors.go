package api

import "errors"

// ErrNilMux is the panic value when Register is given no mux.
var ErrNilMux = errors.New("api: nil mux")
