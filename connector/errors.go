package connector

import "github.com/ceyewan/flake/xerrors"

var (
	ErrNotConnected  = xerrors.WithCode(xerrors.New("connector: not connected"), "connector_not_connected")
	ErrAlreadyClosed = xerrors.WithCode(xerrors.New("connector: already closed"), "connector_closed")
	ErrConnection    = xerrors.WithCode(xerrors.New("connector: connection failed"), "connector_connection")
	ErrConfig        = xerrors.WithCode(xerrors.New("connector: invalid config"), "connector_config")
	ErrHealthCheck   = xerrors.WithCode(xerrors.New("connector: health check failed"), "connector_health_check")
)
