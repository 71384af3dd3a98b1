package log

import "go.uber.org/zap"

// L is the process logger. It defaults to a nop so packages can log
// before (or without) Init, e.g. in unit tests.
var L = zap.NewNop()

// Init builds the zap logger (production or development encoding) and
// installs it as L.
func Init(prod bool) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if prod {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	L = l
	return l, nil
}
