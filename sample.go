// sample.go
package main

// ILog is the logging contract resolved at injection time.
type ILog interface {
	Log(msg string)
}

// IClock provides the current time to scoped services.
type IClock interface {
	Now() int64
}

// IHandler marks request handlers collected by the gateway.
type IHandler interface {
	Handle(path string) error
}

//digen:service lifetime=singleton
//digen:implements ILog
type ConsoleLog struct{}

func (c *ConsoleLog) Log(msg string) {}

//digen:service lifetime=singleton
//digen:implements IClock
type SystemClock struct{}

func (s *SystemClock) Now() int64 { return 0 }

//digen:service lifetime=scoped
type Repository struct {
	log ILog `digen:"inject"`
}

//digen:service lifetime=scoped extends=Repository
type OrderService struct {
	Repository
	clock IClock `digen:"inject"`
}

//digen:service
//digen:implements IHandler
//digen:requires ILog
type OrderHandler struct{}

func (h *OrderHandler) Handle(path string) error { return nil }

//digen:service lifetime=singleton
//digen:requires []IHandler
type Gateway struct{}

//digen:service worker
//digen:register when=ENABLE_SWEEPER == "1"
type Sweeper struct {
	log      ILog `digen:"inject"`
	interval int  `digen:"config:SWEEP_INTERVAL"`
}
