package sample

// ILog is a capability contract; implementations declare it, the
// interface itself carries no annotations.
type ILog interface {
	Print(msg string)
}

// IClock tells time.
type IClock interface {
	Now() int64
}

// ConsoleLog writes to stdout.
//
//digen:service lifetime=singleton
//digen:implements ILog
type ConsoleLog struct{}

// Base is the inheritance root.
//
//digen:service lifetime=scoped
type Base struct{}

// Mid stores a logger.
//
//digen:service extends=Base
type Mid struct {
	Base
	log ILog `digen:"inject"`
}

// Leaf consumes the clock without storing it.
//
//digen:service extends=Mid
//digen:requires IClock
type Leaf struct {
	Mid
}

// Gateway fans requests out to every registered handler.
//
//digen:service lifetime=singleton
//digen:requires []IHandler
type Gateway struct{}

// Sweeper runs cleanup in the background.
//
//digen:service worker
//digen:register when=ENABLE_SWEEPER == "1"
type Sweeper struct {
	interval int `digen:"config:SWEEP_INTERVAL"`
}

// MetricsHub exposes one shared instance behind a single contract.
//
//digen:service lifetime=singleton
//digen:implements ICounter, IGauge
//digen:register only=ICounter shared
type MetricsHub struct{}

//digen:service sealed
type hiddenCache struct {
	entries map[string]string
}

// plainStruct carries no annotations and is ignored.
type plainStruct struct {
	Name string
}
