package rangectl

// Presenter renders a control. Implementations draw; they never mutate the
// control from inside these calls.
type Presenter interface {
	// AddIconButton registers a directional button at construction time.
	AddIconButton(b Button)
	// WriteStatus shows the numeric readout including its unit.
	WriteStatus(text string)
	// DisplayIcon selects the icon, e.g. "range_light_50" or "unknown".
	DisplayIcon(name string)
	// DrawArc redraws the indicator at a whole percentage in [0, 100].
	DrawArc(percent int)
	// Opened and Closed are the visual mode hooks.
	Opened()
	Closed()
}

// Action is the payload delivered to an ActionSink.
type Action struct {
	Value float64 `json:"value"`
}

// ActionSink receives committed values.
type ActionSink interface {
	RunAction(a Action) error
}

// ActionSinkFunc adapts a function to ActionSink.
type ActionSinkFunc func(a Action) error

// RunAction implements ActionSink.
func (f ActionSinkFunc) RunAction(a Action) error {
	return f(a)
}

type nopSink struct{}

func (nopSink) RunAction(Action) error { return nil }

// NopPresenter discards all rendering. Headless callers embed it and
// override what they need.
type NopPresenter struct{}

func (NopPresenter) AddIconButton(Button) {}
func (NopPresenter) WriteStatus(string)   {}
func (NopPresenter) DisplayIcon(string)   {}
func (NopPresenter) DrawArc(int)          {}
func (NopPresenter) Opened()              {}
func (NopPresenter) Closed()              {}
