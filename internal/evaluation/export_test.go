package evaluation

import "github.com/travelmodel/modechoice/internal/mode"

// WrapModes replaces every per trip mode with wrap(mode).
func (e *Engine) WrapModes(wrap func(mode.Mode) mode.Mode) {
	for i, m := range e.evaluated {
		e.evaluated[i] = wrap(m)
	}
}
