package batterycode

import "github.com/rotisserie/eris"

// ErrInvalidInput is returned by Decode when the code cannot be sliced into
// the structured layout. Check with errors.Is.
var ErrInvalidInput = eris.New("batterycode: invalid input")
