package processor

import "errors"

// ErrConfiguration marks a processor or registry set up that must stop startup.
var ErrConfiguration = errors.New("processor configuration error")
