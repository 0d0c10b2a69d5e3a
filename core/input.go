package core

// Mouse buttons, numbered as GLFW numbers them.
const (
	MouseButtonLeft   = 0
	MouseButtonRight  = 1
	MouseButtonMiddle = 2
)
