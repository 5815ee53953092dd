package core

// RuntimeConfig contains configuration passed to a viewer at initialization.
// Viewers use it to adapt to the terminal size and to seed the simulation.
type RuntimeConfig struct {
	ScreenW  int   // Screen width in characters
	ScreenH  int   // Screen height in characters
	TickRate int   // Frames per second of the frame clock (default 60)
	Seed     int64 // RNG seed for decay sampling and splitting
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 60,
		Seed:     0, // 0 means use current time
	}
}
