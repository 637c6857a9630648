package standalone

// Position represents a position in machine coordinates
type Position struct {
	X float64
	Y float64
	Z float64
	E float64 // Extruder
}

// Move represents a planned move with timing information
type Move struct {
	Start    Position
	End      Position
	Velocity float64  // Max velocity (mm/s)
	Accel    float64  // Acceleration (mm/s^2)
	Distance float64  // Total distance (mm)
	Duration uint32   // Duration in timer ticks

	// Trapezoidal profile parameters
	AccelTicks   uint32 // Time spent accelerating
	CruiseTicks  uint32 // Time spent at cruise velocity
	DecelTicks   uint32 // Time spent decelerating
	CruiseVel    float64 // Actual cruise velocity reached
	StartVel     float64 // Starting velocity
	EndVel       float64 // Ending velocity
}

// AxisConfig represents configuration for a single axis
type AxisConfig struct {
	StepPin      string  `json:"step_pin" yaml:"step_pin"`             // GPIO pin for step pulses
	DirPin       string  `json:"dir_pin" yaml:"dir_pin"`               // GPIO pin for direction
	EnablePin    string  `json:"enable_pin" yaml:"enable_pin"`         // GPIO pin for enable (optional)
	StepsPerMM   float64 `json:"steps_per_mm" yaml:"steps_per_mm"`     // Steps per millimeter
	MaxVelocity  float64 `json:"max_velocity" yaml:"max_velocity"`     // Maximum velocity (mm/s)
	MaxAccel     float64 `json:"max_accel" yaml:"max_accel"`           // Maximum acceleration (mm/s^2)
	HomingVel    float64 `json:"homing_vel" yaml:"homing_vel"`         // Homing velocity (mm/s)
	MinPosition  float64 `json:"min_position" yaml:"min_position"`     // Minimum position (mm)
	MaxPosition  float64 `json:"max_position" yaml:"max_position"`     // Maximum position (mm)
	InvertDir    bool    `json:"invert_dir" yaml:"invert_dir"`         // Invert direction signal
	InvertEnable bool    `json:"invert_enable" yaml:"invert_enable"`   // Invert enable signal
}

// EndstopConfig represents configuration for an endstop
type EndstopConfig struct {
	Pin    string `json:"pin" yaml:"pin"`       // GPIO pin
	Invert bool   `json:"invert" yaml:"invert"` // Invert signal
}

// HeaterConfig represents configuration for a heater
type HeaterConfig struct {
	SensorPin string     `json:"sensor_pin" yaml:"sensor_pin"` // ADC pin for thermistor
	HeaterPin string     `json:"heater_pin" yaml:"heater_pin"` // GPIO/PWM pin for heater
	PID       [3]float64 `json:"pid" yaml:"pid"`               // PID gains [Kp, Ki, Kd]
	MinTemp   float64    `json:"min_temp" yaml:"min_temp"`     // Minimum safe temperature
	MaxTemp   float64    `json:"max_temp" yaml:"max_temp"`     // Maximum safe temperature
	MaxPower  float64    `json:"max_power" yaml:"max_power"`   // Maximum power (0.0-1.0)
}

// MachineConfig represents the complete machine configuration
type MachineConfig struct {
	Mode       string                   `json:"mode" yaml:"mode"`             // "standalone" or "klipper"
	Kinematics string                   `json:"kinematics" yaml:"kinematics"` // "cartesian", "corexy", "delta"
	Axes       map[string]AxisConfig    `json:"axes" yaml:"axes"`             // "x", "y", "z", "e", etc.
	Endstops   map[string]EndstopConfig `json:"endstops" yaml:"endstops"`     // "x", "y", "z", etc.
	Heaters    map[string]HeaterConfig  `json:"heaters" yaml:"heaters"`       // "extruder", "bed", etc.

	// Global motion parameters
	DefaultVelocity   float64 `json:"default_velocity" yaml:"default_velocity"`     // Default feedrate (mm/s)
	DefaultAccel      float64 `json:"default_accel" yaml:"default_accel"`           // Default acceleration (mm/s^2)
	JunctionDeviation float64 `json:"junction_deviation" yaml:"junction_deviation"` // Junction deviation for cornering (mm)
}

// MachineState represents the current machine state
type MachineState struct {
	Position     Position // Current position
	Homed        [4]bool  // Homing status [X, Y, Z, E]
	AbsoluteMode bool     // Absolute (G90) vs relative (G91) positioning
	FeedRate     float64  // Current feedrate (mm/s)
	ExtrudeMode  bool     // Absolute vs relative extrusion
	Temperature  map[string]float64 // Current temperatures
	TargetTemp   map[string]float64 // Target temperatures
}

// GCodeCommand represents a parsed G-code command
type GCodeCommand struct {
	Type       byte               // 'G', 'M', 'T'
	Number     int                // Command number (e.g., 0 for G0, 28 for G28)
	Parameters map[byte]float64   // Parameters (X, Y, Z, E, F, S, etc.)
	Comment    string             // Comment text
}
