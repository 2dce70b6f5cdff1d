package vmem

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
)

// Address space and parameter bounds
const (
	DefaultLogicalAddressBits = 27 // 128 MB logical address space

	MinPageSize         = 256
	MaxPageSize         = 8192
	MinPhysicalMemoryMB = 4
	MaxPhysicalMemoryMB = 64
)

// Config holds simulator configuration
type Config struct {
	// Memory geometry
	PageSize           uint32 `json:"page_size" toml:"page_size"`                       // Page size in bytes, power of two
	PhysicalMemoryMB   uint32 `json:"physical_memory_mb" toml:"physical_memory_mb"`     // Physical memory in megabytes, power of two
	LogicalAddressBits uint32 `json:"logical_address_bits" toml:"logical_address_bits"` // Width of a logical address

	// Simulation
	Policies       []string `json:"policies" toml:"policies"`                 // Replacement policies to run (fifo, lifo, lru)
	TraceFile      string   `json:"trace_file" toml:"trace_file"`             // Large reference trace
	SmallTraceFile string   `json:"small_trace_file" toml:"small_trace_file"` // Small trace listed reference by reference
	Verify         bool     `json:"verify" toml:"verify"`                     // Check invariants after every reference

	// Logging
	LogLevel string `json:"log_level" toml:"log_level"` // Log level (debug, info, warn, error)
	LogFile  string `json:"log_file" toml:"log_file"`   // Optional log file, in addition to stderr
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		PageSize:           4096,
		PhysicalMemoryMB:   16,
		LogicalAddressBits: DefaultLogicalAddressBits,
		Policies:           []string{AlgorithmFIFO, AlgorithmLIFO, AlgorithmLRU},
		TraceFile:          "large_refs.txt",
		SmallTraceFile:     "small_refs.txt",
		Verify:             false,
		LogLevel:           "info",
	}
}

// LoadConfigFromFile loads configuration from a JSON or TOML file,
// chosen by extension
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		// go-toml replaces the whole struct, so decode aside and overlay
		var fromFile Config
		if err = toml.Unmarshal(data, &fromFile); err == nil {
			config.overlay(&fromFile)
		}
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// overlay copies every non-zero field of other into c
func (c *Config) overlay(other *Config) {
	if other.PageSize != 0 {
		c.PageSize = other.PageSize
	}
	if other.PhysicalMemoryMB != 0 {
		c.PhysicalMemoryMB = other.PhysicalMemoryMB
	}
	if other.LogicalAddressBits != 0 {
		c.LogicalAddressBits = other.LogicalAddressBits
	}
	if len(other.Policies) != 0 {
		c.Policies = other.Policies
	}
	if other.TraceFile != "" {
		c.TraceFile = other.TraceFile
	}
	if other.SmallTraceFile != "" {
		c.SmallTraceFile = other.SmallTraceFile
	}
	if other.Verify {
		c.Verify = true
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
}

// LoadConfigFromEnv loads configuration from environment variables
// Falls back to default values if environment variables are not set
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()
	config.ApplyEnv()
	return config
}

// ApplyEnv overrides fields that have a PAGESIM_* variable set
func (c *Config) ApplyEnv() {
	// Geometry
	if val := os.Getenv("PAGESIM_PAGE_SIZE"); val != "" {
		if size, err := strconv.ParseUint(val, 10, 32); err == nil {
			c.PageSize = uint32(size)
		}
	}

	if val := os.Getenv("PAGESIM_PHYSICAL_MEMORY_MB"); val != "" {
		if size, err := strconv.ParseUint(val, 10, 32); err == nil {
			c.PhysicalMemoryMB = uint32(size)
		}
	}

	// Simulation
	if val := os.Getenv("PAGESIM_POLICIES"); val != "" {
		c.Policies = splitList(val)
	}

	if val := os.Getenv("PAGESIM_TRACE_FILE"); val != "" {
		c.TraceFile = val
	}

	if val := os.Getenv("PAGESIM_SMALL_TRACE_FILE"); val != "" {
		c.SmallTraceFile = val
	}

	if val := os.Getenv("PAGESIM_VERIFY"); val != "" {
		c.Verify = val == "true" || val == "1"
	}

	// Logging
	if val := os.Getenv("PAGESIM_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv("PAGESIM_LOG_FILE"); val != "" {
		c.LogFile = val
	}
}

// SaveToFile saves the configuration to a JSON or TOML file, chosen by extension
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		data, err = toml.Marshal(*c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !isPowerOfTwo(c.PageSize) || c.PageSize < MinPageSize || c.PageSize > MaxPageSize {
		return ErrInvalidConfig("Config.Validate",
			fmt.Sprintf("page size %d must be a power of 2 between %d and %d", c.PageSize, MinPageSize, MaxPageSize))
	}

	if c.PhysicalMemoryMB < MinPhysicalMemoryMB || c.PhysicalMemoryMB > MaxPhysicalMemoryMB {
		return ErrInvalidConfig("Config.Validate",
			fmt.Sprintf("physical memory size %d MB must be between %d and %d", c.PhysicalMemoryMB, MinPhysicalMemoryMB, MaxPhysicalMemoryMB))
	}

	if !isPowerOfTwo(c.PhysicalMemoryMB) {
		return ErrInvalidConfig("Config.Validate",
			fmt.Sprintf("physical memory size %d MB must be a power of 2", c.PhysicalMemoryMB))
	}

	if c.LogicalAddressBits == 0 || c.LogicalAddressBits > 32 {
		return ErrInvalidConfig("Config.Validate",
			fmt.Sprintf("logical address width %d must be between 1 and 32 bits", c.LogicalAddressBits))
	}

	if c.OffsetBits() >= c.LogicalAddressBits {
		return ErrInvalidConfig("Config.Validate", "page size must be smaller than the logical address space")
	}

	if c.NumFrames() > c.NumPages() {
		return ErrInvalidConfig("Config.Validate",
			fmt.Sprintf("physical memory (%d frames) exceeds logical address space (%d pages)", c.NumFrames(), c.NumPages()))
	}

	if len(c.Policies) == 0 {
		return ErrInvalidConfig("Config.Validate", "at least one replacement policy is required")
	}
	for _, p := range c.Policies {
		if !isKnownAlgorithm(p) {
			return ErrUnknownPolicy("Config.Validate", p)
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warn":    true,
		"warning": true,
		"error":   true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return ErrInvalidConfig("Config.Validate",
			fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel))
	}

	return nil
}

// PhysicalMemoryBytes returns the physical memory size in bytes
func (c *Config) PhysicalMemoryBytes() uint64 {
	return uint64(c.PhysicalMemoryMB) << 20
}

// OffsetBits returns log2 of the page size
func (c *Config) OffsetBits() uint32 {
	return log2(uint64(c.PageSize))
}

// NumPages returns the number of pages in the logical address space
func (c *Config) NumPages() uint32 {
	return 1 << (c.LogicalAddressBits - c.OffsetBits())
}

// NumFrames returns the number of frames in physical memory
func (c *Config) NumFrames() uint32 {
	return uint32(c.PhysicalMemoryBytes() >> c.OffsetBits())
}

// PageNumber maps a logical address to its page number.
// ok is false when the address lies outside the logical address space.
func (c *Config) PageNumber(addr uint64) (page uint32, ok bool) {
	pageNum := addr >> c.OffsetBits()
	if pageNum >= uint64(c.NumPages()) {
		return 0, false
	}
	return uint32(pageNum), true
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	policies := make([]string, len(c.Policies))
	copy(policies, c.Policies)
	return &Config{
		PageSize:           c.PageSize,
		PhysicalMemoryMB:   c.PhysicalMemoryMB,
		LogicalAddressBits: c.LogicalAddressBits,
		Policies:           policies,
		TraceFile:          c.TraceFile,
		SmallTraceFile:     c.SmallTraceFile,
		Verify:             c.Verify,
		LogLevel:           c.LogLevel,
		LogFile:            c.LogFile,
	}
}

func isPowerOfTwo(x uint32) bool {
	return x != 0 && x&(x-1) == 0
}

func log2(x uint64) uint32 {
	return uint32(bits.Len64(x) - 1)
}

func isKnownAlgorithm(name string) bool {
	name = strings.ToLower(name)
	for _, a := range Algorithms {
		if a == name {
			return true
		}
	}
	return false
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

// ParsePolicies splits a comma-separated policy list and validates each name
func ParsePolicies(val string) ([]string, error) {
	policies := splitList(val)
	if len(policies) == 0 {
		return nil, ErrInvalidConfig("ParsePolicies", "empty policy list")
	}
	for _, p := range policies {
		if !isKnownAlgorithm(p) {
			return nil, ErrUnknownPolicy("ParsePolicies", p)
		}
	}
	return policies, nil
}
