// Package envconfig reads BYTEPHASE_* settings from the environment.
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

var (
	// Set via BYTEPHASE_DEBUG in the environment
	Debug bool
	// Set via BYTEPHASE_READ_BUFFER in the environment
	ReadBuffer int
	// Set via BYTEPHASE_POOL_SIZE in the environment
	PoolSize int
	// Set via BYTEPHASE_PATTERN in the environment
	Pattern string
)

// DefaultReadBuffer is the corpus chunk size used when BYTEPHASE_READ_BUFFER is unset.
const DefaultReadBuffer = 2 << 20

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BYTEPHASE_DEBUG":       {"BYTEPHASE_DEBUG", Debug, "Show additional debug information (e.g. BYTEPHASE_DEBUG=1)"},
		"BYTEPHASE_READ_BUFFER": {"BYTEPHASE_READ_BUFFER", ReadBuffer, "Corpus read chunk size in bytes (default 2097152)"},
		"BYTEPHASE_POOL_SIZE":   {"BYTEPHASE_POOL_SIZE", PoolSize, "Number of encoding sessions (default number of CPUs)"},
		"BYTEPHASE_PATTERN":     {"BYTEPHASE_PATTERN", Pattern, "Pretokenizer regular expression (default GPT-2)"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

func LoadConfig() {
	Debug = false
	if debug := clean("BYTEPHASE_DEBUG"); debug != "" {
		d, err := strconv.ParseBool(debug)
		if err == nil {
			Debug = d
		} else {
			Debug = true
		}
	}

	ReadBuffer = DefaultReadBuffer
	if rb := clean("BYTEPHASE_READ_BUFFER"); rb != "" {
		val, err := strconv.Atoi(rb)
		if err != nil || val <= 0 {
			slog.Error("invalid setting must be greater than zero", "BYTEPHASE_READ_BUFFER", rb, "error", err)
		} else {
			ReadBuffer = val
		}
	}

	PoolSize = runtime.NumCPU()
	if ps := clean("BYTEPHASE_POOL_SIZE"); ps != "" {
		val, err := strconv.Atoi(ps)
		if err != nil || val <= 0 {
			slog.Error("invalid setting must be greater than zero", "BYTEPHASE_POOL_SIZE", ps, "error", err)
		} else {
			PoolSize = val
		}
	}

	Pattern = os.Getenv("BYTEPHASE_PATTERN")
}
