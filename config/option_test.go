package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/framegraph/engine/log"
	"github.com/framegraph/engine/reentrancy"
)

func TestOptions(t *testing.T) {
	testCases := []struct {
		name           string
		option         Option
		expectedConfig Config
	}{
		{
			name:           "WithWorkerCount",
			option:         WithWorkerCount(8),
			expectedConfig: Config{WorkerCount: 8},
		},
		{
			name:           "WithSoftMemoryCap",
			option:         WithSoftMemoryCap(64 << 20),
			expectedConfig: Config{SoftMemoryCap: 64 << 20},
		},
		{
			name:           "WithAlignment",
			option:         WithAlignment(64),
			expectedConfig: Config{Alignment: 64},
		},
		{
			name:           "WithLogger",
			option:         WithLogger(log.DefaultLogger),
			expectedConfig: Config{Logger: log.DefaultLogger},
		},
		{
			name:           "WithFlags",
			option:         WithFlags(true, false, true),
			expectedConfig: Config{DisableAutoLoading: true, EnableGraphInspection: false, EnableFrameGuards: true},
		},
		{
			name:           "WithReentrancy",
			option:         WithReentrancy(reentrancy.New(reentrancy.WithMode(reentrancy.Immediate))),
			expectedConfig: Config{Reentrancy: reentrancy.New(reentrancy.WithMode(reentrancy.Immediate))},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			tc.option.Apply(&cfg)
			assert.Equal(t, tc.expectedConfig, cfg)
		})
	}
}
